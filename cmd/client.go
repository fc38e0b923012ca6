package cmd

import (
	"context"
	"time"

	"github.com/lcdglow/lcdglow/internal/control"
)

// clientTimeout is the per-call deadline for control socket commands.
const clientTimeout = 10 * time.Second

// controlClient is the part of the UDS client the CLI commands use.
// Command bodies take it as a parameter so tests can inject a mock.
type controlClient interface {
	SourceLoad(ctx context.Context, path string) (*control.Response, error)
	Status(ctx context.Context) (*control.Response, error)
	Shutdown(ctx context.Context) (*control.Response, error)
	ConfigReload(ctx context.Context) (*control.Response, error)
}

// newClient dials the daemon control socket from the global flag.
func newClient() controlClient {
	return control.NewUDSClient(socketPath, clientTimeout)
}
