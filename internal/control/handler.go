// Package control implements control plane command handling.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const version = "0.1.0"

// Runtime is the daemon surface the control plane drives.
type Runtime interface {
	// LoadSource swaps the image shown on the panel and returns the
	// display name of the loaded source.
	LoadSource(path string) (string, error)
	// Status reports live daemon state for daemon_status.
	Status() map[string]interface{}
}

// ConfigReloader is the interface for reloading global configuration.
type ConfigReloader interface {
	Reload() error
}

// Handler handles control plane commands.
type Handler struct {
	runtime        Runtime
	configReloader ConfigReloader
	shutdownFunc   func() // Called by daemon_shutdown to trigger graceful stop
	startTime      int64  // Unix timestamp of daemon start for uptime calc
}

// NewHandler creates a new command handler.
func NewHandler(rt Runtime, reloader ConfigReloader) *Handler {
	return &Handler{
		runtime:        rt,
		configReloader: reloader,
		startTime:      time.Now().Unix(),
	}
}

// SetShutdownFunc sets the callback invoked by the daemon_shutdown command.
func (h *Handler) SetShutdownFunc(fn func()) {
	h.shutdownFunc = fn
}

// Command represents a control plane command.
type Command struct {
	Method string          `json:"method"` // e.g., "source_load", "daemon_status"
	Params json.RawMessage `json:"params"` // command-specific parameters
	ID     string          `json:"id"`     // request ID for tracking
}

// Response represents a command response.
type Response struct {
	ID     string      `json:"id"`               // matches request ID
	Result interface{} `json:"result,omitempty"` // success result
	Error  *ErrorInfo  `json:"error,omitempty"`  // error info if failed
}

// ErrorInfo represents an error in the response.
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeParseError     = -32700 // Invalid JSON
	ErrCodeInvalidRequest = -32600 // Invalid request object
	ErrCodeMethodNotFound = -32601 // Method not found
	ErrCodeInvalidParams  = -32602 // Invalid method parameters
	ErrCodeInternalError  = -32603 // Internal error
)

// Handle processes a command and returns a response.
func (h *Handler) Handle(ctx context.Context, cmd Command) Response {
	slog.Info("handling command", "method", cmd.Method, "id", cmd.ID)

	switch cmd.Method {
	case "source_load":
		return h.handleSourceLoad(ctx, cmd)
	case "daemon_status":
		return h.handleDaemonStatus(ctx, cmd)
	case "daemon_shutdown":
		return h.handleDaemonShutdown(ctx, cmd)
	case "config_reload":
		return h.handleConfigReload(ctx, cmd)
	default:
		return Response{
			ID: cmd.ID,
			Error: &ErrorInfo{
				Code:    ErrCodeMethodNotFound,
				Message: fmt.Sprintf("method %q not found", cmd.Method),
			},
		}
	}
}

// SourceLoadParams represents parameters for the source_load command.
type SourceLoadParams struct {
	Path string `json:"path"`
}

// handleSourceLoad swaps the panel's image source at the next tick.
func (h *Handler) handleSourceLoad(_ context.Context, cmd Command) Response {
	var params SourceLoadParams
	if err := json.Unmarshal(cmd.Params, &params); err != nil {
		return Response{
			ID: cmd.ID,
			Error: &ErrorInfo{
				Code:    ErrCodeInvalidParams,
				Message: fmt.Sprintf("invalid params: %v", err),
			},
		}
	}
	if params.Path == "" {
		return Response{
			ID: cmd.ID,
			Error: &ErrorInfo{
				Code:    ErrCodeInvalidParams,
				Message: "path is required",
			},
		}
	}

	name, err := h.runtime.LoadSource(params.Path)
	if err != nil {
		return Response{
			ID: cmd.ID,
			Error: &ErrorInfo{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("load source failed: %v", err),
			},
		}
	}

	slog.Info("source_load: source swapped", "source", name)
	return Response{
		ID: cmd.ID,
		Result: map[string]interface{}{
			"source": name,
			"status": "loaded",
		},
	}
}

// handleDaemonStatus returns daemon status information.
func (h *Handler) handleDaemonStatus(_ context.Context, cmd Command) Response {
	result := map[string]interface{}{
		"version":    version,
		"uptime_sec": time.Now().Unix() - h.startTime,
	}
	for k, v := range h.runtime.Status() {
		result[k] = v
	}

	return Response{
		ID:     cmd.ID,
		Result: result,
	}
}

// handleDaemonShutdown triggers graceful daemon shutdown via the registered callback.
func (h *Handler) handleDaemonShutdown(_ context.Context, cmd Command) Response {
	if h.shutdownFunc == nil {
		return Response{
			ID: cmd.ID,
			Error: &ErrorInfo{
				Code:    ErrCodeInternalError,
				Message: "shutdown handler not registered",
			},
		}
	}

	slog.Info("daemon_shutdown command received, initiating graceful shutdown")
	go h.shutdownFunc() // Non-blocking: let the response be sent first

	return Response{
		ID: cmd.ID,
		Result: map[string]interface{}{
			"status": "shutting_down",
		},
	}
}

// handleConfigReload handles the config_reload command.
func (h *Handler) handleConfigReload(_ context.Context, cmd Command) Response {
	if h.configReloader == nil {
		return Response{
			ID: cmd.ID,
			Error: &ErrorInfo{
				Code:    ErrCodeInternalError,
				Message: "config reloader not available",
			},
		}
	}

	if err := h.configReloader.Reload(); err != nil {
		return Response{
			ID: cmd.ID,
			Error: &ErrorInfo{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("reload config failed: %v", err),
			},
		}
	}

	return Response{
		ID: cmd.ID,
		Result: map[string]interface{}{
			"status": "reloaded",
		},
	}
}
