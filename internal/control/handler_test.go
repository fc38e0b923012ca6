package control

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// fakeRuntime is a test double for the daemon surface.
type fakeRuntime struct {
	loadFunc   func(path string) (string, error)
	statusFunc func() map[string]interface{}
}

func (f *fakeRuntime) LoadSource(path string) (string, error) {
	if f.loadFunc != nil {
		return f.loadFunc(path)
	}
	return path, nil
}

func (f *fakeRuntime) Status() map[string]interface{} {
	if f.statusFunc != nil {
		return f.statusFunc()
	}
	return map[string]interface{}{}
}

// mockConfigReloader is a mock implementation of ConfigReloader.
type mockConfigReloader struct {
	reloadFunc func() error
}

func (m *mockConfigReloader) Reload() error {
	if m.reloadFunc != nil {
		return m.reloadFunc()
	}
	return nil
}

func TestHandler_HandleSourceLoad(t *testing.T) {
	var gotPath string
	rt := &fakeRuntime{
		loadFunc: func(path string) (string, error) {
			gotPath = path
			return "clip.gif", nil
		},
	}
	handler := NewHandler(rt, nil)

	params, err := json.Marshal(SourceLoadParams{Path: "/tmp/clip.gif"})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	cmd := Command{
		Method: "source_load",
		Params: params,
		ID:     "req-1",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.ID != "req-1" {
		t.Errorf("response ID = %s, want req-1", resp.ID)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	if gotPath != "/tmp/clip.gif" {
		t.Errorf("runtime got path %q, want /tmp/clip.gif", gotPath)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result is not a map")
	}
	if result["source"] != "clip.gif" {
		t.Errorf("result source = %v, want clip.gif", result["source"])
	}
	if result["status"] != "loaded" {
		t.Errorf("result status = %v, want loaded", result["status"])
	}
}

func TestHandler_HandleSourceLoadMissingPath(t *testing.T) {
	handler := NewHandler(&fakeRuntime{}, nil)

	cmd := Command{
		Method: "source_load",
		Params: json.RawMessage(`{}`),
		ID:     "req-2",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.Error == nil {
		t.Fatal("expected error for missing path")
	}
	if resp.Error.Code != ErrCodeInvalidParams {
		t.Errorf("error code = %d, want %d", resp.Error.Code, ErrCodeInvalidParams)
	}
}

func TestHandler_HandleSourceLoadFailure(t *testing.T) {
	rt := &fakeRuntime{
		loadFunc: func(string) (string, error) {
			return "", errors.New("decode failed")
		},
	}
	handler := NewHandler(rt, nil)

	params, _ := json.Marshal(SourceLoadParams{Path: "/tmp/broken.png"})
	cmd := Command{
		Method: "source_load",
		Params: params,
		ID:     "req-3",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.Error == nil {
		t.Fatal("expected error for failed load")
	}
	if resp.Error.Code != ErrCodeInternalError {
		t.Errorf("error code = %d, want %d", resp.Error.Code, ErrCodeInternalError)
	}
}

func TestHandler_HandleDaemonStatus(t *testing.T) {
	rt := &fakeRuntime{
		statusFunc: func() map[string]interface{} {
			return map[string]interface{}{
				"source": "test pattern",
				"ring":   "enabled",
			}
		},
	}
	handler := NewHandler(rt, nil)

	cmd := Command{
		Method: "daemon_status",
		Params: json.RawMessage{},
		ID:     "req-4",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result is not a map")
	}
	for _, key := range []string{"version", "uptime_sec", "source", "ring"} {
		if _, exists := result[key]; !exists {
			t.Errorf("result missing %q field", key)
		}
	}
}

func TestHandler_HandleDaemonShutdown(t *testing.T) {
	handler := NewHandler(&fakeRuntime{}, nil)

	called := make(chan struct{})
	handler.SetShutdownFunc(func() { close(called) })

	cmd := Command{
		Method: "daemon_shutdown",
		Params: json.RawMessage{},
		ID:     "req-5",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result is not a map")
	}
	if result["status"] != "shutting_down" {
		t.Errorf("result status = %v, want shutting_down", result["status"])
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Error("shutdown function was not called")
	}
}

func TestHandler_HandleDaemonShutdownNotRegistered(t *testing.T) {
	handler := NewHandler(&fakeRuntime{}, nil)

	cmd := Command{
		Method: "daemon_shutdown",
		Params: json.RawMessage{},
		ID:     "req-6",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.Error == nil {
		t.Fatal("expected error when shutdown handler is not registered")
	}
	if resp.Error.Code != ErrCodeInternalError {
		t.Errorf("error code = %d, want %d", resp.Error.Code, ErrCodeInternalError)
	}
}

func TestHandler_HandleConfigReload(t *testing.T) {
	reloadCalled := false
	reloader := &mockConfigReloader{
		reloadFunc: func() error {
			reloadCalled = true
			return nil
		},
	}

	handler := NewHandler(&fakeRuntime{}, reloader)

	cmd := Command{
		Method: "config_reload",
		Params: json.RawMessage{},
		ID:     "req-7",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.Error != nil {
		t.Errorf("unexpected error: %v", resp.Error.Message)
	}
	if !reloadCalled {
		t.Error("reload function was not called")
	}
}

func TestHandler_HandleUnknownMethod(t *testing.T) {
	handler := NewHandler(&fakeRuntime{}, nil)

	cmd := Command{
		Method: "unknown.method",
		Params: json.RawMessage{},
		ID:     "req-8",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != ErrCodeMethodNotFound {
		t.Errorf("error code = %d, want %d", resp.Error.Code, ErrCodeMethodNotFound)
	}
}

func TestHandler_InvalidParams(t *testing.T) {
	handler := NewHandler(&fakeRuntime{}, nil)

	cmd := Command{
		Method: "source_load",
		Params: json.RawMessage(`{invalid json}`),
		ID:     "req-9",
	}

	resp := handler.Handle(context.Background(), cmd)

	if resp.Error == nil {
		t.Fatal("expected error for invalid params")
	}
	if resp.Error.Code != ErrCodeInvalidParams {
		t.Errorf("error code = %d, want %d", resp.Error.Code, ErrCodeInvalidParams)
	}
}
