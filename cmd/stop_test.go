package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lcdglow/lcdglow/internal/control"
)

func TestRunStop_Success(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("Shutdown", mock.Anything).Return(&control.Response{
		Result: map[string]interface{}{"status": "shutting_down"},
	}, nil)

	var buf bytes.Buffer
	err := runStop(context.Background(), mockClient, &buf)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Shutdown initiated")
	mockClient.AssertExpectations(t)
}

func TestRunStop_DaemonNotRunning(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("Shutdown", mock.Anything).
		Return(nil, errors.New("dial unix: no such file or directory"))

	var buf bytes.Buffer
	err := runStop(context.Background(), mockClient, &buf)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "daemon is not running")
	mockClient.AssertExpectations(t)
}

func TestRunStop_ServerError(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("Shutdown", mock.Anything).Return(&control.Response{
		Error: &control.ErrorInfo{Code: control.ErrCodeInternalError, Message: "shutdown not available"},
	}, nil)

	var buf bytes.Buffer
	err := runStop(context.Background(), mockClient, &buf)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown not available")
	mockClient.AssertExpectations(t)
}
