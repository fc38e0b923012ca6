package ring

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	frame *image.RGBA
}

func (s *staticSource) Frame() *image.RGBA { return s.frame }

func TestNewMirrorDefaultInterval(t *testing.T) {
	m := NewMirror(&staticSource{}, NewSampler(SamplerConfig{}), NewSink(dialTo(&fakeBackend{}), SinkConfig{}), 0)
	assert.Equal(t, DefaultInterval, m.interval)
}

func TestMirrorRunPushesUntilCanceled(t *testing.T) {
	backend := &fakeBackend{devices: commanderDevices()}
	sink := NewSink(dialTo(backend), SinkConfig{SettleDelay: time.Millisecond})
	sampler := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 1})
	src := &staticSource{frame: uniformFrame(480, 480, color.RGBA{R: 255, A: 255})}

	m := NewMirror(src, sampler, sink, 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	err := m.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateEnabled, sink.State())

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.NotEmpty(t, backend.zoneCalls)
	first := backend.zoneCalls[0]
	require.Len(t, first.colors, LEDCount)
	for i, c := range first.colors {
		assert.Equal(t, Color{R: 255}, c, "led %d", i)
	}
}

func TestMirrorRunStopsCleanlyWhenSinkDisabled(t *testing.T) {
	dial := func() (Backend, error) { return nil, errors.New("connection refused") }
	sink := NewSink(dial, SinkConfig{RetryDelay: time.Millisecond})
	m := NewMirror(&staticSource{}, NewSampler(SamplerConfig{}), sink, time.Millisecond)

	err := m.Run(context.Background())

	assert.NoError(t, err, "a disabled ring must not take the daemon down")
	assert.Equal(t, StateDisabled, sink.State())
}

func TestMirrorRunCanceledDuringConnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dial := func() (Backend, error) { return nil, errors.New("connection refused") }
	sink := NewSink(dial, SinkConfig{RetryDelay: time.Hour})
	m := NewMirror(&staticSource{}, NewSampler(SamplerConfig{}), sink, time.Millisecond)

	err := m.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestMirrorSkipsNilFrames(t *testing.T) {
	backend := &fakeBackend{devices: commanderDevices()}
	sink := NewSink(dialTo(backend), SinkConfig{})
	m := NewMirror(&staticSource{frame: nil}, NewSampler(SamplerConfig{}), sink, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = m.Run(ctx)

	assert.Empty(t, backend.zoneCalls)
	assert.Equal(t, uint64(0), sink.Stats().Pushes)
}
