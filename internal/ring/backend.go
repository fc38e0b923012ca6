package ring

import (
	"time"

	"github.com/lcdglow/lcdglow/internal/openrgb"
)

// Device is one LED controller as the backend reports it.
type Device struct {
	ID    uint32
	Name  string
	Zones []ZoneInfo
	LEDs  int
}

// ZoneInfo is one addressable LED group of a device.
type ZoneInfo struct {
	Index int
	Name  string
	LEDs  int
}

// Backend is one session against an LED control service.
type Backend interface {
	// Devices lists the controllers known to the session.
	Devices() ([]Device, error)
	// SetZone writes one color per LED of a single zone.
	SetZone(deviceID uint32, zoneIndex int, colors []Color) error
	// SetDevice writes one color per LED across a whole device.
	SetDevice(deviceID uint32, colors []Color) error
	Close() error
}

// DialFunc opens a Backend session. The sink calls it once per connect
// attempt and owns the returned session.
type DialFunc func() (Backend, error)

// DialOpenRGB returns a DialFunc speaking to an OpenRGB SDK server.
func DialOpenRGB(addr, clientName string, timeout time.Duration) DialFunc {
	return func() (Backend, error) {
		client, err := openrgb.Connect(addr, clientName, timeout)
		if err != nil {
			return nil, err
		}
		return &openRGBBackend{client: client}, nil
	}
}

type openRGBBackend struct {
	client *openrgb.Client
}

func (b *openRGBBackend) Devices() ([]Device, error) {
	ctrls, err := b.client.Controllers()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(ctrls))
	for _, ctrl := range ctrls {
		dev := Device{
			ID:    ctrl.ID,
			Name:  ctrl.Name,
			LEDs:  int(ctrl.LEDCount),
			Zones: make([]ZoneInfo, 0, len(ctrl.Zones)),
		}
		for i, z := range ctrl.Zones {
			dev.Zones = append(dev.Zones, ZoneInfo{
				Index: i,
				Name:  z.Name,
				LEDs:  int(z.LEDCount),
			})
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func (b *openRGBBackend) SetZone(deviceID uint32, zoneIndex int, colors []Color) error {
	return b.client.UpdateZoneLEDs(deviceID, uint32(zoneIndex), toWire(colors))
}

func (b *openRGBBackend) SetDevice(deviceID uint32, colors []Color) error {
	return b.client.UpdateLEDs(deviceID, toWire(colors))
}

func (b *openRGBBackend) Close() error {
	return b.client.Close()
}

func toWire(colors []Color) []openrgb.Color {
	out := make([]openrgb.Color, len(colors))
	for i, c := range colors {
		out[i] = openrgb.Color{R: c.R, G: c.G, B: c.B}
	}
	return out
}
