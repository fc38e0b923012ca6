package panel

import (
	"fmt"

	"github.com/sstallion/go-hid"
)

// USB identity of the LCD cap shipped on Elite Capellix coolers.
const (
	DefaultVendorID  = uint16(0x1b1c) // Corsair
	DefaultProductID = uint16(0x0c39) // LCD cap
)

// Device is the writable endpoint the streamer drives. One Write call
// carries exactly one protocol packet.
type Device interface {
	Write(p []byte) (int, error)
	Close() error
}

// hidDevice adapts a go-hid handle and owns the hidapi library lifetime.
type hidDevice struct {
	dev *hid.Device
}

// Open claims the first HID interface matching vid/pid. There is no retry:
// the panel is either attached and writable or the caller aborts.
func Open(vid, pid uint16) (Device, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("panel: init hidapi: %w", err)
	}
	dev, err := hid.OpenFirst(vid, pid)
	if err != nil {
		_ = hid.Exit()
		return nil, fmt.Errorf("panel: open device %04x:%04x: %w", vid, pid, err)
	}
	return &hidDevice{dev: dev}, nil
}

func (d *hidDevice) Write(p []byte) (int, error) { return d.dev.Write(p) }

func (d *hidDevice) Close() error {
	err := d.dev.Close()
	if exitErr := hid.Exit(); err == nil {
		err = exitErr
	}
	return err
}

// Info describes one HID interface matching the configured identity.
type Info struct {
	Path         string
	Serial       string
	Manufacturer string
	Product      string
	Interface    int
}

// List enumerates the HID interfaces matching exactly vid/pid.
func List(vid, pid uint16) ([]Info, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("panel: init hidapi: %w", err)
	}
	defer hid.Exit() //nolint:errcheck

	var infos []Info
	err := hid.Enumerate(vid, pid, func(di *hid.DeviceInfo) error {
		infos = append(infos, Info{
			Path:         di.Path,
			Serial:       di.SerialNbr,
			Manufacturer: di.MfrStr,
			Product:      di.ProductStr,
			Interface:    di.InterfaceNbr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("panel: enumerate %04x:%04x: %w", vid, pid, err)
	}
	return infos, nil
}
