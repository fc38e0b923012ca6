// Package openrgb implements a client for the OpenRGB SDK network protocol.
//
// Every message starts with a fixed 16-byte header (integers little-endian):
//
//	Offset  Size  Description
//	------  ----  -----------
//	0       4     Magic: "ORGB"
//	4       4     Device index the message addresses
//	8       4     Packet ID (see cmd* constants)
//	12      4     Payload size in bytes
//	16      ...   Payload
//
// Strings inside controller data are length-prefixed: uint16 length
// including the trailing NUL, then the bytes, then the NUL. Colors are
// 4 bytes on the wire: red, green, blue, one unused byte.
package openrgb

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	magic      = "ORGB"
	headerSize = 16

	// maxPayload bounds incoming payload allocation. Controller blobs are
	// a few KiB; anything near this is a corrupt stream.
	maxPayload = 1 << 20
)

// SDK packet IDs.
const (
	cmdRequestControllerCount = uint32(0)
	cmdRequestControllerData  = uint32(1)
	cmdRequestProtocolVersion = uint32(40)
	cmdSetClientName          = uint32(50)
	cmdDeviceListUpdated      = uint32(100)
	cmdUpdateLEDs             = uint32(1050)
	cmdUpdateZoneLEDs         = uint32(1051)
)

// Color is one RGB triple as the SDK carries it.
type Color struct {
	R, G, B uint8
}

// Zone is one named LED group of a controller.
type Zone struct {
	Name     string
	Type     int32
	LEDCount uint32
}

// Controller is the client-side view of one device controller, parsed from
// a controller data reply.
type Controller struct {
	ID          uint32
	Type        int32
	Name        string
	Vendor      string // empty on protocol 0 servers
	Description string
	Version     string
	Serial      string
	Location    string
	Zones       []Zone
	LEDCount    uint32 // total LEDs across all zones
}

// ─── Message IO ─────────────────────────────────────────────────────────────

// writeMessage sends one framed message.
func writeMessage(w io.Writer, deviceID, packetID uint32, payload []byte) error {
	buf := make([]byte, 0, headerSize+len(payload))
	buf = append(buf, magic...)
	buf = binary.LittleEndian.AppendUint32(buf, deviceID)
	buf = binary.LittleEndian.AppendUint32(buf, packetID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)

	_, err := w.Write(buf)
	return err
}

// readMessage reads one framed message, returning the addressed device,
// the packet ID and the payload.
func readMessage(r io.Reader) (deviceID, packetID uint32, payload []byte, err error) {
	var hdr [headerSize]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, nil, err
	}
	if string(hdr[0:4]) != magic {
		return 0, 0, nil, fmt.Errorf("openrgb: bad magic %q", hdr[0:4])
	}

	deviceID = binary.LittleEndian.Uint32(hdr[4:8])
	packetID = binary.LittleEndian.Uint32(hdr[8:12])
	size := binary.LittleEndian.Uint32(hdr[12:16])
	if size > maxPayload {
		return 0, 0, nil, fmt.Errorf("openrgb: payload size %d exceeds limit", size)
	}

	if size > 0 {
		payload = make([]byte, size)
		if _, err = io.ReadFull(r, payload); err != nil {
			return 0, 0, nil, err
		}
	}
	return deviceID, packetID, payload, nil
}

// ─── Request payload builders ───────────────────────────────────────────────

// encodeU32 builds a payload holding a single little-endian uint32.
func encodeU32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// encodeClientName builds the SET_CLIENT_NAME payload: raw bytes plus NUL.
func encodeClientName(name string) []byte {
	return append([]byte(name), 0)
}

// encodeLEDUpdate builds the UPDATELEDS payload.
func encodeLEDUpdate(colors []Color) []byte {
	size := 4 + 2 + 4*len(colors)
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(colors)))
	return appendColors(buf, colors)
}

// encodeZoneUpdate builds the UPDATEZONELEDS payload.
func encodeZoneUpdate(zoneIdx uint32, colors []Color) []byte {
	size := 4 + 4 + 2 + 4*len(colors)
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	buf = binary.LittleEndian.AppendUint32(buf, zoneIdx)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(colors)))
	return appendColors(buf, colors)
}

func appendColors(buf []byte, colors []Color) []byte {
	for _, c := range colors {
		buf = append(buf, c.R, c.G, c.B, 0)
	}
	return buf
}

// ─── Controller data parsing ────────────────────────────────────────────────

// payloadReader walks a controller data blob. The first decode error sticks;
// subsequent reads return zero values.
type payloadReader struct {
	buf []byte
	off int
	err error
}

func (r *payloadReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

func (r *payloadReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.fail("openrgb: truncated controller data at offset %d (+%d)", r.off, n)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *payloadReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *payloadReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *payloadReader) i32() int32 { return int32(r.u32()) }

func (r *payloadReader) skip(n int) { r.take(n) }

// str reads a length-prefixed string and drops the trailing NUL.
func (r *payloadReader) str() string {
	n := int(r.u16())
	b := r.take(n)
	if len(b) == 0 {
		return ""
	}
	return string(b[:n-1])
}

// parseController decodes a REQUEST_CONTROLLER_DATA reply for the given
// negotiated protocol version.
func parseController(payload []byte, proto uint32) (*Controller, error) {
	r := &payloadReader{buf: payload}

	r.u32() // declared total size, not load-bearing for parsing

	c := &Controller{}
	c.Type = r.i32()
	c.Name = r.str()
	if proto >= 1 {
		c.Vendor = r.str()
	}
	c.Description = r.str()
	c.Version = r.str()
	c.Serial = r.str()
	c.Location = r.str()

	// Modes are walked only to reach the zone table.
	numModes := int(r.u16())
	r.i32() // active mode
	for i := 0; i < numModes && r.err == nil; i++ {
		r.str()    // name
		r.i32()    // value
		r.u32()    // flags
		r.skip(8)  // speed min/max
		if proto >= 3 {
			r.skip(8) // brightness min/max
		}
		r.skip(8) // colors min/max
		r.u32()   // speed
		if proto >= 3 {
			r.u32() // brightness
		}
		r.skip(8) // direction, color mode
		numColors := int(r.u16())
		r.skip(4 * numColors)
	}

	numZones := int(r.u16())
	c.Zones = make([]Zone, 0, numZones)
	for i := 0; i < numZones && r.err == nil; i++ {
		z := Zone{}
		z.Name = r.str()
		z.Type = r.i32()
		r.skip(8) // leds min/max
		z.LEDCount = r.u32()
		matrixLen := int(r.u16())
		r.skip(matrixLen)
		if proto >= 4 {
			numSegments := int(r.u16())
			for s := 0; s < numSegments && r.err == nil; s++ {
				r.str()   // name
				r.i32()   // type
				r.skip(8) // start index, led count
			}
		}
		c.Zones = append(c.Zones, z)
	}

	c.LEDCount = uint32(r.u16())
	for i := uint32(0); i < c.LEDCount && r.err == nil; i++ {
		r.str() // led name
		r.u32() // led value
	}

	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}
