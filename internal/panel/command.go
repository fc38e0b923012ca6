// Package panel implements the cooler LCD wire protocol and frame transport.
//
// The panel firmware accepts JPEG-encoded frames split across fixed-size
// packets written to its HID interface. Packet layout (multi-byte fields
// little-endian):
//
//	Offset  Size  Description
//	------  ----  -----------
//	0       1     Opcode (0x02 = image data)
//	1       1     Constant 0x05
//	2       1     Constant 0x40
//	3       1     Final flag: 0x01 on the packet carrying the payload tail
//	4       2     Part index, 0-based, incremented per packet
//	6       2     Payload length, actual bytes used, at most packetSize-8
//	8       ...   Payload, zero-padded to packetSize-8
//
// A logical message (one encoded frame) is reassembled by the firmware from
// the payloads of its packets in part-index order, each truncated to its
// payload length.
package panel

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed per-packet header length in bytes.
	HeaderSize = 8

	// DefaultPacketSize is the write size the panel firmware expects.
	DefaultPacketSize = 1024

	// OpcodeImage marks packets carrying image data.
	OpcodeImage = uint8(0x02)

	// Constant header filler bytes at offsets 1 and 2. Meaning unknown;
	// the stock firmware rejects packets without them.
	reserved1 = uint8(0x05)
	reserved2 = uint8(0x40)
)

// Packet is one protocol packet of a framed message.
type Packet struct {
	Opcode     uint8
	Final      bool   // set on the packet carrying the payload tail
	PartIndex  uint16 // 0-based position within the message
	PayloadLen uint16 // unpadded payload bytes
	Payload    []byte // fixed packetSize-HeaderSize bytes, zero-padded
}

// Start reports whether this packet opens a logical message.
func (p Packet) Start() bool { return p.PartIndex == 0 }

// Size returns the full wire size of the packet in bytes.
func (p Packet) Size() int { return HeaderSize + len(p.Payload) }

// Encode serialises the packet into its wire form. The result is always
// exactly Size() bytes; the payload block keeps its zero padding.
func (p Packet) Encode() []byte {
	buf := make([]byte, 0, HeaderSize+len(p.Payload))

	final := uint8(0x00)
	if p.Final {
		final = 0x01
	}

	buf = append(buf, p.Opcode, reserved1, reserved2, final)
	buf = binary.LittleEndian.AppendUint16(buf, p.PartIndex)
	buf = binary.LittleEndian.AppendUint16(buf, p.PayloadLen)
	return append(buf, p.Payload...)
}

// Frame splits payload into an ordered sequence of protocol packets, each
// packetSize bytes on the wire. Every packet except possibly the last carries
// packetSize-HeaderSize payload bytes; the last is zero-padded up to that
// length with PayloadLen recording the unpadded count, and is the only packet
// with Final set. An empty payload yields zero packets; callers must not
// frame an empty message.
//
// Frame is pure: it performs no IO and never retains payload.
func Frame(payload []byte, opcode uint8, packetSize int) ([]Packet, error) {
	maxPayload := packetSize - HeaderSize
	if maxPayload <= 0 {
		return nil, fmt.Errorf("panel: packet size %d leaves no payload room", packetSize)
	}

	packets := make([]Packet, 0, (len(payload)+maxPayload-1)/maxPayload)
	for part := 0; len(payload) > 0; part++ {
		n := len(payload)
		if n > maxPayload {
			n = maxPayload
		}

		chunk := make([]byte, maxPayload)
		copy(chunk, payload[:n])
		payload = payload[n:]

		packets = append(packets, Packet{
			Opcode:     opcode,
			Final:      len(payload) == 0,
			PartIndex:  uint16(part),
			PayloadLen: uint16(n),
			Payload:    chunk,
		})
	}
	return packets, nil
}
