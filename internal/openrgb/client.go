package openrgb

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// ClientProtocolVersion is the highest SDK protocol version this client
// speaks. Connect negotiates downward to whatever the server supports.
const ClientProtocolVersion = 1

// DefaultTimeout bounds dialing and every request round trip.
const DefaultTimeout = 3 * time.Second

// Client is a connection to an OpenRGB SDK server. Methods are safe for
// concurrent use; each request holds the connection for one round trip.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	proto   uint32
	timeout time.Duration
}

// Connect dials an SDK server, negotiates the protocol version and
// announces the client name.
//
// Servers predating version negotiation never answer the version request;
// those are detected by a read timeout and treated as protocol 0.
func Connect(addr, name string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("openrgb: dial %s: %w", addr, err)
	}

	c := &Client{conn: conn, timeout: timeout}
	if err := c.negotiate(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.send(0, cmdSetClientName, encodeClientName(name)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("openrgb: set client name: %w", err)
	}
	return c, nil
}

// Proto reports the negotiated protocol version.
func (c *Client) Proto() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proto
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// ControllerCount asks the server how many controllers it manages.
func (c *Client) ControllerCount() (uint32, error) {
	payload, err := c.request(0, cmdRequestControllerCount, nil)
	if err != nil {
		return 0, fmt.Errorf("openrgb: controller count: %w", err)
	}
	r := &payloadReader{buf: payload}
	n := r.u32()
	if r.err != nil {
		return 0, fmt.Errorf("openrgb: controller count: %w", r.err)
	}
	return n, nil
}

// Controller fetches and parses the description of one controller.
func (c *Client) Controller(id uint32) (*Controller, error) {
	var req []byte
	if p := c.Proto(); p >= 1 {
		req = encodeU32(p)
	}
	payload, err := c.request(id, cmdRequestControllerData, req)
	if err != nil {
		return nil, fmt.Errorf("openrgb: controller %d: %w", id, err)
	}
	ctrl, err := parseController(payload, c.Proto())
	if err != nil {
		return nil, fmt.Errorf("openrgb: controller %d: %w", id, err)
	}
	ctrl.ID = id
	return ctrl, nil
}

// Controllers fetches all controller descriptions the server reports.
func (c *Client) Controllers() ([]*Controller, error) {
	n, err := c.ControllerCount()
	if err != nil {
		return nil, err
	}
	out := make([]*Controller, 0, n)
	for id := uint32(0); id < n; id++ {
		ctrl, err := c.Controller(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ctrl)
	}
	return out, nil
}

// UpdateZoneLEDs writes one color per LED of a single zone. The server
// sends no acknowledgement.
func (c *Client) UpdateZoneLEDs(deviceID, zoneIdx uint32, colors []Color) error {
	if err := c.send(deviceID, cmdUpdateZoneLEDs, encodeZoneUpdate(zoneIdx, colors)); err != nil {
		return fmt.Errorf("openrgb: update zone %d/%d: %w", deviceID, zoneIdx, err)
	}
	return nil
}

// UpdateLEDs writes one color per LED across the whole device.
func (c *Client) UpdateLEDs(deviceID uint32, colors []Color) error {
	if err := c.send(deviceID, cmdUpdateLEDs, encodeLEDUpdate(colors)); err != nil {
		return fmt.Errorf("openrgb: update leds %d: %w", deviceID, err)
	}
	return nil
}

// negotiate exchanges protocol versions and records the lower of the two.
func (c *Client) negotiate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeLocked(0, cmdRequestProtocolVersion, encodeU32(ClientProtocolVersion)); err != nil {
		return fmt.Errorf("openrgb: version request: %w", err)
	}

	payload, err := c.readLocked(cmdRequestProtocolVersion)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			c.proto = 0
			return nil
		}
		return fmt.Errorf("openrgb: version reply: %w", err)
	}

	r := &payloadReader{buf: payload}
	server := r.u32()
	if r.err != nil {
		return fmt.Errorf("openrgb: version reply: %w", r.err)
	}
	c.proto = min(server, ClientProtocolVersion)
	return nil
}

// send transmits a message that expects no reply.
func (c *Client) send(deviceID, packetID uint32, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(deviceID, packetID, payload)
}

// request transmits a message and waits for the reply carrying the same
// packet ID.
func (c *Client) request(deviceID, packetID uint32, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeLocked(deviceID, packetID, payload); err != nil {
		return nil, err
	}
	return c.readLocked(packetID)
}

func (c *Client) writeLocked(deviceID, packetID uint32, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return writeMessage(c.conn, deviceID, packetID, payload)
}

// readLocked reads until a message with the wanted packet ID arrives.
// Unsolicited notifications, such as device list updates, are discarded.
func (c *Client) readLocked(wantID uint32) ([]byte, error) {
	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	for {
		_, packetID, payload, err := readMessage(c.conn)
		if err != nil {
			return nil, err
		}
		if packetID == wantID {
			return payload, nil
		}
		if time.Now().After(deadline) {
			return nil, os.ErrDeadlineExceeded
		}
	}
}
