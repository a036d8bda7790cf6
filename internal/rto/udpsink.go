package rto

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
)

// wireEvent is the UDP datagram wire form of an Event.
type wireEvent struct {
	VNIC      string  `json:"vnic"`
	Timestamp float64 `json:"timestamp"`
	Tag       Tag     `json:"tag"`
	Payload   any     `json:"payload"`
}

// UDPSink forwards events as one JSON datagram per Publish call to a fixed
// RTO collector address. Frame payloads (raw 802.11 bytes) are sent as-is
// under the "payload" key by way of Go's []byte→base64 JSON encoding.
type UDPSink struct {
	conn *net.UDPConn
}

// DialUDPSink resolves addr and opens a connected UDP socket to it.
func DialUDPSink(addr string) (*UDPSink, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("rto: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("rto: dial %s: %w", addr, err)
	}
	return &UDPSink{conn: conn}, nil
}

func (u *UDPSink) Publish(ctx context.Context, e Event) error {
	payload := e.Payload
	if err, ok := payload.(error); ok {
		payload = err.Error()
	}
	data, err := json.Marshal(wireEvent{VNIC: e.VNIC, Timestamp: e.Timestamp, Tag: e.Tag, Payload: payload})
	if err != nil {
		return fmt.Errorf("rto: encode event: %w", err)
	}
	if _, err := u.conn.Write(data); err != nil {
		return fmt.Errorf("rto: send event: %w", err)
	}
	return nil
}

// Close releases the underlying socket.
func (u *UDPSink) Close() error {
	return u.conn.Close()
}

var _ Sink = (*UDPSink)(nil)
