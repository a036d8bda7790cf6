// Package capture implements the Frame Socket (§1, §4.3): a raw AF_PACKET
// socket bound to a monitor-mode interface, with a bounded read timeout so
// the Radio Controller's run loop never blocks past its status-queue poll
// interval. Grounded on the original wraith project's frame socket, which
// opens `socket.AF_PACKET, socket.SOCK_RAW, socket.htons(0x0003)` and calls
// `settimeout(5)` before entering its capture loop.
//go:build linux

package capture

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultReadTimeout matches the original wraith project's 5-second
// settimeout on its capture socket.
const DefaultReadTimeout = 5 * time.Second

// ethPAll is htons(ETH_P_ALL) = htons(0x0003), the protocol value the
// original frame socket passes to socket.socket so it sees every frame
// (management, control, and data) regardless of 802.11 subtype.
const ethPAll = 0x0300 // ETH_P_ALL (0x0003) byte-swapped to network order

// Socket is a raw AF_PACKET capture socket bound to one monitor-mode
// interface.
type Socket struct {
	fd    int
	iface string
}

// Open binds a raw AF_PACKET/SOCK_RAW socket to iface and sets its receive
// timeout. iface must already be in monitor mode and administratively up.
func Open(iface string, readTimeout time.Duration) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, ethPAll)
	if err != nil {
		return nil, fmt.Errorf("capture: socket: %w", err)
	}

	ifi, err := unix.NewIfreq(iface)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("capture: ifreq: %w", err)
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFINDEX, ifi); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("capture: get ifindex for %s: %w", iface, err)
	}
	ifindex := int(ifi.Uint32(unix.IFNAMSIZ))

	sll := unix.SockaddrLinklayer{
		Protocol: uint16(ethPAll),
		Ifindex:  ifindex,
	}
	if err := unix.Bind(fd, &sll); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("capture: bind %s: %w", iface, err)
	}

	if readTimeout > 0 {
		tv := unix.NsecToTimeval(readTimeout.Nanoseconds())
		if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("capture: set recv timeout: %w", err)
		}
	}

	return &Socket{fd: fd, iface: iface}, nil
}

// MaxFrameLen is large enough for a maximum-size 802.11 MPDU (2304 bytes
// payload) plus radiotap header overhead.
const MaxFrameLen = 4096

// ReadFrame blocks until a frame arrives or the read timeout elapses. ctx is
// checked only before the read; cancelling it does not interrupt a read
// already in progress. On timeout it returns
// (nil, ErrTimeout); the caller's run loop treats that identically to "no
// frame this iteration" and goes on to poll the status queue again.
func (s *Socket) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, MaxFrameLen)
	n, _, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("capture: recv on %s: %w", s.iface, err)
	}
	return buf[:n], nil
}

// Close releases the underlying file descriptor.
func (s *Socket) Close() error {
	return unix.Close(s.fd)
}

// ErrTimeout is returned by ReadFrame when no frame arrived within the
// configured read timeout.
var ErrTimeout = fmt.Errorf("capture: read timeout")
