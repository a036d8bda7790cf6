package netlinknic

import (
	"crypto/rand"
	"net"
)

// parseOrRandomMAC parses mac if non-empty, otherwise generates a random
// locally-administered unicast address (the same convention execnic's
// SetHWAddr uses for its subprocess-backed spoofing path).
func parseOrRandomMAC(mac string) (net.HardwareAddr, error) {
	if mac == "" {
		return randomLocalMAC()
	}
	return net.ParseMAC(mac)
}

func randomLocalMAC() (net.HardwareAddr, error) {
	hw := make(net.HardwareAddr, 6)
	if _, err := rand.Read(hw); err != nil {
		return nil, err
	}
	hw[0] = (hw[0] | 0x02) & 0xfe // locally administered, unicast
	return hw, nil
}
