package tracker

import (
	"errors"
	"net/netip"
)

// DecodePeersCompact parses the compact peer format: 6 bytes per peer, a
// 4-byte address followed by a big-endian port.
func DecodePeersCompact(b []byte) ([]netip.AddrPort, error) {
	if len(b)%6 != 0 {
		return nil, errors.New("invalid peer list length")
	}
	addrs := make([]netip.AddrPort, 0, len(b)/6)
	for i := 0; i < len(b); i += 6 {
		var ip [4]byte
		copy(ip[:], b[i:])
		port := uint16(b[i+4])<<8 | uint16(b[i+5])
		addrs = append(addrs, netip.AddrPortFrom(netip.AddrFrom4(ip), port))
	}
	return addrs, nil
}

// DecodePeersCompact6 parses the 18-byte IPv6 variant.
func DecodePeersCompact6(b []byte) ([]netip.AddrPort, error) {
	if len(b)%18 != 0 {
		return nil, errors.New("invalid peer list length")
	}
	addrs := make([]netip.AddrPort, 0, len(b)/18)
	for i := 0; i < len(b); i += 18 {
		var ip [16]byte
		copy(ip[:], b[i:])
		port := uint16(b[i+16])<<8 | uint16(b[i+17])
		addrs = append(addrs, netip.AddrPortFrom(netip.AddrFrom16(ip), port))
	}
	return addrs, nil
}
