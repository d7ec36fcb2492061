package capture

import "encoding/binary"

const (
	etherHeaderLen = 14
	vlanHeaderLen  = 18
	ipv6HeaderLen  = 40

	etherTypeVLAN = 0x8100
	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86DD

	protoICMP     = 1
	protoIPIP     = 4
	protoTCP      = 6
	protoUDP      = 17
	protoIPv6     = 41
	protoFragment = 44
	protoESP      = 50
	protoICMPv6   = 58
)

// StripHeaders implements the header-skip rule of spec section 6: it walks
// Ethernet, an optional single VLAN tag, one IPv4 or IPv6 header, and then
// the transport/extension chain, returning the raw bytes that follow. A
// truncated frame or an unrecognized protocol at any step yields a nil
// (empty) payload, mirroring the "skip silently" rule of section 4.3: the
// caller moves on to the next captured frame rather than treating this as
// an error.
//
// IPv4 header length is taken from IHL*4, not assumed fixed at 20 bytes,
// since real captures carry IPv4 options. IPv6 uses the fixed 40-octet
// base header; Fragment and IPv6-in-IPv6 extension headers continue the
// walk rather than ending it.
func StripHeaders(packet []byte) []byte {
	if len(packet) < etherHeaderLen {
		return nil
	}
	offset := etherHeaderLen
	etherType := binary.BigEndian.Uint16(packet[12:14])

	if etherType == etherTypeVLAN {
		if len(packet) < vlanHeaderLen {
			return nil
		}
		offset = vlanHeaderLen
		etherType = binary.BigEndian.Uint16(packet[16:18])
	}

	var proto byte
	switch etherType {
	case etherTypeIPv4:
		next, p, ok := stripIPv4(packet, offset)
		if !ok {
			return nil
		}
		offset, proto = next, p
	case etherTypeIPv6:
		if len(packet) < offset+ipv6HeaderLen {
			return nil
		}
		proto = packet[offset+6]
		offset += ipv6HeaderLen
	default:
		return nil
	}

	for {
		switch proto {
		case protoTCP:
			if len(packet) < offset+20 {
				return nil
			}
			dataOffset := int(packet[offset+12]>>4) * 4
			if dataOffset < 20 || len(packet) < offset+dataOffset {
				return nil
			}
			return packet[offset+dataOffset:]

		case protoUDP:
			if len(packet) < offset+8 {
				return nil
			}
			return packet[offset+8:]

		case protoICMP:
			next, ok := skip(packet, offset, 8)
			if !ok {
				return nil
			}
			if inner, p, ok := icmpEmbeddedIP(packet, next); ok {
				offset, proto = inner, p
				continue
			}
			return packet[next:]

		case protoICMPv6:
			next, ok := skip(packet, offset, 8)
			if !ok {
				return nil
			}
			if inner, p, ok := icmpEmbeddedIP(packet, next); ok {
				offset, proto = inner, p
				continue
			}
			return packet[next:]

		case protoESP:
			next, ok := skip(packet, offset, 8)
			if !ok {
				return nil
			}
			return packet[next:]

		case protoIPIP:
			next, p, ok := stripIPv4(packet, offset)
			if !ok {
				return nil
			}
			offset, proto = next, p

		case protoIPv6:
			if len(packet) < offset+ipv6HeaderLen {
				return nil
			}
			nextProto := packet[offset+6]
			offset += ipv6HeaderLen
			proto = nextProto

		case protoFragment:
			if len(packet) < offset+8 {
				return nil
			}
			nextProto := packet[offset]
			offset += 8
			proto = nextProto

		default:
			return nil
		}
	}
}

// stripIPv4 reads an IPv4 header starting at off, returning the offset of
// its payload and the protocol it carries.
func stripIPv4(packet []byte, off int) (next int, proto byte, ok bool) {
	if len(packet) < off+20 {
		return 0, 0, false
	}
	ihl := int(packet[off]&0x0F) * 4
	if ihl < 20 || len(packet) < off+ihl {
		return 0, 0, false
	}
	return off + ihl, packet[off+9], true
}

func skip(packet []byte, off, n int) (int, bool) {
	if len(packet) < off+n {
		return 0, false
	}
	return off + n, true
}

// icmpEmbeddedIP resolves the ICMP-wrapped-inner-IP case: an ICMP or
// ICMPv6 error message's body carries the IP header of the packet that
// provoked it. Treating that body unconditionally as a new IP packet is
// wrong for informational ICMP types whose body is not an IP header, so
// the walk only recurses when the first byte looks like an IPv4 (0x45) or
// IPv6 (0x60) version/IHL nibble pair.
func icmpEmbeddedIP(packet []byte, off int) (next int, proto byte, ok bool) {
	if off >= len(packet) {
		return 0, 0, false
	}
	switch packet[off] {
	case 0x45:
		return off, protoIPIP, true
	case 0x60:
		return off, protoIPv6, true
	default:
		return 0, 0, false
	}
}
