// Package checksum implements the frame integrity algorithms shared by the
// runtime codec and every generated backend. All functions are pure; the
// generated C and Python copies must stay bit-for-bit identical to these.
package checksum

import "errors"

// Algorithm selects which integrity check a schema applies.
type Algorithm string

const (
	None  Algorithm = "none"
	Sum   Algorithm = "sum"
	Xor   Algorithm = "xor"
	CRC8  Algorithm = "crc8"
	CRC16 Algorithm = "crc16"
)

var ErrUnknownAlgorithm = errors.New("checksum: unknown algorithm")

// Valid reports whether alg names a supported algorithm.
func Valid(alg Algorithm) bool {
	switch alg {
	case None, Sum, Xor, CRC8, CRC16:
		return true
	}
	return false
}

// Width returns the number of checksum bytes alg places on the wire.
func Width(alg Algorithm) int {
	switch alg {
	case CRC16:
		return 2
	case None:
		return 0
	default:
		return 1
	}
}

// Sum8 returns the low byte of the arithmetic sum of data.
func Sum8(data []byte) uint8 {
	var s uint32
	for _, b := range data {
		s += uint32(b)
	}
	return uint8(s)
}

// Xor8 returns the XOR of all bytes in data.
func Xor8(data []byte) uint8 {
	var x uint8
	for _, b := range data {
		x ^= b
	}
	return x
}

// Crc8 computes CRC-8 with polynomial 0x07, MSB-first, initial value 0,
// no final XOR, processed bit by bit.
func Crc8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Crc16 computes CRC-16/CCITT with polynomial 0x1021, MSB-first, initial
// value 0 (the XMODEM variant).
func Crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Bytes returns the wire encoding of the checksum of data under alg.
// CRC-16 is always encoded low byte first, independent of the frame's
// declared byte order; this is a fixed convention of the checksum field.
func Bytes(alg Algorithm, data []byte) []byte {
	switch alg {
	case Sum:
		return []byte{Sum8(data)}
	case Xor:
		return []byte{Xor8(data)}
	case CRC8:
		return []byte{Crc8(data)}
	case CRC16:
		crc := Crc16(data)
		return []byte{byte(crc), byte(crc >> 8)}
	default:
		return nil
	}
}
