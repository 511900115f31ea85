package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var check = []byte("123456789")

func TestSum8(t *testing.T) {
	assert.Equal(t, uint8(0x06), Sum8([]byte{0x01, 0x02, 0x03}))
	assert.Equal(t, uint8(0x00), Sum8(nil))
	// 0xFF + 0x02 wraps to the low byte.
	assert.Equal(t, uint8(0x01), Sum8([]byte{0xFF, 0x02}))
}

func TestXor8(t *testing.T) {
	assert.Equal(t, uint8(0xF0), Xor8([]byte{0xFF, 0x0F}))
	assert.Equal(t, uint8(0x00), Xor8(nil))
	assert.Equal(t, uint8(0x00), Xor8([]byte{0xAB, 0xAB}))
}

func TestCrc8KnownVector(t *testing.T) {
	assert.Equal(t, uint8(0xF4), Crc8(check))
	assert.Equal(t, uint8(0x00), Crc8(nil))
}

func TestCrc16KnownVector(t *testing.T) {
	assert.Equal(t, uint16(0x31C3), Crc16(check))
	assert.Equal(t, uint16(0x0000), Crc16(nil))
}

func TestBytes(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want []byte
	}{
		{Sum, []byte{0xDD}},
		{Xor, []byte{0x31}},
		{CRC8, []byte{0xF4}},
		{CRC16, []byte{0xC3, 0x31}}, // low byte first
		{None, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			got := Bytes(tt.alg, check)
			require.Len(t, got, Width(tt.alg))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValid(t *testing.T) {
	for _, alg := range []Algorithm{None, Sum, Xor, CRC8, CRC16} {
		assert.True(t, Valid(alg), "algorithm %q", alg)
	}
	assert.False(t, Valid("md5"))
	assert.False(t, Valid(""))
}
