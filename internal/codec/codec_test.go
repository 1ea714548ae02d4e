package codec_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmx280-decoder/internal/codec"
)

func TestU16LE(t *testing.T) {
	assert.Equal(t, uint16(27702), codec.U16LE([]byte{0x36, 0x6C}))
	assert.Equal(t, uint16(0xFFFF), codec.U16LE([]byte{0xFF, 0xFF}))
	assert.Equal(t, uint16(0), codec.U16LE([]byte{0x00, 0x00}))
}

func TestS16LE(t *testing.T) {
	tests := []struct {
		in  []byte
		exp int16
	}{
		{[]byte{0x05, 0x68}, 26629},
		{[]byte{0x18, 0xFC}, -1000},
		{[]byte{0xF9, 0xFF}, -7},
		{[]byte{0x00, 0x80}, math.MinInt16},
		{[]byte{0xFF, 0x7F}, math.MaxInt16},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, codec.S16LE(test.in), "input: % X", test.in)
	}
}

func TestRoundTrip16(t *testing.T) {
	buf := make([]byte, 2)

	for v := range 1 << 16 {
		u := uint16(v) //nolint:gosec

		codec.PutU16LE(buf, u)
		require.Equal(t, u, codec.U16LE(buf))
		require.Equal(t, int16(u), codec.S16LE(buf)) //nolint:gosec
		require.Equal(t, u, codec.U16BE([]byte{buf[1], buf[0]}))
	}
}

func TestPacked20(t *testing.T) {
	assert.Equal(t, int32(442480), codec.Packed20([]byte{0x6C, 0x07, 0x00}))
	assert.Equal(t, int32(517312), codec.Packed20([]byte{0x7E, 0x4C, 0x00}))
	assert.Equal(t, int32(0xFFFFF), codec.Packed20([]byte{0xFF, 0xFF, 0xF0}))

	t.Run("low nibble ignored", func(t *testing.T) {
		for msb := range 256 {
			for _, lsb := range []byte{0x00, 0x5A, 0xFF} {
				for xlsb := range 256 {
					b := []byte{byte(msb), lsb, byte(xlsb)}
					exp := codec.Packed20([]byte{byte(msb), lsb, byte(xlsb) & 0xF0})

					require.Equal(t, exp, codec.Packed20(b), "input: % X", b)
				}
			}
		}
	})

	t.Run("never negative", func(t *testing.T) {
		assert.Positive(t, codec.Packed20([]byte{0x80, 0x00, 0x00}))
	})
}

func TestPutPacked20(t *testing.T) {
	buf := make([]byte, 3)

	for _, v := range []int32{0, 1, 442480, 517312, 0xFFFFF} {
		codec.PutPacked20(buf, v)
		assert.Equal(t, v, codec.Packed20(buf))
		assert.Zero(t, buf[2]&0x0F)
	}
}

func TestShortInputPanics(t *testing.T) {
	assert.Panics(t, func() { codec.U16LE([]byte{0x01}) })
	assert.Panics(t, func() { codec.Packed20([]byte{0x01, 0x02}) })
}
