// Package decoder turns the raw register dumps of a BMP280/BME280 into typed
// calibration constants and ADC readings.
package decoder

import (
	"errors"
	"fmt"

	"bmx280-decoder/internal/codec"
)

// CalibrationSize is the length of the trimming block at 0x88..0xA1.
const CalibrationSize = 26

var (
	ErrCalibrationSize    = errors.New("calibration block must be 26 bytes")
	ErrSampleSize         = errors.New("sample must be 8 bytes")
	ErrUnsupportedVariant = errors.New("unsupported sensor variant")
)

// Calibration holds the factory trimming parameters of one sensor unit.
// Only H1 of the humidity parameters lives in this block; the remaining ones
// sit at 0xE1 on the BME280 and are not decoded.
type Calibration struct {
	T1 uint16
	T2 int16
	T3 int16

	P1 uint16
	P2 int16
	P3 int16
	P4 int16
	P5 int16
	P6 int16
	P7 int16
	P8 int16
	P9 int16

	H1 uint8
}

// Register offsets inside the calibration block. Byte 24 is reserved.
const (
	offT1 = 0
	offT2 = 2
	offT3 = 4
	offP1 = 6
	offP2 = 8
	offP3 = 10
	offP4 = 12
	offP5 = 14
	offP6 = 16
	offP7 = 18
	offP8 = 20
	offP9 = 22
	offH1 = 25
)

// DecodeCalibration reads the trimming parameters from a calibration block.
func DecodeCalibration(raw [CalibrationSize]byte) Calibration {
	b := raw[:]

	return Calibration{
		T1: codec.U16LE(b[offT1:]),
		T2: codec.S16LE(b[offT2:]),
		T3: codec.S16LE(b[offT3:]),
		P1: codec.U16LE(b[offP1:]),
		P2: codec.S16LE(b[offP2:]),
		P3: codec.S16LE(b[offP3:]),
		P4: codec.S16LE(b[offP4:]),
		P5: codec.S16LE(b[offP5:]),
		P6: codec.S16LE(b[offP6:]),
		P7: codec.S16LE(b[offP7:]),
		P8: codec.S16LE(b[offP8:]),
		P9: codec.S16LE(b[offP9:]),
		H1: b[offH1],
	}
}

// ParseCalibration is DecodeCalibration for a slice of unknown length.
func ParseCalibration(b []byte) (Calibration, error) {
	if len(b) != CalibrationSize {
		return Calibration{}, fmt.Errorf("%w: got %d", ErrCalibrationSize, len(b))
	}

	return DecodeCalibration([CalibrationSize]byte(b)), nil
}

// Encode writes the parameters back into block form. The reserved byte is
// left zero.
func (c Calibration) Encode() [CalibrationSize]byte {
	var raw [CalibrationSize]byte

	b := raw[:]
	codec.PutU16LE(b[offT1:], c.T1)
	codec.PutU16LE(b[offT2:], uint16(c.T2)) //nolint:gosec
	codec.PutU16LE(b[offT3:], uint16(c.T3)) //nolint:gosec
	codec.PutU16LE(b[offP1:], c.P1)

	for i, p := range []int16{c.P2, c.P3, c.P4, c.P5, c.P6, c.P7, c.P8, c.P9} {
		codec.PutU16LE(b[offP2+2*i:], uint16(p)) //nolint:gosec
	}

	b[offH1] = c.H1

	return raw
}
