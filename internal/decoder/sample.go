package decoder

import (
	"fmt"

	"bmx280-decoder/internal/codec"
)

// SampleSize is the length of a burst read starting at press_msb (0xF7).
// Variants without a humidity channel still use 8 bytes; the last two are a
// placeholder supplied by the reader.
const SampleSize = 8

const (
	offPressure    = 0
	offTemperature = 3
	offHumidity    = 6
)

// RawSample is one uncompensated reading.
type RawSample struct {
	PressureADC    int32
	TemperatureADC int32
	// HumidityADC is only meaningful when HasHumidity is set. A zero value
	// with HasHumidity unset means the channel does not exist, not that the
	// sensor read zero.
	HumidityADC uint16
	HasHumidity bool
}

// DecodeSample splits a burst read into its ADC values. The humidity field is
// read only when the variant has a humidity channel.
func DecodeSample(raw [SampleSize]byte, v Variant) RawSample {
	b := raw[:]

	s := RawSample{
		PressureADC:    codec.Packed20(b[offPressure:]),
		TemperatureADC: codec.Packed20(b[offTemperature:]),
	}

	if v.Has(CapHumidity) {
		s.HumidityADC = codec.U16BE(b[offHumidity:])
		s.HasHumidity = true
	}

	return s
}

// ParseSample is DecodeSample for a slice of unknown length.
func ParseSample(b []byte, v Variant) (RawSample, error) {
	if len(b) != SampleSize {
		return RawSample{}, fmt.Errorf("%w: got %d", ErrSampleSize, len(b))
	}

	return DecodeSample([SampleSize]byte(b), v), nil
}

// Encode packs the sample back into burst-read form. Humidity bytes are zero
// when the sample has no humidity channel.
func (s RawSample) Encode() [SampleSize]byte {
	var raw [SampleSize]byte

	codec.PutPacked20(raw[offPressure:], s.PressureADC)
	codec.PutPacked20(raw[offTemperature:], s.TemperatureADC)

	if s.HasHumidity {
		raw[offHumidity] = byte(s.HumidityADC >> 8)
		raw[offHumidity+1] = byte(s.HumidityADC)
	}

	return raw
}
