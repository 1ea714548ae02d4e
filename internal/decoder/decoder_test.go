package decoder_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmx280-decoder/internal/decoder"
)

const (
	referenceCalibration = "366C056818FCA18D93D6D00BC3063B01F9FF8C3CF8C670170000"
	referenceSample      = "6C07007E4C000000"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

func TestDecodeCalibration(t *testing.T) {
	raw := mustHex(t, referenceCalibration)

	cal, err := decoder.ParseCalibration(raw)
	require.NoError(t, err)

	exp := decoder.Calibration{
		T1: 27702, T2: 26629, T3: -1000,
		P1: 36257, P2: -10605, P3: 3024, P4: 1731, P5: 315,
		P6: -7, P7: 15500, P8: -14600, P9: 6000,
		H1: 0,
	}

	assert.Equal(t, exp, cal)
	assert.Equal(t, cal, decoder.DecodeCalibration([decoder.CalibrationSize]byte(raw)))
}

func TestDecodeCalibrationH1(t *testing.T) {
	raw := mustHex(t, referenceCalibration)
	raw[24] = 0xAA
	raw[25] = 0x4B

	cal, err := decoder.ParseCalibration(raw)
	require.NoError(t, err)

	assert.Equal(t, uint8(0x4B), cal.H1)
	assert.Equal(t, int16(6000), cal.P9)
}

func TestCalibrationEncode(t *testing.T) {
	raw := mustHex(t, referenceCalibration)

	cal, err := decoder.ParseCalibration(raw)
	require.NoError(t, err)

	enc := cal.Encode()
	assert.Equal(t, raw, enc[:])
}

func TestParseCalibrationSize(t *testing.T) {
	for _, n := range []int{0, 1, 24, 25, 27, 32} {
		_, err := decoder.ParseCalibration(make([]byte, n))
		require.ErrorIs(t, err, decoder.ErrCalibrationSize, "len %d", n)
	}
}

func TestDecodeSample(t *testing.T) {
	raw := mustHex(t, referenceSample)

	s, err := decoder.ParseSample(raw, decoder.BMP280)
	require.NoError(t, err)

	assert.Equal(t, decoder.RawSample{PressureADC: 442480, TemperatureADC: 517312}, s)
	assert.False(t, s.HasHumidity)
}

func TestDecodeSampleHumidity(t *testing.T) {
	raw := mustHex(t, "6C07007E4C006A3B")

	t.Run("placeholder ignored without humidity channel", func(t *testing.T) {
		s, err := decoder.ParseSample(raw, decoder.BMP280)
		require.NoError(t, err)

		assert.Zero(t, s.HumidityADC)
		assert.False(t, s.HasHumidity)
	})

	t.Run("read on BME280", func(t *testing.T) {
		s, err := decoder.ParseSample(raw, decoder.BME280)
		require.NoError(t, err)

		assert.Equal(t, uint16(0x6A3B), s.HumidityADC)
		assert.True(t, s.HasHumidity)

		enc := s.Encode()
		assert.Equal(t, raw, enc[:])
	})

	t.Run("zero reading is not absence", func(t *testing.T) {
		s, err := decoder.ParseSample(mustHex(t, referenceSample), decoder.BME280)
		require.NoError(t, err)

		assert.Zero(t, s.HumidityADC)
		assert.True(t, s.HasHumidity)
	})
}

func TestParseSampleSize(t *testing.T) {
	for _, n := range []int{0, 6, 7, 9} {
		_, err := decoder.ParseSample(make([]byte, n), decoder.BME280)
		require.ErrorIs(t, err, decoder.ErrSampleSize, "len %d", n)
	}
}

func TestVariant(t *testing.T) {
	tests := []struct {
		chipID    byte
		variant   decoder.Variant
		name      string
		supported bool
		humidity  bool
	}{
		{0x56, decoder.BMP280, "BMP280", true, false},
		{0x57, decoder.BMP280, "BMP280", true, false},
		{0x58, decoder.BMP280, "BMP280", true, false},
		{0x60, decoder.BME280, "BME280", true, true},
		{0x61, decoder.Unknown, "UNKNOWN", false, false},
		{0x00, decoder.Unknown, "UNKNOWN", false, false},
	}

	for _, test := range tests {
		v := decoder.ByChipID(test.chipID)

		assert.Equal(t, test.variant, v, "chip id %#x", test.chipID)
		assert.Equal(t, test.name, v.String())
		assert.Equal(t, test.supported, v.Supported())
		assert.Equal(t, test.humidity, v.Has(decoder.CapHumidity))
	}

	assert.Equal(t, decoder.BMP388, decoder.ByLegacyChipID(0x50))
	assert.Equal(t, decoder.BMP390, decoder.ByLegacyChipID(0x60))
	assert.Equal(t, decoder.Unknown, decoder.ByLegacyChipID(0x58))
	assert.False(t, decoder.BMP388.Supported())
	assert.True(t, decoder.BMP390.Has(decoder.CapPressure|decoder.CapTemperature))
	assert.False(t, decoder.Unknown.Has(decoder.CapTemperature))
	assert.False(t, decoder.BME280.Has(0))
	assert.Equal(t, decoder.ChipIDBME280, decoder.BME280.ChipID())
}
