package main //nolint:testpackage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmx280-decoder/internal/decoder"
)

const (
	referenceCalibration = "366C056818FCA18D93D6D00BC3063B01F9FF8C3CF8C670170000"
	referenceSample      = "6C07007E4C000000"
)

func TestRun(t *testing.T) {
	var out bytes.Buffer

	err := run([]string{"-calibration", referenceCalibration, "-sample", referenceSample}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Pressure: 99414.17Pa, Temperature: 23.45C, Humidity: 0\n", out.String())
}

func TestRunDegenerate(t *testing.T) {
	var out bytes.Buffer

	cal := "366C056818FC0000" + referenceCalibration[16:]

	require.NoError(t, run([]string{"-calibration", cal, "-sample", referenceSample, "-chip", "60"}, &out))
	assert.Equal(t, "Pressure: 0Pa, Temperature: 23.45C, Humidity: 0\n", out.String())
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		args []string
		err  error
	}{
		{[]string{"-sample", referenceSample}, errMissingInput},
		{[]string{"-calibration", referenceCalibration[:10], "-sample", referenceSample}, decoder.ErrCalibrationSize},
		{[]string{"-calibration", referenceCalibration, "-sample", referenceSample[:6]}, decoder.ErrSampleSize},
		{[]string{"-calibration", referenceCalibration, "-sample", referenceSample, "-chip", "50"}, decoder.ErrUnsupportedVariant},
	}

	for _, test := range tests {
		var out bytes.Buffer

		require.ErrorIs(t, run(test.args, &out), test.err)
		assert.Empty(t, out.String())
	}

	require.Error(t, run([]string{"-unknown"}, &bytes.Buffer{}))
}
