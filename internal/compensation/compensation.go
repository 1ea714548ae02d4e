// Package compensation implements the integer compensation formulas from the
// BMP280/BME280 datasheets.
//
// The pipelines reproduce the reference C code bit for bit: the temperature
// stage runs in int32 and the pressure stage in int64, with the shift
// amounts encoding the fixed-point scale of each trimming parameter.
package compensation

import (
	"bmx280-decoder/internal/decoder"
	"bmx280-decoder/internal/measurement"
)

// Temperature returns the temperature in 0.01 °C (5123 equals 51.23 °C) and
// the fine temperature term the pressure stage needs.
//
// raw has 20 bits of resolution.
func Temperature(c decoder.Calibration, raw int32) (int32, int32) {
	t1 := int32(c.T1)
	t2 := int32(c.T2)
	t3 := int32(c.T3)

	var1 := (((raw >> 3) - (t1 << 1)) * t2) >> 11
	var2 := (((((raw >> 4) - t1) * ((raw >> 4) - t1)) >> 12) * t3) >> 14

	tFine := var1 + var2

	return (tFine*5 + 128) >> 8, tFine
}

// Pressure returns the pressure in Pa as Q24.8 (24674867 equals
// 24674867/256 = 96386.2 Pa). ok is false when the trimming parameters make
// the formula divide by zero; the pressure is then 0.
//
// raw has 20 bits of resolution.
func Pressure(c decoder.Calibration, raw, tFine int32) (int64, bool) {
	var1 := int64(tFine) - 128000
	var2 := var1 * var1 * int64(c.P6)
	var2 += (var1 * int64(c.P5)) << 17
	var2 += int64(c.P4) << 35
	var1 = ((var1 * var1 * int64(c.P3)) >> 8) + ((var1 * int64(c.P2)) << 12)
	var1 = ((int64(1)<<47 + var1) * int64(c.P1)) >> 33

	if var1 == 0 {
		return 0, false
	}

	p := 1048576 - int64(raw)
	p = (((p << 31) - var2) * 3125) / var1
	var1 = (int64(c.P9) * (p >> 13) * (p >> 13)) >> 25
	var2 = (int64(c.P8) * p) >> 19
	p = ((p + var1 + var2) >> 8) + (int64(c.P7) << 4)

	return p, true
}

// Compensate converts a raw sample into physical units. The temperature
// stage always runs first because its fine term feeds the pressure stage.
// Humidity is reported as 0.
func Compensate(c decoder.Calibration, s decoder.RawSample) measurement.Measurement {
	t, tFine := Temperature(c, s.TemperatureADC)
	p, ok := Pressure(c, s.PressureADC, tFine)

	return measurement.Measurement{
		Temperature:   float32(t) / 100,
		Pressure:      float32(float64(p) / 256),
		HasHumidity:   s.HasHumidity,
		PressureValid: ok,
	}
}
