// Package frame carries a captured register dump from a remote reader to the
// decoder. A frame bundles the chip ID, the calibration block and one sample
// of the same device so they cannot be paired across units by mistake.
//
// Binary layout (35 bytes):
//
//	[0]      chip ID (register 0xD0)
//	[1:27]   calibration block (0x88..0xA1)
//	[27:35]  sample burst (0xF7..0xFE)
package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"bmx280-decoder/internal/compensation"
	"bmx280-decoder/internal/decoder"
	"bmx280-decoder/internal/measurement"
)

const Size = 1 + decoder.CalibrationSize + decoder.SampleSize

var (
	ErrFrameSize = errors.New("frame must be 35 bytes")
	ErrLine      = errors.New("malformed frame line")
	ErrChipID    = errors.New("chip id must be 1 byte")
)

type Frame struct {
	ChipID      byte
	Calibration [decoder.CalibrationSize]byte
	Sample      [decoder.SampleSize]byte
}

func Unmarshal(data []byte) (Frame, error) {
	var f Frame

	if len(data) != Size {
		return f, fmt.Errorf("%w: got %d", ErrFrameSize, len(data))
	}

	f.ChipID = data[0]
	copy(f.Calibration[:], data[1:])
	copy(f.Sample[:], data[1+decoder.CalibrationSize:])

	return f, nil
}

func (f Frame) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, Size)
	data = append(data, f.ChipID)
	data = append(data, f.Calibration[:]...)
	data = append(data, f.Sample[:]...)

	return data, nil
}

func (f Frame) Variant() decoder.Variant {
	return decoder.ByChipID(f.ChipID)
}

// Decode identifies the sensor, decodes both blocks and compensates the
// sample. Frames from unknown chips are rejected.
func (f Frame) Decode() (measurement.Measurement, error) {
	v := f.Variant()
	if !v.Supported() {
		return measurement.Measurement{}, fmt.Errorf("%w: chip id %#02x", decoder.ErrUnsupportedVariant, f.ChipID)
	}

	cal := decoder.DecodeCalibration(f.Calibration)
	raw := decoder.DecodeSample(f.Sample, v)

	m := compensation.Compensate(cal, raw)
	m.Device = v.String()
	m.Timestamp = time.Now()

	return m, nil
}

// ParseFields builds a frame from its hex encoded chip ID, calibration block
// and sample.
func ParseFields(chipID, calibration, sample string) (Frame, error) {
	var f Frame

	chip, err := hex.DecodeString(strings.TrimSpace(chipID))
	if err != nil {
		return f, fmt.Errorf("chip id: %w", err)
	}

	if len(chip) != 1 {
		return f, fmt.Errorf("%w: got %d bytes", ErrChipID, len(chip))
	}

	cal, err := hex.DecodeString(strings.TrimSpace(calibration))
	if err != nil {
		return f, fmt.Errorf("calibration: %w", err)
	}

	if len(cal) != decoder.CalibrationSize {
		return f, fmt.Errorf("%w: got %d", decoder.ErrCalibrationSize, len(cal))
	}

	smp, err := hex.DecodeString(strings.TrimSpace(sample))
	if err != nil {
		return f, fmt.Errorf("sample: %w", err)
	}

	if len(smp) != decoder.SampleSize {
		return f, fmt.Errorf("%w: got %d", decoder.ErrSampleSize, len(smp))
	}

	f.ChipID = chip[0]
	f.Calibration = [decoder.CalibrationSize]byte(cal)
	f.Sample = [decoder.SampleSize]byte(smp)

	return f, nil
}

// ParseLine extracts a frame from a device log line of the form
//
//	I (4041275) qf8mzr: 58,366C...0000,6C07...0000
//
// where the fields after the tag are the chip ID, the calibration block and
// the sample, hex encoded. Lines without the tag yield false and no error.
func ParseLine(line string, tag string) (Frame, bool, error) {
	idx := strings.Index(line, tag+":")
	if idx == -1 {
		return Frame{}, false, nil
	}

	parts := strings.Split(strings.TrimSpace(line[idx+len(tag)+1:]), ",")
	if len(parts) != 3 {
		return Frame{}, true, fmt.Errorf("%w: want 3 fields, got %d", ErrLine, len(parts))
	}

	f, err := ParseFields(parts[0], parts[1], parts[2])
	if err != nil {
		return Frame{}, true, fmt.Errorf("%w: %w", ErrLine, err)
	}

	return f, true, nil
}

// FormatLine is the inverse of ParseLine without the log prefix.
func (f Frame) FormatLine(tag string) string {
	return fmt.Sprintf("%s: %02X,%s,%s", tag, f.ChipID,
		strings.ToUpper(hex.EncodeToString(f.Calibration[:])),
		strings.ToUpper(hex.EncodeToString(f.Sample[:])))
}
