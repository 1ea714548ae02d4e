// Package sensor reads a BMP280/BME280 over I2C and hands the captured
// register dumps to the decoder.
//
// Init puts the part in normal mode with x1 oversampling on every channel.
// Filter and standby time are left at their reset values.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/drivers"

	"bmx280-decoder/internal/compensation"
	"bmx280-decoder/internal/decoder"
	"bmx280-decoder/internal/frame"
	"bmx280-decoder/internal/measurement"
)

// I2C addresses selectable with the SDO pin.
const (
	AddressLow  uint16 = 0x76
	AddressHigh uint16 = 0x77
)

const (
	regCalibration = 0x88
	regChipID      = 0xD0
	regBMP3ChipID  = 0x00
	regCtrlHum     = 0xF2
	regCtrlMeas    = 0xF4
	regPressureMSB = 0xF7
)

const (
	ctrlHumX1          = 0x01
	ctrlMeasX1X1Normal = 0b001_001_11
)

// Sample lengths of a burst read from press_msb.
const (
	sampleLenPT  = 6
	sampleLenPTH = 8
)

var ErrNotInitialized = errors.New("sensor: not initialized")

// Device is a BMx280 on an I2C bus. The calibration block is read once by
// Init and reused for every sample.
type Device struct {
	bus     drivers.I2C
	Address uint16

	variant     decoder.Variant
	chipID      byte
	rawCal      [decoder.CalibrationSize]byte
	calibration decoder.Calibration
	ready       bool
}

func New(bus drivers.I2C, addr uint16) *Device {
	if addr == 0 {
		addr = AddressLow
	}

	return &Device{
		bus:     bus,
		Address: addr,
	}
}

func (d *Device) writeReg(reg, value byte) error {
	if err := d.bus.Tx(d.Address, []byte{reg, value}, nil); err != nil {
		return fmt.Errorf("write register %#02x: %w", reg, err)
	}

	return nil
}

func (d *Device) readReg(reg byte, buf []byte) error {
	if err := d.bus.Tx(d.Address, []byte{reg}, buf); err != nil {
		return fmt.Errorf("read register %#02x: %w", reg, err)
	}

	return nil
}

// Identify reads the chip ID registers. A BMx280 answers at 0xD0; a BMP3xx
// answers at 0x00.
func (d *Device) Identify() (decoder.Variant, byte, error) {
	var id [1]byte

	if err := d.readReg(regChipID, id[:]); err != nil {
		return decoder.Unknown, 0, err
	}

	if v := decoder.ByChipID(id[0]); v != decoder.Unknown {
		return v, id[0], nil
	}

	if err := d.readReg(regBMP3ChipID, id[:]); err != nil {
		return decoder.Unknown, 0, err
	}

	return decoder.ByLegacyChipID(id[0]), id[0], nil
}

// Init identifies the part, loads its calibration block and starts
// continuous sampling.
func (d *Device) Init() error {
	v, id, err := d.Identify()
	if err != nil {
		return err
	}

	if !v.Supported() {
		return fmt.Errorf("%w: %s (chip id %#02x)", decoder.ErrUnsupportedVariant, v, id)
	}

	if err := d.readReg(regCalibration, d.rawCal[:]); err != nil {
		return err
	}

	// ctrl_hum only takes effect after the following ctrl_meas write.
	if v.Has(decoder.CapHumidity) {
		if err := d.writeReg(regCtrlHum, ctrlHumX1); err != nil {
			return err
		}
	}

	if err := d.writeReg(regCtrlMeas, ctrlMeasX1X1Normal); err != nil {
		return err
	}

	d.variant = v
	d.chipID = id
	d.calibration = decoder.DecodeCalibration(d.rawCal)
	d.ready = true

	slog.Debug("sensor initialized", "variant", v.String(), "address", d.Address, "calibration", d.calibration)

	return nil
}

func (d *Device) Variant() decoder.Variant {
	return d.variant
}

func (d *Device) Calibration() decoder.Calibration {
	return d.calibration
}

// Capture reads one sample and returns it together with the calibration as a
// frame. On parts without a humidity channel only six bytes are read and the
// humidity bytes stay zero.
func (d *Device) Capture() (frame.Frame, error) {
	if !d.ready {
		return frame.Frame{}, ErrNotInitialized
	}

	f := frame.Frame{
		ChipID:      d.chipID,
		Calibration: d.rawCal,
	}

	n := sampleLenPT
	if d.variant.Has(decoder.CapHumidity) {
		n = sampleLenPTH
	}

	if err := d.readReg(regPressureMSB, f.Sample[:n]); err != nil {
		return frame.Frame{}, err
	}

	return f, nil
}

// Read captures and compensates one sample.
func (d *Device) Read() (measurement.Measurement, error) {
	f, err := d.Capture()
	if err != nil {
		return measurement.Measurement{}, err
	}

	m := compensation.Compensate(d.calibration, decoder.DecodeSample(f.Sample, d.variant))
	m.Device = d.variant.String()
	m.Timestamp = time.Now()

	return m, nil
}

type eventEmitter interface {
	Emit(m measurement.Measurement)
}

// Poll reads the sensor every interval until ctx is done. Read errors are
// logged and the next tick is awaited.
func (d *Device) Poll(ctx context.Context, interval time.Duration, emitter eventEmitter) error {
	if !d.ready {
		if err := d.Init(); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m, err := d.Read()
		if err != nil {
			slog.WarnContext(ctx, "sensor read failed", "address", d.Address, "err", err)
		} else {
			if !m.PressureValid {
				slog.WarnContext(ctx, "degenerate pressure calibration", "address", d.Address)
			}

			slog.DebugContext(ctx, "sensor read", "measurement", m.String())
			emitter.Emit(m)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
