package sensor_test

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers"

	"bmx280-decoder/internal/decoder"
	"bmx280-decoder/internal/measurement"
	"bmx280-decoder/internal/sensor"
)

// Compile-time check.
var _ drivers.I2C = (*fakeI2C)(nil)

var errBus = errors.New("nack")

// fakeI2C is a register file answering single-register-address reads and
// register/value writes.
type fakeI2C struct {
	mu     sync.Mutex
	regs   [256]byte
	writes map[byte]byte
	fail   bool
	reads  []int
}

func newFakeBMx280(t *testing.T, chipID byte) *fakeI2C {
	t.Helper()

	f := &fakeI2C{writes: make(map[byte]byte)}
	f.regs[0xD0] = chipID

	cal, err := hex.DecodeString("366C056818FCA18D93D6D00BC3063B01F9FF8C3CF8C670170000")
	require.NoError(t, err)
	copy(f.regs[0x88:], cal)

	sample, err := hex.DecodeString("6C07007E4C00AABB")
	require.NoError(t, err)
	copy(f.regs[0xF7:], sample)

	return f
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail || addr != sensor.AddressLow {
		return errBus
	}

	switch {
	case len(w) == 1 && len(r) > 0:
		copy(r, f.regs[w[0]:])
		f.reads = append(f.reads, len(r))
	case len(w) == 2 && len(r) == 0:
		f.writes[w[0]] = w[1]
	default:
		return errBus
	}

	return nil
}

func (f *fakeI2C) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fail = v
}

func TestInitBMP280(t *testing.T) {
	bus := newFakeBMx280(t, 0x58)
	dev := sensor.New(bus, 0)

	require.NoError(t, dev.Init())

	assert.Equal(t, decoder.BMP280, dev.Variant())
	assert.Equal(t, uint16(27702), dev.Calibration().T1)
	assert.Equal(t, int16(6000), dev.Calibration().P9)
	assert.Equal(t, map[byte]byte{0xF4: 0x27}, bus.writes)

	f, err := dev.Capture()
	require.NoError(t, err)

	assert.Equal(t, byte(0x58), f.ChipID)
	assert.Equal(t, [8]byte{0x6C, 0x07, 0x00, 0x7E, 0x4C, 0x00, 0x00, 0x00}, f.Sample)
	assert.Equal(t, 6, bus.reads[len(bus.reads)-1])

	m, err := dev.Read()
	require.NoError(t, err)

	assert.Equal(t, "Pressure: 99414.17Pa, Temperature: 23.45C, Humidity: 0", m.String())
	assert.Equal(t, "BMP280", m.Device)
	assert.False(t, m.HasHumidity)
	assert.True(t, m.PressureValid)
}

func TestInitBME280(t *testing.T) {
	bus := newFakeBMx280(t, 0x60)
	dev := sensor.New(bus, sensor.AddressLow)

	require.NoError(t, dev.Init())

	assert.Equal(t, decoder.BME280, dev.Variant())
	assert.Equal(t, map[byte]byte{0xF2: 0x01, 0xF4: 0x27}, bus.writes)

	f, err := dev.Capture()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), f.Sample[6])
	assert.Equal(t, 8, bus.reads[len(bus.reads)-1])

	decoded, err := f.Decode()
	require.NoError(t, err)
	assert.True(t, decoded.HasHumidity)
	assert.Equal(t, "BME280", decoded.Device)
}

func TestInitUnsupported(t *testing.T) {
	tests := []struct {
		name    string
		d0, x00 byte
	}{
		{"BMP388", 0x00, 0x50},
		{"BMP390", 0x00, 0x60},
		{"UNKNOWN", 0x11, 0x22},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := newFakeBMx280(t, test.d0)
			bus.regs[0x00] = test.x00

			dev := sensor.New(bus, 0)

			v, _, err := dev.Identify()
			require.NoError(t, err)
			assert.Equal(t, test.name, v.String())

			err = dev.Init()
			require.ErrorIs(t, err, decoder.ErrUnsupportedVariant)
			assert.Empty(t, bus.writes)
		})
	}
}

func TestBusErrors(t *testing.T) {
	bus := newFakeBMx280(t, 0x58)
	dev := sensor.New(bus, sensor.AddressHigh)

	require.ErrorIs(t, dev.Init(), errBus)

	_, err := dev.Read()
	require.ErrorIs(t, err, sensor.ErrNotInitialized)
}

type recorder struct {
	mu   sync.Mutex
	data []measurement.Measurement
}

func (r *recorder) Emit(m measurement.Measurement) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, m)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.data)
}

func TestPoll(t *testing.T) {
	bus := newFakeBMx280(t, 0x58)
	dev := sensor.New(bus, 0)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan error, 1)

	go func() {
		done <- dev.Poll(ctx, 5*time.Millisecond, rec)
	}()

	require.Eventually(t, func() bool { return rec.len() >= 3 }, time.Second, time.Millisecond)

	bus.setFail(true)

	n := rec.len()

	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, rec.len(), n+1)

	cancel()
	require.NoError(t, <-done)
}

func TestPollInitError(t *testing.T) {
	bus := newFakeBMx280(t, 0x58)
	bus.setFail(true)

	err := sensor.New(bus, 0).Poll(context.Background(), time.Millisecond, &recorder{})
	require.ErrorIs(t, err, errBus)
}
