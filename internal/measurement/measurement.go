package measurement

import (
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

type SafeMeasurement struct {
	data Measurement
	mu   sync.Mutex
}

func NewSafeMeasurement() *SafeMeasurement {
	return &SafeMeasurement{}
}

func (sm *SafeMeasurement) Set(data Measurement) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.data = data
}

func (sm *SafeMeasurement) Get() Measurement {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.data
}

// Measurement is a compensated reading. Temperature is in °C and pressure in
// Pa. Humidity is not computed yet and stays 0; HasHumidity tells whether the
// sensor has the channel at all.
type Measurement struct {
	Temperature   float32   `json:"temperature"`
	Pressure      float32   `json:"pressure"`
	Humidity      float32   `json:"humidity"`
	HasHumidity   bool      `json:"has_humidity"`
	PressureValid bool      `json:"pressure_valid"`
	Device        string    `json:"device,omitempty"`
	Timestamp     time.Time `json:"-"`
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func (m Measurement) String() string {
	return "Pressure: " + formatFloat(m.Pressure) +
		"Pa, Temperature: " + formatFloat(m.Temperature) +
		"C, Humidity: " + formatFloat(m.Humidity)
}

// Env converts the reading to periph physical units. Pressure is left unset
// when the compensation was degenerate.
func (m Measurement) Env() physic.Env {
	env := physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(float64(m.Temperature)*float64(physic.Celsius)),
	}

	if m.PressureValid {
		env.Pressure = physic.Pressure(float64(m.Pressure) * float64(physic.Pascal))
	}

	return env
}

func PascalToMmHg(p float32) float32 {
	return p / 133.322
}
