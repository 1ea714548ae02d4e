package decoder

// Capability is a set of channels a sensor can measure.
type Capability uint8

const (
	CapPressure Capability = 1 << iota
	CapTemperature
	CapHumidity
)

// Variant identifies a member of the Bosch pressure sensor family.
type Variant uint8

const (
	Unknown Variant = iota
	BMP280
	BME280
	BMP388
	BMP390
)

// Chip IDs reported in register 0xD0 by the BMx280 parts.
const (
	ChipIDBMP280Sample1 byte = 0x56
	ChipIDBMP280Sample2 byte = 0x57
	ChipIDBMP280        byte = 0x58
	ChipIDBME280        byte = 0x60
)

// Chip IDs reported in register 0x00 by the BMP3xx parts.
const (
	ChipIDBMP388 byte = 0x50
	ChipIDBMP390 byte = 0x60
)

func (v Variant) String() string {
	switch v {
	case BMP280:
		return "BMP280"
	case BME280:
		return "BME280"
	case BMP388:
		return "BMP388"
	case BMP390:
		return "BMP390"
	case Unknown:
	}

	return "UNKNOWN"
}

// Capabilities returns the channels the variant measures.
func (v Variant) Capabilities() Capability {
	switch v {
	case BMP280, BMP388, BMP390:
		return CapPressure | CapTemperature
	case BME280:
		return CapPressure | CapTemperature | CapHumidity
	case Unknown:
	}

	return 0
}

func (v Variant) Has(c Capability) bool {
	return c != 0 && v.Capabilities()&c == c
}

// Supported reports whether the calibration layout and compensation in this
// package apply to the variant. The BMP3xx parts use a different calibration
// block and are identified only.
func (v Variant) Supported() bool {
	return v == BMP280 || v == BME280
}

// ChipID returns the ID the variant reports in its identification register.
func (v Variant) ChipID() byte {
	switch v {
	case BMP280:
		return ChipIDBMP280
	case BME280:
		return ChipIDBME280
	case BMP388:
		return ChipIDBMP388
	case BMP390:
		return ChipIDBMP390
	case Unknown:
	}

	return 0
}

// ByChipID maps the content of register 0xD0 to a BMx280 variant.
func ByChipID(id byte) Variant {
	switch id {
	case ChipIDBMP280Sample1, ChipIDBMP280Sample2, ChipIDBMP280:
		return BMP280
	case ChipIDBME280:
		return BME280
	}

	return Unknown
}

// ByLegacyChipID maps the content of register 0x00 to a BMP3xx variant.
func ByLegacyChipID(id byte) Variant {
	switch id {
	case ChipIDBMP388:
		return BMP388
	case ChipIDBMP390:
		return BMP390
	}

	return Unknown
}
