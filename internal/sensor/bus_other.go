//go:build !linux

package sensor

import "errors"

var ErrBusUnsupported = errors.New("i2c-dev is only available on linux")

type Bus struct{}

func OpenBus(string) (*Bus, error) {
	return nil, ErrBusUnsupported
}

func (*Bus) Tx(uint16, []byte, []byte) error {
	return ErrBusUnsupported
}

func (*Bus) Close() error {
	return nil
}
