//go:build linux

package sensor

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"tinygo.org/x/drivers"
)

// I2C_SLAVE from linux/i2c-dev.h.
const ioctlI2CSlave = 0x0703

var _ drivers.I2C = (*Bus)(nil)

// Bus is an i2c-dev character device. Tx sends the write and the read as two
// transfers, which the BMx280 accepts in place of a repeated start.
type Bus struct {
	mu       sync.Mutex
	f        *os.File
	addr     uint16
	selected bool
}

func OpenBus(path string) (*Bus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &Bus{f: f}, nil
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.selected || b.addr != addr {
		if err := unix.IoctlSetInt(int(b.f.Fd()), ioctlI2CSlave, int(addr)); err != nil { //nolint:gosec
			return fmt.Errorf("select address %#02x: %w", addr, err)
		}

		b.addr = addr
		b.selected = true
	}

	if len(w) > 0 {
		if _, err := b.f.Write(w); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}

	if len(r) > 0 {
		if _, err := io.ReadFull(b.f, r); err != nil {
			return fmt.Errorf("read: %w", err)
		}
	}

	return nil
}

func (b *Bus) Close() error {
	return b.f.Close() //nolint:wrapcheck
}
