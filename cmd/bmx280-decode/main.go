// Command bmx280-decode compensates one captured BMP280/BME280 sample offline.
//
//	bmx280-decode -calibration 366C0568...0000 -sample 6C07007E4C000000 [-chip 60]
//
// The calibration block is the 26 bytes read from 0x88 and the sample is the
// 8 byte burst read from 0xF7, both hex encoded.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"bmx280-decoder/internal/frame"
)

const defaultChipID = "58"

var errMissingInput = errors.New("both -calibration and -sample are required")

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("bmx280-decode", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	calibration := fs.String("calibration", "", "calibration block, 26 bytes hex")
	sample := fs.String("sample", "", "sample burst, 8 bytes hex")
	chip := fs.String("chip", defaultChipID, "chip id, 1 byte hex (58 BMP280, 60 BME280)")
	verbose := fs.Bool("v", false, "print the decoded calibration and raw sample")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *calibration == "" || *sample == "" {
		return errMissingInput
	}

	f, err := frame.ParseFields(*chip, *calibration, *sample)
	if err != nil {
		return err
	}

	m, err := f.Decode()
	if err != nil {
		return err
	}

	if *verbose {
		slog.Info("decoded",
			"variant", m.Device,
			"line", f.FormatLine("frame"),
			"pressure_valid", m.PressureValid)
	}

	_, err = fmt.Fprintln(stdout, m.String())

	return err //nolint:wrapcheck
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("decode failed", "err", err)
		os.Exit(1)
	}
}
