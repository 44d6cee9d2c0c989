// Package serialdmx abstracts the serial link to a USB-DMX interface.
// The Port interface keeps the transmit loop and its tests independent of
// real hardware.
package serialdmx

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the DMX512-compliant baud rate.
const DefaultBaudRate = 250000

// ioTimeout bounds a single serial read/write so a wedged adapter delays the
// transmit loop by at most one tick's worth of waiting.
const ioTimeout = time.Second

// Port is the minimal surface the transmit loop needs from a serial device.
type Port interface {
	io.Writer
	io.Closer
}

// OpenFunc opens a serial device at the given baud rate. Injected into the
// controller so tests can substitute a mock.
type OpenFunc func(device string, baud int) (Port, error)

// Open opens the serial device with DMX512 framing: 8 data bits, no parity,
// 2 stop bits.
func Open(device string, baud int) (Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(ioTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}
