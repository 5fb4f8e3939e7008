// Package serialport opens and drives the half-duplex serial link to the
// plotter: custom-divisor 200kbaud line setup, paced single-byte sends, and
// timed drain/read. It is adapted from a small general-purpose Linux serial
// port package down to exactly what the plotter protocol needs — one open
// mode, one baud rate, no SPI/PTY/RS485 surface.
package serialport

import (
	"fmt"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/daedaluz/fdev/poll"
	ioctl "github.com/daedaluz/goioctl"
)

// BaudTarget is the plotter's custom line rate. It is not one of the
// standard termios B-constants — it is reached via TIOCSSERIAL's
// custom_divisor field against a 38400 nominal rate.
const BaudTarget = 200000

// MinReadBytes is the VMIN value used for all non-canonical reads.
const MinReadBytes = 5

// Port is an open, configured serial handle to the plotter.
type Port struct {
	fd     int
	closed atomic.Bool
}

// Open opens name, puts it into raw 8N1 mode with VMIN=5/VTIME=0, and
// reprograms its divisor to reach BaudTarget. The device itself transmits
// 8N1 but expects to receive 8N2 — the 8N1 setting here governs what we
// read, not what we write; the second stop bit on writes is a line-level
// property of the wiring this package does not control.
func Open(name string) (*Port, error) {
	fd, err := syscall.Open(name, syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	p := &Port{fd: fd}

	if err := syscall.SetNonblock(fd, false); err != nil {
		syscall.Close(fd)
		return nil, err
	}

	if err := ioctl.Ioctl(uintptr(fd), tcflsh, uintptr(TCIFLUSH)); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("flush %s: %w", name, err)
	}

	t := &Termios{}
	t.MakeRaw()
	t.SetBaud38400()
	t.SetMinRead(MinReadBytes)
	if err := ioctl.Ioctl(uintptr(fd), tcsets, uintptr(unsafe.Pointer(t))); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set termios on %s: %w", name, err)
	}

	if err := p.setCustomDivisor(); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set custom divisor on %s: %w", name, err)
	}

	return p, nil
}

// setCustomDivisor reprograms the UART's divisor so that BaudBase/divisor
// lands on BaudTarget. FTDI adapters report a 24MHz BaudBase, yielding a
// divisor of 120 for our 200kbaud target.
func (p *Port) setCustomDivisor() error {
	sio := &serialStruct{}
	if err := ioctl.Ioctl(uintptr(p.fd), tiocgserial, uintptr(unsafe.Pointer(sio))); err != nil {
		return err
	}
	sio.Flags = (sio.Flags &^ asyncSPDMask) | asyncSPDCust
	sio.CustomDivisor = sio.BaudBase / BaudTarget
	return ioctl.Ioctl(uintptr(p.fd), tiocsserial, uintptr(unsafe.Pointer(sio)))
}

// Send writes bytes one at a time, sleeping 1ms after every byte including
// the last. The device's receive path drops characters sent back-to-back,
// so this pacing is a protocol requirement, not a courtesy — do not batch
// the write even though it would be faster. It returns the number of bytes
// actually accepted by the kernel; a short write is not itself an error
// here (the caller decides whether a short frame is fatal).
func (p *Port) Send(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	sent := 0
	for _, b := range data {
		n, err := syscall.Write(p.fd, []byte{b})
		if err == nil && n == 1 {
			sent++
		}
		time.Sleep(time.Millisecond)
		if err != nil && n < 1 {
			continue
		}
	}
	return sent, nil
}

// Read performs one blocking, non-canonical read; the kernel honors VMIN/VTIME.
func (p *Port) Read(buf []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	return syscall.Read(p.fd, buf)
}

// Drain polls for readability for up to timeout, and if data is waiting,
// reads up to 255 bytes and returns them for the caller to discard. It is used
// both to purge stale output before a transaction and as the mandatory
// post-reply quiet period the protocol requires.
func (p *Port) Drain(timeout time.Duration) ([]byte, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	if err := poll.WaitInput(p.fd, timeout); err != nil {
		return nil, nil
	}
	buf := make([]byte, 255)
	n, err := syscall.Read(p.fd, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Close releases the underlying file descriptor. It is safe to call once;
// a second call returns ErrClosed.
func (p *Port) Close() error {
	if p.closed.Swap(true) {
		return ErrClosed
	}
	return syscall.Close(p.fd)
}
