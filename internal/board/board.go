// Package board talks to the servo robot over a serial line. The firmware
// understands newline-terminated text commands such as "servo1 rotate 90"
// or "rotateBoth 360 360".
package board

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the firmware's UART speed.
const DefaultBaudRate = 115200

// resetDelay gives the board time to reboot after the port opens; opening
// the serial line resets most Arduino-style boards.
const resetDelay = 2 * time.Second

// ErrNotConnected is returned when sending to a closed board.
var ErrNotConnected = errors.New("board is not connected")

// Board is a serial connection to the robot controller.
type Board struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// Open connects to the robot controller on the named serial port, e.g.
// "/dev/ttyACM0" or "COM4". It blocks through the board's post-open reset.
func Open(portName string, baudRate int) (*Board, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}

	log.Printf("Connected to board on %s (%d baud)", portName, baudRate)
	time.Sleep(resetDelay)

	return NewBoard(port), nil
}

// NewBoard wraps an already open port. Tests hand in an in-memory pipe.
func NewBoard(port io.ReadWriteCloser) *Board {
	return &Board{port: port, reader: bufio.NewReader(port)}
}

// Send writes one newline-terminated command to the board.
func (b *Board) Send(command string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.port == nil {
		return ErrNotConnected
	}

	if _, err := fmt.Fprintf(b.port, "%s\n", command); err != nil {
		return fmt.Errorf("send %q: %w", command, err)
	}
	return nil
}

// ReadResponse reads one response line from the board, stripped of
// whitespace. It blocks until the firmware answers or the port errors.
func (b *Board) ReadResponse() (string, error) {
	b.mu.Lock()
	reader := b.reader
	b.mu.Unlock()

	if reader == nil {
		return "", ErrNotConnected
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// IsConnected reports whether the board link is open.
func (b *Board) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.port != nil
}

// Close shuts down the serial connection. Closing twice is a no-op.
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.port == nil {
		return nil
	}

	err := b.port.Close()
	b.port = nil
	b.reader = nil
	return err
}
