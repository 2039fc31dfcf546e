package device

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
)

// LineSource is anything that can produce newline-terminated records over
// time: the real serial port, the mock generator, or a replay source.
type LineSource interface {
	ReadLine() (string, error)
	Close() error
}

// SerialSource reads records from a serial port.
type SerialSource struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// OpenSerial opens the device port. There is no retry: if the port is not
// there at startup the session is off.
func OpenSerial(portName string, baudRate uint, timeoutMS uint) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: timeoutMS,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &SerialSource{port: port, reader: bufio.NewReader(port)}, nil
}

// ReadLine blocks until one newline-terminated record arrives or the
// inter-character timeout elapses, and returns the trimmed text. A timeout
// surfaces as an empty line, which the parser drops.
func (s *SerialSource) ReadLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil && line == "" {
		// The driver reports an idle port as a read with no data.
		if err == io.EOF || err == io.ErrNoProgress {
			return "", nil
		}
		return "", fmt.Errorf("serial read: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (s *SerialSource) Close() error {
	return s.port.Close()
}
