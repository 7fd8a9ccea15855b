package protocol

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/tecolab/internal/thermal"
)

// DefaultRetries is the number of extra attempts made for a failed
// exchange before it is reported as fatal.
const DefaultRetries = 3

// Port is the subset of a serial port used by the protocol. A read that
// times out returns zero bytes and a nil error.
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Link performs framed exchanges with one board. It is not safe for
// concurrent use; the control loop is its only caller.
type Link struct {
	name    string
	port    Port
	retries int
	log     logrus.FieldLogger
	status  byte
}

// Option configures a Link.
type Option func(*Link)

// WithRetries sets how many times a failed exchange is retried.
func WithRetries(n int) Option {
	return func(l *Link) {
		if n >= 0 {
			l.retries = n
		}
	}
}

// WithLogger sets the logger used for warnings and retries.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Link) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLink wraps an already opened port.
func NewLink(name string, port Port, opts ...Option) *Link {
	l := &Link{
		name:    name,
		port:    port,
		retries: DefaultRetries,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithField("port", name)
	return l
}

// Name returns the port name the link was opened on.
func (l *Link) Name() string { return l.name }

// Status returns the error byte of the last response.
func (l *Link) Status() byte { return l.status }

// Overheated reports whether the board flagged a heater above its safety
// limit. The firmware latches this state and keeps the heaters off.
func (l *Link) Overheated() bool { return l.status&StatusOverheated == StatusOverheated }

func (l *Link) Close() error {
	return l.port.Close()
}

// ReadTemperatures requests and decodes one temperature sample.
func (l *Link) ReadTemperatures() (thermal.Temperatures, error) {
	var temps thermal.Temperatures
	err := l.exchange(ReadRequest(), TemperatureResponseLen, func(resp []byte) error {
		t, status, err := DecodeTemperatures(resp)
		if err != nil {
			return err
		}
		temps = t
		l.setStatus(status)
		return nil
	})
	return temps, err
}

// WritePWMs sends the three duty cycles and waits for the acknowledgment.
func (l *Link) WritePWMs(p thermal.PWM) error {
	return l.exchange(WriteRequest(p), AckLen, func(resp []byte) error {
		if Checksum(resp[:1]) != resp[1] {
			return ErrChecksum
		}
		if resp[0]&StatusUnknownCommand != 0 {
			return ErrUnknownCommand
		}
		l.setStatus(resp[0])
		return nil
	})
}

// Exchange writes the duty cycles and reads the temperatures in one round
// trip using the combined control command.
func (l *Link) Exchange(p thermal.PWM) (thermal.Temperatures, error) {
	var temps thermal.Temperatures
	err := l.exchange(ControlRequest(p), TemperatureResponseLen, func(resp []byte) error {
		t, status, err := DecodeTemperatures(resp)
		if err != nil {
			return err
		}
		temps = t
		l.setStatus(status)
		return nil
	})
	return temps, err
}

func (l *Link) setStatus(status byte) {
	if status&StatusOverheated == StatusOverheated && !l.Overheated() {
		l.log.Warn("board reports overheating, heaters disabled by firmware")
	}
	l.status = status
}

// exchange writes req and reads n bytes, retrying on short or corrupt
// responses. The input buffer is flushed between attempts so a late answer
// cannot be mistaken for the next one.
func (l *Link) exchange(req []byte, n int, handle func([]byte) error) error {
	var lastErr error
	attempts := 0
	for attempts <= l.retries {
		attempts++
		if attempts > 1 {
			if err := l.port.ResetInputBuffer(); err != nil {
				l.log.WithError(err).Debug("reset input buffer")
			}
		}
		if _, err := l.port.Write(req); err != nil {
			lastErr = errors.Wrapf(err, "write %q frame", req[0])
			l.log.WithError(lastErr).WithField("attempt", attempts).Debug("exchange failed")
			continue
		}
		resp, err := ReadFull(l.port, n)
		if err == nil {
			err = handle(resp)
		}
		if err == nil {
			return nil
		}
		lastErr = err
		l.log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempts,
			"command": string(req[0]),
			"bytes":   len(resp),
		}).Debug("exchange failed")
	}
	return &FrameError{Command: req[0], Attempts: attempts, Wrapped: lastErr}
}

// ReadFull reads up to n bytes, stopping early when the port times out.
// It returns ErrShortRead together with the partial buffer when fewer than
// n bytes arrived.
func ReadFull(r io.Reader, n int) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, n)
	for buf.Len() < n {
		k, err := r.Read(chunk[:n-buf.Len()])
		buf.Write(chunk[:k])
		if err != nil && err != io.EOF {
			return buf.Bytes(), errors.Wrap(err, "read")
		}
		if k == 0 || err == io.EOF {
			break
		}
	}
	if buf.Len() < n {
		return buf.Bytes(), ErrShortRead
	}
	return buf.Bytes(), nil
}
