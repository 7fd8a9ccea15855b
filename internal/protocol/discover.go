package protocol

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Serial settings of the board.
const (
	BaudRate    = 115200
	ReadTimeout = 100 * time.Millisecond
	// BootDelay covers the reset the microcontroller performs when the
	// port is opened.
	BootDelay = 4 * time.Second
)

// Lister enumerates candidate port names.
type Lister func() ([]string, error)

// Opener opens a port by name.
type Opener func(name string) (Port, error)

// SerialLister lists the serial ports of the host.
func SerialLister() ([]string, error) {
	return serial.GetPortsList()
}

// SerialOpener returns an Opener for real serial ports.
func SerialOpener(baud int, timeout time.Duration) Opener {
	return func(name string) (Port, error) {
		port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", name)
		}
		if err := port.SetReadTimeout(timeout); err != nil {
			port.Close()
			return nil, errors.Wrapf(err, "set read timeout on %s", name)
		}
		return port, nil
	}
}

// Discoverer probes ports until one answers like a TeCoLab board.
type Discoverer struct {
	List      Lister
	Open      Opener
	BootDelay time.Duration
	Log       logrus.FieldLogger
	// Options are applied to the Link returned on success.
	Options []Option
}

// NewDiscoverer returns a Discoverer for the host serial ports.
func NewDiscoverer(baud int, timeout, bootDelay time.Duration) *Discoverer {
	return &Discoverer{
		List:      SerialLister,
		Open:      SerialOpener(baud, timeout),
		BootDelay: bootDelay,
		Log:       logrus.StandardLogger(),
	}
}

// Discover opens every port in name order, waits for the board to boot,
// writes the probe and keeps the first port that echoes it back.
func (d *Discoverer) Discover(ctx context.Context) (*Link, error) {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	names, err := d.List()
	if err != nil {
		return nil, errors.Wrap(err, "list serial ports")
	}
	if len(names) == 0 {
		return nil, ErrNoPorts
	}
	sort.Strings(names)
	log.WithField("ports", names).Info("identifying serial devices")

	for _, name := range names {
		plog := log.WithField("port", name)
		plog.Info("testing port")
		port, err := d.Open(name)
		if err != nil {
			plog.WithError(err).Warn("cannot open port")
			continue
		}
		ok, err := d.probe(ctx, port)
		if err != nil {
			port.Close()
			return nil, err
		}
		if ok {
			plog.Info("TeCoLab device found")
			opts := append([]Option{WithLogger(log)}, d.Options...)
			return NewLink(name, port, opts...), nil
		}
		port.Close()
	}
	return nil, ErrNotFound
}

func (d *Discoverer) probe(ctx context.Context, port Port) (bool, error) {
	if d.BootDelay > 0 {
		timer := time.NewTimer(d.BootDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
	if _, err := port.Write(Probe); err != nil {
		return false, nil
	}
	ans, _ := ReadFull(port, len(Probe))
	return bytes.Equal(ans, Probe), nil
}
