package storage

import (
	"encoding/csv"
	"os"

	"github.com/pkg/errors"
)

// DefaultFlushInterval is the experiment time between two log flushes, in
// milliseconds.
const DefaultFlushInterval = 5000

// Sink buffers records and appends them to a CSV file whenever the
// experiment time advances by the flush interval.
type Sink struct {
	path          string
	interval      int64
	lastFlush     int64
	pending       []Record
	headerWritten bool
	written       int
}

// NewSink returns a sink appending to path. The header is written once, on
// the first flush into an empty or missing file.
func NewSink(path string, intervalMs int64) *Sink {
	if intervalMs <= 0 {
		intervalMs = DefaultFlushInterval
	}
	return &Sink{path: path, interval: intervalMs}
}

// Path returns the log file path.
func (s *Sink) Path() string { return s.path }

// Written returns the number of records already on disk.
func (s *Sink) Written() int { return s.written }

// Pending returns the number of buffered records.
func (s *Sink) Pending() int { return len(s.pending) }

// Append buffers r and flushes when r.Time is at least one interval past
// the previous flush.
func (s *Sink) Append(r Record) error {
	s.pending = append(s.pending, r)
	if r.Time-s.lastFlush >= s.interval {
		s.lastFlush = r.Time
		return s.Flush()
	}
	return nil
}

// Flush writes every buffered record.
func (s *Sink) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !s.headerWritten {
		info, err := f.Stat()
		if err != nil {
			return errors.Wrap(err, "stat log")
		}
		if info.Size() == 0 {
			if err := w.Write(Header()); err != nil {
				return errors.Wrap(err, "write log header")
			}
		}
		s.headerWritten = true
	}
	for _, r := range s.pending {
		if err := w.Write(r.Fields()); err != nil {
			return errors.Wrap(err, "write log")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush log")
	}
	s.written += len(s.pending)
	s.pending = s.pending[:0]
	return f.Close()
}
