package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
)

const (
	metadataFile = "metadata.json"
	logFile      = "log.csv"
	idLayout     = "2006_01_02-15_04_05"
)

// Store keeps one directory per experiment run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir returns the base directory.
func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Experiment string             `json:"experiment"`
	Controller string             `json:"controller"`
	Port       string             `json:"port"`
	Simulated  bool               `json:"simulated"`
	PeriodMs   int64              `json:"period_ms"`
	Started    time.Time          `json:"started"`
	Finished   time.Time          `json:"finished,omitempty"`
	Cycles     int                `json:"cycles"`
	Stopped    bool               `json:"stopped"`
	Error      string             `json:"error,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Run is an open run directory.
type Run struct {
	Dir  string
	Meta RunMetadata
	Sink *Sink
}

// Create makes the directory of a new run and writes its initial metadata.
// The run ID is derived from meta.Started.
func (s *Store) Create(meta RunMetadata, flushIntervalMs int64) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}
	if meta.Started.IsZero() {
		meta.Started = time.Now()
	}
	base := meta.Started.Format(idLayout)
	id := base
	for i := 1; ; i++ {
		err := os.Mkdir(filepath.Join(s.baseDir, id), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, errors.Wrap(err, "create run directory")
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
	meta.ID = id
	run := &Run{
		Dir:  filepath.Join(s.baseDir, id),
		Meta: meta,
		Sink: NewSink(filepath.Join(s.baseDir, id, logFile), flushIntervalMs),
	}
	if err := run.writeMetadata(); err != nil {
		return nil, err
	}
	return run, nil
}

// Finish flushes the log and records the outcome of the run.
func (r *Run) Finish(cycles int, stopped bool, metrics map[string]float64, runErr error) error {
	flushErr := r.Sink.Flush()
	r.Meta.Finished = time.Now()
	r.Meta.Cycles = cycles
	r.Meta.Stopped = stopped
	r.Meta.Metrics = metrics
	if runErr != nil {
		r.Meta.Error = runErr.Error()
	}
	if err := r.writeMetadata(); err != nil {
		return err
	}
	return flushErr
}

func (r *Run) writeMetadata() error {
	f, err := os.Create(filepath.Join(r.Dir, metadataFile))
	if err != nil {
		return errors.Wrap(err, "write metadata")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Meta); err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	return nil
}

// List returns the metadata of every run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Started.Before(runs[j].Started) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "parse metadata of %s", runID)
	}
	return &meta, nil
}

// LoadRecords reads the log of a run.
func (s *Store) LoadRecords(runID string) ([]Record, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, logFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecords(f)
}

// ReadRecords parses a log written by a Sink.
func ReadRecords(src io.Reader) ([]Record, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read log header")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	records := make([]Record, 0)
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read log")
		}
		rec, err := ParseRecord(fields, index)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
