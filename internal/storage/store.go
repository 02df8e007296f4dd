// Package storage keeps finished runs on disk: one directory per run with
// metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrColumns     = errors.New("storage: column count does not match state")
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Adaptive   bool               `json:"adaptive"`
	Steps      int                `json:"steps"`
	Substeps   int                `json:"substeps"`
	Rejected   int                `json:"rejected"`
	Columns    []string           `json:"columns"`
	Metrics    map[string]float64 `json:"metrics"`
	Telemetry  map[string]float64 `json:"telemetry,omitempty"`
	Params     map[string]float64 `json:"params,omitempty"`
}

// Run is a stored run read back in full.
type Run struct {
	Meta   *RunMetadata `json:"meta"`
	Times  []float64    `json:"times"`
	States [][]float64  `json:"states"`
}

// Save writes result under a fresh run id. meta.Columns names the state
// slots and must match the state width.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if len(result.States) > 0 && len(meta.Columns) != len(result.States[0]) {
		return "", fmt.Errorf("%w: %d columns, %d values", ErrColumns, len(meta.Columns), len(result.States[0]))
	}

	meta.ID = fmt.Sprintf("%s_%s", meta.Scenario, uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.Substeps = result.Substeps
	meta.Rejected = result.Rejected
	if meta.Metrics == nil {
		meta.Metrics = result.Metrics
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(append([]string{"time"}, meta.Columns...)); err != nil {
		return "", err
	}
	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'g', -1, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', 10, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns stored runs, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates reads states.csv back into rows and times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("states.csv line %d: %w", i+2, err)
			}
			vals[j] = v
		}
		times = append(times, vals[0])
		states = append(states, vals[1:])
	}
	return states, times, nil
}

// Column returns the series of one named column.
func (s *Store) Column(runID, name string) ([]float64, []float64, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	idx := -1
	for i, c := range meta.Columns {
		if c == name {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: no column %q in %s", ErrColumns, name, runID)
	}

	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	series := make([]float64, len(states))
	for i, row := range states {
		series[i] = row[idx]
	}
	return series, times, nil
}

// ExportJSON writes metadata and all states of a run as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Run{Meta: meta, Times: times, States: states})
}
