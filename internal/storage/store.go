// Package storage keeps propagation runs on disk, one directory per run.
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

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/propagation"
)

const (
	metadataFile  = "metadata.json"
	statesFile    = "states.csv"
	dependentFile = "dependent.csv"
)

var ErrRunNotFound = errors.New("run not found")

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
	ID          string                       `json:"id"`
	Scenario    string                       `json:"scenario"`
	Timestamp   time.Time                    `json:"timestamp"`
	Start       float64                      `json:"start"`
	Dt          float64                      `json:"dt"`
	Duration    float64                      `json:"duration"`
	Integrator  string                       `json:"integrator"`
	Tolerance   float64                      `json:"tolerance,omitempty"`
	Propagated  []string                     `json:"propagated"`
	Steps       int                          `json:"steps"`
	Evaluations int                          `json:"evaluations"`
	Layout      []propagation.VariableLayout `json:"layout,omitempty"`
	Metrics     map[string]float64           `json:"metrics"`
	// Error is set for runs that stopped early; the stored states are the
	// partial history.
	Error string `json:"error,omitempty"`
}

// Save writes a run and returns its ID. runErr is the error the
// propagation returned, if any.
func (s *Store) Save(cfg *config.Scenario, result *propagation.Result, runErr error) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.Name, uuid.NewString())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	start, _ := cfg.StartSeconds()
	meta := RunMetadata{
		ID:          runID,
		Scenario:    cfg.Name,
		Timestamp:   time.Now().UTC(),
		Start:       start,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Integrator:  cfg.Integrator,
		Tolerance:   cfg.Tolerance,
		Steps:       result.StepsTaken,
		Evaluations: result.Evaluations,
		Layout:      result.Layout,
		Metrics:     result.Metrics,
	}
	for _, p := range cfg.Propagated {
		meta.Propagated = append(meta.Propagated, p.Body)
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := writeCSV(filepath.Join(runDir, statesFile), StateHeader(meta.Propagated), result.Times, result.States); err != nil {
		return "", err
	}

	if len(result.Layout) > 0 {
		if err := writeCSV(filepath.Join(runDir, dependentFile), DependentHeader(result.Layout), result.Times, result.DependentVariables); err != nil {
			return "", err
		}
	}
	return runID, nil
}

// StateHeader names the columns of the state table.
func StateHeader(propagated []string) []string {
	header := []string{"time"}
	for _, body := range propagated {
		for _, c := range []string{"x", "y", "z", "vx", "vy", "vz"} {
			header = append(header, body+"_"+c)
		}
	}
	return header
}

// DependentHeader names the columns of the dependent variable table:
// scalars keep their name, vector components get an index suffix.
func DependentHeader(layout []propagation.VariableLayout) []string {
	header := []string{"time"}
	for _, l := range layout {
		if l.Size == 1 {
			header = append(header, l.Name)
			continue
		}
		for i := 0; i < l.Size; i++ {
			header = append(header, fmt.Sprintf("%s[%d]", l.Name, i))
		}
	}
	return header
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV[R ~[]float64](path string, header []string, times []float64, rows []R) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteTable(f, header, times, rows); err != nil {
		return err
	}
	return f.Close()
}

// WriteTable writes a time column followed by one row per epoch.
func WriteTable[R ~[]float64](out io.Writer, header []string, times []float64, rows []R) error {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, row := range rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, val := range row {
			record = append(record, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadStates returns the stored states and their epochs.
func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	_, times, rows, err := s.readTable(runID, statesFile)
	if err != nil {
		return nil, nil, err
	}
	states := make([]dynamo.State, len(rows))
	for i, row := range rows {
		states[i] = row
	}
	return states, times, nil
}

// LoadDependentVariables returns the column names (without time), the
// epochs and the rows of the dependent variable table. Runs saved without
// dependent variables return empty slices.
func (s *Store) LoadDependentVariables(runID string) ([]string, []float64, [][]float64, error) {
	header, times, rows, err := s.readTable(runID, dependentFile)
	if errors.Is(err, os.ErrNotExist) {
		if _, err := s.Load(runID); err != nil {
			return nil, nil, nil, err
		}
		return []string{}, []float64{}, [][]float64{}, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return header, times, rows, nil
}

func (s *Store) readTable(runID, name string) ([]string, []float64, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s of %s: %w", name, runID, err)
	}
	if len(records) == 0 {
		return []string{}, []float64{}, [][]float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s of %s, line %d: %w", name, runID, i+2, err)
			}
			values[j] = v
		}
		times = append(times, values[0])
		rows = append(rows, values[1:])
	}
	return records[0][1:], times, rows, nil
}
