package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/orbsim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times     []float64      `json:"times"`
	States    []dynamo.State `json:"states"`
	Variables []string       `json:"variables,omitempty"`
	Dependent [][]float64    `json:"dependent,omitempty"`
}

// Export collects everything stored for a run.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, err
	}
	names, _, dependent, err := s.LoadDependentVariables(runID)
	if err != nil {
		return nil, err
	}
	data := &ExportData{RunMetadata: *meta, Times: times, States: states}
	if len(names) > 0 {
		data.Variables = names
		data.Dependent = dependent
	}
	return data, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSON writes a run to path, or to stdout when path is empty or "-".
func (s *Store) ExportJSON(runID, path string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, data)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := WriteJSON(file, data); err != nil {
		return err
	}
	return file.Close()
}
