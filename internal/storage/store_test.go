package storage

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

func sampleResult() *dynamo.Result {
	return &dynamo.Result{
		States:     []dynamo.State{{900, 1}, {905.5, 1.25}, {910.125, 1.5}},
		Times:      []float64{0, 0.5, 1},
		Metrics:    map[string]float64{"peak_power": 1.5},
		StepsTaken: 2,
		Substeps:   10,
		Rejected:   1,
	}
}

func TestSaveLoad(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	id, err := s.Save(RunMetadata{Scenario: "slab", Dt: 0.5, Duration: 1, Integrator: "rk45", Columns: []string{"fuel", "power"}}, sampleResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "slab_"))

	meta, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "slab", meta.Scenario)
	assert.Equal(t, 2, meta.Steps)
	assert.Equal(t, 10, meta.Substeps)
	assert.Equal(t, 1, meta.Rejected)
	assert.Equal(t, 1.5, meta.Metrics["peak_power"])

	states, times, err := s.LoadStates(id)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, times)
	assert.Equal(t, [][]float64{{900, 1}, {905.5, 1.25}, {910.125, 1.5}}, states)

	power, _, err := s.Column(id, "power")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.25, 1.5}, power)

	_, _, err = s.Column(id, "cool")
	assert.ErrorIs(t, err, ErrColumns)
}

func TestSave_ColumnMismatch(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Save(RunMetadata{Scenario: "slab", Columns: []string{"fuel"}}, sampleResult())
	assert.ErrorIs(t, err, ErrColumns)
}

func TestList(t *testing.T) {
	s := New(t.TempDir())
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	cols := []string{"fuel", "power"}
	a, err := s.Save(RunMetadata{Scenario: "a", Columns: cols}, sampleResult())
	require.NoError(t, err)
	b, err := s.Save(RunMetadata{Scenario: "b", Columns: cols}, sampleResult())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	runs, err = s.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestLoad_NotFound(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Load("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, _, err = s.LoadStates("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestExportJSON(t *testing.T) {
	s := New(t.TempDir())
	id, err := s.Save(RunMetadata{Scenario: "slab", Columns: []string{"fuel", "power"}}, sampleResult())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(id, &buf))

	var run Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &run))
	assert.Equal(t, id, run.Meta.ID)
	assert.Equal(t, []string{"fuel", "power"}, run.Meta.Columns)
	assert.Len(t, run.States, 3)
	assert.Equal(t, 910.125, run.States[2][0])
}
