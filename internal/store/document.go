// Package store reads and writes schedule documents and keeps the commit
// journal. All I/O goes through an afero.Fs so callers can swap in an
// in-memory filesystem.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/fasttrack/internal/graph"
)

// Document is the on-disk form of a schedule.
type Document struct {
	Name             string             `json:"name,omitempty" yaml:"name,omitempty"`
	DataDate         int                `json:"data_date" yaml:"data_date"`
	ProjectStart     *int               `json:"project_start,omitempty" yaml:"project_start,omitempty"`
	FinishConstraint *int               `json:"finish_constraint,omitempty" yaml:"finish_constraint,omitempty"`
	Activities       []graph.Activity   `json:"activities" yaml:"activities"`
	Dependencies     []graph.Dependency `json:"dependencies" yaml:"dependencies"`
}

// FromGraph captures g as a document with activities and dependencies in
// stable order.
func FromGraph(name string, g *graph.Graph) Document {
	d := Document{
		Name:             name,
		DataDate:         g.DataDate(),
		ProjectStart:     g.ProjectStart(),
		FinishConstraint: g.FinishConstraint(),
		Dependencies:     g.Dependencies(),
	}
	for _, id := range g.IDs() {
		a, _ := g.Activity(id)
		d.Activities = append(d.Activities, *a)
	}
	return d
}

// Graph builds a graph from the document, running every structural check.
func (d Document) Graph() (*graph.Graph, error) {
	g := graph.New(d.DataDate)
	if d.ProjectStart != nil {
		g.SetProjectStart(d.ProjectStart)
	}
	if d.FinishConstraint != nil {
		g.SetFinishConstraint(d.FinishConstraint)
	}
	for _, a := range d.Activities {
		if err := g.AddActivity(a); err != nil {
			return nil, fmt.Errorf("activity %q: %w", a.ID, err)
		}
	}
	for _, dep := range d.Dependencies {
		if err := g.AddDependency(dep); err != nil {
			return nil, fmt.Errorf("dependency %s: %w", dep, err)
		}
	}
	return g, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadSchedule reads a YAML or JSON (by extension) schedule document.
func LoadSchedule(fs afero.Fs, path string) (Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Document{}, fmt.Errorf("read schedule: %w", err)
	}

	var d Document
	if isJSON(path) {
		err = json.Unmarshal(data, &d)
	} else {
		err = yaml.Unmarshal(data, &d)
	}
	if err != nil {
		return Document{}, fmt.Errorf("parse schedule %s: %w", path, err)
	}
	return d, nil
}

// SaveSchedule writes d to path in the format its extension implies.
func SaveSchedule(fs afero.Fs, path string, d Document) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(d, "", "  ")
	} else {
		data, err = yaml.Marshal(d)
	}
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create schedule dir: %w", err)
		}
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
