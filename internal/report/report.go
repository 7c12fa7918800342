// Package report renders read-only views of a computed schedule: the CPM
// table, work fronts, fast-track opportunities and baseline variances.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/fasttrack/internal/engine"
	"github.com/joshharrison/fasttrack/internal/ui"
)

// Reporter renders one schedule snapshot.
type Reporter struct {
	Name     string
	Snapshot *engine.Snapshot
}

// New creates a Reporter for s.
func New(name string, s *engine.Snapshot) *Reporter {
	return &Reporter{Name: name, Snapshot: s}
}

// ScheduleRow is one activity's computed dates.
type ScheduleRow struct {
	ActivityID  string `json:"activity_id"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Duration    int    `json:"duration"`
	ES          int    `json:"early_start"`
	EF          int    `json:"early_finish"`
	LS          int    `json:"late_start"`
	LF          int    `json:"late_finish"`
	TotalFloat  int    `json:"total_float"`
	FreeFloat   int    `json:"free_float"`
	IsCritical  bool   `json:"is_critical"`
	Started     bool   `json:"started"`
	Finished    bool   `json:"finished"`
	Percent     int    `json:"percent_complete"`
	CrewID      string `json:"crew_id,omitempty"`
	Wave        int    `json:"wave"`
}

// Rows returns the schedule in topological order.
func (r *Reporter) Rows() []ScheduleRow {
	s := r.Snapshot
	rows := make([]ScheduleRow, 0, len(s.Result.TopoOrder))
	for _, id := range s.Result.TopoOrder {
		a, _ := s.Graph.Activity(id)
		ts := s.Result.Activities[id]
		rows = append(rows, ScheduleRow{
			ActivityID:  id,
			Description: a.Description,
			Type:        string(a.Type),
			Duration:    a.Duration,
			ES:          ts.ES,
			EF:          ts.EF,
			LS:          ts.LS,
			LF:          ts.LF,
			TotalFloat:  ts.TotalFloat,
			FreeFloat:   ts.FreeFloat,
			IsCritical:  ts.IsCritical,
			Started:     a.Started(),
			Finished:    a.Finished(),
			Percent:     a.PercentComplete,
			CrewID:      a.CrewID,
			Wave:        ts.Wave,
		})
	}
	return rows
}

// PrintSchedule writes a terminal-friendly CPM table.
func (r *Reporter) PrintSchedule(w io.Writer) {
	res := r.Snapshot.Result

	ui.Heading(w, "📅", r.title("Schedule"))
	fmt.Fprintf(w, "Data date: %s   Start: %s   Finish: %s   Duration: %s days\n",
		ui.Bold(r.Snapshot.Graph.DataDate()), ui.Bold(res.ProjectStart), ui.Bold(res.ProjectFinish), ui.Bold(res.TotalDuration))
	if len(res.CriticalPath) > 0 {
		fmt.Fprintf(w, "⚡ Critical path: %s\n", ui.BoldYellow(strings.Join(res.CriticalPath, " → ")))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "    %-10s %-30s %5s %5s %5s %5s %5s %5s %5s  %s\n",
		"ID", "DESCRIPTION", "DUR", "ES", "EF", "LS", "LF", "TF", "FF", "CREW")
	for _, row := range r.Rows() {
		desc := row.Description
		if len(desc) > 30 {
			desc = desc[:27] + "..."
		}
		fmt.Fprintf(w, "  %s %-10s %-30s %5d %5d %5d %5d %5d %5s %5d  %s %s\n",
			ui.ProgressIcon(row.Started, row.Finished),
			row.ActivityID, desc, row.Duration,
			row.ES, row.EF, row.LS, row.LF, ui.Float(row.TotalFloat), row.FreeFloat,
			ui.Crew(row.CrewID), ui.CriticalIcon(row.IsCritical))
	}

	if len(r.Snapshot.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.BoldRed("Warnings:"))
		for _, warn := range r.Snapshot.Warnings {
			fmt.Fprintf(w, "  %s %s\n", ui.Red("✗"), warn.Error())
		}
	}
}

// PrintWaves writes the work fronts with each activity's outgoing links.
func (r *Reporter) PrintWaves(w io.Writer) {
	ui.Heading(w, "🔗", r.title("Work Fronts"))
	fmt.Fprintln(w)

	g := r.Snapshot.Graph
	for _, wave := range r.Snapshot.Result.Waves {
		fmt.Fprintf(w, "%s 🌊 Wave %d, day %d %s\n", ui.Cyan("──"), wave.Index+1, wave.Start, ui.Cyan("──────────────────────"))
		for _, id := range wave.ActivityIDs {
			a, _ := g.Activity(id)
			ts := r.Snapshot.Result.Activities[id]
			fmt.Fprintf(w, "  %s [%s] %s %s\n", ui.CriticalIcon(ts.IsCritical), ui.Magenta(id), a.Description, ui.Dim(fmt.Sprintf("(%dd, float %d)", a.Duration, ts.TotalFloat)))
			for _, dep := range g.Successors(id) {
				fmt.Fprintf(w, "      %s %s %s\n", ui.Dim("└──→"), ui.Magenta(dep.SuccessorID), ui.Dim(linkLabel(dep.Logic, dep.Lag)))
			}
		}
		fmt.Fprintln(w)
	}
}

// JSON returns the machine-readable schedule.
func (r *Reporter) JSON() ([]byte, error) {
	type output struct {
		Name          string        `json:"name,omitempty"`
		Version       uint64        `json:"version"`
		DataDate      int           `json:"data_date"`
		ProjectStart  int           `json:"project_start"`
		ProjectFinish int           `json:"project_finish"`
		TotalDuration int           `json:"total_duration"`
		CriticalPath  []string      `json:"critical_path"`
		Activities    []ScheduleRow `json:"activities"`
		Warnings      []string      `json:"warnings,omitempty"`
	}

	res := r.Snapshot.Result
	o := output{
		Name:          r.Name,
		Version:       r.Snapshot.Version,
		DataDate:      r.Snapshot.Graph.DataDate(),
		ProjectStart:  res.ProjectStart,
		ProjectFinish: res.ProjectFinish,
		TotalDuration: res.TotalDuration,
		CriticalPath:  res.CriticalPath,
		Activities:    r.Rows(),
	}
	for _, warn := range r.Snapshot.Warnings {
		o.Warnings = append(o.Warnings, warn.Error())
	}
	return json.MarshalIndent(o, "", "  ")
}

func (r *Reporter) title(s string) string {
	if r.Name == "" {
		return s
	}
	return s + ": " + r.Name
}
