package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold       = color.New(color.Bold).SprintFunc()
	Dim        = color.New(color.Faint).SprintFunc()
	Cyan       = color.New(color.FgCyan).SprintFunc()
	Green      = color.New(color.FgGreen).SprintFunc()
	Red        = color.New(color.FgRed).SprintFunc()
	Yellow     = color.New(color.FgYellow).SprintFunc()
	Magenta    = color.New(color.FgMagenta).SprintFunc()
	BoldCyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen  = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed    = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldWhite  = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// Heading prints a title with an underline rule of matching width.
func Heading(w io.Writer, icon, title string) {
	fmt.Fprintf(w, "%s %s\n", icon, BoldCyan(title))
	rule := make([]rune, len([]rune(title))+3)
	for i := range rule {
		rule[i] = '═'
	}
	fmt.Fprintln(w, Cyan(string(rule)))
}

// crewColors is a palette of distinct bold colors for telling crews apart.
var crewColors = []func(a ...interface{}) string{
	color.New(color.Bold, color.FgMagenta).SprintFunc(),
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// crewColorIndex hashes a crew ID to a palette index.
func crewColorIndex(crewID string) int {
	var h uint32
	for _, c := range crewID {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(crewColors)))
}

// Crew returns the crew ID in its palette color, or a dim dash when unset.
func Crew(crewID string) string {
	if crewID == "" {
		return Dim("-")
	}
	return crewColors[crewColorIndex(crewID)](crewID)
}

// CriticalIcon marks zero-float activities.
func CriticalIcon(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// ProgressIcon returns a colored icon for an activity's progress state.
func ProgressIcon(started, finished bool) string {
	switch {
	case finished:
		return Green("✓")
	case started:
		return Cyan("●")
	default:
		return Dim("◌")
	}
}

// Risk returns a colored risk level.
func Risk(level string) string {
	switch level {
	case "low":
		return Green(level)
	case "medium":
		return Yellow(level)
	case "high":
		return BoldRed(level)
	default:
		return Dim(level)
	}
}

// Float colors a float value: red when negative, yellow when zero.
func Float(days int) string {
	s := fmt.Sprintf("%d", days)
	switch {
	case days < 0:
		return BoldRed(s)
	case days == 0:
		return Yellow(s)
	default:
		return s
	}
}

// Variance colors a signed slip: red when late, green when early.
func Variance(days *int) string {
	if days == nil {
		return Dim("-")
	}
	s := fmt.Sprintf("%+d", *days)
	switch {
	case *days > 0:
		return Red(s)
	case *days < 0:
		return Green(s)
	default:
		return Dim(s)
	}
}
