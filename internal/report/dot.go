package report

import (
	"fmt"
	"io"

	"github.com/joshharrison/fasttrack/internal/graph"
)

func linkLabel(logic graph.Logic, lag int) string {
	if lag == 0 {
		return string(logic)
	}
	return fmt.Sprintf("%s%+d", logic, lag)
}

// PrintDOT writes the network in Graphviz DOT format. Critical activities
// and the links between them are drawn in red.
func (r *Reporter) PrintDOT(w io.Writer) error {
	g := r.Snapshot.Graph
	res := r.Snapshot.Result

	fmt.Fprintln(w, "digraph schedule {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	for _, id := range g.IDs() {
		a, _ := g.Activity(id)
		ts := res.Activities[id]
		label := fmt.Sprintf("%s\\n%dd  ES %d  TF %d", id, a.Duration, ts.ES, ts.TotalFloat)
		attrs := fmt.Sprintf(`label="%s"`, label)
		if a.IsMilestone() {
			attrs += ", shape=diamond"
		}
		if ts.IsCritical {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", id, attrs)
	}

	fmt.Fprintln(w)

	for _, dep := range g.Dependencies() {
		attrs := fmt.Sprintf(`label=%q`, linkLabel(dep.Logic, dep.Lag))
		if res.Activities[dep.PredecessorID].IsCritical && res.Activities[dep.SuccessorID].IsCritical {
			attrs += ", color=red, penwidth=2"
		}
		fmt.Fprintf(w, "  %q -> %q [%s];\n", dep.PredecessorID, dep.SuccessorID, attrs)
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
