package report

import (
	"fmt"
	"io"

	"github.com/joshharrison/fasttrack/internal/fasttrack"
	"github.com/joshharrison/fasttrack/internal/ui"
	"github.com/joshharrison/fasttrack/internal/update"
)

// PrintOpportunities writes the fast-track candidate list.
func PrintOpportunities(w io.Writer, opps []fasttrack.Opportunity) {
	ui.Heading(w, "🚀", "Fast-Track Opportunities")
	if len(opps) == 0 {
		fmt.Fprintf(w, "%s\n", ui.Dim("No activity has enough float to overlap."))
		return
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-3s %-10s %-10s %-8s %-8s %7s %7s %-8s %5s %6s  %s\n",
		"#", "ACTIVITY", "AFTER", "NOW", "PROPOSED", "SAVES", "FLOAT", "RISK", "CONF", "EFFORT", "CREW")
	for i, o := range opps {
		conflict := ""
		if o.ResourceConflict {
			conflict = " " + ui.Red("crew clash")
		}
		fmt.Fprintf(w, "  %-3d %-10s %-10s %-8s %-8s %6dd %7d %-8s %4d%% %6d  %s%s\n",
			i+1, o.ActivityID, o.PredecessorID,
			linkLabel(o.CurrentLogic, o.CurrentLag), linkLabel(o.SuggestedLogic, o.SuggestedLag),
			o.PotentialSavingsDays, o.TotalFloat, ui.Risk(string(o.RiskLevel)), o.Confidence,
			o.ImplementationEffort, ui.Crew(o.CrewID), conflict)
	}
}

// PrintVariances writes the baseline variance table. Positive days are late.
func PrintVariances(w io.Writer, rows []update.Variance) {
	ui.Heading(w, "📏", "Baseline Variance")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-10s %8s %8s %8s %8s %8s %8s\n", "ACTIVITY", "BL START", "START", "VAR", "BL FIN", "FINISH", "VAR")
	late := 0
	for _, v := range rows {
		if v.FinishDays != nil && *v.FinishDays > 0 {
			late++
		}
		fmt.Fprintf(w, "  %-10s %8s %8s %8s %8s %8s %8s\n",
			v.ActivityID, day(v.BaselineStart), day(v.Start), ui.Variance(v.StartDays),
			day(v.BaselineFinish), day(v.Finish), ui.Variance(v.FinishDays))
	}
	fmt.Fprintf(w, "\n%s\n", ui.Dim(fmt.Sprintf("%d of %d activities finishing late", late, len(rows))))
}

// PrintOutcome summarizes a committed or rejected update batch.
func PrintOutcome(w io.Writer, out *update.Outcome) {
	if !out.Committed {
		fmt.Fprintf(w, "❌ %s\n", ui.BoldRed(fmt.Sprintf("Update rejected: %d error(s), nothing was written", len(out.Errors))))
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  %s %s\n", ui.Red("✗"), e.Error())
		}
		return
	}

	fmt.Fprintf(w, "✅ %s %s\n", ui.BoldGreen(fmt.Sprintf("Committed %d edit(s)", len(out.Variances))), ui.Dim(fmt.Sprintf("(version %d)", out.Version)))
	for _, warn := range out.Warnings {
		fmt.Fprintf(w, "  %s %s\n", ui.Yellow("!"), warn.String())
	}
	for _, v := range out.Variances {
		fmt.Fprintf(w, "  %s start %s finish %s\n", ui.Magenta(v.ActivityID), ui.Variance(v.StartDays), ui.Variance(v.FinishDays))
	}
}

func day(d *int) string {
	if d == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *d)
}
