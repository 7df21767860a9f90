package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/studiowatch/internal/output"
	"github.com/blackwell-systems/studiowatch/internal/store"
	"github.com/blackwell-systems/studiowatch/internal/studio"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// describeClass renders a class state on one line.
func describeClass(c suggest.ClassState) string {
	parts := []string{c.Day, c.Time, c.Format}
	if c.Trainer != "" {
		parts = append(parts, "with "+c.Trainer)
	}
	if c.Location != "" {
		parts = append(parts, "at "+c.Location)
	}
	return strings.Join(parts, " ")
}

// renderSuggestions prints suggestions best-first. reviewed maps suggestion
// IDs to a review status and may be nil.
func renderSuggestions(suggestions []suggest.Suggestion, reviewed map[string]string) {
	if len(suggestions) == 0 {
		fmt.Println(output.Section("Suggestions"))
		fmt.Println()
		fmt.Println(" No suggestions. The schedule matches its history well.")
		return
	}

	fmt.Println(output.Section(fmt.Sprintf("Schedule Suggestions (%d)", len(suggestions))))
	fmt.Println()

	for i, s := range suggestions {
		status := ""
		if st, ok := reviewed[s.ID]; ok {
			status = " " + output.StyleMuted.Render("("+st+")")
		}
		fmt.Printf(" #%d %s %s %s%s\n", i+1, output.Priority(s.Priority),
			output.StyleBold.Render(string(s.Type)),
			output.StyleMuted.Render(fmt.Sprintf("%.0f%% confidence, %s", s.Confidence, s.Source)),
			status)
		if s.Original != nil {
			fmt.Printf("    From: %s %s\n", describeClass(*s.Original), output.FillRate(s.Original.FillRate))
		}
		to := describeClass(s.Suggested)
		if s.Suggested.ProjectedFillRate > 0 {
			to += " " + output.FillRate(s.Suggested.ProjectedFillRate)
		}
		fmt.Printf("    To:   %s\n", to)
		if s.Reason != "" {
			fmt.Printf("    %s\n", s.Reason)
		}
		if s.Impact != "" {
			fmt.Printf("    %s\n", output.StyleMuted.Render(s.Impact))
		}
		fmt.Println()
	}
}

// renderResult prints the projected impact, trainer hours, and insights.
func renderResult(r suggest.Result) {
	impact := r.ProjectedImpact
	fmt.Println(output.Section("Projected Impact"))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Attendance"), output.TrendArrow(impact.AttendanceDelta, true))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Avg fill rate"), output.TrendArrow(impact.AvgFillRateDelta, true))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Classes added"), output.StyleValue.Render(output.Count(impact.ClassesAdded)))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Classes removed"), output.StyleValue.Render(output.Count(impact.ClassesRemoved)))

	if len(r.TrainerHoursSummary) > 0 {
		fmt.Println(output.Section("Trainer Hours"))
		t := output.NewTable("Trainer", "Current", "Projected", "Target", "Max", "Status")
		for _, h := range r.TrainerHoursSummary {
			t.AddRow(h.Trainer,
				fmt.Sprintf("%.1f", h.Current),
				fmt.Sprintf("%.1f", h.Projected),
				fmt.Sprintf("%.0f", h.Target),
				fmt.Sprintf("%.0f", h.Max),
				output.HourStatus(h.Status))
		}
		t.Print()
	}

	if len(r.FormatMixImpact.Before) > 0 {
		fmt.Println(output.Section("Format Mix"))
		cats := make([]string, 0, len(r.FormatMixImpact.Before))
		for c := range r.FormatMixImpact.Before {
			cats = append(cats, string(c))
		}
		for c := range r.FormatMixImpact.After {
			if _, ok := r.FormatMixImpact.Before[c]; !ok {
				cats = append(cats, string(c))
			}
		}
		sort.Strings(cats)
		t := output.NewTable("Category", "Before", "After")
		for _, c := range cats {
			before := r.FormatMixImpact.Before[studio.Category(c)]
			after := r.FormatMixImpact.After[studio.Category(c)]
			t.AddRow(c, output.Count(before), output.Count(after))
		}
		t.Print()
	}

	if len(r.Insights) > 0 {
		fmt.Println(output.Section("Insights"))
		for _, in := range r.Insights {
			fmt.Printf(" - %s\n", in)
		}
	}
	fmt.Println()
}

// renderRuns prints recorded runs as a table.
func renderRuns(runs []store.Run) {
	fmt.Println(output.Section("Optimization Runs"))
	if len(runs) == 0 {
		fmt.Println()
		fmt.Println(" No runs recorded yet. Use 'studiowatch optimize --save'.")
		return
	}
	t := output.NewTable("Run", "When", "Command", "Suggestions", "Attendance", "Fill", "Advisor")
	for _, r := range runs {
		adv := output.StyleMuted.Render("-")
		if r.AdvisorCode != "" {
			adv = output.StyleWarning.Render(r.AdvisorCode)
		} else if r.AdviceCount > 0 {
			adv = output.StyleSuccess.Render(fmt.Sprintf("%d", r.AdviceCount))
		}
		t.AddRow(shortID(r.ID), output.Ago(r.CreatedAt), r.Command,
			output.Count(r.SuggestionCount),
			output.TrendArrow(r.AttendanceDelta, true),
			output.TrendArrow(r.FillRateDelta, true),
			adv)
	}
	t.Print()
	fmt.Println()
}

// shortID abbreviates a run UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
