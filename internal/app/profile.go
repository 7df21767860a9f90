package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/output"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

var (
	profileName string
	profileTop  int
)

var profileCmd = &cobra.Command{
	Use:   "profile [trainers|formats|slots|locations]",
	Short: "Show performance profiles built from attendance history",
	Long: `Profile the configured history window and print trainer, format,
time-slot, and location summaries. With no argument every kind is shown.

Examples:
  studiowatch profile
  studiowatch profile trainers --top 5
  studiowatch profile trainers --name "Jane Doe"
  studiowatch profile formats --json`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"trainers", "formats", "slots", "locations"},
	RunE:      runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileName, "name", "", "Show one profile in detail (requires a kind)")
	profileCmd.Flags().IntVar(&profileTop, "top", 10, "Maximum rows per table (0 for all)")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kind := ""
	if len(args) == 1 {
		kind = strings.ToLower(args[0])
	}
	switch kind {
	case "", "trainers", "formats", "slots", "locations":
	default:
		return fmt.Errorf("unknown profile kind %q (want trainers, formats, slots, or locations)", args[0])
	}
	if profileName != "" && kind == "" {
		return fmt.Errorf("--name requires a profile kind")
	}

	sessions, err := loadSessions(cfg)
	if err != nil {
		return err
	}
	w := profileWindow(cfg)
	profiles := analyzer.BuildProfiles(sessions, w.From, w.To)

	if profileName != "" {
		return showProfile(profiles, kind, profileName)
	}

	if flagJSON {
		return printJSON(selectProfiles(profiles, kind))
	}

	if profiles.Empty() {
		fmt.Println(output.Section("Profiles"))
		fmt.Println()
		fmt.Println(" No sessions in the configured window.")
		return nil
	}

	if kind == "" || kind == "trainers" {
		renderTrainers(profiles)
	}
	if kind == "" || kind == "formats" {
		renderFormats(profiles)
	}
	if kind == "" || kind == "slots" {
		renderSlots(profiles)
	}
	if kind == "" || kind == "locations" {
		renderLocations(profiles)
	}
	fmt.Println()
	return nil
}

// selectProfiles narrows the profile set to one kind for JSON output.
func selectProfiles(p *analyzer.Profiles, kind string) any {
	switch kind {
	case "trainers":
		return p.Trainers
	case "formats":
		return p.Formats
	case "slots":
		return p.TimeSlots
	case "locations":
		return p.Locations
	default:
		return p
	}
}

func showProfile(p *analyzer.Profiles, kind, name string) error {
	var found any
	switch kind {
	case "trainers":
		if tp := p.Trainer(name); tp != nil {
			found = tp
		}
	case "formats":
		if fp := p.Format(name); fp != nil {
			found = fp
		}
	case "slots":
		for _, sp := range p.TimeSlots {
			if strings.EqualFold(sp.Key, name) {
				found = sp
			}
		}
	case "locations":
		if lp := p.Location(name); lp != nil {
			found = lp
		}
	}
	if found == nil {
		return fmt.Errorf("no %s profile named %q", strings.TrimSuffix(kind, "s"), name)
	}
	if flagJSON {
		return printJSON(found)
	}

	if tp, ok := found.(*analyzer.TrainerProfile); ok {
		renderTrainerDetail(tp)
		return nil
	}
	// Non-trainer detail views reuse the JSON shape.
	return printJSON(found)
}

func limitRows(n int) int {
	if profileTop <= 0 || n < profileTop {
		return n
	}
	return profileTop
}

func renderTrainers(p *analyzer.Profiles) {
	trainers := make([]*analyzer.TrainerProfile, 0, len(p.Trainers))
	for _, tp := range p.Trainers {
		trainers = append(trainers, tp)
	}
	sort.Slice(trainers, func(i, j int) bool {
		if trainers[i].Stats.AvgFillRate != trainers[j].Stats.AvgFillRate {
			return trainers[i].Stats.AvgFillRate > trainers[j].Stats.AvgFillRate
		}
		return trainers[i].NormalizedName < trainers[j].NormalizedName
	})

	fmt.Println(output.Section(fmt.Sprintf("Trainers (%d)", len(trainers))))
	t := output.NewTable("Trainer", "Sessions", "Fill", "Avg check-ins", "Consistency", "Trend")
	for _, tp := range trainers[:limitRows(len(trainers))] {
		t.AddRow(
			tp.Name,
			output.Count(tp.Stats.Sessions),
			output.FillBar(tp.Stats.AvgFillRate, 10),
			fmt.Sprintf("%.1f", tp.Stats.AvgCheckIns),
			fmt.Sprintf("%.0f", tp.Consistency),
			output.TrendLabel(string(tp.Trend)),
		)
	}
	t.Print()
}

func renderTrainerDetail(tp *analyzer.TrainerProfile) {
	fmt.Println(output.Section(tp.Name))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Sessions"), output.StyleValue.Render(output.Count(tp.Stats.Sessions)))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Average fill"), output.FillRate(tp.Stats.AvgFillRate))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Consistency"), output.StyleValue.Render(fmt.Sprintf("%.0f", tp.Consistency)))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Trend"), output.TrendLabel(string(tp.Trend)))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Revenue"), output.StyleValue.Render(output.Money(tp.Stats.Revenue)))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Typical days"), strings.Join(tp.TypicalDays, ", "))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Typical times"), strings.Join(tp.TypicalTimes, ", "))

	if len(tp.BestCombinations) > 0 {
		fmt.Println(output.Section("Best combinations"))
		t := output.NewTable("Format", "Day", "Time", "Location", "Sessions", "Fill")
		for _, c := range tp.BestCombinations {
			t.AddRow(c.Format, c.Day, c.Time, c.Location, output.Count(c.Sessions), output.FillRate(c.AvgFillRate))
		}
		t.Print()
	}
	fmt.Println()
}

func renderFormats(p *analyzer.Profiles) {
	formats := make([]*analyzer.FormatProfile, 0, len(p.Formats))
	for _, fp := range p.Formats {
		formats = append(formats, fp)
	}
	sort.Slice(formats, func(i, j int) bool {
		if formats[i].Stats.AvgFillRate != formats[j].Stats.AvgFillRate {
			return formats[i].Stats.AvgFillRate > formats[j].Stats.AvgFillRate
		}
		return formats[i].Name < formats[j].Name
	})

	fmt.Println(output.Section(fmt.Sprintf("Formats (%d)", len(formats))))
	t := output.NewTable("Format", "Category", "Sessions", "Fill", "Top trainer", "Trend")
	for _, fp := range formats[:limitRows(len(formats))] {
		top := "-"
		if len(fp.TopTrainers) > 0 {
			top = fp.TopTrainers[0].Trainer
		}
		t.AddRow(
			fp.Name,
			string(fp.Category),
			output.Count(fp.Stats.Sessions),
			output.FillBar(fp.Stats.AvgFillRate, 10),
			top,
			output.TrendLabel(string(fp.Trend)),
		)
	}
	t.Print()
}

func renderSlots(p *analyzer.Profiles) {
	slots := make([]*analyzer.TimeSlotProfile, 0, len(p.TimeSlots))
	for _, sp := range p.TimeSlots {
		slots = append(slots, sp)
	}
	sort.Slice(slots, func(i, j int) bool {
		di, dj := studio.DayIndex(slots[i].Day), studio.DayIndex(slots[j].Day)
		if di != dj {
			return di < dj
		}
		return slots[i].Time < slots[j].Time
	})

	fmt.Println(output.Section(fmt.Sprintf("Time slots (%d)", len(slots))))
	t := output.NewTable("Day", "Time", "Sessions", "Fill", "Peak", "Best format")
	for _, sp := range slots[:limitRows(len(slots))] {
		peak := ""
		if sp.IsPeak {
			peak = output.StyleSuccess.Render("peak")
		}
		best := "-"
		if len(sp.TopFormats) > 0 {
			best = sp.TopFormats[0].Format
		}
		t.AddRow(sp.Day, sp.Time, output.Count(sp.Stats.Sessions), output.FillRate(sp.Stats.AvgFillRate), peak, best)
	}
	t.Print()
}

func renderLocations(p *analyzer.Profiles) {
	names := make([]string, 0, len(p.Locations))
	for name := range p.Locations {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println(output.Section(fmt.Sprintf("Locations (%d)", len(names))))
	t := output.NewTable("Location", "Sessions", "Fill", "Revenue/session", "Peak hours", "Trend")
	for _, name := range names[:limitRows(len(names))] {
		lp := p.Locations[name]
		hours := make([]string, len(lp.PeakHours))
		for i, h := range lp.PeakHours {
			hours[i] = fmt.Sprintf("%02d", h)
		}
		t.AddRow(
			lp.Name,
			output.Count(lp.Stats.Sessions),
			output.FillBar(lp.Stats.AvgFillRate, 10),
			output.Money(lp.RevenuePerSession),
			strings.Join(hours, " "),
			output.TrendLabel(string(lp.Trend)),
		)
	}
	t.Print()
}
