package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	statsProject string
	statsAnimal  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Long: `Display statistics derived from the last scan.

Without flags, shows totals plus a per-project breakdown. With --project
shows that project's summary (experimenters, experiments, date range);
with --animal as well, that animal's summary.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsProject, "project", "", "Summarize only this project")
	statsCmd.Flags().StringVar(&statsAnimal, "animal", "", "Summarize only this animal (requires --project)")
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsAnimal != "" && statsProject == "" {
		return fmt.Errorf("--animal requires --project")
	}

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	h, err := loadHandle(cat)
	if err != nil {
		return err
	}
	ix := h.Snapshot()

	if info, ok, err := cat.LastScan(); err == nil && ok {
		fmt.Printf("%s %s %s\n\n", dimStyle.Render("Last scan:"), info.Root,
			dimStyle.Render(humanize.Time(info.ScannedAt)))
	}

	switch {
	case statsAnimal != "":
		sum := ix.AnimalSummary(statsProject, statsAnimal)
		if sum.Sessions == 0 {
			return fmt.Errorf("no sessions for %s/%s", statsProject, statsAnimal)
		}
		fmt.Println(titleStyle.Render(fmt.Sprintf("%s/%s", sum.Project, sum.Animal)))
		fmt.Printf("Sessions:    %d\n", sum.Sessions)
		if len(sum.RecordingTypes) > 0 {
			fmt.Printf("Recordings:  %s\n", strings.Join(sum.RecordingTypes, ", "))
		}
		printDateRange(sum.FirstSession, sum.LastSession)
		fmt.Printf("Files:       %d (%s)\n", sum.Files, humanize.Bytes(uint64(sum.TotalBytes)))

	case statsProject != "":
		sum := ix.ProjectSummary(statsProject)
		if sum.Sessions == 0 {
			return fmt.Errorf("no sessions for project %s", statsProject)
		}
		fmt.Println(titleStyle.Render(sum.Project))
		fmt.Printf("Animals:       %d\n", sum.Animals)
		fmt.Printf("Sessions:      %d\n", sum.Sessions)
		if len(sum.Experiments) > 0 {
			fmt.Printf("Experiments:   %s\n", strings.Join(sum.Experiments, ", "))
		}
		if len(sum.Experimenters) > 0 {
			fmt.Printf("Experimenters: %s\n", strings.Join(sum.Experimenters, ", "))
		}
		printDateRange(sum.FirstSession, sum.LastSession)
		fmt.Printf("Files:         %d (%s)\n", sum.TotalFiles, humanize.Bytes(uint64(sum.TotalBytes)))
		animals := make([]string, 0, len(sum.SessionsPerAnimal))
		for animal := range sum.SessionsPerAnimal {
			animals = append(animals, animal)
		}
		sort.Strings(animals)
		for _, animal := range animals {
			fmt.Printf("  %-20s %d session(s)\n", animal, sum.SessionsPerAnimal[animal])
		}

	default:
		totalFiles := 0
		var totalBytes int64
		for _, s := range ix.All() {
			totalFiles += len(s.Files)
			for _, f := range s.Files {
				totalBytes += f.Size
			}
		}
		fmt.Println(headerStyle.Render("Catalog Statistics"))
		fmt.Printf("Projects:  %d\n", len(ix.Projects()))
		fmt.Printf("Sessions:  %d\n", ix.Len())
		fmt.Printf("Files:     %d (%s)\n\n", totalFiles, humanize.Bytes(uint64(totalBytes)))
		for _, p := range ix.Projects() {
			sum := ix.ProjectSummary(p)
			fmt.Printf("%-24s %d animal(s), %d session(s), %s\n",
				p, sum.Animals, sum.Sessions, humanize.Bytes(uint64(sum.TotalBytes)))
		}
	}
	return nil
}

func printDateRange(first, last string) {
	if first == "" {
		return
	}
	if first == last {
		fmt.Printf("Date range:  %s\n", first)
		return
	}
	fmt.Printf("Date range:  %s to %s\n", first, last)
}
