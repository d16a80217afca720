package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/cbroglie/mustache"
	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/index"
	"github.com/kwidmer/sessidx/internal/core/query"
)

var (
	exportOutput   string
	exportProject  string
	exportTemplate string
	exportAnimals  bool
	exportColumns  []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export catalogued sessions to CSV or a template",
	Long: `Export session rows for downstream analysis.

By default writes one CSV row per session of the chosen project (or the
whole catalog). --columns adds metadata keys as columns. --template
renders each row through a mustache template instead, one rendering per
row. --animals exports per-animal summary rows instead of sessions.

Examples:
  sessidx export --project NPX_Learning -o sessions.csv
  sessidx export --columns DateTime,Experimenter -o all.csv
  sessidx export --project NPX_Learning --animals -o animals.csv
  sessidx export --template report.mustache -o report.md`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportProject, "project", "", "Limit to one project")
	exportCmd.Flags().StringVar(&exportTemplate, "template", "", "Mustache template file rendered once per row")
	exportCmd.Flags().BoolVar(&exportAnimals, "animals", false, "Export per-animal summaries instead of sessions")
	exportCmd.Flags().StringSliceVar(&exportColumns, "columns", nil, "Extra metadata keys to include as columns")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if exportAnimals {
		return writeAnimalSummaries(ix, out)
	}

	// Export filters by exact project name, unlike search's patterns.
	pattern := ""
	if exportProject != "" {
		pattern = "^" + regexp.QuoteMeta(exportProject) + "$"
	}
	matches, err := query.Evaluate(ix, query.Query{ProjectPattern: pattern})
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("nothing to export")
	}
	table := query.Project(matches, exportColumns)

	if exportTemplate != "" {
		tmpl, err := mustache.ParseFile(exportTemplate)
		if err != nil {
			return fmt.Errorf("failed to parse template: %w", err)
		}
		for _, row := range table.RowMaps() {
			rendered, err := tmpl.Render(row)
			if err != nil {
				return fmt.Errorf("failed to render template: %w", err)
			}
			fmt.Fprintln(out, rendered)
		}
		return nil
	}
	return table.WriteDelimited(out, ',')
}

// writeAnimalSummaries emits one CSV row per (project, animal) pair.
func writeAnimalSummaries(ix *index.Index, out *os.File) error {
	w := csv.NewWriter(out)
	header := []string{"project", "animal", "sessions", "recordings", "first_session", "last_session", "files", "total_bytes"}
	if err := w.Write(header); err != nil {
		return err
	}
	projects := ix.Projects()
	if exportProject != "" {
		projects = []string{exportProject}
	}
	for _, p := range projects {
		for _, a := range ix.Animals(p) {
			sum := ix.AnimalSummary(p, a)
			row := []string{
				sum.Project,
				sum.Animal,
				strconv.Itoa(sum.Sessions),
				joinSemicolon(sum.RecordingTypes),
				sum.FirstSession,
				sum.LastSession,
				strconv.Itoa(sum.Files),
				strconv.FormatInt(sum.TotalBytes, 10),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func joinSemicolon(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ";"
		}
		out += v
	}
	return out
}
