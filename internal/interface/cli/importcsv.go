package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/config"
	"github.com/kwidmer/sessidx/internal/core/enrich"
)

var (
	importProject string
	importExact   bool
)

var importCmd = &cobra.Command{
	Use:   "import <animals.csv>",
	Short: "Import animal records from a CSV export",
	Long: `Match rows of an external animal table (colony database export) against
the indexed animals of a project and write the matched fields into each
animal's animal_info.json.

The ID column is detected from common header names. IDs are matched on
their trailing characters (length set by animal_suffix_len in the
config), so facility prefixes on either side do not matter; use --exact
for full-ID matching. An ID matching more than one animal aborts the
import.

Examples:
  sessidx import animals.csv --project NPX_Learning
  sessidx import tierbase_export.csv --project NPX_Learning --exact`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importProject, "project", "", "Project whose animals to match (required)")
	importCmd.Flags().BoolVar(&importExact, "exact", false, "Match full IDs instead of suffixes")
	_ = importCmd.MarkFlagRequired("project")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	root, err := dataRoot(cfg)
	if err != nil {
		return err
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

	var matcher enrich.Matcher = enrich.SuffixMatcher{N: cfg.AnimalSuffixLen}
	if importExact {
		matcher = enrich.ExactMatcher{}
	}

	stats, err := enrich.ApplyCSV(h.Snapshot(), matcher, root, importProject, args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Applied %d of %d row(s)\n", stats.Applied, stats.Rows)
	if len(stats.Unmatched) > 0 {
		fmt.Fprintln(os.Stderr, warningStyle.Render(
			fmt.Sprintf("unmatched IDs: %s", strings.Join(stats.Unmatched, ", "))))
	}
	return nil
}
