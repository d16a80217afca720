package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/catalog"
	"github.com/kwidmer/sessidx/internal/core/config"
	"github.com/kwidmer/sessidx/internal/core/models"
	"github.com/kwidmer/sessidx/internal/core/scanner"
	"github.com/kwidmer/sessidx/pkg/sessionmeta"
)

var (
	scanProject string
	scanAnimal  string
	scanFiles   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the data tree and rebuild the catalog",
	Long: `Walk the Project/Animal/Session tree, read each session's metadata.json,
and store the result in the catalog. A full scan replaces the previous
catalog atomically; --project or --animal rescan just that subtree and
merge it in.

Folders without a readable metadata.json are skipped with a warning and
never abort the scan.

Examples:
  sessidx scan
  sessidx scan --project NPX_Learning
  sessidx scan --project NPX_Learning --animal WT0042
  sessidx scan --files`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanProject, "project", "", "Rescan only this project")
	scanCmd.Flags().StringVar(&scanAnimal, "animal", "", "Rescan only this animal (requires --project)")
	scanCmd.Flags().BoolVar(&scanFiles, "files", false, "Refresh each session's file list from disk")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	root, err := dataRoot(cfg)
	if err != nil {
		return err
	}
	if scanAnimal != "" && scanProject == "" {
		return fmt.Errorf("--animal requires --project")
	}

	fmt.Printf("Scanning: %s\n", root)
	fmt.Printf("Catalog:  %s\n\n", catalogPath)

	store := sessionmeta.NewJSONStore()
	sc := scanner.New(store)

	var progress *scanner.ProgressReporter
	if total, err := scanner.CountSessions(root); err == nil && total > 0 {
		progress = scanner.NewProgressReporter(os.Stdout, total)
		sc.SetProgress(progress)
	}

	ctx := cmd.Context()
	var res *scanner.Result
	switch {
	case scanAnimal != "":
		res, err = sc.ScanAnimal(ctx, root, scanProject, scanAnimal)
	case scanProject != "":
		res, err = sc.ScanProject(ctx, root, scanProject)
	default:
		res, err = sc.Scan(ctx, root)
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if progress != nil {
		progress.Finish()
	}

	if scanFiles {
		for _, s := range res.Sessions {
			files, err := scanner.ScanFileList(ctx, s.Dir)
			if err != nil {
				res.Warnings = append(res.Warnings, scanner.Warning{Path: s.Dir, Reason: err.Error()})
				continue
			}
			mergeServerPaths(s, files)
			s.Files = files
			if err := store.Save(s.Dir, s); err != nil {
				res.Warnings = append(res.Warnings, scanner.Warning{Path: s.Dir, Reason: err.Error()})
			}
		}
	}

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	info := catalog.ScanInfo{
		Root:      root,
		ScannedAt: time.Now(),
		Indexed:   len(res.Sessions),
		Skipped:   len(res.Warnings),
	}
	if scanProject == "" {
		err = cat.Replace(info, res.Sessions)
	} else {
		for _, s := range res.Sessions {
			if err = cat.Upsert(s); err != nil {
				break
			}
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update catalog: %w", err)
	}

	fmt.Printf("Indexed %d session(s)", len(res.Sessions))
	if len(res.Warnings) > 0 {
		fmt.Printf(", skipped %d folder(s)", len(res.Warnings))
	}
	fmt.Println()
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "  skipped %s: %s\n", w.Path, w.Reason)
	}
	return nil
}

// mergeServerPaths carries known server locations over to a freshly scanned
// file list so a --files refresh does not discard sync state.
func mergeServerPaths(s *models.Session, files []models.FileEntry) {
	known := make(map[string]string, len(s.Files))
	for _, f := range s.Files {
		if f.ServerPath != "" {
			known[f.Path] = f.ServerPath
		}
	}
	for i := range files {
		files[i].ServerPath = known[files[i].Path]
	}
}
