package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/catalog"
	"github.com/kwidmer/sessidx/internal/core/config"
	"github.com/kwidmer/sessidx/internal/core/index"
)

var (
	rootFlag    string
	catalogPath string
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sessidx",
	Short: "Session metadata indexer for experiment data trees",
	Long: `sessidx - index and query experiment session metadata

Walks a Project/Animal/Session directory tree, indexes each session's
metadata.json, and answers cross-session queries without touching the raw
data files. Run "sessidx scan" first, then search, list, export.`,
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	defaultCatalog := filepath.Join(home, ".config", "sessidx", "catalog.db")

	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Data tree root (default: raw_root from config)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", defaultCatalog, "Catalog database path")
}

// dataRoot resolves the tree root from the --root flag or the config file.
func dataRoot(cfg *config.Config) (string, error) {
	if rootFlag != "" {
		return rootFlag, nil
	}
	if cfg.RawRoot != "" {
		return cfg.RawRoot, nil
	}
	return "", fmt.Errorf("no data root: pass --root or set raw_root in %s", config.Path())
}

// openCatalog opens the catalog database, creating its directory if needed.
func openCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Open(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return cat, nil
}

// loadHandle rebuilds the in-memory index from the last catalogued scan.
func loadHandle(cat *catalog.Catalog) (*index.Handle, error) {
	sessions, err := cat.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("catalog is empty: run \"sessidx scan\" first")
	}
	ix, stats := index.Build(sessions)
	if stats.Rejected > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d catalogued session(s) no longer valid\n", stats.Rejected)
	}
	return index.NewHandle(ix), nil
}
