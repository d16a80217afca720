package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/config"
	"github.com/kwidmer/sessidx/internal/core/syncer"
	"github.com/kwidmer/sessidx/pkg/sessionmeta"
)

var (
	syncServerRoot string
	syncVerifyOnly bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <project>",
	Short: "Copy a project's files to the server and record sync state",
	Long: `Copy every indexed file of a project under the server root, mirroring
the Project/Animal/Session layout. Files already present with matching
size are skipped. Afterwards each file's server location is re-verified
and written back to its session's metadata: set when the remote copy
exists, cleared when it does not.

The server root is remembered per project in the config file, so it only
needs to be passed once.

Examples:
  sessidx sync NPX_Learning --server /mnt/server/data
  sessidx sync NPX_Learning
  sessidx sync NPX_Learning --verify-only`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncServerRoot, "server", "", "Server root directory")
	syncCmd.Flags().BoolVar(&syncVerifyOnly, "verify-only", false, "Only re-verify server paths, copy nothing")
}

func runSync(cmd *cobra.Command, args []string) error {
	project := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	serverRoot := syncServerRoot
	if serverRoot == "" {
		serverRoot = cfg.ServerRoot(project)
	}
	if serverRoot == "" {
		return fmt.Errorf("no server root for %s: pass --server once to remember it", project)
	}
	if _, err := os.Stat(serverRoot); err != nil {
		return fmt.Errorf("server root not reachable: %w", err)
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

	sy := syncer.New(sessionmeta.NewJSONStore(), func(format string, a ...any) {
		fmt.Printf("  "+format+"\n", a...)
	})

	if syncVerifyOnly {
		n, err := sy.Annotate(h, project, serverRoot)
		if err != nil {
			return fmt.Errorf("verify failed: %w", err)
		}
		fmt.Printf("Updated sync state on %d session(s)\n", n)
	} else {
		fmt.Printf("Syncing %s to %s\n", project, serverRoot)
		stats, err := sy.SyncProject(cmd.Context(), h, project, serverRoot)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Printf("\nCopied %d file(s) (%s), skipped %d, updated %d session(s)\n",
			stats.Copied, humanize.Bytes(uint64(stats.Bytes)), stats.Skipped, stats.Annotated)
	}

	// Write the annotated sessions back to the catalog.
	for _, s := range h.Snapshot().ProjectSessions(project) {
		if err := cat.Upsert(s); err != nil {
			return fmt.Errorf("failed to update catalog: %w", err)
		}
	}

	if syncServerRoot != "" && cfg.ServerRoot(project) != syncServerRoot {
		if err := cfg.SetServerRoot(project, syncServerRoot); err != nil {
			fmt.Fprintln(os.Stderr, warningStyle.Render("could not remember server root: "+err.Error()))
		}
	}
	return nil
}
