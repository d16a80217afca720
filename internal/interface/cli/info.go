package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/models"
)

var infoCopy bool

var infoCmd = &cobra.Command{
	Use:   "info <project> <animal> <session>",
	Short: "Show one session's full record",
	Long: `Print everything indexed for one session: identity, metadata keys,
preprocessing steps, and the file list with sync state.

Examples:
  sessidx info NPX_Learning WT0042 2024-03-01_rec1
  sessidx info NPX_Learning WT0042 2024-03-01_rec1 --copy`,
	Args: cobra.ExactArgs(3),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoCopy, "copy", false, "Also copy the session directory path to the clipboard")
}

func runInfo(cmd *cobra.Command, args []string) error {
	key := models.Key{Project: args[0], Animal: args[1], Session: args[2]}

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	h, err := loadHandle(cat)
	if err != nil {
		return err
	}
	s, ok := h.Snapshot().Session(key)
	if !ok {
		return fmt.Errorf("session %s not found in catalog", key)
	}

	fmt.Println(titleStyle.Render(key.String()))
	fmt.Printf("Directory: %s\n", s.Dir)
	if s.Trial != "" {
		fmt.Printf("Trial:     %s\n", s.Trial)
	}

	if len(s.Meta) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("Metadata"))
		keys := make([]string, 0, len(s.Meta))
		for k := range s.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-16s %s\n", k, s.Meta[k].String())
		}
	}

	if len(s.Steps) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("Preprocessing"))
		for _, st := range s.Steps {
			line := fmt.Sprintf("  %-20s %s", st.Name, st.Status)
			if st.ResultsDir != "" {
				line += dimStyle.Render("  " + st.ResultsDir)
			}
			fmt.Println(line)
			if st.Comments != "" {
				fmt.Printf("    %s\n", dimStyle.Render(st.Comments))
			}
		}
	}

	if len(s.Files) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render(fmt.Sprintf("Files (%d)", len(s.Files))))
		for _, f := range s.Files {
			mark := dimStyle.Render("local only")
			if f.ServerPath != "" {
				mark = "on server"
			}
			name := f.Path
			if rel, ok := strings.CutPrefix(f.Path, s.Dir+"/"); ok {
				name = rel
			}
			fmt.Printf("  %-40s %10s  %s\n", name, humanize.Bytes(uint64(f.Size)), mark)
		}
	}

	if infoCopy {
		if err := clipboard.WriteAll(s.Dir); err != nil {
			fmt.Println(warningStyle.Render("could not copy path to clipboard: " + err.Error()))
		} else {
			fmt.Printf("\n%s\n", dimStyle.Render("session path copied to clipboard"))
		}
	}
	return nil
}
