package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/config"
	"github.com/kwidmer/sessidx/internal/core/models"
	"github.com/kwidmer/sessidx/pkg/sessionmeta"
)

var (
	stepParams  []string
	stepComment string
	stepResults string
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Record preprocessing steps on a session",
	Long: `Track preprocessing progress per session. A step starts as in_progress
when added and can only move to completed; finished work never silently
reverts. Step names are suggested per recording modality but free-form
names are accepted.`,
}

var stepAddCmd = &cobra.Command{
	Use:   "add <project> <animal> <session> <step>",
	Short: "Start a preprocessing step",
	Long: `Start a step on a session. Fails if a step with the same name already
exists.

Examples:
  sessidx step add NPX_Learning WT0042 2024-03-01_rec1 spike_sorting
  sessidx step add NPX_Learning WT0042 2024-03-01_rec1 dlc --param model=resnet50 --comment "v2 labels"`,
	Args: cobra.ExactArgs(4),
	RunE: runStepAdd,
}

var stepCompleteCmd = &cobra.Command{
	Use:   "complete <project> <animal> <session> <step>",
	Short: "Mark a preprocessing step completed",
	Args:  cobra.ExactArgs(4),
	RunE:  runStepComplete,
}

var stepListCmd = &cobra.Command{
	Use:   "list <project> <animal> <session>",
	Short: "List a session's steps and the suggested menu",
	Args:  cobra.ExactArgs(3),
	RunE:  runStepList,
}

func init() {
	rootCmd.AddCommand(stepCmd)
	stepCmd.AddCommand(stepAddCmd, stepCompleteCmd, stepListCmd)
	stepAddCmd.Flags().StringArrayVar(&stepParams, "param", nil, "Step parameter as key=value (repeatable)")
	stepAddCmd.Flags().StringVar(&stepComment, "comment", "", "Free-form comment")
	stepCompleteCmd.Flags().StringVar(&stepResults, "results-dir", "", "Directory holding the step's outputs")
}

func runStepAdd(cmd *cobra.Command, args []string) error {
	return editSession(args[0], args[1], args[2], func(s *models.Session) error {
		step, err := s.AddStep(args[3])
		if err != nil {
			return err
		}
		step.Comments = stepComment
		for _, p := range stepParams {
			k, v, ok := strings.Cut(p, "=")
			if !ok {
				return fmt.Errorf("invalid --param %q: want key=value", p)
			}
			if step.Params == nil {
				step.Params = map[string]any{}
			}
			step.Params[k] = v
		}
		fmt.Printf("Started %s on %s\n", args[3], s.Key())
		return nil
	})
}

func runStepComplete(cmd *cobra.Command, args []string) error {
	return editSession(args[0], args[1], args[2], func(s *models.Session) error {
		step := s.Step(args[3])
		if step == nil {
			return fmt.Errorf("session %s has no step %q", s.Key(), args[3])
		}
		if err := step.Complete(); err != nil {
			return err
		}
		if stepResults != "" {
			step.ResultsDir = stepResults
		}
		fmt.Printf("Completed %s on %s\n", args[3], s.Key())
		return nil
	})
}

func runStepList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
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
	key := models.Key{Project: args[0], Animal: args[1], Session: args[2]}
	s, ok := h.Snapshot().Session(key)
	if !ok {
		return fmt.Errorf("session %s not found in catalog", key)
	}

	done := map[string]models.StepStatus{}
	for _, st := range s.Steps {
		done[st.Name] = st.Status
		fmt.Printf("%-20s %s\n", st.Name, st.Status)
	}

	recording, _ := s.MetaString("Recording")
	var pending []string
	for _, name := range cfg.StepChoices(recording) {
		if _, ok := done[name]; !ok {
			pending = append(pending, name)
		}
	}
	if len(pending) > 0 {
		fmt.Printf("\n%s %s\n", dimStyle.Render("Suggested next:"), strings.Join(pending, ", "))
	}
	return nil
}

// editSession loads one session fresh from disk, applies the edit, saves the
// metadata file, and propagates the change to the catalog. Reading from disk
// rather than the catalog keeps concurrent external edits to metadata.json
// from being clobbered.
func editSession(project, animal, session string, edit func(*models.Session) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	root, err := dataRoot(cfg)
	if err != nil {
		return err
	}

	dir := sessionDir(root, project, animal, session)
	store := sessionmeta.NewJSONStore()
	s, err := store.Load(dir)
	if err != nil {
		return fmt.Errorf("load session %s/%s/%s: %w", project, animal, session, err)
	}
	if err := edit(s); err != nil {
		return err
	}
	if err := store.Save(dir, s); err != nil {
		return err
	}

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()
	return cat.Upsert(s)
}

func sessionDir(root, project, animal, session string) string {
	return filepath.Join(root, project, animal, session)
}
