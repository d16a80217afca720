package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listProject string
	listAnimal  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued projects, animals, and sessions",
	Long: `List the tree as last catalogued, in discovery order.

Without flags, lists projects with their animal and session counts.
With --project, lists that project's animals; with --animal as well,
lists that animal's sessions.

Examples:
  sessidx list
  sessidx list --project NPX_Learning
  sessidx list --project NPX_Learning --animal WT0042`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listProject, "project", "", "List animals of this project")
	listCmd.Flags().StringVar(&listAnimal, "animal", "", "List sessions of this animal (requires --project)")
}

func runList(cmd *cobra.Command, args []string) error {
	if listAnimal != "" && listProject == "" {
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

	switch {
	case listAnimal != "":
		sessions := ix.AnimalSessions(listProject, listAnimal)
		if len(sessions) == 0 {
			return fmt.Errorf("no sessions for %s/%s", listProject, listAnimal)
		}
		fmt.Println(titleStyle.Render(fmt.Sprintf("%s/%s", listProject, listAnimal)))
		for _, s := range sessions {
			line := fmt.Sprintf("  %s", s.Session)
			if dt, ok := s.MetaString("DateTime"); ok {
				line += dimStyle.Render("  " + dt)
			}
			if len(s.Files) > 0 {
				line += dimStyle.Render(fmt.Sprintf("  (%d files)", len(s.Files)))
			}
			fmt.Println(line)
		}
	case listProject != "":
		animals := ix.Animals(listProject)
		if len(animals) == 0 {
			return fmt.Errorf("no animals for project %s", listProject)
		}
		fmt.Println(titleStyle.Render(listProject))
		for _, a := range animals {
			n := len(ix.AnimalSessions(listProject, a))
			fmt.Printf("  %s%s\n", a, dimStyle.Render(fmt.Sprintf("  %d session(s)", n)))
		}
	default:
		projects := ix.Projects()
		for _, p := range projects {
			animals := ix.Animals(p)
			sessions := ix.ProjectSessions(p)
			fmt.Printf("%s%s\n", titleStyle.Render(p),
				dimStyle.Render(fmt.Sprintf("  %d animal(s), %d session(s)", len(animals), len(sessions))))
		}
		fmt.Printf("\n%d project(s), %d session(s) total\n", len(projects), ix.Len())
	}
	return nil
}
