package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwidmer/sessidx/internal/core/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	RunE:  runConfigShow,
}

var configSetRootCmd = &cobra.Command{
	Use:   "set-root <path>",
	Short: "Set the default data tree root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.RawRoot = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("raw_root = %s\n", args[0])
		return nil
	},
}

var configSetServerCmd = &cobra.Command{
	Use:   "set-server <project> <path>",
	Short: "Set a project's server root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.SetServerRoot(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("server root for %s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetRootCmd, configSetServerCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fmt.Printf("Config file: %s\n\n", config.Path())
	fmt.Printf("raw_root          = %s\n", cfg.RawRoot)
	fmt.Printf("processed_root    = %s\n", cfg.ProcessedRoot)
	fmt.Printf("animal_suffix_len = %d\n", cfg.AnimalSuffixLen)

	if len(cfg.ServerRoots) > 0 {
		fmt.Println("\nServer roots:")
		projects := make([]string, 0, len(cfg.ServerRoots))
		for p := range cfg.ServerRoots {
			projects = append(projects, p)
		}
		sort.Strings(projects)
		for _, p := range projects {
			fmt.Printf("  %-24s %s\n", p, cfg.ServerRoots[p])
		}
	}

	fmt.Println("\nStep menus:")
	modalities := make([]string, 0, len(cfg.StepMenus))
	for m := range cfg.StepMenus {
		modalities = append(modalities, m)
	}
	sort.Strings(modalities)
	for _, m := range modalities {
		fmt.Printf("  %-12s %s\n", m, strings.Join(cfg.StepMenus[m], ", "))
	}
	return nil
}
