package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joomlactl/joomlactl/pkg/formatter"
	"github.com/joomlactl/joomlactl/pkg/prompt"
	"github.com/joomlactl/joomlactl/pkg/provision"
	"github.com/joomlactl/joomlactl/pkg/runner"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Interactive menu for removing installations or wiping the disk",
	Long: `Clean presents a menu of decommissioning actions:

  1. Remove Joomla installations (uninstall sites, keep the host usable)
  2. Wipe the boot disk (destroy everything, host will not boot again)
  3. Cancel

Each destructive action has its own confirmation gate; picking a menu
entry never mutates anything by itself.

Examples:
  joomlactl clean`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	out := formatter.New(verbose, noColor)
	run := runner.NewLocal(verbose)
	prov := provision.NewProvisioner(run, verbose)

	if err := prov.CheckPrivileges(); err != nil {
		return err
	}

	p := prompt.New()
	choice, err := p.Menu("What do you want to clean?", []string{
		"Remove Joomla installations",
		"Wipe the boot disk",
		"Cancel",
	})
	if err != nil {
		return err
	}

	switch choice {
	case 0:
		return removeInstallations(cmd.Context(), out, run, p)
	case 1:
		return wipeBootDisk(cmd.Context(), out, run, p)
	default:
		out.Info("Cancelled.")
		return nil
	}
}
