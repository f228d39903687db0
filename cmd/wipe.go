package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joomlactl/joomlactl/pkg/disk"
	"github.com/joomlactl/joomlactl/pkg/formatter"
	"github.com/joomlactl/joomlactl/pkg/prompt"
	"github.com/joomlactl/joomlactl/pkg/provision"
	"github.com/joomlactl/joomlactl/pkg/runner"
	"github.com/joomlactl/joomlactl/pkg/steps"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Destroy all data on the boot disk",
	Long: `Wipe detects the whole disk backing the root filesystem, asks the
operator to type the exact device path as confirmation, and then destroys
the disk: first a signature wipe (wipefs), then zeroing the start of the
device. The host is unbootable afterwards.

If automatic detection fails the operator may type a device path by hand.
The path is validated as an existing block device before any write happens.

Examples:
  joomlactl wipe`,
	RunE: runWipe,
}

func init() {
	rootCmd.AddCommand(wipeCmd)
}

func runWipe(cmd *cobra.Command, args []string) error {
	out := formatter.New(verbose, noColor)
	run := runner.NewLocal(verbose)
	prov := provision.NewProvisioner(run, verbose)

	if err := prov.CheckPrivileges(); err != nil {
		return err
	}

	return wipeBootDisk(cmd.Context(), out, run, prompt.New())
}

// wipeBootDisk is the shared wipe path used by both the wipe command and
// the clean menu.
func wipeBootDisk(ctx context.Context, out *formatter.Output, run runner.Runner, p *prompt.Prompter) error {
	device, err := disk.NewDetector().RootDisk()
	if err != nil {
		out.Warning("Could not detect the boot disk automatically: %v", err)
		device, err = p.LineValidated("Enter the device path to wipe (e.g. /dev/sda)", func(s string) error {
			if !strings.HasPrefix(s, "/dev/") {
				return fmt.Errorf("device path must start with /dev/")
			}
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		out.Info("Detected boot disk: %s", device)
	}

	if !disk.IsBlockDevice(device) {
		return fmt.Errorf("refusing to wipe %s: not a block device", device)
	}

	out.EmptyLine()
	out.Warning("This will IRREVERSIBLY DESTROY all data on %s.", device)
	out.Warning("The machine will not boot again after this operation.")
	out.EmptyLine()

	// Typing the device path itself is the confirmation token. No data has
	// been touched up to this point.
	err = p.Gate(
		fmt.Sprintf("Type the device path %q to proceed. Anything else aborts.", device),
		device,
	)
	if err != nil {
		if errors.Is(err, prompt.ErrConfirmationMismatch) {
			return fmt.Errorf("aborted: %w", err)
		}
		return err
	}

	wiper := disk.NewWiper(run)

	pipeline := []steps.Step{
		{Name: "wipe filesystem signatures", Mode: steps.BestEffort, Run: func(ctx context.Context) error {
			return wiper.WipeSignatures(ctx, device)
		}},
		{Name: "zero start of device", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			return wiper.ZeroStart(ctx, device)
		}},
		{Name: "flush block caches", Mode: steps.BestEffort, Run: func(ctx context.Context) error {
			_, err := run.Run(ctx, "sync")
			return err
		}},
	}

	out.Section("Wiping " + device)
	result, err := steps.NewRunner("wipe", out).Run(ctx, pipeline)
	if err != nil {
		return err
	}

	out.EmptyLine()
	out.Success("Disk %s wiped. Power off or reboot to complete decommissioning.", device)
	if result.WarningCount() > 0 {
		out.Warning("%d wipe step(s) reported warnings; see above.", result.WarningCount())
	}
	return nil
}
