package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joomlactl/joomlactl/pkg/apache"
	"github.com/joomlactl/joomlactl/pkg/certbot"
	"github.com/joomlactl/joomlactl/pkg/credentials"
	"github.com/joomlactl/joomlactl/pkg/database"
	"github.com/joomlactl/joomlactl/pkg/discovery"
	"github.com/joomlactl/joomlactl/pkg/formatter"
	"github.com/joomlactl/joomlactl/pkg/prompt"
	"github.com/joomlactl/joomlactl/pkg/provision"
	"github.com/joomlactl/joomlactl/pkg/runner"
	"github.com/joomlactl/joomlactl/pkg/state"
	"github.com/joomlactl/joomlactl/pkg/steps"
	"github.com/joomlactl/joomlactl/pkg/utils"
)

// removeConfirmPhrase is the literal token the operator must type before any
// installation directory is deleted.
const removeConfirmPhrase = "remove joomla"

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove detected Joomla installations from this host",
	Long: `Remove searches the web root for Joomla installations (directories
containing a configuration.php marker file) and deletes them after the
operator types the exact confirmation phrase.

After the site directories are gone, the remaining cleanup is best-effort:
each of these steps logs a warning on failure and the rest still run:

  - drop the Joomla database and user recorded in the credentials file
  - disable and delete the Apache virtual hosts, reload Apache
  - delete the Let's Encrypt certificates for the removed sites
  - remove the credentials file and the install manifest entries

If the credentials file is missing or any of its database fields is empty,
the database-drop step is skipped entirely and the file is left in place.

Examples:
  joomlactl remove`,
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	out := formatter.New(verbose, noColor)
	run := runner.NewLocal(verbose)
	prov := provision.NewProvisioner(run, verbose)

	if err := prov.CheckPrivileges(); err != nil {
		return err
	}

	return removeInstallations(cmd.Context(), out, run, prompt.New())
}

// detectInstallations lists the sites to remove. Manifest records whose
// directories still exist come first; filesystem discovery fills in
// installations the manifest does not know about (or a lost manifest).
func detectInstallations(manifest *state.Manager, root string, maxDepth int) ([]discovery.Installation, error) {
	var installs []discovery.Installation
	seen := make(map[string]bool)

	if m, err := manifest.Load(); err == nil {
		for _, site := range m.Sites {
			if _, statErr := os.Stat(site.DocumentRoot); statErr != nil {
				continue
			}
			installs = append(installs, discovery.Installation{
				Dir:    site.DocumentRoot,
				Domain: site.Domain,
			})
			seen[site.DocumentRoot] = true
		}
	}

	found, err := discovery.Find(root, maxDepth)
	if err != nil {
		return nil, utils.Wrapf(err, "installation discovery failed")
	}
	for _, inst := range found {
		if !seen[inst.Dir] {
			installs = append(installs, inst)
		}
	}

	sort.Slice(installs, func(i, j int) bool { return installs[i].Dir < installs[j].Dir })
	return installs, nil
}

// removeInstallations is the shared removal path used by both the remove
// command and the clean menu.
func removeInstallations(ctx context.Context, out *formatter.Output, run runner.Runner, p *prompt.Prompter) error {
	manifest := state.NewManager(viper.GetString("state_file"))
	installs, err := detectInstallations(manifest, viper.GetString("web_root"), viper.GetInt("discovery_depth"))
	if err != nil {
		return err
	}

	if len(installs) == 0 {
		out.Warning("No Joomla installations found under %s; nothing to remove.", viper.GetString("web_root"))
		return nil
	}

	out.Section("Detected Installations")
	items := make([]string, 0, len(installs))
	for _, inst := range installs {
		items = append(items, inst.Dir)
	}
	out.NumberedList(items...)
	out.EmptyLine()

	// Nothing has been mutated yet; the gate is the last stop.
	err = p.Gate(
		fmt.Sprintf("Type %q to delete the installations listed above. Anything else aborts.", removeConfirmPhrase),
		removeConfirmPhrase,
	)
	if err != nil {
		if errors.Is(err, prompt.ErrConfirmationMismatch) {
			return fmt.Errorf("aborted: %w", err)
		}
		return err
	}

	credPath := viper.GetString("credentials_file")
	db := database.NewManager(viper.GetString("mysql_socket"), verbose)
	apacheMgr := apache.NewManager(run, verbose)
	certs := certbot.NewClient(run)

	dbDropped := false

	pipeline := []steps.Step{
		{Name: "remove installation directories", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			for _, inst := range installs {
				if err := os.RemoveAll(inst.Dir); err != nil {
					return fmt.Errorf("failed to remove %s: %w", inst.Dir, err)
				}
				out.Verbose("removed %s", inst.Dir)
			}
			return nil
		}},
		{Name: "drop site database", Mode: steps.BestEffort, Run: func(ctx context.Context) error {
			if !credentials.Exists(credPath) {
				out.Verbose("no credentials file at %s, skipping database drop", credPath)
				return nil
			}
			rec, err := credentials.Load(credPath)
			if err != nil {
				return err
			}
			if !rec.Complete() {
				out.Warning("credentials file has empty fields; skipping database drop and keeping %s", credPath)
				return nil
			}
			if err := db.DropSite(ctx, rec); err != nil {
				return err
			}
			dbDropped = true
			return nil
		}},
		{Name: "remove apache virtual hosts", Mode: steps.BestEffort, Run: func(ctx context.Context) error {
			for _, inst := range installs {
				if err := apacheMgr.DisableSite(ctx, inst.Domain); err != nil {
					return err
				}
			}
			return apacheMgr.Reload(ctx)
		}},
		{Name: "delete tls certificates", Mode: steps.BestEffort, Run: func(ctx context.Context) error {
			for _, inst := range installs {
				if err := certs.Delete(ctx, inst.Domain); err != nil {
					return err
				}
			}
			return nil
		}},
		{Name: "remove credentials file", Mode: steps.BestEffort, Run: func(ctx context.Context) error {
			if !dbDropped {
				// The skip rule leaves the file in place for a later attempt.
				return nil
			}
			if err := os.Remove(credPath); err != nil && !os.IsNotExist(err) {
				return err
			}
			return nil
		}},
		{Name: "update install manifest", Mode: steps.BestEffort, Run: func(ctx context.Context) error {
			for _, inst := range installs {
				if err := manifest.RemoveSite(inst.Domain); err != nil {
					return err
				}
			}
			return nil
		}},
	}

	out.Section("Removing")
	result, err := steps.NewRunner("remove", out).Run(ctx, pipeline)
	if err != nil {
		return err
	}

	out.EmptyLine()
	out.Success("Removed %d installation(s).", len(installs))
	if result.WarningCount() > 0 {
		out.Warning("%d cleanup step(s) failed; see warnings above.", result.WarningCount())
	}
	return nil
}
