package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joomlactl/joomlactl/pkg/apache"
	"github.com/joomlactl/joomlactl/pkg/certbot"
	"github.com/joomlactl/joomlactl/pkg/credentials"
	"github.com/joomlactl/joomlactl/pkg/database"
	"github.com/joomlactl/joomlactl/pkg/formatter"
	"github.com/joomlactl/joomlactl/pkg/joomla"
	"github.com/joomlactl/joomlactl/pkg/prompt"
	"github.com/joomlactl/joomlactl/pkg/provision"
	"github.com/joomlactl/joomlactl/pkg/runner"
	"github.com/joomlactl/joomlactl/pkg/state"
	"github.com/joomlactl/joomlactl/pkg/steps"
	"github.com/joomlactl/joomlactl/pkg/utils"
)

var (
	installYes     bool
	installVersion string
	installSkipTLS bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Provision a Joomla stack on this host",
	Long: `Install provisions a complete Joomla stack on the local Ubuntu host:

  - apt packages (Apache, MariaDB, PHP, Certbot)
  - a dedicated MariaDB database and user with generated passwords
  - the latest Joomla release (or a pinned one via --joomla-version),
    unpacked into the web root
  - an Apache virtual host and a Let's Encrypt certificate
  - tuned PHP runtime settings

Nothing touches the system until every prompt validates and the printed
summary is confirmed. On the first failing step the run aborts; partial
state is left behind by design (there is no rollback).

The Joomla version installed by default is whatever is latest at run time
and is therefore non-deterministic; the resolved version is printed in the
summary. Pin it with --joomla-version.

Examples:
  joomlactl install                          # interactive install
  joomlactl install --joomla-version 5.1.4   # pin the release tag
  joomlactl install -y                       # skip the summary confirmation`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Skip the summary confirmation prompt")
	installCmd.Flags().StringVar(&installVersion, "joomla-version", "", "Pin a Joomla release tag instead of resolving the latest")
	installCmd.Flags().BoolVar(&installSkipTLS, "skip-tls", false, "Skip certificate issuance (HTTP only)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	out := formatter.New(verbose, noColor)
	run := runner.NewLocal(verbose, "DEBIAN_FRONTEND=noninteractive")
	prov := provision.NewProvisioner(run, verbose)

	if err := prov.CheckPrivileges(); err != nil {
		return err
	}
	if err := prov.CheckOS(); err != nil {
		return err
	}

	// Gather and validate operator input. No external side effects happen
	// before the summary below is confirmed.
	p := prompt.New()
	domain, err := p.Domain()
	if err != nil {
		return err
	}
	email, err := p.Email()
	if err != nil {
		return err
	}
	adminUser, err := p.Username()
	if err != nil {
		return err
	}
	adminPassword, err := p.Password()
	if err != nil {
		return err
	}

	webRoot := viper.GetString("web_root")
	docRoot := filepath.Join(webRoot, domain)
	dbName := "joomla_" + utils.SanitizeDBName(domain)
	dbUser := dbName
	versionLabel := installVersion
	if versionLabel == "" {
		versionLabel = "latest (resolved at run time)"
	}

	out.Section("Installation Summary")
	out.KeyValue("Domain", domain)
	out.KeyValue("Admin email", email)
	out.KeyValue("Admin user", adminUser)
	out.KeyValue("Site directory", docRoot)
	out.KeyValue("Database", dbName)
	out.KeyValue("Joomla version", versionLabel)
	out.EmptyLine()

	if !installYes {
		ok, err := p.Confirm("Proceed with installation?")
		if err != nil {
			return err
		}
		if !ok {
			out.Info("Cancelled")
			return nil
		}
	}

	rootPassword, err := credentials.GeneratePassword(credentials.GeneratedLength)
	if err != nil {
		return err
	}
	dbPassword, err := credentials.GeneratePassword(credentials.GeneratedLength)
	if err != nil {
		return err
	}

	db := database.NewManager(viper.GetString("mysql_socket"), verbose)
	apacheMgr := apache.NewManager(run, verbose)
	installer := joomla.NewInstaller(run)
	releases := joomla.NewClient()

	// Shared across steps.
	var release *joomla.Release
	archivePath := filepath.Join(os.TempDir(), "joomla-full-package.tar.gz")

	pipeline := []steps.Step{
		{Name: "update package index", Mode: steps.Fatal, Run: prov.UpdatePackageIndex},
		{Name: "install stack packages", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			return prov.InstallPackages(ctx, provision.StackPackages...)
		}},
		{Name: "start database server", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			return prov.EnableService(ctx, "mariadb")
		}},
		{Name: "secure database server", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			return db.Secure(ctx, rootPassword)
		}},
		{Name: "create site database", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			return db.CreateSite(ctx, rootPassword, dbName, dbUser, dbPassword)
		}},
		{Name: "resolve joomla release", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			var rerr error
			if installVersion != "" {
				release, rerr = releases.ReleaseByTag(ctx, installVersion)
			} else {
				release, rerr = releases.LatestRelease(ctx)
			}
			if rerr != nil {
				return rerr
			}
			out.Verbose("resolved Joomla %s", release.TagName)
			return nil
		}},
		{Name: "download joomla package", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			asset, err := release.FullPackage()
			if err != nil {
				return err
			}
			return releases.Download(ctx, asset, archivePath)
		}},
		{Name: "unpack site files", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			defer os.Remove(archivePath)
			if err := installer.Unpack(ctx, archivePath, docRoot); err != nil {
				return err
			}
			return installer.SetOwnership(ctx, docRoot)
		}},
		{Name: "configure apache virtual host", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			if _, err := apacheMgr.WriteVHost(apache.Site{
				Domain:       domain,
				AdminEmail:   email,
				DocumentRoot: docRoot,
			}); err != nil {
				return err
			}
			return apacheMgr.EnableSite(ctx, domain)
		}},
		{Name: "issue tls certificate", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			if installSkipTLS {
				out.Verbose("skipping certificate issuance (--skip-tls)")
				return nil
			}
			return certbot.NewClient(run).Issue(ctx, domain, email)
		}},
		{Name: "tune php runtime", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			if err := prov.TunePHP(ctx, provision.DefaultPHPSettings()); err != nil {
				return err
			}
			return apacheMgr.Restart(ctx)
		}},
		{Name: "open firewall ports", Mode: steps.BestEffort, Run: prov.OpenFirewall},
		{Name: "write credentials file", Mode: steps.Fatal, Run: func(ctx context.Context) error {
			return credentials.Write(viper.GetString("credentials_file"), &credentials.Record{
				RootPassword: rootPassword,
				DBName:       dbName,
				DBUser:       dbUser,
				DBPassword:   dbPassword,
			})
		}},
		{Name: "record install manifest", Mode: steps.BestEffort, Run: func(ctx context.Context) error {
			rec, err := state.NewSiteRecord(domain, docRoot, dbName, dbUser, release.TagName, adminUser, adminPassword)
			if err != nil {
				return err
			}
			return state.NewManager(viper.GetString("state_file")).AddSite(rec)
		}},
	}

	out.Section("Provisioning")
	result, err := steps.NewRunner("install", out).Run(cmd.Context(), pipeline)
	if err != nil {
		return fmt.Errorf("installation aborted: %w", err)
	}

	scheme := "https"
	if installSkipTLS {
		scheme = "http"
	}

	out.Section("Installation Complete")
	out.KeyValue("Site URL", fmt.Sprintf("%s://%s", scheme, domain))
	out.KeyValue("Joomla version", release.TagName)
	out.KeyValue("Admin user", adminUser)
	out.KeyValue("Credentials file", viper.GetString("credentials_file"))
	out.EmptyLine()
	out.Info("Finish the Joomla setup in the browser using the database")
	out.Info("credentials from %s.", viper.GetString("credentials_file"))
	if installVersion == "" {
		out.Info("Installed version was resolved at run time; pin future installs with --joomla-version %s.", release.TagName)
	}
	if result.WarningCount() > 0 {
		out.Warning("%d best-effort step(s) failed; see warnings above.", result.WarningCount())
	}

	return nil
}
