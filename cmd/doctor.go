package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joomlactl/joomlactl/pkg/credentials"
	"github.com/joomlactl/joomlactl/pkg/discovery"
	"github.com/joomlactl/joomlactl/pkg/provision"
	"github.com/joomlactl/joomlactl/pkg/runner"
	"github.com/joomlactl/joomlactl/pkg/state"
	"github.com/joomlactl/joomlactl/pkg/syscheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check host health and diagnose common issues",
	Long: `Run health checks on this host to identify problems before an
install or removal.

Checks performed:
  - Privileges (must run as root)
  - Operating system (Ubuntu/Debian)
  - External tools (apt, systemctl, apachectl, certbot, tar, wipefs, dd)
  - Credentials file well-formedness
  - Install manifest
  - Joomla installations under the web root

Examples:
  joomlactl doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	status  string // "PASS", "WARN", "FAIL"
	message string
	fix     string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	passed, warned, failed := 0, 0, 0

	record := func(r checkResult) {
		switch r.status {
		case "PASS":
			passed++
		case "WARN":
			warned++
		case "FAIL":
			failed++
		}
		fmt.Printf("  [%s] %s", r.status, r.message)
		if r.fix != "" {
			fmt.Printf(" (Fix: %s)", r.fix)
		}
		fmt.Println()
	}

	run := runner.NewLocal(verbose)
	prov := provision.NewProvisioner(run, verbose)

	// === Host ===
	fmt.Println("=== Host ===")
	if err := prov.CheckPrivileges(); err != nil {
		record(checkResult{"FAIL", fmt.Sprintf("Privileges: %v", err), "Re-run with sudo"})
	} else {
		record(checkResult{"PASS", "Privileges: running as root", ""})
	}
	if err := prov.CheckOS(); err != nil {
		record(checkResult{"FAIL", fmt.Sprintf("Operating system: %v", err), "joomlactl supports Ubuntu/Debian only"})
	} else {
		record(checkResult{"PASS", "Operating system: Ubuntu/Debian detected", ""})
	}

	// === Tools ===
	fmt.Println("\n=== Tools ===")
	checks := syscheck.NewSystemChecker(verbose).CheckAll(cmd.Context())
	for _, req := range checks.Requirements {
		switch {
		case req.Installed && req.Version != "":
			record(checkResult{"PASS", fmt.Sprintf("%s: %s", req.Name, req.Version), ""})
		case req.Installed:
			record(checkResult{"PASS", fmt.Sprintf("%s: installed", req.Name), ""})
		case req.Required:
			record(checkResult{"FAIL", fmt.Sprintf("%s: not found", req.Name), req.InstallHint})
		default:
			record(checkResult{"WARN", fmt.Sprintf("%s: not found", req.Name), req.InstallHint})
		}
	}

	// === Credentials ===
	fmt.Println("\n=== Credentials ===")
	checkCredentials(record)

	// === Manifest ===
	fmt.Println("\n=== Manifest ===")
	checkManifest(record)

	// === Installations ===
	fmt.Println("\n=== Installations ===")
	checkInstallations(record)

	fmt.Printf("\nSummary: %d passed, %d warning(s), %d failed\n", passed, warned, failed)
	if failed > 0 {
		return fmt.Errorf("doctor found %d issue(s)", failed)
	}
	return nil
}

func checkCredentials(record func(checkResult)) {
	path := viper.GetString("credentials_file")
	if !credentials.Exists(path) {
		record(checkResult{"WARN", fmt.Sprintf("Credentials file: not found at %s", path), "created by 'joomlactl install'"})
		return
	}

	info, err := os.Stat(path)
	if err == nil && info.Mode().Perm()&0o077 != 0 {
		record(checkResult{"WARN", fmt.Sprintf("Credentials file: %s (%04o — too open)", path, info.Mode().Perm()), fmt.Sprintf("chmod 600 %s", path)})
	} else {
		record(checkResult{"PASS", fmt.Sprintf("Credentials file: %s", path), ""})
	}

	rec, err := credentials.Load(path)
	if err != nil {
		record(checkResult{"FAIL", fmt.Sprintf("Credentials parse: %v", err), "delete and re-run 'joomlactl install'"})
		return
	}
	if !rec.Complete() {
		record(checkResult{"WARN", "Credentials parse: file has empty fields; 'joomlactl remove' will skip the database drop", ""})
		return
	}
	record(checkResult{"PASS", fmt.Sprintf("Credentials parse: complete (database %s, user %s)", rec.DBName, rec.DBUser), ""})
}

func checkManifest(record func(checkResult)) {
	path := viper.GetString("state_file")
	manifest, err := state.NewManager(path).Load()
	if err != nil {
		record(checkResult{"FAIL", fmt.Sprintf("Manifest: %v", err), "delete the corrupt file; it is rebuilt on next install"})
		return
	}
	record(checkResult{"PASS", fmt.Sprintf("Manifest: %d site(s) recorded", len(manifest.Sites)), ""})
}

func checkInstallations(record func(checkResult)) {
	root := viper.GetString("web_root")
	installs, err := discovery.Find(root, viper.GetInt("discovery_depth"))
	if err != nil {
		record(checkResult{"FAIL", fmt.Sprintf("Discovery under %s: %v", root, err), ""})
		return
	}
	if len(installs) == 0 {
		record(checkResult{"WARN", fmt.Sprintf("No Joomla installations under %s", root), "run 'joomlactl install'"})
		return
	}
	for _, inst := range installs {
		record(checkResult{"PASS", fmt.Sprintf("%s (%s)", inst.Domain, inst.Dir), ""})
	}
}
