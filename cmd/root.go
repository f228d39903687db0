package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joomlactl/joomlactl/pkg/credentials"
	"github.com/joomlactl/joomlactl/pkg/database"
	"github.com/joomlactl/joomlactl/pkg/discovery"
	"github.com/joomlactl/joomlactl/pkg/state"
	"github.com/joomlactl/joomlactl/pkg/telemetry"
)

var (
	cfgFile string
	verbose bool
	noColor bool
	// Version, GitCommit, and BuildTime are set via ldflags during build
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "joomlactl",
	Short: "Provision and tear down Joomla stacks on Ubuntu hosts",
	Long: `joomlactl provisions a complete Joomla CMS stack (Apache, MariaDB, PHP,
Let's Encrypt TLS) on the local Ubuntu host, and removes installations or
destructively wipes the boot disk when a host is being decommissioned.

Destructive operations are gated behind exact confirmation phrases and
never run unattended.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := telemetry.Init(telemetry.DefaultConfig()); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: failed to initialize tracing:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetVersionTemplate(fmt.Sprintf(`joomlactl {{.Version}}
Commit:  %s
Built:   %s
`, GitCommit, BuildTime))

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./joomlactl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
}

// findEnvFile searches for .env file in current directory and parent directories
func findEnvFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for i := 0; i < 10; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if envFile := findEnvFile(); envFile != "" {
		_ = godotenv.Load(envFile)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/joomlactl")
		viper.SetConfigType("yaml")
		viper.SetConfigName("joomlactl")
	}

	viper.SetDefault("web_root", discovery.DefaultRoot)
	viper.SetDefault("discovery_depth", discovery.DefaultMaxDepth)
	viper.SetDefault("credentials_file", credentials.DefaultPath)
	viper.SetDefault("state_file", state.DefaultPath)
	viper.SetDefault("mysql_socket", database.DefaultSocket)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("JOOMLACTL")

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
