package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dyluth/kanban/internal/config"
	"github.com/dyluth/kanban/internal/printer"
)

var (
	version string
	commit  string
	date    string

	configPath string
	redisURL   string
	namespace  string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kanban",
	Short: "Kanban - realtime board state synchronisation",
	Long: `Kanban keeps a local copy of one or more boards in sync with a Redis-backed
board store.

Moves are applied optimistically and persisted through a single ordered
request queue; changes made elsewhere arrive as push events and are merged
with last-write-wins semantics.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to kanban.yml (default: ./kanban.yml when present)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis URL, overrides redis.url")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "Key namespace, overrides redis.namespace")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides log.level")
}

// loadConfig reads the config file, applies flag overrides and configures logging.
func loadConfig() (*config.KanbanConfig, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to check for %s: %w", config.DefaultPath, err)
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, printer.ErrorWithContext(
				"invalid configuration",
				err.Error(),
				map[string]string{"File": path},
				[]string{"Fix the reported field in the file", "Point --config at another file"},
			)
		}
		cfg = loaded
	}

	if redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if namespace != "" {
		cfg.Redis.Namespace = namespace
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, printer.Error("invalid configuration", err.Error(), []string{"Check the command-line overrides"})
	}

	if err := cfg.ConfigureLogger(log.StandardLogger()); err != nil {
		return nil, err
	}
	return cfg, nil
}
