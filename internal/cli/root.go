// Package cli implements the assimilator command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/assimilator/internal/config"
	"github.com/thebtf/assimilator/internal/profiles"
	"github.com/thebtf/assimilator/pkg/assimilate"
	"github.com/thebtf/assimilator/pkg/table"
)

var (
	version    = "dev"
	configPath string
	debug      bool
	profile    string

	// cfg is populated by loadConfig before any subcommand runs.
	cfg = config.Default()
)

var errKeyRequired = errors.New("key column is required (--key or key_column in config)")

var rootCmd = &cobra.Command{
	Use:   "assimilator",
	Short: "Deduplicate near-duplicate values in a table column",
	Long: `Assimilator clusters the values of one column of a table by edit distance,
keeps one canonical value per cluster and can rewrite other tables to use
the canonical values.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.assimilator/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "named profile from ~/.assimilator/profiles.yaml")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, v string) error {
	version = v
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(_ *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyProfile(c, args); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("log_level", c.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	cfg = c
	return nil
}

// applyProfile overlays the --profile profile onto c, or the profile whose
// path prefix matches the first argument when none is named.
func applyProfile(c *config.Config, args []string) error {
	reg, err := profiles.Load(config.ProfilesPath())
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	if profile != "" {
		p, ok := reg.Get(profile)
		if !ok {
			return fmt.Errorf("unknown profile %q (available: %v)", profile, reg.Names())
		}
		p.Apply(c)
		log.Debug().Str("profile", p.Name).Msg("Applied profile")
		return nil
	}

	if len(args) == 0 {
		return nil
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		path = args[0]
	}
	if p, ok := reg.ForPath(path); ok {
		p.Apply(c)
		log.Debug().Str("profile", p.Name).Str("path", path).Msg("Matched profile by path")
	}
	return nil
}

// clusterFlags are the flags shared by commands that build a Formatter.
type clusterFlags struct {
	key       string
	threshold int
}

func (c *clusterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.key, "key", "k", "", "column holding the values to deduplicate")
	cmd.Flags().IntVarP(&c.threshold, "threshold", "t", -1, "edit-distance threshold (default from config)")
}

func (c *clusterFlags) reset() {
	c.key = ""
	c.threshold = -1
}

// formatter resolves flags against the loaded config and wraps tbl.
func (c *clusterFlags) formatter(tbl *table.Table) (*assimilate.Formatter, error) {
	key := c.key
	if key == "" {
		key = cfg.KeyColumn
	}
	if key == "" {
		return nil, errKeyRequired
	}
	threshold := c.threshold
	if threshold < 0 {
		threshold = cfg.Threshold
	}

	f, err := assimilate.New(tbl, key, assimilate.WithDefaultThreshold(threshold))
	if err != nil {
		return nil, fmt.Errorf("build formatter: %w", err)
	}
	return f, nil
}
