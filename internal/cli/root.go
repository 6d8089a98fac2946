// Package cli implements the claimpool command line: serve, sweep and migrate.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/config"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// env holds what every subcommand needs once flags and config are resolved.
type env struct {
	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	e := &env{v: viper.New()}

	root := &cobra.Command{
		Use:   "claimpool",
		Short: "Buyer request claim marketplace",
		Long: `claimpool serves the buyer pool API where agents search open buyer
requests, claim them for a limited time and release them back.

Configuration comes from defaults, an optional YAML file (--config),
a .env file and the environment, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.init(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (YAML)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	_ = e.v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = e.v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newServeCmd(e), newSweepCmd(e), newMigrateCmd(e))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (e *env) init(cmd *cobra.Command) error {
	bootstrap := logging.New(logging.Options{Writer: cmd.ErrOrStderr()})
	config.LoadDotEnv(bootstrap)

	if cfgFile := e.v.GetString("config"); cfgFile != "" {
		e.v.SetConfigFile(cfgFile)
		if err := e.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	cfg, err := config.Load(e.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.cfg = cfg
	e.logger = logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	slog.SetDefault(e.logger)
	return nil
}
