package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ledger/internal/cli"
	"ledger/internal/log"
)

const defaultDBPath = "./data/ledger.db"

// app carries the configuration shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	c := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the expense ledger database",
		Long: `ledgerctl works directly against the SQLite ledger used by the API
server: apply migrations, inspect transactions and totals, and export the
PDF report without going through HTTP.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.initConfig,
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: $HOME/.config/ledger/ledgerctl.yaml)")
	root.PersistentFlags().String("db", defaultDBPath, "path to the SQLite ledger database")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = c.v.BindPFlag("database.path", root.PersistentFlags().Lookup("db"))
	_ = c.v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = c.v.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(c.migrateCmd())
	root.AddCommand(c.listCmd())
	root.AddCommand(c.summaryCmd())
	root.AddCommand(c.reportCmd())

	return root
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := cli.SignalContext(context.Background())
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *app) initConfig(_ *cobra.Command, _ []string) error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			c.v.AddConfigPath(home + "/.config/ledger")
		}
		c.v.AddConfigPath(".")
		c.v.SetConfigName("ledgerctl")
		c.v.SetConfigType("yaml")
	}

	// LEDGER_DATABASE_PATH, LEDGER_LOGGING_LEVEL, ...
	c.v.SetEnvPrefix("LEDGER")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	lvl, err := log.ParseLevel(c.v.GetString("logging.level"))
	if err != nil {
		return err
	}
	// Logs go to stderr so command output stays pipeable.
	logger, err := log.New(log.Config{
		Level:     lvl,
		Format:    c.v.GetString("logging.format"),
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	log.SetDefault(logger)
	return nil
}

func (c *app) dbPath() string {
	if p := strings.TrimSpace(c.v.GetString("database.path")); p != "" {
		return p
	}
	return defaultDBPath
}
