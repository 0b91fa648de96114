// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rotalabs/rotalabs-graph/internal/config"
	"github.com/rotalabs/rotalabs-graph/internal/observability"
)

// Version is stamped at build time.
var Version = "0.3.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "rotagraph",
	Short:   "Rotagraph models and scores trust among AI-system components.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeViper(); err != nil {
			basicLogger, _ := zap.NewDevelopment()
			basicLogger.Error("Failed to initialize configuration", zap.Error(err))
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		if err := config.Load(viper.GetViper()); err != nil {
			observability.InitializeLogger(config.Default().Logger)
			return err
		}

		observability.InitializeLogger(config.Get().Logger)
		observability.GetLogger().Debug("Starting rotagraph", zap.String("version", Version))
		return nil
	},
}

func initializeViper() error {
	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("rotagraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.rotagraph")
	}

	v.SetEnvPrefix("ROTAGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the defaults carry the run.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return err
		}
	}
	return nil
}

// Execute adds all child commands to the root command and runs it with the
// provided context so signal handling flows through command execution.
func Execute(ctx context.Context) error {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./rotagraph.yaml)")
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newReportCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); ctx.Err() == nil {
			logger.Error("Command execution failed", zap.Error(err))
		}
		return err
	}
	return nil
}
