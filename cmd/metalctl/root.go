// Package cmd provides the metalctl command line tool
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amimof/metal/cmd/metalctl/config"
	"github.com/amimof/metal/cmd/metalctl/create"
	"github.com/amimof/metal/cmd/metalctl/delete"
	"github.com/amimof/metal/cmd/metalctl/edit"
	"github.com/amimof/metal/cmd/metalctl/get"
	"github.com/amimof/metal/cmd/metalctl/result"
	"github.com/amimof/metal/cmd/metalctl/setting"
	"github.com/amimof/metal/cmd/metalctl/tag"
	"github.com/amimof/metal/pkg/instrumentation"
)

var (
	rootCmd = &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		Use:           "metalctl",
		Short:         "Inventory, tagging and commissioning results for bare metal",
		Long:          `metalctl is a command line tool for interacting with metal-server.`,
	}
	configFile   string
	verbosity    string
	otelEndpoint string
	version      = "dev"

	shutdownTracing instrumentation.Shutdown
)

func init() {
	cobra.EnableTraverseRunHooks = true
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")
}

func SetVersionInfo(v, commit, date, branch, goversion string) {
	if v != "" {
		version = v
	}
	rootCmd.Version = fmt.Sprintf("Version:\t%s\nCommit:\t%v\nBuilt:\t%s\nBranch:\t%s\nGo Version:\t%s\n", v, commit, date, branch, goversion)
}

func NewDefaultCommand() *cobra.Command {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(verbosity)
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)

		if otelEndpoint != "" {
			shutdownTracing, err = instrumentation.InitTracing(cmd.Context(), "metalctl", version, otelEndpoint)
			if err != nil {
				return fmt.Errorf("error setting up tracing: %w", err)
			}
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if shutdownTracing != nil {
			return shutdownTracing(cmd.Context())
		}
		return nil
	}

	// Figure out path to default config file
	home, err := os.UserHomeDir()
	if err != nil {
		logrus.Fatalf("home directory cannot be determined: %v", err)
	}
	defaultConfigPath := filepath.Join(home, ".metal", "metalctl.yaml")

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "", defaultConfigPath, "config file")
	rootCmd.PersistentFlags().StringVarP(&otelEndpoint, "otel-endpoint", "", "", "Endpoint address of OpenTelemetry collector")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "v", "v", "info", "number for the log level verbosity (debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(config.NewCmdConfig())
	rootCmd.AddCommand(get.NewCmdGet())
	rootCmd.AddCommand(create.NewCmdCreate())
	rootCmd.AddCommand(edit.NewCmdEdit())
	rootCmd.AddCommand(delete.NewCmdDelete())
	rootCmd.AddCommand(tag.NewCmdTag())
	rootCmd.AddCommand(result.NewCmdResult())
	rootCmd.AddCommand(setting.NewCmdSetting())

	return rootCmd
}
