// Package config provides ability to manage metalctl configuration
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/amimof/metal/pkg/client"
)

var (
	tls      bool
	insecure bool
	current  bool
	caFile   string
	certFile string
	keyFile  string
	address  string
)

func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage metalctl client configuration",
		Long:  "Manage metalctl client configuration",
		Args:  cobra.ExactArgs(1),
	}

	cmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip TLS verification. Not recommended")
	cmd.PersistentFlags().BoolVar(&current, "current", true, "Set as current server")
	cmd.PersistentFlags().BoolVar(&tls, "tls", false, "Use TLS for this server")
	cmd.PersistentFlags().StringVar(&address, "address", "", "Endpoint address of the server")
	cmd.PersistentFlags().StringVar(&caFile, "ca", "", "Path to ca certificate file")
	cmd.PersistentFlags().StringVar(&certFile, "certificate", "", "Path to certificate file")
	cmd.PersistentFlags().StringVar(&keyFile, "key", "", "Path to private key file")

	cmd.AddCommand(NewCmdConfigInit())
	cmd.AddCommand(NewCmdConfigCreateServer())
	cmd.AddCommand(NewCmdConfigUse())
	cmd.AddCommand(NewCmdConfigView())
	cmd.AddCommand(NewCmdConfigListServers())

	return cmd
}

func writeConfig(cfg *client.Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	path := viper.GetViper().ConfigFileUsed()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
