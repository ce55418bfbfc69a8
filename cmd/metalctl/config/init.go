package config

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amimof/metal/pkg/client"
)

func NewCmdConfigInit() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an empty client configuration file",
		Long:  "Write an empty client configuration file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			path := viper.GetViper().ConfigFileUsed()
			if _, err := os.Stat(path); err == nil && !force {
				logrus.Fatalf("config file %s already exists, use --force to overwrite", path)
			}
			if err := writeConfig(&client.Config{Version: "config/v1"}); err != nil {
				logrus.Fatalf("error writing config file: %v", err)
			}
			logrus.Infof("Wrote configuration to %s", path)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return cmd
}
