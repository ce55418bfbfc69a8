package config

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

func NewCmdConfigUse() *cobra.Command {
	var cfg client.Config
	cmd := &cobra.Command{
		Use:   "use NAME",
		Short: "Switch to another server in metalctl client configuration",
		Long:  "Switch to another server in metalctl client configuration",
		Example: `
# Switch to server 'production'
metalctl config use production
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := cfg.Use(args[0]); err != nil {
				logrus.Fatalf("error switching server: %v", err)
			}
			if err := writeConfig(&cfg); err != nil {
				logrus.Fatalf("error writing config file: %v", err)
			}
			logrus.Infof("Switched to server %s", args[0])
		},
	}

	return cmd
}
