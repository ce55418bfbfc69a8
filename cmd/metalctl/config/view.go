package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

func NewCmdConfigView() *cobra.Command {
	var cfg client.Config
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the entire client configuration",
		Long:  "View the entire client configuration",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			b, err := yaml.Marshal(cfg)
			if err != nil {
				logrus.Fatalf("error marshal: %v", err)
			}
			fmt.Println(string(b))
		},
	}

	return cmd
}
