// Package create provides ability to create resources on the server
package create

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

var resourceLabels map[string]string

func NewCmdCreate() *cobra.Command {
	var cfg client.Config
	createCmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a resource",
		Long:    "Create a resource",
		Example: `metalctl create tag virtual --definition '//node[@class="system"]/product[contains(., "KVM")]'`,
		Args:    cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
	}

	createCmd.PersistentFlags().StringToStringVarP(&resourceLabels, "labels", "l", map[string]string{}, "Resource labels as key value pair")

	createCmd.AddCommand(NewCmdCreateNode(&cfg))
	createCmd.AddCommand(NewCmdCreateTag(&cfg))
	createCmd.AddCommand(NewCmdCreateZone(&cfg))
	createCmd.AddCommand(NewCmdCreateScript(&cfg))
	createCmd.AddCommand(NewCmdCreateScriptSet(&cfg))

	return createCmd
}

func connect(cfg *client.Config) *client.ClientSet {
	c, err := cmdutil.Connect(cfg)
	if err != nil {
		logrus.Fatalf("error setting up client: %v", err)
	}
	return c
}

func closeClient(c *client.ClientSet) {
	if err := c.Close(); err != nil {
		logrus.Errorf("error closing client connection: %v", err)
	}
}
