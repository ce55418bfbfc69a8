// Package get provides ability to get resources from the server
package get

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

var output string

func NewCmdGet() *cobra.Command {
	var cfg client.Config
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Get a resource",
		Long:  "Get a resource",
		Example: `
# Get all nodes
metalctl get nodes

# Get a specific node as yaml
metalctl get node 4y3h7n -o yaml

# Get the results of a script set
metalctl get results --script-set 3
`,
		Args: cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatalf("config error: %v", err)
			}
			return nil
		},
	}

	getCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "Output format (json, yaml)")

	getCmd.AddCommand(NewCmdGetNode(&cfg))
	getCmd.AddCommand(NewCmdGetTag(&cfg))
	getCmd.AddCommand(NewCmdGetZone(&cfg))
	getCmd.AddCommand(NewCmdGetScript(&cfg))
	getCmd.AddCommand(NewCmdGetScriptSet(&cfg))
	getCmd.AddCommand(NewCmdGetResult(&cfg))
	getCmd.AddCommand(NewCmdGetEvent(&cfg))

	return getCmd
}

func printObject(v any) {
	codec, err := cmdutil.CodecFor(output)
	if err != nil {
		logrus.Fatalf("error creating serializer: %v", err)
	}
	b, err := codec.Serialize(v)
	if err != nil {
		logrus.Fatalf("error serializing: %v", err)
	}
	fmt.Println(string(b))
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
