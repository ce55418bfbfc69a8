package create

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/client"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

func NewCmdCreateNode(cfg *client.Config) *cobra.Command {
	var (
		systemID string
		domain   string
		zone     string
		nodeType string
	)
	runCmd := &cobra.Command{
		Use:   "node HOSTNAME",
		Short: "Enlist a node",
		Long:  "Enlist a node. A system id is generated unless one is given",
		Example: `
# Enlist a machine in zone rack-1
metalctl create node web01 --domain example.com --zone rack-1
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
			defer cancel()

			tracer := otel.Tracer("metalctl")
			ctx, span := tracer.Start(ctx, "metalctl.create.node")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			node, err := c.NodeV1().Create(ctx, &nodesv1.Node{
				Meta: &types.Meta{
					Name:   systemID,
					Labels: resourceLabels,
				},
				Hostname: args[0],
				Domain:   domain,
				Zone:     zone,
				NodeType: nodesv1.NodeType(nodeType),
			})
			if err != nil {
				logrus.Fatal(err)
			}

			logrus.Infof("node %s created with system id %s", node.FQDN(), node.SystemID())
		},
	}
	runCmd.Flags().StringVar(&systemID, "system-id", "", "System id of the node")
	runCmd.Flags().StringVar(&domain, "domain", "", "DNS domain of the node")
	runCmd.Flags().StringVar(&zone, "zone", "", "Zone to place the node in, defaults to the default zone")
	runCmd.Flags().StringVar(&nodeType, "type", string(nodesv1.NodeTypeMachine), "Node type")

	return runCmd
}
