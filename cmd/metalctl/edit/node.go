package edit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/pkg/client"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

func NewCmdEditNode(cfg *client.Config) *cobra.Command {
	runCmd := &cobra.Command{
		Use:     "node SYSTEM_ID",
		Short:   "Edit a node",
		Long:    "Edit a node",
		Example: `metalctl edit node 4y3h7n`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			baseCtx := cmd.Context()

			tracer := otel.Tracer("metalctl")
			baseCtx, span := tracer.Start(baseCtx, "metalctl.edit.node")
			defer span.End()

			c := connect(cfg)
			defer func() {
				if err := c.Close(); err != nil {
					logrus.Errorf("error closing client connection: %v", err)
				}
			}()

			id := args[0]

			getCtx, cancel := context.WithTimeout(baseCtx, time.Second*30)
			defer cancel()
			node, err := c.NodeV1().Get(getCtx, id)
			if err != nil {
				return err
			}

			patch, err := editPatch(node, &nodesv1.Node{})
			if err != nil {
				return err
			}
			if patch == nil {
				logrus.Info("no changes detected")
				return nil
			}

			patchCtx, cancel := context.WithTimeout(baseCtx, time.Second*30)
			defer cancel()
			if _, err := c.NodeV1().Patch(patchCtx, id, patch); err != nil {
				return err
			}

			logrus.Infof("node %s was updated", id)
			return nil
		},
	}

	return runCmd
}
