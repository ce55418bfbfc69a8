package edit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/pkg/client"

	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

func NewCmdEditZone(cfg *client.Config) *cobra.Command {
	runCmd := &cobra.Command{
		Use:     "zone NAME",
		Short:   "Edit a zone",
		Long:    "Edit a zone",
		Example: `metalctl edit zone rack-1`,
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
			baseCtx, span := tracer.Start(baseCtx, "metalctl.edit.zone")
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
			resp, err := c.ZoneV1().Get(getCtx, id)
			if err != nil {
				return err
			}

			patch, err := editPatch(resp.Zone, &zonesv1.Zone{})
			if err != nil {
				return err
			}
			if patch == nil {
				logrus.Info("no changes detected")
				return nil
			}

			patchCtx, cancel := context.WithTimeout(baseCtx, time.Second*30)
			defer cancel()
			if _, err := c.ZoneV1().Patch(patchCtx, id, patch); err != nil {
				return err
			}

			logrus.Infof("zone %s was updated", id)
			return nil
		},
	}

	return runCmd
}
