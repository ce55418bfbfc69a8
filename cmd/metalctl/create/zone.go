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

	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

func NewCmdCreateZone(cfg *client.Config) *cobra.Command {
	var description string
	runCmd := &cobra.Command{
		Use:     "zone NAME",
		Short:   "Create a zone",
		Long:    "Create a zone",
		Example: `metalctl create zone rack-1 --description "first rack"`,
		Args:    cobra.ExactArgs(1),
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
			ctx, span := tracer.Start(ctx, "metalctl.create.zone")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			_, err := c.ZoneV1().Create(ctx, &zonesv1.Zone{
				Meta: &types.Meta{
					Name:   args[0],
					Labels: resourceLabels,
				},
				Description: description,
			})
			if err != nil {
				logrus.Fatal(err)
			}

			logrus.Infof("zone %s created", args[0])
		},
	}
	runCmd.Flags().StringVar(&description, "description", "", "Description of the zone")

	return runCmd
}
