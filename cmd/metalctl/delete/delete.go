// Package delete provides ability to delete resources from the server
package delete

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

var timeout time.Duration

func NewCmdDelete() *cobra.Command {
	var cfg client.Config
	deleteCmd := &cobra.Command{
		Use:     "delete",
		Short:   "Delete a resource",
		Long:    "Delete a resource",
		Example: `metalctl delete node 4y3h7n`,
		Args:    cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
	}

	deleteCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "", time.Second*30, "How long to wait for the server")

	deleteCmd.AddCommand(newDeleteCmd(&cfg, "node", "SYSTEM_ID", func(ctx context.Context, c *client.ClientSet, id string) error {
		return c.NodeV1().Delete(ctx, id)
	}))
	deleteCmd.AddCommand(newDeleteCmd(&cfg, "tag", "NAME", func(ctx context.Context, c *client.ClientSet, id string) error {
		return c.TagV1().Delete(ctx, id)
	}))
	deleteCmd.AddCommand(newDeleteCmd(&cfg, "zone", "NAME", func(ctx context.Context, c *client.ClientSet, id string) error {
		return c.ZoneV1().Delete(ctx, id)
	}))

	return deleteCmd
}

type deleteFunc func(ctx context.Context, c *client.ClientSet, id string) error

func newDeleteCmd(cfg *client.Config, kind, arg string, del deleteFunc) *cobra.Command {
	return &cobra.Command{
		Use:     kind + " " + arg + " [" + arg + "...]",
		Short:   "Delete one or more " + kind + "s",
		Long:    "Delete one or more " + kind + "s",
		Example: "metalctl delete " + kind + " " + arg,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			tracer := otel.Tracer("metalctl")
			ctx, span := tracer.Start(ctx, "metalctl.delete."+kind)
			defer span.End()

			c, err := cmdutil.Connect(cfg)
			if err != nil {
				logrus.Fatalf("error setting up client: %v", err)
			}
			defer func() {
				if err := c.Close(); err != nil {
					logrus.Errorf("error closing client connection: %v", err)
				}
			}()

			failed := false
			for _, id := range args {
				if err := del(ctx, c, id); err != nil {
					logrus.Errorf("error deleting %s %s: %v", kind, id, err)
					failed = true
					continue
				}
				logrus.Infof("%s %s deleted", kind, id)
			}
			if failed {
				logrus.Exit(1)
			}
		},
	}
}
