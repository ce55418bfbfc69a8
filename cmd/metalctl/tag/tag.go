// Package tag provides commands for applying tags to nodes
package tag

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

func NewCmdTag() *cobra.Command {
	var cfg client.Config
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage which nodes carry a tag",
		Long:  "Manage which nodes carry a tag",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
	}

	tagCmd.AddCommand(NewCmdTagNodes(&cfg))
	tagCmd.AddCommand(NewCmdTagRebuild(&cfg))

	return tagCmd
}

func NewCmdTagNodes(cfg *client.Config) *cobra.Command {
	var add, remove []string
	cmd := &cobra.Command{
		Use:   "nodes NAME",
		Short: "List, add or remove nodes of a tag",
		Long:  "List, add or remove nodes of a tag. Only tags without a definition accept manual changes",
		Example: `
# List nodes tagged gpu
metalctl tag nodes gpu

# Tag two nodes and untag one
metalctl tag nodes gpu --add 4y3h7n,8x2kqa --remove c6pdre
`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
			defer cancel()

			tracer := otel.Tracer("metalctl")
			ctx, span := tracer.Start(ctx, "metalctl.tag.nodes")
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

			name := args[0]

			if len(add) > 0 || len(remove) > 0 {
				resp, err := c.TagV1().UpdateNodes(ctx, name, add, remove)
				if err != nil {
					logrus.Fatal(err)
				}
				logrus.Infof("tag %s: %d added, %d removed", name, resp.Added, resp.Removed)
				return
			}

			nodes, err := c.TagV1().ListNodes(ctx, name)
			if err != nil {
				logrus.Fatal(err)
			}
			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\n", "SYSTEM ID", "FQDN", "STATUS")
			for _, n := range nodes {
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\n", n.SystemID(), n.FQDN(), cmdutil.FormatNodeStatus(n.Status))
			}
			_ = wr.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&add, "add", nil, "System ids of nodes to tag")
	cmd.Flags().StringSliceVar(&remove, "remove", nil, "System ids of nodes to untag")

	return cmd
}

func NewCmdTagRebuild(cfg *client.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rebuild NAME",
		Short:   "Re-evaluate a tag definition against every node",
		Long:    "Re-evaluate a tag definition against every node",
		Example: `metalctl tag rebuild virtual`,
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute*5)
			defer cancel()

			tracer := otel.Tracer("metalctl")
			ctx, span := tracer.Start(ctx, "metalctl.tag.rebuild")
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

			n, err := c.TagV1().Rebuild(ctx, args[0])
			if err != nil {
				logrus.Fatal(err)
			}
			logrus.Infof("tag %s now applies to %d nodes", args[0], n)
		},
	}
	return cmd
}
