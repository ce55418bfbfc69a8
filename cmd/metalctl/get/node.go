package get

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

func NewCmdGetNode(cfg *client.Config) *cobra.Command {
	var query string
	runCmd := &cobra.Command{
		Use:     "nodes [SYSTEM_ID]",
		Short:   "Get nodes",
		Long:    "Get nodes",
		Aliases: []string{"node"},
		Example: `
# List all nodes
metalctl get nodes

# List ready or broken nodes in zone rack-1 tagged virtual
metalctl get nodes -q "zone=rack-1 status=Ready status=Broken tags=virtual"
`,
		Args: cobra.MaximumNArgs(1),
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
			ctx, span := tracer.Start(ctx, "metalctl.get.node")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			if len(args) == 1 {
				node, err := c.NodeV1().Get(ctx, args[0])
				if err != nil {
					logrus.Fatal(err)
				}
				printObject(node)
				return
			}

			nodes, err := c.NodeV1().List(ctx, query)
			if err != nil {
				logrus.Fatal(err)
			}

			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", "SYSTEM ID", "FQDN", "ZONE", "TYPE", "STATUS", "TAGS", "AGE")
			for _, n := range nodes {
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					n.SystemID(),
					n.FQDN(),
					n.Zone,
					n.NodeType,
					cmdutil.FormatNodeStatus(n.Status),
					strings.Join(n.Tags, ","),
					cmdutil.Age(n.GetMeta().GetCreated()),
				)
			}
			_ = wr.Flush()
		},
	}
	runCmd.Flags().StringVarP(&query, "query", "q", "", "Whitespace separated key=value terms (zone, hostname, domain, status, type, tags)")

	return runCmd
}
