package get

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

func NewCmdGetEvent(cfg *client.Config) *cobra.Command {
	var (
		nodeID string
		watch  bool
		types  []string
	)
	runCmd := &cobra.Command{
		Use:     "events",
		Short:   "Get events",
		Long:    "Get events",
		Aliases: []string{"event"},
		Example: `
# List events of a node
metalctl get events --node 4y3h7n

# Follow tag events as they happen
metalctl get events --watch --type TAG_POPULATED,TAG_DELETED
`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			tracer := otel.Tracer("metalctl")
			ctx, span := tracer.Start(ctx, "metalctl.get.event")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			printEvent := func(e *eventsv1.Event) {
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\t%s\n",
					e.GetType().String(),
					e.GetNodeID(),
					e.Endpoint.String(),
					e.Description,
					cmdutil.FormatDuration(time.Since(e.GetMeta().GetCreated())),
				)
			}
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\t%s\n", "TYPE", "NODE", "ENDPOINT", "DESCRIPTION", "AGE")

			if !watch {
				evs, err := c.EventV1().List(ctx, nodeID)
				if err != nil {
					logrus.Fatal(err)
				}
				for _, e := range evs {
					printEvent(e)
				}
				_ = wr.Flush()
				return
			}

			var filter []eventsv1.EventType
			for _, t := range types {
				et, err := eventsv1.ParseEventType(t)
				if err != nil {
					logrus.Fatal(err)
				}
				filter = append(filter, et)
			}

			evc := make(chan *eventsv1.Event)
			errc := make(chan error, 1)
			go func() {
				errc <- c.EventV1().Subscribe(ctx, evc, filter...)
			}()
			_ = wr.Flush()

			for {
				select {
				case e := <-evc:
					if nodeID != "" && e.GetNodeID() != nodeID {
						continue
					}
					printEvent(e)
					_ = wr.Flush()
				case err := <-errc:
					if err != nil && ctx.Err() == nil {
						logrus.Fatal(err)
					}
					return
				case <-ctx.Done():
					return
				}
			}
		},
	}
	runCmd.Flags().StringVar(&nodeID, "node", "", "Only show events of this node")
	runCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Stream new events instead of listing stored ones")
	runCmd.Flags().StringSliceVar(&types, "type", nil, "Event types to watch")

	return runCmd
}
