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
)

func NewCmdGetZone(cfg *client.Config) *cobra.Command {
	var page, pageSize int
	runCmd := &cobra.Command{
		Use:     "zones [NAME]",
		Short:   "Get zones",
		Long:    "Get zones",
		Aliases: []string{"zone"},
		Example: `
# List the second page of zones
metalctl get zones --page 2 --page-size 10
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
			ctx, span := tracer.Start(ctx, "metalctl.get.zone")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			if len(args) == 1 {
				resp, err := c.ZoneV1().Get(ctx, args[0])
				if err != nil {
					logrus.Fatal(err)
				}
				printObject(resp)
				return
			}

			resp, err := c.ZoneV1().List(ctx, page, pageSize)
			if err != nil {
				logrus.Fatal(err)
			}

			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\n", "NAME", "DESCRIPTION", "AGE")
			for _, z := range resp.Zones {
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\n",
					z.GetMeta().GetName(),
					z.Description,
					cmdutil.Age(z.GetMeta().GetCreated()),
				)
			}
			_ = wr.Flush()
			logrus.Debugf("page %d of %d, %d zones in total", resp.Page, resp.TotalPages, resp.Total)
		},
	}
	runCmd.Flags().IntVar(&page, "page", 0, "Page to fetch, starting at 1")
	runCmd.Flags().IntVar(&pageSize, "page-size", 0, "Number of zones per page, defaults to 50")

	return runCmd
}
