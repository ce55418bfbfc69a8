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

func NewCmdGetTag(cfg *client.Config) *cobra.Command {
	runCmd := &cobra.Command{
		Use:     "tags [NAME]",
		Short:   "Get tags",
		Long:    "Get tags",
		Aliases: []string{"tag"},
		Example: `metalctl get tags`,
		Args:    cobra.MaximumNArgs(1),
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
			ctx, span := tracer.Start(ctx, "metalctl.get.tag")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			if len(args) == 1 {
				tag, err := c.TagV1().Get(ctx, args[0])
				if err != nil {
					logrus.Fatal(err)
				}
				printObject(tag)
				return
			}

			tags, err := c.TagV1().List(ctx)
			if err != nil {
				logrus.Fatal(err)
			}

			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\n", "NAME", "DEFINITION", "COMMENT", "AGE")
			for _, t := range tags {
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\n",
					t.GetName(),
					t.Definition,
					t.Comment,
					cmdutil.Age(t.GetMeta().GetCreated()),
				)
			}
			_ = wr.Flush()
		},
	}

	return runCmd
}
