package get

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

func NewCmdGetScript(cfg *client.Config) *cobra.Command {
	runCmd := &cobra.Command{
		Use:     "scripts [NAME]",
		Short:   "Get scripts",
		Long:    "Get scripts",
		Aliases: []string{"script"},
		Example: `metalctl get script lshw -o yaml`,
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
			ctx, span := tracer.Start(ctx, "metalctl.get.script")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			if len(args) == 1 {
				script, err := c.ScriptV1().GetScript(ctx, args[0])
				if err != nil {
					logrus.Fatal(err)
				}
				printObject(script)
				return
			}

			scripts, err := c.ScriptV1().ListScripts(ctx)
			if err != nil {
				logrus.Fatal(err)
			}

			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\t%s\n", "ID", "NAME", "TYPE", "VERSIONS", "AGE")
			for _, s := range scripts {
				_, _ = fmt.Fprintf(wr, "%d\t%s\t%s\t%d\t%s\n",
					s.ID,
					s.GetName(),
					s.ScriptType,
					len(s.Versions),
					cmdutil.Age(s.GetMeta().GetCreated()),
				)
			}
			_ = wr.Flush()
		},
	}

	return runCmd
}

func NewCmdGetScriptSet(cfg *client.Config) *cobra.Command {
	var nodeID string
	runCmd := &cobra.Command{
		Use:     "scriptsets [ID]",
		Short:   "Get script sets",
		Long:    "Get script sets",
		Aliases: []string{"scriptset"},
		Example: `metalctl get scriptsets --node 4y3h7n`,
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
			ctx, span := tracer.Start(ctx, "metalctl.get.scriptset")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			if len(args) == 1 {
				set, err := c.ScriptV1().GetScriptSet(ctx, args[0])
				if err != nil {
					logrus.Fatal(err)
				}
				printObject(set)
				return
			}

			sets, err := c.ScriptV1().ListScriptSets(ctx, nodeID)
			if err != nil {
				logrus.Fatal(err)
			}

			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\n", "ID", "NODE", "RESULT TYPE", "AGE")
			for _, s := range sets {
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\n",
					s.ID(),
					s.NodeID,
					s.ResultType.String(),
					cmdutil.Age(s.GetMeta().GetCreated()),
				)
			}
			_ = wr.Flush()
		},
	}
	runCmd.Flags().StringVar(&nodeID, "node", "", "Only list script sets of this node")

	return runCmd
}

func NewCmdGetResult(cfg *client.Config) *cobra.Command {
	var setID string
	runCmd := &cobra.Command{
		Use:     "results [ID]",
		Short:   "Get script results",
		Long:    "Get script results",
		Aliases: []string{"result"},
		Example: `
# List the results in script set 3
metalctl get results --script-set 3

# Show a single result
metalctl get result 12 -o yaml
`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if len(args) == 0 && setID == "" {
				return fmt.Errorf("either a result id or --script-set is required")
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
			defer cancel()

			tracer := otel.Tracer("metalctl")
			ctx, span := tracer.Start(ctx, "metalctl.get.result")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			if len(args) == 1 {
				res, err := c.ScriptV1().GetResult(ctx, args[0])
				if err != nil {
					logrus.Fatal(err)
				}
				printObject(res)
				return
			}

			results, err := c.ScriptV1().ListResults(ctx, setID)
			if err != nil {
				logrus.Fatal(err)
			}

			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\t%s\n", "ID", "NAME", "STATUS", "EXIT", "RUNTIME")
			for _, r := range results {
				exit := ""
				if r.ExitStatus != nil {
					exit = strconv.Itoa(*r.ExitStatus)
				}
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\t%s\n",
					r.ID(),
					r.Name(),
					cmdutil.FormatScriptStatus(r.Status),
					exit,
					r.Runtime(),
				)
			}
			_ = wr.Flush()
		},
	}
	runCmd.Flags().StringVar(&setID, "script-set", "", "Script set to list results for")

	return runCmd
}
