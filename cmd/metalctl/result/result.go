// Package result provides commands for reporting script results
package result

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"

	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
)

var output string

func NewCmdResult() *cobra.Command {
	var cfg client.Config
	resultCmd := &cobra.Command{
		Use:   "result",
		Short: "Report and read script results",
		Long:  "Report and read script results",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
	}
	resultCmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "Output format (json, yaml)")

	resultCmd.AddCommand(NewCmdResultStore(&cfg))
	resultCmd.AddCommand(NewCmdResultStatus(&cfg))
	resultCmd.AddCommand(NewCmdResultRead(&cfg))

	return resultCmd
}

func withClient(cfg *client.Config, span string, timeout time.Duration, fn func(ctx context.Context, c *client.ClientSet) error) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		ctx, s := otel.Tracer("metalctl").Start(ctx, span)
		defer s.End()

		c, err := cmdutil.Connect(cfg)
		if err != nil {
			logrus.Fatalf("error setting up client: %v", err)
		}
		defer func() {
			if err := c.Close(); err != nil {
				logrus.Errorf("error closing client connection: %v", err)
			}
		}()

		if err := fn(ctx, c); err != nil {
			logrus.Fatal(err)
		}
	}
}

func readOptional(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		logrus.Fatalf("error reading %s: %v", path, err)
	}
	return b
}

func NewCmdResultStore(cfg *client.Config) *cobra.Command {
	var (
		exitStatus    int
		scriptVersion int
		timedOut      bool
		outputFile    string
		stdoutFile    string
		stderrFile    string
		resultFile    string
	)
	var id string
	cmd := &cobra.Command{
		Use:   "store ID",
		Short: "Upload the outcome of a script run",
		Long:  "Upload the outcome of a script run. Omitted fields keep their stored value",
		Example: `
# Store a successful lshw run
metalctl result store 12 --exit-status 0 --stdout lshw.xml
`,
		Args: cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			id = args[0]
		},
	}
	cmd.Run = withClient(cfg, "metalctl.result.store", time.Second*60, func(ctx context.Context, c *client.ClientSet) error {
		req := &scriptsv1.StoreResultRequest{
			Id:       id,
			Output:   readOptional(outputFile),
			Stdout:   readOptional(stdoutFile),
			Stderr:   readOptional(stderrFile),
			Result:   readOptional(resultFile),
			TimedOut: timedOut,
		}
		if cmd.Flags().Changed("exit-status") {
			req.ExitStatus = &exitStatus
		}
		if cmd.Flags().Changed("script-version") {
			req.ScriptVersionID = &scriptVersion
		}

		res, err := c.ScriptV1().StoreResult(ctx, req)
		if err != nil {
			return err
		}
		logrus.Infof("result %s of %s is %s", res.ID(), res.Name(), res.StatusName())
		return nil
	})
	cmd.Flags().IntVar(&exitStatus, "exit-status", 0, "Exit status of the script")
	cmd.Flags().IntVar(&scriptVersion, "script-version", 0, "Version of the script that ran")
	cmd.Flags().BoolVar(&timedOut, "timedout", false, "The script was killed after running out of time")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "File with the combined output")
	cmd.Flags().StringVar(&stdoutFile, "stdout", "", "File with standard output")
	cmd.Flags().StringVar(&stderrFile, "stderr", "", "File with standard error")
	cmd.Flags().StringVar(&resultFile, "result", "", "File with the YAML result document")

	return cmd
}

func NewCmdResultStatus(cfg *client.Config) *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move a result to another status",
		Long:  "Move a result to another status, for example when a script starts running",
		Example: `
metalctl result status 12 running
metalctl result status 12 "Installing dependencies"
`,
		Args: cobra.ExactArgs(2),
		PreRun: func(cmd *cobra.Command, args []string) {
			id, name = args[0], args[1]
		},
	}
	cmd.Run = withClient(cfg, "metalctl.result.status", time.Second*30, func(ctx context.Context, c *client.ClientSet) error {
		st, err := cmdutil.ParseScriptStatus(name)
		if err != nil {
			return err
		}
		res, err := c.ScriptV1().SetStatus(ctx, id, st)
		if err != nil {
			return err
		}
		logrus.Infof("result %s is %s", res.ID(), cmdutil.FormatScriptStatus(res.Status))
		return nil
	})
	return cmd
}

func NewCmdResultRead(cfg *client.Config) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:     "read ID",
		Short:   "Print the parsed YAML result document of a result",
		Long:    "Print the parsed YAML result document of a result",
		Example: `metalctl result read 12 -o json`,
		Args:    cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			id = args[0]
		},
	}
	cmd.Run = withClient(cfg, "metalctl.result.read", time.Second*30, func(ctx context.Context, c *client.ClientSet) error {
		parsed, err := c.ScriptV1().ReadResults(ctx, id)
		if err != nil {
			return err
		}
		if parsed == nil {
			logrus.Infof("result %s has no result document", id)
			return nil
		}
		codec, err := cmdutil.CodecFor(output)
		if err != nil {
			return err
		}
		b, err := codec.Serialize(parsed)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	})
	return cmd
}
