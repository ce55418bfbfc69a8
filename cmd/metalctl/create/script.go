package create

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"

	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
)

func NewCmdCreateScript(cfg *client.Config) *cobra.Command {
	var (
		file        string
		description string
		scriptType  string
	)
	runCmd := &cobra.Command{
		Use:   "script NAME",
		Short: "Upload a script",
		Long:  "Upload a script. Uploading to an existing script adds a new version",
		Example: `
# Upload a commissioning script
metalctl create script 50-lsblk -f ./lsblk.sh --type commissioning
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
			defer cancel()

			tracer := otel.Tracer("metalctl")
			ctx, span := tracer.Start(ctx, "metalctl.create.script")
			defer span.End()

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Fatalf("error reading script: %v", err)
			}

			c := connect(cfg)
			defer closeClient(c)

			name := args[0]
			script, err := c.ScriptV1().GetScript(ctx, name)
			switch {
			case err == nil:
				script, err = c.ScriptV1().UpdateScript(ctx, name, string(data))
			case status.Code(err) == codes.NotFound:
				script, err = c.ScriptV1().CreateScript(ctx, &scriptsv1.Script{
					Meta: &types.Meta{
						Name:   name,
						Labels: resourceLabels,
					},
					ScriptType:  scriptsv1.ScriptType(scriptType),
					Description: description,
				}, string(data))
			}
			if err != nil {
				logrus.Fatal(err)
			}

			logrus.Infof("script %s is at version %d", name, script.Current().ID)
		},
	}
	runCmd.Flags().StringVarP(&file, "file", "f", "", "Path to the script")
	runCmd.Flags().StringVar(&description, "description", "", "Description of the script")
	runCmd.Flags().StringVar(&scriptType, "type", string(scriptsv1.ScriptTypeCommissioning), "Script type (commissioning, testing)")

	return runCmd
}

func NewCmdCreateScriptSet(cfg *client.Config) *cobra.Command {
	var (
		resultType string
		scripts    []string
		params     map[string]string
	)
	runCmd := &cobra.Command{
		Use:   "scriptset NODE",
		Short: "Create a script set for a node",
		Long:  "Create a script set for a node with a pending result for each script",
		Example: `
# Commission node 4y3h7n with the builtin scripts
metalctl create scriptset 4y3h7n --scripts 00-maas-01-lshw,00-maas-02-virtuality
`,
		Args: cobra.ExactArgs(1),
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
			ctx, span := tracer.Start(ctx, "metalctl.create.scriptset")
			defer span.End()

			rt, err := cmdutil.ParseResultType(resultType)
			if err != nil {
				logrus.Fatal(err)
			}

			c := connect(cfg)
			defer closeClient(c)

			req := &scriptsv1.CreateScriptSetRequest{
				NodeID:     args[0],
				ResultType: rt,
				Scripts:    scripts,
			}
			if len(params) > 0 {
				req.Parameters = map[string]any{}
				for k, v := range params {
					req.Parameters[k] = v
				}
			}

			resp, err := c.ScriptV1().CreateScriptSet(ctx, req)
			if err != nil {
				logrus.Fatal(err)
			}

			for _, r := range resp.Results {
				logrus.Infof("result %s created for script %s", r.ID(), r.Name())
			}
			logrus.Infof("script set %s created", resp.ScriptSet.ID())
		},
	}
	runCmd.Flags().StringVar(&resultType, "result-type", scriptsv1.ResultTypeCommissioning.String(), "Result type (commissioning, installation, testing)")
	runCmd.Flags().StringSliceVar(&scripts, "scripts", nil, "Scripts to include")
	runCmd.Flags().StringToStringVar(&params, "param", nil, "Script parameters as key value pairs")

	return runCmd
}
