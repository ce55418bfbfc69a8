// Package setting provides commands for reading and changing server settings
package setting

import (
	"context"
	"encoding/json"
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

func NewCmdSetting() *cobra.Command {
	var cfg client.Config
	settingCmd := &cobra.Command{
		Use:     "setting",
		Short:   "Read and change server settings",
		Long:    "Read and change server settings",
		Aliases: []string{"settings"},
		Args:    cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
	}

	settingCmd.AddCommand(&cobra.Command{
		Use:     "get NAME",
		Short:   "Print a setting",
		Example: `metalctl setting get maas_name`,
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd, &cfg, "metalctl.setting.get", func(ctx context.Context, c *client.ClientSet) error {
				s, err := c.ConfigV1().Get(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Println(string(s.Value))
				return nil
			})
		},
	})

	settingCmd.AddCommand(&cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Change a setting",
		Long:  "Change a setting. VALUE is parsed as JSON and stored as a string when it is not valid JSON",
		Example: `
metalctl setting set maas_name lab
metalctl setting set enable_analytics false
`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd, &cfg, "metalctl.setting.set", func(ctx context.Context, c *client.ClientSet) error {
				s, err := c.ConfigV1().Set(ctx, args[0], toJSON(args[1]))
				if err != nil {
					return err
				}
				logrus.Infof("%s set to %s", args[0], string(s.Value))
				return nil
			})
		},
	})

	settingCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every setting",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd, &cfg, "metalctl.setting.list", func(ctx context.Context, c *client.ClientSet) error {
				settings, err := c.ConfigV1().List(ctx)
				if err != nil {
					return err
				}
				wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\n", "NAME", "VALUE", "DEFAULT")
				for _, s := range settings {
					_, _ = fmt.Fprintf(wr, "%s\t%s\t%t\n", s.GetMeta().GetName(), string(s.Value), s.Default)
				}
				return wr.Flush()
			})
		},
	})

	return settingCmd
}

func run(cmd *cobra.Command, cfg *client.Config, span string, fn func(ctx context.Context, c *client.ClientSet) error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
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

func toJSON(v string) json.RawMessage {
	if json.Valid([]byte(v)) {
		return json.RawMessage(v)
	}
	b, _ := json.Marshal(v)
	return b
}
