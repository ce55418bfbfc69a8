package config

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

func NewCmdConfigListServers() *cobra.Command {
	var cfg client.Config
	cmd := &cobra.Command{
		Use:   "list-servers",
		Short: "List servers in the client configuration",
		Long:  "List servers in the client configuration",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			wr := tabwriter.NewWriter(os.Stdout, 8, 8, 8, '\t', tabwriter.AlignRight)
			_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%s\n", "CURRENT", "NAME", "ADDRESS", "TLS")
			for _, s := range cfg.Servers {
				cur := ""
				if s.Name == cfg.Current {
					cur = "*"
				}
				_, _ = fmt.Fprintf(wr, "%s\t%s\t%s\t%t\n", cur, s.Name, s.Address, s.TLSConfig != nil)
			}
			_ = wr.Flush()
		},
	}

	return cmd
}
