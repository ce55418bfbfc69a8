package create

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/client"

	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

func NewCmdCreateTag(cfg *client.Config) *cobra.Command {
	var (
		definition string
		comment    string
		kernelOpts string
	)
	runCmd := &cobra.Command{
		Use:   "tag NAME",
		Short: "Create a tag",
		Long:  "Create a tag. Tags with an XPath definition are applied to matching nodes automatically",
		Example: `
# Tag every node whose lshw reports a KVM product
metalctl create tag virtual --definition '//node[@class="system"]/product[contains(., "KVM")]'

# Create a manual tag
metalctl create tag gpu --comment "nodes with gpus"
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
			ctx, span := tracer.Start(ctx, "metalctl.create.tag")
			defer span.End()

			c := connect(cfg)
			defer closeClient(c)

			tag := &tagsv1.Tag{
				Meta: &types.Meta{
					Name:   args[0],
					Labels: resourceLabels,
				},
				Definition: definition,
				Comment:    comment,
			}
			if cmd.Flags().Changed("kernel-opts") {
				tag.KernelOpts = &kernelOpts
			}

			if _, err := c.TagV1().Create(ctx, tag); err != nil {
				logrus.Fatal(err)
			}

			logrus.Infof("tag %s created", args[0])
		},
	}
	runCmd.Flags().StringVar(&definition, "definition", "", "XPath expression evaluated against node hardware details")
	runCmd.Flags().StringVar(&comment, "comment", "", "Free form comment")
	runCmd.Flags().StringVar(&kernelOpts, "kernel-opts", "", "Kernel options for nodes carrying the tag")

	return runCmd
}
