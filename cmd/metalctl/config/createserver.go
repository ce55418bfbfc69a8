package config

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amimof/metal/pkg/client"
)

func NewCmdConfigCreateServer() *cobra.Command {
	var cfg client.Config
	cmd := &cobra.Command{
		Use:   "create-server NAME",
		Short: "Add a server to metalctl client configuration",
		Long:  "Add a server to metalctl client configuration",
		Example: `
# Create a server with TLS
metalctl config create-server dev --address localhost:5743 --tls --ca ca.crt
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := viper.ReadInConfig(); err != nil {
				logrus.Fatalf("error reading config: %v", err)
			}
			if err := viper.Unmarshal(&cfg); err != nil {
				logrus.Fatalf("error decoding config into struct: %v", err)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			serverName := args[0]

			newServer := &client.Server{
				Name:    serverName,
				Address: address,
			}

			if tls || insecure {
				newServer.TLSConfig = &client.TLSConfig{
					Insecure: insecure,
				}
				if caFile != "" {
					caData, err := os.ReadFile(caFile)
					if err != nil {
						logrus.Fatalf("error reading ca file: %v", err)
					}
					newServer.TLSConfig.CA = string(caData)
				}
				if certFile != "" {
					certData, err := os.ReadFile(certFile)
					if err != nil {
						logrus.Fatalf("error reading certificate file: %v", err)
					}
					newServer.TLSConfig.Certificate = string(certData)
				}
				if keyFile != "" {
					keyData, err := os.ReadFile(keyFile)
					if err != nil {
						logrus.Fatalf("error reading key file: %v", err)
					}
					newServer.TLSConfig.Key = string(keyData)
				}
			}

			if err := cfg.AddServer(newServer); err != nil {
				logrus.Fatalf("error adding server to config: %v", err)
			}
			if current {
				cfg.Current = newServer.Name
			}

			if err := writeConfig(&cfg); err != nil {
				logrus.Fatalf("error writing config file: %v", err)
			}

			logrus.Infof("Added server %v to configuration", serverName)
		},
	}

	return cmd
}
