package cmdutil

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/amimof/metal/pkg/client"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
)

// ReadConfig loads the metalctl configuration file viper points at into cfg
func ReadConfig(cfg *client.Config) error {
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config: %w", err)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error decoding config into struct: %w", err)
	}
	return cfg.Validate()
}

// Connect returns a clientset for the current server of cfg
func Connect(cfg *client.Config) (*client.ClientSet, error) {
	srv, err := cfg.CurrentServer()
	if err != nil {
		return nil, err
	}
	return client.New(srv.Address,
		client.WithTLSConfigFromCfg(cfg),
		client.WithEndpoint(eventsv1.Endpoint_CLI),
	)
}

func ParseResultType(s string) (scriptsv1.ResultType, error) {
	for _, r := range []scriptsv1.ResultType{scriptsv1.ResultTypeCommissioning, scriptsv1.ResultTypeInstallation, scriptsv1.ResultTypeTesting} {
		if strings.EqualFold(r.String(), s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown result type %q", s)
}

// ParseScriptStatus accepts the display name of a status, ignoring case
func ParseScriptStatus(s string) (scriptsv1.Status, error) {
	for st := scriptsv1.StatusPending; st <= scriptsv1.StatusFailedInstalling; st++ {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown script status %q", s)
}
