// Package config manages named controller settings stored as JSON values
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	configsv1 "github.com/amimof/metal/api/services/configs/v1"
)

// Well known setting names
const (
	CheckCompatibility         = "check_compatibility"
	MainArchive                = "main_archive"
	PortsArchive               = "ports_archive"
	CommissioningOSystem       = "commissioning_osystem"
	CommissioningDistroSeries  = "commissioning_distro_series"
	MaasName                   = "maas_name"
	EnlistmentDomain           = "enlistment_domain"
	DefaultOSystem             = "default_osystem"
	DefaultDistroSeries        = "default_distro_series"
	HTTPProxy                  = "http_proxy"
	UpstreamDNS                = "upstream_dns"
	DNSSECValidation           = "dnssec_validation"
	NTPServer                  = "ntp_server"
	RPCRegionCertificate       = "rpc_region_certificate"
	RPCSharedSecret            = "rpc_shared_secret"
	EnableThirdPartyDrivers    = "enable_third_party_drivers"
	EnableDiskErasingOnRelease = "enable_disk_erasing_on_release"
)

var DNSSECValidationChoices = []string{"auto", "yes", "no"}

var ErrInvalidValue = errors.New("invalid config value")

// Defaults returns the built-in value of every known setting
func Defaults() map[string]any {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "metal"
	}
	return map[string]any{
		CheckCompatibility:         false,
		MainArchive:                "http://archive.ubuntu.com/ubuntu",
		PortsArchive:               "http://ports.ubuntu.com/ubuntu-ports",
		CommissioningOSystem:       "ubuntu",
		CommissioningDistroSeries:  "focal",
		MaasName:                   hostname,
		EnlistmentDomain:           "local",
		DefaultOSystem:             "ubuntu",
		DefaultDistroSeries:        "focal",
		HTTPProxy:                  nil,
		UpstreamDNS:                nil,
		DNSSECValidation:           "auto",
		NTPServer:                  "ntp.ubuntu.com",
		RPCRegionCertificate:       nil,
		RPCSharedSecret:            nil,
		EnableThirdPartyDrivers:    true,
		EnableDiskErasingOnRelease: false,
	}
}

// ChangedFunc is called after a setting is saved. created is true the first
// time the setting is stored.
type ChangedFunc func(ctx context.Context, name string, value json.RawMessage, created bool)

type NewManagerOption func(*Manager)

func WithLogger(l logger.Logger) NewManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithDefaults replaces the built-in defaults table
func WithDefaults(d map[string]any) NewManagerOption {
	return func(m *Manager) {
		m.defaults = d
	}
}

type Manager struct {
	repo        repository.ConfigRepository
	defaults    map[string]any
	mu          sync.Mutex
	connections map[string][]ChangedFunc
	logger      logger.Logger
}

// Get returns the stored value of name, else its default, else def.
// The second return value is true when the value did not come from storage.
func (m *Manager) Get(ctx context.Context, name string, def json.RawMessage) (json.RawMessage, bool, error) {
	c, err := m.repo.Get(ctx, name)
	if err == nil {
		return c.Value, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	if d, ok := m.defaults[name]; ok {
		b, err := json.Marshal(d)
		if err != nil {
			return nil, true, err
		}
		return b, true, nil
	}
	if def == nil {
		def = json.RawMessage("null")
	}
	return slices.Clone(def), true, nil
}

// GetString decodes a string setting, returning def when unset, null or not a string
func (m *Manager) GetString(ctx context.Context, name, def string) string {
	b, _, err := m.Get(ctx, name, nil)
	if err != nil {
		m.logger.Warn("unable to read config", "name", name, "error", err)
		return def
	}
	var s *string
	if err := json.Unmarshal(b, &s); err != nil || s == nil {
		return def
	}
	return *s
}

// Set creates or overwrites name and runs the callbacks connected to it
func (m *Manager) Set(ctx context.Context, name string, value json.RawMessage) (*configsv1.Config, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("%w: name is required", ErrInvalidValue)
	}
	if err := m.validate(name, value); err != nil {
		return nil, false, err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, value); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
	}

	m.mu.Lock()
	existing, err := m.repo.Get(ctx, name)
	created := errors.Is(err, repository.ErrNotFound)
	if err != nil && !created {
		m.mu.Unlock()
		return nil, false, err
	}
	c := existing
	if created {
		c = &configsv1.Config{Meta: &types.Meta{Name: name}}
	}
	c.Value = compact.Bytes()
	c.Meta.Touch(time.Now().UTC())
	if created {
		err = m.repo.Create(ctx, c)
	} else {
		err = m.repo.Update(ctx, c)
	}
	connections := slices.Clone(m.connections[name])
	m.mu.Unlock()
	if err != nil {
		return nil, false, err
	}

	for _, fn := range connections {
		fn(ctx, name, c.Value, created)
	}
	return c, created, nil
}

// ConnectChanged registers fn to run after every save of name
func (m *Manager) ConnectChanged(name string, fn ChangedFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[name] = append(m.connections[name], fn)
}

// List returns every stored setting merged over the defaults, ordered by name
func (m *Manager) List(ctx context.Context) ([]*configsv1.Config, error) {
	stored, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]*configsv1.Config{}
	for _, c := range stored {
		byName[c.GetName()] = c
	}
	for name, d := range m.defaults {
		if _, ok := byName[name]; ok {
			continue
		}
		b, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		byName[name] = &configsv1.Config{Meta: &types.Meta{Name: name}, Value: b, Default: true}
	}

	res := make([]*configsv1.Config, 0, len(byName))
	for _, c := range byName {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetName() < res[j].GetName() })
	return res, nil
}

// validate checks values of known settings against the type of their default
func (m *Manager) validate(name string, value json.RawMessage) error {
	var v any
	if err := json.Unmarshal(value, &v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
	}
	if name == DNSSECValidation {
		s, ok := v.(string)
		if !ok || !slices.Contains(DNSSECValidationChoices, s) {
			return fmt.Errorf("%w: %s must be one of %v", ErrInvalidValue, name, DNSSECValidationChoices)
		}
		return nil
	}
	d, known := m.defaults[name]
	if !known || v == nil {
		return nil
	}
	switch d.(type) {
	case bool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidValue, name)
		}
	case string:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: %s must be a string", ErrInvalidValue, name)
		}
	}
	return nil
}

func NewManager(repo repository.ConfigRepository, opts ...NewManagerOption) *Manager {
	m := &Manager{
		repo:        repo,
		defaults:    Defaults(),
		connections: map[string][]ChangedFunc{},
		logger:      logger.ConsoleLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
