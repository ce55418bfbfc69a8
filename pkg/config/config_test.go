package config

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(repository.NewConfigInMemRepo(), WithLogger(&logger.DevNullLogger{}))
}

func TestManagerGet(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	tests := []struct {
		name      string
		key       string
		def       json.RawMessage
		expect    string
		isDefault bool
	}{
		{name: "built-in default", key: EnlistmentDomain, expect: `"local"`, isDefault: true},
		{name: "null default", key: HTTPProxy, expect: `null`, isDefault: true},
		{name: "unknown uses supplied default", key: "foo", def: json.RawMessage(`"bar"`), expect: `"bar"`, isDefault: true},
		{name: "unknown without default", key: "foo", expect: `null`, isDefault: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, isDefault, err := m.Get(ctx, tt.key, tt.def)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expect, string(v))
			assert.Equal(t, tt.isDefault, isDefault)
		})
	}
}

func TestManagerDefaultsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	def := json.RawMessage(`"bar"`)
	v, _, err := m.Get(ctx, "foo", def)
	require.NoError(t, err)
	v[1] = 'x'
	assert.Equal(t, `"bar"`, string(def))
}

func TestManagerSet(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	var calls []bool
	m.ConnectChanged(EnlistmentDomain, func(_ context.Context, name string, value json.RawMessage, created bool) {
		assert.Equal(t, EnlistmentDomain, name)
		calls = append(calls, created)
	})

	_, created, err := m.Set(ctx, EnlistmentDomain, json.RawMessage(`"maas"`))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "maas", m.GetString(ctx, EnlistmentDomain, ""))

	c, created, err := m.Set(ctx, EnlistmentDomain, json.RawMessage(` "lab" `))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, `"lab"`, string(c.Value))
	assert.Equal(t, uint64(2), c.GetMeta().GetRevision())

	assert.Equal(t, []bool{true, false}, calls)

	// Other names do not trigger the callback
	_, _, err = m.Set(ctx, NTPServer, json.RawMessage(`"pool.ntp.org"`))
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}

func TestManagerSetValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	tests := []struct {
		name  string
		key   string
		value string
		valid bool
	}{
		{name: "dnssec auto", key: DNSSECValidation, value: `"auto"`, valid: true},
		{name: "dnssec no", key: DNSSECValidation, value: `"no"`, valid: true},
		{name: "dnssec unknown", key: DNSSECValidation, value: `"maybe"`},
		{name: "dnssec null", key: DNSSECValidation, value: `null`},
		{name: "bool setting", key: EnableThirdPartyDrivers, value: `false`, valid: true},
		{name: "bool setting as string", key: EnableThirdPartyDrivers, value: `"false"`},
		{name: "string setting as number", key: MainArchive, value: `1`},
		{name: "nullable setting", key: HTTPProxy, value: `"http://proxy:3128"`, valid: true},
		{name: "unknown setting", key: "anything", value: `{"a":[1,2]}`, valid: true},
		{name: "malformed json", key: "anything", value: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := m.Set(ctx, tt.key, json.RawMessage(tt.value))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestManagerList(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	_, _, err := m.Set(ctx, MaasName, json.RawMessage(`"region"`))
	require.NoError(t, err)
	_, _, err = m.Set(ctx, "custom", json.RawMessage(`1`))
	require.NoError(t, err)

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(Defaults())+1)

	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].GetName(), list[i].GetName())
	}

	for _, c := range list {
		switch c.GetName() {
		case MaasName:
			assert.False(t, c.Default)
			assert.Equal(t, `"region"`, string(c.Value))
		case "custom":
			assert.False(t, c.Default)
		case CheckCompatibility:
			assert.True(t, c.Default)
			assert.Equal(t, `false`, string(c.Value))
		}
	}
}
