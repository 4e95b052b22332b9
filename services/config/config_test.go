package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bringup-go/bus"
	"bringup-go/errcode"
	"bringup-go/types"
)

var smdkFlags = []types.Feature{"sd_ch0", "sd_ch1", "wm1190_ev1"}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cfg, err := Load("smdk6410", smdkFlags, "")
	require.NoError(t, err)
	assert.Equal(t, []types.Feature{"sd_ch0"}, cfg.Features())
}

func TestLoad_OverridesWin(t *testing.T) {
	cfg, err := Load("smdk6410", smdkFlags, "-sd_ch0 wm1190_ev1, sd_ch1=true")
	require.NoError(t, err)
	assert.Equal(t, []types.Feature{"sd_ch1", "wm1190_ev1"}, cfg.Features())
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load("smdk6410", smdkFlags, "sd_ch2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.ConfigurationDefect))
	assert.Equal(t, "sd_ch2", errcode.ResourceOf(err))
}

func TestLoad_NoEmbeddedDefaults(t *testing.T) {
	old := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = old })

	cfg, err := Load("smdk6410", smdkFlags, "")
	require.NoError(t, err)
	assert.Empty(t, cfg.Features())
}

func TestLoad_BadEmbeddedJSON(t *testing.T) {
	old := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return []byte(`{"features": [`), true }
	t.Cleanup(func() { EmbeddedConfigLookup = old })

	_, err := Load("smdk6410", smdkFlags, "")
	assert.Equal(t, errcode.ConfigurationDefect, errcode.Of(err))
}

func TestLoad_DefaultsNamingUnknownFlag(t *testing.T) {
	old := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return []byte(`{"features": {"dm9000": true}}`), true }
	t.Cleanup(func() { EmbeddedConfigLookup = old })

	_, err := Load("smdk6410", smdkFlags, "")
	assert.Equal(t, errcode.ConfigurationDefect, errcode.Of(err))
}

func TestParseFeatures(t *testing.T) {
	cases := []struct {
		in   string
		want map[types.Feature]bool
	}{
		{"", map[types.Feature]bool{}},
		{"a", map[types.Feature]bool{"a": true}},
		{"-a", map[types.Feature]bool{"a": false}},
		{"a=false b=1", map[types.Feature]bool{"a": false, "b": true}},
		{"a,b -a", map[types.Feature]bool{"a": false, "b": true}},
		{`'a' "b=true"`, map[types.Feature]bool{"a": true, "b": true}},
	}
	for _, tc := range cases {
		got, err := ParseFeatures(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"a=maybe", "-", "=true", `"unterminated`} {
		_, err := ParseFeatures(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("BRINGUP_BOARD", "smdk6410")
	t.Setenv("BRINGUP_FEATURES", "wm1190_ev1")
	t.Setenv("BRINGUP_LOG_LEVEL", "debug")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "smdk6410", e.Board)
	assert.Equal(t, "wm1190_ev1", e.Features)
	assert.Equal(t, "debug", e.LogLevel)
	assert.Equal(t, DefaultGPIO, e.GPIO)
}

func TestPublish_RetainedPerFlag(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	cfg := types.NewBoardConfiguration(map[types.Feature]bool{"wm1190_ev1": true})

	Publish(conn, "smdk6410", smdkFlags, cfg)

	sub := conn.Subscribe(bus.T(configPrefix, "smdk6410", "#"))
	got := map[string]bool{}
	deadline := time.Now().Add(500 * time.Millisecond)
	for len(got) < len(smdkFlags) && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			got[m.Topic[2]] = m.Payload.(bool)
		case <-time.After(10 * time.Millisecond):
		}
	}
	assert.Equal(t, map[string]bool{"sd_ch0": false, "sd_ch1": false, "wm1190_ev1": true}, got)
}
