package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slackhq/enet/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Load(t *testing.T) {
	l := test.NewLogger()
	dir := t.TempDir()

	// invalid yaml
	c := NewC(l)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01.yml"), []byte(" invalid yaml"), 0600))
	assert.Error(t, c.Load(dir))

	// simple multi config merge, later files win and slices append
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01.yml"), []byte("mac:\n  tx_ring_size: 4\n  filters: [\"01:00:5e:00:00:01\"]\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02.yaml"), []byte("mac:\n  tx_ring_size: 8\n  filters: [\"01:00:5e:00:00:fb\"]\nnew: hi\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("nope: 1\n"), 0600))

	c = NewC(l)
	require.NoError(t, c.Load(dir))
	assert.Equal(t, 8, c.GetInt("mac.tx_ring_size", 3))
	assert.Equal(t, []string{"01:00:5e:00:00:fb", "01:00:5e:00:00:01"}, c.GetStringSlice("mac.filters", nil))
	assert.Equal(t, "hi", c.GetString("new", ""))
	assert.False(t, c.IsSet("nope"))

	// a directory without yaml files
	empty := t.TempDir()
	assert.EqualError(t, NewC(l).Load(empty), "no config files found at "+empty)
}

func TestConfig_Get(t *testing.T) {
	l := test.NewLogger()
	// test simple type
	c := NewC(l)
	c.Settings["mac"] = map[string]any{"address": "02:00:00:00:00:01"}
	assert.Equal(t, "02:00:00:00:00:01", c.Get("mac.address"))

	// test complex type
	inner := []any{"01:00:5e:00:00:01"}
	c.Settings["mac"] = map[string]any{"filters": inner}
	assert.EqualValues(t, inner, c.Get("mac.filters"))

	// test missing
	assert.Nil(t, c.Get("mac.nope"))
	assert.Nil(t, c.Get("mac.filters.deeper"))
}

func TestConfig_GetNumbers(t *testing.T) {
	l := test.NewLogger()
	c := NewC(l)
	c.Settings["mac"] = map[string]any{"tx_ring_size": 8, "mdc_divider": "-1", "buffer_size": "big"}
	c.Settings["tick"] = map[string]any{"interval": "250ms"}

	assert.Equal(t, 8, c.GetInt("mac.tx_ring_size", 3))
	assert.Equal(t, 1536, c.GetInt("mac.buffer_size", 1536))
	assert.Equal(t, uint32(19), c.GetUint32("mac.mdc_divider", 19))
	assert.Equal(t, uint32(8), c.GetUint32("mac.tx_ring_size", 3))
	assert.Equal(t, 250*time.Millisecond, c.GetDuration("tick.interval", time.Second))
	assert.Equal(t, time.Second, c.GetDuration("tick.missing", time.Second))
}

func TestConfig_GetStringSlice(t *testing.T) {
	l := test.NewLogger()
	c := NewC(l)
	c.Settings["slice"] = []any{"one", "two"}
	assert.Equal(t, []string{"one", "two"}, c.GetStringSlice("slice", []string{}))

	c.Settings["slice"] = "one"
	assert.Equal(t, []string{"d"}, c.GetStringSlice("slice", []string{"d"}))
}

func TestConfig_GetBool(t *testing.T) {
	l := test.NewLogger()
	c := NewC(l)
	c.Settings["bool"] = true
	assert.Equal(t, true, c.GetBool("bool", false))

	c.Settings["bool"] = "true"
	assert.Equal(t, true, c.GetBool("bool", false))

	c.Settings["bool"] = false
	assert.Equal(t, false, c.GetBool("bool", true))

	c.Settings["bool"] = "false"
	assert.Equal(t, false, c.GetBool("bool", true))

	c.Settings["bool"] = "Y"
	assert.Equal(t, true, c.GetBool("bool", false))

	c.Settings["bool"] = "yEs"
	assert.Equal(t, true, c.GetBool("bool", false))

	c.Settings["bool"] = "N"
	assert.Equal(t, false, c.GetBool("bool", true))

	c.Settings["bool"] = "nO"
	assert.Equal(t, false, c.GetBool("bool", true))

	c.Settings["bool"] = "maybe"
	assert.Equal(t, true, c.GetBool("bool", true))
}

func TestConfig_HasChanged(t *testing.T) {
	l := test.NewLogger()
	// No reload has occurred, return false
	c := NewC(l)
	c.Settings["test"] = "hi"
	assert.False(t, c.HasChanged(""))

	// Test key change
	c = NewC(l)
	c.Settings["test"] = "hi"
	c.oldSettings = map[string]any{"test": "no"}
	assert.True(t, c.HasChanged("test"))
	assert.True(t, c.HasChanged(""))

	// No key change
	c = NewC(l)
	c.Settings["test"] = "hi"
	c.oldSettings = map[string]any{"test": "hi"}
	assert.False(t, c.HasChanged("test"))
	assert.False(t, c.HasChanged(""))
}

func TestConfig_ReloadConfig(t *testing.T) {
	l := test.NewLogger()
	done := make(chan bool, 1)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("link:\n  speed: 100\n"), 0600))

	c := NewC(l)
	require.NoError(t, c.Load(path))
	assert.True(t, c.InitialLoad())

	assert.False(t, c.HasChanged("link.speed"))
	assert.False(t, c.HasChanged("link"))
	assert.False(t, c.HasChanged(""))

	c.RegisterReloadCallback(func(c *C) {
		done <- true
	})

	require.NoError(t, os.WriteFile(path, []byte("link:\n  speed: 10\n"), 0600))
	c.ReloadConfig()
	assert.False(t, c.InitialLoad())
	assert.True(t, c.HasChanged("link.speed"))
	assert.True(t, c.HasChanged("link"))
	assert.True(t, c.HasChanged(""))
	assert.Equal(t, 10, c.GetInt("link.speed", 0))

	// Make sure we call the callbacks
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("reload callback was not called")
	}
}

func TestConfig_ReloadConfigString(t *testing.T) {
	l := test.NewLogger()
	c := NewC(l)
	require.NoError(t, c.LoadString("mac:\n  address: \"02:00:00:00:00:01\"\n"))

	calls := 0
	c.RegisterReloadCallback(func(c *C) { calls++ })

	require.NoError(t, c.ReloadConfigString("mac:\n  address: \"02:00:00:00:00:02\"\n"))
	assert.Equal(t, 1, calls)
	assert.True(t, c.HasChanged("mac.address"))

	assert.Error(t, c.ReloadConfigString(""))
	assert.Equal(t, 1, calls)
}
