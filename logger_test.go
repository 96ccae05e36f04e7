package enet

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/config"
	"github.com/slackhq/enet/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLogger(t *testing.T) {
	l := test.NewLogger()
	c := config.NewC(l)

	require.NoError(t, c.LoadString("logging:\n  level: debug\n  format: json\n  disable_timestamp: true\n"))
	require.NoError(t, configLogger(l, c))
	assert.Equal(t, logrus.DebugLevel, l.Level)
	f, ok := l.Formatter.(*logrus.JSONFormatter)
	require.True(t, ok)
	assert.True(t, f.DisableTimestamp)

	require.NoError(t, c.ReloadConfigString("logging:\n  level: warning\n  timestamp_format: \"2006\"\n"))
	require.NoError(t, configLogger(l, c))
	assert.Equal(t, logrus.WarnLevel, l.Level)
	tf, ok := l.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.True(t, tf.FullTimestamp)

	require.NoError(t, c.ReloadConfigString("logging:\n  format: xml\n"))
	assert.Error(t, configLogger(l, c))
}
