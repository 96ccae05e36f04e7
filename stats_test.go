package enet

import (
	"testing"

	"github.com/slackhq/enet/config"
	"github.com/slackhq/enet/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartStats(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "disabled", raw: "stats:\n  type: none\n"},
		{name: "no interval", raw: "stats:\n  type: graphite\n", wantErr: true},
		{name: "graphite", raw: "stats:\n  type: graphite\n  interval: 10s\n  host: 127.0.0.1:2003\n"},
		{name: "graphite no host", raw: "stats:\n  type: graphite\n  interval: 10s\n", wantErr: true},
		{name: "prometheus", raw: "stats:\n  type: prometheus\n  interval: 10s\n  listen: 127.0.0.1:0\n  path: /metrics\n"},
		{name: "prometheus no path", raw: "stats:\n  type: prometheus\n  interval: 10s\n  listen: 127.0.0.1:0\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := test.NewLogger()
			c := config.NewC(l)
			require.NoError(t, c.LoadString(tt.raw))

			start, err := startStats(l, c, "test", true)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, start, "nothing starts in config test mode")
		})
	}
}
