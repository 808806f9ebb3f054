package configure

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The struct defaults must actually reach the merged settings; they sit
// below the flag, file and env layers.
func TestDefaultSettingsMerge(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	assert.Equal(t, "config.yaml", settings["config"])

	config := viper.New()
	require.NoError(t, config.MergeConfigMap(settings))
	assert.Equal(t, "config.yaml", config.GetString("config"))
}

func TestLabelsToPrometheus(t *testing.T) {
	t.Parallel()

	l := Labels{
		{Key: "node", Value: "worker-1"},
		{Key: "zone", Value: "eu-1"},
	}

	mp := l.ToPrometheus()
	assert.Equal(t, "worker-1", mp["node"])
	assert.Equal(t, "eu-1", mp["zone"])
}
