package mqttbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpdate(t *testing.T) {
	u, err := ParseUpdate([]byte(`{"startAddress": 5, "channels": [10, 20, 30]}`))
	require.NoError(t, err)
	assert.Equal(t, 5, u.Start())
	assert.Equal(t, []int{10, 20, 30}, u.Channels)
}

func TestParseUpdateDefaultStart(t *testing.T) {
	u, err := ParseUpdate([]byte(`{"channels": [1, 2]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, u.Start())
}

func TestParseUpdateInvalidPayload(t *testing.T) {
	for _, payload := range []string{"", "not json", `{"channels": "nope"}`} {
		_, err := ParseUpdate([]byte(payload))
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestConfTopics(t *testing.T) {
	c := Conf{TopicPrefix: "stage/dmx"}
	assert.Equal(t, "stage/dmx/set", c.setTopic())
	assert.Equal(t, "stage/dmx/blackout", c.blackoutTopic())
	assert.Equal(t, "stage/dmx/status", c.statusTopic())
}
