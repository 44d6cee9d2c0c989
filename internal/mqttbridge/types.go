package mqttbridge

import (
	"encoding/json"
	"fmt"
)

// Conf holds the broker connection settings and the topic prefix.
type Conf struct {
	ClientID    string // ClientID - unique client name for the broker.
	Host        string // Host - broker address.
	Port        string // Port - broker port.
	User        string // User - broker login.
	Password    string // Password - broker password.
	TopicPrefix string // TopicPrefix - root of the control topics, e.g. "dmx".
}

func (c Conf) setTopic() string      { return c.TopicPrefix + "/set" }
func (c Conf) blackoutTopic() string { return c.TopicPrefix + "/blackout" }
func (c Conf) statusTopic() string   { return c.TopicPrefix + "/status" }

// Update is a channel update received over MQTT. Same shape as the HTTP
// /dmx request body.
type Update struct {
	StartAddress *int  `json:"startAddress"`
	Channels     []int `json:"channels"`
}

// Start returns the start channel, defaulting to 1.
func (u Update) Start() int {
	if u.StartAddress == nil {
		return 1
	}
	return *u.StartAddress
}

// ParseUpdate decodes an update payload.
func ParseUpdate(payload []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(payload, &u); err != nil {
		return Update{}, fmt.Errorf("invalid update payload: %w", err)
	}
	return u, nil
}
