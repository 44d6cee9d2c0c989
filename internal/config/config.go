package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the full daemon configuration, decoded from a TOML file.
type Config struct {
	Logger LogConf    // Logger - log level settings.
	Serial SerialConf // Serial - USB-DMX interface settings.
	Server ServerConf // Server - HTTP API settings.
	MQTT   MQTTConf   // MQTT - optional MQTT control ingress.
	ArtNet ArtNetConf `toml:"artnet"` // ArtNet - optional Art-Net DMX ingress.
}

// LogConf configures the logger.
type LogConf struct {
	Level string `toml:"log-level"` // Level - logging level (debug, info, ...).
}

// SerialConf configures the serial link to the DMX interface.
type SerialConf struct {
	// Device - serial device path; empty means auto-detect by scanning for
	// known USB-DMX adapters.
	Device string `toml:"device"`
	// BaudRate - 250000 for DMX512 timing compliance.
	BaudRate int `toml:"baud-rate"`
}

// ServerConf configures the HTTP control API.
type ServerConf struct {
	Listen string `toml:"listen"` // Listen - address for the HTTP server.
	// StaticPage - path to the controller HTML page served at /.
	StaticPage string `toml:"static-page"`
}

// MQTTConf configures the MQTT ingress. Disabled unless enabled is set.
type MQTTConf struct {
	Enabled     bool   `toml:"enabled"`
	ClientID    string `toml:"clientID"` // ClientID - client name for the broker.
	Host        string `toml:"server"`   // Host - MQTT broker address.
	Port        string `toml:"port"`     // Port - MQTT broker port.
	User        string `toml:"user"`     // User - broker login.
	Password    string `toml:"password"` // Password - broker password.
	TopicPrefix string `toml:"topic-prefix"`
}

// ArtNetConf configures the Art-Net ingress. Disabled unless enabled is set.
type ArtNetConf struct {
	Enabled  bool   `toml:"enabled"`
	Bind     string `toml:"bind"`     // Bind - UDP listen address.
	Universe uint16 `toml:"universe"` // Universe - Art-Net universe to accept.
}

// NewConfig loads configuration from path. A missing file is not an error:
// the daemon runs fine on defaults alone (auto-detect hardware, listen on
// :8080, no MQTT, no Art-Net).
func NewConfig(path string) (*Config, error) {
	cfg := Config{
		Logger: LogConf{Level: "info"},
		Serial: SerialConf{BaudRate: 250000},
		Server: ServerConf{
			Listen:     ":8080",
			StaticPage: "uking-dmx-controller.html",
		},
		MQTT: MQTTConf{
			ClientID:    "uking-dmx",
			TopicPrefix: "dmx",
		},
		ArtNet: ArtNetConf{Bind: ":6454"},
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}
