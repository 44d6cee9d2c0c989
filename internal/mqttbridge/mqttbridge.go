// Package mqttbridge is an optional MQTT control ingress. It mirrors the
// HTTP control surface over broker topics so home-automation systems can
// drive the fixture without going through the web controller.
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/At1re/uking-dmx-controller/internal/controller"
	"github.com/At1re/uking-dmx-controller/internal/logger"
)

// Control is the slice of the controller surface the bridge needs.
type Control interface {
	SetChannels(start int, values []int) int
	Blackout()
	Status() controller.Status
}

// Bridge subscribes to control topics on an MQTT broker and applies the
// received updates to the DMX controller.
type Bridge struct {
	ctx     context.Context
	log     logger.Logger
	cfg     Conf
	control Control
	client  mqtt.Client
	opts    *mqtt.ClientOptions
}

// NewBridge builds the MQTT ingress for the given controller.
func NewBridge(log logger.Logger, cfg Conf, control Control) *Bridge {
	return &Bridge{
		log:     log,
		cfg:     cfg,
		control: control,
	}
}

// Start connects to the broker. Subscriptions are established from the
// on-connect handler so they survive broker reconnects.
func (b *Bridge) Start(ctx context.Context) error {
	if b.log.GetLevel() == "debug" {
		mqtt.ERROR = stdlog.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = stdlog.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = stdlog.New(os.Stdout, "[WARN]  ", 0)
	}

	b.ctx = ctx

	b.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", b.cfg.Host, b.cfg.Port)).
		SetUsername(b.cfg.User).
		SetPassword(b.cfg.Password).
		SetOnConnectHandler(b.connectHandler).
		SetConnectionLostHandler(b.connectLostHandler).
		SetClientID(b.cfg.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	b.client = mqtt.NewClient(b.opts)

	token := b.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-b.ctx.Done():
		return errors.New("context canceled")
	}

	b.log.With(logger.Fields{"module": "mqtt"}).Infof("connected: %v", b.client.IsConnected())
	return nil
}

// Stop disconnects from the broker.
func (b *Bridge) Stop() error {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(500)
	}
	return nil
}

func (b *Bridge) connectHandler(_ mqtt.Client) {
	b.log.With(logger.Fields{"module": "mqtt"}).Info("client connected to broker")
	b.sub(b.cfg.setTopic(), b.setHandler)
	b.sub(b.cfg.blackoutTopic(), b.blackoutHandler)
	b.publishStatus()
}

func (b *Bridge) connectLostHandler(_ mqtt.Client, err error) {
	b.log.With(logger.Fields{"module": "mqtt"}).Errorf("broker connection lost: %v", err)
}

func (b *Bridge) sub(topic string, handler mqtt.MessageHandler) {
	token := b.client.Subscribe(topic, 0, handler)
	go func() {
		select {
		case <-b.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				b.log.With(logger.Fields{"module": "mqtt"}).Errorf("topic %s subscription error: %v", topic, token.Error())
				return
			}
		}
		b.log.With(logger.Fields{"module": "mqtt"}).Debugf("topic %s subscribed", topic)
	}()
}

func (b *Bridge) setHandler(_ mqtt.Client, msg mqtt.Message) {
	update, err := ParseUpdate(msg.Payload())
	if err != nil {
		b.log.With(logger.Fields{"module": "mqtt"}).Errorf("message could not be parsed (topic %s): %v", msg.Topic(), err)
		return
	}
	applied := b.control.SetChannels(update.Start(), update.Channels)
	b.log.With(logger.Fields{"module": "mqtt"}).Debugf("DMX update - addr: %d, channels: %d", update.Start(), applied)
}

func (b *Bridge) blackoutHandler(_ mqtt.Client, _ mqtt.Message) {
	b.control.Blackout()
	b.publishStatus()
}

// publishStatus publishes the controller state retained, so late subscribers
// see the current state immediately.
func (b *Bridge) publishStatus() {
	payload, err := json.Marshal(b.control.Status())
	if err != nil {
		b.log.With(logger.Fields{"module": "mqtt"}).Errorf("failed to marshal status: %v", err)
		return
	}
	token := b.client.Publish(b.cfg.statusTopic(), 0, true, payload)
	go func() {
		select {
		case <-b.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				b.log.With(logger.Fields{"module": "mqtt"}).Errorf("failed to publish status: %v", token.Error())
			}
		}
	}()
}
