package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/At1re/uking-dmx-controller/internal/artnetin"
	"github.com/At1re/uking-dmx-controller/internal/config"
	"github.com/At1re/uking-dmx-controller/internal/controller"
	"github.com/At1re/uking-dmx-controller/internal/logger"
	"github.com/At1re/uking-dmx-controller/internal/mqttbridge"
	"github.com/At1re/uking-dmx-controller/internal/server"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v", err)
		os.Exit(1)
	}

	ctrl := controller.New(log)
	log.With(logger.Fields{"module": "controller"}).Debug("controller created ok")

	// Attach hardware if present; without it the daemon serves the API in
	// simulation mode.
	ctrl.Connect(cfg.Serial.Device, cfg.Serial.BaudRate)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	srv := server.NewServer(log, ctrl, cfg.Server.StaticPage)
	httpSrv := &http.Server{Addr: cfg.Server.Listen, Handler: srv.ServeMux()}
	go func() {
		log.With(logger.Fields{"module": "server"}).Infof("HTTP control API listening on %s", cfg.Server.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed:", err.Error())
			cancel()
		}
	}()

	var bridge *mqttbridge.Bridge
	if cfg.MQTT.Enabled {
		bridge = mqttbridge.NewBridge(log, ConvertConfigMQTT(cfg.MQTT), ctrl)
		if err := bridge.Start(ctx); err != nil {
			log.Error("failed to start MQTT ingress:", err.Error())
			cancel()
		}
	}

	var receiver *artnetin.Receiver
	if cfg.ArtNet.Enabled {
		receiver = artnetin.NewReceiver(log, ctrl, cfg.ArtNet.Bind, cfg.ArtNet.Universe)
		if err := receiver.Start(ctx); err != nil {
			log.Error("failed to start Art-Net ingress:", err.Error())
			cancel()
		}
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server:", err.Error())
	}

	if bridge != nil {
		if err := bridge.Stop(); err != nil {
			log.Error("failed to stop MQTT ingress:", err.Error())
		}
	}
	if receiver != nil {
		receiver.Stop()
	}

	ctrl.Stop()

	log.Info("shutdown complete")
}

// ConvertConfigMQTT maps the config section onto the bridge settings.
func ConvertConfigMQTT(cfg config.MQTTConf) mqttbridge.Conf {
	return mqttbridge.Conf{
		ClientID:    cfg.ClientID,
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		TopicPrefix: cfg.TopicPrefix,
	}
}
