package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/sweeney/appliance-timer/internal/button"
	"github.com/sweeney/appliance-timer/internal/clock"
	"github.com/sweeney/appliance-timer/internal/config"
	"github.com/sweeney/appliance-timer/internal/control"
	"github.com/sweeney/appliance-timer/internal/gpio"
	"github.com/sweeney/appliance-timer/internal/led"
	"github.com/sweeney/appliance-timer/internal/mqtt"
	"github.com/sweeney/appliance-timer/internal/status"
	"github.com/sweeney/appliance-timer/internal/web"
)

func checkCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	entries, err := cfg.Entries()
	if err != nil {
		return err
	}
	fmt.Printf("config ok: %d schedule entries, timezone %s, broker %s\n", len(entries), cfg.Timezone, cfg.MQTT.Broker)
	return nil
}

func scheduleCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	entries, err := cfg.Entries()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	lines, err := control.Describe(entries, loc, time.Now())
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

func stateCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	reader, err := gpio.NewRealReader(cfg.GPIOPins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	override, mode, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	fmt.Printf("OVERRIDE: %s, MODE: %s\n", pressedString(override), pressedString(mode))
	return nil
}

func pressedString(pressed bool) string {
	if pressed {
		return string(button.StatePressed)
	}
	return string(button.StateReleased)
}

func runCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log, err := newLogger(ctx.GlobalBool("debug"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	return run(cfg, log)
}

func run(cfg config.Config, log *zap.Logger) error {
	entries, err := cfg.Entries()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	reader, err := gpio.NewRealReader(cfg.GPIOPins())
	if err != nil {
		return fmt.Errorf("init gpio inputs: %w", err)
	}
	defer reader.Close()

	writer, err := gpio.NewRealWriter(cfg.GPIOPins())
	if err != nil {
		return fmt.Errorf("init gpio outputs: %w", err)
	}
	defer writer.Close()

	controller, err := control.New(entries, loc, writer, log.Named("control"))
	if err != nil {
		return err
	}

	publisher := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Prefix:   cfg.MQTT.Prefix,
	}, log.Named("mqtt"))
	defer publisher.Close()

	clk := clock.NewReal()
	if cfg.Calibration != 0 {
		clk.Adjust(cfg.Calibration)
		log.Info("clock calibrated", zap.Duration("offset", clk.Offset()))
	}
	tracker := status.NewTracker(clk.Now(), entries, status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		BlinkMs:     cfg.Blink.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		Prefix:      cfg.MQTT.Prefix,
		HTTPAddr:    cfg.HTTP,
		Timezone:    loc.String(),
		Calibration: cfg.Calibration.String(),
	})
	tracker.SetClock(clk.Now)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	commands := make(chan control.Command)
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, commands, log.Named("web"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server error", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Info("http status server listening", zap.String("addr", cfg.HTTP))
	}

	minutes, err := clock.NewMinuteTicker(clk)
	if err != nil {
		return fmt.Errorf("init minute ticker: %w", err)
	}
	defer minutes.Stop()

	poll := time.NewTicker(cfg.Poll)
	defer poll.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info("started",
		zap.Int("entries", len(entries)),
		zap.Stringer("timezone", loc),
		zap.Duration("poll", cfg.Poll),
		zap.Duration("debounce", cfg.Debounce),
		zap.Duration("heartbeat", cfg.Heartbeat),
		zap.String("broker", cfg.MQTT.Broker),
		zap.Time("next_evaluation", minutes.Next()))

	return runLoop(loop{
		reader:     reader,
		writer:     writer,
		publisher:  publisher,
		mqttStatus: publisher,
		remote:     publisher.Commands(),
		local:      commands,
		tracker:    tracker,
		controller: controller,
		detector:   button.NewDetector(cfg.Debounce),
		blinker:    led.NewHeartbeat(cfg.Blink, clk.Now()),
		heartbeat:  cfg.Heartbeat,
		now:        clk.Now,
		pollTick:   poll.C,
		minuteTick: minutes.C,
		sig:        sigCh,
		log:        log,
	})
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
