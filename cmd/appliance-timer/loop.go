package main

import (
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/appliance-timer/internal/button"
	"github.com/sweeney/appliance-timer/internal/control"
	"github.com/sweeney/appliance-timer/internal/gpio"
	"github.com/sweeney/appliance-timer/internal/led"
	"github.com/sweeney/appliance-timer/internal/mqtt"
	"github.com/sweeney/appliance-timer/internal/status"
)

// loop holds everything the control goroutine owns. Only runLoop touches the
// controller, detector and blinker.
type loop struct {
	reader     gpio.Reader
	writer     gpio.Writer
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	remote     <-chan control.Command // MQTT command topic
	local      <-chan control.Command // HTTP API
	tracker    *status.Tracker
	controller *control.Controller
	detector   *button.Detector
	blinker    *led.Heartbeat
	heartbeat  time.Duration
	now        func() time.Time
	pollTick   <-chan time.Time
	minuteTick <-chan time.Time
	sig        <-chan os.Signal
	log        *zap.Logger
}

func runLoop(l loop) error {
	start := l.now()
	lastHeartbeat := start
	if err := l.writer.Set(gpio.HeartbeatLED, l.blinker.State()); err != nil {
		l.log.Debug("heartbeat led write failed", zap.Error(err))
	}

	// First evaluation always delivers the scheduled state.
	l.handle(control.CommandEvaluate, start)
	l.publishStatus("STARTUP", "", start, true)

	for {
		select {
		case s := <-l.sig:
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			l.log.Info("shutting down", zap.String("signal", signalName))
			l.publishStatus("SHUTDOWN", signalName, l.now(), true)
			return nil

		case <-l.minuteTick:
			l.handle(control.CommandEvaluate, l.now())

		case cmd := <-l.remote:
			l.log.Info("mqtt command", zap.String("command", string(cmd)))
			l.handle(cmd, l.now())

		case cmd := <-l.local:
			l.handle(cmd, l.now())

		case <-l.pollTick:
			t := l.now()
			if changed, on := l.blinker.Run(t); changed {
				if err := l.writer.Set(gpio.HeartbeatLED, on); err != nil {
					l.log.Debug("heartbeat led write failed", zap.Error(err))
				}
			}

			override, mode, err := l.reader.Read()
			if err != nil {
				l.log.Error("gpio read error", zap.Error(err))
				continue
			}
			presses := l.detector.Process(button.Input{Override: override, Mode: mode, Time: t})
			for _, p := range presses {
				l.log.Info("button pressed", zap.String("button", string(p.Button)))
				if p.Button == button.Override {
					l.handle(control.CommandOverride, t)
				} else {
					l.handle(control.CommandMode, t)
				}
			}
			if l.tracker != nil {
				l.tracker.UpdateButtons(l.detector.IsBaselined(), l.detector.Counts())
			}

			if l.heartbeat > 0 && t.Sub(lastHeartbeat) >= l.heartbeat {
				lastHeartbeat = t
				if net := readNetworkInfo(); net != nil && l.tracker != nil {
					l.tracker.SetNetwork(net)
				}
				l.publishStatus("HEARTBEAT", "", t, false)
			}
		}
	}
}

// handle runs cmd against the controller and publishes what it delivered.
func (l loop) handle(cmd control.Command, t time.Time) {
	events, err := l.controller.Handle(cmd, t)
	if err != nil {
		l.log.Error("command failed", zap.String("command", string(cmd)), zap.Error(err))
	}
	for _, e := range events {
		if err := l.publisher.Publish(e); err != nil {
			// Don't crash on publish failure
			l.log.Warn("publish error", zap.Error(err))
		}
	}
	l.refresh()
}

func (l loop) refresh() {
	if l.tracker == nil {
		return
	}
	l.tracker.Update(l.controller)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l loop) publishStatus(event, reason string, t time.Time, retained bool) {
	sys := mqtt.SystemEvent{
		Timestamp: t,
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if l.tracker != nil {
		l.refresh()
		sys.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), event, reason)
	}
	if err := l.publisher.PublishSystem(sys); err != nil {
		l.log.Warn("failed to publish system event", zap.String("event", event), zap.Error(err))
		return
	}
	l.log.Debug("published system event", zap.String("event", event))
}
