// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/roamkit/go-inetbox/clog"
	"github.com/roamkit/go-inetbox/inet"
	"github.com/roamkit/go-inetbox/slave"
)

// Bridge between the protocol engine and MQTT. Inbound set messages are
// buffered and committed to the engine only after a quiet period, so
// fields that depend on each other (heating mode and temperature) travel
// in the same write record.

const (
	// heater cannot hold a room below this
	minRoomTemp = 5

	statusInterval = 500 * time.Millisecond
	commitInterval = 100 * time.Millisecond
	stateInterval  = 300 * time.Millisecond
	timeInterval   = 24 * time.Hour

	// clock sync is skipped while the device clock is within this bound
	maxClockDrift = time.Minute
)

// Config defines the MQTT bridge.
// The default is applied for each unspecified value.
type Config struct {
	// Broker URL, e.g. tcp://127.0.0.1:1883
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// TopicPrefix defaults to "truma"
	TopicPrefix string `yaml:"topic_prefix"`

	// CommitDelayMS is the quiet period in milliseconds before buffered
	// set messages are committed, default 1000.
	CommitDelayMS int `yaml:"commit_delay_ms"`

	// RepublishIntervalS bounds in seconds how stale an unchanged value
	// may get before it is published again, default 120.
	RepublishIntervalS int `yaml:"republish_interval_s"`

	// resolved by Valid
	CommitDelay       time.Duration `yaml:"-"`
	RepublishInterval time.Duration `yaml:"-"`

	// SetTime pushes the host clock into the device once a day.
	SetTime bool `yaml:"set_time"`

	// coupling defaults between room temperature and heating mode
	DefaultHeatingMode    string `yaml:"default_heating_mode"`
	DefaultTargetTempRoom int    `yaml:"default_target_temp_room"`
}

// Valid applies the default for each unspecified value.
func (sf *Config) Valid() error {
	if sf == nil {
		return errors.New("invalid pointer")
	}
	if sf.Broker == "" {
		return errors.New("Broker must be set")
	}
	if sf.ClientID == "" {
		sf.ClientID = "go-inetbox"
	}
	if sf.TopicPrefix == "" {
		sf.TopicPrefix = "truma"
	}
	if sf.CommitDelay == 0 {
		sf.CommitDelay = time.Second
		if sf.CommitDelayMS > 0 {
			sf.CommitDelay = time.Duration(sf.CommitDelayMS) * time.Millisecond
		}
	}
	if sf.RepublishInterval == 0 {
		sf.RepublishInterval = 2 * time.Minute
		if sf.RepublishIntervalS > 0 {
			sf.RepublishInterval = time.Duration(sf.RepublishIntervalS) * time.Second
		}
	}
	if sf.DefaultHeatingMode == "" {
		sf.DefaultHeatingMode = "eco"
	}
	if sf.DefaultTargetTempRoom == 0 {
		sf.DefaultTargetTempRoom = minRoomTemp
	}
	return nil
}

// publisher decouples the service logic from the MQTT client.
type publisher interface {
	publish(topic, payload string)
}

type mqttPublisher struct {
	client mqtt.Client
}

func (sf mqttPublisher) publish(topic, payload string) {
	sf.client.Publish(topic, 0, false, payload)
}

type published struct {
	value string
	at    time.Time
}

// Service runs the bridge.
type Service struct {
	cfg Config
	app *slave.App
	log clog.Clog

	client mqtt.Client
	pub    publisher

	mu         sync.Mutex
	buffer     map[string]string
	lastChange time.Time
	sent       map[string]published
}

// New creates the bridge; Start connects it.
func New(cfg Config, app *slave.App, log clog.Clog) (*Service, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	return &Service{
		cfg:    cfg,
		app:    app,
		log:    log,
		buffer: make(map[string]string),
		sent:   make(map[string]published),
	}, nil
}

// Start connects to the broker and subscribes to the set topics.
func (sf *Service) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(sf.cfg.Broker).
		SetClientID(sf.cfg.ClientID).
		SetUsername(sf.cfg.Username).
		SetPassword(sf.cfg.Password).
		SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		topic := sf.cfg.TopicPrefix + "/set/#"
		if t := c.Subscribe(topic, 0, sf.onSetMessage); t.Wait() && t.Error() != nil {
			sf.log.Error("subscribe %s: %v", topic, t.Error())
		}
	})
	sf.client = mqtt.NewClient(opts)
	sf.pub = mqttPublisher{client: sf.client}
	if t := sf.client.Connect(); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}

// Close disconnects from the broker.
func (sf *Service) Close() {
	if sf.client != nil {
		sf.client.Disconnect(250)
	}
}

// Run drives the periodic publish and commit loops until ctx ends.
func (sf *Service) Run(ctx context.Context) error {
	statusTick := time.NewTicker(statusInterval)
	commitTick := time.NewTicker(commitInterval)
	stateTick := time.NewTicker(stateInterval)
	timeTick := time.NewTicker(timeInterval)
	defer statusTick.Stop()
	defer commitTick.Stop()
	defer stateTick.Stop()
	defer timeTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-statusTick.C:
			sf.publishStatus()
		case <-commitTick.C:
			sf.commit(time.Now())
		case <-stateTick.C:
			sf.publishStates()
		case <-timeTick.C:
			if sf.cfg.SetTime {
				sf.syncTime(time.Now())
			}
		}
	}
}

func (sf *Service) onSetMessage(_ mqtt.Client, msg mqtt.Message) {
	field := strings.TrimPrefix(msg.Topic(), sf.cfg.TopicPrefix+"/set/")
	sf.BufferSet(field, string(msg.Payload()), time.Now())
}

// BufferSet records one inbound set message and applies the coupling
// rules between room temperature and heating mode.
func (sf *Service) BufferSet(field, value string, now time.Time) {
	sf.log.Debug("set message %s = %s", field, value)
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.buffer[field] = value
	sf.lastChange = now

	switch field {
	case "target_temp_room":
		target, err := strconv.Atoi(value)
		if err != nil {
			sf.log.Error("invalid target temperature %q", value)
			return
		}
		if target >= minRoomTemp {
			if sf.bufferedOr("heating_mode", "off") == "off" {
				sf.buffer["heating_mode"] = sf.cfg.DefaultHeatingMode
				sf.log.Debug("heating was off, selecting %s mode", sf.cfg.DefaultHeatingMode)
			}
		} else {
			// the heater cannot hold a room below 5 °C, switch off instead
			sf.buffer["heating_mode"] = "off"
			sf.buffer["target_temp_room"] = "0"
		}
	case "heating_mode":
		switch value {
		case "off":
			sf.buffer["target_temp_room"] = "0"
		case "eco", "high":
			cur, err := strconv.Atoi(sf.bufferedOr("target_temp_room", "0"))
			if err != nil || cur < minRoomTemp {
				sf.buffer["target_temp_room"] = strconv.Itoa(sf.cfg.DefaultTargetTempRoom)
			}
		default:
			sf.log.Error("invalid heating mode %q, only off, eco and high are allowed", value)
		}
	}

	if !sf.app.CanSendUpdates() {
		msg := "no status from CP Plus yet, changes will be delayed until one is received"
		sf.log.Warn(msg)
		sf.publishLocked("error", msg, 0)
	}
}

// bufferedOr reads a field from the set buffer, falling back to the
// engine's mirror and then to def. Caller holds the lock.
func (sf *Service) bufferedOr(field, def string) string {
	if v, ok := sf.buffer[field]; ok {
		return v
	}
	if v, err := sf.app.Get(field); err == nil {
		return v
	}
	return def
}

// commit pushes the buffered set messages into the engine once the quiet
// period has passed.
func (sf *Service) commit(now time.Time) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.lastChange.IsZero() || now.Sub(sf.lastChange) < sf.cfg.CommitDelay {
		return
	}
	sf.log.Debug("committing %d updates", len(sf.buffer))
	for field, value := range sf.buffer {
		if err := sf.app.Set(field, value); err != nil {
			sf.log.Error("set %s: %v", field, err)
			sf.publishLocked("error", err.Error(), 0)
		}
	}
	sf.buffer = make(map[string]string)
	sf.lastChange = time.Time{}
}

func (sf *Service) publishStatus() {
	if sf.app.StatusUpdated() {
		sf.publishKeys("control_status", sf.app.Snapshot())
	}
	sf.publishKeys("display_status", sf.app.DisplaySnapshot())
}

func (sf *Service) publishStates() {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	state := sf.app.UpdateState()
	if !sf.lastChange.IsZero() {
		// not committed yet
		if sf.app.CanSendUpdates() {
			state = slave.WaitingCommit
		} else {
			state = slave.WaitingForMaster
		}
	}
	sf.publishLocked("update_status", state.String(), time.Minute)

	cp := "waiting"
	if sf.app.CanSendUpdates() {
		cp = "online"
	}
	sf.publishLocked("cp_plus_status", cp, time.Minute)
}

func (sf *Service) publishKeys(group string, values map[string]string) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	for k, v := range values {
		sf.publishLocked(group+"/"+k, v, sf.cfg.RepublishInterval)
	}
}

// publishLocked publishes unless the same value went out within maxAge.
// Caller holds the lock.
func (sf *Service) publishLocked(topic, payload string, maxAge time.Duration) {
	if sf.pub == nil {
		return
	}
	now := time.Now()
	if last, ok := sf.sent[topic]; ok && maxAge > 0 &&
		last.value == payload && now.Sub(last.at) < maxAge {
		return
	}
	sf.sent[topic] = published{value: payload, at: now}
	sf.pub.publish(sf.cfg.TopicPrefix+"/"+topic, payload)
}

// syncTime pushes the host clock into the TIME record when the device
// clock drifted more than a minute. Gated on the record having been seen.
func (sf *Service) syncTime(now time.Time) {
	if !sf.app.CommandSeen(inet.CIDTime) {
		return
	}
	drift := maxClockDrift
	if h, err := sf.app.Get("wall_time_hours"); err == nil {
		m, _ := sf.app.Get("wall_time_minutes")
		s, _ := sf.app.Get("wall_time_seconds")
		dev := clockSeconds(h, m, s) - (now.Hour()*3600 + now.Minute()*60 + now.Second())
		if dev < 0 {
			dev = -dev
		}
		drift = time.Duration(dev) * time.Second
	}
	if drift < maxClockDrift {
		return
	}
	sf.log.Debug("syncing device clock to %s", now.Format("15:04:05"))
	if err := sf.app.Set("wall_time", now.Format("15:04:05")); err != nil {
		sf.log.Error("set wall_time: %v", err)
	}
}

func clockSeconds(h, m, s string) int {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	return hh*3600 + mm*60 + ss
}
