// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// inetboxd impersonates a Truma iNet Box on the LIN bus and bridges the
// CP Plus status to MQTT.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/roamkit/go-inetbox/clog"
	"github.com/roamkit/go-inetbox/serialport"
	"github.com/roamkit/go-inetbox/service"
	"github.com/roamkit/go-inetbox/slave"
)

type config struct {
	SerialDevice          string         `yaml:"serial_device"`
	ReadTimeoutMS         int            `yaml:"read_timeout_ms"`
	Active                bool           `yaml:"active"`
	LenientRecordChecksum bool           `yaml:"lenient_record_checksum"`
	LogLevel              string         `yaml:"log_level"`
	DebugLIN              bool           `yaml:"debug_lin"`
	DebugApp              bool           `yaml:"debug_app"`
	MetricsListen         string         `yaml:"metrics_listen"`
	MQTT                  service.Config `yaml:"mqtt"`
}

func loadConfig(path string) (*config, error) {
	cfg := &config{
		SerialDevice:  "/dev/serial0",
		ReadTimeoutMS: 30,
		Active:        true,
		LogLevel:      "info",
	}
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "configuration file")
	flag.Parse()

	logger := logrus.New()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(level)

	linLog := clog.NewLoggerWith(clog.NewLogrusProvider(logger, "lin"))
	linLog.LogMode(cfg.DebugLIN || level >= logrus.DebugLevel)
	appLog := clog.NewLoggerWith(clog.NewLogrusProvider(logger, "app"))
	appLog.LogMode(cfg.DebugApp || level >= logrus.DebugLevel)

	readTimeout := time.Duration(cfg.ReadTimeoutMS) * time.Millisecond
	port, err := serialport.Open(cfg.SerialDevice, readTimeout)
	if err != nil {
		logger.Fatalf("open %s: %v", cfg.SerialDevice, err)
	}
	defer port.Close()
	logger.Infof("opened %s, 9600 8N1", cfg.SerialDevice)

	app := slave.NewApp(appLog)
	loopCfg := slave.Config{
		Active:                cfg.Active,
		ReadTimeout:           readTimeout,
		LenientRecordChecksum: cfg.LenientRecordChecksum,
	}
	sl, err := slave.New(port, app, &loopCfg, linLog)
	if err != nil {
		logger.Fatalf("bus loop: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 3)
	go func() { errc <- sl.Run(ctx) }()

	if cfg.MQTT.Broker != "" {
		svc, err := service.New(cfg.MQTT, app, appLog)
		if err != nil {
			logger.Fatalf("service: %v", err)
		}
		if err := svc.Start(); err != nil {
			logger.Fatalf("mqtt connect: %v", err)
		}
		defer svc.Close()
		logger.Infof("connected to %s", cfg.MQTT.Broker)
		go func() { errc <- svc.Run(ctx) }()
	}

	if cfg.MetricsListen != "" {
		service.RegisterMetrics(prometheus.DefaultRegisterer, sl.Stats())
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			errc <- http.ListenAndServe(cfg.MetricsListen, mux)
		}()
		logger.Infof("metrics on %s/metrics", cfg.MetricsListen)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errc:
		if err != nil && ctx.Err() == nil {
			logger.Errorf("exiting: %v", err)
			os.Exit(1)
		}
	}
}
