// Copyright 2026 The CO2Sense Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// mhz-exporter serves readings from an MH-Z* CO2 sensor as Prometheus
// metrics.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/co2sense/mhz/mhz"
)

var (
	flagPort     string
	flagListen   string
	flagInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "mhz-exporter",
	Short:        "Export MH-Z* CO2 sensor readings as Prometheus metrics",
	Args:         cobra.NoArgs,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagPort, "port", "/dev/ttyAMA0", "serial port the sensor is attached to")
	rootCmd.Flags().StringVar(&flagListen, "listen", ":8888", "address to serve /metrics on")
	rootCmd.Flags().DurationVar(&flagInterval, "interval", 60*time.Second, "time between sensor reads")
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	port, err := serial.Open(flagPort, &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", flagPort, err)
	}
	defer port.Close()
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		return err
	}

	dev := mhz.New(port)

	co2 := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mhz_co2_concentration_ppm",
		Help: "CO2 concentration reported by the sensor.",
	})
	temp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mhz_temperature_celsius",
		Help: "Die temperature of the sensor.",
	})
	ticks := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mhz_calibration_ticks",
		Help: "Ticks within the current automatic baseline calibration cycle.",
	})
	cycles := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mhz_calibration_cycles",
		Help: "Completed automatic baseline calibration cycles.",
	})
	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mhz_reads_total",
		Help: "Sensor read attempts by result.",
	}, []string{"result"})
	prometheus.MustRegister(co2, temp, ticks, cycles, reads)

	// The driver never retries; a failed read is logged, counted and
	// skipped until the next tick.
	update := func() {
		m, err := dev.ReadCO2()
		if err != nil {
			logger.Warn("sensor read failed", zap.Error(err))
			reads.WithLabelValues("error").Inc()
			return
		}
		reads.WithLabelValues("ok").Inc()
		logger.Info("sensor read",
			zap.Uint16("co2_ppm", uint16(m.CO2)),
			zap.Float64("temperature_c", m.Temperature.Celsius()))
		co2.Set(float64(m.CO2))
		temp.Set(m.Temperature.Celsius())
		ticks.Set(float64(m.CalibrationTicks))
		cycles.Set(float64(m.CalibrationCycles))
	}
	update()

	go func() {
		t := time.NewTicker(flagInterval)
		defer t.Stop()
		for range t.C {
			update()
		}
	}()

	logger.Info("serving metrics",
		zap.String("listen", flagListen),
		zap.String("port", flagPort),
		zap.Duration("interval", flagInterval))
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(flagListen, nil)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
