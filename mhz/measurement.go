// Copyright 2026 The CO2Sense Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// PPM=Parts Per Million. Units of measure for CO2 concentration.
type PPM uint16

func (p PPM) String() string {
	return fmt.Sprintf("%d PPM", uint16(p))
}

// Measurement is the decoded reply to a CO2 read.
type Measurement struct {
	// CO2 concentration. The sensor clamps the value to its configured
	// detection range; the driver passes it through as reported.
	CO2 PPM
	// Die temperature. The sensor reports whole degrees Celsius with a
	// +40 offset, already removed here.
	Temperature physic.Temperature
	// CalibrationTicks counts "ticks" within the current automatic
	// baseline calibration cycle, when ABC is enabled.
	CalibrationTicks uint8
	// CalibrationCycles counts completed ABC calibration cycles.
	CalibrationCycles uint8
}

// RawMeasurement is the decoded reply to a raw CO2 read. The values are
// ADC level readings taken before the sensor's clamping and smoothing.
type RawMeasurement struct {
	// Smoothed temperature ADC value.
	ADCTemperature uint16
	// CO2 concentration before clamping to the detection range.
	CO2 PPM
	// Minimum light ADC value.
	ADCMinLight uint16
}

// The sensor reading in physic units. Pressure and humidity are always
// zero, the sensor does not measure them.
type Env struct {
	physic.Env
	CO2 PPM
}

// Return the sensor reading in string format.
func (e *Env) String() string {
	return fmt.Sprintf("Temperature: %s CO2: %s", e.Temperature.String(), e.CO2.String())
}

func parseMeasurement(f *Frame) Measurement {
	return Measurement{
		CO2:               PPM(f.word(2)),
		Temperature:       celsius(int(f[4]) - 40),
		CalibrationTicks:  f[5],
		CalibrationCycles: f[6],
	}
}

func parseRawMeasurement(f *Frame) RawMeasurement {
	return RawMeasurement{
		ADCTemperature: f.word(2),
		CO2:            PPM(f.word(4)),
		ADCMinLight:    f.word(6),
	}
}

func celsius(deg int) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(deg)*physic.Celsius
}
