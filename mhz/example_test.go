// Copyright 2026 The CO2Sense Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz_test

import (
	"fmt"
	"log"
	"time"

	"go.bug.st/serial"
	"periph.io/x/host/v3"

	"github.com/co2sense/mhz/mhz"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// The MH-Z* sensors talk 9600 8N1. The read deadline is the
	// driver's timeout: the sensor answers within a few milliseconds,
	// so 100ms is comfortable.
	port, err := serial.Open("/dev/ttyAMA0", &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		log.Fatalf("failed to open serial port: %v", err)
	}
	defer port.Close()
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		log.Fatal(err)
	}

	dev := mhz.New(port)
	m, err := dev.ReadCO2()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("CO2: %s Temperature: %s\n", m.CO2, m.Temperature)
}
