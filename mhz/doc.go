// Copyright 2026 The CO2Sense Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mhz provides a driver for the Winsen MH-Z* family of infrared
// NDIR CO2 sensors (MH-Z14, MH-Z19, MH-Z19B, MH-Z19C) attached over
// UART.
//
// The sensor speaks a fixed 9-byte request/reply protocol. The driver
// is transport agnostic: it only needs the io.Writer and io.Reader
// halves of a port configured for 9600 baud, 8 data bits, no parity,
// 1 stop bit. Opening and configuring the port is left to a 3rd party
// UART library.
//
// Refer to the datasheet for more information.
//
// https://www.winsen-sensor.com/d/files/infrared-gas-sensor/mh-z19b-co2-ver1_0.pdf
package mhz
