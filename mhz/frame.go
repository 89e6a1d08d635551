// Copyright 2026 The CO2Sense Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz

// frameLen is the size of every request and response on the wire. The
// protocol has no length or delimiter field; the format is fixed.
const frameLen = 9

const (
	// Every frame begins with this marker.
	frameStart = 0xFF
	// Bus address of the sensor. The protocol supports a single sensor
	// per port, so the address is fixed.
	sensorAddr = 0x01
)

// Frame is the 9-byte unit of exchange with the sensor.
//
// A request is laid out as start marker, address, command code, five
// payload bytes and a checksum. A response replaces the address with an
// echo of the command code and carries its data in bytes 2 through 7.
type Frame [frameLen]byte

// command describes one entry of the closed MH-Z command set. All
// commands share the same framing; responds is true for the commands
// the sensor replies to with a 9-byte frame.
type command struct {
	code     byte
	responds bool
}

// The implemented commands. The calibration and configuration payload
// contracts come from the MH-Z19B datasheet; Winsen documents them for
// the whole family but only the read commands are verified on every
// variant.

var cmdReadCO2 = command{code: 0x86, responds: true}
var cmdReadRawCO2 = command{code: 0x85, responds: true}
var cmdSetABC = command{code: 0x79}
var cmdCalibrateZero = command{code: 0x87}
var cmdCalibrateSpan = command{code: 0x88}
var cmdSetRange = command{code: 0x99}

// checksum computes the integrity byte of a frame: the two's complement
// negation of the modulo-256 sum of bytes 1 through 7. The checksum is
// the protocol's only integrity mechanism, there is no CRC.
func checksum(f *Frame) byte {
	var sum byte
	for _, b := range f[1:8] {
		sum += b
	}
	return ^sum + 1
}

// buildRequest produces the request frame for a command code and
// payload. Construction cannot fail.
func buildRequest(code byte, payload [5]byte) Frame {
	f := Frame{frameStart, sensorAddr, code}
	copy(f[3:8], payload[:])
	f[8] = checksum(&f)
	return f
}

// validate checks the invariants every response to the given command
// must satisfy, before any field is extracted from it. A frame that
// fails the checksum is rejected outright: a corrupted value byte would
// otherwise decode to a plausible but wrong concentration.
func (f *Frame) validate(code byte) error {
	if f[0] != frameStart {
		return ErrBadStart
	}
	if checksum(f) != f[8] {
		return ErrChecksum
	}
	if f[1] != code {
		return ErrCommand
	}
	return nil
}

// word returns the big-endian 16-bit value at offset i.
func (f *Frame) word(i int) uint16 {
	return uint16(f[i])<<8 | uint16(f[i+1])
}
