// Copyright 2026 The CO2Sense Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz

import (
	"errors"
	"testing"
)

// Request vectors from the MH-Z19B datasheet.
var requestVectors = []struct {
	name    string
	code    byte
	payload [5]byte
	want    Frame
}{
	{"read co2", 0x86, [5]byte{}, Frame{0xFF, 0x01, 0x86, 0x00, 0x00, 0x00, 0x00, 0x00, 0x79}},
	{"read raw co2", 0x85, [5]byte{}, Frame{0xFF, 0x01, 0x85, 0x00, 0x00, 0x00, 0x00, 0x00, 0x7A}},
	{"calibrate zero", 0x87, [5]byte{}, Frame{0xFF, 0x01, 0x87, 0x00, 0x00, 0x00, 0x00, 0x00, 0x78}},
	{"calibrate span 2000", 0x88, [5]byte{0x07, 0xD0}, Frame{0xFF, 0x01, 0x88, 0x07, 0xD0, 0x00, 0x00, 0x00, 0xA0}},
	{"range 5000", 0x99, [5]byte{3: 0x13, 4: 0x88}, Frame{0xFF, 0x01, 0x99, 0x00, 0x00, 0x00, 0x13, 0x88, 0xCB}},
	{"abc on", 0x79, [5]byte{0xA0}, Frame{0xFF, 0x01, 0x79, 0xA0, 0x00, 0x00, 0x00, 0x00, 0xE6}},
	{"abc off", 0x79, [5]byte{}, Frame{0xFF, 0x01, 0x79, 0x00, 0x00, 0x00, 0x00, 0x00, 0x86}},
}

func TestBuildRequest(t *testing.T) {
	for _, tc := range requestVectors {
		if got := buildRequest(tc.code, tc.payload); got != tc.want {
			t.Errorf("%s: buildRequest() = % x, want % x", tc.name, got, tc.want)
		}
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	for _, tc := range requestVectors {
		f := buildRequest(tc.code, tc.payload)
		if got := checksum(&f); got != f[8] {
			t.Errorf("%s: checksum(% x) = 0x%02x, want 0x%02x", tc.name, f[:8], got, f[8])
		}
		// Deterministic: same bytes, same checksum.
		if checksum(&f) != checksum(&f) {
			t.Errorf("%s: checksum is not deterministic", tc.name)
		}
	}
}

// responseFrame builds a valid response: start marker, command echo,
// six data bytes and a consistent checksum.
func responseFrame(code byte, data [6]byte) Frame {
	f := Frame{frameStart, code}
	copy(f[2:8], data[:])
	f[8] = checksum(&f)
	return f
}

func TestParseMeasurement(t *testing.T) {
	// high=0x02 low=0x2E -> 558 PPM, temperature byte 0x48 -> 32°C.
	f := responseFrame(0x86, [6]byte{0x02, 0x2E, 0x48, 0x07, 0x05})
	if want := (Frame{0xFF, 0x86, 0x02, 0x2E, 0x48, 0x07, 0x05, 0x00, 0xF6}); f != want {
		t.Fatalf("response frame = % x, want % x", f, want)
	}
	if err := f.validate(0x86); err != nil {
		t.Fatalf("validate() = %v", err)
	}
	m := parseMeasurement(&f)
	if m.CO2 != 558 {
		t.Errorf("CO2 = %d, want 558", m.CO2)
	}
	if m.Temperature != celsius(32) {
		t.Errorf("Temperature = %s, want %s", m.Temperature, celsius(32))
	}
	if m.CalibrationTicks != 7 || m.CalibrationCycles != 5 {
		t.Errorf("calibration = %d/%d, want 7/5", m.CalibrationTicks, m.CalibrationCycles)
	}
}

func TestParseRawMeasurement(t *testing.T) {
	f := responseFrame(0x85, [6]byte{0x1A, 0xF8, 0x02, 0x2E, 0x0B, 0xB8})
	if err := f.validate(0x85); err != nil {
		t.Fatalf("validate() = %v", err)
	}
	m := parseRawMeasurement(&f)
	if m.ADCTemperature != 6904 {
		t.Errorf("ADCTemperature = %d, want 6904", m.ADCTemperature)
	}
	if m.CO2 != 558 {
		t.Errorf("CO2 = %d, want 558", m.CO2)
	}
	if m.ADCMinLight != 3000 {
		t.Errorf("ADCMinLight = %d, want 3000", m.ADCMinLight)
	}
}

func TestValidateBadStart(t *testing.T) {
	// The start byte is outside the checksummed region, so the frame is
	// otherwise pristine. It must still be rejected.
	f := responseFrame(0x86, [6]byte{0x02, 0x2E, 0x48})
	f[0] = 0xFE
	if err := f.validate(0x86); !errors.Is(err, ErrBadStart) {
		t.Errorf("validate() = %v, want ErrBadStart", err)
	}
}

func TestValidateCommandEcho(t *testing.T) {
	// Valid checksum, wrong command echoed.
	f := responseFrame(0x87, [6]byte{0x02, 0x2E})
	if err := f.validate(0x86); !errors.Is(err, ErrCommand) {
		t.Errorf("validate() = %v, want ErrCommand", err)
	}
}

func TestValidateDetectsBitFlips(t *testing.T) {
	f := responseFrame(0x86, [6]byte{0x02, 0x2E, 0x48, 0x07, 0x05})
	for i := 1; i < frameLen; i++ {
		for bit := 0; bit < 8; bit++ {
			corrupted := f
			corrupted[i] ^= 1 << bit
			// A single flipped bit changes the sum of bytes 1..7 by a
			// power of two below 256, so the checksum can never come
			// out equal again.
			if err := corrupted.validate(0x86); !errors.Is(err, ErrChecksum) {
				t.Errorf("byte %d bit %d: validate() = %v, want ErrChecksum", i, bit, err)
			}
		}
	}
}
