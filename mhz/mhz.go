// Copyright 2026 The CO2Sense Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

var (
	// ErrBadStart is returned when a response does not begin with the
	// 0xFF start marker. The read desynchronized from a frame boundary,
	// or the line picked up noise.
	ErrBadStart = errors.New("mhz: response does not start with 0xff")

	// ErrChecksum is returned when a response fails checksum
	// verification. The frame was corrupted in transit.
	ErrChecksum = errors.New("mhz: response checksum mismatch")

	// ErrCommand is returned when a response echoes a different command
	// code than the one requested.
	ErrCommand = errors.New("mhz: response echoes unexpected command")

	// ErrNoResponse is returned when the port's read deadline expires
	// before a full frame arrives. Serial ports commonly report an
	// expired deadline as an empty read rather than an error.
	ErrNoResponse = errors.New("mhz: no response from sensor")
)

// Dev is a handle to an MH-Z* sensor attached over UART.
//
// The Dev owns the transmit and receive halves of the port for its
// lifetime. The protocol is a strict request/reply alternation with no
// sequence numbers to correlate a reply to a request, so exchanges are
// serialized internally; the driver holds no protocol state between
// calls and buffers nothing beyond the single in-flight frame.
type Dev struct {
	mu sync.Mutex
	tx io.Writer
	rx io.Reader
	// channel used to stop SenseContinuous.
	stop chan struct{}
	wg   sync.WaitGroup
}

var _ conn.Resource = &Dev{}

// New returns a Dev that uses rw for both directions of the UART.
//
// The port must be configured for 9600 baud, 8 data bits, no parity and
// 1 stop bit. Read timeouts and cancellation belong to the port; the
// sensor needs on the order of 10ms to reply, so a deadline of 100ms is
// a comfortable choice.
func New(rw io.ReadWriter) *Dev {
	return NewTxRx(rw, rw)
}

// NewTxRx returns a Dev from separate transmit and receive halves of a
// UART.
func NewTxRx(tx io.Writer, rx io.Reader) *Dev {
	return &Dev{tx: tx, rx: rx}
}

// ReadCO2 performs one concentration read: it transmits the read
// command and validates and decodes the sensor's 9-byte reply.
//
// Failures are not retried and are never fatal; the exchange is
// stateless, so the caller may simply call again. If the write
// succeeded but the read did not, the sensor may still have processed
// the command without the result being observed.
func (d *Dev) ReadCO2() (Measurement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	resp, err := d.exchange(cmdReadCO2, [5]byte{})
	if err != nil {
		return Measurement{}, err
	}
	return parseMeasurement(&resp), nil
}

// ReadRawCO2 reads the unclamped CO2 concentration together with the
// sensor's raw ADC values. Useful for diagnosing a unit that reports
// values pinned at the edge of its detection range.
func (d *Dev) ReadRawCO2() (RawMeasurement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	resp, err := d.exchange(cmdReadRawCO2, [5]byte{})
	if err != nil {
		return RawMeasurement{}, err
	}
	return parseRawMeasurement(&resp), nil
}

// CalibrateZeroPoint starts a zero point calibration. The sensor must
// have been in a stable ~400 PPM (outdoor) atmosphere for at least 20
// minutes beforehand, otherwise subsequent readings are skewed.
//
// The sensor sends no confirmation; a nil error only means the command
// was transmitted.
func (d *Dev) CalibrateZeroPoint() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.exchange(cmdCalibrateZero, [5]byte{})
	return err
}

// CalibrateSpanPoint calibrates the span point against the given known
// concentration. Winsen recommends at least 1000 PPM, with a zero point
// calibration done first. The sensor sends no confirmation.
func (d *Dev) CalibrateSpanPoint(span PPM) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.exchange(cmdCalibrateSpan, [5]byte{byte(span >> 8), byte(span)})
	return err
}

// SetDetectionRange sets the upper bound of the measuring range. The
// MH-Z19B accepts 2000, 5000 and 10000 PPM. The sensor sends no
// confirmation.
func (d *Dev) SetDetectionRange(limit PPM) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.exchange(cmdSetRange, [5]byte{3: byte(limit >> 8), 4: byte(limit)})
	return err
}

// SetABC enables or disables automatic baseline calibration, where the
// sensor treats the lowest reading of each 24h window as 400 PPM fresh
// air. Disable it in greenhouses or other spaces that never ventilate
// down to ambient CO2.
func (d *Dev) SetABC(enabled bool) error {
	var payload [5]byte
	if enabled {
		payload[0] = 0xA0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.exchange(cmdSetABC, payload)
	return err
}

// Sense reads the current CO2 concentration and sensor temperature into
// env.
func (d *Dev) Sense(env *Env) error {
	m, err := d.ReadCO2()
	if err != nil {
		return err
	}
	env.CO2 = m.CO2
	env.Temperature = m.Temperature
	env.Pressure = 0
	env.Humidity = 0
	return nil
}

// SenseContinuous reads the sensor on the given interval and delivers
// the readings on the returned channel. Failed reads are skipped, as is
// a reading the receiver is not ready for. To terminate, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Env, error) {
	d.mu.Lock()
	if d.stop != nil {
		d.mu.Unlock()
		return nil, errors.New("mhz: SenseContinuous() running already")
	}
	stop := make(chan struct{})
	d.stop = stop
	d.wg.Add(1)
	d.mu.Unlock()

	sensing := make(chan Env, 16)
	go func() {
		defer d.wg.Done()
		defer close(sensing)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var e Env
				if err := d.Sense(&e); err == nil {
					select {
					case sensing <- e:
					default:
					}
				}
			}
		}
	}()
	return sensing, nil
}

// Precision reports the sensor's resolution: 1 PPM for CO2 and whole
// degrees for temperature.
func (d *Dev) Precision(env *Env) {
	env.CO2 = 1
	env.Temperature = physic.Celsius
	env.Pressure = 0
	env.Humidity = 0
}

// Halt stops a continuous sense started by SenseContinuous().
//
// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	d.wg.Wait()
	return nil
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return "MH-Z* CO2 sensor"
}

// exchange performs one request/reply cycle: the request is fully
// transmitted before the reply read begins, and a reply is read only
// for commands the sensor answers. The caller must hold d.mu.
func (d *Dev) exchange(cmd command, payload [5]byte) (Frame, error) {
	req := buildRequest(cmd.code, payload)
	if _, err := d.tx.Write(req[:]); err != nil {
		return Frame{}, fmt.Errorf("mhz: writing command 0x%02x: %w", cmd.code, err)
	}
	if !cmd.responds {
		return Frame{}, nil
	}
	var resp Frame
	if err := readFull(d.rx, resp[:]); err != nil {
		return Frame{}, fmt.Errorf("mhz: reading response to command 0x%02x: %w", cmd.code, err)
	}
	if err := resp.validate(cmd.code); err != nil {
		return Frame{}, err
	}
	return resp, nil
}

// readFull reads exactly len(buf) bytes from r. A zero-byte read with a
// nil error is an expired port deadline and fails the call; a partial
// frame is never carried over to the next exchange.
func readFull(r io.Reader, buf []byte) error {
	for n := 0; n < len(buf); {
		nn, err := r.Read(buf[n:])
		if err != nil {
			return err
		}
		if nn == 0 {
			return ErrNoResponse
		}
		n += nn
	}
	return nil
}
