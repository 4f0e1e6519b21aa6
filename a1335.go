// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package a1335

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the factory-programmed I²C address of the A1335.
const DefaultAddress uint16 = 0x0C

// ErrInvalidParity is returned by the angle readers when the angle
// register fails its odd parity check. The raw reading is reported as 0 in
// that case; this error is what distinguishes a corrupted transfer from a
// genuine 0° angle.
var ErrInvalidParity = errors.New("a1335: angle parity check failed")

const (
	// Pause after parking the processor in idle or returning it to run
	// mode. The device rejects the extended rate write without it.
	modeSwitchPause = 150 * time.Microsecond
	// Pause after writing the output rate, before leaving idle mode.
	rateWritePause = 50 * time.Microsecond
	// Pause between the address phase and the data phase of an extended
	// register access.
	extendedAccessPause = 10 * time.Microsecond
	// Settle time after the initial status reads.
	startupSettle = time.Millisecond
)

// MagneticFluxDensity is a measurement of magnetic flux density stored as
// an int64 nanotesla count.
type MagneticFluxDensity int64

const (
	NanoTesla  MagneticFluxDensity = 1
	MicroTesla MagneticFluxDensity = 1000 * NanoTesla
	MilliTesla MagneticFluxDensity = 1000 * MicroTesla
	Tesla      MagneticFluxDensity = 1000 * MilliTesla

	// Gauss is the sensor's native field strength unit.
	Gauss MagneticFluxDensity = 100 * MicroTesla
)

func (f MagneticFluxDensity) String() string {
	return fmt.Sprintf("%gmT", float64(f)/float64(MilliTesla))
}

// ResetMode selects the type of reset performed by Reset.
type ResetMode int

const (
	// ResetSoft restarts the processor without reloading EEPROM.
	ResetSoft ResetMode = iota
	// ResetHard restarts the processor and reloads EEPROM contents.
	ResetHard
)

// Dev represents an A1335 sensor on an I²C bus.
//
// The bus is a shared, non-reentrant resource with a single in-flight
// transaction at a time; the device mutex serializes all operations.
type Dev struct {
	d  *i2c.Dev
	mu sync.Mutex
	// Derived from the status register during start; the zero value is
	// StateNotFound.
	state ProcessorState
	// log2 of the sample rate, cached from RegORATE.
	outputRate uint8
}

// NewI2C returns an A1335 device using the specified bus and address and
// probes it. On probe failure the device is still returned, with its
// processor state left at StateNotFound.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}
	return d, d.start()
}

// start probes the device address, then reads the status and output rate
// registers to seed the cached state.
func (d *Dev) start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.d.Tx(nil, nil); err != nil {
		d.state = StateNotFound
		return fmt.Errorf("a1335: probe: %w", err)
	}
	status, err := d.normalRead(RegSTA)
	if err != nil {
		return err
	}
	orate, err := d.extendedRead(RegORATE)
	if err != nil {
		return err
	}
	d.state = decodeProcessorState(status, d.state)
	d.outputRate = orate.byteMS(0)
	time.Sleep(startupSettle)
	return nil
}

// Addr returns the device's I²C address.
func (d *Dev) Addr() uint16 {
	return d.d.Addr
}

// ProcessorState returns the processor state cached during the last start.
func (d *Dev) ProcessorState() ProcessorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// OutputRate returns the cached log2 of the sample rate. A rate of 3 means
// 8 samples are averaged per data point.
func (d *Dev) OutputRate() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outputRate
}

// AngleRaw reads the angle register and returns the 12-bit angle code,
// where 4096 counts one full turn. A parity failure returns 0 and
// ErrInvalidParity.
func (d *Dev) AngleRaw() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.normalRead(RegANG)
	if err != nil {
		return 0, err
	}
	code, ok := decodeAngle(raw)
	if !ok {
		return 0, ErrInvalidParity
	}
	return code, nil
}

// Angle reads the current angle.
func (d *Dev) Angle() (physic.Angle, error) {
	code, err := d.AngleRaw()
	if err != nil {
		return 0, err
	}
	return physic.Angle(float64(code) * 360.0 / 4096.0 * float64(physic.Degree)), nil
}

// TemperatureRaw reads the temperature register and returns the 12-bit
// temperature code, 8 counts per kelvin.
func (d *Dev) TemperatureRaw() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.normalRead(RegTSEN)
	if err != nil {
		return 0, err
	}
	return decodeTemperature(raw), nil
}

// Temperature reads the die temperature.
func (d *Dev) Temperature() (physic.Temperature, error) {
	raw, err := d.TemperatureRaw()
	if err != nil {
		return 0, err
	}
	return physic.Temperature(float64(raw) / 8.0 * float64(physic.Kelvin)), nil
}

// FieldRaw reads the field strength register and returns the 12-bit flux
// density code, 1 count per gauss.
func (d *Dev) FieldRaw() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.normalRead(RegFIELD)
	if err != nil {
		return 0, err
	}
	return decodeField(raw), nil
}

// Field reads the strength of the magnetic field at the sensor.
func (d *Dev) Field() (MagneticFluxDensity, error) {
	raw, err := d.FieldRaw()
	if err != nil {
		return 0, err
	}
	return MagneticFluxDensity(raw) * Gauss, nil
}

// ReadOutputRate reads the log2 of the sample rate from the device, as
// opposed to OutputRate which returns the cached value.
func (d *Dev) ReadOutputRate() (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	orate, err := d.extendedRead(RegORATE)
	if err != nil {
		return 0, err
	}
	return orate.byteMS(0), nil
}

// SetOutputRate sets the log2 of the sample rate, clamped to [0, 7]. A
// rate of 3 makes the device average 2³ samples per data point.
//
// The write is a three-phase mode transition: the processor is parked in
// idle mode, the rate is written into the extended output rate register,
// and the processor is returned to run mode. The device only accepts the
// rate write while idle, and each phase needs its settle pause. A failed
// phase does not stop the remaining ones; leaving the device parked in
// idle would be worse than a lost rate write. The first error is returned.
func (d *Dev) SetOutputRate(rate int) error {
	if rate < 0 {
		rate = 0
	} else if rate > 7 {
		rate = 7
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var firstErr error
	if err := d.sendCommand(cmdIdleMode); err != nil {
		firstErr = err
	}
	time.Sleep(modeSwitchPause)
	var v reg32
	v.setByteMS(0, byte(rate))
	if err := d.extendedWrite(RegORATE, v); err != nil && firstErr == nil {
		firstErr = err
	}
	time.Sleep(rateWritePause)
	if err := d.sendCommand(cmdRunMode); err != nil && firstErr == nil {
		firstErr = err
	}
	time.Sleep(modeSwitchPause)
	if firstErr == nil {
		d.outputRate = uint8(rate)
	}
	return firstErr
}

// Reset restarts the sensor's processor. The device boots again
// afterwards; call NewI2C or read the status register before relying on
// further measurements.
func (d *Dev) Reset(mode ResetMode) error {
	cmd := cmdSoftReset
	if mode == ResetHard {
		cmd = cmdHardReset
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sendCommand(cmd); err != nil {
		return err
	}
	d.state = StateBooting
	time.Sleep(startupSettle)
	return nil
}

// ClearStatus clears the latched flags in the status register.
func (d *Dev) ClearStatus() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommand(cmdClearStatus)
}

// ClearErrors clears the latched flags in the error register.
func (d *Dev) ClearErrors() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommand(cmdClearErrors)
}

// ClearExtendedErrors clears the latched flags in the extended error
// register.
func (d *Dev) ClearExtendedErrors() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommand(cmdClearExtendedErrors)
}

// Halt parks the processor in idle mode, stopping angle processing.
// Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sendCommand(cmdIdleMode); err != nil {
		return err
	}
	time.Sleep(modeSwitchPause)
	d.state = StateIdle
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("a1335: %s", d.d.String())
}

// NormalRead reads a 2-byte register from the normal register space.
func (d *Dev) NormalRead(reg byte) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.normalRead(reg)
	return uint16(v), err
}

// NormalWrite writes a 2-byte register in the normal register space.
func (d *Dev) NormalWrite(reg byte, data uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.normalWrite(reg, reg16(data))
}

// ExtendedRead reads a 4-byte register from the extended register space.
func (d *Dev) ExtendedRead(reg uint16) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.extendedRead(reg)
	return uint32(v), err
}

// ExtendedWrite writes a 4-byte register in the extended register space.
func (d *Dev) ExtendedWrite(reg uint16, data uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.extendedWrite(reg, reg32(data))
}

// sendCommand writes a control command and its keycode to RegCTRL.
func (d *Dev) sendCommand(c command) error {
	if err := d.normalWrite(RegCTRL, c.payload()); err != nil {
		return fmt.Errorf("a1335: %s: %w", c, err)
	}
	return nil
}

// normalRead issues the register address and reads back both bytes, most
// significant first.
func (d *Dev) normalRead(reg byte) (reg16, error) {
	r := make([]byte, 2)
	if err := d.d.Tx([]byte{reg}, r); err != nil {
		return 0, fmt.Errorf("a1335: read 0x%02x: %w", reg, err)
	}
	var v reg16
	v.setByteMS(0, r[0])
	v.setByteMS(1, r[1])
	return v, nil
}

// normalWrite writes both bytes of a register, most significant first.
func (d *Dev) normalWrite(reg byte, v reg16) error {
	if err := d.d.Tx([]byte{reg, v.byteMS(0), v.byteMS(1)}, nil); err != nil {
		return fmt.Errorf("a1335: write 0x%02x: %w", reg, err)
	}
	return nil
}

// extendedRead stages the extended register address through RegERA,
// pauses for the device to fetch, then reads a transfer status byte
// followed by the 4 data bytes, most significant first.
func (d *Dev) extendedRead(reg uint16) (reg32, error) {
	w := []byte{RegERA, byte(reg >> 8), byte(reg), extendedConfirm}
	if err := d.d.Tx(w, nil); err != nil {
		return 0, fmt.Errorf("a1335: extended read 0x%04x: %w", reg, err)
	}
	time.Sleep(extendedAccessPause)
	r := make([]byte, 5)
	if err := d.d.Tx(nil, r); err != nil {
		return 0, fmt.Errorf("a1335: extended read 0x%04x: %w", reg, err)
	}
	var v reg32
	for i, b := range r[1:] {
		v.setByteMS(i, b)
	}
	return v, nil
}

// extendedWrite stages the extended register address and data through
// RegEWA, pauses, then reads back the transfer status byte. Bit 0 of the
// status reports acceptance.
func (d *Dev) extendedWrite(reg uint16, v reg32) error {
	w := []byte{
		RegEWA, byte(reg >> 8), byte(reg),
		v.byteMS(0), v.byteMS(1), v.byteMS(2), v.byteMS(3),
		extendedConfirm,
	}
	if err := d.d.Tx(w, nil); err != nil {
		return fmt.Errorf("a1335: extended write 0x%04x: %w", reg, err)
	}
	time.Sleep(extendedAccessPause)
	r := make([]byte, 1)
	if err := d.d.Tx(nil, r); err != nil {
		return fmt.Errorf("a1335: extended write 0x%04x: %w", reg, err)
	}
	if r[0]&0x01 == 0 {
		return fmt.Errorf("a1335: extended write 0x%04x not accepted, status 0x%02x", reg, r[0])
	}
	return nil
}

var _ conn.Resource = &Dev{}
