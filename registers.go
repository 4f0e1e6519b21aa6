// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package a1335

// Normal registers. Each holds 2 bytes and is addressed directly by a
// single register address byte.
const (
	RegEWA   = 0x02 // Extended write address
	RegEWD   = 0x04 // Extended write data
	RegEWCS  = 0x08 // Extended write control and status
	RegERA   = 0x0A // Extended read address
	RegERCS  = 0x0C // Extended read control and status
	RegERD   = 0x0E // Extended read data
	RegCTRL  = 0x1E // Device control
	RegANG   = 0x20 // Current angle and related flags
	RegSTA   = 0x22 // Device status
	RegERR   = 0x24 // Device error status
	RegXERR  = 0x26 // Extended error status
	RegTSEN  = 0x28 // Temperature sensor data
	RegFIELD = 0x2A // Magnetic field strength
	RegERM   = 0x34 // Device error status masking
	RegXERM  = 0x36 // Extended error status masking
)

// Extended registers. Reached indirectly through the extended read/write
// registers above and carrying 4 bytes of data.
const (
	RegORATE uint16 = 0xFFD0 // Output rate, log2 of the sample rate
)

// extendedConfirm is written after the address (and data, for writes) to
// commit an extended register transfer.
const extendedConfirm byte = 0x80

// field describes one bit field of a 2-byte register. Masks are given in
// wire order, most significant byte first.
type field struct {
	msbMask byte
	lsbMask byte
	shift   uint
}

// extract returns the field's bits shifted down to the low end.
func (f field) extract(v reg16) uint16 {
	return (uint16(v.byteMS(0)&f.msbMask)<<8 | uint16(v.byteMS(1)&f.lsbMask)) >> f.shift
}

// Angle register (RegANG) fields.
var (
	fieldAngleID     = field{0x80, 0x00, 15} // Register identifier code, always 0
	fieldAngleError  = field{0x40, 0x00, 14} // At least one error latched in RegERR
	fieldAngleNew    = field{0x20, 0x00, 13} // A new angle is in the register
	fieldAngleParity = field{0x10, 0x00, 12} // Odd parity bit over the whole register
	fieldAngle       = field{0x0F, 0xFF, 0}  // Angle code, n * 360/4096 degrees
)

// Status register (RegSTA) fields.
var (
	fieldStatusID    = field{0xF0, 0x00, 12} // Register identifier code, always 1000
	fieldPOR         = field{0x08, 0x00, 11} // Power-on reset since last flag reset
	fieldSoftReset   = field{0x04, 0x00, 10} // Soft reset since last flag reset
	fieldStatusNew   = field{0x02, 0x00, 9}  // A new angle is in the angle register
	fieldStatusError = field{0x01, 0x00, 8}  // At least one error latched in RegERR
	fieldProcStatus  = field{0x00, 0xF0, 4}  // 0000 booting, 0001 idle/processing, 1110 self-test
	fieldProcPhase   = field{0x00, 0x0F, 0}  // 0000 idle, 0001 processing; self-test sub-phases otherwise
)

// Temperature register (RegTSEN) fields.
var (
	fieldTempID = field{0xF0, 0x00, 12} // Register identifier code, always 1111
	fieldTemp   = field{0x0F, 0xFF, 0}  // Temperature code, n / 8 kelvin
)

// Field strength register (RegFIELD) fields.
var (
	fieldFluxID = field{0xF0, 0x00, 12} // Register identifier code, always 1110
	fieldFlux   = field{0x0F, 0xFF, 0}  // Flux density code, 1 LSB = 1 gauss
)

// command selects one of the control operations writable to RegCTRL.
type command uint8

const (
	cmdIdleMode command = iota
	cmdRunMode
	cmdHardReset
	cmdSoftReset
	cmdClearStatus
	cmdClearExtendedErrors
	cmdClearErrors
)

// Each control command is a command byte followed by its keycode. The
// keycode guards the device against stray writes flipping its mode.
var commands = [...]struct {
	name string
	ctrl byte
	key  byte
}{
	cmdIdleMode:            {"idle mode", 0x80, 0x46},
	cmdRunMode:             {"run mode", 0xC0, 0x46},
	cmdHardReset:           {"hard reset", 0x20, 0xB9},
	cmdSoftReset:           {"soft reset", 0x10, 0xB9},
	cmdClearStatus:         {"clear status", 0x04, 0x46},
	cmdClearExtendedErrors: {"clear extended errors", 0x02, 0x46},
	cmdClearErrors:         {"clear errors", 0x01, 0x46},
}

// payload returns the 2-byte RegCTRL value for the command.
func (c command) payload() reg16 {
	return reg16(uint16(commands[c].ctrl)<<8 | uint16(commands[c].key))
}

func (c command) String() string {
	return commands[c].name
}

// ProcessorState is the operating phase of the sensor's internal processor,
// derived from the status register.
type ProcessorState uint8

const (
	// StateNotFound means the device did not acknowledge its address.
	StateNotFound ProcessorState = iota
	// StateBooting means the processor has not finished starting up.
	StateBooting
	// StateIdle means the processor is up but not processing angles.
	StateIdle
	// StateRunning means the processor is processing angles.
	StateRunning
	// StateSelfTest means the processor is running its built-in self tests.
	StateSelfTest
)

func (s ProcessorState) String() string {
	switch s {
	case StateNotFound:
		return "not found"
	case StateBooting:
		return "booting"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSelfTest:
		return "self-test"
	}
	return "unknown"
}

// decodeAngle validates the odd parity carried by the angle register and
// returns the 12-bit angle code. An even bit count flags a corrupted
// transfer: the code is reported as 0 with ok false, never as a reading.
func decodeAngle(v reg16) (code uint16, ok bool) {
	p := uint16(v)
	p ^= p >> 8
	p ^= p >> 4
	p ^= p >> 2
	p ^= p >> 1
	if p&1 == 0 {
		return 0, false
	}
	return fieldAngle.extract(v), true
}

// decodeTemperature strips the register identifier bits and returns the
// 12-bit temperature code, 1 LSB = 1/8 kelvin. No parity is carried.
func decodeTemperature(v reg16) uint16 {
	return fieldTemp.extract(v)
}

// decodeField strips the register identifier bits and returns the 12-bit
// flux density code, 1 LSB = 1 gauss.
func decodeField(v reg16) uint16 {
	return fieldFlux.extract(v)
}

// decodeProcessorState derives the processor state from the status
// register. Bit patterns outside the documented set leave the previous
// state in place, mirroring the device documentation which assigns them no
// meaning.
func decodeProcessorState(status reg16, prev ProcessorState) ProcessorState {
	phase := fieldProcPhase.extract(status)
	switch fieldProcStatus.extract(status) {
	case 0x0:
		return StateBooting
	case 0x1:
		if phase == 0 {
			return StateIdle
		}
		return StateRunning
	case 0xE:
		return StateSelfTest
	}
	return prev
}
