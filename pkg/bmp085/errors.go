package bmp085

import (
	"errors"
	"fmt"
)

var (
	//ErrSensorAbsent is returned by Initialize when the calibration words
	//read back as garbage (AC1, AC2 and AC3 all equal)
	ErrSensorAbsent = errors.New("bmp085: sensor absent")

	//ErrNotInitialized is returned by ReadPressure before a successful Initialize
	ErrNotInitialized = errors.New("bmp085: sensor not initialized")

	//ErrArithmeticDegenerate is returned when a compensation step would divide by zero
	ErrArithmeticDegenerate = errors.New("bmp085: degenerate compensation input")
)

//TransportError wraps a failure reported by the Bus
type TransportError struct {
	Op       string
	Register byte
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bmp085: %s register 0x%02X: %v", e.Op, e.Register, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
