package gpio

import (
	"fmt"
	"strings"

	rpio "github.com/stianeikeland/go-rpio"
)

//State IO pin state
type State = rpio.State

//States state names
var States = map[State]string{
	Low:  "low",
	High: "high",
}

const (
	//Low signal
	Low = rpio.Low

	//High signal
	High = rpio.High
)

//ParseState parse a state from a string
func ParseState(s string) (State, error) {
	switch strings.ToLower(s) {
	case States[Low]:
		return Low, nil
	case States[High]:
		return High, nil
	}
	return State(0), fmt.Errorf("unexpected string %s, expected HIGH or LOW", s)
}

//Setup initialize memory buffers for GPIO
func Setup() error {
	return rpio.Open()
}

//Teardown release the memory buffers mapped by Setup
func Teardown() error {
	return rpio.Close()
}

//OutputPin minimal interface for a GPIO output
//go:generate counterfeiter . OutputPin
type OutputPin interface {
	Output()
	High()
	Low()
}

//Pin returns the BCM-numbered pin, or nil for a negative number so that
//optional pins can be left unwired in configuration
func Pin(bcm int) OutputPin {
	if bcm < 0 {
		return nil
	}
	return rpio.Pin(bcm)
}

//Set sets the state of the pin. A nil pin is ignored.
func Set(pin OutputPin, high bool) {
	if pin == nil {
		return
	}

	pin.Output()
	if high {
		pin.High()
	} else {
		pin.Low()
	}
}
