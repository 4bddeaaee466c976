//Package i2cbus provides the byte-oriented I2C transports used by the
//station's drivers, on top of periph.io or embd.
package i2cbus

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all" // registers embd host drivers
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

const (
	//DriverPeriph opens the bus through periph.io (default)
	DriverPeriph = "periph"
	//DriverEmbd opens the bus through kidoman/embd
	DriverEmbd = "embd"
)

//Transport is a byte-oriented I2C bus addressed with 8-bit read/write
//addresses (7-bit address shifted left, low bit set for reads).
type Transport interface {
	Write(addr uint8, data []byte) error
	Read(addr uint8, n int) ([]byte, error)
	Close() error
}

//WriteAddress returns the 8-bit write address for a 7-bit device address
func WriteAddress(addr uint16) uint8 {
	return uint8(addr << 1)
}

//ReadAddress returns the 8-bit read address for a 7-bit device address
func ReadAddress(addr uint16) uint8 {
	return uint8(addr<<1) | 1
}

//Open opens the named bus with the given driver. For periph the name is
//passed to i2creg.Open ("" picks the first bus); for embd it is the bus
//number ("" means 1).
func Open(driver, name string) (Transport, error) {
	switch driver {
	case "", DriverPeriph:
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("failed initializing periph.io host: %w", err)
		}
		bus, err := i2creg.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed opening i2c bus %q: %w", name, err)
		}
		return &Periph{Bus: bus}, nil

	case DriverEmbd:
		line := 1
		if name != "" {
			var err error
			if line, err = strconv.Atoi(name); err != nil {
				return nil, fmt.Errorf("embd bus name must be a number, got %q", name)
			}
		}
		if err := embd.InitI2C(); err != nil {
			return nil, fmt.Errorf("failed initializing embd i2c: %w", err)
		}
		return &Embd{Bus: embd.NewI2CBus(byte(line))}, nil

	default:
		return nil, fmt.Errorf("no such i2c driver `%s`", driver)
	}
}

//Shared serializes access to a Transport. Single Write/Read calls are not
//locked; callers that issue a multi-step sequence hold the lock around it.
//bmp085.Sensor does this automatically since Shared is a sync.Locker.
type Shared struct {
	Transport
	sync.Mutex
}

//NewShared wraps t
func NewShared(t Transport) *Shared {
	return &Shared{Transport: t}
}

//Transact writes w to the 7-bit device address and then reads n bytes
//back, holding the bus for the whole exchange.
func (s *Shared) Transact(addr uint16, w []byte, n int) ([]byte, error) {
	if len(w) == 0 && n == 0 {
		return nil, errors.New("empty i2c transaction")
	}

	s.Lock()
	defer s.Unlock()

	if len(w) > 0 {
		if err := s.Write(WriteAddress(addr), w); err != nil {
			return nil, err
		}
	}
	if n == 0 {
		return []byte{}, nil
	}
	return s.Read(ReadAddress(addr), n)
}
