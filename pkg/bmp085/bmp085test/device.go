//Package bmp085test provides a register-level simulation of a BMP085 for
//exercising the driver without hardware.
package bmp085test

import (
	"errors"
	"fmt"

	"github.com/xanderflood/weatherstation/pkg/bmp085"
)

//DatasheetCalibration is the worked example from the BMP085/BMP180 datasheet
var DatasheetCalibration = bmp085.Calibration{
	AC1: 408,
	AC2: -72,
	AC3: -14383,
	AC4: 32741,
	AC5: 32757,
	AC6: 23153,
	B1:  6190,
	B2:  4,
	MB:  -32768,
	MC:  -8711,
	MD:  2868,
}

const (
	//DatasheetUT is the uncompensated temperature of the worked example
	DatasheetUT uint16 = 27898
	//DatasheetUP is the uncompensated pressure of the worked example (oss 0)
	DatasheetUP uint32 = 23843
)

//Op is one bus operation seen by the Device
type Op struct {
	Read bool
	Addr uint8
	Data []byte
}

func (o Op) String() string {
	if o.Read {
		return fmt.Sprintf("R 0x%02X % X", o.Addr, o.Data)
	}
	return fmt.Sprintf("W 0x%02X % X", o.Addr, o.Data)
}

//Device simulates the sensor's register file. It implements bmp085.Bus and
//bmp085.Delayer; Ops and Delays record the traffic for assertions.
type Device struct {
	Calibration bmp085.Calibration

	//UT is served from 0xF6 after a temperature conversion
	UT uint16
	//UP is served from 0xF6..0xF8 after a pressure conversion
	UP [3]byte

	//Fail, when set, may reject an operation before it is applied
	Fail func(op Op) error

	Ops    []Op
	Delays []uint32

	pointer byte
	control byte
}

//NewDevice creates a Device preloaded with the datasheet example
func NewDevice() *Device {
	d := &Device{
		Calibration: DatasheetCalibration,
		UT:          DatasheetUT,
	}
	d.SetUP(DatasheetUP, bmp085.UltraLowPower)
	return d
}

//SetUP stores up in the result registers the way the device aligns it for oss
func (d *Device) SetUP(up uint32, oss bmp085.Oversampling) {
	raw := up << (8 - oss)
	d.UP = [3]byte{byte(raw >> 16), byte(raw >> 8), byte(raw)}
}

//Write implements bmp085.Bus
func (d *Device) Write(addr uint8, data []byte) error {
	op := Op{Addr: addr, Data: append([]byte(nil), data...)}
	d.Ops = append(d.Ops, op)
	if d.Fail != nil {
		if err := d.Fail(op); err != nil {
			return err
		}
	}

	if addr != bmp085.WriteAddress {
		return fmt.Errorf("nack on write address 0x%02X", addr)
	}
	if len(data) == 0 {
		return errors.New("empty write")
	}

	d.pointer = data[0]
	if len(data) > 1 && data[0] == 0xF4 {
		d.control = data[1]
	}
	return nil
}

//Read implements bmp085.Bus
func (d *Device) Read(addr uint8, n int) ([]byte, error) {
	op := Op{Read: true, Addr: addr}
	if d.Fail != nil {
		if err := d.Fail(op); err != nil {
			d.Ops = append(d.Ops, op)
			return nil, err
		}
	}
	if addr != bmp085.ReadAddress {
		d.Ops = append(d.Ops, op)
		return nil, fmt.Errorf("nack on read address 0x%02X", addr)
	}

	buf := make([]byte, n)
	for i := range buf {
		buf[i] = d.register(d.pointer + byte(i))
	}
	op.Data = buf
	d.Ops = append(d.Ops, op)

	return append([]byte(nil), buf...), nil
}

//DelayMs implements bmp085.Delayer
func (d *Device) DelayMs(ms uint32) {
	d.Delays = append(d.Delays, ms)
}

func (d *Device) register(reg byte) byte {
	switch {
	case reg >= 0xAA && reg <= 0xBF:
		w := d.calibrationWords()[(reg-0xAA)/2]
		if (reg-0xAA)%2 == 0 {
			return byte(w >> 8)
		}
		return byte(w)
	case reg == 0xF4:
		return d.control
	case reg >= 0xF6 && reg <= 0xF8:
		if d.control == 0x2E {
			return [3]byte{byte(d.UT >> 8), byte(d.UT), 0}[reg-0xF6]
		}
		if d.control&0x3F == 0x34 {
			return d.UP[reg-0xF6]
		}
	}
	return 0
}

func (d *Device) calibrationWords() [11]uint16 {
	c := d.Calibration
	return [11]uint16{
		uint16(c.AC1), uint16(c.AC2), uint16(c.AC3),
		c.AC4, c.AC5, c.AC6,
		uint16(c.B1), uint16(c.B2),
		uint16(c.MB), uint16(c.MC), uint16(c.MD),
	}
}
