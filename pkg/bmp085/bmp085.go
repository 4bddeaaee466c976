package bmp085

import (
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/periph/conn/physic"
)

// based on https://cdn-shop.adafruit.com/datasheets/BST-BMP180-DS000-09.pdf
// (BMP085 and BMP180 share the register map and the compensation algorithm)

const (
	//WriteAddress is the 8-bit bus address used to write registers (0x77 << 1)
	WriteAddress uint8 = 0xEE
	//ReadAddress is the 8-bit bus address used to read registers
	ReadAddress uint8 = 0xEF

	//SeaLevelPressure is the standard atmosphere at sea level, in Pa
	SeaLevelPressure int32 = 101325

	regCalibration byte = 0xAA
	regControl     byte = 0xF4
	regResult      byte = 0xF6

	cmdTemperature byte = 0x2E
	cmdPressure    byte = 0x34

	calibrationWords = 11

	// 4.5ms conversion time, rounded up
	temperatureDelayMs uint32 = 5
)

//Bus is the byte-oriented I2C transport the sensor talks through.
//Addresses are the 8-bit write/read forms.
//go:generate counterfeiter . Bus
type Bus interface {
	Write(addr uint8, data []byte) error
	Read(addr uint8, n int) ([]byte, error)
}

//Delayer blocks for the given number of milliseconds
//go:generate counterfeiter . Delayer
type Delayer interface {
	DelayMs(ms uint32)
}

//DelayFunc adapts a function to the Delayer interface
type DelayFunc func(ms uint32)

//DelayMs calls f(ms)
func (f DelayFunc) DelayMs(ms uint32) { f(ms) }

//SleepDelay blocks the calling goroutine with time.Sleep
var SleepDelay = DelayFunc(func(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
})

//Oversampling selects the pressure ADC resolution. Higher settings average
//more samples and take longer to convert.
type Oversampling uint8

const (
	UltraLowPower Oversampling = iota
	Standard
	HighResolution
	UltraHighResolution
)

//ParseOversampling converts a numeric setting, as found in configuration
func ParseOversampling(v int) (Oversampling, error) {
	if v < int(UltraLowPower) || v > int(UltraHighResolution) {
		return 0, fmt.Errorf("bmp085: oversampling must be between 0 and 3, got %d", v)
	}
	return Oversampling(v), nil
}

//ConversionDelay is the time in ms the device needs for a pressure
//conversion at this setting: 5, 8, 14 or 26.
func (o Oversampling) ConversionDelay() uint32 {
	return 2 + (3 << o)
}

func (o Oversampling) command() byte {
	return cmdPressure + byte(o)<<6
}

//RawPressure assembles the MSB, LSB and XLSB result registers into an
//uncompensated pressure sample aligned to the oversampling setting.
func RawPressure(msb, lsb, xlsb byte, oss Oversampling) uint32 {
	return (uint32(msb)<<16 | uint32(lsb)<<8 | uint32(xlsb)) >> (8 - oss)
}

//Reading is one compensated temperature/pressure pair
type Reading struct {
	//Temperature in tenths of a degree Celsius
	Temperature int16 `json:"temperature"`
	//Pressure in Pa
	Pressure int32 `json:"pressure"`
}

//Celsius returns the temperature in degrees Celsius
func (r Reading) Celsius() float64 {
	return float64(r.Temperature) / 10
}

//Env converts the reading to periph physic units
func (r Reading) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(r.Temperature)*100*physic.MilliCelsius,
		Pressure:    physic.Pressure(r.Pressure) * physic.Pascal,
	}
}

//Altitude returns the barometric altitude in meters relative to the given
//sea level pressure (Pa), using the international barometric formula.
func (r Reading) Altitude(seaLevel int32) float64 {
	return 44330 * (1 - math.Pow(float64(r.Pressure)/float64(seaLevel), 1/5.255))
}

//Opts configures a Sensor
type Opts struct {
	Oversampling Oversampling
}

//DefaultOpts matches the firmware: ultra low power, single sample
var DefaultOpts = Opts{
	Oversampling: UltraLowPower,
}

//Sensor is a BMP085/BMP180 on an I2C bus.
//
//If the bus implements sync.Locker it is held for the whole of Initialize
//and ReadPressure, so no other transaction can land between the conversion
//trigger and the result read.
type Sensor struct {
	bus   Bus
	delay Delayer
	oss   Oversampling
	cal   *Calibration

	sync.Mutex
}

//New creates a Sensor. It performs no bus traffic; call Initialize before
//reading.
func New(bus Bus, delay Delayer, opts *Opts) (*Sensor, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if _, err := ParseOversampling(int(opts.Oversampling)); err != nil {
		return nil, err
	}
	if delay == nil {
		delay = SleepDelay
	}

	return &Sensor{
		bus:   bus,
		delay: delay,
		oss:   opts.Oversampling,
	}, nil
}

//Oversampling returns the configured oversampling setting
func (s *Sensor) Oversampling() Oversampling {
	return s.oss
}

//Calibration returns the coefficients loaded by Initialize. ok is false
//until Initialize has succeeded.
func (s *Sensor) Calibration() (cal Calibration, ok bool) {
	s.Lock()
	defer s.Unlock()

	if s.cal == nil {
		return Calibration{}, false
	}
	return *s.cal, true
}

//Initialize reads the calibration coefficients. It returns ErrSensorAbsent
//when they fail the sanity check, in which case the sensor stays unusable.
func (s *Sensor) Initialize() error {
	s.Lock()
	defer s.Unlock()
	defer lockBus(s.bus)()

	s.cal = nil
	var words [calibrationWords]uint16
	for i := range words {
		reg := regCalibration + byte(2*i)
		buf, err := s.readRegister(reg, 2)
		if err != nil {
			return err
		}
		words[i] = uint16(buf[0])<<8 | uint16(buf[1])
	}

	cal := newCalibration(words)
	if !cal.Valid() {
		return ErrSensorAbsent
	}
	s.cal = &cal

	return nil
}

//ReadPressure runs one acquisition cycle: a temperature conversion followed
//by a pressure conversion. The call blocks for the datasheet conversion times
//(10ms to 31ms in total depending on oversampling).
func (s *Sensor) ReadPressure() (Reading, error) {
	s.Lock()
	defer s.Unlock()

	if s.cal == nil {
		return Reading{}, ErrNotInitialized
	}
	defer lockBus(s.bus)()

	ut, err := s.readUncompensatedTemperature()
	if err != nil {
		return Reading{}, err
	}
	temperature, b5, err := s.cal.CompensateTemperature(ut)
	if err != nil {
		return Reading{}, err
	}

	up, err := s.readUncompensatedPressure()
	if err != nil {
		return Reading{}, err
	}
	pressure, err := s.cal.CompensatePressure(up, b5, s.oss)
	if err != nil {
		return Reading{}, err
	}

	return Reading{
		Temperature: temperature,
		Pressure:    pressure,
	}, nil
}

func (s *Sensor) readUncompensatedTemperature() (uint16, error) {
	if err := s.writeRegister(regControl, cmdTemperature); err != nil {
		return 0, err
	}
	s.delay.DelayMs(temperatureDelayMs)

	buf, err := s.readRegister(regResult, 2)
	if err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

func (s *Sensor) readUncompensatedPressure() (uint32, error) {
	if err := s.writeRegister(regControl, s.oss.command()); err != nil {
		return 0, err
	}
	s.delay.DelayMs(s.oss.ConversionDelay())

	buf, err := s.readRegister(regResult, 3)
	if err != nil {
		return 0, err
	}
	return RawPressure(buf[0], buf[1], buf[2], s.oss), nil
}

func (s *Sensor) writeRegister(reg, value byte) error {
	if err := s.bus.Write(WriteAddress, []byte{reg, value}); err != nil {
		return &TransportError{Op: "write", Register: reg, Err: err}
	}
	return nil
}

//readRegister selects reg and reads n consecutive bytes from it
func (s *Sensor) readRegister(reg byte, n int) ([]byte, error) {
	if err := s.bus.Write(WriteAddress, []byte{reg}); err != nil {
		return nil, &TransportError{Op: "select", Register: reg, Err: err}
	}

	buf, err := s.bus.Read(ReadAddress, n)
	if err != nil {
		return nil, &TransportError{Op: "read", Register: reg, Err: err}
	}
	if len(buf) != n {
		return nil, &TransportError{
			Op:       "read",
			Register: reg,
			Err:      fmt.Errorf("short read: got %d of %d bytes", len(buf), n),
		}
	}

	return buf, nil
}

func lockBus(bus Bus) (unlock func()) {
	if l, ok := bus.(sync.Locker); ok {
		l.Lock()
		return l.Unlock
	}
	return func() {}
}
