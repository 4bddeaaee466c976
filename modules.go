package main

import (
	"errors"
	"fmt"

	"github.com/xanderflood/weatherstation/pkg/bmp085"
	"github.com/xanderflood/weatherstation/pkg/cache"
	"github.com/xanderflood/weatherstation/pkg/i2cbus"
	"github.com/xanderflood/weatherstation/pkg/rgb"
)

////////////////////////
// The module library //
type BMP085Module struct {
	sp       ServiceProvider
	sensor   *bmp085.Sensor
	seaLevel int32
}
type BMP085ModuleConfig struct {
	//SeaLevel overrides the station's reference pressure for altitude, in Pa
	SeaLevel *int32 `json:"sea_level_pa"`
}
type BMP085ReadResponse struct {
	Temperature  int16   `json:"temperature"`
	Pressure     int32   `json:"pressure"`
	Celsius      float64 `json:"celsius"`
	Altitude     float64 `json:"altitude_m"`
	TemperatureS string  `json:"temperature_text"`
	PressureS    string  `json:"pressure_text"`
}

func (*BMP085Module) Stop() error { return nil }

func (m *BMP085Module) Initialize(sp ServiceProvider, binder Binder) error {
	var config = &BMP085ModuleConfig{}
	if err := binder.BindData(config); err != nil {
		return err
	}

	sensor, err := sp.PressureSensor()
	if err != nil {
		return err
	}

	m.sp = sp
	m.sensor = sensor
	m.seaLevel = sp.SeaLevel()
	if config.SeaLevel != nil {
		if *config.SeaLevel <= 0 {
			return fmt.Errorf("`sea_level_pa` must be positive, got %d", *config.SeaLevel)
		}
		m.seaLevel = *config.SeaLevel
	}

	return nil
}
func (m *BMP085Module) Act(action string, _ Binder) (interface{}, error) {
	switch action {
	case "read":
		r, err := m.sp.Sample()
		if err != nil {
			return nil, fmt.Errorf("failed reading pressure: %w", err)
		}

		env := r.Env()
		return BMP085ReadResponse{
			Temperature:  r.Temperature,
			Pressure:     r.Pressure,
			Celsius:      r.Celsius(),
			Altitude:     r.Altitude(m.seaLevel),
			TemperatureS: env.Temperature.String(),
			PressureS:    env.Pressure.String(),
		}, nil
	case "initialize":
		if err := m.sensor.Initialize(); err != nil {
			return nil, fmt.Errorf("failed initializing BMP085: %w", err)
		}
		fallthrough
	case "calibration":
		cal, ok := m.sensor.Calibration()
		if !ok {
			return nil, bmp085.ErrNotInitialized
		}
		return cal, nil
	case "previous":
		prev, err := m.sp.Cache().Load()
		if errors.Is(err, cache.ErrEmpty) {
			return nil, nil
		}
		return prev, err
	default:
		return nil, fmt.Errorf("no such action `%s`", action)
	}
}

type I2CModule struct {
	bus     *i2cbus.Shared
	address uint16
}
type I2CModuleConfig struct {
	Address uint16 `json:"address"`
}
type I2CTransactRequest struct {
	Bytes          []byte `json:"bytes"`
	ResponseLength int    `json:"resp_len"`
}

func (*I2CModule) Stop() error { return nil }

func (m *I2CModule) Initialize(sp ServiceProvider, binder Binder) error {
	var config = &I2CModuleConfig{}
	if err := binder.BindData(config); err != nil {
		return err
	}
	if config.Address == 0 || config.Address > 0x7F {
		return fmt.Errorf("`address` must be a 7-bit i2c address, got %d", config.Address)
	}

	bus, err := sp.Bus()
	if err != nil {
		return fmt.Errorf("failed getting i2c device: %w", err)
	}
	m.bus = bus
	m.address = config.Address

	return nil
}
func (m *I2CModule) Act(action string, body Binder) (interface{}, error) {
	var request = &I2CTransactRequest{}
	if err := body.BindData(request); err != nil {
		return nil, err
	}

	switch action {
	case "transact":
		resp, err := m.bus.Transact(m.address, request.Bytes, request.ResponseLength)
		if err != nil {
			return nil, fmt.Errorf("failed executing I2C transaction: %w", err)
		}

		return map[string]interface{}{
			"response": resp,
		}, nil

	default:
		return nil, fmt.Errorf("no such action `%s`", action)
	}
}

type StatusModule struct {
	led rgb.LED
}
type StatusSetRequest struct {
	Color string `json:"color"`
}
type StatusResponse struct {
	Color string `json:"color"`
}

func (*StatusModule) Stop() error { return nil }

func (m *StatusModule) Initialize(sp ServiceProvider, _ Binder) error {
	m.led = sp.StatusLED()
	if m.led == nil {
		return errors.New("no status LED")
	}
	return nil
}
func (m *StatusModule) Act(action string, body Binder) (interface{}, error) {
	switch action {
	case "set":
		var request = &StatusSetRequest{}
		if err := body.BindData(request); err != nil {
			return nil, err
		}

		c, err := rgb.ParseColor(request.Color)
		if err != nil {
			return nil, err
		}
		m.led.Set(c)
		return StatusResponse{Color: c.String()}, nil
	case "get":
		return StatusResponse{Color: m.led.Color().String()}, nil
	default:
		return nil, fmt.Errorf("no such action `%s`", action)
	}
}
