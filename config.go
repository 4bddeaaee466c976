package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/xanderflood/weatherstation/pkg/bmp085"
	"github.com/xanderflood/weatherstation/pkg/gpio"
)

//Config the station configuration
type Config struct {
	Listen   string
	LogLevel string

	I2CDriver string
	I2CBus    string

	Oversampling bmp085.Oversampling
	SeaLevel     int32

	CachePath string

	//StatusPins BCM pin numbers of the red, green and blue channels, -1 if unwired
	StatusPins   [3]int
	StatusActive gpio.State
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("listen", "0.0.0.0:3141")
	v.SetDefault("log-level", "INFO")
	v.SetDefault("i2c.driver", "periph")
	v.SetDefault("i2c.bus", "")
	v.SetDefault("bmp085.oversampling", 0)
	v.SetDefault("bmp085.sea-level-pa", bmp085.SeaLevelPressure)
	v.SetDefault("cache.path", "/var/lib/weatherstation/previous")
	v.SetDefault("status.red", -1)
	v.SetDefault("status.green", -1)
	v.SetDefault("status.blue", -1)
	v.SetDefault("status.active", "high")

	v.SetEnvPrefix("weatherstation")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

//LoadConfig reads the optional config file into v and validates the result
func LoadConfig(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed reading config file: %w", err)
		}
	}

	oss, err := bmp085.ParseOversampling(v.GetInt("bmp085.oversampling"))
	if err != nil {
		return Config{}, err
	}
	active, err := gpio.ParseState(v.GetString("status.active"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid status.active: %w", err)
	}
	seaLevel := v.GetInt32("bmp085.sea-level-pa")
	if seaLevel <= 0 {
		return Config{}, fmt.Errorf("bmp085.sea-level-pa must be positive, got %d", seaLevel)
	}

	return Config{
		Listen:       v.GetString("listen"),
		LogLevel:     v.GetString("log-level"),
		I2CDriver:    v.GetString("i2c.driver"),
		I2CBus:       v.GetString("i2c.bus"),
		Oversampling: oss,
		SeaLevel:     seaLevel,
		CachePath:    v.GetString("cache.path"),
		StatusPins: [3]int{
			v.GetInt("status.red"),
			v.GetInt("status.green"),
			v.GetInt("status.blue"),
		},
		StatusActive: active,
	}, nil
}
