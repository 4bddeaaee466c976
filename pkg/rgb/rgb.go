package rgb

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xanderflood/weatherstation/pkg/gpio"
)

//Color a combination of the three LED channels
type Color uint8

const (
	//Off all channels dark
	Off Color = 0

	Red   Color = 1
	Green Color = 2
	Blue  Color = 4
)

var names = map[string]Color{
	"off":   Off,
	"red":   Red,
	"green": Green,
	"blue":  Blue,
}

//ParseColor parses names joined with '+', like "red+green"
func ParseColor(s string) (Color, error) {
	var c Color
	for _, part := range strings.Split(strings.ToLower(s), "+") {
		n, ok := names[strings.TrimSpace(part)]
		if !ok {
			return Off, fmt.Errorf("no such color `%s`", part)
		}
		c |= n
	}
	return c, nil
}

func (c Color) String() string {
	if c == Off {
		return "off"
	}

	var parts []string
	for name, n := range names {
		if n != Off && c&n != 0 {
			parts = append(parts, name)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "+")
}

//LED an RGB status LED
type LED interface {
	Set(Color)
	Color() Color
}

//LEDAgent standard LED implementation, one GPIO per channel
type LEDAgent struct {
	red, green, blue gpio.OutputPin
	inverted         bool
	color            Color

	sync.Mutex
}

//New control an LED. Any pin may be nil if that channel is not wired;
//inverted is for common-anode LEDs that light when the pin is low.
func New(red, green, blue gpio.OutputPin, inverted bool) *LEDAgent {
	return &LEDAgent{
		red:      red,
		green:    green,
		blue:     blue,
		inverted: inverted,
	}
}

//Set light the given channels and darken the rest
func (l *LEDAgent) Set(c Color) {
	l.Lock()
	defer l.Unlock()

	gpio.Set(l.red, (c&Red != 0) != l.inverted) //xor
	gpio.Set(l.green, (c&Green != 0) != l.inverted)
	gpio.Set(l.blue, (c&Blue != 0) != l.inverted)
	l.color = c
}

//Color the last color set
func (l *LEDAgent) Color() Color {
	l.Lock()
	defer l.Unlock()
	return l.color
}
