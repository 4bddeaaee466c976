package gpiotest

import "github.com/xanderflood/weatherstation/pkg/gpio"

//FakePin records what is driven onto it
type FakePin struct {
	IsOutput bool
	Levels   []gpio.State
}

func (p *FakePin) Output() { p.IsOutput = true }
func (p *FakePin) High()   { p.Levels = append(p.Levels, gpio.High) }
func (p *FakePin) Low()    { p.Levels = append(p.Levels, gpio.Low) }

//Level returns the last level driven, Low if none
func (p *FakePin) Level() gpio.State {
	if len(p.Levels) == 0 {
		return gpio.Low
	}
	return p.Levels[len(p.Levels)-1]
}
