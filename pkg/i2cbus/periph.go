package i2cbus

import (
	"periph.io/x/periph/conn/i2c"
)

//Periph adapts a periph.io bus. Each Write and Read is its own Tx.
type Periph struct {
	Bus i2c.BusCloser
}

func (p *Periph) Write(addr uint8, data []byte) error {
	return p.Bus.Tx(uint16(addr>>1), data, nil)
}

func (p *Periph) Read(addr uint8, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := p.Bus.Tx(uint16(addr>>1), nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *Periph) Close() error {
	return p.Bus.Close()
}
