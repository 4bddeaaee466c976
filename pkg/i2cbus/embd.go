package i2cbus

//EmbdBus is the subset of embd.I2CBus the adapter needs
type EmbdBus interface {
	ReadBytes(addr byte, num int) ([]byte, error)
	WriteBytes(addr byte, value []byte) error
	Close() error
}

//Embd adapts a kidoman/embd bus, which takes 7-bit addresses
type Embd struct {
	Bus EmbdBus
}

func (e *Embd) Write(addr uint8, data []byte) error {
	return e.Bus.WriteBytes(addr>>1, data)
}

func (e *Embd) Read(addr uint8, n int) ([]byte, error) {
	return e.Bus.ReadBytes(addr>>1, n)
}

func (e *Embd) Close() error {
	return e.Bus.Close()
}
