package bmp085_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"periph.io/x/periph/conn/physic"

	"github.com/xanderflood/weatherstation/pkg/bmp085"
	"github.com/xanderflood/weatherstation/pkg/bmp085/bmp085fakes"
	"github.com/xanderflood/weatherstation/pkg/bmp085/bmp085test"
)

var _ = Describe("Sensor", func() {
	var (
		device *bmp085test.Device
		opts   bmp085.Opts
		sensor *bmp085.Sensor
	)

	BeforeEach(func() {
		device = bmp085test.NewDevice()
		opts = bmp085.DefaultOpts
	})

	JustBeforeEach(func() {
		var err error
		sensor, err = bmp085.New(device, device, &opts)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("New", func() {
		It("rejects an oversampling setting above 3", func() {
			_, err := bmp085.New(device, device, &bmp085.Opts{Oversampling: 4})
			Expect(err).To(HaveOccurred())
		})

		It("falls back to the default options", func() {
			s, err := bmp085.New(device, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Oversampling()).To(Equal(bmp085.UltraLowPower))
		})
	})

	Describe("Initialize", func() {
		It("reads the eleven calibration words", func() {
			Expect(sensor.Initialize()).To(Succeed())

			Expect(device.Ops).To(HaveLen(22))
			for i := 0; i < 11; i++ {
				Expect(device.Ops[2*i]).To(Equal(bmp085test.Op{
					Addr: bmp085.WriteAddress,
					Data: []byte{0xAA + byte(2*i)},
				}))
				Expect(device.Ops[2*i+1].Read).To(BeTrue())
				Expect(device.Ops[2*i+1].Addr).To(Equal(bmp085.ReadAddress))
				Expect(device.Ops[2*i+1].Data).To(HaveLen(2))
			}

			cal, ok := sensor.Calibration()
			Expect(ok).To(BeTrue())
			Expect(cal).To(Equal(bmp085test.DatasheetCalibration))
		})

		It("reports an absent sensor when AC1, AC2 and AC3 match", func() {
			device.Calibration = bmp085.Calibration{
				AC1: -1, AC2: -1, AC3: -1,
				AC4: 32741, AC5: 32757, AC6: 23153,
				B1: 6190, B2: 4, MB: -32768, MC: -8711, MD: 2868,
			}
			Expect(sensor.Initialize()).To(MatchError(bmp085.ErrSensorAbsent))

			_, ok := sensor.Calibration()
			Expect(ok).To(BeFalse())
			_, err := sensor.ReadPressure()
			Expect(err).To(MatchError(bmp085.ErrNotInitialized))
		})

		It("forgets the calibration when a re-read finds no sensor", func() {
			Expect(sensor.Initialize()).To(Succeed())
			device.Calibration.AC2 = device.Calibration.AC1
			device.Calibration.AC3 = device.Calibration.AC1

			Expect(sensor.Initialize()).To(MatchError(bmp085.ErrSensorAbsent))
			_, ok := sensor.Calibration()
			Expect(ok).To(BeFalse())
		})

		It("propagates transport errors", func() {
			boom := errors.New("nack")
			bus := &bmp085fakes.FakeBus{}
			bus.WriteReturns(boom)

			s, err := bmp085.New(bus, device, nil)
			Expect(err).NotTo(HaveOccurred())

			err = s.Initialize()
			Expect(errors.Is(err, boom)).To(BeTrue())

			var terr *bmp085.TransportError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.Op).To(Equal("select"))
			Expect(terr.Register).To(Equal(byte(0xAA)))
			Expect(bus.ReadCallCount()).To(Equal(0))
		})

		It("rejects a short read", func() {
			bus := &bmp085fakes.FakeBus{}
			bus.ReadReturns([]byte{0x01}, nil)

			s, err := bmp085.New(bus, device, nil)
			Expect(err).NotTo(HaveOccurred())

			var terr *bmp085.TransportError
			Expect(errors.As(s.Initialize(), &terr)).To(BeTrue())
			Expect(terr.Op).To(Equal("read"))
			addr, n := bus.ReadArgsForCall(0)
			Expect(addr).To(Equal(bmp085.ReadAddress))
			Expect(n).To(Equal(2))
		})
	})

	Describe("ReadPressure", func() {
		It("refuses to read before Initialize", func() {
			_, err := sensor.ReadPressure()
			Expect(err).To(MatchError(bmp085.ErrNotInitialized))
			Expect(device.Ops).To(BeEmpty())
		})

		Context("once initialized", func() {
			JustBeforeEach(func() {
				Expect(sensor.Initialize()).To(Succeed())
				device.Ops = nil
			})

			It("reproduces the datasheet example", func() {
				r, err := sensor.ReadPressure()
				Expect(err).NotTo(HaveOccurred())
				Expect(r).To(Equal(bmp085.Reading{Temperature: 150, Pressure: 69964}))
			})

			It("follows the conversion protocol", func() {
				_, err := sensor.ReadPressure()
				Expect(err).NotTo(HaveOccurred())

				Expect(device.Ops).To(HaveLen(6))
				Expect(device.Ops[0]).To(Equal(bmp085test.Op{Addr: 0xEE, Data: []byte{0xF4, 0x2E}}))
				Expect(device.Ops[1]).To(Equal(bmp085test.Op{Addr: 0xEE, Data: []byte{0xF6}}))
				Expect(device.Ops[2]).To(Equal(bmp085test.Op{Read: true, Addr: 0xEF, Data: []byte{0x6C, 0xFA}}))
				Expect(device.Ops[3]).To(Equal(bmp085test.Op{Addr: 0xEE, Data: []byte{0xF4, 0x34}}))
				Expect(device.Ops[4]).To(Equal(bmp085test.Op{Addr: 0xEE, Data: []byte{0xF6}}))
				Expect(device.Ops[5]).To(Equal(bmp085test.Op{Read: true, Addr: 0xEF, Data: []byte{0x5D, 0x23, 0x00}}))

				Expect(device.Delays).To(Equal([]uint32{5, 5}))
			})

			It("returns the same reading for the same raw samples", func() {
				first, err := sensor.ReadPressure()
				Expect(err).NotTo(HaveOccurred())
				second, err := sensor.ReadPressure()
				Expect(err).NotTo(HaveOccurred())
				Expect(second).To(Equal(first))
			})

			It("stops at the first transport error", func() {
				boom := errors.New("arbitration lost")
				device.Fail = func(op bmp085test.Op) error {
					if op.Read && len(device.Ops) > 3 {
						return boom
					}
					return nil
				}

				_, err := sensor.ReadPressure()
				Expect(errors.Is(err, boom)).To(BeTrue())
				Expect(device.Ops).To(HaveLen(6))
			})

			It("reports a degenerate temperature step without reading pressure", func() {
				device.Calibration.MD = -4743
				Expect(sensor.Initialize()).To(Succeed())
				device.Ops = nil

				_, err := sensor.ReadPressure()
				Expect(err).To(MatchError(bmp085.ErrArithmeticDegenerate))
				Expect(device.Ops).To(HaveLen(3))
			})
		})

		Context("with ultra high resolution", func() {
			BeforeEach(func() {
				opts.Oversampling = bmp085.UltraHighResolution
				device.SetUP(190000, bmp085.UltraHighResolution)
			})

			JustBeforeEach(func() {
				Expect(sensor.Initialize()).To(Succeed())
				device.Ops = nil
			})

			It("requests the oversampled conversion and waits for it", func() {
				r, err := sensor.ReadPressure()
				Expect(err).NotTo(HaveOccurred())
				Expect(device.Ops[3].Data).To(Equal([]byte{0xF4, 0xF4}))
				Expect(device.Delays).To(Equal([]uint32{5, 26}))

				expected, err := bmp085test.DatasheetCalibration.CompensatePressure(190000, 2400, bmp085.UltraHighResolution)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.Pressure).To(Equal(expected))
				Expect(r.Pressure).To(Equal(int32(69686)))
			})
		})

		It("passes the delays to the Delayer", func() {
			delay := &bmp085fakes.FakeDelayer{}
			s, err := bmp085.New(device, delay, &bmp085.Opts{Oversampling: bmp085.Standard})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Initialize()).To(Succeed())
			_, err = s.ReadPressure()
			Expect(err).NotTo(HaveOccurred())

			Expect(delay.DelayMsCallCount()).To(Equal(2))
			Expect(delay.DelayMsArgsForCall(0)).To(Equal(uint32(5)))
			Expect(delay.DelayMsArgsForCall(1)).To(Equal(uint32(8)))
		})
	})
})

var _ = Describe("Oversampling", func() {
	table.DescribeTable("conversion delay",
		func(oss bmp085.Oversampling, ms uint32) {
			Expect(oss.ConversionDelay()).To(Equal(ms))
		},
		table.Entry("ultra low power", bmp085.UltraLowPower, uint32(5)),
		table.Entry("standard", bmp085.Standard, uint32(8)),
		table.Entry("high resolution", bmp085.HighResolution, uint32(14)),
		table.Entry("ultra high resolution", bmp085.UltraHighResolution, uint32(26)),
	)

	It("waits longer as oversampling increases", func() {
		for oss := bmp085.UltraLowPower; oss < bmp085.UltraHighResolution; oss++ {
			Expect((oss + 1).ConversionDelay()).To(BeNumerically(">", oss.ConversionDelay()))
		}
	})

	It("parses configured values", func() {
		oss, err := bmp085.ParseOversampling(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(oss).To(Equal(bmp085.HighResolution))

		_, err = bmp085.ParseOversampling(-1)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("RawPressure", func() {
	table.DescribeTable("matches manual bit assembly at oversampling 0",
		func(msb, lsb, xlsb byte) {
			manual := (uint32(msb)<<16 | uint32(lsb)<<8 | uint32(xlsb)) >> 8
			Expect(bmp085.RawPressure(msb, lsb, xlsb, bmp085.UltraLowPower)).To(Equal(manual))
		},
		table.Entry("datasheet", byte(0x5D), byte(0x23), byte(0x00)),
		table.Entry("xlsb ignored", byte(0x5D), byte(0x23), byte(0xFF)),
		table.Entry("all ones", byte(0xFF), byte(0xFF), byte(0xFF)),
		table.Entry("zero", byte(0), byte(0), byte(0)),
	)

	It("keeps 19 bits at oversampling 3", func() {
		Expect(bmp085.RawPressure(0xFF, 0xFF, 0xFF, bmp085.UltraHighResolution)).To(Equal(uint32(0x7FFFF)))
	})
})

var _ = Describe("Reading", func() {
	r := bmp085.Reading{Temperature: 150, Pressure: 69964}

	It("converts to physic units", func() {
		env := r.Env()
		Expect(env.Temperature).To(Equal(physic.ZeroCelsius + 15000*physic.MilliCelsius))
		Expect(env.Pressure).To(Equal(69964 * physic.Pascal))
		Expect(r.Celsius()).To(BeNumerically("~", 15.0, 1e-9))
	})

	It("computes altitude from sea level pressure", func() {
		Expect(bmp085.Reading{Pressure: bmp085.SeaLevelPressure}.Altitude(bmp085.SeaLevelPressure)).To(BeNumerically("~", 0, 1e-9))
		Expect(r.Altitude(bmp085.SeaLevelPressure)).To(BeNumerically("~", 3016, 5))
		Expect(math.IsNaN(r.Altitude(bmp085.SeaLevelPressure))).To(BeFalse())
	})
})

var _ = Describe("DelayFunc", func() {
	It("forwards the delay", func() {
		var got uint32
		bmp085.DelayFunc(func(ms uint32) { got = ms }).DelayMs(7)
		Expect(got).To(Equal(uint32(7)))
	})
})
