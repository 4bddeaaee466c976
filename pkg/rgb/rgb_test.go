package rgb_test

import (
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/xanderflood/weatherstation/pkg/gpio"
	"github.com/xanderflood/weatherstation/pkg/gpio/gpiotest"
	"github.com/xanderflood/weatherstation/pkg/rgb"
)

var _ = Describe("LEDAgent", func() {
	var red, green, blue *gpiotest.FakePin

	BeforeEach(func() {
		red, green, blue = &gpiotest.FakePin{}, &gpiotest.FakePin{}, &gpiotest.FakePin{}
	})

	It("lights the selected channels", func() {
		led := rgb.New(red, green, blue, false)
		led.Set(rgb.Red | rgb.Green)

		Expect(red.IsOutput).To(BeTrue())
		Expect(red.Level()).To(Equal(gpio.High))
		Expect(green.Level()).To(Equal(gpio.High))
		Expect(blue.Level()).To(Equal(gpio.Low))
		Expect(led.Color()).To(Equal(rgb.Red | rgb.Green))
	})

	It("inverts common-anode wiring", func() {
		led := rgb.New(red, green, blue, true)
		led.Set(rgb.Green)

		Expect(red.Level()).To(Equal(gpio.High))
		Expect(green.Level()).To(Equal(gpio.Low))
		Expect(blue.Level()).To(Equal(gpio.High))
	})

	It("tolerates unwired channels", func() {
		led := rgb.New(red, green, nil, false)
		led.Set(rgb.Blue | rgb.Red)

		Expect(red.Level()).To(Equal(gpio.High))
		Expect(led.Color()).To(Equal(rgb.Blue | rgb.Red))
	})
})

var _ = Describe("Color", func() {
	table.DescribeTable("ParseColor",
		func(s string, c rgb.Color) {
			parsed, err := rgb.ParseColor(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(c))
		},
		table.Entry("off", "off", rgb.Off),
		table.Entry("single", "green", rgb.Green),
		table.Entry("combined", "red+green", rgb.Red|rgb.Green),
		table.Entry("mixed case", "Red + Blue", rgb.Red|rgb.Blue),
	)

	It("rejects unknown names", func() {
		_, err := rgb.ParseColor("red+purple")
		Expect(err).To(MatchError("no such color `purple`"))
	})

	It("prints names in a stable order", func() {
		Expect((rgb.Red | rgb.Green).String()).To(Equal("green+red"))
		Expect(rgb.Off.String()).To(Equal("off"))
	})
})
