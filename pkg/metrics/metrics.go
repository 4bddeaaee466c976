//Package metrics exports the station's readings to Prometheus
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xanderflood/weatherstation/pkg/bmp085"
)

//Metrics the collectors for one pressure sensor
type Metrics struct {
	Temperature prometheus.Gauge
	Pressure    prometheus.Gauge
	Present     prometheus.Gauge
	Reads       *prometheus.CounterVec
}

//New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weatherstation",
			Name:      "temperature_celsius",
			Help:      "Last compensated temperature from the pressure sensor.",
		}),
		Pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weatherstation",
			Name:      "pressure_pascals",
			Help:      "Last compensated barometric pressure.",
		}),
		Present: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weatherstation",
			Name:      "pressure_sensor_present",
			Help:      "1 if the pressure sensor passed its calibration check.",
		}),
		Reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherstation",
			Name:      "pressure_reads_total",
			Help:      "Pressure sensor acquisitions by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Temperature, m.Pressure, m.Present, m.Reads)

	return m
}

//SetPresent records the outcome of sensor initialization
func (m *Metrics) SetPresent(present bool) {
	if present {
		m.Present.Set(1)
	} else {
		m.Present.Set(0)
	}
}

//Observe records one acquisition. The gauges keep their last good value
//when err is not nil.
func (m *Metrics) Observe(r bmp085.Reading, err error) {
	m.Reads.WithLabelValues(Result(err)).Inc()
	if err != nil {
		return
	}

	m.Temperature.Set(r.Celsius())
	m.Pressure.Set(float64(r.Pressure))
}

//Result classifies a sensor error for the result label
func Result(err error) string {
	var terr *bmp085.TransportError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &terr):
		return "transport"
	case errors.Is(err, bmp085.ErrSensorAbsent):
		return "absent"
	case errors.Is(err, bmp085.ErrNotInitialized):
		return "uninitialized"
	case errors.Is(err, bmp085.ErrArithmeticDegenerate):
		return "degenerate"
	default:
		return "error"
	}
}
