package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xanderflood/weatherstation/pkg/bmp085"
	"github.com/xanderflood/weatherstation/pkg/cache"
	"github.com/xanderflood/weatherstation/pkg/gpio"
	"github.com/xanderflood/weatherstation/pkg/i2cbus"
	"github.com/xanderflood/weatherstation/pkg/logging"
	"github.com/xanderflood/weatherstation/pkg/metrics"
	"github.com/xanderflood/weatherstation/pkg/rgb"
)

////////////////////////
// The module runtime //
type Module interface {
	Initialize(sp ServiceProvider, binder Binder) error
	Act(action string, body Binder) (interface{}, error)

	Stop() error
}

type ModuleFactory func() Module

var ModuleIndex = map[string]ModuleFactory{
	"bmp085": func() Module { return &BMP085Module{} },
	"i2c":    func() Module { return &I2CModule{} },
	"status": func() Module { return &StatusModule{} },
}

//ErrNoSuchModule the act request named a module that was never initialized
var ErrNoSuchModule = errors.New("no such module")

func (a *ManagerAgent) InitializeModules(specs map[string]ModuleSpec) error {
	a.Lock()
	defer a.Unlock()

	for name, spec := range specs {
		factory, ok := ModuleIndex[spec.Source]
		if !ok {
			return fmt.Errorf("404 no such module source: %s", spec.Source)
		}

		if old, ok := a.Modules[name]; ok {
			if err := old.Stop(); err != nil {
				logging.Log.Warningf("failed stopping module %s: %s", name, err.Error())
			}
			delete(a.Modules, name)
		}

		mod := factory()
		if err := mod.Initialize(a.ServiceProvider, JSONBinder(spec.Config)); err != nil {
			return fmt.Errorf("failed to initialize module %s: %w", name, err)
		}
		a.Modules[name] = mod
		logging.Log.Infof("initialized module %s (%s)", name, spec.Source)
	}
	return nil
}
func (a *ManagerAgent) Act(module string, action string, body Binder) (interface{}, error) {
	a.Lock()
	mod, ok := a.Modules[module]
	a.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w `%s`", ErrNoSuchModule, module)
	}
	return mod.Act(action, body)
}

////////////////
// HTTP Logic //

//Binder decodes a request body into a module-specific struct
type Binder interface {
	BindData(v interface{}) error
}

//JSONBinder binds raw JSON. An empty body leaves v untouched.
type JSONBinder json.RawMessage

func (b JSONBinder) BindData(v interface{}) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed binding request data: %w", err)
	}
	return nil
}

type InitializeRequest struct {
	Modules map[string]ModuleSpec `json:"modules"`
}
type ModuleSpec struct {
	Source string          `json:"source"`
	Config json.RawMessage `json:"config"`
}
type InitializeResponse struct {
	NumModules int `json:"num_modules"`
}

type ActRequest struct {
	Module string          `json:"module"`
	Action string          `json:"action"`
	Config json.RawMessage `json:"config"`
}
type ActResponse struct {
	Result interface{} `json:"result"`
}

type ManagerAgent struct {
	Modules         map[string]Module
	ServiceProvider ServiceProvider

	sync.Mutex
}

func NewManagerAgent(sp ServiceProvider) *ManagerAgent {
	return &ManagerAgent{
		Modules:         map[string]Module{},
		ServiceProvider: sp,
	}
}

func main() {
	configFile := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := LoadConfig(newViper(), *configFile)
	if err != nil {
		log.Fatalf("failed loading configuration: %s", err.Error())
	}
	if err := logging.Initialize(os.Stdout, cfg.LogLevel); err != nil {
		log.Fatalf("failed initializing logging: %s", err.Error())
	}

	registry := prometheus.NewRegistry()
	sp := NewServiceProvider(cfg, metrics.New(registry))
	defer sp.Close()
	sp.Boot()

	router := buildMux(NewManagerAgent(sp), registry)

	logging.Log.Noticef("listening on %s", cfg.Listen)
	err = http.ListenAndServe(cfg.Listen, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.Enabled("DEBUG") {
			if bs, err := httputil.DumpRequest(r, true); err != nil {
				logging.Log.Errorf("failed dumping request -- aborting: %s", err.Error())
				return
			} else {
				logging.Log.Debugf("---DUMPING REQUEST ---\n%s", string(bs))
			}
		}

		router.ServeHTTP(w, r)
	}))
	logging.Log.Criticalf("server stopped: %s", err.Error())
}

func buildMux(mgr *ManagerAgent, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/initialize", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req InitializeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logging.Log.Errorf("failed decoding body: %s", err.Error())
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err := mgr.InitializeModules(req.Modules); err != nil {
			logging.Log.Errorf("failed initializing modules: %s", err.Error())
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		mgr.Lock()
		n := len(mgr.Modules)
		mgr.Unlock()
		if err := json.NewEncoder(w).Encode(InitializeResponse{NumModules: n}); err != nil {
			logging.Log.Errorf("failed sending response: %s", err.Error())
			return
		}
	}))
	mux.Handle("/act", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req ActRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logging.Log.Errorf("failed decoding body: %s", err.Error())
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		result, err := mgr.Act(req.Module, req.Action, JSONBinder(req.Config))
		if errors.Is(err, ErrNoSuchModule) {
			logging.Log.Warningf("action failed: %s", err.Error())
			w.WriteHeader(http.StatusNotFound)
			return
		} else if err != nil {
			logging.Log.Errorf("action failed: %s", err.Error())
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if err := json.NewEncoder(w).Encode(ActResponse{Result: result}); err != nil {
			logging.Log.Errorf("failed sending response: %s", err.Error())
			return
		}
	}))
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

//////////////////////////
// hardware interfacing //
type ServiceProvider interface {
	Bus() (*i2cbus.Shared, error)
	PressureSensor() (*bmp085.Sensor, error)
	Sample() (bmp085.Reading, error)
	StatusLED() rgb.LED
	Cache() cache.Store
	SeaLevel() int32

	Close() error
}

func NewServiceProvider(cfg Config, m *metrics.Metrics) *ServiceAgent {
	a := &ServiceAgent{
		store:    cache.File{Path: cfg.CachePath},
		metrics:  m,
		seaLevel: cfg.SeaLevel,
	}

	transport, err := i2cbus.Open(cfg.I2CDriver, cfg.I2CBus)
	if err != nil {
		logging.Log.Errorf("failed to identify an i2c bus - modules relying on I2C will fail to initialize: %s", err.Error())
		a.busErr = err
	} else {
		a.bus = i2cbus.NewShared(transport)
		a.sensor, err = bmp085.New(a.bus, bmp085.SleepDelay, &bmp085.Opts{Oversampling: cfg.Oversampling})
		if err != nil {
			a.busErr = err
		}
	}

	var pins [3]gpio.OutputPin
	if err := gpio.Setup(); err != nil {
		logging.Log.Warningf("failed mapping gpio - status LED disabled: %s", err.Error())
	} else {
		a.gpioOpen = true
		for i, n := range cfg.StatusPins {
			pins[i] = gpio.Pin(n)
		}
	}
	a.led = rgb.New(pins[0], pins[1], pins[2], cfg.StatusActive == gpio.Low)

	return a
}

type ServiceAgent struct {
	bus    *i2cbus.Shared
	busErr error
	sensor *bmp085.Sensor

	led      rgb.LED
	gpioOpen bool
	store    cache.Store
	metrics  *metrics.Metrics
	seaLevel int32
}

//Boot brings the pressure sensor up the way the station does at power on:
//report the previous readings, calibrate, show sensor presence on the
//status LED, then take and store a first reading.
func (a *ServiceAgent) Boot() {
	if prev, err := a.store.Load(); errors.Is(err, cache.ErrEmpty) {
		logging.Log.Info("no previous readings")
	} else if err != nil {
		logging.Log.Warningf("failed loading previous readings: %s", err.Error())
	} else {
		logging.Log.Infof("previous readings: temperature %d, pressure %d Pa", prev.Temperature, prev.Pressure)
	}

	sensor, err := a.PressureSensor()
	if err == nil {
		err = sensor.Initialize()
	}
	a.metrics.SetPresent(err == nil)
	if err != nil {
		logging.Log.Errorf("pressure sensor unavailable: %s", err.Error())
		a.led.Set(rgb.Red | rgb.Green)
		return
	}
	a.led.Set(rgb.Green)

	if _, err := a.Sample(); err != nil {
		logging.Log.Errorf("failed reading pressure: %s", err.Error())
	}
}

//Sample reads the pressure sensor, records the outcome and stores a good
//reading as the new previous value.
func (a *ServiceAgent) Sample() (bmp085.Reading, error) {
	sensor, err := a.PressureSensor()
	if err != nil {
		return bmp085.Reading{}, err
	}

	r, err := sensor.ReadPressure()
	a.metrics.Observe(r, err)
	if err != nil {
		return bmp085.Reading{}, err
	}
	logging.Log.Debugf("pressure reading: %s, %s", r.Env().Temperature, r.Env().Pressure)

	if err := a.store.Save(cache.Record{Temperature: int32(r.Temperature), Pressure: r.Pressure}); err != nil {
		logging.Log.Warningf("failed saving readings: %s", err.Error())
	}
	return r, nil
}

func (a *ServiceAgent) Bus() (*i2cbus.Shared, error) {
	if a.bus == nil {
		return nil, fmt.Errorf("i2c bus unavailable: %w", a.busErr)
	}
	return a.bus, nil
}
func (a *ServiceAgent) PressureSensor() (*bmp085.Sensor, error) {
	if a.sensor == nil {
		return nil, fmt.Errorf("pressure sensor unavailable: %w", a.busErr)
	}
	return a.sensor, nil
}
func (a *ServiceAgent) StatusLED() rgb.LED { return a.led }
func (a *ServiceAgent) Cache() cache.Store { return a.store }
func (a *ServiceAgent) SeaLevel() int32 { return a.seaLevel }
func (a *ServiceAgent) Close() error {
	a.led.Set(rgb.Off)
	if a.gpioOpen {
		_ = gpio.Teardown()
	}
	if a.bus != nil {
		return a.bus.Close()
	}
	return nil
}
