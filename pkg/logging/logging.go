//Package logging sets up the process-wide leveled logger
package logging

import (
	"fmt"
	"io"

	logging "github.com/op/go-logging"
)

//Log the process-wide logger
var Log = logging.MustGetLogger("weatherstation")

var format = logging.MustStringFormatter(
	"%{color}%{time:15:04:05.000} %{level:.4s} [%{module}] ▶ %{message}%{color:reset}",
)

var backend logging.LeveledBackend

//Initialize sends log output to w at the named level (DEBUG, INFO, ...)
func Initialize(w io.Writer, level string) error {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level `%s`: %w", level, err)
	}

	formatted := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), format)
	backend = logging.AddModuleLevel(formatted)
	backend.SetLevel(lvl, "")
	logging.SetBackend(backend)

	return nil
}

//Enabled reports whether messages at the named level are emitted
func Enabled(level string) bool {
	lvl, err := logging.LogLevel(level)
	if err != nil || backend == nil {
		return false
	}
	return backend.IsEnabledFor(lvl, "weatherstation")
}
