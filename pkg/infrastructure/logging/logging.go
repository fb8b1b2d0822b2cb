package logging

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger for every non-engine layer
var Log = logrus.New()

// SetLogLevel sets the level of Log from its name
func SetLogLevel(level string) error {
	// trace and panic levels are not used
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "info":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	case "fatal":
		Log.SetLevel(logrus.FatalLevel)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	return nil
}

// Component returns an entry tagged with the emitting component
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
