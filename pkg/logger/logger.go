package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is usable before InitLogger runs; InitLogger only applies the
// production formatting and level.
var Log = logrus.New()

// InitLogger sets up the shared structured logger. The level can be raised
// to debug with LOG_LEVEL=debug.
func InitLogger() {
	Log.Out = os.Stdout
	Log.SetFormatter(&logrus.JSONFormatter{})

	level := logrus.InfoLevel
	if parsed, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = parsed
	}
	Log.SetLevel(level)
}
