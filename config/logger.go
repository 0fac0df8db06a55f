package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is usable before NewLoggerService runs; initialization only
// applies the configured level and output.
var Logger = logrus.New()

func NewLoggerService() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	Logger = logger
}
