package logging

import (
	"github.com/sirupsen/logrus"
)

// New builds a JSON logger at the given level. Unknown levels fall back to
// info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}
