// path: logging/logging.go
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logrus logger tagged with the service name.
// LOG_LEVEL selects verbosity (debug/info/warn/error), default info.
func New(serviceName string) *logrus.Entry {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log.WithField("service", serviceName)
}
