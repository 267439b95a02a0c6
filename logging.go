package tablekv

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

var (
	loggerMu      sync.RWMutex
	defaultLogger = log.StandardLogger()
)

// SetLogger sets the logger used by environments opened without
// WithLogger. A nil logger restores the logrus standard logger.
func SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	loggerMu.Lock()
	defaultLogger = logger
	loggerMu.Unlock()
}

func currentLogger() *log.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}
