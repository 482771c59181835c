// Package stdlogging implements sklogimpl.Logger on top of
// github.com/jcgregorio/logger, writing to stderr or stdout.
package stdlogging

import (
	"github.com/jcgregorio/logger"
	"github.com/lwz9103/conbench/go/sklog/sklogimpl"
)

type stdlog struct {
	logger *logger.Logger
}

// New returns a sklogimpl.Logger that writes to dst, such as os.Stderr.
func New(dst logger.SyncWriter, includeDebug bool) sklogimpl.Logger {
	return stdlog{
		logger: logger.NewFromOptions(&logger.Options{
			SyncWriter:   dst,
			DepthDelta:   3,
			IncludeDebug: includeDebug,
		}),
	}
}

// Log implements sklogimpl.Logger. Fatal is written at error level, the
// caller in sklogimpl is responsible for exiting.
func (s stdlog) Log(_ int, severity sklogimpl.Severity, format string, args ...interface{}) {
	logf, logs := s.logger.Errorf, s.logger.Error
	switch severity {
	case sklogimpl.Debug:
		logf, logs = s.logger.Debugf, s.logger.Debug
	case sklogimpl.Info:
		logf, logs = s.logger.Infof, s.logger.Info
	case sklogimpl.Warning:
		logf, logs = s.logger.Warningf, s.logger.Warning
	}
	if format == "" {
		logs(args...)
		return
	}
	logf(format, args...)
}

// Flush implements sklogimpl.Logger.
func (s stdlog) Flush() {}
