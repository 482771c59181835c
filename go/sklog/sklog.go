// Package sklog defines the logging functions (e.g. Info, Errorf, etc.).
package sklog

import (
	"os"

	"github.com/lwz9103/conbench/go/sklog/sklogimpl"
	"github.com/lwz9103/conbench/go/sklog/stdlogging"
)

// SetLogger must run in init, otherwise early log lines are dropped.
func init() {
	sklogimpl.SetLogger(stdlogging.New(os.Stderr, true))
}

// Debug, Info, Warning, Error and Fatal format their arguments with
// fmt.Sprint. The f variants use fmt.Sprintf.
func Debug(msg ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Debug, "", msg...)
}

func Debugf(format string, v ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Debug, format, v...)
}

func Info(msg ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Info, "", msg...)
}

func Infof(format string, v ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Info, format, v...)
}

func Warning(msg ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Warning, "", msg...)
}

func Warningf(format string, v ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Warning, format, v...)
}

func Error(msg ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Error, "", msg...)
}

func Errorf(format string, v ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Error, format, v...)
}

// Fatal* exits the program after logging.
func Fatal(msg ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Fatal, "", msg...)
}

func Fatalf(format string, v ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Fatal, format, v...)
}

// Flush writes out any buffered log lines.
func Flush() {
	sklogimpl.Flush()
}

// SetDebug switches debug lines on or off for the stderr backend.
func SetDebug(includeDebug bool) {
	sklogimpl.SetLogger(stdlogging.New(os.Stderr, includeDebug))
}
