// Package sklogtest captures sklog output so tests can assert on it.
package sklogtest

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/lwz9103/conbench/go/sklog/sklogimpl"
	"github.com/lwz9103/conbench/go/sklog/stdlogging"
)

// Line is one captured log line.
type Line struct {
	Severity sklogimpl.Severity
	Message  string
}

// Recorder is a sklogimpl.Logger that keeps every line in memory.
type Recorder struct {
	mutex sync.Mutex
	lines []Line
}

// Log implements sklogimpl.Logger.
func (r *Recorder) Log(_ int, severity sklogimpl.Severity, format string, args ...interface{}) {
	msg := fmt.Sprint(args...)
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.lines = append(r.lines, Line{Severity: severity, Message: msg})
}

// Flush implements sklogimpl.Logger.
func (r *Recorder) Flush() {}

// Lines returns a copy of everything logged at or above severity.
func (r *Recorder) Lines(severity sklogimpl.Severity) []Line {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var ret []Line
	for _, l := range r.lines {
		if l.Severity >= severity {
			ret = append(ret, l)
		}
	}
	return ret
}

// Contains reports whether any line at or above severity contains substr.
func (r *Recorder) Contains(severity sklogimpl.Severity, substr string) bool {
	for _, l := range r.Lines(severity) {
		if strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

// Capture installs a Recorder for the duration of the test.
func Capture(t testing.TB) *Recorder {
	r := &Recorder{}
	sklogimpl.SetLogger(r)
	t.Cleanup(func() {
		sklogimpl.SetLogger(stdlogging.New(os.Stderr, true))
	})
	return r
}
