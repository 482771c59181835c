package metrics2

import (
	"sync"
	"time"
)

const measurementLiveness = "liveness"

// Liveness reports the seconds since a periodic process last succeeded.
type Liveness interface {
	// Reset records a successful update.
	Reset()
	// Get returns the time since the last Reset.
	Get() time.Duration
}

type liveness struct {
	mutex      sync.Mutex
	lastUpdate time.Time
	m          Int64Metric
}

func newLiveness(c Client, name string, tags ...map[string]string) *liveness {
	all := append([]map[string]string{{"name": name}}, tags...)
	return &liveness{
		lastUpdate: time.Now(),
		m:          c.GetInt64Metric(measurementLiveness+"_"+clean(name)+"_s", all...),
	}
}

func (l *liveness) Reset() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.lastUpdate = time.Now()
	l.m.Update(0)
}

func (l *liveness) Get() time.Duration {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	d := time.Since(l.lastUpdate)
	l.m.Update(int64(d.Seconds()))
	return d
}
