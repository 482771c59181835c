package metrics2

import "time"

const measurementTimer = "timer"

// Timer reports a single elapsed-time point when stopped.
type Timer interface {
	// Stop records the elapsed time since the timer was created and returns it.
	Stop() time.Duration
}

type timer struct {
	begin time.Time
	m     Float64Metric
}

func newTimer(c Client, name string, tags ...map[string]string) *timer {
	all := append([]map[string]string{{"name": name}}, tags...)
	return &timer{
		begin: time.Now(),
		m:     c.GetFloat64Metric(measurementTimer+"_seconds", all...),
	}
}

func (t *timer) Stop() time.Duration {
	d := time.Since(t.begin)
	t.m.Update(d.Seconds())
	return d
}
