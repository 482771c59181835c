package metrics2

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lwz9103/conbench/go/sklog"
)

// invalidChar forces metric and label names into Prometheus's alphabet.
var invalidChar = regexp.MustCompile("([^a-zA-Z0-9_:])")

func clean(s string) string {
	return invalidChar.ReplaceAllLiteralString(s, "_")
}

// promInt64 keeps its own copy of the value since prometheus gauges can't
// be read back.
type promInt64 struct {
	i     int64
	gauge prometheus.Gauge
}

func (m *promInt64) Get() int64 {
	return atomic.LoadInt64(&m.i)
}

func (m *promInt64) Update(v int64) {
	atomic.StoreInt64(&m.i, v)
	m.gauge.Set(float64(v))
}

func (m *promInt64) add(delta int64) {
	m.gauge.Set(float64(atomic.AddInt64(&m.i, delta)))
}

type promFloat64 struct {
	mutex sync.Mutex
	f     float64
	gauge prometheus.Gauge
}

func (m *promFloat64) Get() float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.f
}

func (m *promFloat64) Update(v float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.f = v
	m.gauge.Set(v)
}

type promCounter struct {
	*promInt64
}

func (c promCounter) Inc(i int64) {
	c.add(i)
}

func (c promCounter) Reset() {
	c.Update(0)
}

type promClient struct {
	mutex     sync.Mutex
	gaugeVecs map[string]*prometheus.GaugeVec
	int64s    map[string]*promInt64
	float64s  map[string]*promFloat64
}

func newPromClient() *promClient {
	return &promClient{
		gaugeVecs: map[string]*prometheus.GaugeVec{},
		int64s:    map[string]*promInt64{},
		float64s:  map[string]*promFloat64{},
	}
}

// keys returns the clean measurement, the merged clean labels, a key that
// identifies the single gauge and a key that identifies its GaugeVec.
func keys(name string, tags ...map[string]string) (string, prometheus.Labels, string, string) {
	measurement := clean(name)
	labels := prometheus.Labels{}
	for _, t := range tags {
		for k, v := range t {
			labels[clean(k)] = v
		}
	}
	labelNames := make([]string, 0, len(labels))
	for k := range labels {
		labelNames = append(labelNames, k)
	}
	sort.Strings(labelNames)
	parts := []string{measurement}
	for _, k := range labelNames {
		parts = append(parts, k, labels[k])
	}
	return measurement, labels, strings.Join(parts, "-"), fmt.Sprintf("%s %v", measurement, labelNames)
}

// gauge must be called with p.mutex held.
func (p *promClient) gauge(measurement string, labels prometheus.Labels, vecKey string) prometheus.Gauge {
	vec, ok := p.gaugeVecs[vecKey]
	if !ok {
		names := make([]string, 0, len(labels))
		for k := range labels {
			names = append(names, k)
		}
		sort.Strings(names)
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: measurement, Help: measurement}, names)
		if err := prometheus.Register(vec); err != nil {
			sklog.Fatalf("Failed to register %q: %s", measurement, err)
		}
		p.gaugeVecs[vecKey] = vec
	}
	g, err := vec.GetMetricWith(labels)
	if err != nil {
		sklog.Fatalf("Failed to get gauge %q: %s", measurement, err)
	}
	return g
}

func (p *promClient) getInt64(name string, tags ...map[string]string) *promInt64 {
	measurement, labels, key, vecKey := keys(name, tags...)
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if ret, ok := p.int64s[key]; ok {
		return ret
	}
	ret := &promInt64{gauge: p.gauge(measurement, labels, vecKey)}
	p.int64s[key] = ret
	return ret
}

func (p *promClient) GetInt64Metric(name string, tags ...map[string]string) Int64Metric {
	return p.getInt64(name, tags...)
}

// GetCounter shares state with GetInt64Metric for the same name and tags.
func (p *promClient) GetCounter(name string, tags ...map[string]string) Counter {
	return promCounter{p.getInt64(name, tags...)}
}

func (p *promClient) GetFloat64Metric(name string, tags ...map[string]string) Float64Metric {
	measurement, labels, key, vecKey := keys(name, tags...)
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if ret, ok := p.float64s[key]; ok {
		return ret
	}
	ret := &promFloat64{gauge: p.gauge(measurement, labels, vecKey)}
	p.float64s[key] = ret
	return ret
}

func (p *promClient) NewLiveness(name string, tags ...map[string]string) Liveness {
	return newLiveness(p, name, tags...)
}

func (p *promClient) NewTimer(name string, tags ...map[string]string) Timer {
	return newTimer(p, name, tags...)
}

var _ Int64Metric = (*promInt64)(nil)
var _ Float64Metric = (*promFloat64)(nil)
var _ Counter = promCounter{}
var _ Client = (*promClient)(nil)
