package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"imgsizer/internal/instance"
)

type Options struct {
	Labels prometheus.Labels
}

func copyLabels(p prometheus.Labels) prometheus.Labels {
	x := prometheus.Labels{}
	for k, v := range p {
		x[k] = v
	}

	return x
}

func New(o Options) instance.Prometheus {
	totalSuccessfulRequests := copyLabels(o.Labels)
	totalFailedRequests := copyLabels(o.Labels)
	currentRequests := copyLabels(o.Labels)
	requestDurationSeconds := copyLabels(o.Labels)
	loadDuration := copyLabels(o.Labels)
	resizeDuration := copyLabels(o.Labels)
	encodeDuration := copyLabels(o.Labels)
	totalBytesEmitted := copyLabels(o.Labels)

	totalSuccessfulRequests["state"] = "successful"
	totalFailedRequests["state"] = "failed"

	m := &Instance{
		registry: prometheus.NewRegistry(),
		// Same fqName and Help; the state const label tells them apart.
		totalSuccessfulRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "imgsizer",
			Name:        "total_requests",
			Help:        "The total number of requests by state",
			ConstLabels: totalSuccessfulRequests,
		}),
		totalFailedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "imgsizer",
			Name:        "total_requests",
			Help:        "The total number of requests by state",
			ConstLabels: totalFailedRequests,
		}),
		currentRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "imgsizer",
			Name:        "current_requests",
			Help:        "The current number of in-flight pipeline runs",
			ConstLabels: currentRequests,
		}),
		requestDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "imgsizer",
			Name:        "request_duration_seconds",
			Help:        "The seconds spent running the full pipeline",
			ConstLabels: requestDurationSeconds,
		}),
		loadDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "imgsizer",
			Name:        "load_duration_seconds",
			Help:        "The seconds spent decoding source images",
			ConstLabels: loadDuration,
		}),
		resizeDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "imgsizer",
			Name:        "resize_duration_seconds",
			Help:        "The seconds spent resampling",
			ConstLabels: resizeDuration,
		}),
		encodeDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "imgsizer",
			Name:        "encode_duration_seconds",
			Help:        "The seconds spent encoding outputs",
			ConstLabels: encodeDuration,
		}),
		totalBytesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "imgsizer",
			Name:        "total_bytes",
			Help:        "The total number of encoded bytes emitted",
			ConstLabels: totalBytesEmitted,
		}),
	}

	m.Register(m.registry)

	return m
}

type Instance struct {
	registry *prometheus.Registry

	totalSuccessfulRequests prometheus.Counter
	totalFailedRequests     prometheus.Counter
	currentRequests         prometheus.Gauge
	requestDurationSeconds  prometheus.Histogram

	loadDurationSeconds   prometheus.Histogram
	resizeDurationSeconds prometheus.Histogram
	encodeDurationSeconds prometheus.Histogram

	totalBytesEmitted prometheus.Counter
}

func (m *Instance) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Instance) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.currentRequests,
		m.requestDurationSeconds,
		m.totalFailedRequests,
		m.totalSuccessfulRequests,

		m.loadDurationSeconds,
		m.resizeDurationSeconds,
		m.encodeDurationSeconds,

		m.totalBytesEmitted,
	)
}

func (m *Instance) StartRequest() func(success bool) {
	start := time.Now()
	m.currentRequests.Inc()

	return func(success bool) {
		if success {
			m.totalSuccessfulRequests.Inc()
		} else {
			m.totalFailedRequests.Inc()
		}
		m.currentRequests.Dec()
		m.requestDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}

func (m *Instance) TotalBytesEmitted(bytes int) {
	m.totalBytesEmitted.Add(float64(bytes))
}

func (m *Instance) LoadImage() func() {
	start := time.Now()

	return func() {
		m.loadDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}

func (m *Instance) ResizeImage() func() {
	start := time.Now()

	return func() {
		m.resizeDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}

func (m *Instance) EncodeImage() func() {
	start := time.Now()

	return func() {
		m.encodeDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}
