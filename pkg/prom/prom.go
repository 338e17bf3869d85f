package prom

import (
	"sync"

	xhttp "github.com/nimasrn/sms-portal/pkg/http"
	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemSMS = "sms"
)

const (
	MetricRecipientsTotal        = "recipients_total"
	MetricGatewayRequestDuration = "gateway_request_duration_seconds"
	MetricBulkChunksTotal        = "bulk_chunks_total"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var registry = prometheus.NewRegistry()

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers the portal metrics on a fresh registry. Calling it again
// replaces the previous registry.
func Create(host string, env string, nameSpace string) error {
	lockCreateMetricLock.Lock()
	registry = prometheus.NewRegistry()
	MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
	MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)
	lockCreateMetricLock.Unlock()

	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	if nameSpace != "" {
		namespace = nameSpace
	}

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemSMS, MetricRecipientsTotal, []string{"kind", "status"}))
	hasError(createHistogramVec(SystemSMS, MetricGatewayRequestDuration, []string{"operation", "outcome"}))
	hasError(createCounterVec(SystemSMS, MetricBulkChunksTotal, []string{"status"}))

	MetricSystemEnabled = err == nil
	return err
}

func Gatherer() prometheus.Gatherer {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	return registry
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(Gatherer(), promhttp.HandlerOpts{}))
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return registry.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	return registry.Register(MetricCollectionHistogramVec[subsystem+name])
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	lockCreateMetricLock.Lock()
	v, ok := MetricCollectionCounterVec[subsystem+name]
	lockCreateMetricLock.Unlock()
	if ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	lockCreateMetricLock.Lock()
	v, ok := MetricCollectionHistogramVec[subsystem+name]
	lockCreateMetricLock.Unlock()
	if ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

// AddRecipients counts recipients by send kind (bulk, individual, system)
// and attempt status.
func AddRecipients(kind, status string, n int) {
	if n <= 0 {
		return
	}
	AddCounterVec(SystemSMS, MetricRecipientsTotal, float64(n), kind, status)
}

func ObserveGatewayRequest(operation, outcome string, seconds float64) {
	AddHistogramVec(SystemSMS, MetricGatewayRequestDuration, seconds, operation, outcome)
}

func IncBulkChunk(status string) {
	IncCounterVec(SystemSMS, MetricBulkChunksTotal, status)
}
