// Package metrics exposes Prometheus counters for content resolution.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 解析结果标签值。
const (
	OutcomeHit        = "hit"
	OutcomeMiss       = "miss"
	OutcomeFetchError = "fetch_error"
)

// Resolver 聚合解析链路的计数器，每个进程持有一份独立 Registry。
type Resolver struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	cacheErrors *prometheus.CounterVec
}

// NewResolver 创建并注册计数器。
func NewResolver() *Resolver {
	m := &Resolver{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagehub_content_resolutions_total",
				Help: "Content resolutions by outcome (hit, miss, fetch_error)",
			},
			[]string{"outcome"},
		),
		cacheErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagehub_cache_errors_total",
				Help: "Cache store failures by operation (get, set)",
			},
			[]string{"op"},
		),
	}
	m.registry.MustRegister(m.resolutions, m.cacheErrors)
	return m
}

// ObserveOutcome 记录一次解析结果。nil 接收者是合法的空操作。
func (m *Resolver) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// ObserveCacheError 记录一次缓存读写失败。
func (m *Resolver) ObserveCacheError(op string) {
	if m == nil {
		return
	}
	m.cacheErrors.WithLabelValues(op).Inc()
}

// Handler 返回 Prometheus 文本格式的导出处理器。
func (m *Resolver) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Resolutions exposes the counter vec for tests and dashboards.
func (m *Resolver) Resolutions() *prometheus.CounterVec {
	return m.resolutions
}

// CacheErrors exposes the cache error counter vec.
func (m *Resolver) CacheErrors() *prometheus.CounterVec {
	return m.cacheErrors
}
