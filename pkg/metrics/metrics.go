// Package metrics 提供 Prometheus 指标集合与 Gin 采集中间件
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics 指标集合，方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 业务指标
	CartsCreatedTotal   prometheus.Counter
	CartItemsAddedTotal prometheus.Counter
	SearchesTotal       *prometheus.CounterVec
	ImageUploadsTotal   *prometheus.CounterVec
}

// New 创建指标实例并注册到独立的 Registry
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		CartsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "carts_created_total",
			Help:        "Total carts created, including stale-session replacements",
			ConstLabels: constLabels,
		}),
		CartItemsAddedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cart_items_added_total",
			Help:        "Total units added to carts",
			ConstLabels: constLabels,
		}),
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "searches_total",
			Help:        "Total catalog searches",
			ConstLabels: constLabels,
		}, []string{"empty"}),
		ImageUploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "image_uploads_total",
			Help:        "Total product image uploads by result",
			ConstLabels: constLabels,
		}, []string{"folder", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CartsCreatedTotal,
		m.CartItemsAddedTotal,
		m.SearchesTotal,
		m.ImageUploadsTotal,
	)
	return m
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GinMiddleware 采集 HTTP 请求指标，使用路由模板作为 route 标签
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordCartCreated 记录新建购物车
func (m *Metrics) RecordCartCreated() {
	if m == nil {
		return
	}
	m.CartsCreatedTotal.Inc()
}

// RecordCartItemAdded 记录加入购物车的件数
func (m *Metrics) RecordCartItemAdded(quantity int) {
	if m == nil || quantity <= 0 {
		return
	}
	m.CartItemsAddedTotal.Add(float64(quantity))
}

// RecordSearch 记录一次搜索
func (m *Metrics) RecordSearch(empty bool) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(strconv.FormatBool(empty)).Inc()
}

// RecordImageUpload 记录图片上传结果
func (m *Metrics) RecordImageUpload(folder string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ImageUploadsTotal.WithLabelValues(folder, result).Inc()
}
