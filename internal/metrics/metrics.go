// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordServerCreated()
	RecordProjectCreated()
	RecordMilestoneCreated()
	RecordAuthzDenied(code string)
	RecordSessionsDeleted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
	serversCreated    prometheus.Counter
	projectsCreated   prometheus.Counter
	milestonesCreated prometheus.Counter
	authzDenied       *prometheus.CounterVec
	sessionsDeleted   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamhub_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamhub_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		serversCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamhub_servers_created_total",
			Help: "作成されたサーバーの合計数",
		}),
		projectsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamhub_projects_created_total",
			Help: "作成されたプロジェクトの合計数",
		}),
		milestonesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamhub_milestones_created_total",
			Help: "作成されたマイルストーンの合計数",
		}),
		authzDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamhub_authz_denied_total",
			Help: "認可拒否の合計数（エラーコード別）",
		}, []string{"code"}),
		sessionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamhub_sessions_deleted_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.serversCreated,
		c.projectsCreated,
		c.milestonesCreated,
		c.authzDenied,
		c.sessionsDeleted,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordServerCreated はサーバー作成を記録する。
func (c *Collector) RecordServerCreated() {
	c.serversCreated.Inc()
}

// RecordProjectCreated はプロジェクト作成を記録する。
func (c *Collector) RecordProjectCreated() {
	c.projectsCreated.Inc()
}

// RecordMilestoneCreated はマイルストーン作成を記録する。
func (c *Collector) RecordMilestoneCreated() {
	c.milestonesCreated.Inc()
}

// RecordAuthzDenied は認可拒否をエラーコード別に記録する。
func (c *Collector) RecordAuthzDenied(code string) {
	c.authzDenied.WithLabelValues(code).Inc()
}

// RecordSessionsDeleted はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsDeleted(count int) {
	c.sessionsDeleted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
