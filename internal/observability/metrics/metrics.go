// Package metrics 使用 Prometheus 记录合约调用、交易提交与流程结果。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultError   = "error"
	defaultSubsys = "client"
	defaultNS     = "starfish"
)

// Recorder 汇总客户端指标。nil Recorder 的所有方法均为空操作。
type Recorder struct {
	calls        *prometheus.CounterVec
	transactions *prometheus.CounterVec
	txDuration   *prometheus.HistogramVec
	workflows    *prometheus.CounterVec
}

// New 在 reg 上注册指标。namespace 为空时使用 starfish。
func New(reg prometheus.Registerer, namespace string) *Recorder {
	if namespace == "" {
		namespace = defaultNS
	}
	factory := promauto.With(reg)
	return &Recorder{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: defaultSubsys,
			Name:      "contract_calls_total",
			Help:      "Read-only contract calls and log queries",
		}, []string{"contract", "method", "result"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: defaultSubsys,
			Name:      "transactions_total",
			Help:      "Submitted transactions by outcome",
		}, []string{"contract", "method", "result"}),
		txDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: defaultSubsys,
			Name:      "transaction_duration_seconds",
			Help:      "Time from submission to receipt",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"contract", "method"}),
		workflows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: defaultSubsys,
			Name:      "workflows_total",
			Help:      "Workflow runs by outcome",
		}, []string{"workflow", "result"}),
	}
}

// ObserveCall 记录一次只读调用。
func (r *Recorder) ObserveCall(contract, method string, err error) {
	if r == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	r.calls.WithLabelValues(contract, method, result).Inc()
}

// ObserveTransaction 记录一次交易提交。
func (r *Recorder) ObserveTransaction(contract, method string, success bool, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.transactions.WithLabelValues(contract, method, outcome(success, err)).Inc()
	if err == nil {
		r.txDuration.WithLabelValues(contract, method).Observe(elapsed.Seconds())
	}
}

// ObserveWorkflow 记录一次流程结果。
func (r *Recorder) ObserveWorkflow(workflow string, success bool, err error) {
	if r == nil {
		return
	}
	r.workflows.WithLabelValues(workflow, outcome(success, err)).Inc()
}

func outcome(success bool, err error) string {
	switch {
	case err != nil:
		return resultError
	case !success:
		return resultFailed
	default:
		return resultOK
	}
}

// Handler 以 Prometheus 文本格式暴露 g 中的指标。
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
