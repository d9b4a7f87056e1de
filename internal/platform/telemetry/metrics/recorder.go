package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "palace_sync"

// Result labels.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultOffline  = "offline"
	ResultCanceled = "canceled"
)

// Recorder counts session and sync outcomes.
type Recorder struct {
	operations         *prometheus.CounterVec
	logins             *prometheus.CounterVec
	accountsCreated    prometheus.Counter
	accountInvalidated prometheus.Counter
}

// NewRecorder creates a Recorder and registers it on reg. A nil reg keeps
// the collectors unregistered.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Sync operations by operation and result.",
		}, []string{"operation", "result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		accountsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Anonymous accounts provisioned.",
		}),
		accountInvalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_invalidated_total",
			Help:      "Stored account identifiers dropped after the server rejected them.",
		}),
	}
	if reg == nil {
		return r, nil
	}
	for _, c := range []prometheus.Collector{r.operations, r.logins, r.accountsCreated, r.accountInvalidated} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Operation counts one sync operation outcome.
func (r *Recorder) Operation(operation, result string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, result).Inc()
}

// Login counts one login attempt outcome.
func (r *Recorder) Login(result string) {
	if r == nil {
		return
	}
	r.logins.WithLabelValues(result).Inc()
}

// AccountCreated counts a provisioned account.
func (r *Recorder) AccountCreated() {
	if r == nil {
		return
	}
	r.accountsCreated.Inc()
}

// AccountInvalidated counts a stored account dropped after rejection.
func (r *Recorder) AccountInvalidated() {
	if r == nil {
		return
	}
	r.accountInvalidated.Inc()
}
