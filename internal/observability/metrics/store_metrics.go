package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/smallbiznis/booklib/pkg/db"
	"gorm.io/gorm"
)

const (
	CommitReasonDeadlineExceeded     = "deadline_exceeded"
	CommitReasonUniqueViolation      = "unique_violation"
	CommitReasonCheckViolation       = "check_violation"
	CommitReasonValidation           = "validation"
	CommitReasonDBLockTimeout        = "db_lock_timeout"
	CommitReasonSerializationFailure = "serialization_failure"
	CommitReasonDB                   = "db"
	CommitReasonUnknown              = "unknown"
)

const (
	outcomeCommitted = "committed"
	outcomeFailed    = "failed"
)

// StoreMetrics tracks customer write transactions in Prometheus.
type StoreMetrics struct {
	commitDuration *prometheus.HistogramVec
	commitErrors   *prometheus.CounterVec
	pending        prometheus.Gauge
	errorCounters  map[string]prometheus.Counter
}

func NewStoreMetrics(registerer prometheus.Registerer, cfg Config) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "booklib"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	commitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "booklib_customer_commit_duration_seconds",
		Help:        "Customer insert transaction latency by outcome.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"outcome"})
	commitErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "booklib_customer_commit_errors_total",
		Help:        "Customer insert failures by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "booklib_customer_commits_in_flight",
		Help:        "Customer insert transactions currently open.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(commitDuration, commitErrors, pending)

	errorCounters := map[string]prometheus.Counter{}
	for _, reason := range []string{
		CommitReasonDeadlineExceeded,
		CommitReasonUniqueViolation,
		CommitReasonCheckViolation,
		CommitReasonValidation,
		CommitReasonDBLockTimeout,
		CommitReasonSerializationFailure,
		CommitReasonDB,
		CommitReasonUnknown,
	} {
		errorCounters[reason] = commitErrors.WithLabelValues(reason)
	}

	return &StoreMetrics{
		commitDuration: commitDuration,
		commitErrors:   commitErrors,
		pending:        pending,
		errorCounters:  errorCounters,
	}
}

// TrackCommit marks a transaction as open. The returned func closes it and
// records its duration and outcome.
func (m *StoreMetrics) TrackCommit() func(err error) {
	if m == nil {
		return func(error) {}
	}
	start := time.Now()
	m.pending.Inc()
	return func(err error) {
		m.pending.Dec()
		outcome := outcomeCommitted
		if err != nil {
			outcome = outcomeFailed
			m.errorCounters[ClassifyCommitError(err)].Inc()
		}
		m.commitDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}

// ClassifyCommitError maps a commit error to one of the CommitReason values.
func ClassifyCommitError(err error) string {
	switch {
	case err == nil:
		return CommitReasonUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CommitReasonDeadlineExceeded
	case db.IsDuplicateKeyErr(err):
		return CommitReasonUniqueViolation
	case isValidationError(err):
		return CommitReasonValidation
	case errors.Is(err, gorm.ErrCheckConstraintViolated), hasPGCode(err, "23514"):
		return CommitReasonCheckViolation
	case hasPGCode(err, "55P03"), isSQLiteBusy(err):
		return CommitReasonDBLockTimeout
	case hasPGCode(err, "40001"), hasPGCode(err, "40P01"):
		return CommitReasonSerializationFailure
	case isDBError(err):
		return CommitReasonDB
	default:
		return CommitReasonUnknown
	}
}

func isValidationError(err error) bool {
	var verr *domain.ValidationError
	return errors.As(err, &verr)
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func isSQLiteBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}

func isDBError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}
	return errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidDB) ||
		strings.Contains(strings.ToLower(err.Error()), "sql:")
}
