package paramvec

type options struct {
	logger  *Logger
	metrics MetricsCollector
	tol     float64
	checks  bool
}

func defaultOptions() options {
	return options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
		tol:     1e-8,
	}
}

// Option configures Model construction.
type Option func(*options)

// WithLogger sets the logger used for rebuild/clean diagnostics.
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector.
// If nil is passed, metrics collection is disabled.
func WithMetrics(c MetricsCollector) Option {
	return func(o *options) {
		if c == nil {
			c = NoopMetricsCollector{}
		}
		o.metrics = c
	}
}

// WithCleanTolerance sets the tolerance under which a dirty member's local
// vector is considered equal to the store slice it occupies and is not
// written back. The default is 1e-8.
func WithCleanTolerance(tol float64) Option {
	return func(o *options) {
		o.tol = tol
	}
}

// WithConsistencyChecks enables a full member-versus-store validation pass
// after every clean. Expensive; intended for tests and debugging.
func WithConsistencyChecks(enabled bool) Option {
	return func(o *options) {
		o.checks = enabled
	}
}
