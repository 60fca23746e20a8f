package xlrecord

import "log/slog"

// Options holds collaborators shared by Mapper and Record.
type Options struct {
	formatter   Formatter
	diagnostics Diagnostics
	evaluator   ExpressionEvaluator
	logger      *slog.Logger
}

func defaultOptions() *Options {
	return &Options{
		formatter: NewPatternFormatter(),
		evaluator: defaultEvaluator,
	}
}

// Option configures a Mapper or a Record.
type Option func(*Options)

// WithFormatter sets the number/date formatter (default: PatternFormatter).
func WithFormatter(f Formatter) Option {
	return func(o *Options) { o.formatter = f }
}

// WithDiagnostics sets where unsupported cell values are reported
// (default: LogDiagnostics on the configured logger).
func WithDiagnostics(d Diagnostics) Option {
	return func(o *Options) { o.diagnostics = d }
}

// WithEvaluator sets a custom expression evaluator.
func WithEvaluator(ev ExpressionEvaluator) Option {
	return func(o *Options) { o.evaluator = ev }
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

func buildOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.diagnostics == nil {
		o.diagnostics = LogDiagnostics{Logger: o.logger}
	}
	return o
}
