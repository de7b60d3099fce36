package httpserver

import (
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*options)

type options struct {
	addr              string
	readHeaderTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
}

func defaultOptions() *options {
	return &options{
		addr:              ":8000",
		readHeaderTimeout: 10 * time.Second,
		shutdownTimeout:   10 * time.Second,
		logger:            slog.New(slog.DiscardHandler),
	}
}

// WithAddr sets the listen address. Port 0 picks a free port; see Server.Addr.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: addr cannot be empty")
	}
	return func(o *options) { o.addr = addr }
}

func WithReadHeaderTimeout(d time.Duration) Option {
	return durationOption("read header timeout", d, func(o *options) { o.readHeaderTimeout = d })
}

func WithReadTimeout(d time.Duration) Option {
	return durationOption("read timeout", d, func(o *options) { o.readTimeout = d })
}

func WithWriteTimeout(d time.Duration) Option {
	return durationOption("write timeout", d, func(o *options) { o.writeTimeout = d })
}

func WithIdleTimeout(d time.Duration) Option {
	return durationOption("idle timeout", d, func(o *options) { o.idleTimeout = d })
}

// WithShutdownTimeout bounds how long in-flight requests may run after
// shutdown starts.
func WithShutdownTimeout(d time.Duration) Option {
	return durationOption("shutdown timeout", d, func(o *options) { o.shutdownTimeout = d })
}

// WithLogger sets the logger for lifecycle events. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func durationOption(name string, d time.Duration, apply Option) Option {
	if d <= 0 {
		panic("httpserver: " + name + " must be > 0")
	}
	return apply
}
