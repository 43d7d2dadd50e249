package client

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const (
	DefaultWriteTimeout = 10 * time.Second
	DefaultReadTimeout  = 5 * time.Second
)

// Reporter приёмник ошибок, которые пути записи и чтения поглощают.
type Reporter interface {
	Report(op string, err error)
}

type logReporter struct {
	log *slog.Logger
}

// NewLogReporter пишет ошибки в лог и считает их в метриках.
func NewLogReporter(log *slog.Logger) Reporter {
	return logReporter{log: log.With("component", "error_sink")}
}

func (r logReporter) Report(op string, err error) {
	if err == nil {
		return
	}
	reportedErrors.WithLabelValues(op).Inc()
	r.log.Warn("Ошибка обработана локально", "op", op, "error", err)
}

// SyncContext набор зависимостей путей записи, чтения и сверки.
// Передаётся явно вместо глобальных синглтонов.
type SyncContext struct {
	Cache    Cache
	Remote   RemoteStore
	Identity *Resolver
	Reporter Reporter
	Log      *slog.Logger

	Now   func() time.Time
	NewID func() string

	WriteTimeout time.Duration
	ReadTimeout  time.Duration

	// Trigger запускает фоновую сверку коллекции, nil отключает её.
	Trigger func(collection string)
}

func NewSyncContext(cache Cache, remote RemoteStore, session SessionSource, log *slog.Logger) *SyncContext {
	reporter := NewLogReporter(log)

	return &SyncContext{
		Cache:        cache,
		Remote:       remote,
		Identity:     NewResolver(cache, session, reporter, log),
		Reporter:     reporter,
		Log:          log,
		Now:          time.Now,
		NewID:        uuid.NewString,
		WriteTimeout: DefaultWriteTimeout,
		ReadTimeout:  DefaultReadTimeout,
	}
}

func (sc *SyncContext) report(op string, err error) {
	if sc.Reporter != nil {
		sc.Reporter.Report(op, err)
	}
}

func (sc *SyncContext) trigger(collection string) {
	if sc.Trigger != nil {
		sc.Trigger(collection)
	}
}
