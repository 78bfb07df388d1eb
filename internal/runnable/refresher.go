package runnable

import (
	"context"
	"log/slog"
	"snapshot-compare/internal/compare"
	"snapshot-compare/internal/diff"
	"snapshot-compare/internal/report"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/xerrors"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Refresher compares two directories on a cron schedule and keeps the
// report of the last successful run.
type Refresher struct {
	Left        string
	Right       string
	Compare     compare.Config
	Report      report.Config
	Engine      *diff.Engine
	Differences metric.Int64Counter
	Logger      *slog.Logger

	schedule cron.Schedule
	latest   atomic.Pointer[report.Report]
}

func NewRefresher(spec string, left, right string) (*Refresher, error) {
	schedule, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse schedule %q: %w", spec, err)
	}
	return &Refresher{
		Left:     left,
		Right:    right,
		Report:   report.DefaultConfig(),
		Engine:   diff.NewEngine(),
		Logger:   slog.Default(),
		schedule: schedule,
	}, nil
}

func (r *Refresher) Latest() (*report.Report, bool) {
	rep := r.latest.Load()
	return rep, rep != nil
}

// Refresh runs one comparison and publishes it as the latest report.
func (r *Refresher) Refresh(ctx context.Context) error {
	session := compare.NewSession(r.Engine)
	if err := session.CompareDirectories(ctx, r.Compare, r.Left, r.Right); err != nil {
		return err
	}
	rep, err := report.New(r.Report, session.Results())
	if err != nil {
		return err
	}
	if r.Differences != nil {
		for kind, n := range rep.Summary() {
			r.Differences.Add(ctx, int64(n), metric.WithAttributes(
				attribute.Key("kind").String(string(kind)),
				attribute.Key("source").String("schedule"),
			))
		}
	}
	r.latest.Store(rep)
	r.logger().Info("comparison refreshed", "runid", rep.RunID, "images", rep.Len())
	return nil
}

// Run refreshes immediately and then on every scheduled tick until ctx is
// done. Failed refreshes are logged and keep the previous report.
func (r *Refresher) Run(ctx context.Context) {
	for {
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			r.logger().Error("failed to refresh comparison", "error", err)
		}

		now := time.Now()
		timer := time.NewTimer(r.schedule.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (r *Refresher) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
