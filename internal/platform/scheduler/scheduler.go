// Package scheduler はcron式で定期ジョブを実行します。
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job は1回分の処理です。ctx はスケジューラ停止時にキャンセルされます。
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron schedules. A run still in progress when the next tick arrives is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New は標準5フィールド（分 時 日 月 曜日）の cron 式を受け付ける Scheduler を返します。
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add は spec で job を登録します。ジョブの失敗はログに記録し、スケジュールは継続します。
func (s *Scheduler) Add(ctx context.Context, name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("job started", zap.String("job", name))
		if err := job(ctx); err != nil {
			s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("job finished", zap.String("job", name))
	})
	if err != nil {
		return fmt.Errorf("register %s %q: %w", name, spec, err)
	}
	return nil
}

// Run はスケジューラを開始し、ctx がキャンセルされるまでブロックします。
// 戻る前に実行中のジョブの完了を待ちます。
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
