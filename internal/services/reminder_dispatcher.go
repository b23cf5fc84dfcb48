package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/infrastructure/journal"
	"github.com/fastygo/planner/internal/infrastructure/telegram"
	"github.com/fastygo/planner/repository"
)

// ErrTickLocked is returned by RunOnce when another instance holds the tick lock.
var ErrTickLocked = errors.New("reminder tick already running elsewhere")

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Notifier delivers a formatted message to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID string, text string) error
}

type TaskSource interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
}

type DestinationSource interface {
	GetByUserID(ctx context.Context, userID string) (*domain.NotificationDestination, error)
}

// AttemptJournal counts failed deliveries and remembers reminders that were given up on.
type AttemptJournal interface {
	RecordFailure(entry journal.Entry) (int, error)
	Clear(reminderID string) error
	DeadLetter(reminderID string) error
	IsDeadLettered(reminderID string) (bool, error)
}

// JournalMaintainer is optionally implemented by an AttemptJournal to prune old counters.
type JournalMaintainer interface {
	Cleanup(olderThan time.Time) error
	DeadLetters(limit int) ([]journal.Entry, error)
}

// TickLocker guards a tick against concurrent scans from other processes.
type TickLocker interface {
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

// DispatcherConfig controls the tick cadence and the optional retry bound.
type DispatcherConfig struct {
	Interval    time.Duration
	TickTimeout time.Duration
	// MaxAttempts of 0 retries undeliverable reminders forever.
	MaxAttempts int
	// JournalRetention is how long attempt counters and dead letters are kept.
	JournalRetention time.Duration
}

// DispatcherDeps lists the collaborators of the dispatch loop. Journal, Lock
// and Monitor are optional.
type DispatcherDeps struct {
	Reminders    repository.ReminderRepository
	Tasks        TaskSource
	Destinations DestinationSource
	Notifier     Notifier
	Journal      AttemptJournal
	Lock         TickLocker
	Monitor      ConnectionHealth
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Report summarises one tick.
type Report struct {
	Scanned      int
	Due          int
	Sent         int
	Failed       int
	Skipped      int
	DeadLettered int
	// Deferred counts due reminders left for the next tick once the tick
	// deadline passed.
	Deferred int
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeFailed
	outcomeSkipped
	outcomeDeadLettered
	outcomeDeferred
)

// markSentTimeout bounds MarkSent after a delivery. It is detached from the
// tick deadline so a sent reminder is still recorded as sent.
const markSentTimeout = 5 * time.Second

// ReminderDispatcher periodically scans unsent reminders and delivers the due ones.
type ReminderDispatcher struct {
	deps   DispatcherDeps
	cfg    DispatcherConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewReminderDispatcher(deps DispatcherDeps, cfg DispatcherConfig) *ReminderDispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = cfg.Interval
	}
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = 0
	}
	if cfg.JournalRetention <= 0 {
		cfg.JournalRetention = 7 * 24 * time.Hour
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &ReminderDispatcher{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    now,
	}
}

// Handle identifies one running dispatch loop.
type Handle struct {
	cron     *cron.Cron
	initial  sync.WaitGroup
	stopOnce sync.Once
}

// Start runs one scan immediately and then every Interval. Ticks never overlap.
func (d *ReminderDispatcher) Start() (*Handle, error) {
	if d.deps.Reminders == nil || d.deps.Tasks == nil || d.deps.Destinations == nil || d.deps.Notifier == nil {
		return nil, errors.New("reminder dispatcher: missing dependencies")
	}

	cl := cronLogger{logger: d.logger}
	c := cron.New(cron.WithLogger(cl))
	job := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(d.tick))
	c.Schedule(cron.Every(d.cfg.Interval), job)
	if maintainer, ok := d.deps.Journal.(JournalMaintainer); ok {
		c.Schedule(cron.Every(24*time.Hour), cron.NewChain(cron.Recover(cl)).Then(cron.FuncJob(func() {
			d.maintainJournal(maintainer)
		})))
	}

	h := &Handle{cron: c}
	h.initial.Add(1)
	go func() {
		defer h.initial.Done()
		job.Run()
	}()
	c.Start()

	d.logger.Info("reminder dispatcher started",
		zap.Duration("interval", d.cfg.Interval),
		zap.Int("max_attempts", d.cfg.MaxAttempts))
	return h, nil
}

// Stop disarms the timer and waits for the running tick, bounded by ctx.
func (d *ReminderDispatcher) Stop(ctx context.Context, h *Handle) {
	if h == nil || h.cron == nil {
		return
	}
	h.stopOnce.Do(func() {
		stopCtx := h.cron.Stop()
		done := make(chan struct{})
		go func() {
			<-stopCtx.Done()
			h.initial.Wait()
			close(done)
		}()
		select {
		case <-done:
			d.logger.Info("reminder dispatcher stopped")
		case <-ctx.Done():
			d.logger.Warn("reminder dispatcher stop timed out", zap.Error(ctx.Err()))
		}
	})
}

func (d *ReminderDispatcher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.TickTimeout)
	defer cancel()

	report, err := d.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrTickLocked):
		d.logger.Debug("reminder tick skipped, lock held by another instance")
	case err != nil:
		d.logger.Error("reminder tick failed", zap.Error(err))
	default:
		d.logger.Info("reminder tick finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("due", report.Due),
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped),
			zap.Int("dead_lettered", report.DeadLettered),
			zap.Int("deferred", report.Deferred))
	}
}

// RunOnce performs a single scan. A failing reminder never aborts the batch;
// only store or lock failures are returned.
func (d *ReminderDispatcher) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	if d.deps.Monitor != nil && !d.deps.Monitor.IsOnline() {
		return report, domain.ErrStoreUnavailable
	}

	if d.deps.Lock != nil {
		release, ok, err := d.deps.Lock.Acquire(ctx)
		switch {
		case err != nil:
			d.logger.Warn("tick lock unavailable, scanning without it", zap.Error(err))
		case !ok:
			return report, ErrTickLocked
		default:
			defer release()
		}
	}

	now := d.now()
	reminders, err := d.deps.Reminders.ListUnsent(ctx)
	if err != nil {
		return report, fmt.Errorf("list unsent reminders: %w", err)
	}

	for _, reminder := range reminders {
		report.Scanned++
		if !reminder.IsDue(now) {
			continue
		}
		report.Due++

		if ctx.Err() != nil {
			report.Deferred++
			continue
		}

		switch d.dispatch(ctx, reminder, now) {
		case outcomeSent:
			report.Sent++
		case outcomeFailed:
			report.Failed++
		case outcomeSkipped:
			report.Skipped++
		case outcomeDeadLettered:
			report.Skipped++
			report.DeadLettered++
		case outcomeDeferred:
			report.Deferred++
		}
	}
	if report.Deferred > 0 {
		d.logger.Warn("tick deadline reached, reminders left for next tick",
			zap.Int("deferred", report.Deferred), zap.Error(ctx.Err()))
	}
	return report, nil
}

func (d *ReminderDispatcher) dispatch(ctx context.Context, reminder domain.Reminder, now time.Time) (result outcome) {
	log := d.logger.With(
		zap.String("reminder_id", reminder.ID),
		zap.String("task_id", reminder.TaskID),
		zap.String("user_id", reminder.UserID),
		zap.String("reminder_type", string(reminder.Type)),
	)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("reminder dispatch panicked", zap.Any("panic", rec))
			result = d.recordFailure(ctx, log, reminder, fmt.Errorf("panic: %v", rec), now, outcomeFailed)
		}
	}()

	if d.retriesBounded() {
		dead, err := d.deps.Journal.IsDeadLettered(reminder.ID)
		if err != nil {
			log.Warn("journal lookup failed", zap.Error(err))
		}
		if dead {
			return outcomeDeadLettered
		}
	}

	task, err := d.deps.Tasks.GetByID(ctx, reminder.TaskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			log.Warn("task not found for reminder")
			return d.recordFailure(ctx, log, reminder, err, now, outcomeSkipped)
		}
		log.Error("task lookup failed", zap.Error(err))
		return d.recordFailure(ctx, log, reminder, err, now, outcomeFailed)
	}

	dest, err := d.deps.Destinations.GetByUserID(ctx, reminder.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrDestinationNotFound) {
			log.Warn("no notification destination for user")
			return d.recordFailure(ctx, log, reminder, err, now, outcomeSkipped)
		}
		log.Error("destination lookup failed", zap.Error(err))
		return d.recordFailure(ctx, log, reminder, err, now, outcomeFailed)
	}

	if err := d.deps.Notifier.Send(ctx, dest.ChatID, FormatReminderMessage(task.Title, reminder.Type)); err != nil {
		if errors.Is(err, telegram.ErrNotConfigured) {
			log.Warn("reminder not sent, notification channel not configured")
		} else {
			log.Error("reminder send failed", zap.Error(err))
		}
		return d.recordFailure(ctx, log, reminder, err, now, outcomeFailed)
	}

	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markSentTimeout)
	defer cancel()
	if err := d.deps.Reminders.MarkSent(markCtx, reminder.ID, d.now()); err != nil {
		// Delivered but unmarked: the next tick sends it again.
		log.Error("failed to mark reminder sent", zap.Error(err))
		return outcomeFailed
	}

	if d.retriesBounded() {
		if err := d.deps.Journal.Clear(reminder.ID); err != nil {
			log.Warn("failed to clear attempt history", zap.Error(err))
		}
	}
	log.Info("reminder sent")
	return outcomeSent
}

func (d *ReminderDispatcher) retriesBounded() bool {
	return d.deps.Journal != nil && d.cfg.MaxAttempts > 0
}

// recordFailure counts the attempt and dead-letters the reminder at the limit.
// It returns result unless the reminder was dead-lettered. Failures caused by
// an expired tick deadline are not counted against the reminder.
func (d *ReminderDispatcher) recordFailure(ctx context.Context, log *zap.Logger, reminder domain.Reminder, cause error, now time.Time, result outcome) outcome {
	if ctx.Err() != nil {
		log.Debug("reminder deferred, tick deadline reached", zap.Error(cause))
		return outcomeDeferred
	}
	if !d.retriesBounded() {
		return result
	}

	attempts, err := d.deps.Journal.RecordFailure(journal.Entry{
		ReminderID: reminder.ID,
		TaskID:     reminder.TaskID,
		UserID:     reminder.UserID,
		LastError:  cause.Error(),
		LastFailed: now,
	})
	if err != nil {
		log.Warn("failed to record delivery attempt", zap.Error(err))
		return result
	}
	if attempts < d.cfg.MaxAttempts {
		return result
	}
	if err := d.deps.Journal.DeadLetter(reminder.ID); err != nil {
		log.Warn("failed to dead-letter reminder", zap.Error(err))
		return result
	}
	log.Warn("reminder dead-lettered", zap.Int("attempts", attempts))
	return outcomeDeadLettered
}

func (d *ReminderDispatcher) maintainJournal(maintainer JournalMaintainer) {
	if err := maintainer.Cleanup(d.now().Add(-d.cfg.JournalRetention)); err != nil {
		d.logger.Warn("journal cleanup failed", zap.Error(err))
		return
	}
	dead, err := maintainer.DeadLetters(20)
	if err != nil {
		d.logger.Warn("failed to read dead letters", zap.Error(err))
		return
	}
	if len(dead) == 0 {
		return
	}
	ids := make([]string, 0, len(dead))
	for _, entry := range dead {
		ids = append(ids, entry.ReminderID)
	}
	d.logger.Warn("undeliverable reminders in dead letter", zap.Strings("reminder_ids", ids))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
