// Copyright (c) 2025 BVK Chaitanya

// Package scheduler polls the social api for mentions of active bots with an
// adaptive per-bot interval that stays within the api rate limits.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bvk/mentionbot/ctxutil"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/ratelimit"
	"github.com/bvk/mentionbot/social"
)

// Per-bot scheduling states.
const (
	NotScheduled = "not-scheduled"
	Idle         = "idle"
	Due          = "due"
	Polling      = "polling"
)

type Store interface {
	Bot(ctx context.Context, id string) (*gobs.Bot, error)
	ActiveBots(ctx context.Context) ([]*gobs.Bot, error)
	SetBotActive(ctx context.Context, id string, active bool) error

	Schedule(ctx context.Context, botID string) (*gobs.PollSchedule, error)
	SaveSchedule(ctx context.Context, s *gobs.PollSchedule) error
	Schedules(ctx context.Context) ([]*gobs.PollSchedule, error)
	SetLastSeenMessageID(ctx context.Context, botID, messageID string) error
}

type Mentions interface {
	FetchMentionsSince(ctx context.Context, userID, sinceID string) ([]*social.Mention, *social.RateLimitInfo, error)
}

type MentionHandler interface {
	HandleMention(ctx context.Context, bot *gobs.Bot, m *social.Mention) error
}

// Schedule is a read-only view of a bot's poll schedule.
type Schedule struct {
	BotID string

	State string

	LastSeenMessageID string

	NextPollTime time.Time

	Backoff time.Duration
}

type Scheduler struct {
	cg ctxutil.CloseGroup

	opts Options

	store    Store
	mentions Mentions
	handler  MentionHandler
	tracker  *ratelimit.Tracker

	// tickMu serializes ticks with the explicit schedule resets.
	tickMu sync.Mutex

	mu sync.Mutex

	pollingBotID string
}

func New(store Store, mentions Mentions, handler MentionHandler, tracker *ratelimit.Tracker, opts *Options) (*Scheduler, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = ratelimit.New(&ratelimit.Options{Now: opts.Now})
	}
	s := &Scheduler{
		opts:     *opts,
		store:    store,
		mentions: mentions,
		handler:  handler,
		tracker:  tracker,
	}
	return s, nil
}

func (s *Scheduler) Tracker() *ratelimit.Tracker {
	return s.tracker
}

// Start launches the tick loop in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cg.Go(s.loop)
	return nil
}

// Stop stops the tick loop and waits for an in-flight poll to complete.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cg.Close()
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx, s.opts.Now()); err != nil && ctx.Err() == nil {
				slog.Error("could not complete the scheduler tick", "err", err)
			}
		}
	}
}

// Tick polls every active bot that is due at the given time. Bots are polled
// sequentially in the order of their ids.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	bots, err := s.store.ActiveBots(ctx)
	if err != nil {
		return fmt.Errorf("could not list active bots: %w", err)
	}

	for i, bot := range bots {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		sched, err := s.store.Schedule(ctx, bot.ID)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Error("could not load poll schedule", "bot", bot.ID, "err", err)
				continue
			}
			sched = &gobs.PollSchedule{
				BotID:          bot.ID,
				NextPollTime:   now.Add(time.Duration(i) * s.opts.Stagger),
				BackoffSeconds: int64(s.opts.DefaultPollInterval / time.Second),
			}
			if err := s.store.SaveSchedule(ctx, sched); err != nil {
				slog.Error("could not create poll schedule", "bot", bot.ID, "err", err)
				continue
			}
		}
		if sched.NextPollTime.After(now) {
			continue
		}

		// Bot could've been stopped by an earlier poll in this tick.
		fresh, err := s.store.Bot(ctx, bot.ID)
		if err != nil || !fresh.Active {
			continue
		}
		s.poll(ctx, fresh, sched, now)
	}
	return nil
}

func (s *Scheduler) setPolling(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollingBotID = botID
}

func (s *Scheduler) poll(ctx context.Context, bot *gobs.Bot, sched *gobs.PollSchedule, now time.Time) {
	s.setPolling(bot.ID)
	defer s.setPolling("")

	backoff := time.Duration(sched.BackoffSeconds) * time.Second
	if backoff <= 0 {
		backoff = s.opts.DefaultPollInterval
	}

	if s.tracker.IsLimited(ratelimit.Mentions) {
		next := now.Add(s.opts.MinPollInterval)
		if resetAt, ok := s.tracker.ResetAt(ratelimit.Mentions); ok {
			next = later(next, resetAt.Add(s.opts.SafetyBuffer))
		}
		slog.Debug("skipping poll for the rate limited mentions endpoint", "bot", bot.ID, "next", next)
		s.save(ctx, sched, next, backoff)
		return
	}

	mentions, info, err := s.mentions.FetchMentionsSince(ctx, bot.UserID, sched.LastSeenMessageID)
	if err != nil {
		var rerr *social.RateLimitError
		if !errors.As(err, &rerr) {
			slog.Error("could not poll mentions", "bot", bot.ID, "err", err)
			s.save(ctx, sched, now.Add(backoff), backoff)
			return
		}

		backoff = RateLimitedBackoff(backoff, s.opts.BackoffMultiplier, s.opts.MaxBackoff)
		next := now.Add(backoff)
		if rerr.ResetAt.IsZero() {
			s.tracker.RecordLimit(ratelimit.Mentions, next)
		} else {
			s.tracker.RecordLimit(ratelimit.Mentions, rerr.ResetAt)
			next = later(now.Add(s.opts.MinPollInterval), rerr.ResetAt.Add(s.opts.SafetyBuffer))
		}
		slog.Warn("mentions endpoint is rate limited", "bot", bot.ID, "resetAt", rerr.ResetAt, "backoff", backoff, "next", next)
		s.save(ctx, sched, next, backoff)
		return
	}
	if info != nil {
		s.tracker.RecordSuccess(ratelimit.Mentions, info.Remaining, info.ResetAt)
	}

	interval := IdleInterval(backoff, s.opts.DefaultPollInterval)
	if len(mentions) > 0 {
		interval = ActiveInterval(backoff, s.opts.MinPollInterval)
	}

	// Watermark only covers the mentions that were reached before a cancel.
	social.SortOldestFirst(mentions)
	processed := 0
	for i, m := range mentions {
		if ctx.Err() != nil {
			break
		}
		processed = i + 1
		if isSelfMention(bot, m) {
			continue
		}
		if err := s.handler.HandleMention(ctx, bot, m); err != nil {
			slog.Error("could not handle mention", "bot", bot.ID, "message", m.ID, "err", err)
		}
	}
	if processed < len(mentions) {
		slog.Warn("poll was interrupted; remaining mentions are left for the next poll", "bot", bot.ID, "skipped", len(mentions)-processed)
	}

	if maxID := social.MaxID(sched.LastSeenMessageID, mentions[:processed]); maxID != sched.LastSeenMessageID {
		if err := s.store.SetLastSeenMessageID(context.WithoutCancel(ctx), bot.ID, maxID); err != nil {
			slog.Error("could not save last seen message id", "bot", bot.ID, "message", maxID, "err", err)
		} else {
			sched.LastSeenMessageID = maxID
		}
	}
	s.save(ctx, sched, now.Add(interval), interval)
}

func (s *Scheduler) save(ctx context.Context, sched *gobs.PollSchedule, next time.Time, backoff time.Duration) {
	sched.NextPollTime = next
	sched.BackoffSeconds = int64(backoff / time.Second)
	if err := s.store.SaveSchedule(context.WithoutCancel(ctx), sched); err != nil {
		slog.Error("could not save poll schedule", "bot", sched.BotID, "err", err)
	}
}

func isSelfMention(bot *gobs.Bot, m *social.Mention) bool {
	if len(bot.UserID) != 0 && m.AuthorID == bot.UserID {
		return true
	}
	return len(bot.Handle) != 0 && strings.EqualFold(m.AuthorUsername, bot.Handle)
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// StartScheduling activates the bot and makes it due immediately with the
// default poll interval. This is the only operation that can move the next
// poll time backwards.
func (s *Scheduler) StartScheduling(ctx context.Context, botID string) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if err := s.store.SetBotActive(ctx, botID, true); err != nil {
		return fmt.Errorf("could not activate bot %q: %w", botID, err)
	}
	sched, err := s.store.Schedule(ctx, botID)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		sched = &gobs.PollSchedule{BotID: botID}
	}
	sched.NextPollTime = s.opts.Now()
	sched.BackoffSeconds = int64(s.opts.DefaultPollInterval / time.Second)
	if err := s.store.SaveSchedule(ctx, sched); err != nil {
		return fmt.Errorf("could not reset poll schedule for bot %q: %w", botID, err)
	}
	slog.Info("started scheduling", "bot", botID)
	return nil
}

// StopScheduling deactivates the bot. An in-flight poll is allowed to
// complete and the poll schedule is retained.
func (s *Scheduler) StopScheduling(ctx context.Context, botID string) error {
	if err := s.store.SetBotActive(ctx, botID, false); err != nil {
		return fmt.Errorf("could not deactivate bot %q: %w", botID, err)
	}
	slog.Info("stopped scheduling", "bot", botID)
	return nil
}

// State returns the scheduling state of a bot.
func (s *Scheduler) State(ctx context.Context, botID string) (string, error) {
	bot, err := s.store.Bot(ctx, botID)
	if err != nil {
		return "", err
	}
	sched, err := s.store.Schedule(ctx, botID)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	return s.state(bot, sched), nil
}

func (s *Scheduler) state(bot *gobs.Bot, sched *gobs.PollSchedule) string {
	s.mu.Lock()
	polling := s.pollingBotID == bot.ID
	s.mu.Unlock()

	if polling {
		return Polling
	}
	if !bot.Active || sched == nil {
		return NotScheduled
	}
	if sched.NextPollTime.After(s.opts.Now()) {
		return Idle
	}
	return Due
}

// Schedules returns a view of all poll schedules ordered by bot id.
func (s *Scheduler) Schedules(ctx context.Context) ([]*Schedule, error) {
	scheds, err := s.store.Schedules(ctx)
	if err != nil {
		return nil, err
	}
	var views []*Schedule
	for _, sched := range scheds {
		view := &Schedule{
			BotID:             sched.BotID,
			State:             NotScheduled,
			LastSeenMessageID: sched.LastSeenMessageID,
			NextPollTime:      sched.NextPollTime,
			Backoff:           time.Duration(sched.BackoffSeconds) * time.Second,
		}
		if bot, err := s.store.Bot(ctx, sched.BotID); err == nil {
			view.State = s.state(bot, sched)
		}
		views = append(views, view)
	}
	return views, nil
}
