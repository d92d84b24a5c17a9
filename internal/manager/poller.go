package manager

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/gammazero/workerpool"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/priyxstudio/botdeck/remote"
)

// Status is the result of one status poll.
type Status struct {
	Seq          uint64
	ServerOnline bool
	BotActive    bool
	MemberCount  remote.MemberCount
	CheckedAt    time.Time
	// Err is set when the liveness or bot status check failed.
	Err error
	// MemberCountErr is set when the counts could not be fetched. The server
	// refuses them while the bot is stopped, so it does not affect BotActive.
	MemberCountErr error
}

// LastStatus returns the newest status applied by the writer.
func (m *Manager) LastStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SubscribeStatus registers fn to receive every applied status. Like Subscribe,
// fn runs on the writer goroutine.
func (m *Manager) SubscribeStatus(fn func(Status)) {
	m.mu.Lock()
	m.statusSubs = append(m.statusSubs, fn)
	m.mu.Unlock()
}

// applyStatus hands a poll result to the writer. Results older than the last
// applied one are dropped.
func (m *Manager) applyStatus(ctx context.Context, s Status) error {
	return m.do(ctx, func() error {
		if s.Seq <= m.lastSeq {
			log.WithFields(log.Fields{"seq": s.Seq, "last": m.lastSeq}).Debug("discarding stale status")
			return nil
		}
		m.lastSeq = s.Seq

		if m.bot != nil && s.Err == nil && s.ServerOnline && m.bot.IsActive != s.BotActive {
			if err := m.setActive(ctx, m.bot, s.BotActive); err != nil {
				return err
			}
		}

		m.mu.Lock()
		m.status = s
		subs := append([]func(Status){}, m.statusSubs...)
		m.mu.Unlock()
		for _, fn := range subs {
			fn(s)
		}
		return nil
	})
}

// Poller periodically checks the server and bot state. Every tick is handed to
// a worker pool, so a slow poll does not delay the next one.
type Poller struct {
	m         *Manager
	scheduler gocron.Scheduler
	pool      *workerpool.WorkerPool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPoller returns a poller firing every interval. It does nothing until
// Start is called.
func (m *Manager) NewPoller(every time.Duration, workers int) (*Poller, error) {
	if workers < 1 {
		workers = 1
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, "manager: failed to create scheduler")
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		m:         m,
		scheduler: s,
		pool:      workerpool.New(workers),
		ctx:       ctx,
		cancel:    cancel,
	}
	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(p.Trigger),
		gocron.WithName("status-poll"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		p.pool.Stop()
		return nil, errors.Wrap(err, "manager: failed to schedule status poll")
	}
	return p, nil
}

// Start begins the periodic polls. The first poll runs immediately.
func (p *Poller) Start() {
	p.scheduler.Start()
}

// Trigger queues one poll outside of the schedule.
func (p *Poller) Trigger() {
	seq := p.m.seq.Add(1)
	p.pool.Submit(func() {
		p.poll(seq)
	})
}

// Stop halts the schedule, cancels in-flight polls and waits for the workers.
func (p *Poller) Stop() error {
	err := p.scheduler.Shutdown()
	p.cancel()
	p.pool.StopWait()
	return err
}

func (p *Poller) poll(seq uint64) {
	b, err := p.m.Current(p.ctx)
	if err != nil {
		if !errors.Is(err, ErrNoBot) && !errors.Is(err, context.Canceled) {
			log.WithError(err).Debug("skipping status poll")
		}
		return
	}
	s := check(p.ctx, p.m.newClient(b.Config()))
	s.Seq = seq
	if err := p.m.applyStatus(p.ctx, s); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("failed to apply status")
	}
}

// check runs the liveness check, then the bot status and member count
// requests side by side. A failed member count leaves the bot status intact.
func check(ctx context.Context, c remote.Client) Status {
	var s Status
	online, err := c.CheckServerStatus(ctx)
	if err != nil || !online {
		s.Err = err
		s.CheckedAt = time.Now()
		return s
	}
	s.ServerOnline = true

	var g errgroup.Group
	g.Go(func() error {
		s.BotActive, s.Err = c.CheckBotStatus(ctx)
		return nil
	})
	g.Go(func() error {
		s.MemberCount, s.MemberCountErr = c.FetchMemberCount(ctx)
		if s.MemberCountErr != nil {
			s.MemberCount = remote.MemberCount{}
		}
		return nil
	})
	_ = g.Wait()
	s.CheckedAt = time.Now()
	return s
}

// Refresh runs a single status check synchronously and applies it.
func (m *Manager) Refresh(ctx context.Context) (Status, error) {
	b, err := m.Current(ctx)
	if err != nil {
		return Status{}, err
	}
	seq := m.seq.Add(1)
	s := check(ctx, m.newClient(b.Config()))
	s.Seq = seq
	return s, m.applyStatus(ctx, s)
}
