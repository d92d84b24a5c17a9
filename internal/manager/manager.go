package manager

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/asaskevich/govalidator"

	"github.com/priyxstudio/botdeck/internal/models"
	"github.com/priyxstudio/botdeck/internal/store"
	"github.com/priyxstudio/botdeck/remote"
)

const (
	ErrNoBot         = store.ErrNoBot
	ErrBotExists     = store.ErrBotExists
	ErrServerOffline = errors.Sentinel("bot server is offline")
	ErrBotRunning    = errors.Sentinel("settings cannot be modified while the bot is running")
	ErrClosed        = errors.Sentinel("manager: not running")
)

// ClientFactory builds the API client for a bot configuration.
type ClientFactory func(cfg models.BotConfig) remote.Client

// Manager owns the bot aggregate. Every mutation runs on a single writer
// goroutine started by Run; network calls are made by the callers before
// handing the result to the writer.
type Manager struct {
	store     *store.Store
	newClient ClientFactory

	ops     chan op
	stopped chan struct{}
	once    sync.Once

	// Owned by the writer goroutine.
	bot     *models.Bot
	lastSeq uint64

	// seq numbers status checks in the order they were started.
	seq atomic.Uint64

	mu         sync.RWMutex
	snapshot   models.Bot
	status     Status
	subs       []func(models.Bot)
	statusSubs []func(Status)
}

type op struct {
	fn   func() error
	done chan error
}

// New returns a manager persisting to s. Run must be called before any other
// operation returns.
func New(s *store.Store, factory ClientFactory) *Manager {
	return &Manager{
		store:     s,
		newClient: factory,
		ops:       make(chan op),
		stopped:   make(chan struct{}),
	}
}

// Run loads the stored bot and serves mutations until ctx is canceled.
func (m *Manager) Run(ctx context.Context) error {
	defer m.once.Do(func() { close(m.stopped) })

	b, err := m.store.First(ctx)
	if err != nil && !errors.Is(err, store.ErrNoBot) {
		return err
	}
	m.bot = b
	m.publish()

	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-m.ops:
			err := o.fn()
			if err == nil {
				m.publish()
			}
			o.done <- err
		}
	}
}

// do runs fn on the writer goroutine and waits for it to finish.
func (m *Manager) do(ctx context.Context, fn func() error) error {
	o := op{fn: fn, done: make(chan error, 1)}
	select {
	case m.ops <- o:
	case <-m.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-o.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) publish() {
	var snap models.Bot
	if m.bot != nil {
		snap = m.bot.Clone()
	}
	m.mu.Lock()
	m.snapshot = snap
	subs := append([]func(models.Bot){}, m.subs...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap.Clone())
	}
}

// Snapshot returns a copy of the most recently published aggregate. The ID is
// zero when no bot exists.
func (m *Manager) Snapshot() models.Bot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone()
}

// Subscribe registers fn to receive every published aggregate. fn runs on the
// writer goroutine, so it must not call back into the manager and should
// return promptly.
func (m *Manager) Subscribe(fn func(models.Bot)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

// Current returns a copy of the bot as seen by the writer.
func (m *Manager) Current(ctx context.Context) (models.Bot, error) {
	var out models.Bot
	err := m.do(ctx, func() error {
		if m.bot == nil {
			return ErrNoBot
		}
		out = m.bot.Clone()
		return nil
	})
	return out, err
}

// Client returns an API client for the current bot.
func (m *Manager) Client(ctx context.Context) (remote.Client, error) {
	b, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return m.newClient(b.Config()), nil
}

// Create stores a new bot with the default groups.
func (m *Manager) Create(ctx context.Context, name string, cfg models.BotConfig) (models.Bot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Bot{}, errors.New("bot name is required")
	}
	if err := validateConfig(cfg); err != nil {
		return models.Bot{}, err
	}

	var out models.Bot
	err := m.do(ctx, func() error {
		if m.bot != nil {
			return ErrBotExists
		}
		b := models.NewBot(name, cfg)
		if err := m.store.Insert(ctx, b); err != nil {
			return err
		}
		m.bot = b
		out = b.Clone()
		return nil
	})
	if err == nil {
		log.WithField("bot", name).Info("created bot")
	}
	return out, err
}

// Delete removes the bot. A running bot is asked to stop first; a failure to
// do so is logged and the deletion goes ahead.
func (m *Manager) Delete(ctx context.Context) error {
	b, err := m.Current(ctx)
	if err != nil {
		return err
	}
	if b.IsActive {
		if _, err := m.newClient(b.Config()).StopBot(ctx); err != nil {
			log.WithField("bot", b.Name).WithError(err).Warn("failed to stop bot before deleting it")
		}
	}
	err = m.do(ctx, func() error {
		if m.bot == nil || m.bot.ID != b.ID {
			return ErrNoBot
		}
		if err := m.store.Delete(ctx, m.bot); err != nil {
			return err
		}
		m.bot = nil
		return nil
	})
	if err == nil {
		log.WithField("bot", b.Name).Info("deleted bot")
	}
	return err
}

// Start asks the server to start the bot and records the resulting state.
func (m *Manager) Start(ctx context.Context) (bool, error) {
	return m.toggle(ctx, remote.Client.StartBot)
}

// Stop asks the server to stop the bot and records the resulting state.
func (m *Manager) Stop(ctx context.Context) (bool, error) {
	return m.toggle(ctx, remote.Client.StopBot)
}

func (m *Manager) toggle(ctx context.Context, call func(remote.Client, context.Context) (bool, error)) (bool, error) {
	b, err := m.Current(ctx)
	if err != nil {
		return false, err
	}
	active, err := call(m.newClient(b.Config()), ctx)
	if err != nil {
		return false, err
	}
	err = m.mutate(ctx, b.ID, func(bot *models.Bot) error {
		return m.setActive(ctx, bot, active)
	})
	return active, err
}

// setActive records the running state of the bot on the writer. Attendance
// sessions end with the bot, so a stopped bot has no group with attendance
// running.
func (m *Manager) setActive(ctx context.Context, bot *models.Bot, active bool) error {
	prev := bot.Clone()
	bot.IsActive = active
	var cleared int
	if !active {
		for i := range bot.Groups {
			if bot.Groups[i].AttendanceActive {
				cleared++
			}
			bot.Groups[i].StopAttendance()
		}
	}
	if err := m.store.SaveState(ctx, bot); err != nil {
		*bot = prev
		return err
	}
	if cleared > 0 {
		log.WithFields(log.Fields{"bot": bot.Name, "groups": cleared}).Info("bot stopped, cleared attendance")
	}
	return nil
}

// UpdateServer changes the address and key used to reach the bot server.
func (m *Manager) UpdateServer(ctx context.Context, cfg models.BotConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	return m.do(ctx, func() error {
		if m.bot == nil {
			return ErrNoBot
		}
		prev := m.bot.Config()
		m.bot.ServerAddress = cfg.ServerAddress
		m.bot.APIKey = cfg.APIKey
		if err := m.store.Save(ctx, m.bot); err != nil {
			m.bot.ServerAddress, m.bot.APIKey = prev.ServerAddress, prev.APIKey
			return err
		}
		return nil
	})
}

// mutate runs fn against the bot on the writer, provided it is still the bot
// with the given id.
func (m *Manager) mutate(ctx context.Context, id uint, fn func(b *models.Bot) error) error {
	return m.do(ctx, func() error {
		if m.bot == nil || m.bot.ID != id {
			return ErrNoBot
		}
		return fn(m.bot)
	})
}

func validateConfig(cfg models.BotConfig) error {
	addr := strings.TrimSpace(cfg.ServerAddress)
	if addr == "" {
		return errors.New("server address is required")
	}
	if !govalidator.IsRequestURL(addr) {
		return errors.Errorf("server address %q is not a valid URL", addr)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return errors.New("api key is required")
	}
	return nil
}
