// Package poller drives a watch session: one user-initiated fetch followed,
// while live mode is on, by periodic ticks that re-fetch the address and
// replace the held transactions whenever a previously unseen hash appears.
package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/Mohsinsiddi/txdash/internal/explorer"
	"github.com/Mohsinsiddi/txdash/internal/metrics"
	"github.com/Mohsinsiddi/txdash/internal/session"
	"github.com/rs/zerolog"
)

const (
	// DefaultInterval is the wait between two ticks.
	DefaultInterval = 15 * time.Second
	// DefaultSettleDelay is the extra wait after a tick that found new data.
	DefaultSettleDelay = 2 * time.Second
)

var (
	ErrMissingCredential = errors.New("please enter your API key")
	ErrMissingAddress    = errors.New("please enter a wallet address")
)

// Event describes transactions detected by a tick.
type Event struct {
	Address    string              `json:"address"`
	NewHashes  []string            `json:"new_hashes"`
	New        []chain.Transaction `json:"-"`
	Total      int                 `json:"total"`
	DetectedAt time.Time           `json:"detected_at"`
}

// Notifier receives an Event after each tick that replaced the held set.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// invalidator is implemented by caching sources.
type invalidator interface {
	Invalidate(credential, address string)
}

// Config holds the engine timings.
type Config struct {
	Interval    time.Duration
	SettleDelay time.Duration
}

// Engine owns the fetch/merge cycle for a single session. Fetch, Tick,
// SetLive and Run may be called from different goroutines.
type Engine struct {
	source   explorer.Source
	state    *session.State
	notifier Notifier
	cfg      Config
	log      zerolog.Logger
	metrics  *metrics.Metrics

	// cycle serializes ticks so two merges never interleave.
	cycle sync.Mutex

	mu         sync.Mutex
	phase      Phase
	tickCancel context.CancelFunc

	wake chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the receiver of new-transaction events.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "poller").Logger() }
}

// WithMetrics records tick outcomes and held counts into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an engine over source writing into state. Zero timings in cfg
// fall back to the defaults.
func New(source explorer.Source, state *session.State, cfg Config, opts ...Option) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	} else if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	e := &Engine{
		source: source,
		state:  state,
		cfg:    cfg,
		log:    zerolog.Nop(),
		phase:  Idle,
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the session state the engine writes to.
func (e *Engine) State() *session.State { return e.state }

// Config returns the effective timings.
func (e *Engine) Config() Config { return e.cfg }

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) setPhase(p Phase) {
	e.mu.Lock()
	prev := e.phase
	e.phase = p
	e.mu.Unlock()
	if prev != p {
		e.log.Debug().Stringer("from", prev).Stringer("to", p).Msg("phase change")
	}
}

// Fetch starts a new watch. Both inputs are trimmed and must be non-empty;
// on a validation error the session is left untouched. Otherwise every
// session field except the live flag is reset, any cached result for the
// pair is dropped and the source is queried once. A failure is recorded as
// the session's last error and returned.
func (e *Engine) Fetch(ctx context.Context, credential, address string) error {
	credential = strings.TrimSpace(credential)
	address = strings.TrimSpace(address)
	if credential == "" {
		return ErrMissingCredential
	}
	if address == "" {
		return ErrMissingAddress
	}

	e.cancelTick()
	gen := e.state.Begin(credential, address)
	e.setPhase(InitialFetch)
	e.metrics.SetHeld(0)
	e.poke()

	if inv, ok := e.source.(invalidator); ok {
		inv.Invalidate(credential, address)
	}

	log := e.log.With().Str("address", address).Logger()
	log.Info().Msg("fetching transactions")

	recs, err := e.source.Fetch(ctx, credential, address)
	if err != nil {
		if e.state.Fail(gen, err) {
			e.setPhase(Error)
		}
		log.Error().Err(err).Msg("initial fetch failed")
		return err
	}

	txs := e.transform(recs, address)
	if !e.state.Replace(gen, txs) {
		return nil
	}
	e.metrics.SetHeld(len(txs))
	e.setPhase(e.restingPhase())
	log.Info().Int("transactions", len(txs)).Msg("initial fetch complete")
	e.poke()
	return nil
}

// Tick runs one poll cycle for the active watch. It never surfaces an error
// and never clears held data: a failed, empty or subset result leaves the
// session exactly as it was.
func (e *Engine) Tick(ctx context.Context) TickOutcome {
	e.cycle.Lock()
	defer e.cycle.Unlock()

	outcome := e.tick(ctx)
	e.metrics.ObserveTick(outcome.label())
	return outcome
}

func (e *Engine) tick(ctx context.Context) TickOutcome {
	credential, address, gen, ok := e.state.Watch()
	if !ok || !e.state.FetchCompleted() {
		return Skipped
	}
	if p := e.Phase(); p != Polling && p != Static {
		return Skipped
	}

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.tickCancel = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.tickCancel = nil
		e.mu.Unlock()
		cancel()
	}()

	log := e.log.With().Str("address", address).Logger()

	recs, err := e.source.Fetch(ctx, credential, address)
	if err != nil {
		if ctx.Err() != nil {
			return Skipped
		}
		log.Warn().Err(err).Msg("poll fetch failed, keeping current data")
		return Failed
	}

	fetched := e.transform(recs, address)
	held, ok := e.state.Held(gen)
	if !ok {
		return Skipped
	}

	fresh := NewTransactions(held, fetched)
	if len(fresh) == 0 {
		log.Debug().Int("fetched", len(fetched)).Msg("no new transactions")
		return Unchanged
	}
	if !e.state.Replace(gen, fetched) {
		return Skipped
	}

	hashes := make([]string, len(fresh))
	for i, tx := range fresh {
		hashes[i] = tx.Hash
	}
	e.metrics.AddNewTransactions(len(fresh))
	e.metrics.SetHeld(len(fetched))
	log.Info().Int("new", len(fresh)).Int("total", len(fetched)).Msg("new transactions found")

	if e.notifier != nil {
		ev := Event{
			Address:    address,
			NewHashes:  hashes,
			New:        fresh,
			Total:      len(fetched),
			DetectedAt: time.Now().UTC(),
		}
		if err := e.notifier.Notify(ctx, ev); err != nil {
			log.Warn().Err(err).Msg("notify failed")
		}
	}
	return Updated
}

func (e *Engine) transform(recs chain.RawRecords, address string) []chain.Transaction {
	if field, ok := chain.HasRequiredFields(recs); !ok {
		e.log.Warn().Str("field", field).Int("records", len(recs)).Msg("records missing required field, ignoring batch")
	}
	return chain.Transform(recs, address)
}

// SetLive turns the periodic loop on or off. The flag is level-triggered:
// each wait re-checks it, and a change wakes a waiting Run immediately.
func (e *Engine) SetLive(on bool) {
	changed := e.state.SetLive(on)
	e.mu.Lock()
	switch {
	case on && e.phase == Static:
		e.phase = Polling
	case !on && e.phase == Polling:
		e.phase = Static
	}
	e.mu.Unlock()
	if changed {
		e.log.Info().Bool("live", on).Msg("live mode changed")
		e.poke()
	}
}

// Live reports whether live mode is on.
func (e *Engine) Live() bool { return e.state.Live() }

// Stop ends the watch and returns the engine to Idle.
func (e *Engine) Stop() {
	e.cancelTick()
	e.state.Reset()
	e.setPhase(Idle)
	e.metrics.SetHeld(0)
	e.poke()
}

// Run is the live loop. While live mode is on and a fetch has completed it
// waits the poll interval, ticks, and after a tick that replaced the held
// set waits the settle delay as well. Every wait ends early on ctx
// cancellation, a live-mode change or a new Fetch. Run returns ctx.Err().
func (e *Engine) Run(ctx context.Context) error {
	for {
		if !e.ready() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.wake:
				continue
			}
		}

		gen := e.state.Generation()
		if !e.wait(ctx, e.cfg.Interval) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if !e.ready() || e.state.Generation() != gen {
			continue
		}

		if e.Tick(ctx) == Updated {
			if !e.wait(ctx, e.cfg.SettleDelay) && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (e *Engine) ready() bool {
	return e.state.Live() && e.state.FetchCompleted() && e.Phase() == Polling
}

// wait blocks for d. It reports false if ctx ended or the engine was poked.
func (e *Engine) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-e.wake:
		return false
	case <-timer.C:
		return true
	}
}

func (e *Engine) poke() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) cancelTick() {
	e.mu.Lock()
	cancel := e.tickCancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *Engine) restingPhase() Phase {
	if e.state.Live() {
		return Polling
	}
	return Static
}

// NewTransactions returns the fetched transactions whose hash is not in held,
// in fetched order. An empty result means fetched is a subset of held by
// hash, which includes an empty fetch.
func NewTransactions(held, fetched []chain.Transaction) []chain.Transaction {
	if len(fetched) == 0 {
		return nil
	}
	seen := chain.Hashes(held)
	var fresh []chain.Transaction
	for _, tx := range fetched {
		if _, ok := seen[tx.Hash]; !ok {
			fresh = append(fresh, tx)
		}
	}
	return fresh
}
