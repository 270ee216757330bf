// Package market runs mounted chart views: each view polls quotes for one
// symbol, keeps its historical and live data and publishes render-ready
// snapshots to subscribers.
package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"FinDesk/internal/chart"
	"FinDesk/internal/metrics"
	"FinDesk/internal/model"
	"FinDesk/internal/poller"
	"FinDesk/internal/provider"
	"FinDesk/internal/recorder"
)

var (
	ErrUnmounted      = errors.New("view is unmounted")
	ErrAlreadyMounted = errors.New("view is already mounted")
	ErrViewNotFound   = errors.New("view not found")
	ErrTooManyViews   = errors.New("too many views")
)

// Deps are the collaborators shared by every view.
type Deps struct {
	Provider          provider.Provider
	Scheduler         *poller.Scheduler
	Recorder          recorder.Recorder
	Metrics           *metrics.Metrics
	HistoricalTimeout time.Duration
	LiveTailSize      int
	DefaultInterval   time.Duration
}

// Options configure a new view. Zero values pick 1M and the default
// interval (5s unless Deps says otherwise).
type Options struct {
	Symbol    string
	Timeframe model.Timeframe
	Interval  time.Duration
}

// ViewState is a point-in-time snapshot of a view.
type ViewState struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Timeframe model.Timeframe `json:"timeframe"`
	Interval  string          `json:"interval"`
	Chart     chart.Chart     `json:"chart"`
	Quote     *model.Quote    `json:"quote,omitempty"`
	Error     string          `json:"error,omitempty"`
	Simulated bool            `json:"simulated"`
	Stale     bool            `json:"stale"`
	Mounted   bool            `json:"mounted"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// View is one mounted chart of a symbol.
type View struct {
	ID   string
	deps Deps

	mu         sync.Mutex
	symbol     string
	timeframe  model.Timeframe
	interval   time.Duration
	buffer     *chart.Buffer
	task       *poller.Task
	quotes     poller.Sequencer
	history    poller.Sequencer
	lastQuote  *model.Quote
	pollErr    error
	historyErr error
	mounted    bool
	unmounted  bool
	updatedAt  time.Time
	fetches    int

	ctx    context.Context
	cancel context.CancelFunc

	subs    map[int]chan ViewState
	nextSub int
}

// NewView validates opts and builds an unmounted view.
func NewView(id string, opts Options, deps Deps) (*View, error) {
	symbol, err := provider.CleanSymbol(opts.Symbol)
	if err != nil {
		return nil, err
	}
	tf := opts.Timeframe
	if tf == "" {
		tf = model.Timeframe1M
	}
	if !tf.Valid() {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}
	interval := opts.Interval
	if interval == 0 {
		interval = deps.DefaultInterval
	}
	if interval == 0 {
		interval = model.Intervals[0]
	}
	if !model.ValidInterval(interval) {
		return nil, fmt.Errorf("interval %s not allowed", interval)
	}
	if deps.HistoricalTimeout <= 0 {
		deps.HistoricalTimeout = provider.DefaultHistoricalTimeout
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	return &View{
		ID:        id,
		deps:      deps,
		symbol:    symbol,
		timeframe: tf,
		interval:  interval,
		buffer:    chart.NewBuffer(deps.LiveTailSize),
		subs:      make(map[int]chan ViewState),
	}, nil
}

// Mount starts polling (first tick immediately) and the first historical
// fetch. ctx bounds the lifetime of the view.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		return ErrUnmounted
	}
	if v.mounted {
		return ErrAlreadyMounted
	}
	v.ctx, v.cancel = context.WithCancel(ctx)
	if err := v.restartPollLocked(); err != nil {
		v.cancel()
		return err
	}
	v.mounted = true
	v.loadHistoryLocked()
	v.deps.Metrics.ViewMounted()
	log.Info().Str("view", v.ID).Str("symbol", v.symbol).Str("timeframe", string(v.timeframe)).Dur("interval", v.interval).Msg("view mounted")
	return nil
}

// Unmount cancels polling and in-flight fetches and closes subscriptions.
// Nothing changes the view afterwards. Safe to call repeatedly.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		return
	}
	v.unmounted = true
	if v.task != nil {
		v.task.Cancel()
		v.task = nil
	}
	if v.cancel != nil {
		v.cancel()
	}
	for id, ch := range v.subs {
		close(ch)
		delete(v.subs, id)
	}
	if v.mounted {
		v.deps.Metrics.ViewUnmounted()
	}
	log.Info().Str("view", v.ID).Msg("view unmounted")
}

// SetSymbol switches the view to another symbol: the live tail is cleared,
// polling restarts and exactly one historical fetch is issued.
func (v *View) SetSymbol(symbol string) error {
	symbol, err := provider.CleanSymbol(symbol)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		return ErrUnmounted
	}
	if symbol == v.symbol {
		return nil
	}
	v.symbol = symbol
	v.resetDataLocked()
	if v.mounted {
		if err := v.restartPollLocked(); err != nil {
			return err
		}
		v.loadHistoryLocked()
	}
	v.publishLocked()
	return nil
}

// SetTimeframe clears the live tail and issues exactly one historical fetch
// for the new window. Polling continues.
func (v *View) SetTimeframe(tf model.Timeframe) error {
	if !tf.Valid() {
		return fmt.Errorf("unknown timeframe %q", tf)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		return ErrUnmounted
	}
	if tf == v.timeframe {
		return nil
	}
	v.timeframe = tf
	v.buffer.Clear()
	v.historyErr = nil
	if v.mounted {
		v.loadHistoryLocked()
	}
	v.publishLocked()
	return nil
}

// SetInterval restarts polling at the new cadence.
func (v *View) SetInterval(d time.Duration) error {
	if !model.ValidInterval(d) {
		return fmt.Errorf("interval %s not allowed", d)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		return ErrUnmounted
	}
	if d == v.interval {
		return nil
	}
	v.interval = d
	if v.mounted {
		if err := v.restartPollLocked(); err != nil {
			return err
		}
	}
	v.publishLocked()
	return nil
}

// Snapshot returns the current state.
func (v *View) Snapshot() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Subscribe delivers a snapshot after every change. Slow readers miss
// updates rather than block the view. The channel is closed on Unmount or
// when cancel is called.
func (v *View) Subscribe(buffer int) (<-chan ViewState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan ViewState, buffer)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		close(ch)
		return ch, func() {}
	}
	id := v.nextSub
	v.nextSub++
	v.subs[id] = ch
	ch <- v.snapshotLocked()
	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if c, ok := v.subs[id]; ok {
			close(c)
			delete(v.subs, id)
		}
	}
}

// HistoryFetches is the number of historical fetches issued so far.
func (v *View) HistoryFetches() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetches
}

func (v *View) resetDataLocked() {
	v.buffer.Clear()
	v.lastQuote = nil
	v.pollErr = nil
	v.historyErr = nil
}

func (v *View) restartPollLocked() error {
	if v.task != nil {
		v.task.Cancel()
		v.task = nil
	}
	task, err := v.deps.Scheduler.StartTask(v.ID+":"+v.symbol, v.interval, v.tick)
	if err != nil {
		return fmt.Errorf("start polling %s: %w", v.symbol, err)
	}
	v.task = task
	return nil
}

// tick fetches one quote. Responses of a cancelled task and responses
// overtaken by a newer tick are dropped.
func (v *View) tick(ctx context.Context, _ uint64) {
	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return
	}
	symbol := v.symbol
	seq := v.quotes.Next()
	v.mu.Unlock()

	q, err := v.deps.Provider.GetQuote(ctx, symbol)

	v.mu.Lock()
	if v.unmounted || ctx.Err() != nil || symbol != v.symbol {
		v.mu.Unlock()
		return
	}
	applied := v.quotes.Apply(seq, func() {
		v.updatedAt = time.Now()
		if err != nil {
			v.pollErr = err
			return
		}
		v.pollErr = nil
		v.lastQuote = q
		v.buffer.Append(q.Point())
	})
	if applied {
		v.publishLocked()
	}
	v.mu.Unlock()

	if !applied {
		v.deps.Metrics.Stale()
		log.Debug().Str("view", v.ID).Uint64("seq", seq).Msg("stale quote response dropped")
		return
	}
	v.deps.Metrics.Tick(err == nil)
	if err != nil {
		v.deps.Metrics.ProviderError(v.deps.Provider.Name(), "quote")
		log.Warn().Err(err).Str("view", v.ID).Str("symbol", symbol).Msg("quote refresh failed")
		if rerr := v.deps.Recorder.RecordPollError(&recorder.PollError{
			ViewID: v.ID, Symbol: symbol, Provider: v.deps.Provider.Name(), Error: err.Error(), At: time.Now(),
		}); rerr != nil {
			log.Error().Err(rerr).Msg("record poll error")
		}
		return
	}
	v.deps.Metrics.Quote(q.Source, q.Simulated)
	if rerr := v.deps.Recorder.RecordQuote(q); rerr != nil {
		log.Error().Err(rerr).Msg("record quote")
	}
}

// historyBound is the outer deadline of a view's historical fetch. It leaves
// room for a provider that enforces d itself and then anchors a simulated
// series with one more call bounded by d.
func historyBound(d time.Duration) time.Duration {
	return 2*d + time.Second
}

// loadHistoryLocked issues a historical fetch for the current symbol and
// timeframe. Only the most recently issued fetch may land.
func (v *View) loadHistoryLocked() {
	seq := v.history.Next()
	symbol, tf := v.symbol, v.timeframe
	v.fetches++
	parent := v.ctx
	bound := historyBound(v.deps.HistoricalTimeout)
	go func() {
		ctx, cancel := context.WithTimeout(parent, bound)
		defer cancel()
		series, err := v.deps.Provider.GetHistorical(ctx, symbol, tf)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil &&
			!errors.Is(err, provider.ErrProviderUnavailable) {
			err = &provider.UnavailableError{
				Provider: v.deps.Provider.Name(),
				Err:      fmt.Errorf("historical fetch timed out after %s: %w", bound, err),
			}
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if v.unmounted {
			return
		}
		if !v.history.Current(seq) || !v.history.Apply(seq, nil) {
			v.deps.Metrics.Stale()
			log.Debug().Str("view", v.ID).Str("symbol", symbol).Str("timeframe", string(tf)).Msg("stale history dropped")
			return
		}
		v.updatedAt = time.Now()
		if err != nil {
			v.historyErr = err
			v.deps.Metrics.ProviderError(v.deps.Provider.Name(), "historical")
			log.Warn().Err(err).Str("view", v.ID).Str("symbol", symbol).Str("timeframe", string(tf)).Msg("history fetch failed")
		} else {
			v.historyErr = nil
			v.buffer.SetHistory(series)
		}
		v.publishLocked()
	}()
}

func (v *View) snapshotLocked() ViewState {
	st := ViewState{
		ID:        v.ID,
		Symbol:    v.symbol,
		Timeframe: v.timeframe,
		Interval:  v.interval.String(),
		Chart:     chart.Render(v.buffer, v.symbol, v.timeframe),
		Mounted:   v.mounted && !v.unmounted,
		UpdatedAt: v.updatedAt,
	}
	if v.lastQuote != nil {
		q := *v.lastQuote
		st.Quote = &q
		st.Simulated = q.Simulated
	}
	if h := v.buffer.History(); h != nil && h.Simulated {
		st.Simulated = true
	}
	switch {
	case v.pollErr != nil:
		st.Error = v.pollErr.Error()
		st.Stale = !v.buffer.Empty()
	case v.historyErr != nil:
		st.Error = v.historyErr.Error()
	}
	return st
}

func (v *View) publishLocked() {
	if len(v.subs) == 0 {
		return
	}
	st := v.snapshotLocked()
	for _, ch := range v.subs {
		select {
		case ch <- st:
		default:
		}
	}
}
