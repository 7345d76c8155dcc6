package scheduler

import (
	"sync"
	"time"
)

// Clock abstracts wall time so periodic work can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock reads the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// ManualClock only moves when Advance or Set is called.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("scheduler: non-positive ticker interval")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{clock: m, every: d, next: m.now.Add(d), ch: make(chan time.Time, 1)}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves the clock forward and fires every ticker that came due.
// Like time.Ticker, ticks are dropped when the receiver is behind.
func (m *ManualClock) Advance(d time.Duration) {
	m.Set(m.Now().Add(d))
}

// Set jumps the clock to t. Moving backwards fires nothing.
func (m *ManualClock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	tickers := append([]*manualTicker(nil), m.tickers...)
	m.mu.Unlock()

	for _, tk := range tickers {
		tk.fire(t)
	}
}

func (m *ManualClock) remove(t *manualTicker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tk := range m.tickers {
		if tk == t {
			m.tickers = append(m.tickers[:i], m.tickers[i+1:]...)
			return
		}
	}
}

type manualTicker struct {
	clock *ManualClock
	mu    sync.Mutex
	every time.Duration
	next  time.Time
	ch    chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() { t.clock.remove(t) }

func (t *manualTicker) fire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Before(t.next) {
		return
	}
	for !now.Before(t.next) {
		t.next = t.next.Add(t.every)
	}
	select {
	case t.ch <- now:
	default:
	}
}
