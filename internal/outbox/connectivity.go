package outbox

import (
	"sync"
	"time"
)

// PollingSource is a ConnectivitySource that derives online state from
// a reachability probe (typically the remote health check) at a fixed
// interval. The probe loop starts with the first subscriber and stops
// on Close.
type PollingSource struct {
	Probe    func() bool
	Interval time.Duration

	mu      sync.Mutex
	subs    map[int]func(bool)
	nextID  int
	online  bool
	primed  bool
	started bool
	stop    chan struct{}
}

// NewPollingSource creates a polling connectivity source.
func NewPollingSource(probe func() bool, interval time.Duration) *PollingSource {
	return &PollingSource{
		Probe:    probe,
		Interval: interval,
		subs:     make(map[int]func(bool)),
		stop:     make(chan struct{}),
	}
}

// Subscribe registers a transition callback and returns an unsubscribe
// func. The first subscriber starts the probe loop; the current state,
// once known, is replayed to late subscribers.
func (p *PollingSource) Subscribe(fn func(online bool)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	replay := p.primed
	online := p.online
	if !p.started {
		p.started = true
		go p.loop()
	}
	p.mu.Unlock()

	if replay {
		fn(online)
	}

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Close stops the probe loop.
func (p *PollingSource) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		close(p.stop)
		p.started = false
	}
}

func (p *PollingSource) loop() {
	p.emit(p.Probe())

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.emit(p.Probe())
		}
	}
}

// emit records the probed state and fans out only on transitions.
func (p *PollingSource) emit(online bool) {
	p.mu.Lock()
	changed := !p.primed || p.online != online
	p.primed = true
	p.online = online
	var subs []func(bool)
	if changed {
		subs = make([]func(bool), 0, len(p.subs))
		for _, fn := range p.subs {
			subs = append(subs, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}
