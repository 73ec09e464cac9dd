// Package outbox buffers outbound writes in the local store and replays
// them to the remote collaborator once connectivity allows, guaranteeing
// at-least-once delivery across arbitrary offline periods.
package outbox

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/hartley/lx/internal/models"
	"github.com/hartley/lx/internal/store"
)

// Deliverer sends one queue item to the remote collaborator. A nil
// error means the item was acknowledged and may be removed.
type Deliverer interface {
	Deliver(item *models.QueueItem) error
}

// ConnectivitySource emits online/offline transitions from the host
// environment. Subscribe returns an unsubscribe func.
type ConnectivitySource interface {
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Observer receives the full status snapshot on every state transition.
// Observers must treat the snapshot as read-only.
type Observer func(models.SyncStatusSnapshot)

// Manager owns connectivity state and the drain lifecycle. Drains never
// overlap: a drain request while one is active returns immediately.
type Manager struct {
	store  *store.Store
	remote Deliverer

	mu          sync.Mutex
	online      bool
	lastSync    *time.Time
	pending     int
	draining    bool
	observers   map[int]Observer
	nextObsID   int
	unsubscribe func()

	drains sync.WaitGroup

	now func() time.Time
}

// New creates a manager over the given store and deliverer. The initial
// pending count is read from the store so queued items from a previous
// run are picked up.
func New(st *store.Store, remote Deliverer) *Manager {
	m := &Manager{
		store:     st,
		remote:    remote,
		observers: make(map[int]Observer),
		now:       time.Now,
	}
	if count, err := st.CountPending(); err == nil {
		m.pending = count
	} else {
		slog.Warn("outbox: initial pending count", "err", err)
	}
	return m
}

// Bind subscribes the manager to a connectivity source. An online
// transition triggers exactly one drain; an offline transition only
// flips the flag, letting in-flight deliveries finish naturally.
func (m *Manager) Bind(src ConnectivitySource) {
	m.unsubscribe = src.Subscribe(m.SetOnline)
}

// Close detaches from the connectivity source and waits for any
// in-flight drain to finish.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.drains.Wait()
}

// Status returns the current status snapshot.
func (m *Manager) Status() models.SyncStatusSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers an observer for status changes and returns an
// unsubscribe func. The current snapshot is delivered immediately.
func (m *Manager) Subscribe(obs Observer) func() {
	m.mu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = obs
	snap := m.snapshotLocked()
	m.mu.Unlock()

	obs(snap)

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// SetOnline records a connectivity transition. Becoming online triggers
// one asynchronous drain; becoming offline never cancels in-flight work.
func (m *Manager) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	snap := m.snapshotLocked()
	obs := m.observersLocked()
	m.mu.Unlock()

	notify(obs, snap)

	if online {
		m.drainAsync()
	}
}

// Enqueue persists a new queue item and, when online with no drain in
// progress, kicks off an asynchronous drain. The caller never blocks on
// delivery.
func (m *Manager) Enqueue(kind models.QueueKind, payload json.RawMessage) (*models.QueueItem, error) {
	item, err := m.store.EnqueueItem(kind, payload)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.refreshPendingLocked()
	shouldDrain := m.online && !m.draining
	snap := m.snapshotLocked()
	obs := m.observersLocked()
	m.mu.Unlock()

	notify(obs, snap)

	if shouldDrain {
		m.drainAsync()
	}
	return item, nil
}

// EnqueueValue marshals a payload variant and enqueues it.
func (m *Manager) EnqueueValue(kind models.QueueKind, payload any) (*models.QueueItem, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return m.Enqueue(kind, data)
}

// Drain performs one complete delivery pass over the pending queue, in
// enqueue order. A failing item is left in place and does not block the
// items behind it; an item is deleted only after the remote confirmed
// acceptance. If a drain is already running the call returns
// immediately without touching the queue.
func (m *Manager) Drain() {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	snap := m.snapshotLocked()
	obs := m.observersLocked()
	m.mu.Unlock()

	notify(obs, snap)

	delivered := 0
	items, err := m.store.PendingItems("")
	if err != nil {
		slog.Warn("outbox: read pending items", "err", err)
	}
	for i := range items {
		item := &items[i]
		if err := m.remote.Deliver(item); err != nil {
			// Recoverable: the item stays queued for the next drain
			slog.Debug("outbox: delivery failed", "id", item.ID, "kind", item.Kind, "err", err)
			continue
		}
		if err := m.store.DeleteItem(item.ID); err != nil {
			slog.Warn("outbox: delete delivered item", "id", item.ID, "err", err)
			continue
		}
		delivered++
	}

	m.mu.Lock()
	if delivered > 0 {
		now := m.now().UTC()
		m.lastSync = &now
	}
	m.refreshPendingLocked()
	m.draining = false
	snap = m.snapshotLocked()
	obs = m.observersLocked()
	m.mu.Unlock()

	notify(obs, snap)

	if delivered > 0 {
		slog.Debug("outbox: drain complete", "delivered", delivered, "remaining", snap.PendingCount)
	}
}

// Wait blocks until all background drains have finished. CLI commands
// call this before exiting so fire-and-forget drains are not cut short.
func (m *Manager) Wait() {
	m.drains.Wait()
}

func (m *Manager) drainAsync() {
	m.drains.Add(1)
	go func() {
		defer m.drains.Done()
		m.Drain()
	}()
}

// refreshPendingLocked recomputes pending from the store so the count
// stays authoritative after every queue mutation.
func (m *Manager) refreshPendingLocked() {
	count, err := m.store.CountPending()
	if err != nil {
		slog.Warn("outbox: recount pending", "err", err)
		return
	}
	m.pending = count
}

func (m *Manager) snapshotLocked() models.SyncStatusSnapshot {
	return models.SyncStatusSnapshot{
		Online:         m.online,
		LastSyncAt:     m.lastSync,
		PendingCount:   m.pending,
		SyncInProgress: m.draining,
	}
}

func (m *Manager) observersLocked() []Observer {
	obs := make([]Observer, 0, len(m.observers))
	for _, o := range m.observers {
		obs = append(obs, o)
	}
	return obs
}

// notify fans a snapshot out to observers outside the manager lock
func notify(obs []Observer, snap models.SyncStatusSnapshot) {
	for _, o := range obs {
		o(snap)
	}
}
