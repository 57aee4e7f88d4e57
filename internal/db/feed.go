package db

import (
	"log/slog"
	"sync"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Change describes one row written to a watched table. It is a hint to re-read, not a
// copy of the row.
type Change struct {
	Table  string `json:"table"`
	Op     Op     `json:"op"`
	ID     uint   `json:"id"`
	UserID string `json:"user_id"`
}

// Filter narrows a subscription. The zero Filter matches every row.
type Filter struct {
	UserID string
}

func (f Filter) matches(c Change) bool {
	return f.UserID == "" || f.UserID == c.UserID
}

type subscription struct {
	table  string
	filter Filter
	cb     func(Change)
}

// Feed fans row changes out to subscribers
type Feed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
	logger *slog.Logger
}

func NewFeed(logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{subs: make(map[int]subscription), logger: logger}
}

// Subscribe registers cb for changes to table that match filter. Callbacks run on the
// publishing goroutine and must not block. The returned func unsubscribes and may be called
// more than once.
func (f *Feed) Subscribe(table string, filter Filter, cb func(Change)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = subscription{table: table, filter: filter, cb: cb}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers c to every matching subscriber
func (f *Feed) Publish(c Change) {
	if f == nil {
		return
	}
	f.mu.RLock()
	var targets []func(Change)
	for _, s := range f.subs {
		if s.table == c.Table && s.filter.matches(c) {
			targets = append(targets, s.cb)
		}
	}
	f.mu.RUnlock()

	f.logger.Debug("row changed", "table", c.Table, "op", c.Op, "id", c.ID, "subscribers", len(targets))
	for _, cb := range targets {
		cb(c)
	}
}

// Subscribers counts live subscriptions
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
