package session

import (
	"context"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// maxSessions bounds the in-memory store; the least recently used session
// is dropped beyond it.
const maxSessions = 10000

type lists struct {
	income  []string
	expense []string
}

func (l lists) get(kind core.Kind) []string {
	if kind == core.KindIncome {
		return l.income
	}
	return l.expense
}

func (l lists) with(kind core.Kind, list []string) lists {
	if kind == core.KindIncome {
		l.income = list
	} else {
		l.expense = list
	}
	return l
}

// MemoryStore keeps category lists in process memory. Sessions idle for
// longer than the TTL are forgotten.
type MemoryStore struct {
	defaults Defaults
	sessions *cache.LRUCache[lists]
}

var _ CategoryStore = (*MemoryStore)(nil)

func NewMemoryStore(defaults Defaults, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		defaults: defaults,
		sessions: cache.NewLRUCache[lists](maxSessions, ttl),
	}
}

// Cache exposes the backing cache so it can be registered for cleanup.
func (s *MemoryStore) Cache() cache.Cleaner {
	return s.sessions
}

func (s *MemoryStore) Categories(_ context.Context, sid string, kind core.Kind) ([]string, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return s.update(sid, kind, func(cur []string) ([]string, error) { return cur, nil })
}

func (s *MemoryStore) Add(_ context.Context, sid string, kind core.Kind, label string) ([]string, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	label, err := normalizeLabel(label)
	if err != nil {
		return nil, err
	}
	return s.update(sid, kind, func(cur []string) ([]string, error) {
		next := make([]string, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, label), nil
	})
}

func (s *MemoryStore) Remove(_ context.Context, sid string, kind core.Kind, index int) ([]string, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return s.update(sid, kind, func(cur []string) ([]string, error) {
		if index < 0 || index >= len(cur) {
			return nil, ErrIndexOutOfRange
		}
		next := make([]string, 0, len(cur)-1)
		next = append(next, cur[:index]...)
		return append(next, cur[index+1:]...), nil
	})
}

// update applies fn to the session's list for kind, seeding defaults first,
// and returns a copy of the result.
func (s *MemoryStore) update(sid string, kind core.Kind, fn func([]string) ([]string, error)) ([]string, error) {
	l, err := s.sessions.Update(sid, func(cur lists, ok bool) (lists, error) {
		if !ok {
			cur = lists{income: s.defaults.For(core.KindIncome), expense: s.defaults.For(core.KindExpense)}
		}
		next, err := fn(cur.get(kind))
		if err != nil {
			return cur, err
		}
		return cur.with(kind, next), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), l.get(kind)...), nil
}
