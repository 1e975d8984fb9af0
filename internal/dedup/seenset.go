package dedup

import (
	"container/list"
	"sync"
	"time"
)

// seenSet is a TTL-bound LRU of accepted keys. It keeps the in-batch
// dedup check cheap without growing unbounded on large seed lists.
type seenSet struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	ll    *list.List               // most-recent at front
	items map[string]*list.Element // key -> element
}

type seenEntry struct {
	key string
	exp time.Time
}

func newSeenSet(maxKeys int, ttl time.Duration) *seenSet {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &seenSet{
		cap:   maxKeys,
		ttl:   ttl,
		ll:    list.New(),
		items: make(map[string]*list.Element, maxKeys),
	}
}

func (s *seenSet) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		en := el.Value.(seenEntry)
		if time.Now().Before(en.exp) {
			s.ll.MoveToFront(el)
			return true
		}
		s.ll.Remove(el)
		delete(s.items, key)
	}
	return false
}

func (s *seenSet) Mark(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		en := el.Value.(seenEntry)
		en.exp = time.Now().Add(s.ttl)
		el.Value = en
		s.ll.MoveToFront(el)
		return
	}
	el := s.ll.PushFront(seenEntry{key: key, exp: time.Now().Add(s.ttl)})
	s.items[key] = el

	for s.ll.Len() > s.cap {
		tail := s.ll.Back()
		if tail == nil {
			break
		}
		old := tail.Value.(seenEntry)
		s.ll.Remove(tail)
		delete(s.items, old.key)
	}
	// drop expired entries at the tail while we hold the lock
	for {
		tail := s.ll.Back()
		if tail == nil || time.Now().Before(tail.Value.(seenEntry).exp) {
			break
		}
		s.ll.Remove(tail)
		delete(s.items, tail.Value.(seenEntry).key)
	}
}
