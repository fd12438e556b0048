package sessionsvc

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/satori/uuid"
)

type StoreConfig struct {
	// MaxSize is the maximum number of sessions kept. When this limit is reached,
	// the least recently used session is logged out and evicted. Set zero for no limit.
	MaxSize int

	// MaxIdle is how long a session may stay unused. Upon retrieval, an idle session
	// is logged out, evicted and not returned. Set zero to disable.
	MaxIdle time.Duration

	// Verifier is passed to every new session, optional.
	Verifier Verifier

	// Now defaults to time.Now.
	Now func() time.Time
}

// Store is registry of operator sessions keyed by opaque id.
type Store struct {
	maxSize  int
	maxIdle  time.Duration
	verifier Verifier
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]*list.Element
	ll    *list.List
}

type storeItem struct {
	id       string
	session  *Session
	lastUsed time.Time
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.MaxSize < 0 {
		return nil, fmt.Errorf("session store max size must not be negative")
	}

	if cfg.MaxIdle < 0 {
		return nil, fmt.Errorf("session store max idle must not be negative")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		maxSize:  cfg.MaxSize,
		maxIdle:  cfg.MaxIdle,
		verifier: cfg.Verifier,
		now:      now,
		cache:    map[string]*list.Element{},
		ll:       list.New(),
	}, nil
}

// Create registers new unauthenticated session.
func (s *Store) Create() (id string, session *Session) {
	id = uuid.NewV4().String()
	session = NewSession(s.verifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	ele := s.ll.PushFront(&storeItem{
		id:       id,
		session:  session,
		lastUsed: s.now(),
	})
	s.cache[id] = ele

	if s.maxSize != 0 && s.ll.Len() > s.maxSize {
		s.removeElement(s.ll.Back())
	}

	return
}

// Get returns the session and marks it as used.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ele, exist := s.cache[id]
	if !exist {
		return nil, false
	}

	item := ele.Value.(*storeItem)
	now := s.now()
	if s.maxIdle != 0 && item.lastUsed.Before(now.Add(-s.maxIdle)) {
		s.removeElement(ele)
		return nil, false
	}

	item.lastUsed = now
	s.ll.MoveToFront(ele)
	return item.session, true
}

// GetOrCreate returns the session with the id, or creates new one when it does not exist or expired.
func (s *Store) GetOrCreate(id string) (string, *Session, bool) {
	if id != "" {
		if session, ok := s.Get(id); ok {
			return id, session, false
		}
	}

	newID, session := s.Create()
	return newID, session, true
}

// Remove logs out and forgets the session. Unknown id is no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ele, exist := s.cache[id]; exist {
		s.removeElement(ele)
	}
}

// Len returns the current number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

// Close logs out every session.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ele := s.ll.Back(); ele != nil; ele = s.ll.Back() {
		s.removeElement(ele)
	}

	return nil
}

// removeElement must be called with mu held.
func (s *Store) removeElement(e *list.Element) {
	if e == nil {
		return
	}

	item := e.Value.(*storeItem)
	item.session.Logout()

	s.ll.Remove(e)
	delete(s.cache, item.id)
}
