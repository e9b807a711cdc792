package store

import (
	"sync"

	"github.com/rs/zerolog"
)

// Listener is notified after each successful Apply with the replaced and the new
// snapshot.
type Listener func(prev, next *State)

type listener struct {
	id uint64
	fn Listener
}

// Store owns the state of one dashboard session.
type Store struct {
	// applyMu serializes Apply and listener notification.
	applyMu sync.Mutex

	mu        sync.RWMutex
	state     *State
	listeners []listener
	nextID    uint64

	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for apply tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithInitialState starts the store from st instead of an empty session.
func WithInitialState(st *State) Option {
	return func(s *Store) {
		if st != nil {
			s.state = st
		}
	}
}

// New creates a store holding an empty, unloaded session.
func New(opts ...Option) *Store {
	s := &Store{
		state:  Empty(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot. The snapshot must not be modified.
func (s *Store) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version returns the current state version.
func (s *Store) Version() uint64 {
	return s.State().Version
}

// Apply runs m on a draft of the current snapshot and installs the result. On error
// the current snapshot stays in place and is returned along with the error.
func (s *Store) Apply(m Mutation) (*State, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	prev := s.State()
	draft := *prev
	if err := m(&draft); err != nil {
		s.logger.Debug().Err(err).Uint64("version", prev.Version).Msg("mutation rejected")
		return prev, err
	}
	draft.Version = prev.Version + 1
	next := &draft

	s.mu.Lock()
	s.state = next
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	s.logger.Debug().Uint64("version", next.Version).Msg("state applied")

	for _, l := range ls {
		l.fn(prev, next)
	}
	return next, nil
}

// Subscribe registers fn for change notifications and returns a function removing it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Updater is the write capability handed to command handlers.
type Updater interface {
	Apply(m Mutation) (*State, error)
}

// Reader is the read capability handed to anything observing state.
type Reader interface {
	State() *State
}
