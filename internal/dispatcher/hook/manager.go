package hook

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
)

// Manager holds the dispatcher's hooks. Pre-dispatch hooks run from highest to
// lowest priority, post-dispatch hooks from lowest to highest. Hook names are
// unique per list; registering a name again replaces the earlier hook.
type Manager struct {
	mu   sync.RWMutex
	pre  []PreDispatchHook
	post []PostDispatchHook
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// upsert replaces the hook named like h or appends h, keeping list sorted by
// priority. desc sorts higher priorities first. Equal priorities keep
// registration order.
func upsert[H Hook](list []H, h H, desc bool) []H {
	i := slices.IndexFunc(list, func(x H) bool { return x.Name() == h.Name() })
	if i >= 0 {
		list = slices.Clone(list)
		list[i] = h
	} else {
		list = append(slices.Clone(list), h)
	}
	slices.SortStableFunc(list, func(a, b H) int {
		if desc {
			return cmp.Compare(b.Priority(), a.Priority())
		}
		return cmp.Compare(a.Priority(), b.Priority())
	})
	return list
}

// RegisterPre adds a pre-dispatch hook.
func (m *Manager) RegisterPre(h PreDispatchHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pre = upsert(m.pre, h, true)
}

// RegisterPost adds a post-dispatch hook.
func (m *Manager) RegisterPost(h PostDispatchHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.post = upsert(m.post, h, false)
}

// Register adds h to every list whose interface it implements.
func (m *Manager) Register(h Hook) {
	if pre, ok := h.(PreDispatchHook); ok {
		m.RegisterPre(pre)
	}
	if post, ok := h.(PostDispatchHook); ok {
		m.RegisterPost(post)
	}
}

// RunPreDispatch runs the pre-dispatch hooks until one rejects the command. The
// rejecting hook's name is returned with its error.
func (m *Manager) RunPreDispatch(ctx context.Context, cmd command.Command, hc *execctx.Context) (string, error) {
	m.mu.RLock()
	hooks := m.pre
	m.mu.RUnlock()

	for _, h := range hooks {
		if err := h.PreDispatch(ctx, cmd, hc); err != nil {
			return h.Name(), err
		}
	}
	return "", nil
}

// RunPostDispatch runs every post-dispatch hook with the command outcome.
func (m *Manager) RunPostDispatch(ctx context.Context, cmd command.Command, hc *execctx.Context, out Outcome) {
	m.mu.RLock()
	hooks := m.post
	m.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(ctx, cmd, hc, out)
	}
}
