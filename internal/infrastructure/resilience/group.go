package resilience

import "sync"

// Group lazily creates one breaker per upstream name (typically a host), so
// one failing chart API never opens the circuit for the others.
type Group struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates a group whose breakers share settings
func NewGroup(settings Settings) *Group {
	return &Group{
		settings: settings,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for name, creating it on first use
func (g *Group) Get(name string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.breakers[name]
	if !ok {
		b = New(name, g.settings)
		g.breakers[name] = b
	}
	return b
}

// Do runs fn through the breaker for name
func (g *Group) Do(name string, fn func() error) error {
	return g.Get(name).Do(fn)
}

func (g *Group) each(fn func(name string, b *Breaker)) {
	g.mu.Lock()
	breakers := make(map[string]*Breaker, len(g.breakers))
	for name, b := range g.breakers {
		breakers[name] = b
	}
	g.mu.Unlock()

	for name, b := range breakers {
		fn(name, b)
	}
}

// Snapshots reports every breaker created so far
func (g *Group) Snapshots() map[string]Snapshot {
	out := make(map[string]Snapshot)
	g.each(func(name string, b *Breaker) {
		out[name] = b.Snapshot()
	})
	return out
}
