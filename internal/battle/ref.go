package battle

// registry is the handler-owned id → battalion table that weak references
// resolve through. Ids are never reused, so a stale Ref cannot alias a newer
// battalion.
type registry struct {
	live map[int]*Battalion
	used map[int]bool
}

func newRegistry() *registry {
	return &registry{live: make(map[int]*Battalion), used: make(map[int]bool)}
}

func (r *registry) add(b *Battalion) {
	r.live[b.id] = b
	r.used[b.id] = true
}

func (r *registry) remove(id int) { delete(r.live, id) }

func (r *registry) ref(b *Battalion) Ref { return Ref{id: b.id, reg: r} }

// Ref is a non-owning handle to a battalion. The zero Ref refers to nothing.
type Ref struct {
	id  int
	reg *registry
}

// Get resolves the handle. It fails once the battalion has been removed from
// its handler or has no troops left.
func (r Ref) Get() (*Battalion, bool) {
	if r.reg == nil {
		return nil, false
	}
	b, ok := r.reg.live[r.id]
	if !ok || b.TroopCount() == 0 {
		return nil, false
	}
	return b, true
}

// ID returns the referenced battalion id, 0 for the zero Ref.
func (r Ref) ID() int { return r.id }

// IsZero reports whether the handle was never set.
func (r Ref) IsZero() bool { return r.reg == nil }
