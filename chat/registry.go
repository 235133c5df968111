package chat

import "sync"

// Registry holds the live controller per chat owner so cancel requests
// can reach an in-flight send. Owners are "u:<userID>" for signed-in
// users and "g:<guestID>" for guests.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// Obtain returns the owner's controller, building one on first use.
func (r *Registry) Obtain(key string, build func() *Controller) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[key]; ok {
		return c
	}
	c := build()
	r.controllers[key] = c
	return c
}

func (r *Registry) Lookup(key string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controllers[key]
}

func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.controllers, key)
}
