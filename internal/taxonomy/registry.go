package taxonomy

import "sync"

// Registry holds the active resume and job taxonomies and lets them be
// replaced while analyses are running.
type Registry struct {
	mu     sync.RWMutex
	resume *Taxonomy
	job    *Taxonomy
}

// NewRegistry creates a registry. Nil arguments fall back to the built-in tables.
func NewRegistry(resume, job *Taxonomy) *Registry {
	r := &Registry{}
	r.Set(resume, job)
	return r
}

// Set replaces both taxonomies. A nil argument restores the built-in table for that side.
func (r *Registry) Set(resume, job *Taxonomy) {
	if resume == nil {
		resume = Resume()
	}
	if job == nil {
		job = Job()
	}

	r.mu.Lock()
	r.resume = resume
	r.job = job
	r.mu.Unlock()
}

// Resume returns the active resume taxonomy.
func (r *Registry) Resume() *Taxonomy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resume
}

// Job returns the active job taxonomy.
func (r *Registry) Job() *Taxonomy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.job
}

// Snapshot returns both taxonomies read under a single lock.
func (r *Registry) Snapshot() (resume, job *Taxonomy) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resume, r.job
}
