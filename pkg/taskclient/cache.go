package taskclient

import (
	"sort"
	"sync"
)

// Provenance tags where a cache entry came from.
type Provenance int

const (
	// Confirmed entries hold server truth.
	Confirmed Provenance = iota
	// Pending entries hold a speculative change not yet acknowledged.
	Pending
	// PendingDelete entries are hidden from snapshots while a delete settles.
	PendingDelete
)

// entry pairs a task with its provenance. The checkpoint form also records
// absence, so a rollback can remove a speculatively created task.
type entry struct {
	task       *Task
	provenance Provenance
}

type checkpoint struct {
	id      string
	present bool
	entry   entry
}

// Cache holds the caller's known tasks keyed by id. Reads are synchronous
// and never touch the network; pending entries look exactly like confirmed
// ones in a snapshot, so consumers need no special-casing.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Prime replaces the whole cache with server truth, typically after an
// initial list call.
func (c *Cache) Prime(tasks []*Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry, len(tasks))
	for _, task := range tasks {
		c.entries[task.ID] = entry{task: task.Clone(), provenance: Confirmed}
	}
}

// Snapshot returns the current view: every entry except those marked for
// deletion, ordered by creation time. The returned tasks are clones.
func (c *Cache) Snapshot() []*Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tasks := make([]*Task, 0, len(c.entries))
	for _, e := range c.entries {
		if e.provenance == PendingDelete {
			continue
		}
		tasks = append(tasks, e.task.Clone())
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}

// Get returns a clone of the entry's task when present and not marked for
// deletion.
func (c *Cache) Get(id string) (*Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || e.provenance == PendingDelete {
		return nil, false
	}
	return e.task.Clone(), true
}

// checkpointEntry captures the exact prior state of one id, including
// absence, so restore can undo any single-entry speculation.
func (c *Cache) checkpointEntry(id string) checkpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return checkpoint{id: id}
	}
	return checkpoint{
		id:      id,
		present: true,
		entry:   entry{task: e.task.Clone(), provenance: e.provenance},
	}
}

// restore puts one id back to its checkpointed state.
func (c *Cache) restore(cp checkpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !cp.present {
		delete(c.entries, cp.id)
		return
	}
	c.entries[cp.id] = entry{task: cp.entry.task.Clone(), provenance: cp.entry.provenance}
}

// put stores a clone of task under its id with the given provenance.
func (c *Cache) put(task *Task, provenance Provenance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[task.ID] = entry{task: task.Clone(), provenance: provenance}
}

// markPendingDelete hides an entry from snapshots while its delete settles.
// Reports whether the entry existed.
func (c *Cache) markPendingDelete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return false
	}
	e.provenance = PendingDelete
	c.entries[id] = e
	return true
}

// commit replaces the speculative entry for oldID with the server's
// authoritative task. For creates the server assigns the real id, so oldID
// (the correlation token) and confirmed.ID differ.
func (c *Cache) commit(oldID string, confirmed *Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if oldID != confirmed.ID {
		delete(c.entries, oldID)
	}
	c.entries[confirmed.ID] = entry{task: confirmed.Clone(), provenance: Confirmed}
}

// remove drops an entry entirely, completing a settled delete.
func (c *Cache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}
