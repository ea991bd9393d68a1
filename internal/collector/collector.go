package collector

import (
	"fmt"
	"sync"
)

// Policy decides what happens to an identifier already present in a collection.
type Policy string

const (
	PolicyNone   Policy = "none"   // keep duplicates
	PolicyGlobal Policy = "global" // drop identifiers already collected
)

// ParsePolicy validates a configured dedup policy. Empty means PolicyNone.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyNone:
		return PolicyNone, nil
	case PolicyGlobal:
		return PolicyGlobal, nil
	default:
		return "", fmt.Errorf("unknown dedup policy %q", s)
	}
}

// Collection is an ordered, append-only list of identifiers.
// It is safe for concurrent use.
type Collection struct {
	mu     sync.Mutex
	policy Policy
	items  []string
	seen   map[string]struct{}
}

func New(policy Policy) *Collection {
	c := &Collection{policy: policy}
	if policy == PolicyGlobal {
		c.seen = make(map[string]struct{})
	}
	return c
}

// Append adds ids in order and returns how many were actually kept.
func (c *Collection) Append(ids ...string) int {
	return len(c.Merge(ids))
}

// Merge appends ids and returns the subset that was kept, in order.
func (c *Collection) Merge(ids []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if c.seen != nil {
			if _, dup := c.seen[id]; dup {
				continue
			}
			c.seen[id] = struct{}{}
		}
		c.items = append(c.items, id)
		kept = append(kept, id)
	}
	return kept
}

// Items returns a copy of the collected identifiers.
func (c *Collection) Items() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.items...)
}

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
