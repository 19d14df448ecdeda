package structuring

import (
	"strings"
	"sync"
)

// InflightLimiter caps concurrent requests per provider:model inside this process.
type InflightLimiter struct {
	max int
	mu  sync.Mutex
	sem map[string]chan struct{}
}

func NewInflightLimiter(maxInflight int) *InflightLimiter {
	if maxInflight <= 0 {
		maxInflight = 2
	}
	return &InflightLimiter{max: maxInflight, sem: map[string]chan struct{}{}}
}

// Allow reserves a slot without waiting. The release func must be called when
// ok is true.
func (l *InflightLimiter) Allow(provider, model string) (release func(), ok bool) {
	key := strings.ToLower(provider) + ":" + strings.ToLower(model)
	l.mu.Lock()
	ch, found := l.sem[key]
	if !found {
		ch = make(chan struct{}, l.max)
		l.sem[key] = ch
	}
	l.mu.Unlock()
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, true
	default:
		return func() {}, false
	}
}
