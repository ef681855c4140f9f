package kafka

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

type idDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, struct{}]
}

func newIDDedupe(size int) *idDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, struct{}](size)
	return &idDedupe{lru: c}
}

// returns true the first time id is seen
func (d *idDedupe) firstSeen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lru.Contains(id) {
		return false
	}
	d.lru.Add(id, struct{}{})
	return true
}
