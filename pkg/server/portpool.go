package server

import (
	"fmt"
	"sync"
)

// PortRange is the inclusive [Min, Max] UDP port range a PortPool
// draws from.
type PortRange struct {
	Min, Max int
}

// PortPool allocates UDP ports one at a time by round-robin scan with
// wraparound, failing once the scan has made a full circle without
// finding a free port.
type PortPool struct {
	mu       sync.Mutex
	rng      PortRange
	used     map[int]bool
	nextPort int
}

func NewPortPool(rng PortRange) (*PortPool, error) {
	if rng.Min <= 0 || rng.Max < rng.Min {
		return nil, fmt.Errorf("server: invalid port range [%d,%d]", rng.Min, rng.Max)
	}
	return &PortPool{rng: rng, used: make(map[int]bool), nextPort: rng.Min}, nil
}

// Allocate returns the next free port using a round-robin scan,
// wrapping from Max back to Min, and failing once the scan has made a
// full circle without finding a free port.
func (p *PortPool) Allocate() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	startPort := p.nextPort
	for {
		candidate := p.nextPort
		p.nextPort++
		if p.nextPort > p.rng.Max {
			p.nextPort = p.rng.Min
		}
		if !p.used[candidate] {
			p.used[candidate] = true
			return candidate, nil
		}
		if p.nextPort == startPort {
			return 0, fmt.Errorf("server: port pool [%d,%d] exhausted", p.rng.Min, p.rng.Max)
		}
	}
}

// Release returns port to the pool.
func (p *PortPool) Release(port int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.used, port)
}

func (p *PortPool) UsedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.used)
}
