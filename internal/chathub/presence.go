package chathub

import "sync"

// Presence maps each user to their live connection. At most one entry exists per
// user; the most recent Connect wins. State lives only as long as the process.
type Presence struct {
	mu    sync.RWMutex
	conns map[uint]Client
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[uint]Client)}
}

// Connect stores c as userID's connection and returns the handle it replaced, if any.
func (p *Presence) Connect(userID uint, c Client) Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.conns[userID]
	p.conns[userID] = c
	return prev
}

// Disconnect removes userID's entry. Absent users are ignored.
func (p *Presence) Disconnect(userID uint) {
	p.mu.Lock()
	delete(p.conns, userID)
	p.mu.Unlock()
}

// DisconnectIf removes userID's entry only if it still points at c.
func (p *Presence) DisconnectIf(userID uint, c Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.conns[userID]; ok && cur == c {
		delete(p.conns, userID)
		return true
	}
	return false
}

func (p *Presence) Lookup(userID uint) (Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.conns[userID]
	return c, ok
}

func (p *Presence) Online(userID uint) bool {
	_, ok := p.Lookup(userID)
	return ok
}

// Snapshot returns the current connections. The slice is a copy.
func (p *Presence) Snapshot() []Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Client, 0, len(p.conns))
	for _, c := range p.conns {
		out = append(out, c)
	}
	return out
}

func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}
