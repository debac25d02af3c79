package service

import "sync"

// sessionGate allows one question in flight per session. Repeating the same
// question joins the running one.
type sessionGate struct {
	mu    sync.Mutex
	slots map[string]*gateSlot
}

type gateSlot struct {
	query string
	refs  int
}

func newSessionGate() *sessionGate {
	return &sessionGate{slots: make(map[string]*gateSlot)}
}

func (g *sessionGate) enter(session, query string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.slots[session]
	if !ok {
		g.slots[session] = &gateSlot{query: query, refs: 1}
		return true
	}
	if slot.query != query {
		return false
	}
	slot.refs++
	return true
}

func (g *sessionGate) leave(session string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.slots[session]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs <= 0 {
		delete(g.slots, session)
	}
}
