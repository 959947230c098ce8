package realtime

import "github.com/google/uuid"

// presenceRegistry maps a user to the single connection currently
// representing them, plus the reverse index needed on disconnect (the
// transport only tells us which connection died).
//
// Only the hub loop touches it, so no lock.
type presenceRegistry struct {
	byUser map[uuid.UUID]string
	byConn map[string]uuid.UUID
}

func newPresenceRegistry() *presenceRegistry {
	return &presenceRegistry{
		byUser: make(map[uuid.UUID]string),
		byConn: make(map[string]uuid.UUID),
	}
}

// join registers userID on connID. A second join for the same user evicts the
// previous mapping rather than merging with it.
func (p *presenceRegistry) join(userID uuid.UUID, connID string) {
	if old, ok := p.byUser[userID]; ok {
		delete(p.byConn, old)
	}
	if old, ok := p.byConn[connID]; ok {
		delete(p.byUser, old)
	}
	p.byUser[userID] = connID
	p.byConn[connID] = userID
}

func (p *presenceRegistry) resolve(userID uuid.UUID) (string, bool) {
	connID, ok := p.byUser[userID]
	return connID, ok
}

func (p *presenceRegistry) userFor(connID string) (uuid.UUID, bool) {
	userID, ok := p.byConn[connID]
	return userID, ok
}

// removeConn drops the mapping for a dead connection and reports which user
// it belonged to, if any.
func (p *presenceRegistry) removeConn(connID string) (uuid.UUID, bool) {
	userID, ok := p.byConn[connID]
	if !ok {
		return uuid.Nil, false
	}
	delete(p.byConn, connID)
	// Only clear the forward mapping if it still points at this connection;
	// a rejoin may already have overwritten it.
	if cur, ok := p.byUser[userID]; ok && cur == connID {
		delete(p.byUser, userID)
	}
	return userID, true
}

func (p *presenceRegistry) online(userID uuid.UUID) bool {
	_, ok := p.byUser[userID]
	return ok
}
