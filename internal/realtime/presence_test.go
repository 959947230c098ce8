package realtime

import (
	"testing"

	"github.com/google/uuid"
)

func TestPresenceJoinAndResolve(t *testing.T) {
	p := newPresenceRegistry()
	user := uuid.New()

	p.join(user, "conn-1")

	if conn, ok := p.resolve(user); !ok || conn != "conn-1" {
		t.Fatalf("resolve = %q, %v; want conn-1, true", conn, ok)
	}
	if got, ok := p.userFor("conn-1"); !ok || got != user {
		t.Fatalf("userFor = %v, %v; want %v, true", got, ok, user)
	}
	if !p.online(user) {
		t.Fatal("user should be online after join")
	}
}

func TestPresenceRejoinEvictsOldConnection(t *testing.T) {
	p := newPresenceRegistry()
	user := uuid.New()

	p.join(user, "conn-1")
	p.join(user, "conn-2")

	if conn, _ := p.resolve(user); conn != "conn-2" {
		t.Fatalf("resolve = %q; want conn-2", conn)
	}
	if _, ok := p.userFor("conn-1"); ok {
		t.Fatal("old connection mapping should be evicted")
	}
}

func TestPresenceJoinStealsConnection(t *testing.T) {
	p := newPresenceRegistry()
	userA := uuid.New()
	userB := uuid.New()

	p.join(userA, "conn-1")
	p.join(userB, "conn-1")

	if p.online(userA) {
		t.Fatal("userA should be offline after userB took the connection")
	}
	if got, _ := p.userFor("conn-1"); got != userB {
		t.Fatalf("userFor = %v; want %v", got, userB)
	}
}

func TestPresenceRemoveConn(t *testing.T) {
	p := newPresenceRegistry()
	user := uuid.New()
	p.join(user, "conn-1")

	got, ok := p.removeConn("conn-1")
	if !ok || got != user {
		t.Fatalf("removeConn = %v, %v; want %v, true", got, ok, user)
	}
	if p.online(user) {
		t.Fatal("user should be offline after removeConn")
	}
}

func TestPresenceRemoveConnAfterRejoinKeepsNewMapping(t *testing.T) {
	p := newPresenceRegistry()
	user := uuid.New()

	p.join(user, "conn-1")
	p.join(user, "conn-2")

	// Late disconnect of the evicted connection must not kick the user.
	if _, ok := p.removeConn("conn-1"); ok {
		t.Fatal("removeConn on an evicted connection should report no user")
	}
	if !p.online(user) {
		t.Fatal("user must stay online on the new connection")
	}
}

func TestPresenceRemoveUnknownConn(t *testing.T) {
	p := newPresenceRegistry()
	if _, ok := p.removeConn("ghost"); ok {
		t.Fatal("removing an unknown connection should report no user")
	}
}
