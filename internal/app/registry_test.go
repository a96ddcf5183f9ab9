package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type recordingConn struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (c *recordingConn) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("peer gone")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *recordingConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Type
	}
	return out
}

func TestRegistryRouteAndBroadcast(t *testing.T) {
	reg := NewConnectionRegistry(zerolog.Nop())

	host := &recordingConn{}
	p1 := &recordingConn{}
	p2 := &recordingConn{}
	reg.Register(HostIdentity("1234"), host)
	reg.Register(PlayerIdentity("1234", "a"), p1)
	reg.Register(PlayerIdentity("1234", "b"), p2)

	reg.RouteTo(PlayerIdentity("1234", "a"), Event{Type: "answerResult"})
	if got := p1.types(); len(got) != 1 || got[0] != "answerResult" {
		t.Fatalf("expected answerResult for p1, got %v", got)
	}
	if len(p2.types()) != 0 || len(host.types()) != 0 {
		t.Fatalf("routed event leaked to other connections")
	}

	reg.Broadcast("1234", Event{Type: "questionStart"})
	for _, c := range []*recordingConn{host, p1, p2} {
		got := c.types()
		if got[len(got)-1] != "questionStart" {
			t.Fatalf("broadcast missed a connection: %v", got)
		}
	}
}

func TestRegistryUnregisterKeepsOthers(t *testing.T) {
	reg := NewConnectionRegistry(zerolog.Nop())

	host := &recordingConn{}
	p1 := &recordingConn{}
	reg.Register(HostIdentity("1234"), host)
	reg.Register(PlayerIdentity("1234", "a"), p1)

	reg.Unregister(PlayerIdentity("1234", "a"))
	if reg.Connected("1234") != 1 {
		t.Fatalf("expected 1 connection after unregister, got %d", reg.Connected("1234"))
	}

	reg.Broadcast("1234", Event{Type: "questionEnd"})
	if len(p1.types()) != 0 {
		t.Fatalf("unregistered connection still received events")
	}
	if got := host.types(); len(got) != 1 {
		t.Fatalf("host should still receive broadcasts, got %v", got)
	}
}

func TestRegistryReconnectReplacesConn(t *testing.T) {
	reg := NewConnectionRegistry(zerolog.Nop())

	old := &recordingConn{}
	reg.Register(PlayerIdentity("1234", "a"), old)
	fresh := &recordingConn{}
	reg.Register(PlayerIdentity("1234", "a"), fresh)

	reg.RouteTo(PlayerIdentity("1234", "a"), Event{Type: "answerResult"})
	if len(old.types()) != 0 {
		t.Fatalf("stale connection received event after reconnect")
	}
	if len(fresh.types()) != 1 {
		t.Fatalf("fresh connection missed event")
	}
}

func TestRegistryDeliveryFailureDoesNotPanic(t *testing.T) {
	reg := NewConnectionRegistry(zerolog.Nop())
	reg.Register(HostIdentity("1234"), &recordingConn{fail: true})

	// Both paths log and move on.
	reg.RouteTo(HostIdentity("1234"), Event{Type: "playerAnswered"})
	reg.Broadcast("1234", Event{Type: "questionStart"})
	reg.RouteTo(HostIdentity("9999"), Event{Type: "playerAnswered"})
}
