package ws

import "testing"

func TestRegistryAddRemoveCount(t *testing.T) {
	r := NewRegistry()
	a := &Connection{}
	b := &Connection{}

	r.Add("chat_s1", a)
	r.Add("chat_s1", b)
	if got := r.Count("chat_s1"); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}

	r.Remove("chat_s1", a)
	if got := r.Count("chat_s1"); got != 1 {
		t.Fatalf("Count after remove = %d, want 1", got)
	}
}

func TestRegistryDropsEmptyGroup(t *testing.T) {
	r := NewRegistry()
	c := &Connection{}

	r.Add("chat_s1", c)
	r.Remove("chat_s1", c)

	if got := r.Count("chat_s1"); got != 0 {
		t.Fatalf("Count = %d, want 0", got)
	}
	if _, ok := r.groups["chat_s1"]; ok {
		t.Fatal("empty group was not dropped")
	}
}

func TestRegistryRemoveUnknownConnection(t *testing.T) {
	r := NewRegistry()

	// Removing from a group that never existed must not panic.
	r.Remove("chat_missing", &Connection{})

	r.Add("chat_s1", &Connection{})
	r.Remove("chat_s1", &Connection{})
	if got := r.Count("chat_s1"); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
}

func TestRegistryBroadcastSkipsClosingConnections(t *testing.T) {
	r := NewRegistry()
	c := &Connection{}
	c.state.Store(int32(StateClosing))
	r.Add("chat_s1", c)

	// send is a no-op past Closing, so broadcasting to a closing connection
	// must not touch its nil transport.
	r.Broadcast("chat_s1", struct{}{})
}
