package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// fakeSender collects sent payloads and can be made to fail.
type fakeSender struct {
	mu   sync.Mutex
	sent [][]byte
	fail bool
}

func (f *fakeSender) Send(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("socket closed")
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestConnectAssignsUniqueIDs(t *testing.T) {
	r := New()
	id1 := r.Connect(&fakeSender{}, "u1", "t1")
	id2 := r.Connect(&fakeSender{}, "u1", "t1")
	if id1 == id2 {
		t.Fatalf("connection ids must be unique, got %q twice", id1)
	}
	if got := r.TotalConnections(); got != 2 {
		t.Errorf("TotalConnections = %d, want 2", got)
	}
}

func TestSendToUserReachesAllConnections(t *testing.T) {
	r := New()
	a := &fakeSender{}
	b := &fakeSender{}
	c := &fakeSender{}
	r.Connect(a, "u1", "t1")
	r.Connect(b, "u1", "t1")
	r.Connect(c, "u2", "t1")

	r.SendToUser(context.Background(), "t1", "u1", map[string]string{"type": "pong"})

	if a.count() != 1 || b.count() != 1 {
		t.Errorf("u1 connections got %d and %d sends, want 1 each", a.count(), b.count())
	}
	if c.count() != 0 {
		t.Errorf("u2 must not receive u1's message, got %d", c.count())
	}
}

func TestTenantIsolation(t *testing.T) {
	r := New()
	t1 := &fakeSender{}
	t2 := &fakeSender{}
	r.Connect(t1, "u1", "tenant-1")
	r.Connect(t2, "u1", "tenant-2")

	r.SendToTenant(context.Background(), "tenant-1", map[string]string{"type": "x"}, "")

	if t1.count() != 1 {
		t.Errorf("tenant-1 connection got %d sends, want 1", t1.count())
	}
	if t2.count() != 0 {
		t.Errorf("tenant-2 connection must not see tenant-1 traffic, got %d", t2.count())
	}
}

func TestSendFailureDropsOnlyThatConnection(t *testing.T) {
	r := New()
	good := &fakeSender{}
	bad := &fakeSender{fail: true}
	r.Connect(good, "u1", "t1")
	r.Connect(bad, "u1", "t1")

	r.SendToUser(context.Background(), "t1", "u1", map[string]string{"type": "x"})

	if good.count() != 1 {
		t.Errorf("healthy sibling got %d sends, want 1", good.count())
	}
	if got := r.UserConnections("t1", "u1"); got != 1 {
		t.Errorf("UserConnections = %d, want 1 after dropping the bad socket", got)
	}
	if got := r.TotalConnections(); got != 1 {
		t.Errorf("TotalConnections = %d, want 1", got)
	}
}

func TestDisconnectPrunesEmptyContainers(t *testing.T) {
	r := New()
	id := r.Connect(&fakeSender{}, "u1", "t1")

	if got := r.TenantUserCount("t1"); got != 1 {
		t.Fatalf("TenantUserCount = %d, want 1", got)
	}

	r.Disconnect(id)

	if got := r.TenantUserCount("t1"); got != 0 {
		t.Errorf("TenantUserCount = %d, want 0", got)
	}
	if got := r.ActiveTenants(); got != 0 {
		t.Errorf("ActiveTenants = %d, want 0", got)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.tenants["t1"]; ok {
		t.Error("empty tenant container must be pruned")
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	r := New()
	id := r.Connect(&fakeSender{}, "u1", "t1")
	other := r.Connect(&fakeSender{}, "u2", "t1")

	r.Disconnect(id)
	r.Disconnect(id) // double invocation from close + error paths

	if got := r.TotalConnections(); got != 1 {
		t.Errorf("TotalConnections = %d, want 1 (no double-decrement)", got)
	}
	if got := r.UserConnections("t1", "u2"); got != 1 {
		t.Errorf("unrelated connection %s affected", other)
	}
}

func TestBroadcastExcludesTenant(t *testing.T) {
	r := New()
	a := &fakeSender{}
	b := &fakeSender{}
	r.Connect(a, "u1", "t1")
	r.Connect(b, "u2", "t2")

	r.Broadcast(context.Background(), map[string]string{"type": "maintenance"}, "t2")

	if a.count() != 1 || b.count() != 0 {
		t.Errorf("got a=%d b=%d, want a=1 b=0", a.count(), b.count())
	}
}

func TestSendToTenantExcludesUser(t *testing.T) {
	r := New()
	a := &fakeSender{}
	b := &fakeSender{}
	r.Connect(a, "u1", "t1")
	r.Connect(b, "u2", "t1")

	r.SendToTenant(context.Background(), "t1", map[string]string{"type": "x"}, "u1")

	if a.count() != 0 || b.count() != 1 {
		t.Errorf("got a=%d b=%d, want a=0 b=1", a.count(), b.count())
	}
}

func TestSnapshot(t *testing.T) {
	r := New()
	r.Connect(&fakeSender{}, "u1", "t1")
	r.Connect(&fakeSender{}, "u1", "t1")
	r.Connect(&fakeSender{}, "u2", "t1")
	r.Connect(&fakeSender{}, "u3", "t2")

	snap := r.Snapshot()
	if got := snap["t1"]; got.Users != 2 || got.TotalConnections != 3 {
		t.Errorf("t1 = %+v, want {2 3}", got)
	}
	if got := snap["t2"]; got.Users != 1 || got.TotalConnections != 1 {
		t.Errorf("t2 = %+v, want {1 1}", got)
	}
}

func TestSentPayloadIsJSON(t *testing.T) {
	r := New()
	s := &fakeSender{}
	r.Connect(s, "u1", "t1")

	r.SendToUser(context.Background(), "t1", "u1", map[string]any{"type": "pong", "n": 1})

	s.mu.Lock()
	defer s.mu.Unlock()
	var decoded map[string]any
	if err := json.Unmarshal(s.sent[0], &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded["type"] != "pong" {
		t.Errorf("payload = %v", decoded)
	}
}

func TestConcurrentConnectDisconnect(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uid := fmt.Sprintf("u%d", i%5)
			tid := fmt.Sprintf("t%d", i%3)
			id := r.Connect(&fakeSender{}, uid, tid)
			r.SendToUser(context.Background(), tid, uid, map[string]string{"type": "x"})
			r.Disconnect(id)
		}()
	}
	wg.Wait()

	if got := r.TotalConnections(); got != 0 {
		t.Errorf("TotalConnections = %d, want 0 after all disconnects", got)
	}
	if got := r.ActiveTenants(); got != 0 {
		t.Errorf("ActiveTenants = %d, want 0", got)
	}
}
