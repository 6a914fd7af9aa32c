package tenant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/elevatecrm/realtime/internal/domain"
)

func TestFromContextAbsent(t *testing.T) {
	if id, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected no tenant, got %q", id)
	}
}

func TestNewContextRoundTrip(t *testing.T) {
	ctx := NewContext(context.Background(), "tenant-1")
	id, ok := FromContext(ctx)
	if !ok || id != "tenant-1" {
		t.Fatalf("got (%q, %v)", id, ok)
	}
}

func TestMustFromContextMissing(t *testing.T) {
	_, err := MustFromContext(context.Background())
	if !errors.Is(err, domain.ErrMissingTenant) {
		t.Fatalf("expected ErrMissingTenant, got %v", err)
	}
}

func TestEmptyTenantTreatedAsAbsent(t *testing.T) {
	ctx := NewContext(context.Background(), "")
	if _, ok := FromContext(ctx); ok {
		t.Fatal("empty tenant id should read as absent")
	}
}

// Independent goroutines each derive their own scope; one goroutine's tenant
// must never be visible to another.
func TestNoLeakAcrossGoroutines(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup
	for _, id := range []string{"t1", "t2", "t3"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := NewContext(base, id)
			got, err := MustFromContext(ctx)
			if err != nil || got != id {
				t.Errorf("goroutine %s saw (%q, %v)", id, got, err)
			}
		}()
	}
	wg.Wait()

	if _, ok := FromContext(base); ok {
		t.Fatal("base context must stay unscoped")
	}
}
