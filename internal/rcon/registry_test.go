package rcon

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func testPoolConfig() PoolConfig {
	return PoolConfig{
		Password: "pw", Port: 1, WorkerCount: 1,
		GracePeriod: Disable(), AwaitShutdownPeriod: Disable(),
	}
}

func fakePool(t *testing.T, password string) *Pool {
	t.Helper()
	cfg := testPoolConfig()
	cfg.Password = password
	pool, err := NewPool(cfg)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	pool.dial = pipeDialer(echoServer("pw", 0))
	return pool
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.ListPools()) != 0 {
		t.Errorf("expected empty registry, got %d pools", len(r.ListPools()))
	}
}

func TestRegistry_RegisterPool(t *testing.T) {
	tests := []struct {
		name        string
		poolID      string
		poolName    string
		password    string
		setupFunc   func(*Registry)
		wantErr     bool
		errContains string
	}{
		{
			name:     "register new pool",
			poolID:   "server-1",
			poolName: "Survival",
			password: "pw",
			wantErr:  false,
		},
		{
			name:     "register pool with empty name",
			poolID:   "server-2",
			poolName: "",
			password: "pw",
			wantErr:  false,
		},
		{
			name:     "register duplicate pool id",
			poolID:   "duplicate-id",
			poolName: "Duplicate",
			password: "pw",
			setupFunc: func(r *Registry) {
				if _, err := r.registerPool(context.Background(), "duplicate-id", "first", fakePool(t, "pw")); err != nil {
					t.Fatalf("setup registerPool: %v", err)
				}
			},
			wantErr:     true,
			errContains: "already exists",
		},
		{
			name:     "wrong password leaves nothing registered",
			poolID:   "bad-password",
			poolName: "Bad",
			password: "wrong",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if tt.setupFunc != nil {
				tt.setupFunc(r)
			}
			defer r.ShutdownAll(context.Background())

			entry, err := r.registerPool(context.Background(), tt.poolID, tt.poolName, fakePool(t, tt.password))

			if tt.wantErr {
				if err == nil {
					t.Error("expected an error but got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %q, want containing %q", err.Error(), tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.ID != tt.poolID {
				t.Errorf("ID = %q, want %q", entry.ID, tt.poolID)
			}
			if entry.Name != tt.poolName {
				t.Errorf("Name = %q, want %q", entry.Name, tt.poolName)
			}
			if entry.Created == 0 {
				t.Error("expected Created to be set")
			}
		})
	}
}

func TestRegistry_GetPool(t *testing.T) {
	r := NewRegistry()
	if _, err := r.registerPool(context.Background(), "existing", "Test Server", fakePool(t, "pw")); err != nil {
		t.Fatalf("registerPool: %v", err)
	}
	defer r.ShutdownAll(context.Background())

	entry, err := r.GetPool("existing")
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if entry.ID != "existing" {
		t.Errorf("ID = %q, want %q", entry.ID, "existing")
	}

	if _, err := r.GetPool("missing"); err == nil {
		t.Error("expected error for missing pool id")
	}
}

func TestRegistry_ListPools(t *testing.T) {
	r := NewRegistry()
	want := []string{"p1", "p2", "p3"}
	for _, id := range want {
		if _, err := r.registerPool(context.Background(), id, "", fakePool(t, "pw")); err != nil {
			t.Fatalf("registerPool(%s): %v", id, err)
		}
	}
	defer r.ShutdownAll(context.Background())

	entries := r.ListPools()
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.ID] = true
	}
	for _, id := range want {
		if !seen[id] {
			t.Errorf("expected id %q in list", id)
		}
	}
}

func TestRegistry_RemovePool(t *testing.T) {
	r := NewRegistry()
	if _, err := r.registerPool(context.Background(), "to-remove", "", fakePool(t, "pw")); err != nil {
		t.Fatalf("registerPool: %v", err)
	}

	if err := r.RemovePool(context.Background(), "to-remove"); err != nil {
		t.Fatalf("RemovePool: %v", err)
	}
	if _, err := r.GetPool("to-remove"); err == nil {
		t.Error("expected pool to be gone after RemovePool")
	}

	if err := r.RemovePool(context.Background(), "never-existed"); err == nil {
		t.Error("expected error removing a nonexistent pool")
	}
}

func TestRegistry_ShutdownAllClearsRegistry(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := r.registerPool(context.Background(), id, "", fakePool(t, "pw")); err != nil {
			t.Fatalf("registerPool(%s): %v", id, err)
		}
	}

	r.ShutdownAll(context.Background())

	if len(r.ListPools()) != 0 {
		t.Errorf("expected registry to be empty after ShutdownAll, got %d", len(r.ListPools()))
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	done := make(chan bool)
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			poolID := fmt.Sprintf("pool-%d", id)
			if _, err := r.registerPool(context.Background(), poolID, "Test", fakePool(t, "pw")); err != nil {
				t.Errorf("failed to register pool %s: %v", poolID, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < numGoroutines; i++ {
		go func() {
			_ = r.ListPools()
			done <- true
		}()
	}
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			_, _ = r.GetPool(fmt.Sprintf("pool-%d", id))
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines*3; i++ {
		<-done
	}

	defer r.ShutdownAll(context.Background())
	if len(r.ListPools()) != numGoroutines {
		t.Errorf("expected %d pools, got %d", numGoroutines, len(r.ListPools()))
	}
}
