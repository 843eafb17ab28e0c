package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err   error
	delay time.Duration
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	r := New(&mockPinger{}, &mockPinger{}, &mockEmbeddingChecker{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentDatabase, ComponentCache, ComponentEmbedding} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_DatabaseDownIsUnhealthy(t *testing.T) {
	r := New(&mockPinger{err: errors.New("conn refused")}, &mockPinger{}, &mockEmbeddingChecker{}).
		Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[ComponentDatabase])
	}
}

func TestCheck_OptionalFailuresDegrade(t *testing.T) {
	tests := map[string]*Service{
		"cache":     New(&mockPinger{}, &mockPinger{err: errors.New("NOAUTH")}, &mockEmbeddingChecker{}),
		"embedding": New(&mockPinger{}, &mockPinger{}, &mockEmbeddingChecker{err: errors.New("401")}),
	}
	for name, svc := range tests {
		t.Run(name, func(t *testing.T) {
			r := svc.Check(context.Background())
			if r.Status != Degraded {
				t.Errorf("expected %q, got %q", Degraded, r.Status)
			}
			if r.Checks[name] != CheckError {
				t.Errorf("expected %s %q, got %q", name, CheckError, r.Checks[name])
			}
		})
	}
}

func TestCheck_CacheDisabled(t *testing.T) {
	r := New(&mockPinger{}, nil, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[ComponentCache] != CheckDisabled {
		t.Errorf("expected cache %q, got %q", CheckDisabled, r.Checks[ComponentCache])
	}
	if _, ok := r.Checks[ComponentEmbedding]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
}

func TestCheck_SlowComponentTimesOut(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{delay: time.Second}, nil)
	svc.timeout = 20 * time.Millisecond

	r := svc.Check(context.Background())

	if r.Checks[ComponentCache] != CheckError || r.Status != Degraded {
		t.Errorf("expected timed-out cache to degrade, got %+v", r)
	}
}
