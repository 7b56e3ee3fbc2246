package run

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRun_ExitCodes(t *testing.T) {
	r := New(zap.NewNop())
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"clean", nil, 0},
		{"server closed", http.ErrServerClosed, 0},
		{"failure", errors.New("bind: address in use"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.run(context.Background(), func(context.Context) error { return tt.err })
			if got != tt.want {
				t.Fatalf("exit code = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	r := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := r.run(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return errors.New("late")
	})
	if got != 0 {
		t.Fatalf("expected 0 on cancellation, got %d", got)
	}
}

func TestGraceful_UsesFreshDeadline(t *testing.T) {
	r := New(zap.NewNop())
	r.ShutdownTimeout = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var hadDeadline bool
	r.Graceful(ctx, func(c context.Context) error {
		_, hadDeadline = c.Deadline()
		return c.Err()
	})
	if !hadDeadline {
		t.Fatal("expected shutdown context with deadline")
	}
}
