package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_ProcessesAllTasks(t *testing.T) {
	var sum atomic.Int64
	pool := NewWorkerPool(context.Background(), 4, func(n int) {
		sum.Add(int64(n))
	})
	pool.Start()
	for i := 1; i <= 100; i++ {
		pool.Submit(i)
	}
	pool.Stop()

	if got := sum.Load(); got != 5050 {
		t.Errorf("sum = %d, want 5050", got)
	}
}

func TestNewWorkerPool_ClampsWorkers(t *testing.T) {
	tests := []struct {
		in   int
		want func(int) bool
	}{
		{0, func(n int) bool { return n >= 1 }},
		{-3, func(n int) bool { return n >= 1 }},
		{1000, func(n int) bool { return n == MaxWorkers }},
		{3, func(n int) bool { return n == 3 }},
	}
	for _, tt := range tests {
		p := NewWorkerPool(context.Background(), tt.in, func(int) {})
		if !tt.want(p.Workers()) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d", tt.in, p.Workers())
		}
	}
}

func TestForEach_VisitsEveryIndex(t *testing.T) {
	items := make([]string, 50)
	seen := make([]atomic.Bool, len(items))

	err := ForEach(context.Background(), 8, items, func(_ context.Context, i int, _ string) error {
		seen[i].Store(true)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach() error = %v", err)
	}
	for i := range seen {
		if !seen[i].Load() {
			t.Errorf("index %d not visited", i)
		}
	}
}

func TestForEach_ReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	items := make([]int, 200)

	var calls atomic.Int64
	err := ForEach(context.Background(), 2, items, func(_ context.Context, i int, _ int) error {
		calls.Add(1)
		if i == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ForEach() error = %v, want boom", err)
	}
	if calls.Load() == int64(len(items)) {
		t.Log("all items ran before cancellation was observed")
	}
}

func TestForEach_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ForEach(ctx, 2, []int{1, 2, 3}, func(context.Context, int, int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ForEach() error = %v, want context.Canceled", err)
	}
}
