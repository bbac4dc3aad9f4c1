package future

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSubmitResult(t *testing.T) {
	f := Submit(func() (int, error) { return 42, nil })
	v, err := f.Result(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
}

func TestSubmitPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	f := Submit(func() (int, error) { return 0, wantErr })
	_, err := f.Result(context.Background())
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want %v", err, wantErr)
	}
}

func TestResultRespectsCancellation(t *testing.T) {
	block := make(chan struct{})
	f := Submit(func() (int, error) {
		<-block
		return 1, nil
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Result(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want DeadlineExceeded", err)
	}
}

func TestDoneReportsCompletion(t *testing.T) {
	start := make(chan struct{})
	f := Submit(func() (int, error) {
		<-start
		return 1, nil
	})
	if f.Done() {
		t.Error("expected Done()==false before signal")
	}
	close(start)
	_, _ = f.Result(context.Background())
	if !f.Done() {
		t.Error("expected Done()==true after Result returns")
	}
}
