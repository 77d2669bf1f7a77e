package sweep

import (
	"errors"
	"testing"
	"time"
)

func TestWorkerPoolRunsJobAndReportsSuccess(t *testing.T) {
	p := NewWorkerPool("test", 2)
	defer p.Shutdown()

	job := NewJob("j1", 21, func(d interface{}) (interface{}, error) {
		return d.(int) * 2, nil
	})
	if err := p.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case res := <-p.Results():
		if !res.Success || res.Data.(int) != 42 {
			t.Fatalf("unexpected result: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestWorkerPoolRecoversFromPanic(t *testing.T) {
	p := NewWorkerPool("test", 1)
	defer p.Shutdown()

	job := NewJob("panics", nil, func(interface{}) (interface{}, error) {
		panic("boom")
	})
	if err := p.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case res := <-p.Results():
		if res.Success {
			t.Fatal("expected failure result after panic")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestWorkerPoolReportsExplicitError(t *testing.T) {
	p := NewWorkerPool("test", 1)
	defer p.Shutdown()

	want := errors.New("deliberate failure")
	job := NewJob("fails", nil, func(interface{}) (interface{}, error) {
		return nil, want
	})
	p.Submit(job)

	res := <-p.Results()
	if res.Error != want {
		t.Fatalf("expected %v, got %v", want, res.Error)
	}
}

func TestWorkerPoolShutdownStopsAcceptingJobs(t *testing.T) {
	p := NewWorkerPool("test", 1)
	p.Shutdown()
	if p.IsRunning() {
		t.Fatal("expected pool to report not running after Shutdown")
	}
	err := p.Submit(NewJob("late", nil, func(interface{}) (interface{}, error) { return nil, nil }))
	if err == nil {
		t.Fatal("expected Submit to fail after Shutdown")
	}
}
