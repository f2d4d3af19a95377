package pipeline

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPoolExecutesJobs(t *testing.T) {
	pool := newWorkerPool(2)
	defer pool.Close()

	var counter int32
	handles := make([]*jobHandle, 0, 8)
	for i := 0; i < 8; i++ {
		handles = append(handles, pool.Submit(func() runResult {
			atomic.AddInt32(&counter, 1)
			return runResult{executed: 1}
		}))
	}
	total := 0
	for _, handle := range handles {
		total += handle.Wait().executed
	}
	if total != 8 || atomic.LoadInt32(&counter) != 8 {
		t.Fatalf("expected 8 executions, got total=%d counter=%d", total, counter)
	}
}

func TestWorkerPoolNilRunsInline(t *testing.T) {
	var pool *workerPool
	ran := false
	res := pool.Submit(func() runResult {
		ran = true
		return runResult{executed: 1}
	}).Wait()
	if !ran || res.executed != 1 {
		t.Fatalf("nil pool should run inline")
	}
}

func TestWorkerPoolClosedRejects(t *testing.T) {
	pool := newWorkerPool(1)
	pool.Close()
	res := pool.Submit(func() runResult { return runResult{executed: 1} }).Wait()
	if res.err == nil {
		t.Fatalf("expected closed pool error")
	}
}
