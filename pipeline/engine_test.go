package pipeline_test

import (
	"sync"
	"testing"

	"github.com/embergine/embergine"
	"github.com/embergine/embergine/pipeline"
)

type executionLog struct {
	mu    sync.Mutex
	order []string
}

func (l *executionLog) record(name string) {
	l.mu.Lock()
	l.order = append(l.order, name)
	l.mu.Unlock()
}

func (l *executionLog) names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func logging(log *executionLog, name string) pipeline.System {
	return func(*embergine.Universe) { log.record(name) }
}

func TestSequenceEngineFlattens(t *testing.T) {
	log := &executionLog{}
	builder := pipeline.NewParallelBuilder(4)
	for _, name := range []string{"a", "b", "c"} {
		if err := builder.AddSystem(name, logging(log, name), embergine.AccessOf()); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	engine := pipeline.Build(builder, pipeline.NewSequenceEngine())
	stats := engine.Run(embergine.NewUniverse(nil))
	if stats.SystemsExecuted != 3 {
		t.Fatalf("expected 3 systems, got %d", stats.SystemsExecuted)
	}
	got := log.names()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestDefaultEngineSerial(t *testing.T) {
	log := &executionLog{}
	builder := pipeline.NewLinearBuilder()
	if err := builder.AddSystemOnLayer("first", logging(log, "first"), embergine.AccessOf(), nil, pipeline.LayerPre, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := builder.AddSystem("second", logging(log, "second"), embergine.AccessOf()); err != nil {
		t.Fatalf("add: %v", err)
	}

	engine := pipeline.Build(builder, pipeline.NewDefaultEngine())
	stats := engine.Run(embergine.NewUniverse(nil))
	if stats.SystemsExecuted != 2 {
		t.Fatalf("expected 2 systems, got %d", stats.SystemsExecuted)
	}
	got := log.names()
	if got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestDefaultEngineParallelGroups(t *testing.T) {
	u := embergine.NewUniverse(nil)
	embergine.InsertResource(u, resA{})
	embergine.InsertResource(u, resB{})

	builder := pipeline.NewParallelBuilder(4)
	addWriter := func(name string, req embergine.AccessRequest, bump func(*embergine.Universe)) {
		t.Helper()
		if err := builder.AddSystem(name, bump, embergine.AccessOf(req)); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	// Disjoint writers land in one parallel group; the combined writer runs
	// in the following group and sees both increments.
	addWriter("bumpA", embergine.Write[resA](), func(u *embergine.Universe) {
		res := embergine.ExpectResourceMut[resA](u)
		res.Get().V++
		res.Release()
	})
	addWriter("bumpB", embergine.Write[resB](), func(u *embergine.Universe) {
		res := embergine.ExpectResourceMut[resB](u)
		res.Get().V++
		res.Release()
	})
	sum := 0
	if err := builder.AddSystem("sum", func(u *embergine.Universe) {
		a := embergine.ExpectResource[resA](u)
		b := embergine.ExpectResource[resB](u)
		sum = a.Get().V + b.Get().V
		b.Release()
		a.Release()
	}, embergine.AccessOf(embergine.Write[resA](), embergine.Write[resB]())); err != nil {
		t.Fatalf("add sum: %v", err)
	}

	engine := pipeline.NewParallelDefaultEngine(2)
	defer engine.Close()
	pipeline.Build(builder, engine)

	stats := engine.Run(u)
	if stats.SystemsExecuted != 3 {
		t.Fatalf("expected 3 systems, got %d", stats.SystemsExecuted)
	}
	if sum != 2 {
		t.Fatalf("parallel group must complete before the next: sum=%d", sum)
	}
}

func TestDefaultEngineSingleThreadPinned(t *testing.T) {
	log := &executionLog{}
	builder := pipeline.NewParallelBuilder(4)
	if err := builder.AddSystem("worker", logging(log, "worker"), embergine.AccessOf()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := builder.AddSystemOnSingleThread("pinned", logging(log, "pinned"), embergine.AccessOf()); err != nil {
		t.Fatalf("add: %v", err)
	}

	engine := pipeline.NewParallelDefaultEngine(2)
	defer engine.Close()
	pipeline.Build(builder, engine)

	stats := engine.Run(embergine.NewUniverse(nil))
	if stats.SystemsExecuted != 2 {
		t.Fatalf("expected both systems to run, got %d", stats.SystemsExecuted)
	}
	got := log.names()
	if len(got) != 2 {
		t.Fatalf("unexpected log: %v", got)
	}
}
