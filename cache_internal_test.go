package gating

import (
	"errors"
	"testing"
)

func TestCacheGetOrComputeOnce(t *testing.T) {
	c := newPreprocCache()
	key := preprocKey{comp: "spill", xform: "log", dim: 2}

	calls := 0
	produce := func() ([][]float64, error) {
		calls++
		return [][]float64{{1, 2, 3}}, nil
	}

	for i := 0; i < 3; i++ {
		data, err := c.getOrCompute("s1", key, produce)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 1 || len(data[0]) != 3 {
			t.Fatalf("wrong data shape: %v", data)
		}
	}
	if calls != 1 {
		t.Fatalf("producer ran %d times, want 1", calls)
	}

	// Same key under another sample is a separate entry.
	if _, err := c.getOrCompute("s2", key, produce); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("producer ran %d times, want 2", calls)
	}
	if c.size() != 2 {
		t.Fatalf("expected 2 samples, got %d", c.size())
	}
}

func TestCacheProducerErrorNotCached(t *testing.T) {
	c := newPreprocCache()
	key := preprocKey{xform: "log", dim: 0}
	boom := errors.New("boom")

	fail := true
	produce := func() ([][]float64, error) {
		if fail {
			return nil, boom
		}
		return [][]float64{{1}}, nil
	}

	if _, err := c.getOrCompute("s1", key, produce); !errors.Is(err, boom) {
		t.Fatalf("expected producer error, got %v", err)
	}
	if len(c.keys("s1")) != 0 {
		t.Fatalf("failed production must not be cached: %v", c.keys("s1"))
	}

	fail = false
	if _, err := c.getOrCompute("s1", key, produce); err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if len(c.keys("s1")) != 1 {
		t.Fatalf("expected 1 key after retry, got %v", c.keys("s1"))
	}
}

func TestCacheClear(t *testing.T) {
	c := newPreprocCache()
	produce := func() ([][]float64, error) { return [][]float64{{1}}, nil }

	_, _ = c.getOrCompute("s1", preprocKey{dim: 0, xform: "a"}, produce)
	_, _ = c.getOrCompute("s2", preprocKey{dim: 0, xform: "a"}, produce)

	c.clear("s1")
	if len(c.keys("s1")) != 0 || len(c.keys("s2")) != 1 {
		t.Fatalf("clear evicted the wrong sample")
	}

	c.clearAll()
	c.clearAll()
	if c.size() != 0 {
		t.Fatalf("expected empty cache, got %d samples", c.size())
	}
}

// strategyWithPreproc builds a strategy whose gates exercise compensation and
// two transforms across three channels, plus the sample it evaluates. The
// channel layout puts the gated channels at indices 2, 3 and 4.
func strategyWithPreproc(t *testing.T) (*Strategy, *mockSample, *countingMatrix, *countingTransform, *countingTransform) {
	t.Helper()

	s := New()
	spill := &countingMatrix{id: "MySpill"}
	lgcl := &countingTransform{id: "lgcl"}
	hlog := &countingTransform{id: "hlog"}
	if err := s.AddCompMatrix(spill); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTransform(lgcl); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTransform(hlog); err != nil {
		t.Fatal(err)
	}

	gateA := &thresholdGate{
		id:   "Gate_A",
		dims: []Dimension{NewDimension("FL2-A", WithCompensation("MySpill"), WithTransform("lgcl"))},
	}
	gateB := &thresholdGate{
		id:   "Gate_B",
		dims: []Dimension{NewDimension("FL3-A", WithCompensation("MySpill"), WithTransform("lgcl"))},
	}
	gateC := &thresholdGate{
		id:   "Gate_C",
		dims: []Dimension{NewDimension("FL1-A", WithCompensation("MySpill"), WithTransform("hlog"))},
	}
	// Same preprocessing triple as Gate_A; must not add keys or calls.
	gateD := &thresholdGate{
		id:   "Gate_D",
		dims: []Dimension{NewDimension("FL2-A", WithCompensation("MySpill"), WithTransform("lgcl"))},
	}
	if err := s.AddGate(gateA); err != nil {
		t.Fatal(err)
	}
	if err := s.AddGate(gateB, "Gate_A"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddGate(gateC); err != nil {
		t.Fatal(err)
	}
	if err := s.AddGate(gateD); err != nil {
		t.Fatal(err)
	}

	smp := newMockSample("sample-1",
		[]string{"Time", "FSC-A", "FL1-A", "FL2-A", "FL3-A"},
		[][]float64{
			{0, 1, 2, 3},
			{10, 11, 12, 13},
			{1, 2, 3, 4},
			{5, 6, 7, 8},
			{2, 4, 6, 8},
		})
	return s, smp, spill, lgcl, hlog
}

func TestEvaluateRetainsPreprocKeys(t *testing.T) {
	s, smp, spill, lgcl, hlog := strategyWithPreproc(t)

	if _, err := s.Evaluate(smp, CacheEvents(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[preprocKey]bool{
		{comp: "MySpill", dim: matrixDim}:        true,
		{comp: "MySpill", xform: "lgcl", dim: 3}: true,
		{comp: "MySpill", xform: "lgcl", dim: 4}: true,
		{comp: "MySpill", xform: "hlog", dim: 2}: true,
	}
	got := s.cache.keys(smp.ID())
	if len(got) != len(want) {
		t.Fatalf("expected %d cached keys, got %v", len(want), got)
	}
	for _, k := range got {
		if !want[k] {
			t.Fatalf("unexpected cached key %+v", k)
		}
	}

	// Four gates, three distinct transform triples, one matrix.
	if spill.calls != 1 {
		t.Fatalf("matrix applied %d times, want 1", spill.calls)
	}
	if lgcl.calls != 2 {
		t.Fatalf("lgcl applied %d times, want 2", lgcl.calls)
	}
	if hlog.calls != 1 {
		t.Fatalf("hlog applied %d times, want 1", hlog.calls)
	}

	// Re-evaluation with retention hits the cache throughout.
	if _, err := s.Evaluate(smp, CacheEvents(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spill.calls != 1 || lgcl.calls != 2 || hlog.calls != 1 {
		t.Fatalf("cached evaluation recomputed: matrix=%d lgcl=%d hlog=%d", spill.calls, lgcl.calls, hlog.calls)
	}
}

func TestEvaluateDefaultEvictsCache(t *testing.T) {
	s, smp, _, _, _ := strategyWithPreproc(t)

	if _, err := s.Evaluate(smp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(s.cache.keys(smp.ID())); n != 0 {
		t.Fatalf("expected no retained keys, got %d", n)
	}

	// Retained data is dropped by a later evaluation without retention.
	if _, err := s.Evaluate(smp, CacheEvents(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(s.cache.keys(smp.ID())); n == 0 {
		t.Fatal("expected retained keys")
	}
	if _, err := s.Evaluate(smp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(s.cache.keys(smp.ID())); n != 0 {
		t.Fatalf("expected eviction, got %d keys", n)
	}
}

func TestClearCacheDropsRetainedData(t *testing.T) {
	s, smp, spill, _, _ := strategyWithPreproc(t)

	if _, err := s.Evaluate(smp, CacheEvents(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.ClearCache()
	if s.cache.size() != 0 {
		t.Fatalf("expected empty cache, got %d samples", s.cache.size())
	}

	if _, err := s.Evaluate(smp, CacheEvents(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spill.calls != 2 {
		t.Fatalf("matrix applied %d times after ClearCache, want 2", spill.calls)
	}
}
