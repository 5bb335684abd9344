package mel

import (
	"sync"
	"testing"
)

func TestCacheReturnsIdenticalBasis(t *testing.T) {
	cache := NewBasisCache()
	cfg := DefaultConfig()

	a, err := cache.Get(cfg)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := cache.Get(cfg)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a != b {
		t.Fatal("same configuration returned different basis instances")
	}
	if cache.Len() != 1 {
		t.Fatalf("cache holds %d bases, want 1", cache.Len())
	}
}

func TestCacheDistinguishesBasisFields(t *testing.T) {
	cache := NewBasisCache()
	cfg := DefaultConfig()

	a, err := cache.Get(cfg)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	narrow := cfg
	narrow.FMax = 7000
	b, err := cache.Get(narrow)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a == b {
		t.Fatal("different fmax returned the same basis")
	}
	if cache.Len() != 2 {
		t.Fatalf("cache holds %d bases, want 2", cache.Len())
	}
}

func TestCacheIgnoresNonBasisFields(t *testing.T) {
	cache := NewBasisCache()
	cfg := DefaultConfig()

	a, err := cache.Get(cfg)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	other := cfg
	other.HopSize = 128
	other.GriffinLimIters = 5
	other.Normalization = NormDB
	b, err := cache.Get(other)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a != b {
		t.Fatal("framing and policy fields should not affect basis identity")
	}
	if cache.Len() != 1 {
		t.Fatalf("cache holds %d bases, want 1", cache.Len())
	}
}

func TestCacheRejectsInvalidConfig(t *testing.T) {
	cache := NewBasisCache()
	cfg := DefaultConfig()
	cfg.FMax = 9000

	if _, err := cache.Get(cfg); err == nil {
		t.Fatal("expected validation error")
	}
	if cache.Len() != 0 {
		t.Fatalf("invalid config was cached, Len = %d", cache.Len())
	}
}

func TestCacheConcurrentGet(t *testing.T) {
	cache := NewBasisCache()
	base := DefaultConfig()
	narrow := base
	narrow.FMax = 7000

	var wg sync.WaitGroup
	results := make([][]*Basis, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			results[g] = make([]*Basis, 100)
			for i := 0; i < 100; i++ {
				cfg := base
				if i%2 == 1 {
					cfg = narrow
				}
				b, err := cache.Get(cfg)
				if err != nil {
					t.Errorf("Get: %v", err)
					return
				}
				results[g][i] = b
			}
		}(g)
	}
	wg.Wait()

	wide := results[0][0]
	slim := results[0][1]
	if wide == slim {
		t.Fatal("distinct keys returned the same basis")
	}
	for g := range results {
		for i, b := range results[g] {
			want := wide
			if i%2 == 1 {
				want = slim
			}
			if b != want {
				t.Fatalf("goroutine %d call %d returned an unexpected basis", g, i)
			}
		}
	}
	if cache.Len() != 2 {
		t.Fatalf("cache holds %d bases, want 2", cache.Len())
	}
}
