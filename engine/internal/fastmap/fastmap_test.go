package fastmap

import (
	"math/rand"
	"testing"
)

type table struct {
	name string
}

func TestMap(t *testing.T) {
	m := &Map[*table]{}

	if _, ok := m.Get(1); ok {
		t.Error("Expected miss for empty map")
	}

	t1 := &table{"one"}
	t2 := &table{"two"}
	m.Set(1, t1)
	m.Set(2, t2)

	if v, ok := m.Get(1); !ok || v != t1 {
		t.Error("Get(1) failed")
	}
	if v, ok := m.Get(2); !ok || v != t2 {
		t.Error("Get(2) failed")
	}
	if _, ok := m.Get(3); ok {
		t.Error("Get(3) should miss")
	}

	t3 := &table{"three"}
	m.Set(1, t3)
	if v, _ := m.Get(1); v != t3 {
		t.Error("Update failed")
	}

	if m.Len() != 2 {
		t.Errorf("Expected len=2, got %d", m.Len())
	}

	m.Clear()
	if m.Len() != 0 {
		t.Error("Clear failed")
	}
	if _, ok := m.Get(1); ok {
		t.Error("Get after clear should miss")
	}
}

func TestMapGrowth(t *testing.T) {
	m := &Map[int]{}

	n := 10000
	for i := 0; i < n; i++ {
		m.Set(uint32(i), i*10)
	}

	if m.Len() != n {
		t.Errorf("Expected len=%d, got %d", n, m.Len())
	}

	for i := 0; i < n; i++ {
		if v, ok := m.Get(uint32(i)); !ok || v != i*10 {
			t.Errorf("Get(%d) = %d, %v", i, v, ok)
		}
	}
}

func TestMapZeroKey(t *testing.T) {
	m := &Map[string]{}
	m.Set(0, "main")

	if v, ok := m.Get(0); !ok || v != "main" {
		t.Error("Zero key failed")
	}
	if m.Len() != 1 {
		t.Error("Len should be 1")
	}
}

func TestMapDelete(t *testing.T) {
	m := &Map[int]{}
	if m.Delete(7) {
		t.Error("Delete on empty map should report false")
	}

	rng := rand.New(rand.NewSource(1))
	want := make(map[uint32]int)
	for i := 0; i < 5000; i++ {
		k := rng.Uint32() % 2048
		switch rng.Intn(3) {
		case 0, 1:
			m.Set(k, i)
			want[k] = i
		case 2:
			_, present := want[k]
			if got := m.Delete(k); got != present {
				t.Fatalf("Delete(%d) = %v, want %v", k, got, present)
			}
			delete(want, k)
		}
	}

	if m.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", m.Len(), len(want))
	}
	for k, v := range want {
		if got, ok := m.Get(k); !ok || got != v {
			t.Fatalf("Get(%d) = %d, %v, want %d", k, got, ok, v)
		}
	}
	seen := 0
	m.ForEach(func(k uint32, v int) {
		if want[k] != v {
			t.Errorf("ForEach saw %d=%d, want %d", k, v, want[k])
		}
		seen++
	})
	if seen != len(want) {
		t.Errorf("ForEach visited %d entries, want %d", seen, len(want))
	}
}

func TestMapClone(t *testing.T) {
	m := &Map[string]{}
	m.Set(1, "a")
	c := m.Clone()
	c.Set(2, "b")
	c.Delete(1)

	if _, ok := m.Get(2); ok {
		t.Error("clone write leaked into original")
	}
	if v, ok := m.Get(1); !ok || v != "a" {
		t.Error("clone delete leaked into original")
	}
	if c.Len() != 1 {
		t.Errorf("clone Len = %d, want 1", c.Len())
	}
}

func BenchmarkMapSeqRead(b *testing.B) {
	m := &Map[int]{}
	for i := 0; i < 100000; i++ {
		m.Set(uint32(i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Get(uint32(i % 100000))
	}
}

func BenchmarkGoMapSeqRead(b *testing.B) {
	m := make(map[uint32]int)
	for i := 0; i < 100000; i++ {
		m[uint32(i)] = i
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[uint32(i%100000)]
	}
}
