package sparse

import "testing"

func TestSparseSetBasic(t *testing.T) {
	s := NewSparseSet(100)

	if !s.IsEmpty() {
		t.Error("new set should be empty")
	}
	if s.Contains(0) {
		t.Error("empty set should not contain 0")
	}

	s.Insert(5)
	if !s.Contains(5) {
		t.Error("set should contain 5 after insert")
	}
	s.Insert(5)
	if s.Size() != 1 {
		t.Errorf("size should be 1 after duplicate insert, got %d", s.Size())
	}

	s.Insert(10)
	s.Insert(3)
	s.Insert(7)
	if s.Size() != 4 {
		t.Errorf("size should be 4, got %d", s.Size())
	}

	s.Clear()
	if !s.IsEmpty() {
		t.Error("set should be empty after clear")
	}
	if s.Contains(5) {
		t.Error("cleared set should not contain 5")
	}
}

func TestSparseSetInsertionOrder(t *testing.T) {
	s := NewSparseSet(100)
	s.Insert(5)
	s.Insert(2)
	s.Insert(8)
	s.Insert(1)

	expected := []uint32{5, 2, 8, 1}
	values := s.Values()
	if len(values) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(values))
	}
	for i, v := range values {
		if v != expected[i] {
			t.Errorf("at index %d: expected %d, got %d", i, expected[i], v)
		}
	}
}

func TestSparseSetClearPreservesCapacity(t *testing.T) {
	s := NewSparseSet(100)
	for i := uint32(0); i < 50; i++ {
		s.Insert(i)
	}
	s.Clear()

	for i := uint32(0); i < 50; i++ {
		s.Insert(i)
	}
	if s.Size() != 50 {
		t.Errorf("size should be 50, got %d", s.Size())
	}
}

func TestSparseSetCrossValidation(t *testing.T) {
	s := NewSparseSet(100)
	s.Insert(5)
	s.Insert(10)
	s.Clear()

	if s.Contains(5) || s.Contains(10) {
		t.Error("cleared set should not contain old values")
	}

	s.Insert(3)
	if !s.Contains(3) {
		t.Error("should contain 3")
	}
	if s.Contains(5) || s.Contains(10) {
		t.Error("should not contain old values")
	}
}

func TestSparseSetContainsOutOfRange(t *testing.T) {
	s := NewSparseSet(10)
	if s.Contains(10) {
		t.Error("value at capacity bound should not be contained")
	}
	if s.Contains(1000) {
		t.Error("far out-of-range value should not be contained")
	}
}

func TestSparseSetIter(t *testing.T) {
	s := NewSparseSet(10)
	s.Insert(1)
	s.Insert(2)
	s.Insert(3)

	seen := map[uint32]bool{}
	s.Iter(func(v uint32) { seen[v] = true })
	for _, want := range []uint32{1, 2, 3} {
		if !seen[want] {
			t.Errorf("Iter missed value %d", want)
		}
	}
}
