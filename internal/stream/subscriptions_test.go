package stream

import (
	"reflect"
	"testing"
)

func TestSubscriptionSet_AddFiltersDuplicates(t *testing.T) {
	s := NewSubscriptionSet()

	added := s.Add("AAPL", "MSFT", "AAPL")
	if !reflect.DeepEqual(added, []string{"AAPL", "MSFT"}) {
		t.Errorf("Add = %v, want [AAPL MSFT]", added)
	}

	added = s.Add("AAPL")
	if len(added) != 0 {
		t.Errorf("repeat Add = %v, want empty", added)
	}

	if got := s.Desired(); !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("Desired = %v, want [AAPL MSFT]", got)
	}
}

func TestSubscriptionSet_Remove(t *testing.T) {
	s := NewSubscriptionSet()
	s.Add("AAPL", "MSFT")

	removed := s.Remove("MSFT", "TSLA")
	if !reflect.DeepEqual(removed, []string{"MSFT"}) {
		t.Errorf("Remove = %v, want [MSFT]", removed)
	}
	if s.Has("MSFT") {
		t.Error("MSFT should be gone from desired set")
	}
	if !s.Has("AAPL") {
		t.Error("AAPL should remain in desired set")
	}
}

func TestSubscriptionSet_PendingCollapsesDuplicates(t *testing.T) {
	s := NewSubscriptionSet()
	s.Enqueue("AAPL")
	s.Enqueue("AAPL", "MSFT")

	s.mu.Lock()
	n := len(s.pending)
	s.mu.Unlock()
	if n != 2 {
		t.Errorf("pending size = %d, want 2", n)
	}

	s.Flush()
	s.mu.Lock()
	n = len(s.pending)
	s.mu.Unlock()
	if n != 0 {
		t.Errorf("pending size after Flush = %d, want 0", n)
	}
}

func TestSubscriptionParams(t *testing.T) {
	got := subscriptionParams([]string{"AAPL", "MSFT"})
	want := "T.AAPL,Q.AAPL,A.AAPL,T.MSFT,Q.MSFT,A.MSFT"
	if got != want {
		t.Errorf("subscriptionParams = %q, want %q", got, want)
	}
}
