package stream

import (
	"sort"
	"strings"
	"sync"
)

// SubscriptionSet tracks the desired ticker set and the pre-auth pending
// queue. The desired set is the sole source of truth for what should be on
// the wire; the pending queue only exists to batch requests made before
// authentication completes.
type SubscriptionSet struct {
	mu      sync.Mutex
	desired map[string]struct{}
	pending map[string]struct{}
}

// NewSubscriptionSet creates an empty SubscriptionSet.
func NewSubscriptionSet() *SubscriptionSet {
	return &SubscriptionSet{
		desired: make(map[string]struct{}),
		pending: make(map[string]struct{}),
	}
}

// Add inserts tickers into the desired set and returns the ones that were
// not already present. Repeat subscriptions are filtered here, before any
// frame is constructed.
func (s *SubscriptionSet) Add(tickers ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []string
	for _, t := range tickers {
		if _, ok := s.desired[t]; ok {
			continue
		}
		s.desired[t] = struct{}{}
		added = append(added, t)
	}
	return added
}

// Remove deletes tickers from the desired set (and any pending entries) and
// returns the ones that were actually present.
func (s *SubscriptionSet) Remove(tickers ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for _, t := range tickers {
		if _, ok := s.desired[t]; !ok {
			continue
		}
		delete(s.desired, t)
		delete(s.pending, t)
		removed = append(removed, t)
	}
	return removed
}

// Enqueue records tickers whose subscribe request arrived before
// authentication. Duplicates collapse.
func (s *SubscriptionSet) Enqueue(tickers ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tickers {
		s.pending[t] = struct{}{}
	}
}

// Flush drains the pending queue.
func (s *SubscriptionSet) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]struct{})
}

// Desired returns the current desired set, sorted for deterministic frames.
func (s *SubscriptionSet) Desired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.desired))
	for t := range s.desired {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Has reports whether a ticker is in the desired set.
func (s *SubscriptionSet) Has(ticker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.desired[ticker]
	return ok
}

// Len returns the desired set size.
func (s *SubscriptionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.desired)
}

// subscriptionParams builds the wire params string for a set of tickers:
// "T.AAPL,Q.AAPL,A.AAPL,T.MSFT,...". One frame covers all channel types.
func subscriptionParams(tickers []string) string {
	parts := make([]string, 0, len(tickers)*len(channelTypes))
	for _, t := range tickers {
		for _, ch := range channelTypes {
			parts = append(parts, ch+"."+t)
		}
	}
	return strings.Join(parts, ",")
}
