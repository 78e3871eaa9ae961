package crawler

// urlState is the lifecycle of a URL identity within one run.
// States only move forward: unseen -> pending -> visited.
type urlState uint8

const (
	stateUnseen urlState = iota
	statePending
	stateVisited
)

// Frontier holds the URLs waiting to be fetched and the identity state
// of every URL seen in the run.
//
// A Frontier is not safe for concurrent use. It is owned by the goroutine
// running the crawl.
type Frontier struct {
	pending []string
	states  map[string]urlState
	visited int
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		pending: make([]string, 0),
		states:  make(map[string]urlState),
	}
}

// Enqueue appends rawURL unless its identity is already pending or visited.
// It reports whether the URL was added.
func (f *Frontier) Enqueue(rawURL string) bool {
	id := Normalize(rawURL)
	if f.states[id] != stateUnseen {
		return false
	}
	f.states[id] = statePending
	f.pending = append(f.pending, rawURL)
	return true
}

// DequeueBatch removes and returns up to n URLs from the front, in order.
// It returns nil when nothing is pending. n below 1 is treated as 1.
// Dequeued URLs stay pending until MarkVisited.
func (f *Frontier) DequeueBatch(n int) []string {
	if len(f.pending) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > len(f.pending) {
		n = len(f.pending)
	}

	batch := make([]string, n)
	copy(batch, f.pending[:n])

	rest := make([]string, len(f.pending)-n)
	copy(rest, f.pending[n:])
	f.pending = rest

	return batch
}

// MarkVisited moves the identity of rawURL to visited.
func (f *Frontier) MarkVisited(rawURL string) {
	id := Normalize(rawURL)
	if f.states[id] == stateVisited {
		return
	}
	f.states[id] = stateVisited
	f.visited++
}

// IsVisited reports whether the identity of rawURL has been visited.
func (f *Frontier) IsVisited(rawURL string) bool {
	return f.states[Normalize(rawURL)] == stateVisited
}

// Len returns the number of URLs waiting to be dequeued.
func (f *Frontier) Len() int {
	return len(f.pending)
}

// VisitedCount returns the number of visited identities.
func (f *Frontier) VisitedCount() int {
	return f.visited
}
