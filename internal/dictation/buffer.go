package dictation

import (
	"strings"
	"sync"
)

// Buffer is the text input shared by dictation and direct typing. Committed
// text is stable; the interim segment is replaced on every partial result.
type Buffer struct {
	mu        sync.Mutex
	committed string
	interim   string
}

// Text returns committed text followed by the interim segment
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return join(b.committed, b.interim)
}

// Set replaces the whole buffer, as direct typing does
func (b *Buffer) Set(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = s
	b.interim = ""
}

// SetInterim replaces the unfinished segment
func (b *Buffer) SetInterim(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interim = s
}

// Commit appends a finished segment and clears the interim one
func (b *Buffer) Commit(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = join(b.committed, s)
	b.interim = ""
}

// CommitInterim keeps whatever interim text is showing
func (b *Buffer) CommitInterim() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = join(b.committed, b.interim)
	b.interim = ""
}

// Take returns the trimmed text and empties the buffer
func (b *Buffer) Take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimSpace(join(b.committed, b.interim))
	b.committed, b.interim = "", ""
	return s
}

// join separates two segments with a single space when needed
func join(a, b string) string {
	if a == "" || b == "" {
		return a + b
	}
	if strings.HasSuffix(a, " ") || strings.HasPrefix(b, " ") {
		return a + b
	}
	return a + " " + b
}
