package audio

import "sync"

// Buffer collects the chunks of one recording session in arrival order.
// Appends after Seal are dropped, so the sealed contents never change while
// a reader holds them.
type Buffer struct {
	mu     sync.Mutex
	chunks [][]float32
	n      int
	sealed bool
}

// Reset empties the buffer and reopens it for appends.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.chunks = nil
	b.n = 0
	b.sealed = false
	b.mu.Unlock()
}

// Append stores a copy of chunk. It reports false if the buffer is sealed.
func (b *Buffer) Append(chunk []float32) bool {
	c := make([]float32, len(chunk))
	copy(c, chunk)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return false
	}
	b.chunks = append(b.chunks, c)
	b.n += len(c)
	return true
}

// Seal closes the buffer and returns the concatenated samples. The returned
// slice is owned by the caller.
func (b *Buffer) Seal() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
	out := make([]float32, 0, b.n)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	b.chunks = nil
	return out
}
