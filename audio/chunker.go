package audio

// chunker regroups arbitrarily sized sample runs into fixed-size chunks.
// Not safe for concurrent use; each backend feeds it from a single callback
// goroutine.
type chunker struct {
	size int
	buf  []float32
}

func newChunker(size int) *chunker {
	return &chunker{size: size, buf: make([]float32, 0, size)}
}

func (c *chunker) write(samples []float32, emit DataCallback) {
	for len(samples) > 0 {
		n := min(c.size-len(c.buf), len(samples))
		c.buf = append(c.buf, samples[:n]...)
		samples = samples[n:]
		if len(c.buf) == c.size {
			if emit != nil {
				emit(c.buf)
			}
			c.buf = c.buf[:0]
		}
	}
}

// reset drops any partial chunk left from a previous stream.
func (c *chunker) reset() { c.buf = c.buf[:0] }
