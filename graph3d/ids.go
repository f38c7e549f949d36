package graph3d

// IDAllocator hands out object IDs for delta computation. Vertices, edges and
// faces share one ID space, so one allocator serves all of them.
type IDAllocator interface {
	NextID() int
}

// Counter is a monotonic IDAllocator.
type Counter struct {
	next int
}

// NewCounter returns a counter whose first ID is start. Seed it from
// Graph.NextAvailableID to continue an existing graph.
func NewCounter(start int) *Counter {
	return &Counter{next: start}
}

func (c *Counter) NextID() int {
	if c.next < 1 {
		c.next = 1
	}
	id := c.next
	c.next++
	return id
}

// Peek returns the ID the next call to NextID will produce.
func (c *Counter) Peek() int {
	if c.next < 1 {
		return 1
	}
	return c.next
}
