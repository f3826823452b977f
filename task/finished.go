package task

// finishedCache keeps the statuses of the most recently finished tasks.
// Once full, each insertion evicts the oldest entry.
type finishedCache struct {
	ring []ID
	next int
	size int
	byID map[ID]Status
}

func newFinishedCache(capacity int) *finishedCache {
	return &finishedCache{
		ring: make([]ID, capacity),
		byID: make(map[ID]Status, capacity),
	}
}

func (c *finishedCache) add(id ID, status Status) {
	if len(c.ring) == 0 {
		return
	}
	if c.size == len(c.ring) {
		delete(c.byID, c.ring[c.next])
	} else {
		c.size++
	}
	c.ring[c.next] = id
	c.byID[id] = status
	c.next = (c.next + 1) % len(c.ring)
}

func (c *finishedCache) get(id ID) (Status, bool) {
	status, ok := c.byID[id]
	return status, ok
}
