// internal/layout/cache.go
package layout

// boundedCache is a small per-node LRU. Entries are kept most recent first; the
// capacity is a handful of slots so linear scans beat any map.
type boundedCache[K comparable, V any] struct {
	capacity int
	keys     []K
	values   []V
}

func newBoundedCache[K comparable, V any](capacity int) *boundedCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &boundedCache[K, V]{capacity: capacity}
}

func (c *boundedCache[K, V]) get(key K) (V, bool) {
	for i, k := range c.keys {
		if k == key {
			c.promote(i)
			return c.values[0], true
		}
	}
	var zero V
	return zero, false
}

func (c *boundedCache[K, V]) put(key K, value V) {
	for i, k := range c.keys {
		if k == key {
			c.values[i] = value
			c.promote(i)
			return
		}
	}
	if len(c.keys) < c.capacity {
		var zk K
		var zv V
		c.keys = append(c.keys, zk)
		c.values = append(c.values, zv)
	}
	copy(c.keys[1:], c.keys[:len(c.keys)-1])
	copy(c.values[1:], c.values[:len(c.values)-1])
	c.keys[0] = key
	c.values[0] = value
}

func (c *boundedCache[K, V]) promote(i int) {
	if i == 0 {
		return
	}
	k, v := c.keys[i], c.values[i]
	copy(c.keys[1:i+1], c.keys[:i])
	copy(c.values[1:i+1], c.values[:i])
	c.keys[0], c.values[0] = k, v
}

func (c *boundedCache[K, V]) len() int { return len(c.keys) }

func (c *boundedCache[K, V]) clear() {
	clear(c.keys)
	clear(c.values)
	c.keys = c.keys[:0]
	c.values = c.values[:0]
}
