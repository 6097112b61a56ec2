package mpf

// Diagnostic is the callback a context uses to surface a
// buildConnection failure without aborting the rest of ApplyTopology.
// Nil is a valid Diagnostic (diagnostics dropped).
type Diagnostic func(sourceSlot, sinkSlot int, err error)

type headerItem struct {
	termination *Termination
	txCount     int
	rxCount     int
}

// Context is the per-session N×N association matrix over up to
// capacity terminations. Obj is a non-owning back-reference to
// whatever owns this context (the Session), resolved by the media
// engine when it needs to route a response back — mirroring a void
// *obj field in a C implementation of the same structure.
type Context struct {
	capacity int
	count    int
	header   []headerItem
	matrix   []bool // row-major, capacity*capacity
	objects  []MediaObject

	Obj        interface{}
	Diagnostic Diagnostic

	factory *Factory
	inRing  bool
}

// NewContext allocates a fixed-capacity context. capacity must be >=
// 1; the orchestrator's default leaves headroom for a handful of
// control resources plus their shared RTP leg.
func NewContext(factory *Factory, capacity int, obj interface{}) *Context {
	if capacity < 1 {
		capacity = 1
	}
	return &Context{
		capacity: capacity,
		header:   make([]headerItem, capacity),
		matrix:   make([]bool, capacity*capacity),
		factory:  factory,
		Obj:      obj,
	}
}

func (c *Context) Capacity() int { return c.capacity }
func (c *Context) Count() int    { return c.count }
func (c *Context) InRing() bool  { return c.inRing }

func (c *Context) cell(i, j int) int { return i*c.capacity + j }

// TxCount and RxCount expose the per-row/column counters so tests can
// verify the matrix directly rather than through its side effects.
func (c *Context) TxCount(slot int) int { return c.header[slot].txCount }
func (c *Context) RxCount(slot int) int { return c.header[slot].rxCount }

// AddTermination finds the first free row and binds t to it. Returns
// false if the context is already at capacity.
func (c *Context) AddTermination(t *Termination) bool {
	for i := 0; i < c.capacity; i++ {
		if c.header[i].termination != nil {
			continue
		}
		c.header[i] = headerItem{termination: t}
		t.bind(i)
		c.count++
		if c.count == 1 {
			c.link()
		}
		return true
	}
	return false
}

// SubtractTermination clears t's row and column, unbinds it, and
// drops the context from the factory ring if it becomes empty.
// Returns false if t is not bound to this context.
func (c *Context) SubtractTermination(t *Termination) bool {
	slot := t.Slot()
	if slot < 0 || slot >= c.capacity || c.header[slot].termination != t {
		return false
	}
	for j := 0; j < c.capacity; j++ {
		if j != slot && c.matrix[c.cell(slot, j)] {
			c.matrix[c.cell(slot, j)] = false
			c.header[slot].txCount--
			c.header[j].rxCount--
		}
	}
	for i := 0; i < c.capacity; i++ {
		if i != slot && c.matrix[c.cell(i, slot)] {
			c.matrix[c.cell(i, slot)] = false
			c.header[i].txCount--
			c.header[slot].rxCount--
		}
	}
	c.header[slot] = headerItem{}
	t.unbind()
	c.count--
	if c.count == 0 {
		c.unlink()
	}
	return true
}

// AddAssociation turns on the two directed cells between t1 and t2
// whose endpoints are mode-compatible (source receives, sink sends).
// Each direction is independent: one may be admitted while the other
// is rejected.
func (c *Context) AddAssociation(t1, t2 *Termination) {
	c.addDirected(t1, t2)
	c.addDirected(t2, t1)
}

func (c *Context) addDirected(source, sink *Termination) {
	if !source.bound() || !sink.bound() {
		return
	}
	i, j := source.Slot(), sink.Slot()
	if c.matrix[c.cell(i, j)] {
		return
	}
	if source.Stream == nil || sink.Stream == nil {
		return
	}
	if !source.Stream.Mode.CanReceive() || !sink.Stream.Mode.CanSend() {
		return
	}
	c.matrix[c.cell(i, j)] = true
	c.header[i].txCount++
	c.header[j].rxCount++
}

// RemoveAssociation turns off both directed cells between t1 and t2
// that are currently on, decrementing their counts. The symmetric
// inverse of AddAssociation.
func (c *Context) RemoveAssociation(t1, t2 *Termination) {
	c.removeDirected(t1, t2)
	c.removeDirected(t2, t1)
}

func (c *Context) removeDirected(source, sink *Termination) {
	if !source.bound() || !sink.bound() {
		return
	}
	i, j := source.Slot(), sink.Slot()
	if !c.matrix[c.cell(i, j)] {
		return
	}
	c.matrix[c.cell(i, j)] = false
	c.header[i].txCount--
	c.header[j].rxCount--
}

// ResetAssociations destroys the topology and clears every on cell in
// rows that currently carry any association.
func (c *Context) ResetAssociations() {
	c.DestroyTopology()
	for i := 0; i < c.capacity; i++ {
		if c.header[i].txCount == 0 {
			continue
		}
		for j := 0; j < c.capacity; j++ {
			if c.matrix[c.cell(i, j)] {
				c.matrix[c.cell(i, j)] = false
				c.header[i].txCount--
				c.header[j].rxCount--
			}
		}
	}
}

// ApplyTopology destroys the current topology and, for every on cell,
// constructs a directed connection via buildConnection, storing each
// non-nil result in insertion order. Returns the number of media
// objects materialised.
func (c *Context) ApplyTopology() int {
	c.DestroyTopology()
	for i := 0; i < c.capacity; i++ {
		src := c.header[i].termination
		if src == nil {
			continue
		}
		for j := 0; j < c.capacity; j++ {
			if !c.matrix[c.cell(i, j)] {
				continue
			}
			sink := c.header[j].termination
			if sink == nil {
				continue
			}
			obj, err := buildConnection(src, sink)
			if err != nil && c.Diagnostic != nil {
				c.Diagnostic(i, j, err)
			}
			if obj != nil {
				c.objects = append(c.objects, obj)
			}
		}
	}
	return len(c.objects)
}

// DestroyTopology invokes Destroy on every materialised object and
// empties the list.
func (c *Context) DestroyTopology() {
	for _, obj := range c.objects {
		obj.Destroy()
	}
	c.objects = c.objects[:0]
}

// Process steps every materialised media object once, in insertion
// order — the per-frame tick the factory drives.
func (c *Context) Process() {
	for _, obj := range c.objects {
		obj.Process()
	}
}

func (c *Context) link() {
	if c.factory != nil && !c.inRing {
		c.factory.link(c)
		c.inRing = true
	}
}

func (c *Context) unlink() {
	if c.factory != nil && c.inRing {
		c.factory.unlink(c)
		c.inRing = false
	}
}
