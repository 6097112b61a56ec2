package mpf

// Termination is an endpoint inside a media context: either a
// resource-engine's internal audio stream or an RTP leg. A termination
// may carry at most one AudioStream; Stream is nil for a termination
// with no media (e.g. a control-only resource channel before its
// engine side opens).
type Termination struct {
	Name   string
	Stream *AudioStream

	// slot is the row/column this termination occupies inside its
	// current context's matrix, or -1 when unbound. Only the context
	// that owns this termination ever writes slot.
	slot int
}

// NewTermination builds an unbound termination. Pass a nil stream for
// a termination that carries no audio (e.g. a not-yet-opened engine
// channel termination).
func NewTermination(name string, stream *AudioStream) *Termination {
	return &Termination{Name: name, Stream: stream, slot: -1}
}

// Slot reports the termination's current row/column in its context's
// matrix, or -1 if it is not currently bound to any context.
func (t *Termination) Slot() int { return t.slot }

func (t *Termination) bind(slot int) { t.slot = slot }
func (t *Termination) unbind()       { t.slot = -1 }
func (t *Termination) bound() bool   { return t.slot >= 0 }
