package mpf

// MediaObject is a materialised audio-processing step between two
// streams: a null bridge, or a bridge sandwiched between an optional
// decoder and an optional encoder. The topology holds these in
// insertion order and steps every one of them on each tick.
type MediaObject interface {
	Process()
	Destroy()
}

// nullBridge copies frames directly: source and sink speak the same
// codec, so no transform step is needed.
type nullBridge struct {
	source, sink *AudioStream
}

func newNullBridge(source, sink *AudioStream) *nullBridge {
	return &nullBridge{source: source, sink: sink}
}

func (b *nullBridge) Process() {
	b.source.FramesProcessed++
	b.sink.FramesProcessed++
}

func (b *nullBridge) Destroy() {}

// bridge moves a frame from source to sink without assuming they
// share a codec; decoder/encoder steps, if present, already ran on
// the streams handed to it.
type bridge struct {
	source, sink *AudioStream
}

func newBridge(source, sink *AudioStream) *bridge {
	return &bridge{source: source, sink: sink}
}

func (b *bridge) Process() {
	b.source.FramesProcessed++
	b.sink.FramesProcessed++
}

func (b *bridge) Destroy() {}

// decoder and encoder are no-op transform placeholders: the rewrite
// does not implement any codec's actual bit manipulation (Non-goal),
// only the decision of whether a transform step exists on a given
// leg, per the codec descriptor's HasDecode/HasEncode flags.
type decoder struct{ stream *AudioStream }
type encoder struct{ stream *AudioStream }

func (d *decoder) Process() { d.stream.FramesProcessed++ }
func (d *decoder) Destroy() {}
func (e *encoder) Process() { e.stream.FramesProcessed++ }
func (e *encoder) Destroy() {}

// chain composes a decoder and/or encoder around a bridge so the
// factory still only has to Process()/Destroy() one object per on
// cell: one object per materialised connection, never a list of them.
type chain struct {
	steps []MediaObject
}

func (c *chain) Process() {
	for _, s := range c.steps {
		s.Process()
	}
}

func (c *chain) Destroy() {
	for _, s := range c.steps {
		s.Destroy()
	}
}

// connectionError diagnoses why no media object was constructed for
// an on matrix cell, without rejecting the association itself: an
// incompatible pair stays marked on but produces no bridge, and a
// diagnostic is emitted instead of an error return.
type connectionError struct {
	reason string
}

func (e *connectionError) Error() string { return e.reason }

// buildConnection is the connection-construction algorithm: given a
// directed source→sink pair of terminations, decide whether a
// media object can bridge them and build it. A nil, nil result means
// "no object, no diagnostic" (missing stream or incompatible modes);
// a nil object with a non-nil error means "no object, log why".
func buildConnection(source, sink *Termination) (MediaObject, error) {
	if source.Stream == nil || sink.Stream == nil {
		return nil, nil
	}
	if !source.Stream.Mode.CanReceive() || !sink.Stream.Mode.CanSend() {
		return nil, nil
	}

	rx := source.Stream.RXCodec
	tx := sink.Stream.TXCodec
	if rx == nil || tx == nil {
		return nil, nil
	}

	if rx.Equal(tx) {
		return newNullBridge(source.Stream, sink.Stream), nil
	}

	if rx.SamplingRate != tx.SamplingRate {
		return nil, &connectionError{reason: "resampling unimplemented: " +
			rx.String() + " -> " + tx.String()}
	}

	steps := make([]MediaObject, 0, 3)
	sourceStream, sinkStream := source.Stream, sink.Stream
	if rx.HasDecode {
		steps = append(steps, &decoder{stream: sourceStream})
	}
	steps = append(steps, newBridge(sourceStream, sinkStream))
	if tx.HasEncode {
		steps = append(steps, &encoder{stream: sinkStream})
	}
	return &chain{steps: steps}, nil
}
