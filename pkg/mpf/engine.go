package mpf

import (
	"sync"
	"time"
)

// Engine is the media-engine loop: a single goroutine that is the
// sole mutator of every context's matrix and topology, applying
// batched tasks in the order they were submitted and ticking the
// factory at a fixed rate between batches.
type Engine struct {
	factory  *Factory
	tasks    chan []Task
	tick     time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	started  bool
}

// NewEngine builds an Engine driving factory's ring on tick. A tick
// of zero disables the periodic Process() sweep (useful in tests that
// want to control frame stepping manually).
func NewEngine(factory *Factory, tick time.Duration) *Engine {
	return &Engine{
		factory: factory,
		tasks:   make(chan []Task, 256),
		tick:    tick,
		stop:    make(chan struct{}),
	}
}

// Start launches the engine's goroutine. Safe to call once.
func (e *Engine) Start() {
	if e.started {
		return
	}
	e.started = true
	e.wg.Add(1)
	go e.run()
}

// Stop terminates the engine's goroutine and waits for it to exit.
func (e *Engine) Stop() {
	if !e.started {
		return
	}
	close(e.stop)
	e.wg.Wait()
}

// Send enqueues a batch for processing. Tasks within a batch are
// applied strictly in order.
func (e *Engine) Send(batch []Task) {
	if len(batch) == 0 {
		return
	}
	e.tasks <- batch
}

func (e *Engine) run() {
	defer e.wg.Done()

	var ticker *time.Ticker
	var tickC <-chan time.Time
	if e.tick > 0 {
		ticker = time.NewTicker(e.tick)
		tickC = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case <-e.stop:
			return
		case batch := <-e.tasks:
			e.applyBatch(batch)
		case <-tickC:
			e.factory.Process()
		}
	}
}

func (e *Engine) applyBatch(batch []Task) {
	for _, t := range batch {
		e.applyTask(t)
	}
}

func (e *Engine) applyTask(t Task) {
	result := TaskResult{Kind: t.Kind, Context: t.Context, Termination: t.Termination, CmdID: t.CmdID}

	switch t.Kind {
	case AddTerminationTask:
		result.Success = t.Context.AddTermination(t.Termination)
		result.Descriptor = bindDescriptor(t.Termination, t.Descriptor)
	case ModifyTerminationTask:
		result.Success = true
		result.Descriptor = bindDescriptor(t.Termination, t.Descriptor)
	case SubtractTerminationTask:
		result.Success = t.Context.SubtractTermination(t.Termination)
	case AddAssociationTask:
		t.Context.AddAssociation(t.Termination, t.Termination2)
		result.Success = true
	case RemoveAssociationTask:
		t.Context.RemoveAssociation(t.Termination, t.Termination2)
		result.Success = true
	case ResetAssociationsTask:
		t.Context.ResetAssociations()
		result.Success = true
	case ApplyTopologyTask:
		t.Context.ApplyTopology()
		result.Success = true
	case DestroyTopologyTask:
		t.Context.DestroyTopology()
		result.Success = true
	}

	if handler, ok := t.Context.Obj.(ResultHandler); ok {
		handler.HandleTaskResult(result)
	}
}

// bindDescriptor is a pass-through placeholder for a real
// termination's socket-level configure step: the RTP-termination
// factory does the actual port allocation synchronously, before the
// task is even submitted, so the Engine only echoes the descriptor
// back and updates the stream's negotiated remote codec, letting the
// caller's TaskResult carry whatever it submitted.
func bindDescriptor(t *Termination, desc *TerminationDescriptor) *TerminationDescriptor {
	if desc == nil {
		return nil
	}
	if t.Stream != nil && desc.Remote != nil {
		t.Stream.RXCodec = desc.Remote
	}
	return desc
}
