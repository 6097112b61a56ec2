package mpf

// TaskKind enumerates the media-engine's task-message variants: a
// tagged union in place of a callback vtable, matching how the
// engine's single goroutine wants to dispatch on a batch.
type TaskKind int

const (
	AddTerminationTask TaskKind = iota
	ModifyTerminationTask
	SubtractTerminationTask
	AddAssociationTask
	RemoveAssociationTask
	ResetAssociationsTask
	ApplyTopologyTask
	DestroyTopologyTask
)

func (k TaskKind) String() string {
	switch k {
	case AddTerminationTask:
		return "ADD_TERMINATION"
	case ModifyTerminationTask:
		return "MODIFY_TERMINATION"
	case SubtractTerminationTask:
		return "SUBTRACT_TERMINATION"
	case AddAssociationTask:
		return "ADD_ASSOCIATION"
	case RemoveAssociationTask:
		return "REMOVE_ASSOCIATION"
	case ResetAssociationsTask:
		return "RESET_ASSOCIATIONS"
	case ApplyTopologyTask:
		return "APPLY_TOPOLOGY"
	case DestroyTopologyTask:
		return "DESTROY_TOPOLOGY"
	default:
		return "UNKNOWN"
	}
}

// TerminationDescriptor carries the remote/local RTP media
// information an ADD_TERMINATION or MODIFY_TERMINATION task attaches
// when the termination is RTP-backed; nil for resource-engine
// terminations, which have no wire-level descriptor.
type TerminationDescriptor struct {
	Local  *CodecDescriptor
	Remote *CodecDescriptor
	Mode   StreamMode
}

// Task is one item of a batch submitted to the Engine. CmdID is
// opaque correlation data the caller chooses and gets back unchanged
// on the matching TaskResult.
type Task struct {
	Kind        TaskKind
	Context     *Context
	Termination *Termination
	Termination2 *Termination // only for *Association tasks
	Descriptor  *TerminationDescriptor
	CmdID       uint64
}

// TaskResult is the response the Engine emits once a Task has been
// applied, routed back to whatever Context.Obj identifies — the
// originating session, found via the context's own back-reference.
type TaskResult struct {
	Kind       TaskKind
	Context    *Context
	Termination *Termination
	Descriptor *TerminationDescriptor
	CmdID      uint64
	Success    bool
	Err        error
}

// ResultHandler is implemented by whatever a Context.Obj points at —
// in this repository, *server.Session — so the Engine can deliver
// TaskResult without importing the session package.
type ResultHandler interface {
	HandleTaskResult(TaskResult)
}
