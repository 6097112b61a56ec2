package mrcp

import "github.com/pgaval/mrcp-server/pkg/mpf"

// ChannelCallback is how the connection agent reports completion back
// to whatever owns the channel — in this repository, the session
// orchestrator.
type ChannelCallback interface {
	OnChannelModify(ch *MRCPChannel, answer *ControlMediaDescriptor, status SessionStatus)
	OnChannelRemove(ch *MRCPChannel, status SessionStatus)
}

// ConnectionAgent is the external collaborator a profile binds its
// signalling leg operations against. Add/Modify/Remove return
// synchronously whether the operation was accepted for asynchronous
// processing; acceptance means callback will eventually be invoked
// exactly once. Send delivers a control response/event over the v2
// control channel itself; it is synchronous and carries no separate
// completion callback, since it does not fan out a new sub-request.
type ConnectionAgent interface {
	Add(ch *MRCPChannel, desc *ControlMediaDescriptor, callback ChannelCallback) bool
	Modify(ch *MRCPChannel, desc *ControlMediaDescriptor, callback ChannelCallback) bool
	Remove(ch *MRCPChannel, callback ChannelCallback) bool
	Send(ch *MRCPChannel, msg *Message) bool
}

// ControlChannel is the per-resource signalling leg. It is a thin
// wrapper that remembers which agent and channel it belongs to so
// callers don't have to pass them on every call.
type ControlChannel struct {
	agent   ConnectionAgent
	channel *MRCPChannel
}

func newControlChannel(agent ConnectionAgent, channel *MRCPChannel) *ControlChannel {
	return &ControlChannel{agent: agent, channel: channel}
}

func (c *ControlChannel) Add(desc *ControlMediaDescriptor, callback ChannelCallback) bool {
	return c.agent.Add(c.channel, desc, callback)
}

func (c *ControlChannel) Modify(desc *ControlMediaDescriptor, callback ChannelCallback) bool {
	return c.agent.Modify(c.channel, desc, callback)
}

func (c *ControlChannel) Remove(callback ChannelCallback) bool {
	return c.agent.Remove(c.channel, callback)
}

// Send delivers msg over this channel's v2 control leg, reporting
// whether the agent accepted it.
func (c *ControlChannel) Send(msg *Message) bool {
	return c.agent.Send(c.channel, msg)
}

// EngineChannelCallback is how a resource engine reports channel-open
// and channel-close completion.
type EngineChannelCallback interface {
	OnEngineChannelOpen(ch *EngineChannel, success bool)
	OnEngineChannelClose(ch *EngineChannel)
}

// ResourceEngine is the external collaborator a channel binds to: a
// named resource's plugin (synthesizer, recognizer, …). Real speech
// processing is out of scope here — only the contract surface exists
// so the rest of the orchestrator can be exercised against a test
// double.
type ResourceEngine interface {
	// CreateTermination returns a fresh termination for a new channel
	// bound to this engine; its audio stream, if any, reflects the
	// engine's fixed internal codec.
	CreateTermination() *mpf.Termination
	// CreateStateMachine returns a per-channel state machine that
	// will call back into dispatcher as control messages arrive.
	CreateStateMachine(dispatcher Dispatcher) *StateMachine
	OpenChannel(ch *EngineChannel, callback EngineChannelCallback) bool
	CloseChannel(ch *EngineChannel, callback EngineChannelCallback) bool
	RequestProcess(ch *EngineChannel, msg *Message) bool
}

// EngineChannel is the per-resource binding to a resource-engine
// plugin, carrying one termination and whether its open has
// completed. The channel's state machine lives on MRCPChannel.
type EngineChannel struct {
	ResourceName string
	engine       ResourceEngine
	Termination  *mpf.Termination
	opened       bool
}

func newEngineChannel(resourceName string, engine ResourceEngine, termination *mpf.Termination) *EngineChannel {
	return &EngineChannel{ResourceName: resourceName, engine: engine, Termination: termination}
}

func (c *EngineChannel) Open(callback EngineChannelCallback) bool {
	return c.engine.OpenChannel(c, callback)
}

func (c *EngineChannel) Close(callback EngineChannelCallback) bool {
	return c.engine.CloseChannel(c, callback)
}

// RequestProcess forwards msg to the resource engine. Callers should
// check Opened() first: a channel whose open is still pending or
// failed has nothing underneath it to process a request.
func (c *EngineChannel) RequestProcess(msg *Message) bool {
	return c.engine.RequestProcess(c, msg)
}

// MarkOpened records that this channel's asynchronous open completed
// successfully. Called by whoever implements EngineChannelCallback
// once OnEngineChannelOpen reports success.
func (c *EngineChannel) MarkOpened() { c.opened = true }

// Opened reports whether this channel's engine side has finished
// opening. False both before the open completes and if it failed.
func (c *EngineChannel) Opened() bool { return c.opened }

// MRCPChannel aggregates a control leg and an engine leg for a single
// resource inside a session. SessionID is the owning session's id,
// kept as a plain string rather than a back-pointer so this package
// never needs to import the session package.
type MRCPChannel struct {
	SessionID    string
	ResourceName string
	Descriptor   *ControlMediaDescriptor

	Control      *ControlChannel
	Engine       *EngineChannel
	StateMachine *StateMachine

	ID   int // SDP control-media position
	CMID int

	WaitingForChannel     bool
	WaitingForTermination bool
}

// NewMRCPChannel constructs an MRCP channel with its control leg
// bound to agent; the engine leg and state machine are attached
// separately by OpenEngineChannel, and opening the engine leg is
// itself asynchronous machinery the orchestrator drives.
func NewMRCPChannel(sessionID, resourceName string, id, cmid int, agent ConnectionAgent) *MRCPChannel {
	ch := &MRCPChannel{
		SessionID:    sessionID,
		ResourceName: resourceName,
		ID:           id,
		CMID:         cmid,
	}
	ch.Control = newControlChannel(agent, ch)
	return ch
}

// OpenEngineChannel binds this channel's engine leg to engine,
// creating its termination and state machine. It does not open the
// engine leg (EngineChannel.Open) or add the termination to a media
// context; the caller does both.
func (ch *MRCPChannel) OpenEngineChannel(engine ResourceEngine, dispatcher Dispatcher) {
	term := engine.CreateTermination()
	ch.Engine = newEngineChannel(ch.ResourceName, engine, term)
	ch.StateMachine = engine.CreateStateMachine(dispatcher)
}
