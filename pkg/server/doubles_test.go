package server

import (
	"sync"
	"time"

	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/pgaval/mrcp-server/pkg/mrcp"
)

// fakeSignalingAgent is a SignalingAgent test double. Every method
// also posts to a buffered channel so tests can wait for the
// orchestrator's asynchronous completion chain (driven off the media
// engine's own goroutine) without polling.
type fakeSignalingAgent struct {
	mu          sync.Mutex
	answers     []*mrcp.SessionDescriptor
	terminated  []string
	controlMsgs []*mrcp.Message

	answerCh    chan struct{}
	terminateCh chan struct{}
	controlCh   chan struct{}
}

func newFakeSignalingAgent() *fakeSignalingAgent {
	return &fakeSignalingAgent{
		answerCh:    make(chan struct{}, 32),
		terminateCh: make(chan struct{}, 32),
		controlCh:   make(chan struct{}, 32),
	}
}

func (a *fakeSignalingAgent) Answer(sessionID string, desc *mrcp.SessionDescriptor) {
	a.mu.Lock()
	a.answers = append(a.answers, desc)
	a.mu.Unlock()
	a.answerCh <- struct{}{}
}

func (a *fakeSignalingAgent) TerminateResponse(sessionID string) {
	a.mu.Lock()
	a.terminated = append(a.terminated, sessionID)
	a.mu.Unlock()
	a.terminateCh <- struct{}{}
}

func (a *fakeSignalingAgent) ControlMessage(sessionID string, msg *mrcp.Message) {
	a.mu.Lock()
	a.controlMsgs = append(a.controlMsgs, msg)
	a.mu.Unlock()
	a.controlCh <- struct{}{}
}

func (a *fakeSignalingAgent) lastAnswer() *mrcp.SessionDescriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.answers) == 0 {
		return nil
	}
	return a.answers[len(a.answers)-1]
}

func waitSignal(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

// fakeResourceEngine is a mrcp.ResourceEngine test double standing in
// for a speech-resource plugin (synthesizer/recognizer), which this
// repository leaves as a Non-goal. acceptOpen gates whether the
// asynchronous open completion reports success; every
// completion is posted from its own goroutine, mirroring how a real
// resource engine's worker thread would call back rather than
// re-entering the caller's stack.
type fakeResourceEngine struct {
	name       string
	codec      *mpf.CodecDescriptor
	finalEvent string
	acceptOpen bool

	// mode overrides the termination's stream mode; the zero value
	// means the usual sendrecv engine.
	mode mpf.StreamMode
}

func (e *fakeResourceEngine) CreateTermination() *mpf.Termination {
	mode := e.mode
	if mode == mpf.ModeNone {
		mode = mpf.ModeSendReceive
	}
	return mpf.NewTermination(e.name, &mpf.AudioStream{
		Mode: mode, RXCodec: e.codec, TXCodec: e.codec,
	})
}

func (e *fakeResourceEngine) CreateStateMachine(dispatcher mrcp.Dispatcher) *mrcp.StateMachine {
	return mrcp.NewStateMachine(dispatcher, e.finalEvent)
}

func (e *fakeResourceEngine) OpenChannel(ch *mrcp.EngineChannel, callback mrcp.EngineChannelCallback) bool {
	go callback.OnEngineChannelOpen(ch, e.acceptOpen)
	return true
}

func (e *fakeResourceEngine) CloseChannel(ch *mrcp.EngineChannel, callback mrcp.EngineChannelCallback) bool {
	go callback.OnEngineChannelClose(ch)
	return true
}

func (e *fakeResourceEngine) RequestProcess(ch *mrcp.EngineChannel, msg *mrcp.Message) bool {
	return true
}

// fakeConnectionAgent is a mrcp.ConnectionAgent test double for the
// v2 signaling leg's control-channel negotiation.
type fakeConnectionAgent struct {
	accept bool
	sent   []*mrcp.Message
}

func (a *fakeConnectionAgent) Add(ch *mrcp.MRCPChannel, desc *mrcp.ControlMediaDescriptor, callback mrcp.ChannelCallback) bool {
	go callback.OnChannelModify(ch, &mrcp.ControlMediaDescriptor{ResourceName: desc.ResourceName, CMID: desc.CMID}, mrcp.StatusOK)
	return a.accept
}

func (a *fakeConnectionAgent) Modify(ch *mrcp.MRCPChannel, desc *mrcp.ControlMediaDescriptor, callback mrcp.ChannelCallback) bool {
	go callback.OnChannelModify(ch, &mrcp.ControlMediaDescriptor{ResourceName: desc.ResourceName, CMID: desc.CMID}, mrcp.StatusOK)
	return a.accept
}

func (a *fakeConnectionAgent) Remove(ch *mrcp.MRCPChannel, callback mrcp.ChannelCallback) bool {
	go callback.OnChannelRemove(ch, mrcp.StatusOK)
	return a.accept
}

func (a *fakeConnectionAgent) Send(ch *mrcp.MRCPChannel, msg *mrcp.Message) bool {
	a.sent = append(a.sent, msg)
	return a.accept
}

func newTestProfile(agent mrcp.ConnectionAgent, termFactory TerminationFactory, resources map[string]mrcp.ResourceEngine) (*Profile, *mpf.Engine) {
	factory := mpf.NewFactory()
	engine := mpf.NewEngine(factory, 0)
	engine.Start()

	opts := []ProfileOption{WithConnectionAgent(agent), WithTerminationFactory(termFactory)}
	for name, r := range resources {
		opts = append(opts, WithResource(name, r))
	}
	profile := NewProfile("test", factory, engine, opts...)
	return profile, engine
}
