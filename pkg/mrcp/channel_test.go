package mrcp

import (
	"testing"

	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	addCalls []*ControlMediaDescriptor
	accept   bool
}

func (a *fakeAgent) Add(ch *MRCPChannel, desc *ControlMediaDescriptor, callback ChannelCallback) bool {
	a.addCalls = append(a.addCalls, desc)
	return a.accept
}
func (a *fakeAgent) Modify(ch *MRCPChannel, desc *ControlMediaDescriptor, callback ChannelCallback) bool {
	return a.accept
}
func (a *fakeAgent) Remove(ch *MRCPChannel, callback ChannelCallback) bool { return a.accept }
func (a *fakeAgent) Send(ch *MRCPChannel, msg *Message) bool               { return a.accept }

type fakeEngine struct {
	opened bool
}

func (e *fakeEngine) CreateTermination() *mpf.Termination {
	return mpf.NewTermination("speechsynth", &mpf.AudioStream{
		Mode:    mpf.ModeSendReceive,
		RXCodec: &mpf.CodecDescriptor{Name: "PCMU", SamplingRate: 8000, ChannelCount: 1},
		TXCodec: &mpf.CodecDescriptor{Name: "PCMU", SamplingRate: 8000, ChannelCount: 1},
	})
}
func (e *fakeEngine) CreateStateMachine(dispatcher Dispatcher) *StateMachine {
	return NewStateMachine(dispatcher, "")
}
func (e *fakeEngine) OpenChannel(ch *EngineChannel, callback EngineChannelCallback) bool {
	e.opened = true
	return true
}
func (e *fakeEngine) CloseChannel(ch *EngineChannel, callback EngineChannelCallback) bool {
	return true
}
func (e *fakeEngine) RequestProcess(ch *EngineChannel, msg *Message) bool { return true }

type noopCallback struct{}

func (noopCallback) OnDispatch(msg *Message) {}
func (noopCallback) OnDeactivate()           {}

func TestMRCPChannel_OpenEngineChannel_BindsTerminationAndStateMachine(t *testing.T) {
	agent := &fakeAgent{accept: true}
	ch := NewMRCPChannel("sess1", "speechsynth", 0, 1, agent)
	engine := &fakeEngine{}

	ch.OpenEngineChannel(engine, noopCallback{})

	require.NotNil(t, ch.Engine)
	require.NotNil(t, ch.Engine.Termination)
	assert.Equal(t, "idle", ch.StateMachine.Current())

	ok := ch.Control.Add(&ControlMediaDescriptor{ResourceName: "speechsynth"}, nil)
	assert.True(t, ok)
	require.Len(t, agent.addCalls, 1)
}

func TestControlChannel_Add_PropagatesRejection(t *testing.T) {
	agent := &fakeAgent{accept: false}
	ch := NewMRCPChannel("sess1", "unknown", 0, 1, agent)

	ok := ch.Control.Add(&ControlMediaDescriptor{ResourceName: "unknown"}, nil)
	assert.False(t, ok)
}
