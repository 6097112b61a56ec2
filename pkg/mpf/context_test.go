package mpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcmu() *CodecDescriptor {
	return &CodecDescriptor{Name: "PCMU", PayloadType: 0, SamplingRate: 8000, ChannelCount: 1}
}

func pcmu16k() *CodecDescriptor {
	return &CodecDescriptor{Name: "PCMU", PayloadType: 0, SamplingRate: 16000, ChannelCount: 1}
}

func sendRecvTermination(name string, codec *CodecDescriptor) *Termination {
	return NewTermination(name, &AudioStream{Mode: ModeSendReceive, RXCodec: codec, TXCodec: codec})
}

func TestContext_AddSubtractTermination_RoundTrip(t *testing.T) {
	ctx := NewContext(NewFactory(), 5, nil)
	term := sendRecvTermination("engine", pcmu())

	require.True(t, ctx.AddTermination(term))
	assert.Equal(t, 1, ctx.Count())
	assert.True(t, ctx.InRing())

	require.True(t, ctx.SubtractTermination(term))
	assert.Equal(t, 0, ctx.Count())
	assert.False(t, ctx.InRing())
	assert.Equal(t, -1, term.Slot())
}

func TestContext_AddTermination_CapacityExhausted(t *testing.T) {
	ctx := NewContext(NewFactory(), 1, nil)
	require.True(t, ctx.AddTermination(sendRecvTermination("a", pcmu())))
	assert.False(t, ctx.AddTermination(sendRecvTermination("b", pcmu())))
}

func TestContext_AddRemoveAssociation_RoundTrip(t *testing.T) {
	ctx := NewContext(NewFactory(), 5, nil)
	t1 := sendRecvTermination("engine", pcmu())
	t2 := sendRecvTermination("rtp", pcmu())
	ctx.AddTermination(t1)
	ctx.AddTermination(t2)

	ctx.AddAssociation(t1, t2)
	assert.Equal(t, 1, ctx.TxCount(t1.Slot()))
	assert.Equal(t, 1, ctx.RxCount(t2.Slot()))
	assert.Equal(t, 1, ctx.TxCount(t2.Slot()))
	assert.Equal(t, 1, ctx.RxCount(t1.Slot()))

	ctx.RemoveAssociation(t1, t2)
	assert.Equal(t, 0, ctx.TxCount(t1.Slot()))
	assert.Equal(t, 0, ctx.RxCount(t1.Slot()))
	assert.Equal(t, 0, ctx.TxCount(t2.Slot()))
	assert.Equal(t, 0, ctx.RxCount(t2.Slot()))
}

func TestContext_AddAssociation_RespectsStreamMode(t *testing.T) {
	ctx := NewContext(NewFactory(), 5, nil)
	sendOnly := NewTermination("send-only", &AudioStream{Mode: ModeSend, RXCodec: pcmu(), TXCodec: pcmu()})
	recvOnly := NewTermination("recv-only", &AudioStream{Mode: ModeReceive, RXCodec: pcmu(), TXCodec: pcmu()})
	ctx.AddTermination(sendOnly)
	ctx.AddTermination(recvOnly)

	// A cell needs a receiving source and a sending sink: send-only
	// cannot receive, so send-only -> recvOnly is rejected; recvOnly
	// receives and sendOnly sends, so recvOnly -> sendOnly is admitted.
	ctx.AddAssociation(sendOnly, recvOnly)
	assert.Equal(t, 0, ctx.TxCount(sendOnly.Slot()))
	assert.Equal(t, 1, ctx.TxCount(recvOnly.Slot()))
}

func TestContext_ApplyTopology_NullBridgeForMatchingCodecs(t *testing.T) {
	ctx := NewContext(NewFactory(), 5, nil)
	engine := sendRecvTermination("engine", pcmu())
	rtp := sendRecvTermination("rtp", pcmu())
	ctx.AddTermination(engine)
	ctx.AddTermination(rtp)
	ctx.AddAssociation(engine, rtp)

	n := ctx.ApplyTopology()
	assert.Equal(t, 2, n) // engine->rtp and rtp->engine

	ctx.DestroyTopology()
	assert.Equal(t, 0, len(ctx.objects))
}

func TestContext_ApplyTopology_SamplingRateMismatchProducesNoObjectButDiagnoses(t *testing.T) {
	ctx := NewContext(NewFactory(), 5, nil)
	var diagnosed bool
	ctx.Diagnostic = func(source, sink int, err error) { diagnosed = true }

	engine := sendRecvTermination("engine", pcmu())
	rtp := sendRecvTermination("rtp", pcmu16k())
	ctx.AddTermination(engine)
	ctx.AddTermination(rtp)
	ctx.AddAssociation(engine, rtp)

	n := ctx.ApplyTopology()
	assert.Equal(t, 0, n)
	assert.True(t, diagnosed)

	// the association itself remains on even though no bridge exists.
	assert.Equal(t, 1, ctx.TxCount(engine.Slot()))
}

func TestContext_ResetAssociations_ClearsMatrixAndTopology(t *testing.T) {
	ctx := NewContext(NewFactory(), 5, nil)
	t1 := sendRecvTermination("a", pcmu())
	t2 := sendRecvTermination("b", pcmu())
	ctx.AddTermination(t1)
	ctx.AddTermination(t2)
	ctx.AddAssociation(t1, t2)
	ctx.ApplyTopology()
	require.NotZero(t, len(ctx.objects))

	ctx.ResetAssociations()
	assert.Equal(t, 0, ctx.TxCount(t1.Slot()))
	assert.Equal(t, 0, ctx.RxCount(t2.Slot()))
	assert.Equal(t, 0, len(ctx.objects))
}

func TestContext_SubtractTermination_ClearsDanglingAssociations(t *testing.T) {
	ctx := NewContext(NewFactory(), 5, nil)
	t1 := sendRecvTermination("a", pcmu())
	t2 := sendRecvTermination("b", pcmu())
	ctx.AddTermination(t1)
	ctx.AddTermination(t2)
	ctx.AddAssociation(t1, t2)

	require.True(t, ctx.SubtractTermination(t1))
	assert.Equal(t, 0, ctx.RxCount(t2.Slot()))
	assert.Equal(t, 0, ctx.TxCount(t2.Slot()))
}
