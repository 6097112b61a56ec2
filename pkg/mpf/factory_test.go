package mpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactory_RingMembershipTracksPopulation(t *testing.T) {
	f := NewFactory()
	ctx := NewContext(f, 2, nil)
	term := sendRecvTermination("x", pcmu())

	assert.Equal(t, 0, f.Len())
	ctx.AddTermination(term)
	assert.Equal(t, 1, f.Len())
	ctx.SubtractTermination(term)
	assert.Equal(t, 0, f.Len())
}

func TestFactory_Process_StepsEveryContextInRing(t *testing.T) {
	f := NewFactory()
	ctx := NewContext(f, 5, nil)
	t1 := sendRecvTermination("a", pcmu())
	t2 := sendRecvTermination("b", pcmu())
	ctx.AddTermination(t1)
	ctx.AddTermination(t2)
	ctx.AddAssociation(t1, t2)
	ctx.ApplyTopology()

	f.Process()
	assert.NotZero(t, t1.Stream.FramesProcessed)
	assert.NotZero(t, t2.Stream.FramesProcessed)
}
