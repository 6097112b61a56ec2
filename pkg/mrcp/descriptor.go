// Package mrcp implements the signaling-shaped data and per-channel
// machinery of an MRCP gateway: session/control-media/audio-media
// descriptors, the MRCP message shape, channels aggregating a control
// leg and an engine leg, and the per-channel state machine the
// resource plugin drives.
package mrcp

import (
	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/pion/sdp/v3"
)

// Version distinguishes the two wire protocols this core serves; it
// changes how the orchestrator drives offer processing and how
// control responses/events are delivered.
type Version int

const (
	VersionV1 Version = 1
	VersionV2 Version = 2
)

// SessionStatus is the overall status carried on a session descriptor.
type SessionStatus int

const (
	StatusOK SessionStatus = iota
	StatusNoSuchResource
	StatusUnavailableResource
	StatusUnacceptableResource
)

func (s SessionStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNoSuchResource:
		return "NO_SUCH_RESOURCE"
	case StatusUnavailableResource:
		return "UNAVAILABLE_RESOURCE"
	case StatusUnacceptableResource:
		return "UNACCEPTABLE_RESOURCE"
	default:
		return "UNKNOWN"
	}
}

// ControlMediaDescriptor is one control-leg entry of a session
// descriptor's control array. Port 0 marks a rejected channel.
type ControlMediaDescriptor struct {
	SessionID    string
	CMID         int
	ResourceName string
	Port         int
	// ResourceState is the v1 add/remove flag; unused on v2, where
	// presence/absence in the control array drives add vs remove.
	ResourceState bool
}

// AudioMediaDescriptor is one audio/RTP-leg entry of a session
// descriptor's audio array.
type AudioMediaDescriptor struct {
	MID       int
	Direction sdp.Direction
	Codec     *mpf.CodecDescriptor
	IP        string
	ExtIP     string
	Port      int
}

// SessionDescriptor is the immutable per-exchange offer/answer value.
// Slots may be nil (absent media); arity between an offer and its
// answer must match exactly.
type SessionDescriptor struct {
	Status SessionStatus
	Origin string
	IP     string
	ExtIP  string

	Control []*ControlMediaDescriptor
	Audio   []*AudioMediaDescriptor
	Video   []*AudioMediaDescriptor
}

// NewAnswerTemplate builds an answer of matching arity to offer with
// every slot nil and the same starting status as the offer, ready for
// offer processing to fill in or downgrade as it goes.
func NewAnswerTemplate(offer *SessionDescriptor) *SessionDescriptor {
	return &SessionDescriptor{
		Status:  offer.Status,
		Control: make([]*ControlMediaDescriptor, len(offer.Control)),
		Audio:   make([]*AudioMediaDescriptor, len(offer.Audio)),
		Video:   make([]*AudioMediaDescriptor, len(offer.Video)),
	}
}

// RejectControlSlot fills answer.Control[idx] with a port-0 rejection
// for the named resource.
func RejectControlSlot(answer *SessionDescriptor, idx int, sessionID, resourceName string, cmid int) {
	answer.Control[idx] = &ControlMediaDescriptor{
		SessionID:    sessionID,
		CMID:         cmid,
		ResourceName: resourceName,
		Port:         0,
	}
}
