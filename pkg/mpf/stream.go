// Package mpf implements the media processing framework's per-session
// topology: terminations, the N×N association matrix (context), the
// factory ring of populated contexts, and the media engine that drives
// them on a fixed tick.
package mpf

import "fmt"

// StreamMode is a bitset over the two directions an audio stream can
// carry: send (termination emits frames) and receive (termination
// accepts frames). A termination's stream is configured with whichever
// subset the offer negotiated.
type StreamMode uint8

const (
	ModeNone StreamMode = 0
	// ModeSend means the stream can emit frames toward its peer.
	ModeSend StreamMode = 1 << iota
	// ModeReceive means the stream can accept frames from its peer.
	ModeReceive
	ModeSendReceive = ModeSend | ModeReceive
)

func (m StreamMode) CanSend() bool    { return m&ModeSend != 0 }
func (m StreamMode) CanReceive() bool { return m&ModeReceive != 0 }

func (m StreamMode) String() string {
	switch m {
	case ModeSendReceive:
		return "sendrecv"
	case ModeSend:
		return "sendonly"
	case ModeReceive:
		return "recvonly"
	default:
		return "inactive"
	}
}

// CodecDescriptor identifies an audio encoding well enough to decide
// whether two terminations can be bridged without transcoding. Decode
// and Encode mark whether a transform step exists for this codec; the
// rewrite does not implement any codec's actual bit manipulation
// (Non-goal), so those steps are no-op placeholders exercised by the
// topology algorithm, never by real audio.
type CodecDescriptor struct {
	Name         string
	PayloadType  uint8 // matches rtp.Header.PayloadType's range; stamped by server.RTPTerminationFactory (RFC 3551 vocabulary)
	SamplingRate uint32
	ChannelCount uint8
	HasDecode    bool
	HasEncode    bool
}

// Equal reports whether two codec descriptors describe the same wire
// encoding byte-for-byte.
func (c *CodecDescriptor) Equal(other *CodecDescriptor) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Name == other.Name &&
		c.SamplingRate == other.SamplingRate &&
		c.ChannelCount == other.ChannelCount
}

func (c *CodecDescriptor) String() string {
	if c == nil {
		return "<nil codec>"
	}
	return fmt.Sprintf("%s/%d/%d", c.Name, c.SamplingRate, c.ChannelCount)
}

// AudioStream is the single bidirectional audio stream a termination
// may carry. RXCodec is what the termination expects to receive on;
// TXCodec is what it sends with. For a resource-engine termination
// these are typically the same fixed codec; for an RTP termination
// they reflect whatever the offer/answer negotiated.
type AudioStream struct {
	Mode    StreamMode
	RXCodec *CodecDescriptor
	TXCodec *CodecDescriptor

	// FramesProcessed counts Process() calls that actually moved a
	// frame through this stream's side of a media object; exported so
	// tests can assert the periodic scheduler reached a stream.
	FramesProcessed uint64
}
