package server

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/pgaval/mrcp-server/pkg/mrcp"
	"github.com/pion/rtp"
	"github.com/pion/sdp/v3"
)

// RTPTerminationFactory is the concrete TerminationFactory this
// repository ships: it draws ports from a PortPool and picks the
// first codec in its supported list whose name/sampling-rate
// matches the remote offer, falling back to its own first codec if
// the remote offered nothing this factory recognises (mirroring an
// answerer always proposing something rather than leaving the slot
// empty — rejection is the orchestrator's call to make, not this
// factory's).
type RTPTerminationFactory struct {
	pool   *PortPool
	ip     string
	codecs []*mpf.CodecDescriptor

	// ExtIP is the NATed address advertised alongside ip when this
	// deployment sits behind one. Left empty when there is no NAT to
	// model.
	ExtIP string

	mu      sync.Mutex
	ports   map[*mpf.Termination]int
	headers map[*mpf.Termination]rtp.Header
}

func NewRTPTerminationFactory(ip string, rng PortRange, codecs ...*mpf.CodecDescriptor) (*RTPTerminationFactory, error) {
	pool, err := NewPortPool(rng)
	if err != nil {
		return nil, err
	}
	return &RTPTerminationFactory{
		pool:    pool,
		ip:      ip,
		codecs:  codecs,
		ports:   make(map[*mpf.Termination]int),
		headers: make(map[*mpf.Termination]rtp.Header),
	}, nil
}

// randomSSRC draws a 32-bit synchronization source identifier the way
// a real RTP sender would pick one, without this factory ever putting
// it on the wire (real RTP I/O is a Non-goal).
func randomSSRC() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}

func (f *RTPTerminationFactory) chooseCodec(remote *mpf.CodecDescriptor) *mpf.CodecDescriptor {
	for _, c := range f.codecs {
		if remote != nil && c.Name == remote.Name && c.SamplingRate == remote.SamplingRate {
			return c
		}
	}
	if len(f.codecs) > 0 {
		return f.codecs[0]
	}
	return remote
}

func directionFromMode(mode mpf.StreamMode) sdp.Direction {
	switch {
	case mode.CanSend() && mode.CanReceive():
		return sdp.DirectionSendRecv
	case mode.CanSend():
		return sdp.DirectionSendOnly
	case mode.CanReceive():
		return sdp.DirectionRecvOnly
	default:
		return sdp.DirectionInactive
	}
}

// CreateTermination allocates a port and builds the RTP termination
// plus the local descriptor the orchestrator stamps into the answer.
func (f *RTPTerminationFactory) CreateTermination(remote *mpf.CodecDescriptor, mode mpf.StreamMode) (*mpf.Termination, *mrcp.AudioMediaDescriptor, error) {
	port, err := f.pool.Allocate()
	if err != nil {
		return nil, nil, err
	}

	codec := f.chooseCodec(remote)
	stream := &mpf.AudioStream{Mode: mode, RXCodec: codec, TXCodec: codec}
	term := mpf.NewTermination("rtp", stream)

	hdr := rtp.Header{Version: 2, SSRC: randomSSRC()}
	if codec != nil {
		hdr.PayloadType = codec.PayloadType
	}

	f.mu.Lock()
	f.ports[term] = port
	f.headers[term] = hdr
	f.mu.Unlock()

	desc := &mrcp.AudioMediaDescriptor{
		Direction: directionFromMode(mode),
		Codec:     codec,
		IP:        f.ip,
		ExtIP:     f.ExtIP,
		Port:      port,
	}
	return term, desc, nil
}

// Release returns t's port to the pool.
func (f *RTPTerminationFactory) Release(t *mpf.Termination) {
	f.mu.Lock()
	port, ok := f.ports[t]
	delete(f.ports, t)
	delete(f.headers, t)
	f.mu.Unlock()
	if ok {
		f.pool.Release(port)
	}
}

// Header returns the RTP header template stamped onto t when it was
// created (payload type and SSRC), for diagnostics and logging that
// want to name a termination's wire identity without this factory
// doing real packet I/O.
func (f *RTPTerminationFactory) Header(t *mpf.Termination) (rtp.Header, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.headers[t]
	return h, ok
}
