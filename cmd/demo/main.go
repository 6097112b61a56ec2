// Command demo wires a Profile against in-process resource-engine and
// connection-agent stubs and drives one offer/terminate cycle
// end to end, the way a real signaling transport (SIP/RTSP, a
// Non-goal here) would drive the session orchestrator.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/pgaval/mrcp-server/pkg/mrcp"
	"github.com/pgaval/mrcp-server/pkg/server"
	"github.com/pion/sdp/v3"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		ip       = flag.String("ip", "127.0.0.1", "RTP local IP advertised in answers")
		portMin  = flag.Int("port-min", 4000, "RTP termination factory port range, lower bound")
		portMax  = flag.Int("port-max", 4999, "RTP termination factory port range, upper bound")
		tickMs   = flag.Int("tick", 20, "media engine frame tick, milliseconds")
	)
	flag.Parse()

	logger := server.NewLogger(os.Stdout)
	pcmu := &mpf.CodecDescriptor{Name: "PCMU", PayloadType: 0, SamplingRate: 8000, ChannelCount: 1}

	termFactory, err := server.NewRTPTerminationFactory(*ip, server.PortRange{Min: *portMin, Max: *portMax}, pcmu)
	if err != nil {
		log.Fatalf("demo: building RTP termination factory: %v", err)
	}

	factory := mpf.NewFactory()
	engine := mpf.NewEngine(factory, time.Duration(*tickMs)*time.Millisecond)
	engine.Start()
	defer engine.Stop()

	metrics := server.NewMetrics(prometheus.DefaultRegisterer)

	profile := server.NewProfile("demo", factory, engine,
		server.WithConnectionAgent(&loopbackConnectionAgent{}),
		server.WithTerminationFactory(termFactory),
		server.WithResource("speechrecog", &stubResourceEngine{name: "speechrecog", codec: pcmu, finalEvent: "RECOGNITION-COMPLETE"}),
		server.WithResource("speechsynth", &stubResourceEngine{name: "speechsynth", codec: pcmu}),
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	)

	table := server.NewTable()
	agent := &loggingSignalingAgent{logger: logger}
	session := server.NewSession(mrcp.VersionV1, profile, table, agent)

	session.Offer(&mrcp.SessionDescriptor{
		Control: []*mrcp.ControlMediaDescriptor{{ResourceName: "speechrecog", ResourceState: true, CMID: 1}},
		Audio:   []*mrcp.AudioMediaDescriptor{{MID: 1, Direction: sdp.DirectionSendRecv, Codec: pcmu}},
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-time.After(5 * time.Second):
	}

	session.Terminate()
	time.Sleep(200 * time.Millisecond)
	logger.Info("demo finished", server.Int("sessions", table.Count()))
}

// loggingSignalingAgent stands in for the signaling transport (SIP
// re-INVITE/RTSP ANNOUNCE handling, a Non-goal here): it just logs
// whatever the orchestrator would otherwise have sent over the wire.
type loggingSignalingAgent struct {
	logger server.Logger
}

func (a *loggingSignalingAgent) Answer(sessionID string, desc *mrcp.SessionDescriptor) {
	a.logger.Info("answer", server.String("session", sessionID), server.String("status", desc.Status.String()))
}

func (a *loggingSignalingAgent) TerminateResponse(sessionID string) {
	a.logger.Info("terminate-response", server.String("session", sessionID))
}

func (a *loggingSignalingAgent) ControlMessage(sessionID string, msg *mrcp.Message) {
	a.logger.Info("control-message", server.String("session", sessionID), server.String("name", msg.Name))
}

// stubResourceEngine stands in for a real speech-resource plugin
// (synthesizer/recognizer), a declared Non-goal: it accepts every
// channel open/request immediately so the orchestrator's side of the
// contract runs end to end.
type stubResourceEngine struct {
	name       string
	codec      *mpf.CodecDescriptor
	finalEvent string
}

func (e *stubResourceEngine) CreateTermination() *mpf.Termination {
	return mpf.NewTermination(e.name, &mpf.AudioStream{Mode: mpf.ModeSendReceive, RXCodec: e.codec, TXCodec: e.codec})
}

func (e *stubResourceEngine) CreateStateMachine(dispatcher mrcp.Dispatcher) *mrcp.StateMachine {
	return mrcp.NewStateMachine(dispatcher, e.finalEvent)
}

func (e *stubResourceEngine) OpenChannel(ch *mrcp.EngineChannel, callback mrcp.EngineChannelCallback) bool {
	go callback.OnEngineChannelOpen(ch, true)
	return true
}

func (e *stubResourceEngine) CloseChannel(ch *mrcp.EngineChannel, callback mrcp.EngineChannelCallback) bool {
	go callback.OnEngineChannelClose(ch)
	return true
}

func (e *stubResourceEngine) RequestProcess(ch *mrcp.EngineChannel, msg *mrcp.Message) bool {
	return true
}

// loopbackConnectionAgent stands in for the v2 control-channel
// negotiation a real RTSP/MRCPv2 transport performs.
type loopbackConnectionAgent struct{}

func (a *loopbackConnectionAgent) Add(ch *mrcp.MRCPChannel, desc *mrcp.ControlMediaDescriptor, callback mrcp.ChannelCallback) bool {
	go callback.OnChannelModify(ch, desc, mrcp.StatusOK)
	return true
}

func (a *loopbackConnectionAgent) Modify(ch *mrcp.MRCPChannel, desc *mrcp.ControlMediaDescriptor, callback mrcp.ChannelCallback) bool {
	go callback.OnChannelModify(ch, desc, mrcp.StatusOK)
	return true
}

func (a *loopbackConnectionAgent) Remove(ch *mrcp.MRCPChannel, callback mrcp.ChannelCallback) bool {
	go callback.OnChannelRemove(ch, mrcp.StatusOK)
	return true
}

func (a *loopbackConnectionAgent) Send(ch *mrcp.MRCPChannel, msg *mrcp.Message) bool {
	return true
}
