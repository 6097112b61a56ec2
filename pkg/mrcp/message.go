package mrcp

import "fmt"

// MessageType distinguishes the three MRCP message shapes the
// per-channel state machine routes.
type MessageType int

const (
	MessageRequest MessageType = iota
	MessageResponse
	MessageEvent
)

func (t MessageType) String() string {
	switch t {
	case MessageRequest:
		return "REQUEST"
	case MessageResponse:
		return "RESPONSE"
	case MessageEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// Message is the MRCP start-line-plus-headers-plus-body shape:
// "<version> <length> <request-id> <method|status>", headers, optional
// body. ChannelID is "<session-id>@<resource>".
type Message struct {
	Version   Version
	Type      MessageType
	RequestID uint32
	Name      string // method name (request/event) or status code text (response)
	ChannelID string
	Headers   map[string]string
	Body      []byte
}

// Channel parses "<session-id>@<resource>" into its two parts.
func (m *Message) Channel() (sessionID, resource string, ok bool) {
	for i := 0; i < len(m.ChannelID); i++ {
		if m.ChannelID[i] == '@' {
			return m.ChannelID[:i], m.ChannelID[i+1:], true
		}
	}
	return "", "", false
}

// NewChannelID builds the "<session-id>@<resource>" channel
// identifier.
func NewChannelID(sessionID, resource string) string {
	return fmt.Sprintf("%s@%s", sessionID, resource)
}
