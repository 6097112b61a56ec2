// Package server implements the session orchestrator and the session
// table & dispatcher: the per-session coordinator that processes
// offer/control/terminate signaling, fans sub-requests out to the
// media engine, the connection agent, and resource engines, and the
// process-wide map that demultiplexes their callbacks.
package server

import (
	"fmt"

	"github.com/pgaval/mrcp-server/pkg/mrcp"
)

// ErrorCategory classifies a SessionError by which subsystem raised
// it.
type ErrorCategory int

const (
	CategorySignaling ErrorCategory = iota
	CategoryMedia
	CategoryResource
	CategoryTransport
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategorySignaling:
		return "signaling"
	case CategoryMedia:
		return "media"
	case CategoryResource:
		return "resource"
	case CategoryTransport:
		return "transport"
	default:
		return "internal"
	}
}

// ErrorSeverity ranks a SessionError, trimmed to the three levels that
// matter for a per-session (never process-fatal) error model.
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
	SeverityFatal
)

// SessionError is the typed, categorised error every failure path in
// this package returns, carrying whichever session/channel identifiers
// are available at the point it's constructed.
type SessionError struct {
	Code            mrcp.SessionStatus
	Category        ErrorCategory
	Severity        ErrorSeverity
	SessionID       string
	ChannelResource string
	Message         string
	Cause           error
	Retryable       bool
}

func (e *SessionError) Error() string {
	if e.ChannelResource != "" {
		return fmt.Sprintf("session %s channel %s: %s (%s)", e.SessionID, e.ChannelResource, e.Message, e.Code)
	}
	return fmt.Sprintf("session %s: %s (%s)", e.SessionID, e.Message, e.Code)
}

func (e *SessionError) Unwrap() error { return e.Cause }

func ErrResourceUnknown(sessionID, resource string) *SessionError {
	return &SessionError{
		Code: mrcp.StatusNoSuchResource, Category: CategoryResource, Severity: SeverityWarning,
		SessionID: sessionID, ChannelResource: resource,
		Message: "offer references a resource not in the resource factory",
	}
}

func ErrResourceEngineUnavailable(sessionID, resource string) *SessionError {
	return &SessionError{
		Code: mrcp.StatusUnacceptableResource, Category: CategoryResource, Severity: SeverityError,
		SessionID: sessionID, ChannelResource: resource,
		Message: "resource engine missing or refused channel creation",
	}
}

func ErrEngineChannelOpenFailed(sessionID, resource string) *SessionError {
	return &SessionError{
		Code: mrcp.StatusUnavailableResource, Category: CategoryResource, Severity: SeverityError,
		SessionID: sessionID, ChannelResource: resource,
		Message: "engine channel open failed",
	}
}

func ErrControlChannelRejected(sessionID, resource string) *SessionError {
	return &SessionError{
		Code: mrcp.StatusUnacceptableResource, Category: CategorySignaling, Severity: SeverityWarning,
		SessionID: sessionID, ChannelResource: resource,
		Message: "connection agent rejected add/modify synchronously",
	}
}

func ErrContextCapacityExhausted(sessionID string) *SessionError {
	return &SessionError{
		Code: mrcp.StatusUnavailableResource, Category: CategoryMedia, Severity: SeverityError,
		SessionID: sessionID,
		Message:   "media context is at capacity",
	}
}

func ErrCodecIncompatible(sessionID string, cause error) *SessionError {
	return &SessionError{
		Code: mrcp.StatusOK, Category: CategoryMedia, Severity: SeverityWarning,
		SessionID: sessionID, Cause: cause,
		Message:   "codec pair incompatible, no bridge materialised",
		Retryable: false,
	}
}

func ErrPortPoolExhausted(sessionID string) *SessionError {
	return &SessionError{
		Code: mrcp.StatusUnavailableResource, Category: CategoryMedia, Severity: SeverityError,
		SessionID: sessionID,
		Message:   "RTP termination factory's port pool made a full circle with no free port",
	}
}
