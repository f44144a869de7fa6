package chathub

import "boting/backend/internal/models"

// Client is the interface for any live connection held by the hub.
// It abstracts the underlying transport so the core only ever deals in
// connection ids and envelopes.
type Client interface {
	// GetConnID returns the opaque, never reused identifier of this physical connection.
	GetConnID() string
	// GetUserID returns the anonymous user id announced to the client on connect.
	GetUserID() string

	// GetSendChannel returns the channel the hub writes outbound envelopes to.
	// Only the hub goroutine sends on it, and only until Close is called.
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close releases the send channel; the write pump then closes the transport.
	Close()
}

// Sender delivers one envelope to one connection. It reports false when the
// connection is unknown or cannot take more frames right now.
type Sender interface {
	Send(connID string, env models.Envelope) bool
}

// deliver marshals data for event and hands it to s.
func deliver(s Sender, connID, event string, data any) bool {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		logger("chathub").Error().Err(err).Str("conn", connID).Msg("failed to encode envelope")
		return false
	}
	return s.Send(connID, env)
}
