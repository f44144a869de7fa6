package models

// Identity is the client-declared identity attached to a connection.
// The relay trusts these values as-is.
type Identity struct {
	// UserID is the external user id chosen by the client (or the anon id issued on connect).
	UserID string
	// DisplayName is shown to other participants.
	DisplayName string
	// Color is an opaque UI tag echoed back to room members.
	Color string
}

// Merge returns a copy of id with every non-empty field of other applied on top.
func (id Identity) Merge(other Identity) Identity {
	if other.UserID != "" {
		id.UserID = other.UserID
	}
	if other.DisplayName != "" {
		id.DisplayName = other.DisplayName
	}
	if other.Color != "" {
		id.Color = other.Color
	}
	return id
}
