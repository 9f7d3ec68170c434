package domain

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

type CallStatus string

const (
	CallCalling  CallStatus = "calling"
	CallActive   CallStatus = "active"
	CallDeclined CallStatus = "declined"
	CallEnded    CallStatus = "ended"
)

// CallSession lives between call initiation and teardown. It is never persisted.
type CallSession struct {
	Type     CallType
	From     Identity
	FromConn ConnectionID
	To       UserID
	ToConn   ConnectionID
	Status   CallStatus
}

// Involves reports whether conn is either party of the session.
func (s CallSession) Involves(conn ConnectionID) bool {
	return s.FromConn == conn || s.ToConn == conn
}

// Peer returns the other party of the session as seen by user.
func (s CallSession) Peer(user UserID) UserID {
	if s.From.UserID == user {
		return s.To
	}
	return s.From.UserID
}
