package signal

import "github.com/dkeye/Chat/internal/domain"

type whoAmIPayload struct {
	ConnectionID domain.ConnectionID `json:"connectionId"`
	UserID       domain.UserID       `json:"userId"`
	Username     string              `json:"username"`
}

func (ctl *SignalWSController) handleWhoAmI(s *session) {
	ctl.sendJSON(s, "whoami", whoAmIPayload{
		ConnectionID: s.id,
		UserID:       s.identity.UserID,
		Username:     s.identity.DisplayName,
	})
}
