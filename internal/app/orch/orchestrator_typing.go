package orch

func (o *Orchestrator) handleTyping(e Typing) {
	c, ok := o.member(e.Conn, e.Room)
	if !ok {
		return
	}
	if !o.Typing.Pulse(e.Room, c.Identity, e.IsTyping) {
		return
	}
	o.Out.ToRoom(e.Room, EvUserTyping, userTypingPayload{
		Username: c.Identity.DisplayName,
		UserID:   c.Identity.UserID,
		IsTyping: e.IsTyping,
	})
}

func (o *Orchestrator) handleTypingExpired(e typingExpired) {
	id, ok := o.Typing.Expire(e.exp)
	if !ok {
		return
	}
	o.Out.ToRoom(e.exp.Room, EvUserTyping, userTypingPayload{Username: id.DisplayName, UserID: id.UserID})
}
