package signal

func (ctl *SignalWSController) handlePing(s *session) {
	ctl.sendJSON(s, "pong", struct{}{})
}
