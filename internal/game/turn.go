package game

// DrainBotTurns advances consecutive bot-controlled turns after a human
// move until control returns to a human or the session ends. The loop is
// bounded by the participant count: a well-formed bot move always flips
// turn ownership or terminates the game, so more iterations than
// participants would mean a broken game implementation rather than
// progress.
func DrainBotTurns(s BotTurns) {
	limit := len(s.Participants())
	for i := 0; i < limit && s.State() == StateActive && s.BotTurn(); i++ {
		s.BotInput()
	}
}
