package game

// TimeState is the chess-clock state of a started session.
type TimeState struct {
	Turn          int64 `json:"turn"`
	LastTickMs    int64 `json:"lastTick"`
	CreatorLeftMs int64 `json:"creatorTimeLeftMs"`
	JoinerLeftMs  int64 `json:"joinerTimeLeftMs"`
}

// NewTimeState starts both clocks at budget with the creator to move.
func NewTimeState(creatorID int64, budgetMs, nowMs int64) TimeState {
	return TimeState{
		Turn:          creatorID,
		LastTickMs:    nowMs,
		CreatorLeftMs: budgetMs,
		JoinerLeftMs:  budgetMs,
	}
}

// Settlement is the outcome of charging elapsed time to the turn holder.
type Settlement struct {
	State    TimeState
	TimedOut bool
	Loser    int64 // turn holder whose budget reached zero
}

// Settle charges now-LastTickMs to the player holding the turn, clamped at
// zero, and moves LastTickMs to now. A clock that went backwards charges
// nothing.
func Settle(ts TimeState, creatorID int64, nowMs int64) Settlement {
	elapsed := nowMs - ts.LastTickMs
	if elapsed < 0 {
		elapsed = 0
	}

	var left *int64
	if ts.Turn == creatorID {
		left = &ts.CreatorLeftMs
	} else {
		left = &ts.JoinerLeftMs
	}
	*left -= elapsed
	if *left < 0 {
		*left = 0
	}
	if nowMs > ts.LastTickMs {
		ts.LastTickMs = nowMs
	}

	return Settlement{State: ts, TimedOut: *left == 0, Loser: ts.Turn}
}

// Pass hands the turn to next and restarts the tick.
func (ts TimeState) Pass(next int64, nowMs int64) TimeState {
	ts.Turn = next
	ts.LastTickMs = nowMs
	return ts
}

// LeftFor returns the remaining budget of playerID.
func (ts TimeState) LeftFor(playerID, creatorID int64) int64 {
	if playerID == creatorID {
		return ts.CreatorLeftMs
	}
	return ts.JoinerLeftMs
}
