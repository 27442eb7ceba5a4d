package lixi

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Screen is the phase of a session
type Screen string

const (
	ScreenLobby       Screen = "lobby"
	ScreenSetup       Screen = "setup"
	ScreenFingerprint Screen = "fingerprint" // waiting for the hold-to-confirm ritual
	ScreenEnvelope    Screen = "envelope"    // prize drawn, waiting for scratch-to-reveal
	ScreenEnd         Screen = "end"
)

// IsValid reports whether s is a known screen
func (s Screen) IsValid() bool {
	switch s {
	case ScreenLobby, ScreenSetup, ScreenFingerprint, ScreenEnvelope, ScreenEnd:
		return true
	}
	return false
}

// GameState is the complete state of one play-through
type GameState struct {
	Screen          Screen         `json:"screen"`
	Denominations   []Denomination `json:"denominations"`
	Pool            []int64        `json:"pool"`
	CurrentPrize    *int64         `json:"currentPrize"`
	TotalPlayed     int            `json:"totalPlayed"`
	TotalMoneyGiven int64          `json:"totalMoneyGiven"`
	History         []int64        `json:"history"`
	CurrentRoomID   string         `json:"currentRoomId"`
	CurrentRoomName string         `json:"currentRoomName"`
}

// InitialGameState returns the empty, unbound session shown in the lobby
func InitialGameState() GameState {
	return GameState{
		Screen:        ScreenLobby,
		Denominations: []Denomination{},
		Pool:          []int64{},
		History:       []int64{},
	}
}

// newRoomGameState returns an empty session in setup bound to a room
func newRoomGameState(roomID, roomName string) GameState {
	gs := InitialGameState()
	gs.Screen = ScreenSetup
	gs.CurrentRoomID = roomID
	gs.CurrentRoomName = roomName
	return gs
}

// IsBound reports whether the session belongs to a room
func (gs GameState) IsBound() bool { return gs.CurrentRoomID != "" }

// MarshalJSON writes currentRoomId as null for a session not bound to a room
func (gs GameState) MarshalJSON() ([]byte, error) {
	type record GameState
	out := struct {
		record
		CurrentRoomID *string `json:"currentRoomId"`
	}{record: record(gs)}
	if gs.IsBound() {
		out.CurrentRoomID = &gs.CurrentRoomID
	}
	return json.Marshal(out)
}

// Clone returns a deep copy of the session
func (gs GameState) Clone() GameState {
	c := gs
	c.Denominations = slices.Clone(gs.Denominations)
	c.Pool = slices.Clone(gs.Pool)
	c.History = slices.Clone(gs.History)
	if gs.CurrentPrize != nil {
		p := *gs.CurrentPrize
		c.CurrentPrize = &p
	}
	return c
}

// ConservationHolds checks that no money or envelope has been created or lost
// since the game started: everything configured is either still in the pool,
// currently drawn, or already given out.
func (gs GameState) ConservationHolds() bool {
	var drawn int64
	drawnCount := 0
	if gs.CurrentPrize != nil {
		drawn = *gs.CurrentPrize
		drawnCount = 1
	}

	return SumPool(gs.Pool)+drawn+gs.TotalMoneyGiven == TotalValue(gs.Denominations) &&
		len(gs.Pool)+drawnCount+gs.TotalPlayed == TotalEnvelopes(gs.Denominations)
}

// Validate checks the internal consistency of a session, typically one loaded from storage
func (gs GameState) Validate() error {
	if !gs.Screen.IsValid() {
		return ErrStateCorrupted.WithDetails(fmt.Sprintf("unknown screen %q", gs.Screen))
	}
	if gs.TotalPlayed < 0 || gs.TotalMoneyGiven < 0 {
		return ErrStateCorrupted.WithDetails("negative totals")
	}
	if len(gs.History) != gs.TotalPlayed {
		return ErrStateCorrupted.WithDetails(fmt.Sprintf(
			"history length %d does not match total played %d", len(gs.History), gs.TotalPlayed))
	}
	if SumPool(gs.History) != gs.TotalMoneyGiven {
		return ErrStateCorrupted.WithDetails("history does not sum to total money given")
	}
	if err := ValidateDenominations(gs.Denominations); err != nil {
		return ErrStateCorrupted.WithCause(err).WithDetails(err.Error())
	}
	if (gs.Screen == ScreenEnvelope) != (gs.CurrentPrize != nil) {
		return ErrStateCorrupted.WithDetails("current prize must be present exactly on the envelope screen")
	}

	switch gs.Screen {
	case ScreenFingerprint, ScreenEnvelope, ScreenEnd:
		if !gs.ConservationHolds() {
			return ErrStateCorrupted.WithDetails("pool and totals do not add up to the denomination set")
		}
	}

	return nil
}

// BreakdownEntry counts how many envelopes of one value were handed out
type BreakdownEntry struct {
	Value int64 `json:"value"`
	Count int   `json:"count"`
}

// Breakdown groups the history by value, ascending
func (gs GameState) Breakdown() []BreakdownEntry {
	counts := make(map[int64]int)
	for _, v := range gs.History {
		counts[v]++
	}

	out := make([]BreakdownEntry, 0, len(counts))
	for v, c := range counts {
		out = append(out, BreakdownEntry{Value: v, Count: c})
	}
	slices.SortFunc(out, func(a, b BreakdownEntry) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return 0
	})
	return out
}

// Remaining returns how many envelopes are still in the pool
func (gs GameState) Remaining() int { return len(gs.Pool) }
