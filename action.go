package lixi

import (
	"errors"
	"fmt"
	"slices"
)

// ActionType names a session transition
type ActionType string

const (
	ActionSetDenominations ActionType = "SET_DENOMINATIONS"
	ActionStartGame        ActionType = "START_GAME"
	ActionDrawPrize        ActionType = "DRAW_PRIZE"
	ActionNextPlayer       ActionType = "NEXT_PLAYER"
	ActionResetGame        ActionType = "RESET_GAME"
	ActionGoToLobby        ActionType = "GO_TO_LOBBY"
	ActionCreateRoom       ActionType = "CREATE_ROOM"
	ActionLoadRoom         ActionType = "LOAD_ROOM"
	ActionDeleteRoom       ActionType = "DELETE_ROOM"
)

// Action is one of the session transitions defined in this file
type Action interface {
	Type() ActionType
	action()
}

// SetDenominations replaces the denomination set wholesale
type SetDenominations struct {
	Denominations []Denomination
}

// StartGame builds a fresh pool and moves to the first player
type StartGame struct{}

// DrawPrize draws one envelope for the current player
type DrawPrize struct{}

// NextPlayer acknowledges the current prize and moves on
type NextPlayer struct{}

// ResetGame discards the session and returns to the lobby
type ResetGame struct{}

// GoToLobby leaves the current room and returns to the lobby
type GoToLobby struct{}

// CreateRoom binds a fresh setup session to a newly allocated room
type CreateRoom struct {
	RoomID string
	Name   string
}

// LoadRoom replaces the session with a room's stored snapshot
type LoadRoom struct {
	Room Room
}

// DeleteRoom reacts to a room being removed from the registry
type DeleteRoom struct {
	RoomID string
}

func (SetDenominations) Type() ActionType { return ActionSetDenominations }
func (StartGame) Type() ActionType        { return ActionStartGame }
func (DrawPrize) Type() ActionType        { return ActionDrawPrize }
func (NextPlayer) Type() ActionType       { return ActionNextPlayer }
func (ResetGame) Type() ActionType        { return ActionResetGame }
func (GoToLobby) Type() ActionType        { return ActionGoToLobby }
func (CreateRoom) Type() ActionType       { return ActionCreateRoom }
func (LoadRoom) Type() ActionType         { return ActionLoadRoom }
func (DeleteRoom) Type() ActionType       { return ActionDeleteRoom }

func (SetDenominations) action() {}
func (StartGame) action()        {}
func (DrawPrize) action()        {}
func (NextPlayer) action()       {}
func (ResetGame) action()        {}
func (GoToLobby) action()        {}
func (CreateRoom) action()       {}
func (LoadRoom) action()         {}
func (DeleteRoom) action()       {}

// validFrom lists the screens each action may be applied in; a nil entry
// means the action is accepted everywhere.
var validFrom = map[ActionType][]Screen{
	ActionSetDenominations: {ScreenSetup},
	ActionStartGame:        {ScreenSetup},
	ActionDrawPrize:        {ScreenFingerprint},
	ActionNextPlayer:       {ScreenEnvelope},
	ActionCreateRoom:       {ScreenLobby},
	ActionLoadRoom:         {ScreenLobby},
	ActionResetGame:        nil,
	ActionGoToLobby:        nil,
	ActionDeleteRoom:       nil,
}

// CanApply reports whether action t is valid in screen s
func CanApply(s Screen, t ActionType) bool {
	screens, ok := validFrom[t]
	if !ok {
		return false
	}
	return screens == nil || slices.Contains(screens, s)
}

// Reduce applies action to state and returns the new state. It has no side
// effects: state is never modified and nothing is persisted. Actions that are
// not valid in the current screen return ErrInvalidTransition.
//
// StartGame does not check that the denomination set is non-empty; callers
// guard that (see Game.StartGame).
func Reduce(state GameState, act Action, rng RandomGenerator) (GameState, error) {
	if act == nil {
		return state, ErrUnknownAction
	}
	if !CanApply(state.Screen, act.Type()) {
		return state, ErrInvalidTransition.WithDetails(
			fmt.Sprintf("%s is not allowed on screen %s", act.Type(), state.Screen))
	}

	next := state.Clone()

	switch a := act.(type) {
	case SetDenominations:
		next.Denominations = slices.Clone(a.Denominations)
		if next.Denominations == nil {
			next.Denominations = []Denomination{}
		}
		return next, nil

	case StartGame:
		pool, err := BuildPool(next.Denominations, rng)
		if err != nil {
			return state, err
		}
		next.Pool = pool
		next.Screen = ScreenFingerprint
		next.CurrentPrize = nil
		next.TotalPlayed = 0
		next.TotalMoneyGiven = 0
		next.History = []int64{}
		return next, nil

	case DrawPrize:
		result, err := DrawFromPool(next.Pool, rng)
		if errors.Is(err, ErrPoolExhausted) {
			next.Screen = ScreenEnd
			next.CurrentPrize = nil
			return next, nil
		}
		if err != nil {
			return state, err
		}
		prize := result.Prize
		next.Pool = result.RemainingPool
		next.CurrentPrize = &prize
		next.Screen = ScreenEnvelope
		return next, nil

	case NextPlayer:
		if next.CurrentPrize == nil {
			return state, ErrNoCurrentPrize
		}
		next.TotalPlayed++
		next.TotalMoneyGiven += *next.CurrentPrize
		next.History = append(next.History, *next.CurrentPrize)
		next.CurrentPrize = nil
		if len(next.Pool) == 0 {
			next.Screen = ScreenEnd
		} else {
			next.Screen = ScreenFingerprint
		}
		return next, nil

	case ResetGame, GoToLobby:
		return InitialGameState(), nil

	case CreateRoom:
		if a.RoomID == "" {
			return state, ErrInvalidParameters.WithDetails("room id cannot be empty")
		}
		return newRoomGameState(a.RoomID, a.Name), nil

	case LoadRoom:
		loaded := a.Room.GameState.Clone()
		loaded.CurrentRoomID = a.Room.ID
		loaded.CurrentRoomName = a.Room.Name
		if loaded.Screen == ScreenLobby {
			// a room snapshot is never played from the lobby
			loaded.Screen = ScreenSetup
		}
		return loaded, nil

	case DeleteRoom:
		if next.CurrentRoomID == a.RoomID {
			return InitialGameState(), nil
		}
		return next, nil
	}

	return state, ErrUnknownAction
}
