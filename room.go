package lixi

import (
	"fmt"
	"slices"
	"strings"
)

// Room is a named, persisted, independently resumable session
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt int64     `json:"createdAt"` // unix milliseconds
	GameState GameState `json:"gameState"`
}

// RoomStatus summarizes where a room's game stands
type RoomStatus string

const (
	RoomStatusNew     RoomStatus = "new"
	RoomStatusPlaying RoomStatus = "playing"
	RoomStatusEnded   RoomStatus = "ended"
)

// Status derives the room status from its snapshot
func (r Room) Status() RoomStatus {
	gs := r.GameState
	switch {
	case gs.Screen == ScreenEnd:
		return RoomStatusEnded
	case gs.Screen == ScreenSetup && len(gs.Pool) == 0 && gs.TotalPlayed == 0:
		return RoomStatusNew
	default:
		return RoomStatusPlaying
	}
}

// Progress returns how many envelopes were handed out and how many exist in total
func (r Room) Progress() (played, total int) {
	return r.GameState.TotalPlayed, TotalEnvelopes(r.GameState.Denominations)
}

// Validate checks a room record loaded from storage
func (r Room) Validate() error {
	if r.ID == "" {
		return ErrStateCorrupted.WithDetails("room id cannot be empty")
	}
	if err := r.GameState.Validate(); err != nil {
		return fmt.Errorf("room %s: %w", r.ID, err)
	}
	return nil
}

// SortRoomsByNewest orders rooms by CreatedAt descending, in place
func SortRoomsByNewest(rooms []Room) {
	slices.SortStableFunc(rooms, func(a, b Room) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})
}

// DefaultRoomName returns name trimmed, or "Phòng N" when it is blank, where N
// is existing+1.
func DefaultRoomName(name string, existing int) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf(DefaultRoomNameFormat, existing+1)
}
