package lixi

import (
	"context"
	"slices"
)

// RoomRegistry is the durable collection of rooms. It is independent of the
// session currently being played; the engine writes snapshots into it.
type RoomRegistry struct {
	persistence *StatePersistenceManager
	logger      Logger
}

// NewRoomRegistry creates a registry on top of a persistence manager
func NewRoomRegistry(persistence *StatePersistenceManager, logger Logger) *RoomRegistry {
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &RoomRegistry{persistence: persistence, logger: logger}
}

// ListRooms returns every stored room, newest first
func (r *RoomRegistry) ListRooms(ctx context.Context) []Room {
	rooms := r.persistence.LoadRooms(ctx)
	SortRoomsByNewest(rooms)
	return rooms
}

// GetRoom returns the room with the given id
func (r *RoomRegistry) GetRoom(ctx context.Context, id string) (Room, error) {
	rooms := r.persistence.LoadRooms(ctx)
	idx := slices.IndexFunc(rooms, func(room Room) bool { return room.ID == id })
	if idx < 0 {
		return Room{}, ErrRoomNotFound.WithDetails(id)
	}
	return rooms[idx], nil
}

// SaveRoom inserts room, or replaces the stored room with the same id
func (r *RoomRegistry) SaveRoom(ctx context.Context, room Room) error {
	if room.ID == "" {
		return ErrInvalidParameters.WithDetails("room id cannot be empty")
	}

	records := r.persistence.loadRoomRecords(ctx)
	idx := slices.IndexFunc(records.rooms, func(existing Room) bool { return existing.ID == room.ID })
	if idx >= 0 {
		records.rooms[idx] = room
	} else {
		records.rooms = append(records.rooms, room)
	}

	if err := r.persistence.saveRoomRecords(ctx, records); err != nil {
		return err
	}

	r.logger.Debug("Room saved: id=%s, name=%s, screen=%s", room.ID, room.Name, room.GameState.Screen)
	return nil
}

// SyncGameState writes gs into the gameState of the room it is bound to.
// Unbound sessions and lobby sessions are not written.
func (r *RoomRegistry) SyncGameState(ctx context.Context, gs GameState) error {
	if !gs.IsBound() || gs.Screen == ScreenLobby {
		return nil
	}

	records := r.persistence.loadRoomRecords(ctx)
	idx := slices.IndexFunc(records.rooms, func(room Room) bool { return room.ID == gs.CurrentRoomID })
	if idx < 0 {
		r.logger.Debug("Session bound to unknown room, skipping sync: room=%s", gs.CurrentRoomID)
		return ErrRoomNotFound.WithDetails(gs.CurrentRoomID)
	}

	records.rooms[idx].GameState = gs.Clone()
	return r.persistence.saveRoomRecords(ctx, records)
}

// DeleteRoom removes the room with the given id. Deleting is irreversible.
func (r *RoomRegistry) DeleteRoom(ctx context.Context, id string) error {
	records := r.persistence.loadRoomRecords(ctx)
	idx := slices.IndexFunc(records.rooms, func(room Room) bool { return room.ID == id })
	if idx < 0 {
		return ErrRoomNotFound.WithDetails(id)
	}

	records.rooms = slices.Delete(records.rooms, idx, idx+1)
	if err := r.persistence.saveRoomRecords(ctx, records); err != nil {
		return err
	}

	r.logger.Info("Room deleted: id=%s", id)
	return nil
}
