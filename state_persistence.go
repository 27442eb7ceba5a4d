package lixi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// StatePersistenceManager serializes sessions and room lists into a Store.
// Missing or malformed records never surface as failures to the caller of the
// Load* methods: they fall back to the initial session or an empty room list.
type StatePersistenceManager struct {
	store    Store
	logger   Logger
	gameKey  string
	roomsKey string
}

// NewStatePersistenceManager creates a new state persistence manager using the default keys
func NewStatePersistenceManager(store Store, logger Logger) *StatePersistenceManager {
	return NewStatePersistenceManagerWithKeys(store, logger, DefaultGameStateKey, DefaultRoomsKey)
}

// NewStatePersistenceManagerWithKeys creates a new state persistence manager with custom record keys
func NewStatePersistenceManagerWithKeys(store Store, logger Logger, gameKey, roomsKey string) *StatePersistenceManager {
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &StatePersistenceManager{
		store:    store,
		logger:   logger,
		gameKey:  gameKey,
		roomsKey: roomsKey,
	}
}

// serializeGameState serializes a GameState to JSON
func serializeGameState(gs GameState) (string, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return "", ErrSerializationFailed.WithCause(err)
	}
	if len(data) > MaxSerializationSize {
		return "", ErrSerializationFailed.WithDetails(fmt.Sprintf(
			"serialized session size (%d bytes) exceeds maximum allowed size (%d bytes): room=%s, pool=%d, history=%d",
			len(data), MaxSerializationSize, gs.CurrentRoomID, len(gs.Pool), len(gs.History)))
	}
	return string(data), nil
}

// deserializeGameState parses and validates a serialized GameState
func deserializeGameState(raw string) (GameState, error) {
	if raw == "" {
		return GameState{}, ErrDeserializationFailed.WithDetails("empty record")
	}
	if len(raw) > MaxSerializationSize {
		return GameState{}, ErrDeserializationFailed.WithDetails("record exceeds maximum allowed size")
	}

	var gs GameState
	if err := json.Unmarshal([]byte(raw), &gs); err != nil {
		return GameState{}, ErrDeserializationFailed.WithCause(err)
	}
	normalizeGameState(&gs)

	if err := gs.Validate(); err != nil {
		return GameState{}, err
	}
	return gs, nil
}

// normalizeGameState replaces JSON nulls with empty collections and fills in
// records written before rooms existed (no screen means a bare setup session).
func normalizeGameState(gs *GameState) {
	if gs.Denominations == nil {
		gs.Denominations = []Denomination{}
	}
	if gs.Pool == nil {
		gs.Pool = []int64{}
	}
	if gs.History == nil {
		gs.History = []int64{}
	}
	if gs.Screen == "" {
		gs.Screen = ScreenSetup
	}
}

// serializeRooms encodes rooms followed by any entries kept verbatim
func serializeRooms(rooms []Room, kept []json.RawMessage) (string, error) {
	entries := make([]any, 0, len(rooms)+len(kept))
	for _, r := range rooms {
		entries = append(entries, r)
	}
	for _, raw := range kept {
		entries = append(entries, raw)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return "", ErrSerializationFailed.WithCause(err)
	}
	if len(data) > MaxSerializationSize {
		return "", ErrSerializationFailed.WithDetails(fmt.Sprintf(
			"serialized room list size (%d bytes) exceeds maximum allowed size (%d bytes): rooms=%d",
			len(data), MaxSerializationSize, len(rooms)+len(kept)))
	}
	return string(data), nil
}

// deserializeRooms parses a room list. Entries that fail to decode or
// validate are returned untouched in corrupt, with the reason in skipped.
func deserializeRooms(raw string) (rooms []Room, corrupt []json.RawMessage, skipped []error, err error) {
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, nil, nil, ErrDeserializationFailed.WithCause(err)
	}

	rooms = make([]Room, 0, len(entries))
	for _, entry := range entries {
		var r Room
		if err := json.Unmarshal(entry, &r); err != nil {
			corrupt = append(corrupt, entry)
			skipped = append(skipped, ErrDeserializationFailed.WithCause(err))
			continue
		}
		normalizeGameState(&r.GameState)
		if err := r.Validate(); err != nil {
			corrupt = append(corrupt, entry)
			skipped = append(skipped, err)
			continue
		}
		rooms = append(rooms, r)
	}
	return rooms, corrupt, skipped, nil
}

// SaveGameState writes the active session record
func (spm *StatePersistenceManager) SaveGameState(ctx context.Context, gs GameState) error {
	start := time.Now()
	data, err := serializeGameState(gs)
	if err != nil {
		spm.logger.Error("Failed to serialize session: room=%s, screen=%s, error=%v", gs.CurrentRoomID, gs.Screen, err)
		return err
	}

	if err := spm.store.Save(ctx, spm.gameKey, data); err != nil {
		spm.logger.Error("Failed to save session: key=%s, size=%d bytes, error=%v", spm.gameKey, len(data), err)
		return fmt.Errorf("save session %s: %w", spm.gameKey, err)
	}

	spm.logger.Debug("Saved session: key=%s, screen=%s, size=%d bytes, elapsed=%v",
		spm.gameKey, gs.Screen, len(data), time.Since(start))
	return nil
}

// LoadGameState reads the active session record, falling back to the initial
// lobby session when the record is missing, unreadable or corrupt.
func (spm *StatePersistenceManager) LoadGameState(ctx context.Context) GameState {
	raw, ok, err := spm.store.Load(ctx, spm.gameKey)
	if err != nil {
		spm.logger.Error("Failed to load session, starting fresh: key=%s, error=%v", spm.gameKey, err)
		return InitialGameState()
	}
	if !ok {
		spm.logger.Debug("No saved session found: key=%s", spm.gameKey)
		return InitialGameState()
	}

	gs, err := deserializeGameState(raw)
	if err != nil {
		spm.logger.Error("Saved session is corrupt, starting fresh: key=%s, size=%d bytes, error=%v",
			spm.gameKey, len(raw), err)
		return InitialGameState()
	}

	spm.logger.Debug("Loaded session: key=%s, screen=%s, room=%s", spm.gameKey, gs.Screen, gs.CurrentRoomID)
	return gs
}

// ClearGameState removes the active session record
func (spm *StatePersistenceManager) ClearGameState(ctx context.Context) error {
	if err := spm.store.Remove(ctx, spm.gameKey); err != nil {
		spm.logger.Error("Failed to remove session: key=%s, error=%v", spm.gameKey, err)
		return fmt.Errorf("remove session %s: %w", spm.gameKey, err)
	}
	return nil
}

// SaveRooms overwrites the room list record
func (spm *StatePersistenceManager) SaveRooms(ctx context.Context, rooms []Room) error {
	return spm.saveRoomRecords(ctx, roomRecords{rooms: rooms})
}

// LoadRooms reads the room list, falling back to an empty list when the
// record is missing, unreadable or corrupt. Individually corrupt rooms are left out.
func (spm *StatePersistenceManager) LoadRooms(ctx context.Context) []Room {
	return spm.loadRoomRecords(ctx).rooms
}

// roomRecords is a decoded room list plus the stored entries that could not
// be decoded. The latter are written back as-is so that only an explicit
// delete removes a room from storage.
type roomRecords struct {
	rooms   []Room
	corrupt []json.RawMessage
}

func (spm *StatePersistenceManager) loadRoomRecords(ctx context.Context) roomRecords {
	empty := roomRecords{rooms: []Room{}}

	raw, ok, err := spm.store.Load(ctx, spm.roomsKey)
	if err != nil {
		spm.logger.Error("Failed to load rooms: key=%s, error=%v", spm.roomsKey, err)
		return empty
	}
	if !ok || raw == "" {
		return empty
	}

	rooms, corrupt, skipped, err := deserializeRooms(raw)
	if err != nil {
		spm.logger.Error("Saved room list is corrupt, ignoring it: key=%s, size=%d bytes, error=%v",
			spm.roomsKey, len(raw), err)
		return empty
	}
	for _, e := range skipped {
		spm.logger.Error("Skipping corrupt room: %v", e)
	}

	return roomRecords{rooms: rooms, corrupt: corrupt}
}

func (spm *StatePersistenceManager) saveRoomRecords(ctx context.Context, records roomRecords) error {
	data, err := serializeRooms(records.rooms, records.corrupt)
	if err != nil {
		spm.logger.Error("Failed to serialize rooms: count=%d, error=%v", len(records.rooms), err)
		return err
	}

	if err := spm.store.Save(ctx, spm.roomsKey, data); err != nil {
		spm.logger.Error("Failed to save rooms: key=%s, count=%d, error=%v", spm.roomsKey, len(records.rooms), err)
		return fmt.Errorf("save rooms %s: %w", spm.roomsKey, err)
	}

	spm.logger.Debug("Saved rooms: key=%s, count=%d, kept=%d, size=%d bytes",
		spm.roomsKey, len(records.rooms), len(records.corrupt), len(data))
	return nil
}
