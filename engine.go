package lixi

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Game is the engine driving the active session. It owns the live GameState,
// applies transitions through Reduce and writes the result back to the store
// (session record plus the bound room's snapshot) after every transition.
//
// Persistence failures are logged and counted in the monitor; they never turn
// an accepted transition into an error.
type Game struct {
	mu sync.Mutex

	state       GameState
	rng         RandomGenerator
	ids         IDGenerator
	persistence *StatePersistenceManager
	registry    *RoomRegistry
	logger      Logger
	monitor     *GameMonitor
	now         func() time.Time

	gameKey  string
	roomsKey string
}

// GameOption configures a Game
type GameOption func(*Game)

// WithRandomGenerator sets the randomness source used to shuffle and draw
func WithRandomGenerator(rng RandomGenerator) GameOption {
	return func(g *Game) {
		if rng != nil {
			g.rng = rng
		}
	}
}

// WithIDGenerator sets the generator used for room and denomination ids
func WithIDGenerator(ids IDGenerator) GameOption {
	return func(g *Game) {
		if ids != nil {
			g.ids = ids
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger Logger) GameOption {
	return func(g *Game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMonitor sets the monitor that receives game counters
func WithMonitor(monitor *GameMonitor) GameOption {
	return func(g *Game) {
		if monitor != nil {
			g.monitor = monitor
		}
	}
}

// WithStorageKeys overrides the session and room list keys
func WithStorageKeys(gameKey, roomsKey string) GameOption {
	return func(g *Game) {
		if gameKey != "" {
			g.gameKey = gameKey
		}
		if roomsKey != "" {
			g.roomsKey = roomsKey
		}
	}
}

// WithClock sets the clock used for room creation timestamps
func WithClock(now func() time.Time) GameOption {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGame creates an engine on top of store and restores the last session
// from it. A missing or corrupt session record yields the initial lobby state.
func NewGame(ctx context.Context, store Store, opts ...GameOption) (*Game, error) {
	if store == nil {
		return nil, ErrInvalidParameters.WithDetails("store cannot be nil")
	}

	g := &Game{
		rng:      NewSecureRandomGenerator(),
		ids:      NewUUIDGenerator(),
		logger:   NewDefaultLogger(),
		monitor:  NewGameMonitor(),
		now:      time.Now,
		gameKey:  DefaultGameStateKey,
		roomsKey: DefaultRoomsKey,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.persistence = NewStatePersistenceManagerWithKeys(store, g.logger, g.gameKey, g.roomsKey)
	g.registry = NewRoomRegistry(g.persistence, g.logger)
	g.state = g.persistence.LoadGameState(ctx)

	g.logger.Info("Game restored: screen=%s, room=%s, remaining=%d",
		g.state.Screen, g.state.CurrentRoomID, g.state.Remaining())
	return g, nil
}

// NewGameFromConfig builds the configured store and an engine on top of it.
// The returned close function releases the store.
func NewGameFromConfig(ctx context.Context, config *Config, logger Logger, opts ...GameOption) (*Game, func() error, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}

	store, closeFn, err := NewStoreFromConfig(config, logger)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]GameOption{
		WithLogger(logger),
		WithStorageKeys(config.Game.StateKey, config.Game.RoomsKey),
	}, opts...)

	g, err := NewGame(ctx, store, opts...)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return g, closeFn, nil
}

// State returns a copy of the active session
func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// Rooms returns every stored room, newest first
func (g *Game) Rooms(ctx context.Context) []Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.ListRooms(ctx)
}

// Room returns the stored room with the given id
func (g *Game) Room(ctx context.Context, id string) (Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.GetRoom(ctx, id)
}

// Monitor returns the engine's monitor
func (g *Game) Monitor() *GameMonitor { return g.monitor }

// Dispatch applies act to the active session and persists the result
func (g *Game) Dispatch(ctx context.Context, act Action) (GameState, error) {
	return g.apply(ctx, func(GameState) (Action, error) { return act, nil })
}

// apply builds an action from the current state and dispatches it while
// holding the engine lock.
func (g *Game) apply(ctx context.Context, build func(GameState) (Action, error)) (GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.state
	act, err := build(prev)
	if err != nil {
		return prev.Clone(), err
	}

	next, err := Reduce(prev, act, g.rng)
	if err != nil {
		g.monitor.RecordTransition(false)
		g.logger.Debug("Transition rejected: action=%s, screen=%s, err=%v", act.Type(), prev.Screen, err)
		return prev.Clone(), err
	}
	g.monitor.RecordTransition(true)

	switch act.(type) {
	case DrawPrize:
		g.monitor.RecordDraw(next.CurrentPrize == nil)
	case NextPlayer:
		g.monitor.RecordPlayer(*prev.CurrentPrize)
	case GoToLobby:
		// 离开房间前先写回最后的快照
		g.syncRoom(ctx, prev)
	}

	g.state = next
	g.logger.Debug("Transition applied: action=%s, %s -> %s, remaining=%d, played=%d",
		act.Type(), prev.Screen, next.Screen, next.Remaining(), next.TotalPlayed)

	if _, ok := act.(ResetGame); ok {
		err := g.persistence.ClearGameState(ctx)
		g.recordWrite("clear session", err)
	} else {
		g.persist(ctx, next)
	}

	return next.Clone(), nil
}

// persist writes the session record and the bound room's snapshot
func (g *Game) persist(ctx context.Context, gs GameState) {
	err := g.persistence.SaveGameState(ctx, gs)
	g.recordWrite("save session", err)
	g.syncRoom(ctx, gs)
}

func (g *Game) syncRoom(ctx context.Context, gs GameState) {
	if !gs.IsBound() || gs.Screen == ScreenLobby {
		return
	}
	err := g.registry.SyncGameState(ctx, gs)
	g.recordWrite("sync room "+gs.CurrentRoomID, err)
}

func (g *Game) recordWrite(operation string, err error) {
	g.monitor.RecordStorageWrite(err)
	if err != nil {
		g.logger.Error("Persistence failed: op=%s, err=%v", operation, err)
	}
}

// SetDenominations replaces the denomination set of the active session
func (g *Game) SetDenominations(ctx context.Context, denoms []Denomination) (GameState, error) {
	return g.apply(ctx, func(GameState) (Action, error) {
		if err := ValidateDenominations(denoms); err != nil {
			return nil, err
		}
		return SetDenominations{Denominations: denoms}, nil
	})
}

// AddDenomination adds quantity envelopes of value, merging with an existing
// entry of the same value.
func (g *Game) AddDenomination(ctx context.Context, value int64, quantity int) (GameState, error) {
	return g.editDenominations(ctx, func(denoms []Denomination) ([]Denomination, error) {
		return AddDenomination(denoms, value, quantity, g.ids)
	})
}

// RemoveDenomination removes the entry with the given id
func (g *Game) RemoveDenomination(ctx context.Context, id string) (GameState, error) {
	return g.editDenominations(ctx, func(denoms []Denomination) ([]Denomination, error) {
		return RemoveDenomination(denoms, id)
	})
}

// UpdateDenominationQuantity sets the quantity of an entry; zero or less removes it
func (g *Game) UpdateDenominationQuantity(ctx context.Context, id string, quantity int) (GameState, error) {
	return g.editDenominations(ctx, func(denoms []Denomination) ([]Denomination, error) {
		return UpdateQuantity(denoms, id, quantity)
	})
}

// EditDenomination changes value and quantity of an entry
func (g *Game) EditDenomination(ctx context.Context, id string, value int64, quantity int) (GameState, error) {
	return g.editDenominations(ctx, func(denoms []Denomination) ([]Denomination, error) {
		return EditDenomination(denoms, id, value, quantity)
	})
}

func (g *Game) editDenominations(ctx context.Context, edit func([]Denomination) ([]Denomination, error)) (GameState, error) {
	return g.apply(ctx, func(s GameState) (Action, error) {
		if !CanApply(s.Screen, ActionSetDenominations) {
			return SetDenominations{}, nil // rejected by Reduce
		}
		denoms, err := edit(s.Denominations)
		if err != nil {
			return nil, err
		}
		return SetDenominations{Denominations: denoms}, nil
	})
}

// StartGame builds the pool and moves to the first player. An empty
// denomination set is refused with ErrEmptyDenominations.
func (g *Game) StartGame(ctx context.Context) (GameState, error) {
	return g.apply(ctx, func(s GameState) (Action, error) {
		if s.Screen == ScreenSetup && TotalEnvelopes(s.Denominations) == 0 {
			return nil, ErrEmptyDenominations
		}
		return StartGame{}, nil
	})
}

// DrawPrize draws one envelope for the current player. When the pool is
// already empty the session moves to the end screen instead.
func (g *Game) DrawPrize(ctx context.Context) (GameState, error) {
	return g.Dispatch(ctx, DrawPrize{})
}

// NextPlayer records the current prize and moves on
func (g *Game) NextPlayer(ctx context.Context) (GameState, error) {
	return g.Dispatch(ctx, NextPlayer{})
}

// ResetGame discards the active session and removes its record
func (g *Game) ResetGame(ctx context.Context) (GameState, error) {
	return g.Dispatch(ctx, ResetGame{})
}

// GoToLobby writes the session back into its room and returns to the lobby
func (g *Game) GoToLobby(ctx context.Context) (GameState, error) {
	return g.Dispatch(ctx, GoToLobby{})
}

// CreateRoom allocates and stores a new room, then makes it the active
// session. A blank name becomes "Phòng N".
func (g *Game) CreateRoom(ctx context.Context, name string) (Room, error) {
	var room Room
	_, err := g.apply(ctx, func(s GameState) (Action, error) {
		if !CanApply(s.Screen, ActionCreateRoom) {
			return CreateRoom{}, nil // rejected by Reduce
		}

		id := g.ids.NewID(RoomIDPrefix)
		existing := len(g.registry.ListRooms(ctx))
		roomName := DefaultRoomName(name, existing)
		room = Room{
			ID:        id,
			Name:      roomName,
			CreatedAt: g.now().UnixMilli(),
			GameState: newRoomGameState(id, roomName),
		}

		err := g.registry.SaveRoom(ctx, room)
		g.recordWrite("create room "+id, err)
		if err == nil {
			g.logger.Info("Room created: id=%s, name=%s", id, roomName)
		}
		return CreateRoom{RoomID: id, Name: roomName}, nil
	})
	if err != nil {
		return Room{}, err
	}
	return room, nil
}

// LoadRoom makes the stored room with the given id the active session
func (g *Game) LoadRoom(ctx context.Context, id string) (GameState, error) {
	return g.apply(ctx, func(s GameState) (Action, error) {
		if !CanApply(s.Screen, ActionLoadRoom) {
			return LoadRoom{}, nil // rejected by Reduce
		}
		room, err := g.registry.GetRoom(ctx, id)
		if err != nil {
			return nil, err
		}
		g.logger.Info("Room loaded: id=%s, name=%s, screen=%s", room.ID, room.Name, room.GameState.Screen)
		return LoadRoom{Room: room}, nil
	})
}

// DeleteRoom removes a room from the registry. If it is the active session,
// the session returns to the lobby.
func (g *Game) DeleteRoom(ctx context.Context, id string) (GameState, error) {
	return g.apply(ctx, func(GameState) (Action, error) {
		err := g.registry.DeleteRoom(ctx, id)
		if errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
		g.recordWrite("delete room "+id, err)
		return DeleteRoom{RoomID: id}, nil
	})
}
