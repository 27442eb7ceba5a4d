package lixi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock returns a clock advancing by one second per call
func testClock() func() time.Time {
	now := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestGame(t *testing.T, store Store, opts ...GameOption) *Game {
	t.Helper()
	opts = append([]GameOption{
		WithRandomGenerator(NewSeededRandomGenerator(2026)),
		WithIDGenerator(NewSequenceGenerator()),
		WithLogger(NewSilentLogger()),
		WithClock(testClock()),
	}, opts...)

	g, err := NewGame(context.Background(), store, opts...)
	require.NoError(t, err)
	return g
}

// playGame draws and acknowledges until the active session ends
func playGame(t *testing.T, ctx context.Context, g *Game) GameState {
	t.Helper()
	state := g.State()
	for state.Screen != ScreenEnd {
		var err error
		state, err = g.DrawPrize(ctx)
		require.NoError(t, err)
		if state.Screen == ScreenEnvelope {
			state, err = g.NextPlayer(ctx)
			require.NoError(t, err)
		}
	}
	return state
}

func TestNewGame(t *testing.T) {
	_, err := NewGame(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	g := newTestGame(t, NewMemoryStore())
	assert.Equal(t, InitialGameState(), g.State())
	assert.Empty(t, g.Rooms(context.Background()))
	assert.NotNil(t, g.Monitor())
}

func TestGame_CreateRoom(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, NewMemoryStore())

	room, err := g.CreateRoom(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "room_1", room.ID)
	assert.Equal(t, "Phòng 1", room.Name)
	assert.Equal(t, time.Date(2026, 2, 17, 0, 0, 1, 0, time.UTC).UnixMilli(), room.CreatedAt)

	state := g.State()
	assert.Equal(t, ScreenSetup, state.Screen)
	assert.Equal(t, room.ID, state.CurrentRoomID)
	assert.Equal(t, room.Name, state.CurrentRoomName)

	rooms := g.Rooms(ctx)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)
	assert.Equal(t, RoomStatusNew, rooms[0].Status())

	stored, err := g.Room(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room, stored)
	_, err = g.Room(ctx, "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// 只能在大厅创建房间
	_, err = g.CreateRoom(ctx, "second")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, g.Rooms(ctx), 1)
}

func TestGame_DenominationEditing(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, NewMemoryStore())

	_, err := g.AddDenomination(ctx, 10000, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition, "not allowed in the lobby")

	_, err = g.CreateRoom(ctx, "Room A")
	require.NoError(t, err)

	_, err = g.AddDenomination(ctx, 10000, 2)
	require.NoError(t, err)
	state, err := g.AddDenomination(ctx, 10000, 3)
	require.NoError(t, err)
	require.Len(t, state.Denominations, 1)
	assert.Equal(t, 5, state.Denominations[0].Quantity)
	id := state.Denominations[0].ID

	state, err = g.EditDenomination(ctx, id, 20000, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), state.Denominations[0].Value)

	state, err = g.UpdateDenominationQuantity(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Denominations[0].Quantity)

	_, err = g.AddDenomination(ctx, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidDenominationValue)

	state, err = g.RemoveDenomination(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, state.Denominations)

	_, err = g.SetDenominations(ctx, []Denomination{
		{ID: "x", Value: 1, Quantity: 1},
		{ID: "y", Value: 1, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrDuplicateDenomination)

	state, err = g.SetDenominations(ctx, testDenominations())
	require.NoError(t, err)
	assert.Len(t, state.Denominations, 3)

	// 房间快照同步更新
	room, err := g.Room(ctx, state.CurrentRoomID)
	require.NoError(t, err)
	assert.Equal(t, state.Denominations, room.GameState.Denominations)
}

func TestGame_StartGameEmptySet(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, NewMemoryStore())
	_, err := g.CreateRoom(ctx, "empty")
	require.NoError(t, err)

	before := g.State()
	_, err = g.StartGame(ctx)
	assert.ErrorIs(t, err, ErrEmptyDenominations)
	assert.Equal(t, before, g.State())
}

func TestGame_FullGame(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, NewMemoryStore())
	_, err := g.CreateRoom(ctx, "full")
	require.NoError(t, err)
	_, err = g.SetDenominations(ctx, testDenominations())
	require.NoError(t, err)

	_, err = g.NextPlayer(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	state, err := g.StartGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScreenFingerprint, state.Screen)

	state = playGame(t, ctx, g)
	assert.Equal(t, TotalValue(testDenominations()), state.TotalMoneyGiven)
	assert.Equal(t, TotalEnvelopes(testDenominations()), state.TotalPlayed)

	metrics := g.Monitor().GetMetrics()
	assert.Equal(t, int64(10), metrics.TotalDraws)
	assert.Equal(t, int64(10), metrics.PlayersServed)
	assert.Equal(t, TotalValue(testDenominations()), metrics.MoneyGiven)
	assert.Equal(t, int64(1), metrics.RejectedTransition)
	assert.Zero(t, metrics.StorageErrors)

	rooms := g.Rooms(ctx)
	require.Len(t, rooms, 1)
	assert.Equal(t, RoomStatusEnded, rooms[0].Status())
}

func TestGame_RoomScenario(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, NewMemoryStore())

	roomA, err := g.CreateRoom(ctx, "Room A")
	require.NoError(t, err)
	_, err = g.AddDenomination(ctx, 10000, 2)
	require.NoError(t, err)
	_, err = g.AddDenomination(ctx, 50000, 1)
	require.NoError(t, err)
	_, err = g.StartGame(ctx)
	require.NoError(t, err)
	playGame(t, ctx, g)
	_, err = g.GoToLobby(ctx)
	require.NoError(t, err)

	roomB, err := g.CreateRoom(ctx, "Room B")
	require.NoError(t, err)
	_, err = g.GoToLobby(ctx)
	require.NoError(t, err)

	state, err := g.LoadRoom(ctx, roomA.ID)
	require.NoError(t, err)
	assert.Equal(t, ScreenEnd, state.Screen)
	assert.Equal(t, "Room A", state.CurrentRoomName)

	rooms := g.Rooms(ctx)
	require.Len(t, rooms, 2)
	assert.Equal(t, roomB.ID, rooms[0].ID, "newest first")

	a, err := g.Room(ctx, roomA.ID)
	require.NoError(t, err)
	assert.Equal(t, ScreenEnd, a.GameState.Screen)
	assert.Equal(t, int64(70000), a.GameState.TotalMoneyGiven)
	assert.Equal(t, 3, a.GameState.TotalPlayed)

	b, err := g.Room(ctx, roomB.ID)
	require.NoError(t, err)
	assert.Equal(t, ScreenSetup, b.GameState.Screen)
	assert.Zero(t, b.GameState.TotalPlayed)
	assert.Zero(t, b.GameState.TotalMoneyGiven)
	assert.Empty(t, b.GameState.History)
	assert.Equal(t, RoomStatusNew, b.Status())
}

func TestGame_GoToLobbyFlushesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	g := newTestGame(t, store)

	room, err := g.CreateRoom(ctx, "flush")
	require.NoError(t, err)
	_, err = g.SetDenominations(ctx, testDenominations())
	require.NoError(t, err)
	_, err = g.StartGame(ctx)
	require.NoError(t, err)
	drawn, err := g.DrawPrize(ctx)
	require.NoError(t, err)

	// 房间记录被其他写入覆盖后, 返回大厅会写回最后的快照
	rooms := g.Rooms(ctx)
	rooms[0].GameState = newRoomGameState(room.ID, room.Name)
	require.NoError(t, NewStatePersistenceManager(store, nil).SaveRooms(ctx, rooms))

	state, err := g.GoToLobby(ctx)
	require.NoError(t, err)
	assert.Equal(t, InitialGameState(), state)

	saved, err := g.Room(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, drawn, saved.GameState)
	assert.Equal(t, RoomStatusPlaying, saved.Status())
}

func TestGame_RestoresSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	g := newTestGame(t, store)

	_, err := g.CreateRoom(ctx, "persisted")
	require.NoError(t, err)
	_, err = g.SetDenominations(ctx, testDenominations())
	require.NoError(t, err)
	_, err = g.StartGame(ctx)
	require.NoError(t, err)
	expected, err := g.DrawPrize(ctx)
	require.NoError(t, err)

	restarted := newTestGame(t, store)
	assert.Equal(t, expected, restarted.State())

	// 重启后可以继续游戏
	state, err := restarted.NextPlayer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.TotalPlayed)
}

func TestGame_CorruptRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, DefaultGameStateKey, `{"screen":"envelope"}`))
	require.NoError(t, store.Save(ctx, DefaultRoomsKey, `{"not":"a list"}`))

	g := newTestGame(t, store)
	assert.Equal(t, InitialGameState(), g.State())
	assert.Empty(t, g.Rooms(ctx))

	// 损坏的记录在下一次写入时被覆盖
	_, err := g.CreateRoom(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, g.Rooms(ctx), 1)
}

func TestGame_DeleteRoom(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, NewMemoryStore())

	keep, err := g.CreateRoom(ctx, "keep")
	require.NoError(t, err)
	_, err = g.GoToLobby(ctx)
	require.NoError(t, err)
	active, err := g.CreateRoom(ctx, "active")
	require.NoError(t, err)
	_, err = g.SetDenominations(ctx, testDenominations())
	require.NoError(t, err)

	// 删除其他房间不影响当前会话
	state, err := g.DeleteRoom(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, state.CurrentRoomID)
	assert.Equal(t, ScreenSetup, state.Screen)

	// 删除当前房间回到大厅
	state, err = g.DeleteRoom(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, InitialGameState(), state)
	assert.Empty(t, g.Rooms(ctx))

	_, err = g.DeleteRoom(ctx, active.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = g.LoadRoom(ctx, active.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestGame_ResetGame(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	g := newTestGame(t, store)

	room, err := g.CreateRoom(ctx, "reset")
	require.NoError(t, err)
	_, ok, err := store.Load(ctx, DefaultGameStateKey)
	require.NoError(t, err)
	require.True(t, ok)

	state, err := g.ResetGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, InitialGameState(), state)

	_, ok, err = store.Load(ctx, DefaultGameStateKey)
	require.NoError(t, err)
	assert.False(t, ok, "session record must be removed")

	// 房间仍然保留
	_, err = g.Room(ctx, room.ID)
	assert.NoError(t, err)
}

func TestGame_PersistenceFailureDoesNotFailTransitions(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	g := newTestGame(t, store)
	assert.Equal(t, InitialGameState(), g.State())

	_, err := g.CreateRoom(ctx, "offline")
	require.NoError(t, err)
	_, err = g.AddDenomination(ctx, 10000, 2)
	require.NoError(t, err)
	state, err := g.StartGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScreenFingerprint, state.Screen)

	metrics := g.Monitor().GetMetrics()
	assert.Positive(t, metrics.StorageErrors)
	assert.Equal(t, metrics.StorageWrites, metrics.StorageErrors)
	assert.Positive(t, store.saves)
}

func TestGame_CustomStorageKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	g := newTestGame(t, store, WithStorageKeys("custom_game", "custom_rooms"))

	_, err := g.CreateRoom(ctx, "keys")
	require.NoError(t, err)

	for _, key := range []string{"custom_game", "custom_rooms"} {
		_, ok, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
	_, ok, err := store.Load(ctx, DefaultGameStateKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewGameFromConfig(t *testing.T) {
	config := DefaultConfig()
	config.Game.StateKey = "cfg_game"

	g, closeFn, err := NewGameFromConfig(context.Background(), config, NewSilentLogger(),
		WithRandomGenerator(NewSeededRandomGenerator(1)))
	require.NoError(t, err)
	defer closeFn()

	_, err = g.CreateRoom(context.Background(), "from config")
	require.NoError(t, err)
	assert.Equal(t, ScreenSetup, g.State().Screen)

	config.Storage.Backend = "tape"
	_, _, err = NewGameFromConfig(context.Background(), config, NewSilentLogger())
	assert.ErrorIs(t, err, ErrConfigInvalid)
}
