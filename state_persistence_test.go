package lixi

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeGameState_RoundTrip(t *testing.T) {
	rng := NewSeededRandomGenerator(8)
	started := mustReduce(t, setupState(testDenominations()...), StartGame{}, rng)
	drawn := mustReduce(t, started, DrawPrize{}, rng)
	ended := playToEnd(t, started, rng)

	tests := []struct {
		name  string
		state GameState
	}{
		{"initial", InitialGameState()},
		{"setup", setupState(testDenominations()...)},
		{"fingerprint", started},
		{"envelope", drawn},
		{"end", ended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := serializeGameState(tt.state)
			require.NoError(t, err)

			restored, err := deserializeGameState(data)
			require.NoError(t, err)
			assert.Equal(t, tt.state, restored)
		})
	}
}

func TestSerializeGameState_Format(t *testing.T) {
	prize := int64(20000)
	gs := setupState(Denomination{ID: "a", Value: 20000, Quantity: 1})
	gs.Screen = ScreenEnvelope
	gs.CurrentPrize = &prize

	data, err := serializeGameState(gs)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &raw))
	for _, field := range []string{
		"screen", "denominations", "pool", "currentPrize", "totalPlayed",
		"totalMoneyGiven", "history", "currentRoomId", "currentRoomName",
	} {
		assert.Contains(t, raw, field)
	}
	assert.Equal(t, "envelope", raw["screen"])
}

func TestSerializeGameState_UnboundRoomIsNull(t *testing.T) {
	decode := func(gs GameState) map[string]any {
		data, err := serializeGameState(gs)
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal([]byte(data), &raw))
		return raw
	}

	unbound := decode(InitialGameState())
	require.Contains(t, unbound, "currentRoomId")
	assert.Nil(t, unbound["currentRoomId"])

	bound := decode(setupState())
	assert.Equal(t, "room_1", bound["currentRoomId"])

	// 房间内嵌的 gameState 同样遵循
	data, err := json.Marshal(Room{ID: "a", Name: "A", GameState: InitialGameState()})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"currentRoomId":null`)
}

func TestDeserializeGameState_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		errorType error
	}{
		{"empty", "", ErrDeserializationFailed},
		{"not json", "{not json", ErrDeserializationFailed},
		{"unknown screen", `{"screen":"bonus"}`, ErrStateCorrupted},
		{"history mismatch", `{"screen":"setup","totalPlayed":2,"history":[10000]}`, ErrStateCorrupted},
		{"negative totals", `{"screen":"setup","totalMoneyGiven":-1}`, ErrStateCorrupted},
		{"prize outside envelope", `{"screen":"fingerprint","currentPrize":10000}`, ErrStateCorrupted},
		{"envelope without prize", `{"screen":"envelope"}`, ErrStateCorrupted},
		{"broken conservation", `{"screen":"fingerprint","denominations":[{"id":"a","value":10000,"quantity":2}],"pool":[10000]}`, ErrStateCorrupted},
		{"duplicate values", `{"screen":"setup","denominations":[{"id":"a","value":1,"quantity":1},{"id":"b","value":1,"quantity":1}]}`, ErrStateCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := deserializeGameState(tt.raw)
			assert.ErrorIs(t, err, tt.errorType)
		})
	}
}

func TestDeserializeGameState_Normalizes(t *testing.T) {
	// 没有 screen 和房间信息的旧记录
	gs, err := deserializeGameState(`{"denominations":null,"pool":null,"history":null,"currentRoomId":null}`)
	require.NoError(t, err)
	assert.Equal(t, ScreenSetup, gs.Screen)
	assert.NotNil(t, gs.Denominations)
	assert.NotNil(t, gs.Pool)
	assert.NotNil(t, gs.History)
	assert.False(t, gs.IsBound())
}

func TestDeserializeRooms_SkipsCorrupt(t *testing.T) {
	good, err := json.Marshal(Room{ID: "a", Name: "A", CreatedAt: 1, GameState: setupState()})
	require.NoError(t, err)

	raw := "[" + string(good) + `,{"id":"","name":"no id"},{"id":"b","gameState":{"screen":"bonus"}},{"id":7}]`
	rooms, corrupt, skipped, err := deserializeRooms(raw)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "a", rooms[0].ID)
	assert.Len(t, skipped, 3)
	require.Len(t, corrupt, 3)
	assert.JSONEq(t, `{"id":"b","gameState":{"screen":"bonus"}}`, string(corrupt[1]))

	_, _, _, err = deserializeRooms("not json")
	assert.ErrorIs(t, err, ErrDeserializationFailed)
}

func TestSerializeRooms_KeepsCorruptEntries(t *testing.T) {
	kept := []json.RawMessage{json.RawMessage(`{"id":"b","gameState":{"screen":"bonus"}}`)}
	data, err := serializeRooms([]Room{{ID: "a", Name: "A", GameState: setupState()}}, kept)
	require.NoError(t, err)

	rooms, corrupt, _, err := deserializeRooms(data)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Len(t, corrupt, 1)
	assert.JSONEq(t, string(kept[0]), string(corrupt[0]))

	empty, err := serializeRooms(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)
}

func TestStatePersistenceManager_GameState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	spm := NewStatePersistenceManager(store, NewSilentLogger())

	// 没有记录时返回初始状态
	assert.Equal(t, InitialGameState(), spm.LoadGameState(ctx))

	gs := mustReduce(t, setupState(testDenominations()...), StartGame{}, NewSeededRandomGenerator(2))
	require.NoError(t, spm.SaveGameState(ctx, gs))
	assert.Equal(t, gs, spm.LoadGameState(ctx))

	raw, ok, err := store.Load(ctx, DefaultGameStateKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(raw, "{"))

	require.NoError(t, spm.ClearGameState(ctx))
	_, ok, err = store.Load(ctx, DefaultGameStateKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, InitialGameState(), spm.LoadGameState(ctx))
}

func TestStatePersistenceManager_CorruptFallback(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	spm := NewStatePersistenceManagerWithKeys(store, NewSilentLogger(), "game", "rooms")

	require.NoError(t, store.Save(ctx, "game", "{garbage"))
	require.NoError(t, store.Save(ctx, "rooms", "[garbage"))

	assert.Equal(t, InitialGameState(), spm.LoadGameState(ctx))
	assert.Equal(t, []Room{}, spm.LoadRooms(ctx))
}

func TestStatePersistenceManager_StoreFailure(t *testing.T) {
	ctx := context.Background()
	spm := NewStatePersistenceManager(&failingStore{}, NewSilentLogger())

	assert.Equal(t, InitialGameState(), spm.LoadGameState(ctx))
	assert.Equal(t, []Room{}, spm.LoadRooms(ctx))
	assert.ErrorIs(t, spm.SaveGameState(ctx, InitialGameState()), ErrStorageFailure)
	assert.ErrorIs(t, spm.SaveRooms(ctx, nil), ErrStorageFailure)
	assert.ErrorIs(t, spm.ClearGameState(ctx), ErrStorageFailure)
}

func TestStatePersistenceManager_Rooms(t *testing.T) {
	ctx := context.Background()
	spm := NewStatePersistenceManager(NewMemoryStore(), NewSilentLogger())

	rooms := []Room{
		{ID: "a", Name: "A", CreatedAt: 1, GameState: newRoomGameState("a", "A")},
		{ID: "b", Name: "B", CreatedAt: 2, GameState: mustReduce(t,
			setupState(testDenominations()...), StartGame{}, NewSeededRandomGenerator(1))},
	}
	require.NoError(t, spm.SaveRooms(ctx, rooms))
	assert.Equal(t, rooms, spm.LoadRooms(ctx))
}
