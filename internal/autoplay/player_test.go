package autoplay

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
)

func spawn(id string, kind piece.Kind, tags ...string) events.GameEvent {
	return events.GameEvent{
		Type:    events.EventTypePieceSpawn,
		Payload: events.PieceSpawnPayload{PieceID: id, Kind: kind, Tags: tags},
	}
}

func startRound(p *Player) {
	p.Observe(events.GameEvent{
		Type:    events.EventTypeRoundStarted,
		Payload: events.RoundStartedPayload{Request: request.Request{Name: "Ada", Likes: "red", Dislikes: "blue"}},
	})
}

func TestPlayerPicksLikedPieces(t *testing.T) {
	p := NewPlayer(0, rand.New(rand.NewSource(1)))
	startRound(p)
	p.Observe(spawn("body_blue", piece.KindBody, "blue"))
	p.Observe(spawn("body_red", piece.KindBody, "red"))
	p.Observe(spawn("head_plain", piece.KindHead))
	p.Observe(spawn("head_blue", piece.KindHead, "blue"))

	assert.Nil(t, p.NextDrops(), "no drops before building starts")

	p.Observe(events.GameEvent{Type: events.EventTypeBuildStarted})
	drops := p.NextDrops()
	assert.Equal(t, []Drop{
		{PieceID: "body_red", Anchor: piece.KindBody},
		{PieceID: "head_plain", Anchor: piece.KindHead},
	}, drops)
	assert.Nil(t, p.NextDrops(), "drops are planned once per round")
}

func TestPlayerMissRate(t *testing.T) {
	p := NewPlayer(2, rand.New(rand.NewSource(1)))
	startRound(p)
	p.Observe(spawn("body_red", piece.KindBody, "red"))
	p.Observe(events.GameEvent{Type: events.EventTypeBuildStarted})
	assert.Empty(t, p.NextDrops())
}

func TestPlayerTracksGameOver(t *testing.T) {
	p := NewPlayer(0, rand.New(rand.NewSource(1)))
	startRound(p)
	p.Observe(events.GameEvent{Type: events.EventTypeGameOver})
	assert.True(t, p.GameOver())

	p.Observe(events.GameEvent{Type: events.EventTypeSessionReset})
	assert.False(t, p.GameOver())
	p.Observe(events.GameEvent{Type: events.EventTypeBuildStarted})
	assert.Nil(t, p.NextDrops(), "no request after a reset")
}

func TestDecodeFrame(t *testing.T) {
	frame, err := json.Marshal(spawn("legs_red", piece.KindLegs, "red"))
	require.NoError(t, err)

	e, ok, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.True(t, ok)
	pl, isSpawn := e.Payload.(events.PieceSpawnPayload)
	require.True(t, isSpawn)
	assert.Equal(t, piece.KindLegs, pl.Kind)
	assert.Equal(t, []string{"red"}, pl.Tags)

	_, ok, err = DecodeFrame([]byte(`{"type":"ERROR","command":"DROP","error":"nope"}`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = DecodeFrame([]byte(`{"type":"PIECE_SPAWN","payload":{"kind":"WINGS"}}`))
	assert.Error(t, err)
}
