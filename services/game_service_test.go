package services

import (
	"context"
	"testing"
	"time"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) seedUser(t *testing.T, did string, team int) {
	t.Helper()
	require.NoError(t, env.users.Upsert(context.Background(), nil, &models.User{
		DID:       did,
		Team:      team,
		FirstSeen: time.Now().UTC(),
	}))
}

func TestCreateGameNotEnoughUsers(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	env.seedUser(t, "did:a", 0)
	// Team 1 has nobody.

	game, err := env.gameService.CreateGame(context.Background())
	require.NoError(t, err)
	assert.Nil(t, game)
	assert.Empty(t, env.data.games)
}

func TestCreateGameEnrollsAllUnassignedUsers(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	env.seedUser(t, "did:a", 0)
	env.seedUser(t, "did:b", 0)
	env.seedUser(t, "did:c", 1)

	game, err := env.gameService.CreateGame(context.Background())
	require.NoError(t, err)
	require.NotNil(t, game)

	assert.Equal(t, models.GameStatusRegistration, game.Status)
	assert.Len(t, env.data.gameParts[game.ID], 3)
	for _, did := range []string{"did:a", "did:b", "did:c"} {
		u := env.data.users[did]
		require.NotNil(t, u.CurrentGameID, did)
		assert.Equal(t, game.ID, *u.CurrentGameID, did)
	}
}

func TestCreateGameSkipsAlreadyAssignedUsers(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	env.seedUser(t, "did:a", 0)
	env.seedUser(t, "did:b", 1)
	env.seedUser(t, "did:busy", 0)
	other := 99
	env.data.users["did:busy"].CurrentGameID = &other

	game, err := env.gameService.CreateGame(context.Background())
	require.NoError(t, err)
	require.NotNil(t, game)

	assert.Len(t, env.data.gameParts[game.ID], 2)
	assert.Equal(t, other, *env.data.users["did:busy"].CurrentGameID)
}

func TestStartGameActivatesAndSeedsFirstRound(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	env.seedUser(t, "did:a", 0)
	env.seedUser(t, "did:b", 1)

	ctx := context.Background()
	game, err := env.gameService.CreateGame(ctx)
	require.NoError(t, err)
	require.NotNil(t, game)

	// A pre-game post inside the window gets backfilled.
	require.NoError(t, env.posts.Insert(ctx, nil, &models.Post{
		URI: "at://did:a/early", UserID: "did:a", Team: 0,
		IndexedAt: time.Now().UTC(), Active: true,
	}))

	round, err := env.gameService.StartGame(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, round)

	updated, err := env.games.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusActive, updated.Status)
	require.NotNil(t, updated.CurrentRoundID)
	assert.Equal(t, round.ID, *updated.CurrentRoundID)

	assert.Len(t, env.data.roundParts[round.ID], 2)

	post := env.data.posts["at://did:a/early"]
	require.NotNil(t, post.GameID)
	assert.Equal(t, game.ID, *post.GameID)
	require.NotNil(t, post.RoundID)
	assert.Equal(t, round.ID, *post.RoundID)
}

func TestStartGameRefusesWrongStatus(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	env.seedUser(t, "did:a", 0)
	env.seedUser(t, "did:b", 1)

	ctx := context.Background()
	game, err := env.gameService.CreateGame(ctx)
	require.NoError(t, err)
	_, err = env.gameService.StartGame(ctx, game.ID)
	require.NoError(t, err)

	// Second start finds the game already active and does nothing.
	round, err := env.gameService.StartGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, round)
	assert.Len(t, env.data.rounds, 1)
}

func TestCompleteGamePicksWinnerAndFreesUsers(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	game, _ := env.seedActiveRound(t, time.Now().UTC(), []models.RoundParticipant{
		rp("did:a", 0, 10),
		rp("did:b", 1, 30),
	})
	env.seedUser(t, "did:a", 0)
	env.seedUser(t, "did:b", 1)
	env.data.users["did:a"].CurrentGameID = &game.ID
	env.data.users["did:b"].CurrentGameID = &game.ID

	require.NoError(t, env.gameService.CompleteGame(context.Background(), game.ID))

	updated, err := env.games.GetByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusCompleted, updated.Status)
	require.NotNil(t, updated.Winner)
	assert.Equal(t, 1, *updated.Winner)

	assert.Nil(t, env.data.users["did:a"].CurrentGameID)
	assert.Nil(t, env.data.users["did:b"].CurrentGameID)
}

func TestCompleteGameWinnerTieGoesToLowerTeam(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	game, _ := env.seedActiveRound(t, time.Now().UTC(), []models.RoundParticipant{
		rp("did:a", 0, 25),
		rp("did:b", 1, 25),
	})

	require.NoError(t, env.gameService.CompleteGame(context.Background(), game.ID))

	updated, err := env.games.GetByID(context.Background(), game.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Winner)
	assert.Equal(t, 0, *updated.Winner)
}

func TestCheckGameStatusCompletesExpiredGame(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	game, _ := env.seedActiveRound(t, time.Now().UTC(), []models.RoundParticipant{
		rp("did:a", 0, 10),
		rp("did:b", 1, 30),
	})
	env.data.games[game.ID].EndTime = time.Now().UTC().Add(-time.Minute)

	require.NoError(t, env.gameService.CheckGameStatus(context.Background()))

	updated, err := env.games.GetByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusCompleted, updated.Status)
}

func TestCheckGameStatusLeavesRunningGameAlone(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	game, _ := env.seedActiveRound(t, time.Now().UTC().Add(time.Hour), []models.RoundParticipant{
		rp("did:a", 0, 10),
	})

	require.NoError(t, env.gameService.CheckGameStatus(context.Background()))

	updated, err := env.games.GetByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusActive, updated.Status)
}

func TestEnsureActiveGameCreatesAndStarts(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())
	env.seedUser(t, "did:a", 0)
	env.seedUser(t, "did:b", 1)

	game, err := env.gameService.EnsureActiveGame(context.Background())
	require.NoError(t, err)
	require.NotNil(t, game)

	updated, err := env.games.GetByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusActive, updated.Status)
	require.NotNil(t, updated.CurrentRoundID)
}

func TestEnsureActiveGameWithoutUsersIsNoOp(t *testing.T) {
	env := newTestEnv(t, defaultTestConfig())

	game, err := env.gameService.EnsureActiveGame(context.Background())
	require.NoError(t, err)
	assert.Nil(t, game)
	assert.Empty(t, env.data.games)
}
