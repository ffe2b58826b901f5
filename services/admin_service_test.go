package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
)

func TestAdminService_GetStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAdminService(f.store, discardLogger())
	owner := f.addUser(t, "owner", models.RoleUser)
	f.addUser(t, "admin", models.RoleAdmin)
	f.addTeam(t, "Alpha", owner, 1)
	f.addCompetition(t, models.Competition{MaxTeams: 2, PaymentLog: []models.PaymentRecord{
		{TeamID: 1, Amount: 1000, Status: models.PaymentStatusPaid},
		{TeamID: 2, Amount: 1000, Status: models.PaymentStatusPaid},
		{TeamID: 2, Amount: 1000, Status: models.PaymentStatusRefunded},
	}})
	f.addCompetition(t, models.Competition{MaxTeams: 2, Status: models.StatusCompleted})
	_, err := NewContactService(f.store).Submit(ctx, ContactInput{Name: "A", Email: "a@example.com", Message: "hi"})
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DashboardStats{
		UsersTotal:         2,
		TeamsTotal:         1,
		CompetitionsTotal:  2,
		ActiveCompetitions: 1,
		ContactMessages:    1,
		RevenuePaid:        2000,
		RevenueRefunded:    1000,
		RevenueNet:         1000,
	}, stats)
}

func TestAdminService_Users(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAdminService(f.store, discardLogger())
	admin := f.addUser(t, "admin", models.RoleAdmin)
	user := f.addUser(t, "ann", models.RoleUser)
	_, err := NewCardService(f.store).SaveCard(ctx, user.ID, *validCard())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(ctx, Actor{UserID: admin.ID, IsAdmin: true}, admin.ID), ErrForbiddenOperation)
	require.NoError(t, svc.DeleteUser(ctx, Actor{UserID: admin.ID, IsAdmin: true}, user.ID))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, admin.ID, users[0].ID)

	cards, err := NewCardService(f.store).ListCards(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cards, "cards of a deleted user are removed")
}

func TestContactService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewContactService(f.store)

	_, err := svc.Submit(ctx, ContactInput{Name: "A", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrContactFieldMissing)
	_, err = svc.Submit(ctx, ContactInput{Name: "A", Email: "nope", Message: "hi"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	msg, err := svc.Submit(ctx, ContactInput{Name: "A", Email: "A@Example.com", Subject: "Q", Message: " hi "})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", msg.Email)
	assert.Equal(t, "hi", msg.Message)

	_, err = svc.List(ctx, Actor{UserID: 1})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
	msgs, err := svc.List(ctx, Actor{IsAdmin: true})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	require.NoError(t, svc.Delete(ctx, Actor{IsAdmin: true}, msg.ID))
	assert.ErrorIs(t, svc.Delete(ctx, Actor{IsAdmin: true}, msg.ID), ErrContactMessageNotFound)
}

func TestLeaderboardService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.addUser(t, "owner", models.RoleUser)
	alpha := f.addTeam(t, "Alpha", owner, 1)
	beta := f.addTeam(t, "Beta", owner, 1)
	gamma := f.addTeam(t, "Gamma", owner, 1)
	require.NoError(t, f.store.Update(ctx, func(sess *repositories.Session) error {
		beta.CompetitionCount = 2
		return sess.Teams().Update(ctx, beta)
	}))
	f.addCompetition(t, models.Competition{MaxTeams: 4, Status: models.StatusCompleted, PrizeDistribution: []models.PrizeShare{
		{TeamID: gamma.ID, Amount: 300},
		{TeamID: alpha.ID, Amount: 300},
	}})
	f.addCompetition(t, models.Competition{MaxTeams: 4, Status: models.StatusCompleted, PrizeDistribution: []models.PrizeShare{
		{TeamID: gamma.ID, Amount: 100},
	}})

	board, err := NewLeaderboardService(f.store).GetLeaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, models.LeaderboardEntry{Rank: 1, TeamID: gamma.ID, TeamName: "Gamma", PrizeTotal: 400}, board[0])
	assert.Equal(t, alpha.ID, board[1].TeamID)
	assert.Equal(t, beta.ID, board[2].TeamID)
	assert.Equal(t, 3, board[2].Rank)

	top, err := NewLeaderboardService(f.store).GetLeaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
