package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-ledger/models"
)

func TestCompetitionService_CreateValidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCompetitionService(f.store, f.notifier, discardLogger())
	actor := Actor{UserID: 1}

	valid := CreateCompetitionInput{
		Name:      "Spring Cup",
		Type:      models.CompetitionTypeTeam,
		StartDate: fixedNow.Add(24 * time.Hour),
		EndDate:   fixedNow.Add(48 * time.Hour),
		MaxTeams:  8,
		EntryFee:  1000,
		PrizePool: 5000,
	}

	tests := []struct {
		name    string
		mutate  func(in *CreateCompetitionInput)
		wantErr error
	}{
		{name: "no name", mutate: func(in *CreateCompetitionInput) { in.Name = "  " }, wantErr: ErrCompetitionNameRequired},
		{name: "bad type", mutate: func(in *CreateCompetitionInput) { in.Type = "relay" }, wantErr: ErrCompetitionInvalidType},
		{name: "no capacity", mutate: func(in *CreateCompetitionInput) { in.MaxTeams = 0 }, wantErr: ErrCompetitionInvalidCapacity},
		{name: "negative fee", mutate: func(in *CreateCompetitionInput) { in.EntryFee = -1 }, wantErr: ErrCompetitionInvalidAmounts},
		{name: "dates reversed", mutate: func(in *CreateCompetitionInput) { in.EndDate = fixedNow }, wantErr: ErrCompetitionInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.CreateCompetition(ctx, actor, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	comp, err := svc.CreateCompetition(ctx, actor, valid)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), comp.ID)
	assert.Equal(t, models.StatusUpcoming, comp.Status)
	assert.Equal(t, int64(1), comp.OrganizerID)
	assert.NotNil(t, comp.Teams)
}

func TestCompetitionService_ListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCompetitionService(f.store, f.notifier, discardLogger())
	f.addCompetition(t, models.Competition{Name: "Team Late", Type: models.CompetitionTypeTeam, MaxTeams: 2, StartDate: fixedNow.Add(72 * time.Hour)})
	f.addCompetition(t, models.Competition{Name: "Team Early", Type: models.CompetitionTypeTeam, MaxTeams: 2, StartDate: fixedNow.Add(24 * time.Hour)})
	f.addCompetition(t, models.Competition{Name: "Solo", Type: models.CompetitionTypeIndividual, MaxParticipants: 2, Status: models.StatusOngoing})

	teams, err := svc.ListCompetitions(ctx, CompetitionFilter{Type: models.CompetitionTypeTeam})
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Team Early", teams[0].Name)

	ongoing, err := svc.ListCompetitions(ctx, CompetitionFilter{Status: models.StatusOngoing})
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	assert.Equal(t, "Solo", ongoing[0].Name)

	page, err := svc.ListCompetitions(ctx, CompetitionFilter{Search: "team", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Team Late", page[0].Name)

	empty, err := svc.ListCompetitions(ctx, CompetitionFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCompetitionService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCompetitionService(f.store, f.notifier, discardLogger())
	comp := f.addCompetition(t, models.Competition{Type: models.CompetitionTypeTeam, MaxTeams: 3, OrganizerID: 7, Teams: []int64{1, 2}})

	name := "Renamed"
	_, err := svc.UpdateCompetition(ctx, Actor{UserID: 8}, comp.ID, UpdateCompetitionInput{Name: &name})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	updated, err := svc.UpdateCompetition(ctx, Actor{UserID: 7}, comp.ID, UpdateCompetitionInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	one := 1
	_, err = svc.UpdateCompetition(ctx, Actor{UserID: 7}, comp.ID, UpdateCompetitionInput{MaxTeams: &one})
	assert.ErrorIs(t, err, ErrCompetitionInvalidCapacity)

	completed := models.StatusCompleted
	_, err = svc.UpdateCompetition(ctx, Actor{UserID: 7}, comp.ID, UpdateCompetitionInput{Status: &completed})
	assert.ErrorIs(t, err, ErrCompetitionInvalidStatusTransition)

	ongoing := models.StatusOngoing
	_, err = svc.UpdateCompetition(ctx, Actor{IsAdmin: true}, comp.ID, UpdateCompetitionInput{Status: &ongoing})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, f.competition(t, comp.ID).Status)
}

func TestCompetitionService_AutoUpdateStatusesByDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCompetitionService(f.store, f.notifier, discardLogger())
	hour := time.Hour

	started := f.addCompetition(t, models.Competition{MaxTeams: 2, StartDate: fixedNow.Add(-hour), EndDate: fixedNow.Add(hour)})
	finished := f.addCompetition(t, models.Competition{MaxTeams: 2, Status: models.StatusOngoing, StartDate: fixedNow.Add(-2 * hour), EndDate: fixedNow.Add(-hour)})
	skipped := f.addCompetition(t, models.Competition{MaxTeams: 2, StartDate: fixedNow.Add(-3 * hour), EndDate: fixedNow.Add(-2 * hour)})
	future := f.addCompetition(t, models.Competition{MaxTeams: 2, StartDate: fixedNow.Add(hour), EndDate: fixedNow.Add(2 * hour)})
	cancelled := f.addCompetition(t, models.Competition{MaxTeams: 2, Status: models.StatusCancelled, StartDate: fixedNow.Add(-hour)})

	n, err := svc.AutoUpdateStatusesByDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, models.StatusOngoing, f.competition(t, started.ID).Status)
	assert.Equal(t, models.StatusCompleted, f.competition(t, finished.ID).Status)
	assert.Equal(t, models.StatusCompleted, f.competition(t, skipped.ID).Status)
	assert.Equal(t, models.StatusUpcoming, f.competition(t, future.ID).Status)
	assert.Equal(t, models.StatusCancelled, f.competition(t, cancelled.ID).Status)

	n, err = svc.AutoUpdateStatusesByDates(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCompetitionService_DeleteIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCompetitionService(f.store, f.notifier, discardLogger())
	comp := f.addCompetition(t, models.Competition{MaxTeams: 2, OrganizerID: 3})

	assert.ErrorIs(t, svc.DeleteCompetition(ctx, Actor{UserID: 3}, comp.ID), ErrForbiddenOperation)
	require.NoError(t, svc.DeleteCompetition(ctx, Actor{IsAdmin: true}, comp.ID))
	_, err := svc.GetCompetition(ctx, comp.ID)
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}
