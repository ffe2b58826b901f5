package services

import (
	"context"
	"sort"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type leaderboardService struct {
	store *repositories.Store
}

func NewLeaderboardService(store *repositories.Store) LeaderboardService {
	return &leaderboardService{store: store}
}

// GetLeaderboard ранжирует команды по сумме призовых, затем по числу соревнований, затем по имени.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	var (
		teams        []models.Team
		competitions []models.Competition
	)
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		if teams, err = sess.Teams().List(ctx); err != nil {
			return err
		}
		competitions, err = sess.Competitions().List(ctx)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to build leaderboard")
	}

	prizes := make(map[int64]int64)
	for _, c := range competitions {
		if c.Type != models.CompetitionTypeTeam {
			continue
		}
		for _, share := range c.PrizeDistribution {
			prizes[share.TeamID] += share.Amount
		}
	}

	entries := make([]models.LeaderboardEntry, 0, len(teams))
	for _, t := range teams {
		entries = append(entries, models.LeaderboardEntry{
			TeamID:           t.ID,
			TeamName:         t.Name,
			CompetitionCount: t.CompetitionCount,
			PrizeTotal:       prizes[t.ID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PrizeTotal != b.PrizeTotal {
			return a.PrizeTotal > b.PrizeTotal
		}
		if a.CompetitionCount != b.CompetitionCount {
			return a.CompetitionCount > b.CompetitionCount
		}
		return a.TeamName < b.TeamName
	})
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
