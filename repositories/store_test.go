package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/storage"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(kv storage.KVStore) *Store {
	return NewStore(kv).WithClock(func() time.Time { return fixedNow })
}

func seed(t *testing.T, kv storage.KVStore, key, value string) {
	t.Helper()
	require.NoError(t, kv.Update(context.Background(), func(tx storage.Tx) error {
		return tx.Set(context.Background(), key, []byte(value))
	}))
}

func TestStore_CreateAssignsTimestampIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(storage.NewMemoryStore())

	var first, second models.Team
	err := store.Update(ctx, func(sess *Session) error {
		first = models.Team{Name: "Alpha", OwnerID: 1}
		second = models.Team{Name: "Beta", OwnerID: 1}
		if err := sess.Teams().Create(ctx, &first); err != nil {
			return err
		}
		return sess.Teams().Create(ctx, &second)
	})
	require.NoError(t, err)

	assert.Equal(t, fixedNow.UnixMilli(), first.ID)
	assert.Equal(t, fixedNow.UnixMilli()+1, second.ID)
	assert.Equal(t, fixedNow, first.CreatedAt)
}

func TestStore_CorruptBlobIsReportedNotReset(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seed(t, kv, storage.KeyCompetitions, `{not json`)
	store := newTestStore(kv)

	err := store.View(ctx, func(sess *Session) error {
		_, err := sess.Competitions().List(ctx)
		return err
	})
	require.ErrorIs(t, err, storage.ErrStorageCorrupt)

	// blob is left untouched
	require.NoError(t, kv.View(ctx, func(tx storage.Tx) error {
		raw, err := tx.Get(ctx, storage.KeyCompetitions)
		require.NoError(t, err)
		assert.Equal(t, `{not json`, string(raw))
		return nil
	}))
}

func TestStore_InvalidRecordIsRejected(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seed(t, kv, storage.KeyCompetitions, `[{"id": 5, "type": "relay"}]`)

	err := newTestStore(kv).View(ctx, func(sess *Session) error {
		_, err := sess.Competitions().GetByID(ctx, 5)
		return err
	})
	assert.ErrorIs(t, err, storage.ErrStorageCorrupt)
}

func TestStore_DuplicateIDsAreRejected(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seed(t, kv, storage.KeyTeams, `[{"id": 1, "name": "a"}, {"id": 1, "name": "b"}]`)

	err := newTestStore(kv).View(ctx, func(sess *Session) error {
		_, err := sess.Teams().List(ctx)
		return err
	})
	assert.ErrorIs(t, err, storage.ErrStorageCorrupt)
}

func TestStore_LegacyRecordsAreUpgraded(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seed(t, kv, storage.KeyCompetitions, `[{"id": 7, "name": "Cup", "maxTeams": 4}]`)

	var got *models.Competition
	err := newTestStore(kv).View(ctx, func(sess *Session) error {
		var err error
		got, err = sess.Competitions().GetByID(ctx, 7)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, models.CompetitionTypeTeam, got.Type)
	assert.Equal(t, models.StatusUpcoming, got.Status)
	assert.NotNil(t, got.Teams)
	assert.NotNil(t, got.PaidTeams)
	assert.NotNil(t, got.PaymentLog)
}

func TestStore_UpdateIsAllOrNothingAcrossKeys(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	store := newTestStore(kv)
	boom := errors.New("boom")

	err := store.Update(ctx, func(sess *Session) error {
		c := &models.Competition{Name: "Cup", MaxTeams: 2}
		if err := sess.Competitions().Create(ctx, c); err != nil {
			return err
		}
		if err := sess.Teams().Create(ctx, &models.Team{Name: "Alpha", OwnerID: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, store.View(ctx, func(sess *Session) error {
		competitions, err := sess.Competitions().List(ctx)
		require.NoError(t, err)
		teams, err := sess.Teams().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, competitions)
		assert.Empty(t, teams)
		return nil
	}))
}

func TestUserRepository_EmailConflictIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(storage.NewMemoryStore())

	err := store.Update(ctx, func(sess *Session) error {
		if err := sess.Users().Create(ctx, &models.User{Name: "A", Email: "a@example.com"}); err != nil {
			return err
		}
		return sess.Users().Create(ctx, &models.User{Name: "B", Email: "A@Example.com"})
	})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestCardRepository_FindForUserPrefersDefault(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(storage.NewMemoryStore())

	var found *models.SavedCard
	err := store.Update(ctx, func(sess *Session) error {
		cards := sess.Cards()
		for _, c := range []models.SavedCard{
			{UserID: 9, Last4: "1111"},
			{UserID: 3, Last4: "2222", IsDefault: true},
			{UserID: 9, Last4: "3333", IsDefault: true},
		} {
			c := c
			if err := cards.Create(ctx, &c); err != nil {
				return err
			}
		}
		var err error
		found, err = cards.FindForUser(ctx, 9)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "3333", found.Last4)
}

func TestCardRepository_FindForUserWithoutCards(t *testing.T) {
	ctx := context.Background()
	err := newTestStore(storage.NewMemoryStore()).View(ctx, func(sess *Session) error {
		_, err := sess.Cards().FindForUser(ctx, 1)
		return err
	})
	assert.ErrorIs(t, err, ErrCardNotFound)
}
