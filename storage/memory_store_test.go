package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UpdateCommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Update(ctx, func(tx Tx) error {
		require.NoError(t, tx.Set(ctx, KeyCompetitions, []byte(`[1]`)))
		require.NoError(t, tx.Set(ctx, KeyTeams, []byte(`[2]`)))

		got, err := tx.Get(ctx, KeyCompetitions)
		require.NoError(t, err)
		assert.Equal(t, `[1]`, string(got))
		return nil
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx Tx) error {
		got, err := tx.Get(ctx, KeyTeams)
		require.NoError(t, err)
		assert.Equal(t, `[2]`, string(got))
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_UpdateErrorDropsAllWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	err := store.Update(ctx, func(tx Tx) error {
		require.NoError(t, tx.Set(ctx, KeyCompetitions, []byte(`[1]`)))
		require.NoError(t, tx.Set(ctx, KeyTeams, []byte(`[2]`)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.View(ctx, func(tx Tx) error {
		_, err := tx.Get(ctx, KeyCompetitions)
		assert.ErrorIs(t, err, ErrKeyNotFound)
		_, err = tx.Get(ctx, KeyTeams)
		assert.ErrorIs(t, err, ErrKeyNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_ViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.View(ctx, func(tx Tx) error {
		return tx.Set(ctx, KeyUsers, []byte(`[]`))
	})
	assert.ErrorIs(t, err, ErrReadOnlyTx)
}

func TestMemoryStore_DeleteInsideUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		return tx.Set(ctx, KeyUserCards, []byte(`[]`))
	}))
	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		require.NoError(t, tx.Delete(ctx, KeyUserCards))
		_, err := tx.Get(ctx, KeyUserCards)
		assert.ErrorIs(t, err, ErrKeyNotFound)
		return nil
	}))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemoryStore().Update(ctx, func(tx Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
