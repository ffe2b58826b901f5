package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-ledger/models"
)

func TestCardService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCardService(f.store)
	user := f.addUser(t, "ann", models.RoleUser)
	other := f.addUser(t, "bob", models.RoleUser)

	first, err := svc.SaveCard(ctx, user.ID, *validCard())
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "1111", first.Last4)
	assert.Equal(t, 2030, first.ExpYear)

	again, err := svc.SaveCard(ctx, user.ID, *validCard())
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "same card is not stored twice")

	mc := validCard()
	mc.Number = "5500000000000004"
	second, err := svc.SaveCard(ctx, user.ID, *mc)
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	def, err := svc.SetDefault(ctx, user.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, def.IsDefault)

	cards, err := svc.ListCards(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	for _, c := range cards {
		assert.Equal(t, c.ID == second.ID, c.IsDefault)
	}

	_, err = svc.SetDefault(ctx, other.ID, second.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.ErrorIs(t, svc.DeleteCard(ctx, other.ID, second.ID), ErrCardNotFound)
	require.NoError(t, svc.DeleteCard(ctx, user.ID, second.ID))

	bad := validCard()
	bad.Expiry = "01/20"
	_, err = svc.SaveCard(ctx, user.ID, *bad)
	assert.ErrorIs(t, err, ErrPaymentValidationFailed)
}
