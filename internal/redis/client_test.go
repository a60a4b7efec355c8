package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flooring_crm/internal/models"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Initialize("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestCustomStatuses_RoundTripAndInvalidate(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, _, err := client.GetCustomStatuses(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)

	statuses := []models.StatusDefinition{{ID: "waiting_for_permit", Label: "Czeka na pozwolenie", Order: 4}}
	require.NoError(t, client.SetCustomStatuses(ctx, statuses, true, time.Minute))

	got, valid, err := client.GetCustomStatuses(ctx)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, statuses, got)

	require.NoError(t, client.InvalidateCustomStatuses(ctx))
	_, _, err = client.GetCustomStatuses(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFillCustomStatuses_DoesNotOverwrite(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	fresh := []models.StatusDefinition{{ID: "claim", Label: "Reklamacja", Order: 1}}
	stale := []models.StatusDefinition{{ID: "old_claim", Label: "Stara reklamacja", Order: 1}}

	stored, err := client.FillCustomStatuses(ctx, fresh, true, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = client.FillCustomStatuses(ctx, stale, true, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)

	got, _, err := client.GetCustomStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, got)

	require.NoError(t, client.SetCustomStatuses(ctx, stale, true, time.Minute))
	got, _, err = client.GetCustomStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, stale, got)
}

func TestCustomStatuses_Expire(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetCustomStatuses(ctx, nil, false, 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, _, err := client.GetCustomStatuses(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestInitialize_BadURL(t *testing.T) {
	_, err := Initialize("not a url")
	assert.Error(t, err)
}
