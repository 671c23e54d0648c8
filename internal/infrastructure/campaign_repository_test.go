package infrastructure

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaigndash/internal/domain"
	"campaigndash/pkg/logger"
)

func TestCampaignRepository_EmptyReturnsErrNoDataset(t *testing.T) {
	repo := NewCampaignRepository(logger.NewDiscard())

	_, err := repo.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoDataset)

	filter, err := repo.Filter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFilterOptions(), filter)
}

func TestCampaignRepository_ReplaceResetsFilterAndCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository(logger.NewDiscard())

	require.NoError(t, repo.SetFilter(ctx, domain.FilterOptions{SortField: domain.SortRevenue, SortDirection: domain.SortAsc}))

	campaigns := []domain.Campaign{{CampaignName: "A"}, {CampaignName: "B"}}
	require.NoError(t, repo.Replace(ctx, domain.Dataset{ID: "ds-1", FileName: "a.csv", Campaigns: campaigns}))

	// caller mutations after Replace are not visible
	campaigns[0].CampaignName = "mutated"

	got, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ds-1", got.ID)
	assert.Equal(t, "A", got.Campaigns[0].CampaignName)

	// and neither are mutations of a returned copy
	got.Campaigns[1].CampaignName = "mutated"
	again, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", again.Campaigns[1].CampaignName)

	filter, err := repo.Filter(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFilterOptions(), filter)
}

func TestCampaignRepository_Clear(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository(logger.NewDiscard())

	require.NoError(t, repo.Replace(ctx, domain.Dataset{ID: "ds-1"}))
	require.NoError(t, repo.SetFilter(ctx, domain.FilterOptions{SortField: domain.SortTime, SortDirection: domain.SortAsc}))
	require.NoError(t, repo.Clear(ctx))

	_, err := repo.Current(ctx)
	assert.ErrorIs(t, err, domain.ErrNoDataset)

	filter, err := repo.Filter(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFilterOptions(), filter)
}

func TestCampaignRepository_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository(logger.NewDiscard())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = repo.Replace(ctx, domain.Dataset{Campaigns: []domain.Campaign{{CampaignName: "x"}}})
		}()
		go func() {
			defer wg.Done()
			_, _ = repo.Current(ctx)
			_, _ = repo.Filter(ctx)
		}()
	}
	wg.Wait()

	got, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Campaigns, 1)
}

func TestCampaignRepository_Snapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository(logger.NewDiscard())

	active := domain.FilterOptions{SortField: domain.SortTime, SortDirection: domain.SortAsc}
	require.NoError(t, repo.SetFilter(ctx, active))

	_, filter, err := repo.Snapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrNoDataset)
	assert.Equal(t, active, filter)

	require.NoError(t, repo.Replace(ctx, domain.Dataset{ID: "ds-2", Campaigns: []domain.Campaign{{CampaignName: "A"}}}))

	dataset, filter, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ds-2", dataset.ID)
	assert.Equal(t, domain.DefaultFilterOptions(), filter)

	dataset.Campaigns[0].CampaignName = "mutated"
	again, _, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Campaigns[0].CampaignName)
}
