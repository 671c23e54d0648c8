package infrastructure

import (
	"context"
	"sync"

	"campaigndash/internal/domain"
	"campaigndash/pkg/logger"
)

// implements domain.CampaignRepository in memory for a single session
type CampaignRepository struct {
	dataset *domain.Dataset
	filter  domain.FilterOptions
	mutex   sync.RWMutex
	logger  *logger.Logger
}

// creates an empty session repository
func NewCampaignRepository(logger *logger.Logger) *CampaignRepository {
	return &CampaignRepository{
		filter: domain.DefaultFilterOptions(),
		logger: logger,
	}
}

// Replace swaps in a new dataset wholesale and resets the filter state.
func (r *CampaignRepository) Replace(ctx context.Context, dataset domain.Dataset) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	dataset.Campaigns = cloneCampaigns(dataset.Campaigns)
	r.dataset = &dataset
	r.filter = domain.DefaultFilterOptions()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"dataset_id": dataset.ID,
		"count":      len(dataset.Campaigns),
	}).Info("Stored campaign dataset in memory")
	return nil
}

// Current returns a copy of the loaded dataset or domain.ErrNoDataset.
func (r *CampaignRepository) Current(ctx context.Context) (domain.Dataset, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.dataset == nil {
		return domain.Dataset{}, domain.ErrNoDataset
	}

	dataset := *r.dataset
	dataset.Campaigns = cloneCampaigns(r.dataset.Campaigns)
	return dataset, nil
}

// Snapshot returns the dataset and the filter from one critical section.
func (r *CampaignRepository) Snapshot(ctx context.Context) (domain.Dataset, domain.FilterOptions, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.dataset == nil {
		return domain.Dataset{}, r.filter, domain.ErrNoDataset
	}

	dataset := *r.dataset
	dataset.Campaigns = cloneCampaigns(r.dataset.Campaigns)
	return dataset, r.filter, nil
}

func (r *CampaignRepository) SetFilter(ctx context.Context, filter domain.FilterOptions) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.filter = filter
	return nil
}

func (r *CampaignRepository) Filter(ctx context.Context) (domain.FilterOptions, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.filter, nil
}

// Clear drops the dataset and the filter state.
func (r *CampaignRepository) Clear(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.dataset = nil
	r.filter = domain.DefaultFilterOptions()

	r.logger.WithContext(ctx).Info("Cleared campaign dataset")
	return nil
}

func cloneCampaigns(campaigns []domain.Campaign) []domain.Campaign {
	if campaigns == nil {
		return nil
	}
	out := make([]domain.Campaign, len(campaigns))
	copy(out, campaigns)
	return out
}
