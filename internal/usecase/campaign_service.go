package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"campaigndash/internal/domain"
	"campaigndash/pkg/logger"
	"campaigndash/pkg/metrics"
)

// CampaignService owns the session's campaign collection and filter state.
type CampaignService struct {
	repo      domain.CampaignRepository
	decoder   domain.RowDecoder
	builder   *RecordBuilder
	loc       *time.Location
	logger    *logger.Logger
	metrics   *metrics.Metrics
	uploading atomic.Bool
}

func NewCampaignService(
	repo domain.CampaignRepository,
	decoder domain.RowDecoder,
	loc *time.Location,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *CampaignService {
	loc = orLocal(loc)
	return &CampaignService{
		repo:    repo,
		decoder: decoder,
		builder: NewRecordBuilder(loc),
		loc:     loc,
		logger:  logger,
		metrics: metrics,
	}
}

// Upload decodes one file and replaces the collection with its campaigns.
// Only one upload runs at a time; on any failure the previous collection is kept.
func (s *CampaignService) Upload(ctx context.Context, fileName string, r io.Reader) (*domain.UploadResult, error) {
	if !s.uploading.CompareAndSwap(false, true) {
		return nil, domain.ErrUploadInProgress
	}
	defer s.uploading.Store(false)

	start := time.Now()
	kind := domain.FileKindFromName(fileName)
	s.metrics.IncUploadsInProgress()
	defer s.metrics.DecUploadsInProgress()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"file": fileName,
		"kind": kind,
	})
	log.Info("Starting campaign upload")

	rows, err := s.decoder.Decode(ctx, fileName, r)
	if err != nil {
		s.metrics.RecordUpload(string(kind), "failed", time.Since(start))
		log.WithError(err).Error("Failed to decode upload")
		return nil, fmt.Errorf("failed to decode %s: %w", fileName, err)
	}

	campaigns := s.builder.BuildAll(rows)
	s.metrics.RecordRowsDecoded(string(kind), len(rows))
	s.metrics.RecordCampaignsLoaded(string(kind), len(campaigns))

	dataset := domain.Dataset{
		ID:         uuid.NewString(),
		FileName:   fileName,
		Kind:       kind,
		UploadedAt: time.Now().UTC(),
		Campaigns:  campaigns,
	}
	if err := s.repo.Replace(ctx, dataset); err != nil {
		s.metrics.RecordUpload(string(kind), "failed", time.Since(start))
		return nil, fmt.Errorf("failed to store campaigns: %w", err)
	}
	s.metrics.SetDatasetSize(len(campaigns))

	duration := time.Since(start)
	s.metrics.RecordUpload(string(kind), "success", duration)

	log.WithFields(map[string]any{
		"dataset_id": dataset.ID,
		"rows":       len(rows),
		"campaigns":  len(campaigns),
		"duration":   duration,
	}).Info("Campaign upload completed")

	return &domain.UploadResult{
		DatasetID:       dataset.ID,
		FileName:        fileName,
		Kind:            kind,
		RowsRead:        len(rows),
		CampaignsLoaded: len(campaigns),
		Duration:        duration,
	}, nil
}

// Clear discards the collection and resets sort and date filters.
func (s *CampaignService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear campaigns: %w", err)
	}
	s.metrics.SetDatasetSize(0)
	return nil
}

// SetFilter replaces the active sort and date range.
func (s *CampaignService) SetFilter(ctx context.Context, opts domain.FilterOptions) (domain.FilterOptions, error) {
	opts = withFilterDefaults(opts)
	if err := s.repo.SetFilter(ctx, opts); err != nil {
		return domain.FilterOptions{}, fmt.Errorf("failed to set filter: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"sort":      opts.SortField,
		"direction": opts.SortDirection,
		"from":      opts.DateFrom,
		"to":        opts.DateTo,
	}).Info("Updated campaign filter")
	return opts, nil
}

func (s *CampaignService) Filter(ctx context.Context) (domain.FilterOptions, error) {
	opts, err := s.repo.Filter(ctx)
	if err != nil {
		return domain.FilterOptions{}, fmt.Errorf("failed to get filter: %w", err)
	}
	return opts, nil
}

// Campaigns returns the canonical collection in upload order; empty when nothing is loaded.
func (s *CampaignService) Campaigns(ctx context.Context) ([]domain.Campaign, error) {
	dataset, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if dataset == nil {
		return []domain.Campaign{}, nil
	}
	return dataset.Campaigns, nil
}

// Query filters and sorts the collection with opts without touching the session filter.
func (s *CampaignService) Query(ctx context.Context, opts domain.FilterOptions) ([]domain.Campaign, error) {
	campaigns, err := s.Campaigns(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAnalytics("query")
	return FilterAndSort(campaigns, withFilterDefaults(opts), s.loc), nil
}

// Dashboard applies the session filter and derives stats and chart series from the result.
func (s *CampaignService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	snapshot, opts, err := s.repo.Snapshot(ctx)

	var dataset *domain.Dataset
	switch {
	case errors.Is(err, domain.ErrNoDataset):
	case err != nil:
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	default:
		dataset = &snapshot
	}

	var campaigns []domain.Campaign
	if dataset != nil {
		campaigns = dataset.Campaigns
	}

	dashboard := Summarize(campaigns, opts, s.loc)
	dashboard.Dataset = dataset
	s.metrics.RecordAnalytics("dashboard")

	return &dashboard, nil
}

func (s *CampaignService) current(ctx context.Context) (*domain.Dataset, error) {
	dataset, err := s.repo.Current(ctx)
	if errors.Is(err, domain.ErrNoDataset) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}
	return &dataset, nil
}

// Summarize runs the filter/sort engine and the analytics engine over campaigns.
func Summarize(campaigns []domain.Campaign, opts domain.FilterOptions, loc *time.Location) domain.Dashboard {
	opts = withFilterDefaults(opts)
	shown := FilterAndSort(campaigns, opts, loc)

	return domain.Dashboard{
		Filter:         opts,
		TotalCampaigns: len(campaigns),
		ShownCampaigns: len(shown),
		Filtered:       len(shown) != len(campaigns),
		Campaigns:      shown,
		Stats:          CalculateStats(shown),
		Charts:         ChartSeries(shown),
	}
}

func withFilterDefaults(opts domain.FilterOptions) domain.FilterOptions {
	if opts.SortField == "" {
		opts.SortField = domain.SortNone
	}
	if opts.SortDirection == "" {
		opts.SortDirection = domain.SortDesc
	}
	return opts
}
