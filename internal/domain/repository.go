package domain

import (
	"context"
	"io"
)

// interface for the session-scoped campaign collection
type CampaignRepository interface {
	Replace(ctx context.Context, dataset Dataset) error
	Current(ctx context.Context) (Dataset, error)
	// Snapshot reads the dataset and the filter together. It returns ErrNoDataset,
	// with the filter still set, when nothing is loaded.
	Snapshot(ctx context.Context) (Dataset, FilterOptions, error)
	SetFilter(ctx context.Context, filter FilterOptions) error
	Filter(ctx context.Context) (FilterOptions, error)
	Clear(ctx context.Context) error
}

// interface for turning an uploaded file into raw rows
type RowDecoder interface {
	Decode(ctx context.Context, fileName string, r io.Reader) ([]RawRow, error)
}
