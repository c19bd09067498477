package store

import (
	"context"

	"autoblogger/internal/model"
)

// ArtifactReader provides read access to artifacts.
type ArtifactReader interface {
	Get(ctx context.Context, id string) (*model.Artifact, error)
	List(ctx context.Context) ([]model.Artifact, error)
}

// ArtifactWriter provides write access to artifacts.
type ArtifactWriter interface {
	Create(ctx context.Context, title, seedType string) (*model.Artifact, error)
	Update(ctx context.Context, id string, patch Patch) (*model.Artifact, error)
}

// LeaseKeeper guards single-run-per-artifact execution.
type LeaseKeeper interface {
	AcquireRunLease(ctx context.Context, id string) (bool, error)
	ReleaseRunLease(ctx context.Context, id string) error
	ResetStaleRunning(ctx context.Context) (int64, error)
}

// ImageHistory is the global cross-artifact record of used image source URLs.
type ImageHistory interface {
	SeenImageURL(ctx context.Context, url string) (bool, error)
	AppendImageURLs(ctx context.Context, urls []string) error
}

// ArtifactRepository combines all artifact operations for the API layer.
type ArtifactRepository interface {
	ArtifactReader
	ArtifactWriter
	LeaseKeeper
}
