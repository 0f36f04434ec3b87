package analysis

import "context"

// Classifier sends one image to the inference API and returns the raw reply text.
type Classifier interface {
	Classify(ctx context.Context, img Image) (string, error)
}

// ImageArchive keeps a copy of an uploaded image and returns its URL.
type ImageArchive interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Repository persists analysis records.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
}
