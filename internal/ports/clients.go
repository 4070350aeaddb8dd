package ports

import (
	"context"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

// Segmenter is the image-segmentation task contract: object-storage key in,
// processed key out. The service behind it is a black box; errors propagate as
// task failures.
type Segmenter interface {
	Segment(ctx context.Context, rawKey string) (domain.SegmentationResult, error)
}

// ImageScorer returns independent explicit/suggestive confidences for an
// uploaded image. Scoring internals are out of scope; only the 0..1 contract
// matters here.
type ImageScorer interface {
	Score(ctx context.Context, mediaKey string) (domain.ImageScore, error)
}

// PIIScanner checks processed content for personally identifying information.
type PIIScanner interface {
	Scan(ctx context.Context, payload domain.RunPayload) (domain.PIIResult, error)
}

// ObjectStore is the narrow slice of object storage the workflows need:
// copying a processed object into the published namespace. Bucket lifecycle
// stays with the storage owner.
type ObjectStore interface {
	Copy(ctx context.Context, fromKey, toKey string) error
}

// RiskFlagStore looks up per-user risk flags consulted by the classifier.
type RiskFlagStore interface {
	MinorsRisk(ctx context.Context, userID string) (bool, error)
	SetMinorsRisk(ctx context.Context, userID string, flagged bool) error
}
