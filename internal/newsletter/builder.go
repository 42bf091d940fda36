package newsletter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ignite/jellyfin-newsletter/internal/jellyfin"
	"github.com/ignite/jellyfin-newsletter/internal/metrics"
)

// The newsletter banner served by the media server itself.
const bannerPath = "web/assets/img/banner-dark.png"

// dateLayout matches the human-readable date the newsletter has always
// carried, e.g. "Mon Aug 31 2026".
const dateLayout = "Mon Jan 02 2006"

// ItemLister fetches the recently added items for one user
type ItemLister interface {
	ListRecentItems(ctx context.Context, userID string, limit int) ([]jellyfin.Item, error)
}

// Context is the complete data structure handed to the renderer
type Context struct {
	Entries  []Entry
	Date     string
	ImageURL string
	BaseURL  string
}

// Builder assembles one recipient's render context from their recently
// added items.
type Builder struct {
	items      ItemLister
	classifier *Classifier
	baseURL    string
	limit      int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewBuilder creates a newsletter builder
func NewBuilder(items ItemLister, classifier *Classifier, baseURL string, limit int, logger zerolog.Logger) *Builder {
	return &Builder{
		items:      items,
		classifier: classifier,
		baseURL:    baseURL,
		limit:      limit,
		logger:     logger,
		now:        time.Now,
	}
}

// Build fetches the recipient's recent items and classifies them into
// entries, preserving the server's ordering. Items with an unrecognized
// type are logged and dropped; a fetch failure fails the whole build
// for this recipient.
func (b *Builder) Build(ctx context.Context, recipient Recipient) (Context, error) {
	start := time.Now()

	items, err := b.items.ListRecentItems(ctx, recipient.ID, b.limit)
	if err != nil {
		return Context{}, fmt.Errorf("fetching items for %s: %w", recipient.Name, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entry, err := b.classifier.Classify(item)
		if err != nil {
			if errors.Is(err, ErrUnknownType) {
				metrics.UnknownItemTypes.Inc()
				b.logger.Warn().
					Str("recipient", recipient.Name).
					Str("item_id", item.ID).
					Str("item_type", item.Type).
					Msg("dropping item with unrecognized type")
				continue
			}
			return Context{}, fmt.Errorf("classifying item %s: %w", item.ID, err)
		}
		metrics.EntriesClassified.WithLabelValues(item.Type).Inc()
		entries = append(entries, entry)
	}

	metrics.BuildSeconds.Observe(time.Since(start).Seconds())

	return Context{
		Entries:  entries,
		Date:     b.now().Format(dateLayout),
		ImageURL: b.baseURL + bannerPath,
		BaseURL:  b.baseURL,
	}, nil
}
