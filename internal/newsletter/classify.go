// Package newsletter implements the core pipeline that turns recently
// added media server items into a per-recipient newsletter: recipient
// resolution, item classification, and run orchestration.
package newsletter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ignite/jellyfin-newsletter/internal/jellyfin"
)

// ErrUnknownType is returned when an item's Type has no classification
// rule. The caller logs a warning and drops the item.
var ErrUnknownType = errors.New("unrecognized item type")

// Entry is one renderable "new item" block in the newsletter
type Entry struct {
	Title       string
	URL         string
	ImageURL    string
	Description string
}

// Classifier maps raw media server items to display-ready entries
type Classifier struct {
	baseURL string
}

// NewClassifier creates a classifier building links under baseURL
func NewClassifier(baseURL string) *Classifier {
	return &Classifier{baseURL: baseURL}
}

// Classify derives an Entry from one item. It dispatches on the item's
// Type discriminant and returns ErrUnknownType for anything it has no
// rule for.
func (c *Classifier) Classify(item jellyfin.Item) (Entry, error) {
	entry := Entry{
		URL:         c.detailsURL(item),
		Description: item.Overview,
	}

	switch item.Type {
	case jellyfin.TypeEpisode:
		entry.Title = fmt.Sprintf("New Episode: %s - %s", item.SeriesName, item.Name)
		// Episodes are illustrated with the poster of their series, not
		// their own thumbnail.
		entry.ImageURL = c.imageURL(item.SeriesID, item.SeriesPrimaryImageTag)

	case jellyfin.TypeMovie:
		entry.Title = fmt.Sprintf("New Movie %s (%d)", item.Name, item.ProductionYear)
		entry.ImageURL = c.imageURL(item.ID, item.ImageTags.Primary)

	case jellyfin.TypeSeries:
		entry.Title = seriesTitle(item)
		entry.ImageURL = c.imageURL(item.ID, item.ImageTags.Primary)

	default:
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownType, item.Type)
	}

	return entry, nil
}

// seriesTitle phrases the unplayed-episode count together with the
// series' run years, e.g. "3 new Episodes of Dark (2017 - 2020)".
func seriesTitle(item jellyfin.Item) string {
	var b strings.Builder
	if item.UserData.UnplayedItemCount == 1 {
		b.WriteString("A new Episode of ")
	} else {
		b.WriteString(strconv.Itoa(item.UserData.UnplayedItemCount))
		b.WriteString(" new Episodes of ")
	}

	b.WriteString(item.Name)
	b.WriteString(" (")
	b.WriteString(strconv.Itoa(item.ProductionYear))
	if item.EndDate != "" {
		b.WriteString(" - " + endYear(item.EndDate) + ")")
	} else {
		b.WriteString(" - Present)")
	}
	return b.String()
}

// endYear extracts the year portion of a media server date string
func endYear(endDate string) string {
	if len(endDate) > 4 {
		return endDate[:4]
	}
	return endDate
}

func (c *Classifier) detailsURL(item jellyfin.Item) string {
	return fmt.Sprintf("%sweb/index.html#!/details?id=%s&context=home&serverId=%s", c.baseURL, item.ID, item.ServerID)
}

func (c *Classifier) imageURL(itemID, tag string) string {
	return fmt.Sprintf("%sItems/%s/Images/Primary?fillHeight=200&fillWidth=356&quality=96&tag=%s", c.baseURL, itemID, tag)
}
