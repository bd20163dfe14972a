package library

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// SeriesMetadataDocument is the series-level metadata JSON produced by the
// export tool. It is consumed read-only; unknown fields are ignored.
type SeriesMetadataDocument struct {
	Series struct {
		Title              *string `json:"title"`
		OriginalFolderName *string `json:"originalFolderName"`
	} `json:"series"`
	Volumes map[string]VolumeMetadata `json:"volumes"`
}

// VolumeMetadata is the per-volume entry in a series metadata document.
type VolumeMetadata struct {
	DisplayTitle *string `json:"displayTitle"`
}

// VolumeTitle returns the display title recorded for a volume folder, or nil.
func (doc *SeriesMetadataDocument) VolumeTitle(volumeKey string) *string {
	if doc == nil {
		return nil
	}
	meta, ok := doc.Volumes[volumeKey]
	if !ok {
		return nil
	}
	return meta.DisplayTitle
}

func parseSeriesMetadata(path string) (*SeriesMetadataDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	doc := &SeriesMetadataDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.WithStack(err)
	}
	return doc, nil
}

// buildMetadataCache parses every staged series metadata file once, keyed by
// series folder. A parse failure is logged and leaves the key absent; commit
// proceeds without that metadata.
func buildMetadataCache(ctx context.Context, staged map[string]StagedFile) map[string]*SeriesMetadataDocument {
	log := logger.FromContext(ctx)

	cache := make(map[string]*SeriesMetadataDocument, len(staged))
	for seriesKey, file := range staged {
		doc, err := parseSeriesMetadata(file.StagedPath)
		if err != nil {
			log.Warn("skipping unparseable series metadata", logger.Data{
				"series_key": seriesKey,
				"path":       file.OriginalPath,
				"error":      err.Error(),
			})
			continue
		}
		cache[seriesKey] = doc
	}
	return cache
}
