package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStagedFile(t *testing.T, name, contents string) StagedFile {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o600))
	return StagedFile{OriginalPath: name, StagedPath: p}
}

func TestParseSeriesMetadata(t *testing.T) {
	t.Parallel()

	staged := writeStagedFile(t, "Yotsuba.json", `{
		"series": {"title": "Yotsuba to!"},
		"volumes": {
			"Volume 01": {"displayTitle": "Yotsuba to! 1"},
			"Volume 02": {}
		},
		"futureField": true
	}`)

	doc, err := parseSeriesMetadata(staged.StagedPath)
	require.NoError(t, err)

	require.NotNil(t, doc.Series.Title)
	assert.Equal(t, "Yotsuba to!", *doc.Series.Title)

	require.NotNil(t, doc.VolumeTitle("Volume 01"))
	assert.Equal(t, "Yotsuba to! 1", *doc.VolumeTitle("Volume 01"))
	assert.Nil(t, doc.VolumeTitle("Volume 02"))
	assert.Nil(t, doc.VolumeTitle("Volume 99"))
}

func TestVolumeTitleNilDocument(t *testing.T) {
	t.Parallel()

	var doc *SeriesMetadataDocument
	assert.Nil(t, doc.VolumeTitle("Volume 01"))
}

func TestBuildMetadataCacheSkipsUnparseable(t *testing.T) {
	t.Parallel()

	staged := map[string]StagedFile{
		"Good": writeStagedFile(t, "Good.json", `{"series": {"title": "Good"}}`),
		"Bad":  writeStagedFile(t, "Bad.json", `{not json`),
	}

	cache := buildMetadataCache(context.Background(), staged)

	require.Contains(t, cache, "Good")
	assert.Equal(t, "Good", *cache["Good"].Series.Title)
	assert.NotContains(t, cache, "Bad")
}
