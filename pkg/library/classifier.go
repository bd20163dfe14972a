package library

import (
	"path"
	"strings"
)

// Part roles. Every uploaded file is assigned exactly one of these.
const (
	RoleIgnored        = "ignored"
	RoleSeriesCover    = "series_cover"
	RoleSeriesMetadata = "series_metadata"
	RoleVolumeIndex    = "volume_index"
	RoleVolumePage     = "volume_page"
)

// IndexFileExt is the per-volume index document extension. One index file per
// volume is required for the volume to be valid.
const IndexFileExt = ".mokuro"

// ocrCacheDir is the legacy OCR cache directory emitted next to page images by
// older toolchains; anything under it is skipped.
const ocrCacheDir = "_ocr"

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
	".avif": {},
}

var excludedExts = map[string]struct{}{
	".html": {},
	".htm":  {},
}

// Part is the classification of a single uploaded file: its role plus the
// series/volume grouping keys derived from its relative path.
type Part struct {
	Role      string
	SeriesKey string
	VolumeKey string
}

func isImageExt(ext string) bool {
	_, ok := imageExts[ext]
	return ok
}

// Classify decides the role of one uploaded file from its form-supplied
// relative path. It is a pure function: draining the part's byte stream is the
// caller's responsibility for ignored roles.
func Classify(relPath string) Part {
	ignored := Part{Role: RoleIgnored}

	// Multipart filenames use forward slashes, but be lenient about clients
	// that send backslashes.
	cleaned := path.Clean(strings.ReplaceAll(relPath, `\`, "/"))
	if cleaned == "." || cleaned == "/" || strings.HasPrefix(cleaned, "..") {
		return ignored
	}
	cleaned = strings.TrimPrefix(cleaned, "/")

	segments := strings.Split(cleaned, "/")
	filename := segments[len(segments)-1]
	parents := segments[:len(segments)-1]

	for _, segment := range parents {
		if segment == ocrCacheDir {
			return ignored
		}
	}

	ext := strings.ToLower(path.Ext(filename))
	if _, ok := excludedExts[ext]; ok {
		return ignored
	}
	if ext != IndexFileExt && ext != ".json" && !isImageExt(ext) {
		return ignored
	}

	stem := strings.TrimSuffix(filename, path.Ext(filename))

	// Self-named-file convention: a file whose stem equals its parent
	// directory's name is series-scoped (cover art or series metadata), which
	// distinguishes "Series X/Series X.json" from "Series X/Vol 1/Vol 1.mokuro".
	seriesScoped := len(parents) >= 1 && stem == parents[len(parents)-1]

	switch {
	case ext == ".json" && seriesScoped:
		return Part{Role: RoleSeriesMetadata, SeriesKey: parents[len(parents)-1]}
	case isImageExt(ext) && seriesScoped:
		return Part{Role: RoleSeriesCover, SeriesKey: parents[len(parents)-1]}
	case ext == IndexFileExt && len(parents) >= 1:
		return Part{
			Role:      RoleVolumeIndex,
			SeriesKey: parents[len(parents)-1],
			VolumeKey: stem,
		}
	case isImageExt(ext) && len(parents) >= 2:
		return Part{
			Role:      RoleVolumePage,
			SeriesKey: parents[len(parents)-2],
			VolumeKey: parents[len(parents)-1],
		}
	}

	return ignored
}
