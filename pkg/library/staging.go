package library

import (
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Staging sub-directories for series-scoped assets. Underscored so they can
// never collide with a volume folder that survives classification.
const (
	stagingMetadataDir = "_series_metadata_"
	stagingCoverDir    = "_series_cover_"
)

// StagedFile is a part that has been written to the staging area. The original
// path is retained for deriving on-disk file names (e.g. image ordering) and
// the staged path is the durable read source until commit.
type StagedFile struct {
	OriginalPath string
	StagedPath   string
}

// Staging is an isolated, per-upload-request temporary directory. Every
// accepted part is written here before any permanent decision is made, and the
// directory is removed at the end of the request regardless of outcome.
type Staging struct {
	dir string
}

// OpenStaging creates a fresh, uniquely-named staging directory under
// scratchRoot, creating scratchRoot itself if absent.
func OpenStaging(scratchRoot string) (*Staging, error) {
	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	dir := filepath.Join(scratchRoot, uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	return &Staging{dir: dir}, nil
}

// Dir returns the absolute path of the staging directory.
func (s *Staging) Dir() string {
	return s.dir
}

// SeriesDir returns the staging directory for one series key.
func (s *Staging) SeriesDir(seriesKey string) string {
	return filepath.Join(s.dir, seriesKey)
}

// VolumeDir returns the staging directory holding one volume's files.
func (s *Staging) VolumeDir(seriesKey, volumeKey string) string {
	return filepath.Join(s.dir, seriesKey, volumeKey)
}

func validKey(key string) bool {
	return key != "" && key != "." && key != ".." && !filepath.IsAbs(key)
}

// Stage streams one part to its deterministic sub-path within the staging
// directory and returns the resulting StagedFile. The part's bytes never pass
// through memory as a whole.
func (s *Staging) Stage(part Part, originalPath string, r io.Reader) (StagedFile, error) {
	var dir string
	switch part.Role {
	case RoleSeriesMetadata:
		dir = filepath.Join(s.SeriesDir(part.SeriesKey), stagingMetadataDir)
	case RoleSeriesCover:
		dir = filepath.Join(s.SeriesDir(part.SeriesKey), stagingCoverDir)
	case RoleVolumeIndex, RoleVolumePage:
		dir = s.VolumeDir(part.SeriesKey, part.VolumeKey)
	default:
		return StagedFile{}, errors.Errorf("role %q cannot be staged", part.Role)
	}
	if !validKey(part.SeriesKey) || (part.VolumeKey != "" && !validKey(part.VolumeKey)) {
		return StagedFile{}, errors.Errorf("invalid grouping keys for %q", originalPath)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StagedFile{}, errors.WithStack(err)
	}

	dst := filepath.Join(dir, path.Base(originalPath))
	f, err := os.Create(dst)
	if err != nil {
		return StagedFile{}, errors.WithStack(err)
	}
	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return StagedFile{}, errors.WithStack(err)
	}

	return StagedFile{OriginalPath: originalPath, StagedPath: dst}, nil
}

// Teardown recursively removes the staging directory. It must run exactly once
// per request on every exit path; callers defer it immediately after
// OpenStaging succeeds.
func (s *Staging) Teardown() error {
	return errors.WithStack(os.RemoveAll(s.dir))
}
