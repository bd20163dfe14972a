package library

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yomishelf/yomishelf/pkg/auth"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
	"github.com/yomishelf/yomishelf/pkg/models"
)

type handler struct {
	svc        *Service
	files      *FileStore
	ingestor   *Ingestor
	scratchDir string
}

// multipartIterator adapts a streaming multipart.Reader to the ingestion
// pipeline. Non-file form fields are skipped.
type multipartIterator struct {
	mr *multipart.Reader
}

func (it *multipartIterator) Next() (string, io.ReadCloser, error) {
	for {
		part, err := it.mr.NextPart()
		if err != nil {
			// io.EOF terminates the iterator
			return "", nil, err
		}

		relPath := partRelPath(part)
		if relPath == "" {
			if err := part.Close(); err != nil {
				return "", nil, errors.WithStack(err)
			}
			continue
		}
		return relPath, part, nil
	}
}

// partRelPath extracts the raw filename parameter from a part's
// Content-Disposition header. Part.FileName can't be used here: it passes the
// value through filepath.Base, which would strip the directory structure the
// classifier needs.
func partRelPath(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return params["filename"]
}

func (h *handler) upload(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}

	mr, err := c.Request().MultipartReader()
	if err != nil {
		return errcodes.UnsupportedMediaType()
	}

	result, err := h.ingestor.Ingest(ctx, user.ID, &multipartIterator{mr: mr})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, result))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}

	series, err := h.svc.ListSeries(ctx, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"series": series,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

// retrieveOwnedSeries looks the series up scoped to the authenticated user, so
// another user's series is indistinguishable from a missing one.
func (h *handler) retrieveOwnedSeries(c echo.Context) (*models.Series, error) {
	user, err := auth.UserFromContext(c)
	if err != nil {
		return nil, err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Series")
	}

	return h.svc.RetrieveSeries(c.Request().Context(), RetrieveSeriesOptions{
		ID:      &id,
		OwnerID: &user.ID,
	})
}

func (h *handler) retrieveOwnedVolume(c echo.Context) (*models.Volume, error) {
	user, err := auth.UserFromContext(c)
	if err != nil {
		return nil, err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Volume")
	}

	volume, err := h.svc.RetrieveVolume(c.Request().Context(), RetrieveVolumeOptions{
		ID: &id,
	})
	if err != nil {
		return nil, err
	}
	if volume.Series == nil || volume.Series.OwnerID != user.ID {
		return nil, errcodes.NotFound("Volume")
	}
	return volume, nil
}

func (h *handler) updateSeries(c echo.Context) error {
	ctx := c.Request().Context()

	series, err := h.retrieveOwnedSeries(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := UpdateSeriesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateSeriesOptions{Columns: []string{}}
	if params.Title != nil {
		if *params.Title == "" {
			// clearing the title falls back to the folder name
			series.Title = nil
		} else {
			series.Title = params.Title
		}
		opts.Columns = append(opts.Columns, "title")
	}

	if err := h.svc.UpdateSeries(ctx, series, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

func (h *handler) updateVolume(c echo.Context) error {
	ctx := c.Request().Context()

	volume, err := h.retrieveOwnedVolume(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := UpdateVolumePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateVolumeOptions{Columns: []string{}}
	if params.Title != nil {
		if *params.Title == "" {
			volume.Title = nil
		} else {
			volume.Title = params.Title
		}
		opts.Columns = append(opts.Columns, "title")
	}

	if err := h.svc.UpdateVolume(ctx, volume, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, volume))
}

func (h *handler) uploadSeriesCover(c echo.Context) error {
	ctx := c.Request().Context()

	series, err := h.retrieveOwnedSeries(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := UploadSeriesCoverPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fh := params.FormFiles["cover"]
	if fh == nil {
		return errcodes.ValidationError("cover file is required.")
	}

	tmpPath, err := h.saveUpload(fh)
	if err != nil {
		return err
	}

	mtype, err := mimetype.DetectFile(tmpPath)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		if err := os.Remove(tmpPath); err != nil {
			return errors.WithStack(err)
		}
		return errcodes.UnsupportedMediaType()
	}

	if err := SetSeriesCover(ctx, h.svc, h.files, series, tmpPath, fh.Filename); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

// saveUpload spools a form file to the scratch dir so it can be sniffed and
// then renamed into place.
func (h *handler) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.scratchDir, 0o755); err != nil {
		return "", errors.WithStack(err)
	}
	dst, err := os.CreateTemp(h.scratchDir, "cover-*")
	if err != nil {
		return "", errors.WithStack(err)
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.WithStack(err)
	}
	return dst.Name(), nil
}

func (h *handler) deleteSeries(c echo.Context) error {
	ctx := c.Request().Context()

	series, err := h.retrieveOwnedSeries(c)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := DeleteSeries(ctx, h.svc, h.files, series); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) deleteVolume(c echo.Context) error {
	ctx := c.Request().Context()

	volume, err := h.retrieveOwnedVolume(c)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := DeleteVolume(ctx, h.svc, h.files, volume.Series, volume); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) seriesCover(c echo.Context) error {
	series, err := h.retrieveOwnedSeries(c)
	if err != nil {
		return errors.WithStack(err)
	}

	if series.CoverPath == nil {
		return errcodes.NotFound("Series cover")
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")

	return errors.WithStack(c.File(h.files.Abs(*series.CoverPath)))
}

func (h *handler) volumePage(c echo.Context) error {
	volume, err := h.retrieveOwnedVolume(c)
	if err != nil {
		return errors.WithStack(err)
	}

	name := c.Param("name")
	if name == "" || name == "." || name == ".." || path.Base(name) != name {
		return errcodes.NotFound("Page")
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")

	return errors.WithStack(c.File(filepath.Join(h.files.Abs(volume.FilePath), name)))
}

func (h *handler) volumeIndex(c echo.Context) error {
	volume, err := h.retrieveOwnedVolume(c)
	if err != nil {
		return errors.WithStack(err)
	}

	// the index file is JSON even though its extension isn't .json
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")

	return errors.WithStack(c.File(h.files.Abs(volume.IndexFilePath)))
}
