package progress

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yomishelf/yomishelf/pkg/auth"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
	"github.com/yomishelf/yomishelf/pkg/library"
	"github.com/yomishelf/yomishelf/pkg/models"
)

type handler struct {
	progressService *Service
	libraryService  *library.Service
}

// retrieveOwnedVolume resolves the :id param to a volume the authenticated
// user owns. Progress against another user's volume 404s like a missing one.
func (h *handler) retrieveOwnedVolume(c echo.Context) (*models.User, *models.Volume, error) {
	user, err := auth.UserFromContext(c)
	if err != nil {
		return nil, nil, err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, nil, errcodes.NotFound("Volume")
	}

	volume, err := h.libraryService.RetrieveVolume(c.Request().Context(), library.RetrieveVolumeOptions{
		ID: &id,
	})
	if err != nil {
		return nil, nil, err
	}
	if volume.Series == nil || volume.Series.OwnerID != user.ID {
		return nil, nil, errcodes.NotFound("Volume")
	}
	return user, volume, nil
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	user, volume, err := h.retrieveOwnedVolume(c)
	if err != nil {
		return errors.WithStack(err)
	}

	p, err := h.progressService.RetrieveProgress(ctx, user.ID, volume.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}

func (h *handler) save(c echo.Context) error {
	ctx := c.Request().Context()

	user, volume, err := h.retrieveOwnedVolume(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := SaveProgressPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	p := &models.UserProgress{
		UserID:    user.ID,
		VolumeID:  volume.ID,
		Page:      params.Page,
		TimeRead:  params.TimeRead,
		CharsRead: params.CharsRead,
		Completed: params.Completed,
	}

	if err := h.progressService.SaveProgress(ctx, p); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}
