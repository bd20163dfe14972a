package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yomishelf/yomishelf/pkg/auth"
)

type handler struct {
	settingsService *Service
}

func (h *handler) getReaderSettings(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}

	settings, err := h.settingsService.GetReaderSettings(ctx, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ReaderSettingsResponse{
		PreloadCount: settings.ReaderPreloadCount,
		FitMode:      settings.ReaderFitMode,
		Direction:    settings.ReaderDirection,
	}))
}

func (h *handler) updateReaderSettings(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}

	params := ReaderSettingsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	settings, err := h.settingsService.UpdateReaderSettings(ctx, user.ID, params.PreloadCount, params.FitMode, params.Direction)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ReaderSettingsResponse{
		PreloadCount: settings.ReaderPreloadCount,
		FitMode:      settings.ReaderFitMode,
		Direction:    settings.ReaderDirection,
	}))
}
