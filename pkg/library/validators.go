package library

import "mime/multipart"

type UpdateSeriesPayload struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=300"`
}

type UpdateVolumePayload struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=300"`
}

type UploadSeriesCoverPayload struct {
	FormFiles map[string]*multipart.FileHeader `json:"-"`
}
