package settings

// ReaderSettingsPayload is the request body for updating reader settings.
type ReaderSettingsPayload struct {
	PreloadCount int    `json:"preload_count" default:"3" validate:"min=1,max=10"`
	FitMode      string `json:"fit_mode" default:"fit-height" validate:"oneof=fit-height fit-width original"`
	Direction    string `json:"direction" default:"rtl" validate:"oneof=rtl ltr"`
}

// ReaderSettingsResponse is the response for reader settings.
type ReaderSettingsResponse struct {
	PreloadCount int    `json:"preload_count"`
	FitMode      string `json:"fit_mode"`
	Direction    string `json:"direction"`
}
