package auth

// SetupPayload is the request body for creating the first user.
type SetupPayload struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=200"`
}

// LoginPayload is the request body for logging in.
type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// StatusResponse reports whether initial setup is required.
type StatusResponse struct {
	NeedsSetup bool `json:"needs_setup"`
}
