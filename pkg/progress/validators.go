package progress

type SaveProgressPayload struct {
	Page      int  `json:"page" default:"1" validate:"min=1"`
	TimeRead  int  `json:"time_read,omitempty" validate:"min=0"`
	CharsRead int  `json:"chars_read,omitempty" validate:"min=0"`
	Completed bool `json:"completed,omitempty"`
}
