package directory

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kabasele/shule/core"
)

// PlaceholderPicture is served for entries without a picture of their own.
const PlaceholderPicture = "/static/img/avatar-placeholder.png"

// Entry is a staff profile, distinct from an authenticated user account.
type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Position   string    `json:"position"`
	Email      string    `json:"email"`
	Background string    `json:"background,omitempty"`
	Research   []string  `json:"research,omitempty"`
	Picture    string    `json:"picture"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (e *Entry) PictureOrPlaceholder() string {
	if e.Picture == "" {
		return PlaceholderPicture
	}
	return e.Picture
}

// NewEntry contains information needed to create an Entry.
type NewEntry struct {
	Name       string   `json:"name" validate:"required"`
	Position   string   `json:"position" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Background string   `json:"background"`
	Research   []string `json:"research"`
	Picture    string   `json:"picture" validate:"omitempty,uri"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	ne.Position = core.CleanString(ne.Position)
	ne.Email = core.CleanString(ne.Email, true /* lower */)
	return validate.Struct(ne)
}

// UpdateEntry defines what information may be provided to modify an Entry.
type UpdateEntry struct {
	Name       string   `json:"name"`
	Position   string   `json:"position"`
	Email      string   `json:"email" validate:"omitempty,email"`
	Background string   `json:"background"`
	Research   []string `json:"research"`
	Picture    string   `json:"picture" validate:"omitempty,uri"`
}

func (ue *UpdateEntry) Validate(origEntry Entry, validate *validator.Validate) error {
	if name := core.CleanString(ue.Name); name != "" {
		ue.Name = name
	} else {
		ue.Name = origEntry.Name
	}
	if pos := core.CleanString(ue.Position); pos != "" {
		ue.Position = pos
	} else {
		ue.Position = origEntry.Position
	}
	if email := core.CleanString(ue.Email, true /* lower */); email != "" {
		ue.Email = email
	} else {
		ue.Email = origEntry.Email
	}
	if ue.Background == "" {
		ue.Background = origEntry.Background
	}
	if ue.Research == nil {
		ue.Research = origEntry.Research
	}
	if ue.Picture == "" {
		ue.Picture = origEntry.Picture
	}
	return validate.Struct(ue)
}

// Filter returns the subsequence of entries whose name, email or position
// contains q, case-insensitively. An empty q returns all entries. Linear scan:
// the directory holds tens to low hundreds of records.
func Filter(entries []Entry, q string) []Entry {
	if q == "" {
		return entries
	}
	q = strings.ToLower(q)

	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Email), q) ||
			strings.Contains(strings.ToLower(e.Position), q) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
