package types

import (
	"fmt"
	"strings"
	"time"
)

// UnknownValue is the placeholder for an absent language or country.
const UnknownValue = "Desconocido"

// Translation labels as stored in the traduccion column.
const (
	TranslationYes = "Sí"
	TranslationNo  = "No"
)

// translationTokens mark a raw cell as "translation available" when any of
// them appears in the lower-cased value.
var translationTokens = []string{"sí", "si", "yes", "true", "1"}

// MovieFields are the six canonical, user-editable movie attributes.
type MovieFields struct {
	Title       string `json:"nombre"`
	Genre       string `json:"genero"`
	Language    string `json:"idioma"`
	Translation bool   `json:"traduccion"`
	ReleaseDate string `json:"fecha"`
	Country     string `json:"pais"`
}

// Movie is a catalog record. CreatedBy holds the creator's username at the
// time of creation and is never enforced as a reference.
type Movie struct {
	ID int64 `json:"id"`
	MovieFields
	CreatedAt time.Time `json:"fecha_creacion"`
	CreatedBy string    `json:"usuario_creacion"`
}

// Validate returns ErrMissingRequiredField when the title or genre is blank.
func (f MovieFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingRequiredField)
	}
	if strings.TrimSpace(f.Genre) == "" {
		return fmt.Errorf("%w: genre", ErrMissingRequiredField)
	}
	return nil
}

// Trimmed returns a copy with surrounding whitespace removed from every text
// field.
func (f MovieFields) Trimmed() MovieFields {
	return MovieFields{
		Title:       strings.TrimSpace(f.Title),
		Genre:       strings.TrimSpace(f.Genre),
		Language:    strings.TrimSpace(f.Language),
		Translation: f.Translation,
		ReleaseDate: strings.TrimSpace(f.ReleaseDate),
		Country:     strings.TrimSpace(f.Country),
	}
}

// TranslationLabel renders the translation flag the way the store keeps it.
func TranslationLabel(available bool) string {
	if available {
		return TranslationYes
	}
	return TranslationNo
}

// ParseTranslation reports whether a raw value marks translation as
// available. Matching is a case-insensitive substring test.
func ParseTranslation(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return false
	}
	for _, tok := range translationTokens {
		if strings.Contains(v, tok) {
			return true
		}
	}
	return false
}

// CatalogStats are the aggregate numbers behind the dashboard.
type CatalogStats struct {
	Total      int          `json:"total"`
	Genres     int          `json:"genres"`
	Languages  int          `json:"languages"`
	Translated int          `json:"translated"`
	ByGenre    []LabelCount `json:"by_genre"`
	ByCountry  []LabelCount `json:"by_country"`
}

// LabelCount is one bucket of a grouped count.
type LabelCount struct {
	Label string `json:"label" db:"label"`
	Count int    `json:"count" db:"n"`
}
