package tabular

import (
	"strings"

	"github.com/mesh-intelligence/marquee/internal/textfold"
)

// Field is one of the six canonical movie attributes an import column can
// map to.
type Field int

const (
	FieldTitle Field = iota
	FieldGenre
	FieldLanguage
	FieldTranslation
	FieldDate
	FieldCountry
)

var fieldNames = [...]string{"title", "genre", "language", "translation", "date", "country"}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "unknown"
}

// FieldKeywords maps a canonical field to the header fragments that select
// it.
type FieldKeywords struct {
	Field    Field
	Keywords []string
}

// Keywords is the header matching table, in priority order: a header is
// assigned to the first group with a keyword it contains. New synonyms go
// here.
var Keywords = []FieldKeywords{
	{FieldTitle, []string{"título", "titulo", "title", "nombre", "name", "película", "pelicula"}},
	{FieldGenre, []string{"género", "genero", "genre", "categoría", "categoria", "category"}},
	{FieldLanguage, []string{"idioma", "language", "lengua", "lang"}},
	{FieldTranslation, []string{"traducción", "traduccion", "translation", "translated", "doblaje", "dubbed"}},
	{FieldDate, []string{"fecha", "date", "estreno", "release", "año", "year"}},
	{FieldCountry, []string{"país", "pais", "country", "origen", "origin", "nación", "nacion"}},
}

// ignoredHeaders are bookkeeping columns written by exports. They would
// otherwise match the date group.
var ignoredHeaders = map[string]bool{
	"id":               true,
	"fecha_creacion":   true,
	"usuario_creacion": true,
	"created_at":       true,
	"created_by":       true,
}

// MatchHeader returns the canonical field a column header maps to.
func MatchHeader(header string) (Field, bool) {
	h := textfold.FoldCase(strings.TrimSpace(header))
	if h == "" || ignoredHeaders[h] {
		return 0, false
	}
	for _, group := range Keywords {
		for _, kw := range group.Keywords {
			if strings.Contains(h, textfold.FoldCase(kw)) {
				return group.Field, true
			}
		}
	}
	return 0, false
}

// columnMap assigns each canonical field the index of the last header that
// matches it.
func columnMap(header []string) map[Field]int {
	cols := make(map[Field]int, len(Keywords))
	for i, h := range header {
		if f, ok := MatchHeader(h); ok {
			cols[f] = i
		}
	}
	return cols
}
