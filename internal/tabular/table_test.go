package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		header []string
		rows   [][]string
	}{
		{
			name:   "comma",
			input:  "Título,Género\nDune,Sci-Fi\n",
			header: []string{"Título", "Género"},
			rows:   [][]string{{"Dune", "Sci-Fi"}},
		},
		{
			name:   "semicolon with BOM",
			input:  "\xEF\xBB\xBFnombre;genero;pais\nRoma;Drama;México\n",
			header: []string{"nombre", "genero", "pais"},
			rows:   [][]string{{"Roma", "Drama", "México"}},
		},
		{
			name:   "tab",
			input:  "title\tgenre\nAlien\tHorror\n",
			header: []string{"title", "genre"},
			rows:   [][]string{{"Alien", "Horror"}},
		},
		{
			name:   "quoted delimiter does not affect sniffing",
			input:  "\"title, original\";genre\n\"Crouching Tiger, Hidden Dragon\";Wuxia\n",
			header: []string{"title, original", "genre"},
			rows:   [][]string{{"Crouching Tiger, Hidden Dragon", "Wuxia"}},
		},
		{
			name:   "ragged rows kept",
			input:  "title,genre,country\nDune,Sci-Fi\nRoma,Drama,México,extra\n",
			header: []string{"title", "genre", "country"},
			rows:   [][]string{{"Dune", "Sci-Fi"}, {"Roma", "Drama", "México", "extra"}},
		},
		{
			name:   "header only",
			input:  "title,genre\n",
			header: []string{"title", "genre"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.header, got.Header)
			if tt.rows == nil {
				assert.Empty(t, got.Rows)
			} else {
				assert.Equal(t, tt.rows, got.Rows)
			}
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, types.ErrMalformedRow)
}

func TestRowError(t *testing.T) {
	e := RowError{Row: 3, Reason: "missing title", Err: types.ErrMissingRequiredField}
	assert.EqualError(t, e, "row 3: missing title")
	assert.ErrorIs(t, e, types.ErrMissingRequiredField)
}
