package tabular

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

func TestReadJSONL(t *testing.T) {
	input := `{"nombre":"Dune","genero":"Sci-Fi","traduccion":true}
not json

{"genero":"Drama","nombre":"Roma","pais":"México","fecha":null}
[1,2]
{"nombre":"Alien","genero":"Horror","id":7}
`
	table, errs, err := ReadJSONL(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"nombre", "genero", "traduccion", "pais", "fecha", "id"}, table.Header)
	assert.Equal(t, []int{1, 4, 6}, table.Index)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Dune", "Sci-Fi", "true", "", "", ""}, table.Rows[0])
	assert.Equal(t, []string{"Roma", "Drama", "", "México", "", ""}, table.Rows[1])
	assert.Equal(t, "7", table.Rows[2][5])

	require.Len(t, errs, 2)
	assert.Equal(t, 2, errs[0].Row)
	assert.Equal(t, 5, errs[1].Row)
	assert.ErrorIs(t, errs[1], types.ErrMalformedRow)

	records, rowErrs := Normalize(table)
	require.Empty(t, rowErrs)
	require.Len(t, records, 3)
	assert.True(t, records[0].Fields.Translation)
	assert.Equal(t, 4, records[1].Row)
}

func TestReadJSONL_ByteOrderMark(t *testing.T) {
	input := "\xEF\xBB\xBF{\"nombre\":\"Amélie\",\"genero\":\"Comedia\"}\n{\"nombre\":\"Roma\",\"genero\":\"Drama\"}\n"
	table, errs, err := ReadJSONL(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, []string{"nombre", "genero"}, table.Header)
	assert.Equal(t, []int{1, 2}, table.Index)
	assert.Equal(t, "Amélie", table.Rows[0][0])
}

func TestWriteJSONLRoundTrip(t *testing.T) {
	movies := []types.Movie{
		{ID: 1, MovieFields: types.MovieFields{Title: "Amélie", Genre: "Comedia", Language: "Francés", ReleaseDate: "2001-04-25", Country: "Francia"}, CreatedBy: "admin", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: 2, MovieFields: types.MovieFields{Title: "Parasite", Genre: "Thriller", Language: "Coreano", Translation: true, ReleaseDate: "2019-05-30", Country: "Corea del Sur"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, movies))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	table, errs, err := ReadJSONL(&buf)
	require.NoError(t, err)
	require.Empty(t, errs)

	records, rowErrs := Normalize(table)
	require.Empty(t, rowErrs)
	require.Len(t, records, 2)
	for i, r := range records {
		assert.Equal(t, movies[i].MovieFields, r.Fields)
	}
}
