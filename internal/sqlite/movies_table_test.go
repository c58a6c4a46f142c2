package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// emptyMovies attaches an unseeded backend and returns its movie store.
func emptyMovies(t *testing.T) types.MovieStore {
	t.Helper()
	b := attachTestBackend(t, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	movies, err := b.Movies()
	require.NoError(t, err)
	return movies
}

// tickClock makes now advance one second per call for the duration of the
// test.
func tickClock(t *testing.T) {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	orig := now
	now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	t.Cleanup(func() { now = orig })
}

func TestMoviesTable_AddRoundTrip(t *testing.T) {
	ctx := context.Background()
	movies := emptyMovies(t)

	tests := []types.MovieFields{
		{Title: "Dune", Genre: "Sci-Fi"},
		{Title: "Amélie", Genre: "Comedy", Language: "French", Translation: false, ReleaseDate: "2001-04-25", Country: "France"},
		{Title: "  Roma ", Genre: " Drama ", Language: "Español", Translation: true, Country: "México"},
	}

	for _, f := range tests {
		t.Run(f.Title, func(t *testing.T) {
			id, err := movies.Add(ctx, f, "ana")
			require.NoError(t, err)
			assert.Positive(t, id)

			all, err := movies.List(ctx)
			require.NoError(t, err)

			var found *types.Movie
			for i := range all {
				if all[i].ID == id {
					found = &all[i]
				}
			}
			require.NotNil(t, found, "added movie is listed")
			assert.Equal(t, f.Trimmed(), found.MovieFields)
			assert.Equal(t, "ana", found.CreatedBy)
			assert.False(t, found.CreatedAt.IsZero())
		})
	}
}

func TestMoviesTable_AddRequiresTitleAndGenre(t *testing.T) {
	ctx := context.Background()
	movies := emptyMovies(t)

	_, err := movies.Add(ctx, types.MovieFields{Title: "Dune"}, "ana")
	assert.ErrorIs(t, err, types.ErrMissingRequiredField)
	_, err = movies.Add(ctx, types.MovieFields{Genre: "Sci-Fi"}, "ana")
	assert.ErrorIs(t, err, types.ErrMissingRequiredField)

	all, err := movies.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMoviesTable_ListOrder(t *testing.T) {
	ctx := context.Background()
	tickClock(t)
	movies := emptyMovies(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := movies.Add(ctx, types.MovieFields{Title: title, Genre: "g"}, "ana")
		require.NoError(t, err)
	}

	all, err := movies.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"third", "second", "first"}, titles(all))

	again, err := movies.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, again, "listing twice gives the same sequence")
}

func TestMoviesTable_ListOrderSameTimestamp(t *testing.T) {
	ctx := context.Background()
	movies := emptyMovies(t)

	_, err := movies.AddBatch(ctx, []types.MovieFields{
		{Title: "a", Genre: "g"},
		{Title: "b", Genre: "g"},
		{Title: "c", Genre: "g"},
	}, "ana")
	require.NoError(t, err)

	all, err := movies.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, titles(all), "insertion order breaks ties, newest first")
}

func TestMoviesTable_AddBatch(t *testing.T) {
	ctx := context.Background()
	movies := emptyMovies(t)

	ids, err := movies.AddBatch(ctx, []types.MovieFields{
		{Title: "Dune", Genre: "Sci-Fi"},
		{Title: "Roma", Genre: "Drama"},
	}, "ana")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = movies.AddBatch(ctx, []types.MovieFields{
		{Title: "Alien", Genre: "Horror"},
		{Title: "", Genre: "Drama"},
	}, "ana")
	assert.ErrorIs(t, err, types.ErrMissingRequiredField)
	assert.Contains(t, err.Error(), "entry 2")

	all, err := movies.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "an invalid entry writes nothing")

	ids, err = movies.AddBatch(ctx, nil, "ana")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMoviesTable_Update(t *testing.T) {
	ctx := context.Background()
	movies := emptyMovies(t)

	id, err := movies.Add(ctx, types.MovieFields{Title: "Dune", Genre: "Sci-Fi"}, "ana")
	require.NoError(t, err)

	err = movies.Update(ctx, id, types.MovieFields{Title: "Dune: Part One", Genre: "Sci-Fi", Translation: true, Country: "USA"})
	require.NoError(t, err)

	got, err := movies.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dune: Part One", got.Title)
	assert.True(t, got.Translation)
	assert.Equal(t, "ana", got.CreatedBy, "owner is not changed by edits")

	err = movies.Update(ctx, id+100, types.MovieFields{Title: "x", Genre: "y"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = movies.Update(ctx, id, types.MovieFields{Title: "x"})
	assert.ErrorIs(t, err, types.ErrMissingRequiredField)
}

func TestMoviesTable_Delete(t *testing.T) {
	ctx := context.Background()
	movies := emptyMovies(t)

	id, err := movies.Add(ctx, types.MovieFields{Title: "Dune", Genre: "Sci-Fi"}, "ana")
	require.NoError(t, err)

	title, err := movies.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", title)

	_, err = movies.Delete(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = movies.Get(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMoviesTable_Clear(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	movies, err := b.Movies()
	require.NoError(t, err)

	n, err := movies.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(seedMovies), n)

	all, err := movies.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMoviesTable_Search(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	movies, err := b.Movies()
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"inception", []string{"Inception"}},
		{"FICCIÓN", []string{"Inception"}},
		{"corea", []string{"Parasite"}},
		{"españa", []string{"El Laberinto del Fauno"}},
		{"espana", []string{"El Laberinto del Fauno"}},
		{"ficcion", []string{"Inception"}},
		{"FANTASIA", []string{"El Laberinto del Fauno"}},
		{"thriller", []string{"Parasite"}},
		{"nothing-matches", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := movies.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, titles(got))
		})
	}

	t.Run("accents in the stored value are ignored", func(t *testing.T) {
		id, err := movies.Add(ctx, types.MovieFields{Title: "Roma", Genre: "Drama", Country: "México"}, "admin")
		require.NoError(t, err)
		t.Cleanup(func() { movies.Delete(ctx, id) })

		for _, q := range []string{"mexico", "MEXICO", "México", "méxico"} {
			got, err := movies.Search(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, []string{"Roma"}, titles(got), q)
		}
	})

	t.Run("language is not searched", func(t *testing.T) {
		got, err := movies.Search(ctx, "coreano")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty query returns everything", func(t *testing.T) {
		got, err := movies.Search(ctx, "  ")
		require.NoError(t, err)
		assert.Len(t, got, len(seedMovies))
	})
}

func TestMoviesTable_Stats(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	movies, err := b.Movies()
	require.NoError(t, err)

	_, err = movies.Add(ctx, types.MovieFields{Title: "Alien", Genre: "Thriller", Language: "Inglés"}, "admin")
	require.NoError(t, err)

	st, err := movies.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(seedMovies)+1, st.Total)
	assert.Equal(t, 4, st.Genres)
	assert.Equal(t, 4, st.Languages)
	assert.Equal(t, 3, st.Translated)
	require.NotEmpty(t, st.ByGenre)
	assert.Equal(t, types.LabelCount{Label: "Thriller", Count: 2}, st.ByGenre[0])
	assert.Contains(t, st.ByCountry, types.LabelCount{Label: types.UnknownValue, Count: 1})
}

func titles(ms []types.Movie) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Title)
	}
	return out
}
