package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/marquee/internal/textfold"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

const movieColumns = "id, nombre, genero, idioma, traduccion, fecha, pais, fecha_creacion, usuario_creacion"

// listOrder puts the newest record first; id breaks ties between rows
// created in the same second or backfilled by a migration.
const listOrder = "ORDER BY fecha_creacion DESC, id DESC"

const insertMovieSQL = `INSERT INTO peliculas (nombre, genero, idioma, traduccion, fecha, pais, fecha_creacion, usuario_creacion)
VALUES (:nombre, :genero, :idioma, :traduccion, :fecha, :pais, :fecha_creacion, :usuario_creacion)`

// movieRow mirrors a peliculas row. Columns added by later migrations may be
// NULL on databases created by older versions.
type movieRow struct {
	ID              int64          `db:"id"`
	Nombre          sql.NullString `db:"nombre"`
	Genero          sql.NullString `db:"genero"`
	Idioma          sql.NullString `db:"idioma"`
	Traduccion      sql.NullString `db:"traduccion"`
	Fecha           sql.NullString `db:"fecha"`
	Pais            sql.NullString `db:"pais"`
	FechaCreacion   sql.NullString `db:"fecha_creacion"`
	UsuarioCreacion sql.NullString `db:"usuario_creacion"`
}

func (r movieRow) movie() types.Movie {
	return types.Movie{
		ID: r.ID,
		MovieFields: types.MovieFields{
			Title:       r.Nombre.String,
			Genre:       r.Genero.String,
			Language:    r.Idioma.String,
			Translation: types.ParseTranslation(r.Traduccion.String),
			ReleaseDate: r.Fecha.String,
			Country:     r.Pais.String,
		},
		CreatedAt: parseTimestamp(r.FechaCreacion.String),
		CreatedBy: r.UsuarioCreacion.String,
	}
}

// movieArgs binds the named parameters of insertMovieSQL.
func movieArgs(f types.MovieFields, createdBy, ts string) map[string]any {
	return map[string]any{
		"nombre":           f.Title,
		"genero":           f.Genre,
		"idioma":           f.Language,
		"traduccion":       types.TranslationLabel(f.Translation),
		"fecha":            f.ReleaseDate,
		"pais":             f.Country,
		"fecha_creacion":   ts,
		"usuario_creacion": createdBy,
	}
}

// moviesTable implements types.MovieStore.
type moviesTable struct {
	backend *Backend
}

func (t *moviesTable) List(ctx context.Context) ([]types.Movie, error) {
	db, err := t.backend.conn()
	if err != nil {
		return nil, err
	}
	var rows []movieRow
	if err := db.SelectContext(ctx, &rows, "SELECT "+movieColumns+" FROM peliculas "+listOrder); err != nil {
		return nil, storageErr("listing movies", err)
	}
	movies := make([]types.Movie, 0, len(rows))
	for _, r := range rows {
		movies = append(movies, r.movie())
	}
	return movies, nil
}

func (t *moviesTable) Get(ctx context.Context, id int64) (types.Movie, error) {
	db, err := t.backend.conn()
	if err != nil {
		return types.Movie{}, err
	}
	var r movieRow
	err = db.GetContext(ctx, &r, "SELECT "+movieColumns+" FROM peliculas WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Movie{}, fmt.Errorf("movie %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Movie{}, storageErr("getting movie", err)
	}
	return r.movie(), nil
}

func (t *moviesTable) Add(ctx context.Context, f types.MovieFields, createdBy string) (int64, error) {
	f = f.Trimmed()
	if err := f.Validate(); err != nil {
		return 0, err
	}
	db, err := t.backend.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.NamedExecContext(ctx, insertMovieSQL, movieArgs(f, createdBy, formatTimestamp(now())))
	if err != nil {
		return 0, storageErr("adding movie", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("adding movie", err)
	}
	return id, nil
}

func (t *moviesTable) AddBatch(ctx context.Context, batch []types.MovieFields, createdBy string) ([]int64, error) {
	clean := make([]types.MovieFields, len(batch))
	for i, f := range batch {
		clean[i] = f.Trimmed()
		if err := clean[i].Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
	}
	if len(clean) == 0 {
		return nil, nil
	}

	db, err := t.backend.conn()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("beginning import", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, insertMovieSQL)
	if err != nil {
		return nil, storageErr("preparing import", err)
	}
	defer stmt.Close()

	ts := formatTimestamp(now())
	ids := make([]int64, 0, len(clean))
	for i, f := range clean {
		res, err := stmt.ExecContext(ctx, movieArgs(f, createdBy, ts))
		if err != nil {
			return nil, storageErr(fmt.Sprintf("importing entry %d", i+1), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, storageErr(fmt.Sprintf("importing entry %d", i+1), err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing import", err)
	}
	return ids, nil
}

func (t *moviesTable) Update(ctx context.Context, id int64, f types.MovieFields) error {
	f = f.Trimmed()
	if err := f.Validate(); err != nil {
		return err
	}
	db, err := t.backend.conn()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"UPDATE peliculas SET nombre = ?, genero = ?, idioma = ?, traduccion = ?, fecha = ?, pais = ? WHERE id = ?",
		f.Title, f.Genre, f.Language, types.TranslationLabel(f.Translation), f.ReleaseDate, f.Country, id,
	)
	if err != nil {
		return storageErr("updating movie", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("updating movie", err)
	}
	if n == 0 {
		return fmt.Errorf("movie %d: %w", id, types.ErrNotFound)
	}
	return nil
}

func (t *moviesTable) Delete(ctx context.Context, id int64) (string, error) {
	m, err := t.Get(ctx, id)
	if err != nil {
		return "", err
	}
	db, err := t.backend.conn()
	if err != nil {
		return "", err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM peliculas WHERE id = ?", id); err != nil {
		return "", storageErr("deleting movie", err)
	}
	return m.Title, nil
}

func (t *moviesTable) Clear(ctx context.Context) (int64, error) {
	db, err := t.backend.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM peliculas")
	if err != nil {
		return 0, storageErr("clearing movies", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("clearing movies", err)
	}
	return n, nil
}

// Search filters List in Go. SQLite's LIKE only folds ASCII, which would
// miss "ficción" against "FICCIÓN".
func (t *moviesTable) Search(ctx context.Context, text string) ([]types.Movie, error) {
	movies, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return movies, nil
	}
	needle := textfold.Fold(strings.TrimSpace(text))
	out := make([]types.Movie, 0, len(movies))
	for _, m := range movies {
		for _, field := range []string{m.Title, m.Genre, m.Country} {
			if strings.Contains(textfold.Fold(field), needle) {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (t *moviesTable) Stats(ctx context.Context) (types.CatalogStats, error) {
	db, err := t.backend.conn()
	if err != nil {
		return types.CatalogStats{}, err
	}

	var st types.CatalogStats
	err = db.QueryRowxContext(ctx, `SELECT
    COUNT(*),
    COUNT(DISTINCT genero),
    COUNT(DISTINCT idioma),
    COALESCE(SUM(CASE WHEN traduccion = ? THEN 1 ELSE 0 END), 0)
FROM peliculas`, types.TranslationYes).Scan(&st.Total, &st.Genres, &st.Languages, &st.Translated)
	if err != nil {
		return types.CatalogStats{}, storageErr("computing stats", err)
	}

	if err := db.SelectContext(ctx, &st.ByGenre,
		"SELECT COALESCE(genero, '') AS label, COUNT(*) AS n FROM peliculas GROUP BY label ORDER BY n DESC, label ASC",
	); err != nil {
		return types.CatalogStats{}, storageErr("grouping by genre", err)
	}
	if err := db.SelectContext(ctx, &st.ByCountry,
		"SELECT COALESCE(NULLIF(pais, ''), ?) AS label, COUNT(*) AS n FROM peliculas GROUP BY label ORDER BY n DESC, label ASC",
		types.UnknownValue,
	); err != nil {
		return types.CatalogStats{}, storageErr("grouping by country", err)
	}
	return st, nil
}
