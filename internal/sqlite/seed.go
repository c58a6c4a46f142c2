package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/marquee/internal/auth"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// seedAdminUsername is the account guaranteed to exist with the admin role.
const seedAdminUsername = "admin"

// seedAccount describes an account to create on a fresh database.
type seedAccount struct {
	username    string
	displayName string
	role        types.Role
	password    func(types.SeedConfig) string
}

var seedAccounts = []seedAccount{
	{
		username:    seedAdminUsername,
		displayName: "Administrador",
		role:        types.RoleAdmin,
		password: func(c types.SeedConfig) string {
			return orDefault(c.AdminPassword, types.DefaultAdminPassword)
		},
	},
	{
		username:    "viewer",
		displayName: "Invitado",
		role:        types.RoleViewer,
		password: func(c types.SeedConfig) string {
			return orDefault(c.ViewerPassword, types.DefaultViewerPassword)
		},
	},
}

// seedMovies are the sample records written on a fresh database.
var seedMovies = []types.MovieFields{
	{Title: "Inception", Genre: "Ciencia Ficción", Language: "Inglés", Translation: true, ReleaseDate: "2010-07-16", Country: "USA"},
	{Title: "El Laberinto del Fauno", Genre: "Fantasía", Language: "Español", Translation: true, ReleaseDate: "2006-10-11", Country: "España"},
	{Title: "Parasite", Genre: "Thriller", Language: "Coreano", Translation: true, ReleaseDate: "2019-05-30", Country: "Corea del Sur"},
	{Title: "Amélie", Genre: "Comedia", Language: "Francés", Translation: false, ReleaseDate: "2001-04-25", Country: "Francia"},
}

// seed writes the default accounts and sample movies when the users table
// is empty. On an existing database it only makes sure an active admin
// remains, promoting the "admin" account if necessary.
func seed(ctx context.Context, db *sqlx.DB, hasher *auth.Hasher, cfg types.SeedConfig, log zerolog.Logger) error {
	var users int
	if err := db.GetContext(ctx, &users, "SELECT COUNT(*) FROM usuarios"); err != nil {
		return storageErr("counting users", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("beginning seed transaction", err)
	}
	defer tx.Rollback()

	if users == 0 {
		ts := formatTimestamp(now())
		for _, acct := range seedAccounts {
			digest, err := hasher.Digest(acct.password(cfg))
			if err != nil {
				return fmt.Errorf("hashing %s password: %w", acct.username, err)
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO usuarios (username, password, nombre, rol, activo, fecha_creacion) VALUES (?, ?, ?, ?, 1, ?)",
				acct.username, digest, acct.displayName, string(acct.role), ts,
			)
			if err != nil {
				return storageErr("seeding user "+acct.username, err)
			}
		}

		var movies int
		if err := tx.GetContext(ctx, &movies, "SELECT COUNT(*) FROM peliculas"); err != nil {
			return storageErr("counting movies", err)
		}
		if movies == 0 {
			for _, m := range seedMovies {
				if _, err := tx.NamedExecContext(ctx, insertMovieSQL, movieArgs(m, seedAdminUsername, ts)); err != nil {
					return storageErr("seeding movie "+m.Title, err)
				}
			}
		}
		log.Info().Int("users", len(seedAccounts)).Msg("seeded fresh database")
	} else {
		var admins int
		if err := tx.GetContext(ctx, &admins,
			"SELECT COUNT(*) FROM usuarios WHERE rol = ? AND activo = 1", string(types.RoleAdmin),
		); err != nil {
			return storageErr("counting admins", err)
		}
		if admins == 0 {
			res, err := tx.ExecContext(ctx,
				"UPDATE usuarios SET rol = ?, activo = 1 WHERE username = ?",
				string(types.RoleAdmin), seedAdminUsername,
			)
			if err != nil {
				return storageErr("promoting admin", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				log.Warn().Str("username", seedAdminUsername).Msg("no active admin found; promoted account")
			} else {
				log.Warn().Msg("no active admin found and no admin account to promote")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing seed transaction", err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
