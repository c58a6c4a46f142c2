// Package catalog is the data-access layer for the movie catalog.
//
// A Service wraps the credential and catalog stores behind session-scoped
// operations. Every mutation is checked against internal/policy before it
// reaches storage, and every call returns a Result rather than a bare error.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/marquee/internal/policy"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// Service is the data-access façade. It is safe to share between sessions,
// though the store beneath assumes a single writer.
type Service struct {
	backend types.Backend
	log     zerolog.Logger
	now     func() time.Time
}

// NewService returns a Service over an attached backend.
func NewService(backend types.Backend, log zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		log:     log.With().Str("component", "catalog").Logger(),
		now:     time.Now,
	}
}

// Login authenticates username and password and opens a session. A wrong
// password, an unknown or inactive account, and a storage fault all return
// false; only the log tells them apart.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, bool) {
	log := s.log.With().Str("op", "login").Str("actor", username).Logger()

	users, err := s.backend.Users()
	if err != nil {
		log.Error().Err(err).Msg("storage fault")
		return nil, false
	}
	u, ok, err := users.Authenticate(ctx, username, password)
	if err != nil {
		log.Error().Err(err).Msg("storage fault")
		return nil, false
	}
	if !ok {
		log.Info().Msg("login failed")
		return nil, false
	}

	sess, err := newSession(u, s.now())
	if err != nil {
		log.Error().Err(err).Msg("opening session")
		return nil, false
	}
	log.Info().Str("session", sess.ID.String()).Str("role", u.Role.String()).Msg("logged in")
	return sess, true
}

// Logout closes the session and drops any staged upload. Closing a closed
// session does nothing.
func (s *Service) Logout(sess *Session) {
	if sess.Closed() {
		return
	}
	sess.close()
	log := s.sessionLog(sess, "logout")
	log.Info().Dur("duration", s.now().Sub(sess.StartedAt)).Msg("logged out")
}

// CurrentUser reloads the session's account. When the account has been
// removed or deactivated the session is closed.
func (s *Service) CurrentUser(ctx context.Context, sess *Session) Result[types.User] {
	log := s.sessionLog(sess, "current_user")
	if sess.Closed() {
		return fail(log, types.User{}, types.ErrSessionClosed)
	}
	users, err := s.backend.Users()
	if err != nil {
		return fail(log, sess.User, err)
	}
	u, err := users.Get(ctx, sess.User.ID)
	switch {
	case err != nil && isFault(err):
		return fail(log, sess.User, err)
	case err != nil, !u.Active:
		s.Logout(sess)
		return fail(log, types.User{}, types.ErrSessionClosed)
	}
	return succeeded(u, "signed in as %s (%s)", u.Username, u.Role)
}

// ListMovies returns the catalog, most recently created first. A storage
// fault yields an empty list.
func (s *Service) ListMovies(ctx context.Context, sess *Session) Result[[]types.Movie] {
	log := s.sessionLog(sess, "list_movies")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, []types.Movie{}, err)
	}
	all, err := movies.List(ctx)
	if err != nil {
		return fail(log, []types.Movie{}, err)
	}
	return succeeded(all, "%d movies", len(all))
}

// SearchMovies matches text against title, genre and country, ignoring case
// and accents.
func (s *Service) SearchMovies(ctx context.Context, sess *Session, text string) Result[[]types.Movie] {
	log := s.sessionLog(sess, "search_movies")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, []types.Movie{}, err)
	}
	found, err := movies.Search(ctx, text)
	if err != nil {
		return fail(log, []types.Movie{}, err)
	}
	return succeeded(found, "%d movies match %q", len(found), text)
}

// GetMovie returns one movie.
func (s *Service) GetMovie(ctx context.Context, sess *Session, id int64) Result[types.Movie] {
	log := s.sessionLog(sess, "get_movie")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, types.Movie{}, err)
	}
	m, err := movies.Get(ctx, id)
	if err != nil {
		return fail(log, types.Movie{}, err)
	}
	return succeeded(m, "movie %d: %s", m.ID, m.Title)
}

// AddMovie creates a movie owned by the session's user.
func (s *Service) AddMovie(ctx context.Context, sess *Session, f types.MovieFields) Result[int64] {
	log := s.sessionLog(sess, "add_movie")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, int64(0), err)
	}
	if !policy.CanCreateOrImport(sess.User.Role) {
		return fail(log, int64(0), denied("adding movies"))
	}
	if err := f.Validate(); err != nil {
		return fail(log, int64(0), err)
	}

	id, err := movies.Add(ctx, f, sess.User.Username)
	if err != nil {
		return fail(log, int64(0), err)
	}
	log.Info().Int64("movie", id).Msg("movie added")
	return succeeded(id, "added %q as movie %d", f.Trimmed().Title, id)
}

// UpdateMovie replaces the editable fields of a movie. The owner and creation
// time are kept.
func (s *Service) UpdateMovie(ctx context.Context, sess *Session, id int64, f types.MovieFields) Result[types.Movie] {
	log := s.sessionLog(sess, "update_movie")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, types.Movie{}, err)
	}
	current, err := movies.Get(ctx, id)
	if err != nil {
		return fail(log, types.Movie{}, err)
	}
	if !policy.CanEdit(sess.User.Role, sess.User.Username, current.CreatedBy) {
		return fail(log, types.Movie{}, denied(fmt.Sprintf("editing movie %d", id)))
	}
	if err := f.Validate(); err != nil {
		return fail(log, types.Movie{}, err)
	}

	if err := movies.Update(ctx, id, f); err != nil {
		return fail(log, types.Movie{}, err)
	}
	updated, err := movies.Get(ctx, id)
	if err != nil {
		return fail(log, types.Movie{}, err)
	}
	log.Info().Int64("movie", id).Msg("movie updated")
	return succeeded(updated, "updated movie %d", id)
}

// DeleteMovie removes a movie and returns its title. The owner is resolved
// first so that a missing id reports not found rather than denied.
func (s *Service) DeleteMovie(ctx context.Context, sess *Session, id int64) Result[string] {
	log := s.sessionLog(sess, "delete_movie")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, "", err)
	}
	current, err := movies.Get(ctx, id)
	if err != nil {
		return fail(log, "", err)
	}
	if !policy.CanDelete(sess.User.Role, sess.User.Username, current.CreatedBy) {
		return fail(log, "", denied(fmt.Sprintf("deleting movie %d", id)))
	}

	title, err := movies.Delete(ctx, id)
	if err != nil {
		return fail(log, "", err)
	}
	log.Info().Int64("movie", id).Str("title", title).Msg("movie deleted")
	return succeeded(title, "deleted %q", title)
}

// ClearAll removes every movie. It cannot be undone; callers confirm before
// calling.
func (s *Service) ClearAll(ctx context.Context, sess *Session) Result[int64] {
	log := s.sessionLog(sess, "clear_all")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, int64(0), err)
	}
	if !policy.CanReplaceAllData(sess.User.Role) {
		return fail(log, int64(0), denied("clearing the catalog"))
	}

	n, err := movies.Clear(ctx)
	if err != nil {
		return fail(log, int64(0), err)
	}
	log.Info().Int64("removed", n).Msg("catalog cleared")
	return succeeded(n, "removed %d movies", n)
}

// Stats returns the aggregate numbers behind the dashboard.
func (s *Service) Stats(ctx context.Context, sess *Session) Result[types.CatalogStats] {
	log := s.sessionLog(sess, "stats")
	movies, err := s.movies(sess)
	if err != nil {
		return fail(log, types.CatalogStats{}, err)
	}
	st, err := movies.Stats(ctx)
	if err != nil {
		return fail(log, types.CatalogStats{}, err)
	}
	return succeeded(st, "%d movies, %d genres, %d languages, %d translated",
		st.Total, st.Genres, st.Languages, st.Translated)
}

// movies checks the session and returns the catalog store.
func (s *Service) movies(sess *Session) (types.MovieStore, error) {
	if sess.Closed() {
		return nil, types.ErrSessionClosed
	}
	return s.backend.Movies()
}

func (s *Service) users(sess *Session) (types.UserStore, error) {
	if sess.Closed() {
		return nil, types.ErrSessionClosed
	}
	return s.backend.Users()
}

// sessionLog returns a logger tagged with the session, its user and op.
func (s *Service) sessionLog(sess *Session, op string) zerolog.Logger {
	ctx := s.log.With().Str("op", op)
	if sess != nil {
		ctx = ctx.Str("session", sess.ID.String()).Str("actor", sess.User.Username)
	}
	return ctx.Logger()
}
