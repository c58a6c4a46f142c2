package types

import (
	"context"
	"errors"
)

// Backend is the storage lifecycle: attach to a database, hand out stores,
// detach when done.
type Backend interface {
	// Attach opens the database described by config, migrating and seeding
	// it as needed. Returns ErrAlreadyAttached if called twice.
	Attach(config Config) error

	// Detach releases the database. Idempotent. Afterwards Users and Movies
	// return ErrDetached.
	Detach() error

	Users() (UserStore, error)
	Movies() (MovieStore, error)
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// UserStore is the credential store.
type UserStore interface {
	// Authenticate returns the active user matching username and password.
	// A mismatch is reported through the boolean; the error is reserved for
	// storage faults.
	Authenticate(ctx context.Context, username, password string) (User, bool, error)
	Create(ctx context.Context, u NewUser) (User, error)
	Update(ctx context.Context, id int64, u UserUpdate) (User, error)
	// SetPassword replaces the stored digest without checking the old one.
	SetPassword(ctx context.Context, id int64, password string) error
	Get(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	// List returns users, most recently created first.
	List(ctx context.Context) ([]User, error)
}

// MovieStore is the catalog store.
type MovieStore interface {
	// List returns movies, most recently created first. Two calls without an
	// intervening mutation return the same sequence.
	List(ctx context.Context) ([]Movie, error)
	Get(ctx context.Context, id int64) (Movie, error)
	Add(ctx context.Context, f MovieFields, createdBy string) (int64, error)
	// AddBatch inserts every entry in one transaction. Nothing is written if
	// any entry fails validation.
	AddBatch(ctx context.Context, batch []MovieFields, createdBy string) ([]int64, error)
	Update(ctx context.Context, id int64, f MovieFields) error
	// Delete removes the movie and returns its title.
	Delete(ctx context.Context, id int64) (string, error)
	// Clear removes every movie and returns how many were removed.
	Clear(ctx context.Context) (int64, error)
	// Search matches text case-insensitively against title, genre and
	// country.
	Search(ctx context.Context, text string) ([]Movie, error)
	Stats(ctx context.Context) (CatalogStats, error)
}
