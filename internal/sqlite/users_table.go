package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/marquee/internal/auth"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

const userColumns = "id, username, nombre, rol, activo, fecha_creacion"

// userRow mirrors a usuarios row without the password column.
type userRow struct {
	ID            int64          `db:"id"`
	Username      string         `db:"username"`
	Nombre        sql.NullString `db:"nombre"`
	Rol           sql.NullString `db:"rol"`
	Activo        bool           `db:"activo"`
	FechaCreacion sql.NullString `db:"fecha_creacion"`
}

// credentialRow adds the stored digest for authentication.
type credentialRow struct {
	userRow
	Password string `db:"password"`
}

// user converts the row. A role the enumeration does not know is read as
// viewer so that a corrupt row never grants privileges.
func (r userRow) user() types.User {
	role, err := types.ParseRole(r.Rol.String)
	if err != nil {
		role = types.RoleViewer
	}
	return types.User{
		ID:          r.ID,
		Username:    r.Username,
		DisplayName: r.Nombre.String,
		Role:        role,
		Active:      r.Activo,
		CreatedAt:   parseTimestamp(r.FechaCreacion.String),
	}
}

// usersTable implements types.UserStore.
type usersTable struct {
	backend *Backend
}

func (t *usersTable) Authenticate(ctx context.Context, username, password string) (types.User, bool, error) {
	db, err := t.backend.conn()
	if err != nil {
		return types.User{}, false, err
	}

	var r credentialRow
	err = db.GetContext(ctx, &r, "SELECT "+userColumns+", password FROM usuarios WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, false, nil
	}
	if err != nil {
		return types.User{}, false, storageErr("authenticating", err)
	}
	if !r.Activo || !auth.Verify(r.Password, password) {
		return types.User{}, false, nil
	}

	if t.backend.hasher.NeedsUpgrade(r.Password) {
		t.upgradeDigest(ctx, db, r.ID, password)
	}
	return r.user(), true, nil
}

// upgradeDigest rehashes a legacy digest in the configured scheme. Failure
// leaves the legacy digest in place, which still verifies.
func (t *usersTable) upgradeDigest(ctx context.Context, db *sqlx.DB, id int64, password string) {
	log := t.backend.log.With().Int64("user_id", id).Logger()
	digest, err := t.backend.hasher.Digest(password)
	if err != nil {
		log.Warn().Err(err).Msg("password upgrade skipped")
		return
	}
	if _, err := db.ExecContext(ctx, "UPDATE usuarios SET password = ? WHERE id = ?", digest, id); err != nil {
		log.Warn().Err(err).Msg("password upgrade skipped")
		return
	}
	log.Info().Str("scheme", t.backend.hasher.Scheme()).Msg("password digest upgraded")
}

func (t *usersTable) Create(ctx context.Context, u types.NewUser) (types.User, error) {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return types.User{}, fmt.Errorf("%w: username", types.ErrMissingRequiredField)
	}
	if u.Password == "" {
		return types.User{}, fmt.Errorf("%w: password", types.ErrMissingRequiredField)
	}
	role := u.Role
	if role == "" {
		role = types.RoleViewer
	}
	if !role.Valid() {
		return types.User{}, fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}

	db, err := t.backend.conn()
	if err != nil {
		return types.User{}, err
	}
	digest, err := t.backend.hasher.Digest(u.Password)
	if err != nil {
		return types.User{}, err
	}

	res, err := db.ExecContext(ctx,
		"INSERT INTO usuarios (username, password, nombre, rol, activo, fecha_creacion) VALUES (?, ?, ?, ?, 1, ?)",
		username, digest, strings.TrimSpace(u.DisplayName), string(role), formatTimestamp(now()),
	)
	if isUniqueViolation(err) {
		return types.User{}, fmt.Errorf("%q: %w", username, types.ErrDuplicateUsername)
	}
	if err != nil {
		return types.User{}, storageErr("creating user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.User{}, storageErr("creating user", err)
	}
	return t.Get(ctx, id)
}

func (t *usersTable) Update(ctx context.Context, id int64, u types.UserUpdate) (types.User, error) {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return types.User{}, fmt.Errorf("%w: username", types.ErrMissingRequiredField)
	}
	if !u.Role.Valid() {
		return types.User{}, fmt.Errorf("%w: %q", types.ErrInvalidRole, u.Role)
	}

	db, err := t.backend.conn()
	if err != nil {
		return types.User{}, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return types.User{}, storageErr("beginning user update", err)
	}
	defer tx.Rollback()

	var cur userRow
	err = tx.GetContext(ctx, &cur, "SELECT "+userColumns+" FROM usuarios WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, fmt.Errorf("user %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.User{}, storageErr("loading user", err)
	}

	var clash int
	if err := tx.GetContext(ctx, &clash,
		"SELECT COUNT(*) FROM usuarios WHERE username = ? AND id <> ?", username, id,
	); err != nil {
		return types.User{}, storageErr("checking username", err)
	}
	if clash > 0 {
		return types.User{}, fmt.Errorf("%q: %w", username, types.ErrDuplicateUsername)
	}

	// Demoting or deactivating the last active admin would leave nobody
	// able to manage accounts.
	wasAdmin := cur.user().Role == types.RoleAdmin && cur.Activo
	staysAdmin := u.Role == types.RoleAdmin && u.Active
	if wasAdmin && !staysAdmin {
		var others int
		if err := tx.GetContext(ctx, &others,
			"SELECT COUNT(*) FROM usuarios WHERE rol = ? AND activo = 1 AND id <> ?", string(types.RoleAdmin), id,
		); err != nil {
			return types.User{}, storageErr("counting admins", err)
		}
		if others == 0 {
			return types.User{}, types.ErrLastAdmin
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE usuarios SET username = ?, nombre = ?, rol = ?, activo = ? WHERE id = ?",
		username, strings.TrimSpace(u.DisplayName), string(u.Role), u.Active, id,
	)
	if isUniqueViolation(err) {
		return types.User{}, fmt.Errorf("%q: %w", username, types.ErrDuplicateUsername)
	}
	if err != nil {
		return types.User{}, storageErr("updating user", err)
	}

	var updated userRow
	if err := tx.GetContext(ctx, &updated, "SELECT "+userColumns+" FROM usuarios WHERE id = ?", id); err != nil {
		return types.User{}, storageErr("reloading user", err)
	}
	if err := tx.Commit(); err != nil {
		return types.User{}, storageErr("committing user update", err)
	}
	return updated.user(), nil
}

func (t *usersTable) SetPassword(ctx context.Context, id int64, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password", types.ErrMissingRequiredField)
	}
	db, err := t.backend.conn()
	if err != nil {
		return err
	}
	digest, err := t.backend.hasher.Digest(password)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "UPDATE usuarios SET password = ? WHERE id = ?", digest, id)
	if err != nil {
		return storageErr("setting password", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("setting password", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, types.ErrNotFound)
	}
	return nil
}

func (t *usersTable) Get(ctx context.Context, id int64) (types.User, error) {
	return t.getWhere(ctx, "id = ?", id)
}

func (t *usersTable) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return t.getWhere(ctx, "username = ?", username)
}

func (t *usersTable) getWhere(ctx context.Context, cond string, arg any) (types.User, error) {
	db, err := t.backend.conn()
	if err != nil {
		return types.User{}, err
	}
	var r userRow
	err = db.GetContext(ctx, &r, "SELECT "+userColumns+" FROM usuarios WHERE "+cond, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, fmt.Errorf("user %v: %w", arg, types.ErrNotFound)
	}
	if err != nil {
		return types.User{}, storageErr("getting user", err)
	}
	return r.user(), nil
}

func (t *usersTable) List(ctx context.Context) ([]types.User, error) {
	db, err := t.backend.conn()
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := db.SelectContext(ctx, &rows, "SELECT "+userColumns+" FROM usuarios ORDER BY fecha_creacion DESC, id DESC"); err != nil {
		return nil, storageErr("listing users", err)
	}
	users := make([]types.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}
