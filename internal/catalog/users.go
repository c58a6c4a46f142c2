package catalog

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/marquee/internal/policy"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// ListUsers returns every account, newest first.
func (s *Service) ListUsers(ctx context.Context, sess *Session) Result[[]types.User] {
	log := s.sessionLog(sess, "list_users")
	users, err := s.users(sess)
	if err != nil {
		return fail(log, []types.User{}, err)
	}
	if !policy.CanViewUsers(sess.User.Role) {
		return fail(log, []types.User{}, denied("listing users"))
	}
	all, err := users.List(ctx)
	if err != nil {
		return fail(log, []types.User{}, err)
	}
	return succeeded(all, "%d users", len(all))
}

// CreateUser adds an account.
func (s *Service) CreateUser(ctx context.Context, sess *Session, nu types.NewUser) Result[types.User] {
	log := s.sessionLog(sess, "create_user")
	users, err := s.users(sess)
	if err != nil {
		return fail(log, types.User{}, err)
	}
	if !policy.CanManageUsers(sess.User.Role) {
		return fail(log, types.User{}, denied("creating users"))
	}
	u, err := users.Create(ctx, nu)
	if err != nil {
		return fail(log, types.User{}, err)
	}
	log.Info().Int64("user", u.ID).Str("username", u.Username).Str("role", u.Role.String()).Msg("user created")
	return succeeded(u, "created user %s", u.Username)
}

// UpdateUser changes an account's username, display name, role or active
// flag. The last active admin cannot be demoted or deactivated.
func (s *Service) UpdateUser(ctx context.Context, sess *Session, id int64, uu types.UserUpdate) Result[types.User] {
	log := s.sessionLog(sess, "update_user")
	users, err := s.users(sess)
	if err != nil {
		return fail(log, types.User{}, err)
	}
	if !policy.CanManageUsers(sess.User.Role) {
		return fail(log, types.User{}, denied(fmt.Sprintf("updating user %d", id)))
	}
	u, err := users.Update(ctx, id, uu)
	if err != nil {
		return fail(log, types.User{}, err)
	}
	if u.ID == sess.User.ID {
		sess.User = u
	}
	log.Info().Int64("user", u.ID).Str("role", u.Role.String()).Bool("active", u.Active).Msg("user updated")
	return succeeded(u, "updated user %s", u.Username)
}

// SetPassword replaces an account's password. Users may change their own;
// admins may change anyone's.
func (s *Service) SetPassword(ctx context.Context, sess *Session, id int64, password string) Result[struct{}] {
	log := s.sessionLog(sess, "set_password")
	users, err := s.users(sess)
	if err != nil {
		return fail(log, struct{}{}, err)
	}
	if !policy.CanChangePassword(sess.User.Role, sess.User.ID, id) {
		return fail(log, struct{}{}, denied(fmt.Sprintf("changing the password of user %d", id)))
	}
	if err := users.SetPassword(ctx, id, password); err != nil {
		return fail(log, struct{}{}, err)
	}
	log.Info().Int64("user", id).Msg("password changed")
	return succeeded(struct{}{}, "password changed")
}
