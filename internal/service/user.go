package service

import (
	"KeyVault/internal/access"
	"KeyVault/internal/model"
	"KeyVault/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinPasswordLen — минимальная длина пароля.
const MinPasswordLen = 6

// Hasher — одностороннее хеширование паролей.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// UserInfo — метаданные пользователя без хеша пароля.
type UserInfo struct {
	ID        int64
	Username  string
	Role      access.Role
	IsActive  bool
	CreatedAt time.Time
	LastLogin *time.Time
}

// UserPatch — частичное изменение: nil-поле отсутствует в запросе.
type UserPatch struct {
	Password *string
	Role     *string
	Active   *bool
}

func (p UserPatch) Empty() bool { return p.Password == nil && p.Role == nil && p.Active == nil }

// UserService — справочник пользователей и аутентификация.
type UserService struct {
	repo   repo.UserRepository
	hasher Hasher
	now    func() time.Time

	// dummyHash проверяется для неизвестного логина, чтобы время ответа
	// не выдавало существование учётной записи.
	dummyHash string
}

// NewUserService паникует, если не удалось вычислить dummyHash: без него ответ
// для неизвестного логина заметно быстрее.
func NewUserService(r repo.UserRepository, h Hasher) *UserService {
	dummy, err := h.Hash("dummy-password-for-timing")
	if err != nil || dummy == "" {
		panic(fmt.Sprintf("service: cannot compute dummy password hash: %v", err))
	}
	return &UserService{repo: r, hasher: h, now: time.Now, dummyHash: dummy}
}

// Authenticate проверяет логин и пароль активного пользователя. Неизвестный логин,
// отключённая учётная запись и неверный пароль дают одну и ту же ErrInvalidCredentials.
// Второе значение — найденный пользователь (и при неудаче, если логин существует),
// оно нужно только для журнала доступа.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (access.Identity, *int64, error) {
	u, err := s.repo.GetActiveUserByUsername(ctx, username)
	if err != nil {
		if repo.IsNotFound(err) {
			s.hasher.Verify(password, s.dummyHash)
			return access.Identity{}, nil, ErrInvalidCredentials
		}
		return access.Identity{}, nil, internal("find user", err)
	}
	uid := u.ID
	if !s.hasher.Verify(password, u.PasswordHash) {
		return access.Identity{}, &uid, ErrInvalidCredentials
	}
	if err := s.repo.TouchLastLogin(ctx, u.ID, s.now().UTC()); err != nil {
		return access.Identity{}, &uid, internal("update last login", err)
	}
	return access.Identity{UserID: u.ID, Username: u.Username, Role: access.Role(u.Role)}, &uid, nil
}

// Create добавляет пользователя. Пустая роль — "user".
func (s *UserService) Create(ctx context.Context, caller access.Identity, username, password, role string) (*UserInfo, error) {
	if !access.CanManageUsers(caller) {
		return nil, ErrForbidden
	}
	return s.create(ctx, username, password, role)
}

func (s *UserService) create(ctx context.Context, username, password, role string) (*UserInfo, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationf("username cannot be empty")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = string(access.RoleUser)
	}
	r, ok := access.ParseRole(role)
	if !ok {
		return nil, validationf(`role must be either "user" or "admin"`)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	u, err := s.repo.CreateUser(ctx, &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         string(r),
		IsActive:     true,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrDuplicateUsername
	}
	if err != nil {
		return nil, internal("create user", err)
	}
	info := toUserInfo(u)
	return &info, nil
}

// List — все пользователи, новые первыми.
func (s *UserService) List(ctx context.Context, caller access.Identity) ([]UserInfo, error) {
	if !access.CanManageUsers(caller) {
		return nil, ErrForbidden
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, internal("list users", err)
	}
	out := make([]UserInfo, 0, len(users))
	for i := range users {
		out = append(out, toUserInfo(&users[i]))
	}
	return out, nil
}

// Update применяет частичное изменение. Возвращает логин изменённого пользователя.
func (s *UserService) Update(ctx context.Context, caller access.Identity, userID int64, patch UserPatch) (string, error) {
	if !access.CanManageUsers(caller) {
		return "", ErrForbidden
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return "", ErrNotFound
		}
		return "", internal("get user", err)
	}
	if patch.Empty() {
		return u.Username, nil
	}

	var upd repo.UserUpdate
	if patch.Password != nil {
		if err := checkPassword(*patch.Password); err != nil {
			return u.Username, err
		}
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return u.Username, internal("hash password", err)
		}
		upd.PasswordHash = &hash
	}
	if patch.Role != nil {
		r, ok := access.ParseRole(*patch.Role)
		if !ok {
			return u.Username, validationf(`role must be either "user" or "admin"`)
		}
		role := string(r)
		upd.Role = &role
	}
	if patch.Active != nil {
		active := *patch.Active
		upd.IsActive = &active
	}

	if err := s.repo.UpdateUser(ctx, userID, upd); err != nil {
		if repo.IsNotFound(err) {
			return u.Username, ErrNotFound
		}
		return u.Username, internal("update user", err)
	}
	return u.Username, nil
}

// Delete удаляет пользователя вместе с его секретами. Удалить себя нельзя
// ни при каком числе администраторов.
func (s *UserService) Delete(ctx context.Context, caller access.Identity, userID int64) (string, error) {
	if err := access.CheckDeleteUser(caller, userID); err != nil {
		if errors.Is(err, access.ErrSelfDeletion) {
			return caller.Username, ErrSelfDeletion
		}
		return "", ErrForbidden
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return "", ErrNotFound
		}
		return "", internal("get user", err)
	}
	if err := s.repo.DeleteUserCascade(ctx, userID); err != nil {
		if repo.IsNotFound(err) {
			return u.Username, ErrNotFound
		}
		return u.Username, internal("delete user", err)
	}
	return u.Username, nil
}

func checkPassword(p string) error {
	if len(p) < MinPasswordLen {
		return validationf("password must be at least %d characters", MinPasswordLen)
	}
	return nil
}

func toUserInfo(u *model.User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Role:      access.Role(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
