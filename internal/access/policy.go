// Package access — политика доступа: чистые функции решения над явно
// переданной идентичностью вызывающего.
package access

import "errors"

// Role — роль пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Лимиты выдачи журнала доступа; клиент не может их изменить.
const (
	UserLogLimit  = 50
	AdminLogLimit = 100
)

var (
	ErrDenied       = errors.New("access denied")
	ErrSelfDeletion = errors.New("cannot delete your own account")
)

// ParseRole проверяет, что роль одна из допустимых.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Identity — проверенная идентичность вызывающего (из токена сессии).
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// Authenticated — идентичность получена из проверенного токена.
func (id Identity) Authenticated() bool { return id.UserID > 0 }

// CanAccessSecret — чтение, изменение и удаление секрета: администратор или владелец.
func CanAccessSecret(id Identity, ownerID int64) bool {
	if !id.Authenticated() {
		return false
	}
	return id.IsAdmin() || id.UserID == ownerID
}

// CanCreateSecret — создать секрет может любой аутентифицированный пользователь.
func CanCreateSecret(id Identity) bool {
	return id.Authenticated()
}

// CanManageUsers — управление справочником пользователей только для администратора.
func CanManageUsers(id Identity) bool {
	return id.Authenticated() && id.IsAdmin()
}

// CheckDeleteUser запрещает удаление собственной учётной записи независимо от роли.
func CheckDeleteUser(id Identity, targetID int64) error {
	if id.Authenticated() && id.UserID == targetID {
		return ErrSelfDeletion
	}
	if !CanManageUsers(id) {
		return ErrDenied
	}
	return nil
}

// LogScope — область видимости журнала доступа.
type LogScope struct {
	ActorID *int64 // nil — все записи
	Limit   int
}

// LogScopeFor: администратор видит всё, пользователь — только свои записи.
func LogScopeFor(id Identity) LogScope {
	if id.IsAdmin() {
		return LogScope{Limit: AdminLogLimit}
	}
	uid := id.UserID
	return LogScope{ActorID: &uid, Limit: UserLogLimit}
}
