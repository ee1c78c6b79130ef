package repo

// UserContextStore абстракция для хранения контекста пользователя (логин и роль последнего входа).
type UserContextStore interface {
	SaveLogin(login, role string) error
	LoadLogin() (login, role string, err error)
}
