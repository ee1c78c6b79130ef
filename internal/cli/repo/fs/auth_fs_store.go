package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoToken — токен ещё не сохранён (нужен login).
var ErrNoToken = errors.New("not logged in")

// AuthFSStore — файловое хранилище токена и контекста пользователя для CLI.
// Токен лежит в TokenPath, контекст — рядом, в файле с суффиксом ".user".
type AuthFSStore struct {
	TokenPath string
}

func (s AuthFSStore) userPath() string { return s.TokenPath + ".user" }

func writePrivate(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

func readTrimmed(p string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), " \t\r\n"), nil
}

// Save сохраняет auth-токен в файл с правами 0600.
func (s AuthFSStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	return writePrivate(s.TokenPath, []byte(token))
}

// Load читает auth-токен из файла.
func (s AuthFSStore) Load() (string, error) {
	tok, err := readTrimmed(s.TokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// Clear удаляет токен и контекст пользователя.
func (s AuthFSStore) Clear() error {
	for _, p := range []string{s.TokenPath, s.userPath()} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SaveLogin сохраняет логин и роль пользователя.
func (s AuthFSStore) SaveLogin(login, role string) error {
	if login == "" {
		return errors.New("empty login")
	}
	return writePrivate(s.userPath(), []byte(login+"\n"+role))
}

// LoadLogin читает логин и роль пользователя.
func (s AuthFSStore) LoadLogin() (string, string, error) {
	v, err := readTrimmed(s.userPath())
	if err != nil {
		return "", "", err
	}
	login, role, _ := strings.Cut(v, "\n")
	if login == "" {
		return "", "", errors.New("no stored login")
	}
	return login, strings.TrimSpace(role), nil
}
