package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL — срок действия токена сессии.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingSecret = errors.New("token signing secret is not configured")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
)

// Claims — утверждения токена сессии: стандартные поля и идентичность пользователя.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenAuthority выпускает и проверяет подписанные токены (HS256).
// Отзыва нет: единственная граница жизни токена — срок действия.
type TokenAuthority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenAuthority создаёт выпускающего токены. Секрет должен быть постоянным
// между перезапусками, иначе все выданные сессии станут недействительными.
func NewTokenAuthority(secret string, ttl time.Duration) (*TokenAuthority, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenAuthority{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock подменяет источник времени (для тестов).
func (a *TokenAuthority) WithClock(now func() time.Time) *TokenAuthority {
	a.now = now
	return a
}

// Issue выпускает токен и возвращает момент его истечения.
func (a *TokenAuthority) Issue(userID int64, username, role string) (string, time.Time, error) {
	issued := a.now().UTC().Truncate(time.Second)
	expires := issued.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UserID:   userID,
		Username: username,
		Role:     role,
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify проверяет подпись, структуру и срок действия токена.
// Истёкший токен с верной подписью — ErrTokenExpired, всё остальное — ErrTokenInvalid.
func (a *TokenAuthority) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID <= 0 || claims.Username == "" || claims.Role == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IssuedAtTime и ExpiresAtTime — геттеры для полей RegisteredClaims.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
