package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "oro_session"
	DefaultTTL = 24 * time.Hour
)

// Service tracks whether the browser has unlocked the app.
type Service interface {
	IsValid(r *http.Request) bool
	Start(w http.ResponseWriter) error
	Clear(w http.ResponseWriter)
}

// State is the unlocked flag and when it was set.
type State struct {
	Authenticated bool
	AuthTime      time.Time
}

type claims struct {
	Authenticated bool `json:"auth"`
	jwt.RegisteredClaims
}

// JWTService keeps State in an HS256-signed cookie.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

var _ Service = (*JWTService)(nil)

func NewJWTService(secret []byte, ttl time.Duration, secure bool) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWTService{secret: secret, ttl: ttl, secure: secure, now: time.Now}
}

// State decodes the session cookie. Expired or tampered cookies are errors.
func (s *JWTService) State(r *http.Request) (State, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return State{}, err
	}

	token, err := jwt.ParseWithClaims(c.Value, &claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return State{}, fmt.Errorf("parse session: %w", err)
	}

	cl, ok := token.Claims.(*claims)
	if !ok || !token.Valid || cl.IssuedAt == nil {
		return State{}, jwt.ErrTokenInvalidClaims
	}
	return State{Authenticated: cl.Authenticated, AuthTime: cl.IssuedAt.Time}, nil
}

// IsValid reports whether the request carries an authenticated session
// younger than the session window.
func (s *JWTService) IsValid(r *http.Request) bool {
	st, err := s.State(r)
	if err != nil {
		return false
	}
	return st.Authenticated && s.now().Sub(st.AuthTime) < s.ttl
}

// Start issues a fresh session cookie.
func (s *JWTService) Start(w http.ResponseWriter) error {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(s.ttl),
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear deletes the session cookie.
func (s *JWTService) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// hasCookie reports whether the request carries any session cookie, valid
// or not.
func hasCookie(r *http.Request) bool {
	_, err := r.Cookie(CookieName)
	return !errors.Is(err, http.ErrNoCookie)
}
