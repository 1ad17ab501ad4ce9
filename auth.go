package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sessionCookieName = "portfolio_session"

type contextKey string

const adminUserKey contextKey = "admin_user"

var errSessionRevoked = errors.New("session revoked")

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

// Sessions issues and verifies the signed admin session token. The token is
// the whole session; the only server-side state is the list of tokens revoked
// by logout, kept until they would have expired anyway.
type Sessions struct {
	secret  []byte
	ttl     time.Duration
	revoked *cache.Cache
}

func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	return &Sessions{
		secret:  secret,
		ttl:     ttl,
		revoked: cache.New(ttl, 10*time.Minute),
	}
}

func (s *Sessions) Issue(username string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

func (s *Sessions) Verify(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("invalid token claims")
	}
	if _, found := s.revoked.Get(claims.ID); found {
		return nil, errSessionRevoked
	}
	return claims, nil
}

func (s *Sessions) Revoke(claims *jwt.RegisteredClaims) {
	if claims.ExpiresAt == nil {
		return
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		s.revoked.Set(claims.ID, true, ttl)
	}
}

func (a *App) currentSession(r *http.Request) (*jwt.RegisteredClaims, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := a.sessions.Verify(cookie.Value)
	if err != nil {
		slog.Debug("rejected admin session", "error", err)
		return nil, false
	}
	return claims, true
}

// authMiddleware sends requests without a valid session to the login form,
// remembering where they were headed.
func (a *App) authMiddleware(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.currentSession(r)
		if !ok {
			http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), adminUserKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminUser(ctx context.Context) string {
	name, _ := ctx.Value(adminUserKey).(string)
	return name
}

func loginURL(next string) string {
	return "/admin/login?next=" + url.QueryEscape(next)
}

// safeNext only allows redirects back into the admin area of this host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/admin") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/admin"
	}
	if strings.HasPrefix(next, "/admin/login") || strings.HasPrefix(next, "/admin/logout") {
		return "/admin"
	}
	// delete is POST-only; send the browser back to the table instead
	if parts := strings.Split(strings.TrimPrefix(next, "/admin/"), "/"); len(parts) >= 2 && parts[1] == "delete" {
		return "/admin/" + parts[0]
	}
	return next
}

type loginData struct {
	Next     string
	Username string
}

func (a *App) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.currentSession(r); ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	a.views.render(w, r, http.StatusOK, "login", page{
		Title: "Sign in",
		Data:  loginData{Next: r.URL.Query().Get("next")},
	})
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	next := r.PostForm.Get("next")

	ok, err := a.checkCredentials(r.Context(), username, password)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		slog.Info("admin login failed", "username", username)
		a.views.render(w, r, http.StatusUnauthorized, "login", page{
			Title: "Sign in",
			Error: "Invalid credentials",
			Data:  loginData{Next: next, Username: username},
		})
		return
	}

	token, expires, err := a.sessions.Issue(username)
	if err != nil {
		slog.Error("issue session failed", "error", err)
		http.Error(w, "Error generating token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/admin",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("admin login", "username", username)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := a.currentSession(r); ok {
		a.sessions.Revoke(claims)
		slog.Info("admin logout", "username", claims.Subject)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (a *App) checkCredentials(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	var user User
	err := a.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil, nil
}

// upsertAdminUser stores a bcrypt hash, replacing the password of an existing user.
func upsertAdminUser(db *gorm.DB, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := User{Username: username, PasswordHash: string(hash)}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash"}),
	}).Create(&user).Error
}
