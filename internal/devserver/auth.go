package devserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dohr-michael/taskdeck/internal/api"
)

type ctxKey struct{}

// tokenIssuer signs and verifies HS256 access tokens whose subject is the user id.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (ti *tokenIssuer) issue(u api.User) (string, error) {
	now := ti.now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(u.ID, 10),
		"email": u.Email,
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(now.Add(ti.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

func (ti *tokenIssuer) verify(raw string) (int64, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(ti.now), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("invalid subject")
	}
	return id, nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		id, err := s.tokens.verify(strings.TrimSpace(token))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if _, ok := s.store.userByID(id); !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxKey{}).(int64)
	return id
}

func (s *Server) respondWithToken(w http.ResponseWriter, status int, u api.User) {
	token, err := s.tokens.issue(u)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, api.AuthResponse{AccessToken: token, TokenType: "bearer", User: &u})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg api.Registration
	if err := decodeBody(r, &reg); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var verr *api.ValidationError
	if err := api.ValidateRegistration(reg); errors.As(err, &verr) {
		writeInvalid(w, verr.Field, verr.Reason)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	u, err := s.store.createUser(strings.TrimSpace(reg.Name), reg.Email, hash)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "email is already registered")
		return
	}
	s.respondWithToken(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := decodeBody(r, &creds); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	u, ok := s.store.userByEmail(creds.Email)
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(creds.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.respondWithToken(w, http.StatusOK, u.User)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.store.userByID(userID(r))
	if !ok {
		writeDetail(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) checkPassword(w http.ResponseWriter, r *http.Request, password string) bool {
	u, ok := s.store.userByID(userID(r))
	if !ok {
		writeDetail(w, http.StatusNotFound, "user not found")
		return false
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		writeDetail(w, http.StatusBadRequest, "current password is incorrect")
		return false
	}
	return true
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var up api.ProfileUpdate
	if err := decodeBody(r, &up); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.checkPassword(w, r, up.CurrentPassword) {
		return
	}
	var hash []byte
	if up.Password != nil {
		if len(*up.Password) < 6 {
			writeInvalid(w, "password", "must be at least 6 characters")
			return
		}
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(*up.Password), bcrypt.DefaultCost); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	u, err := s.store.updateUser(userID(r), up.Name, up.Email, hash)
	if err != nil {
		writeStoreError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"current_password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.checkPassword(w, r, body.CurrentPassword) {
		return
	}
	s.store.deleteUser(userID(r))
	w.WriteHeader(http.StatusNoContent)
}
