package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"overlaysnow/core"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var jwtSecret []byte

// accessTokenTTL matches the storefront's session length.
const accessTokenTTL = 30 * time.Minute

// AppClaims represents the custom claims for the JWT. Subject is the user id.
type AppClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// InitAuth loads the signing secret and the optional OIDC provider.
func InitAuth() {
	jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}

	if os.Getenv("OIDC_ISSUER_URL") != "" && os.Getenv("OIDC_CLIENT_ID") != "" {
		logrus.Info("Initializing OIDC single sign-on provider.")
		initOIDC()
	}
}

type (
	registerRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	tokenResponse struct {
		AccessToken string     `json:"access_token"`
		TokenType   string     `json:"token_type"`
		User        *core.User `json:"user"`
	}
)

// HandleRegister creates a new account and returns a fresh access token.
func HandleRegister(users core.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Invalid request body"})
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Name == "" || req.Email == "" || req.Password == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Name, email and password are required"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithError(err).Error("Failed to hash password")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to register"})
			return
		}

		user := &core.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hash),
		}
		if err := users.CreateUser(r.Context(), user); err != nil {
			if errors.Is(err, core.ErrEmailConflict) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, map[string]string{"detail": "Email already registered"})
				return
			}
			logrus.WithError(err).Error("Failed to create user")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to register"})
			return
		}

		token, err := CreateJWT(user)
		if err != nil {
			logrus.WithError(err).Error("Failed to create JWT")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to register"})
			return
		}

		render.JSON(w, r, tokenResponse{AccessToken: token, TokenType: "bearer", User: user})
	}
}

// HandleLogin verifies credentials and returns an access token.
func HandleLogin(users core.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Invalid request body"})
			return
		}

		user, err := users.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
		if err == nil {
			err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
		}
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Incorrect email or password"})
			return
		}

		token, err := CreateJWT(user)
		if err != nil {
			logrus.WithError(err).Error("Failed to create JWT")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to log in"})
			return
		}

		render.JSON(w, r, tokenResponse{AccessToken: token, TokenType: "bearer", User: user})
	}
}

// HandleMe returns the account behind the presented token.
func HandleMe(users core.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		user, err := users.GetUser(r.Context(), claims.Subject)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		render.JSON(w, r, user)
	}
}

// CreateJWT signs an access token for the user.
func CreateJWT(user *core.User) (string, error) {
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseJWT validates a token string and returns its claims.
func ParseJWT(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
