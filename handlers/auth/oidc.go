package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"overlaysnow/core"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var (
	oidcOauthConfig *oauth2.Config
	oidcProvider    *oidc.Provider
	verifier        *oidc.IDTokenVerifier
)

// OIDCClaims represents the claims read from the provider's ID token.
type OIDCClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Sub   string `json:"sub"`
}

func initOIDC() {
	providerURL := os.Getenv("OIDC_ISSUER_URL")
	clientID := os.Getenv("OIDC_CLIENT_ID")
	clientSecret := os.Getenv("OIDC_CLIENT_SECRET")
	redirectURL := os.Getenv("OIDC_REDIRECT_URL")

	if providerURL == "" || clientID == "" || clientSecret == "" {
		logrus.Warn("OIDC credentials are not set. Single sign-on routes will not work.")
		return
	}

	var err error
	oidcProvider, err = oidc.NewProvider(context.Background(), providerURL)
	if err != nil {
		logrus.Errorf("Failed to create OIDC provider: %s", err.Error())
		return
	}

	oidcOauthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		Endpoint:     oidcProvider.Endpoint(),
	}

	verifier = oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	logrus.Info("OIDC provider initialized")
}

// HandleSSOLogin redirects to the OIDC provider's consent screen.
func HandleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if oidcOauthConfig == nil {
		http.Error(w, "Single sign-on is not configured", http.StatusInternalServerError)
		return
	}

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		http.Error(w, "Failed to generate state for SSO login", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(stateBytes)

	http.SetCookie(w, &http.Cookie{
		Name:     "oidc_state",
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, oidcOauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusTemporaryRedirect)
}

// HandleSSOCallback exchanges the provider's code, upserts the account and
// redirects to the storefront with a fresh access token.
func HandleSSOCallback(users core.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if oidcOauthConfig == nil {
			http.Error(w, "Single sign-on is not configured", http.StatusInternalServerError)
			return
		}

		code := r.FormValue("code")
		if code == "" {
			logrus.Error("no code in SSO callback")
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		token, err := oidcOauthConfig.Exchange(r.Context(), code)
		if err != nil {
			logrus.Errorf("failed to exchange token: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			logrus.Error("no id_token in token response")
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		idToken, err := verifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			logrus.Errorf("failed to verify ID token: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		var claims OIDCClaims
		if err := idToken.Claims(&claims); err != nil {
			logrus.Errorf("failed to extract claims from ID token: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}
		if claims.Email == "" {
			logrus.Error("ID token carries no email claim")
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		user, err := users.GetUserByEmail(r.Context(), claims.Email)
		if errors.Is(err, core.ErrUserNotFound) {
			// First SSO sign-in; provision a password-less account.
			user = &core.User{
				Name:  claims.Name,
				Email: claims.Email,
			}
			if user.Name == "" {
				user.Name = claims.Email
			}
			err = users.CreateUser(r.Context(), user)
		}
		if err != nil {
			logrus.Errorf("failed to resolve SSO user: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		jwtToken, err := CreateJWT(user)
		if err != nil {
			logrus.Errorf("failed to create JWT: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/?token=%s", jwtToken), http.StatusTemporaryRedirect)
	}
}
