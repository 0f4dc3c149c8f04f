package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/maintops/go-maint-auth/internal/config"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const authStateTTL = 5 * time.Minute

// ssoFlow holds the OIDC client for the corporate identity provider.
// Federated logins skip the local credential check entirely; the account
// must still exist locally and be active before a token pair is issued.
type ssoFlow struct {
	provider     *oidc.Provider
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier

	statesLock sync.Mutex
	states     map[string]authState
}

type authState struct {
	Nonce        string
	CodeVerifier string
	ExpiresAt    time.Time
}

func newSSOFlow(cfg config.Config) (*ssoFlow, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, cfg.GetSSOIssuerURL())
	if err != nil {
		return nil, errors.Wrap(err, "[newSSOFlow] OIDC discovery")
	}

	scopes := strings.Split(cfg.GetSSOScopes(), ",")
	for i := range scopes {
		scopes[i] = strings.TrimSpace(scopes[i])
	}

	return &ssoFlow{
		provider: provider,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.GetSSOClientID(),
			ClientSecret: cfg.GetSSOClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.GetBaseURL() + RouteSSOCallback,
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.GetSSOClientID()}),
		states:   make(map[string]authState),
	}, nil
}

func (f *ssoFlow) newState() (state, nonce, codeVerifier string) {
	state = generateRandomString(32)
	nonce = generateRandomString(32)
	codeVerifier = generateRandomString(32)

	f.statesLock.Lock()
	defer f.statesLock.Unlock()
	now := time.Now()
	for k, v := range f.states {
		if now.After(v.ExpiresAt) {
			delete(f.states, k)
		}
	}
	f.states[state] = authState{
		Nonce:        nonce,
		CodeVerifier: codeVerifier,
		ExpiresAt:    now.Add(authStateTTL),
	}
	return state, nonce, codeVerifier
}

// takeState consumes the state in one step so it cannot be replayed.
func (f *ssoFlow) takeState(state string) (authState, bool) {
	f.statesLock.Lock()
	defer f.statesLock.Unlock()
	st, ok := f.states[state]
	if !ok {
		return authState{}, false
	}
	delete(f.states, state)
	if time.Now().After(st.ExpiresAt) {
		return authState{}, false
	}
	return st, true
}

func (s *Server) SSOLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, nonce, codeVerifier := s.sso.newState()
		authURL := s.sso.oauth2Config.AuthCodeURL(
			state,
			oidc.Nonce(nonce),
			oauth2.SetAuthURLParam("code_challenge", generateCodeChallenge(codeVerifier)),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

func (s *Server) SSOCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.FormValue("error"); errParam != "" {
			writeJSONError(w, http.StatusBadRequest, "authorization failed: "+errParam)
			return
		}

		state := r.FormValue("state")
		code := r.FormValue("code")
		if state == "" || code == "" {
			writeJSONError(w, http.StatusBadRequest, "missing code or state parameter")
			return
		}

		authState, ok := s.sso.takeState(state)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "invalid state parameter")
			return
		}

		oauth2Token, err := s.sso.oauth2Config.Exchange(
			r.Context(),
			code,
			oauth2.SetAuthURLParam("code_verifier", authState.CodeVerifier),
		)
		if err != nil {
			s.logger.Warn().Err(err).Msg("SSO token exchange failed")
			writeJSONError(w, http.StatusUnauthorized, "authentication failed")
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "no ID token in response")
			return
		}

		idToken, err := s.sso.verifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			s.logger.Warn().Err(err).Msg("SSO ID token verification failed")
			writeJSONError(w, http.StatusUnauthorized, "authentication failed")
			return
		}

		var claims struct {
			Nonce string `json:"nonce"`
			Email string `json:"email"`
		}
		if err := idToken.Claims(&claims); err != nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication failed")
			return
		}
		if claims.Nonce != authState.Nonce {
			writeJSONError(w, http.StatusUnauthorized, "invalid nonce")
			return
		}
		if claims.Email == "" {
			writeJSONError(w, http.StatusUnauthorized, "identity provider returned no email")
			return
		}

		pair, err := s.controller.LoginFederated(r.Context(), claims.Email, clientIP(r))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication failed")
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
