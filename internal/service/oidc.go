package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/servicedesk/servicedesk/internal/crypto"
	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/servicedesk/servicedesk/internal/repository"
	"github.com/servicedesk/servicedesk/internal/validation"
	"golang.org/x/oauth2"
)

var ErrFederatedLoginFailed = errors.New("federated login failed")

const stateTTL = 10 * time.Minute

// OIDCService implements federated login against one OpenID Connect
// issuer. It is only constructed when issuer URL, client id and client
// secret are all configured; otherwise the routes never exist.
type OIDCService struct {
	users       repository.UserRepository
	provider    *oidc.Provider
	oauthConfig *oauth2.Config
	stateSecret []byte
}

func NewOIDCService(ctx context.Context, users repository.UserRepository, issuerURL, clientID, clientSecret, callbackURL, stateSecret string) (*OIDCService, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OpenID issuer: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	slog.Info("openid connect enabled", "issuer", issuerURL, "callback", callbackURL)

	return &OIDCService{
		users:       users,
		provider:    provider,
		oauthConfig: oauthConfig,
		stateSecret: []byte(stateSecret),
	}, nil
}

// AuthURL returns the issuer redirect URL with a signed, short-lived
// state parameter.
func (s *OIDCService) AuthURL() (string, error) {
	state, err := s.signState()
	if err != nil {
		return "", err
	}
	return s.oauthConfig.AuthCodeURL(state), nil
}

func (s *OIDCService) signState() (string, error) {
	nonce := make([]byte, 16)
	_, err := rand.Read(nonce)
	if err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        hex.EncodeToString(nonce),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	})

	signed, err := token.SignedString(s.stateSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

func (s *OIDCService) verifyState(state string) error {
	_, err := jwt.Parse(state, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.stateSecret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid state parameter: %w", err)
	}
	return nil
}

type userInfoClaims struct {
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
}

// HandleCallback completes the authorization-code flow: state check,
// token exchange, userinfo fetch, then account lookup or provisioning.
// Any failure yields ErrFederatedLoginFailed; no partial account is
// created.
func (s *OIDCService) HandleCallback(ctx context.Context, state, code string) (*model.User, error) {
	err := s.verifyState(state)
	if err != nil {
		slog.Warn("openid state verification failed", "error", err)
		return nil, ErrFederatedLoginFailed
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		slog.Warn("openid token exchange failed", "error", err)
		return nil, ErrFederatedLoginFailed
	}

	userInfo, err := s.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		slog.Warn("openid userinfo fetch failed", "error", err)
		return nil, ErrFederatedLoginFailed
	}

	var claims userInfoClaims
	err = userInfo.Claims(&claims)
	if err != nil {
		slog.Warn("openid userinfo claims parse failed", "error", err)
		return nil, ErrFederatedLoginFailed
	}

	// The effective email is the first non-empty of email,
	// preferred_username and the issuer's subject identifier.
	email := firstNonEmpty(claims.Email, claims.PreferredUsername, userInfo.Subject)
	if email == "" {
		slog.Warn("openid userinfo carried no usable identity")
		return nil, ErrFederatedLoginFailed
	}
	email = validation.NormalizeIdentifier(email)

	user, err := s.users.ByEmail(email)
	if err == nil {
		// Existing account: reuse as-is, role and password untouched.
		slog.Info("user authenticated via openid", "user_id", user.ID, "email", email)
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		slog.Error("openid account lookup failed", "error", err)
		return nil, ErrFederatedLoginFailed
	}

	user, err = s.provision(email, claims)
	if err != nil {
		slog.Error("openid account provisioning failed", "error", err)
		return nil, ErrFederatedLoginFailed
	}

	slog.Info("new openid user provisioned", "user_id", user.ID, "email", email)
	return user, nil
}

// provision creates a federated-only account. The password is the hash
// of a random 32-byte value whose plaintext is discarded, so the local
// strategy can never match it.
func (s *OIDCService) provision(email string, claims userInfoClaims) (*model.User, error) {
	placeholder := make([]byte, 32)
	_, err := rand.Read(placeholder)
	if err != nil {
		return nil, fmt.Errorf("failed to generate placeholder password: %w", err)
	}

	hashed, err := crypto.HashPassword(hex.EncodeToString(placeholder))
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		Name:      firstNonEmpty(claims.Name, claims.PreferredUsername, "OpenID User"),
		Email:     email,
		Password:  hashed,
		Role:      model.RoleClient,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.users.Create(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
