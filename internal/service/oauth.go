package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/blogapp/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// OAuthStateTTL bounds how long a started sign-in may take to complete.
const OAuthStateTTL = 10 * time.Minute

// GoogleOAuth runs the authorization-code flow with PKCE against Google.
// The state and verifier travel between the two legs in a signed token.
type GoogleOAuth struct {
	config *oauth2.Config
	secret []byte
}

// NewGoogleOAuth configures the flow for Google.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string, secret []byte) *GoogleOAuth {
	return NewOAuth(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"openid", "email", "profile"},
	}, secret)
}

// NewOAuth configures the flow for an arbitrary provider.
func NewOAuth(cfg *oauth2.Config, secret []byte) *GoogleOAuth {
	return &GoogleOAuth{config: cfg, secret: secret}
}

// Begin returns the provider URL to send the visitor to and the signed
// pending-state token to hand back on the callback.
func (o *GoogleOAuth) Begin() (authURL, pending string, err error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"state":    state,
		"verifier": verifier,
		"iat":      now.Unix(),
		"exp":      now.Add(OAuthStateTTL).Unix(),
	})
	pending, err = token.SignedString(o.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign oauth state: %w", err)
	}

	authURL = o.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	return authURL, pending, nil
}

// Complete checks state against the pending token and exchanges code for
// the provider access token.
func (o *GoogleOAuth) Complete(ctx context.Context, pending, state, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: missing authorization code", domain.ErrInvalidInput)
	}

	token, err := jwt.Parse(pending, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return o.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: oauth state: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: oauth state claims", domain.ErrUnauthorized)
	}
	wantState, _ := claims["state"].(string)
	verifier, _ := claims["verifier"].(string)
	if wantState == "" || subtle.ConstantTimeCompare([]byte(wantState), []byte(state)) != 1 {
		return "", fmt.Errorf("%w: oauth state mismatch", domain.ErrUnauthorized)
	}

	tok, err := o.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("exchange oauth code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("exchange oauth code: empty access token")
	}
	return tok.AccessToken, nil
}
