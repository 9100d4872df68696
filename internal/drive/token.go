package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

var ErrNotAuthorized = errors.New("drive: not authorized")

// Authorizer hands out access tokens for Drive requests.
type Authorizer interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// StaticToken is an Authorizer backed by a fixed access token.
type StaticToken string

func (s StaticToken) Token(context.Context) (*oauth2.Token, error) {
	if s == "" {
		return nil, ErrNotAuthorized
	}
	return &oauth2.Token{AccessToken: string(s), TokenType: "Bearer"}, nil
}

// Status describes the stored authorization.
type Status struct {
	Authorized bool      `json:"authorized"`
	CanRefresh bool      `json:"canRefresh"`
	Expiry     time.Time `json:"expiry,omitzero"`
}

// TokenStore runs the OAuth consent flow and keeps the resulting token on
// disk. Refreshes are shared between concurrent callers.
type TokenStore struct {
	cfg   Config
	oauth *oauth2.Config
	log   *zap.Logger
	group singleflight.Group

	mu    sync.Mutex
	token *oauth2.Token
	src   oauth2.TokenSource
}

func NewTokenStore(cfg Config, log *zap.Logger) *TokenStore {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	s := &TokenStore{cfg: cfg, oauth: cfg.oauthConfig(), log: log}
	if err := s.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("drive token file unreadable", zap.String("path", cfg.TokenFile), zap.Error(err))
	}
	return s
}

// ConsentURL is where the operator grants Drive access.
func (s *TokenStore) ConsentURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token and persists it.
func (s *TokenStore) Exchange(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("drive: empty authorization code")
	}
	tok, err := s.oauth.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return fmt.Errorf("drive: exchange code: %w", err)
	}
	s.set(tok)
	s.log.Info("drive authorized", zap.Time("expiry", tok.Expiry))
	return s.save(tok)
}

// Token returns a valid access token, refreshing it when expired.
func (s *TokenStore) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()
	if src == nil {
		return nil, ErrNotAuthorized
	}

	v, err, _ := s.group.Do("token", func() (any, error) {
		tok, err := src.Token()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		changed := s.token == nil || s.token.AccessToken != tok.AccessToken
		if changed {
			s.token = tok
		}
		s.mu.Unlock()
		if changed {
			if err := s.save(tok); err != nil {
				s.log.Warn("drive token not persisted", zap.Error(err))
			}
		}
		return tok, nil
	})
	if err != nil {
		return nil, fmt.Errorf("drive: refresh token: %w", err)
	}
	return v.(*oauth2.Token), nil
}

// IsAuthorized reports whether a usable or refreshable token is held.
func (s *TokenStore) IsAuthorized() bool {
	return s.Status().Authorized
}

func (s *TokenStore) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return Status{}
	}
	return Status{
		Authorized: s.token.Valid() || s.token.RefreshToken != "",
		CanRefresh: s.token.RefreshToken != "",
		Expiry:     s.token.Expiry,
	}
}

// Revoke asks Google to revoke the token and forgets it locally. The local
// copy is dropped even when the remote call fails.
func (s *TokenStore) Revoke(ctx context.Context) error {
	s.mu.Lock()
	tok := s.token
	s.token, s.src = nil, nil
	s.mu.Unlock()
	if tok == nil {
		return nil
	}
	if s.cfg.TokenFile != "" {
		if err := os.Remove(s.cfg.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("drive token file not removed", zap.Error(err))
		}
	}

	value := tok.RefreshToken
	if value == "" {
		value = tok.AccessToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.RevokeURL,
		strings.NewReader(url.Values{"token": {value}}.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("drive: revoke: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("drive: revoke failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
	}
	s.log.Info("drive access revoked")
	return nil
}

func (s *TokenStore) set(tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
	s.src = oauth2.ReuseTokenSource(tok, s.oauth.TokenSource(s.clientContext(context.Background()), tok))
}

func (s *TokenStore) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.cfg.HTTPClient)
}

func (s *TokenStore) load() error {
	if s.cfg.TokenFile == "" {
		return os.ErrNotExist
	}
	data, err := os.ReadFile(s.cfg.TokenFile)
	if err != nil {
		return err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return err
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return fmt.Errorf("token file %s holds no token", s.cfg.TokenFile)
	}
	s.set(&tok)
	return nil
}

func (s *TokenStore) save(tok *oauth2.Token) error {
	if s.cfg.TokenFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.cfg.TokenFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.cfg.TokenFile, data, 0o600)
}
