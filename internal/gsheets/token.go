package gsheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"r3e-sheets/internal/log"
)

// ConsentFunc shows the authorization URL to the user
type ConsentFunc func(authURL string)

// TokenSource returns an authorized token source for the spreadsheet scope.
// The token is read from tokenFile; when missing, a loopback consent flow is
// run. Refreshed tokens are written back to tokenFile.
func TokenSource(ctx context.Context, credentialsFile, tokenFile string, consent ConsentFunc) (oauth2.TokenSource, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse client credentials: %w", err)
	}

	tok, err := LoadToken(tokenFile)
	if err != nil {
		log.Info("No usable token, starting consent flow", log.String("token", tokenFile))
		if tok, err = consentFlow(ctx, cfg, consent); err != nil {
			return nil, err
		}
		if err := SaveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}
	return &persistingSource{
		src:  cfg.TokenSource(ctx, tok),
		path: tokenFile,
		last: tok.AccessToken,
	}, nil
}

// LoadToken reads a token saved by SaveToken
func LoadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token %s holds no credentials", path)
	}
	return &tok, nil
}

// SaveToken stores a token with owner-only permissions
func SaveToken(path string, tok *oauth2.Token) error {
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// persistingSource saves the token whenever the underlying source refreshes it
type persistingSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	path string
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			log.Warn("Could not persist refreshed token", log.ErrorField(err))
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}

// consentFlow runs the installed-app flow with a loopback redirect
func consentFlow(ctx context.Context, cfg *oauth2.Config, consent ConsentFunc) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()
	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	codes := make(chan string, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("Authorization complete, you may close this window."))
		select {
		case codes <- code:
		default:
		}
	})}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("consent server failed", log.ErrorField(err))
		}
	}()
	defer srv.Close()

	consent(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))

	select {
	case code := <-codes:
		tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		return tok, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
