package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// AuthConfig locates the OAuth client files and the loopback server.
type AuthConfig struct {
	CredentialsPath string
	TokenPath       string
	RedirectPort    int
	AuthTimeout     time.Duration
}

// Authenticator produces an authorized HTTP client for the mail provider.
// The token cache is refreshed transparently; a missing or revoked token
// triggers an interactive loopback flow.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	return &Authenticator{cfg: cfg, logger: logger.With("component", "gmail_auth")}
}

// Client returns an authorized HTTP client, running the interactive flow
// when no usable token exists.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	oauthCfg, err := a.oauthConfig()
	if err != nil {
		return nil, err
	}

	token, err := a.loadToken()
	if err != nil {
		a.logger.Info("no usable token, starting interactive authorization")
		token, err = a.interactiveFlow(ctx, oauthCfg)
		if err != nil {
			return nil, err
		}
		if err := a.saveToken(token); err != nil {
			return nil, err
		}
	}

	return oauthCfg.Client(ctx, token), nil
}

// Reauthorize deletes the cached token and runs the interactive flow
// again. Used when the provider reports the credential revoked.
func (a *Authenticator) Reauthorize(ctx context.Context) (*http.Client, error) {
	if err := os.Remove(a.cfg.TokenPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove token: %w", err)
	}
	return a.Client(ctx)
}

// IsAuthRevoked reports whether err means the cached credential is no
// longer accepted by the provider and a fresh authorization is needed.
func IsAuthRevoked(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return true
	}
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return true
	}
	return strings.Contains(err.Error(), "invalid_grant")
}

func (a *Authenticator) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(a.cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials (run setup first): %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", a.cfg.RedirectPort)
	return cfg, nil
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.cfg.TokenPath)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	if token.RefreshToken == "" && !token.Valid() {
		return nil, fmt.Errorf("cached token expired without refresh token")
	}
	return &token, nil
}

func (a *Authenticator) saveToken(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(a.cfg.TokenPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// interactiveFlow runs a local-loopback authorization: it prints the
// consent URL, waits for the provider redirect on the fixed port, and
// exchanges the code.
func (a *Authenticator) interactiveFlow(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- fmt.Errorf("authorization redirect carried no code")
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this tab.")
		codeCh <- code
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", a.cfg.RedirectPort),
		Handler: mux,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer server.Close()

	url := cfg.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("Open this URL in your browser to authorize read-only mail access:\n\n%s\n\n", url)

	timeout := a.cfg.AuthTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	select {
	case code := <-codeCh:
		token, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		return token, nil
	case err := <-errCh:
		return nil, fmt.Errorf("authorization failed: %w", err)
	case <-time.After(timeout):
		return nil, fmt.Errorf("timed out waiting for authorization after %s", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
