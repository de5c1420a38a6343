package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/harrisonrobin/focus/pkg/gateway"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the
	// cloud console, stored in the app's config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile holds the user's access and refresh token.
	TokenFile = "token.json"

	// LocalhostAuthPort is where the local web server listens for the OAuth
	// redirect.
	LocalhostAuthPort = "6789"
)

// Scopes requested for the task backend and the user's identity.
var Scopes = []string{
	tasks.TasksScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.OpenIDScope,
}

// Authenticator signs the user in against Google and keeps the token in dir.
type Authenticator struct {
	dir string
}

func NewAuthenticator(dir string) *Authenticator {
	return &Authenticator{dir: dir}
}

func (a *Authenticator) tokenPath() string {
	return filepath.Join(a.dir, TokenFile)
}

// GetConfig creates an oauth2.Config from the client secrets file and specified scopes.
func (a *Authenticator) GetConfig(scopes []string) (*oauth2.Config, error) {
	clientSecretsFile := filepath.Join(a.dir, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = normalizeRedirectURL(config.RedirectURL)
	return config, nil
}

// normalizeRedirectURL forces localhost and out-of-band redirects onto
// LocalhostAuthPort so they reach the local listener.
func normalizeRedirectURL(redirect string) string {
	if redirect == "urn:ietf:wg:oauth:2.0:oob" || redirect == "" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	parsedURL, err := url.Parse(redirect)
	if err != nil {
		log.Printf("Warning: Could not parse RedirectURL '%s': %v. Using it as is.", redirect, err)
		return redirect
	}
	if parsedURL.Hostname() != "localhost" && parsedURL.Hostname() != "127.0.0.1" {
		log.Printf("Warning: Configured RedirectURL is not a localhost callback: %s", redirect)
		return redirect
	}
	if parsedURL.Port() != LocalhostAuthPort {
		parsedURL.Host = net.JoinHostPort(parsedURL.Hostname(), LocalhostAuthPort)
	}
	return parsedURL.String()
}

// HasToken reports whether a stored session exists.
func (a *Authenticator) HasToken() bool {
	_, err := os.Stat(a.tokenPath())
	return err == nil
}

// Client returns an authenticated *http.Client. It restores the stored
// token, which refreshes itself when expired, or runs the browser flow when
// there is none and interactive is set. Without a token and without
// interactive it fails with gateway.ErrAuth.
func (a *Authenticator) Client(ctx context.Context, interactive bool) (*http.Client, error) {
	config, err := a.GetConfig(Scopes)
	if err != nil {
		return nil, err
	}

	tokenFile := a.tokenPath()
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		if !interactive {
			return nil, fmt.Errorf("%w: no stored session, run with -auth", gateway.ErrAuth)
		}
		log.Printf("No existing token found at %s. Initiating web authorization flow...", tokenFile)
		tok, err = getTokenFromWeb(config)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to get token from web: %v", gateway.ErrAuth, err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	src := config.TokenSource(ctx, tok)
	current, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: stored session is no longer valid: %v", gateway.ErrAuth, err)
	}
	if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		log.Println("Token was refreshed or updated. Saving new token to file.")
		if err := saveToken(tokenFile, current); err != nil {
			log.Printf("Warning: could not save refreshed token: %v", err)
		}
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(current, src)), nil
}

// SignIn drops any stored token and runs the browser flow again.
func (a *Authenticator) SignIn(ctx context.Context) (*gateway.User, error) {
	if err := a.SignOut(); err != nil {
		return nil, err
	}
	client, err := a.Client(ctx, true)
	if err != nil {
		return nil, err
	}
	return CurrentUser(ctx, client)
}

// SignOut removes the stored token. Signing out twice is not an error.
func (a *Authenticator) SignOut() error {
	tokenFile := a.tokenPath()
	if err := os.Remove(tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete token file '%s': %w", tokenFile, err)
	}
	return nil
}

// CurrentUser asks Google who the token belongs to.
func CurrentUser(ctx context.Context, client *http.Client) (*gateway.User, error) {
	srv, err := oauth2api.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create userinfo service: %w", err)
	}
	info, err := srv.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read user info: %v", gateway.ErrAuth, err)
	}
	log.Printf("Session restored for user: %s", info.Email)
	return &gateway.User{ID: info.Id, Email: info.Email}, nil
}

// getTokenFromWeb initiates the OAuth 2.0 authorization code flow via a local web server.
// It prints a URL for the user to open and captures the redirect.
func getTokenFromWeb(config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect URL")
				return
			}
			fmt.Fprintf(w, "Signed in! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Printf("Local server listening on %s for OAuth2 redirect...", config.RedirectURL)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// AccessTypeOffline is needed for a refresh token.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to sign in to focus:\n%s\n", authURL)
	log.Println("Waiting for authorization code...")

	select {
	case authCode := <-codeCh:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(ctx, authCode)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		server.Shutdown(ctx)
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(5 * time.Minute):
		server.Shutdown(context.Background())
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken saves an oauth2.Token to a JSON file readable only by the owner.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
