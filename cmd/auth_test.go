package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/curator/internal/shared"
	"golang.org/x/oauth2"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{shared.EnvClientID, shared.EnvClientSecret, shared.EnvRedirectURI, shared.EnvRefreshToken} {
		t.Setenv(key, "")
	}
}

func tokenServer(t *testing.T, refresh string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"access","token_type":"Bearer","refresh_token":%q,"expires_in":3600}`, refresh)
	}))
	t.Cleanup(server.Close)
	return server
}

// callbackBrowser follows the authorization URL straight to the redirect target.
func callbackBrowser(t *testing.T, code string, wantStatus int) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		callback := q.Get("redirect_uri") + "?code=" + code + "&state=" + url.QueryEscape(q.Get("state"))

		resp, err := http.Get(callback)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != wantStatus {
			t.Errorf("expected callback status %d, got %d", wantStatus, resp.StatusCode)
		}
		return nil
	}
}

func authConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := testConfig()
	config.Spotify.CredentialsFile = filepath.Join(t.TempDir(), "creds.yml")
	config.Server = shared.ServerConfig{Host: "127.0.0.1", Port: 0}
	return config
}

func TestAuth(t *testing.T) {
	t.Run("stores refresh token", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(shared.EnvClientID, "client")
		t.Setenv(shared.EnvClientSecret, "secret")

		config := authConfig(t)
		tokens := tokenServer(t, "issued-refresh")
		output := &bytes.Buffer{}

		runner := newTestRunner(config, nil, output)
		runner.openBrowser = callbackBrowser(t, "abc", http.StatusOK)
		runner.oauthEndpoint = &oauth2.Endpoint{AuthURL: tokens.URL + "/authorize", TokenURL: tokens.URL + "/token"}

		if err := runApp(t, runner, "auth", "--timeout", "5s"); err != nil {
			t.Fatalf("auth failed: %v", err)
		}

		creds, err := shared.LoadCredentials(shared.NewCredentialSource(config.Spotify))
		if err != nil {
			t.Fatalf("failed to load stored credentials: %v", err)
		}
		if creds.RefreshToken != "issued-refresh" || creds.ClientID != "client" {
			t.Errorf("unexpected stored credentials %+v", creds)
		}
		if !strings.Contains(output.String(), "Authorization successful") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("missing refresh token in response", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(shared.EnvClientID, "client")
		t.Setenv(shared.EnvClientSecret, "secret")

		config := authConfig(t)
		tokens := tokenServer(t, "")

		runner := newTestRunner(config, nil, &bytes.Buffer{})
		runner.openBrowser = callbackBrowser(t, "abc", http.StatusBadGateway)
		runner.oauthEndpoint = &oauth2.Endpoint{AuthURL: tokens.URL + "/authorize", TokenURL: tokens.URL + "/token"}

		if err := runApp(t, runner, "auth", "--timeout", "5s"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("times out", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(shared.EnvClientID, "client")
		t.Setenv(shared.EnvClientSecret, "secret")

		runner := newTestRunner(authConfig(t), nil, &bytes.Buffer{})
		runner.openBrowser = func(string) error { return errors.New("no browser") }

		if err := runApp(t, runner, "auth", "--timeout", "50ms"); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("redirect port must match server port", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(shared.EnvClientID, "client")
		t.Setenv(shared.EnvClientSecret, "secret")
		t.Setenv(shared.EnvRedirectURI, "http://127.0.0.1:9000/callback")

		config := authConfig(t)
		config.Server.Port = 8123

		runner := newTestRunner(config, nil, &bytes.Buffer{})
		runner.openBrowser = func(string) error {
			t.Error("browser should not open on a port mismatch")
			return nil
		}

		if err := runApp(t, runner, "auth", "--timeout", "50ms"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("needs credentials file", func(t *testing.T) {
		config := authConfig(t)
		config.Spotify.CredentialsFile = ""
		runner := newTestRunner(config, nil, &bytes.Buffer{})

		if err := runApp(t, runner, "auth"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("needs client credentials", func(t *testing.T) {
		clearCredentialEnv(t)
		runner := newTestRunner(authConfig(t), nil, &bytes.Buffer{})

		if err := runApp(t, runner, "auth"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestCheckRedirectPort(t *testing.T) {
	tt := []struct {
		name     string
		port     int
		redirect string
		wantErr  bool
	}{
		{name: "matching port", port: 8080, redirect: "http://localhost:8080/callback"},
		{name: "ephemeral port", port: 0, redirect: "http://localhost:9000/callback"},
		{name: "implicit http port", port: 80, redirect: "http://localhost/callback"},
		{name: "implicit https port", port: 443, redirect: "https://example.com/callback"},
		{name: "mismatched port", port: 8080, redirect: "http://localhost:9000/callback", wantErr: true},
		{name: "implicit port mismatch", port: 8080, redirect: "http://localhost/callback", wantErr: true},
		{name: "no host", port: 8080, redirect: "/callback", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := checkRedirectPort(shared.ServerConfig{Host: "127.0.0.1", Port: tc.port}, tc.redirect)
			if tc.wantErr && !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
