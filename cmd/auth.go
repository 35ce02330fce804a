package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/curator/internal/server"
	"github.com/desertthunder/curator/internal/services"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and stores the
// issued refresh token in the credentials file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	src := shared.NewCredentialSource(config.Spotify)
	if src.File == "" {
		return fmt.Errorf("%w: spotify.credentials_file must be set to store the refresh token", shared.ErrInvalidConfig)
	}

	creds, err := shared.LoadClientCredentials(src)
	if err != nil {
		return err
	}

	oauthConfig := services.OAuthConfig(creds)
	if r.oauthEndpoint != nil {
		oauthConfig.Endpoint = *r.oauthEndpoint
	}

	token, err := r.doOAuth(ctx, config.Server, oauthConfig, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	creds.RefreshToken = token.RefreshToken
	if err := shared.SaveCredentials(src.File, creds); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Refresh token saved to %s\n\n", src.File)
	r.writePlain("You can now use: curator todo\n")

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server.
//
// Port 0 listens on a free port and rewrites the redirect URL to match it.
func (r *Runner) doOAuth(ctx context.Context, cfg shared.ServerConfig, oauthConfig *oauth2.Config, timeout time.Duration) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	if err := checkRedirectPort(cfg, oauthConfig.RedirectURL); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to start OAuth server: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	if cfg.Port == 0 {
		oauthConfig.RedirectURL = "http://" + listener.Addr().String() + oauthHandler.Routes()[0]
	}

	httpServer := &http.Server{
		Handler:           server.NewRouter(r.logger, oauthHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", listener.Addr())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// checkRedirectPort ensures the redirect URI targets the port the callback server binds.
// Port 0 rewrites the redirect URI instead.
func checkRedirectPort(cfg shared.ServerConfig, redirect string) error {
	if cfg.Port == 0 {
		return nil
	}

	u, err := url.Parse(redirect)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: invalid redirect URI %q", shared.ErrInvalidConfig, redirect)
	}

	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	if port != strconv.Itoa(cfg.Port) {
		return fmt.Errorf("%w: redirect URI %s does not match server.port %d", shared.ErrInvalidConfig, redirect, cfg.Port)
	}
	return nil
}
