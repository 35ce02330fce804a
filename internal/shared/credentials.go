package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment keys shared by the process environment and the credentials file.
const (
	EnvClientID     = "SPOTIPY_CLIENT_ID"
	EnvClientSecret = "SPOTIPY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIPY_REDIRECT_URI"
	EnvRefreshToken = "SPOTIPY_REFRESH_TOKEN"
)

// DefaultRedirectURI is used when neither source provides one.
const DefaultRedirectURI = "http://localhost:8080/callback"

// Credentials holds the Spotify application credentials and the user's refresh token.
type Credentials struct {
	ClientID     string `yaml:"SPOTIPY_CLIENT_ID" validate:"required"`
	ClientSecret string `yaml:"SPOTIPY_CLIENT_SECRET" validate:"required"`
	RedirectURI  string `yaml:"SPOTIPY_REDIRECT_URI,omitempty"`
	RefreshToken string `yaml:"SPOTIPY_REFRESH_TOKEN" validate:"required"`
}

// CredentialSource tells [LoadCredentials] where to look.
type CredentialSource struct {
	File   string              // YAML file read when the environment is incomplete
	Getenv func(string) string // defaults to [os.Getenv]
}

// NewCredentialSource builds the source described by the [spotify] config section.
func NewCredentialSource(c SpotifyConfig) CredentialSource {
	return CredentialSource{File: c.CredentialsFile, Getenv: os.Getenv}
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already set are left alone.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadCredentials reads credentials from the environment first and falls back to the credentials file.
//
// Values in the file take precedence over partial environment values.
// Returns [ErrMissingCredentials] when neither source yields a complete set.
func LoadCredentials(src CredentialSource) (*Credentials, error) {
	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	creds := Credentials{
		ClientID:     getenv(EnvClientID),
		ClientSecret: getenv(EnvClientSecret),
		RedirectURI:  getenv(EnvRedirectURI),
		RefreshToken: getenv(EnvRefreshToken),
	}

	if creds.complete() {
		return &creds, nil
	}

	if src.File == "" {
		return nil, fmt.Errorf("%w: environment incomplete and no credentials file configured", ErrMissingCredentials)
	}

	data, err := os.ReadFile(src.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: environment incomplete and %s not found", ErrMissingCredentials, src.File)
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var fromFile Credentials
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrMissingCredentials, src.File, err)
	}

	creds.merge(fromFile)
	if creds.RedirectURI == "" {
		creds.RedirectURI = DefaultRedirectURI
	}

	if err := validator.New().Struct(creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	}

	return &creds, nil
}

// LoadClientCredentials reads the same sources as [LoadCredentials] but only requires
// the client id and secret. Used by the authorization flow before a refresh token exists.
func LoadClientCredentials(src CredentialSource) (*Credentials, error) {
	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	var creds Credentials
	if src.File != "" {
		data, err := os.ReadFile(src.File)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &creds); err != nil {
				return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrMissingCredentials, src.File, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	}

	creds.merge(Credentials{
		ClientID:     getenv(EnvClientID),
		ClientSecret: getenv(EnvClientSecret),
		RedirectURI:  getenv(EnvRedirectURI),
		RefreshToken: getenv(EnvRefreshToken),
	})

	if creds.RedirectURI == "" {
		creds.RedirectURI = DefaultRedirectURI
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: %s and %s are required", ErrMissingCredentials, EnvClientID, EnvClientSecret)
	}

	return &creds, nil
}

// SaveCredentials writes credentials to path in the same YAML layout [LoadCredentials] reads.
func SaveCredentials(path string, creds *Credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func (c Credentials) complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != "" && c.RefreshToken != ""
}

func (c *Credentials) merge(o Credentials) {
	if o.ClientID != "" {
		c.ClientID = o.ClientID
	}
	if o.ClientSecret != "" {
		c.ClientSecret = o.ClientSecret
	}
	if o.RedirectURI != "" {
		c.RedirectURI = o.RedirectURI
	}
	if o.RefreshToken != "" {
		c.RefreshToken = o.RefreshToken
	}
}
