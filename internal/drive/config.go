// Package drive uploads rendered trip tickets to Google Drive.
//
// Tokens come from an Authorizer. TokenStore is the OAuth implementation
// used by the server and CLI; tests plug in StaticToken.
package drive

import (
	"net/http"
	"strings"
	"time"

	intconfig "dtt/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ScopeDriveFile = "https://www.googleapis.com/auth/drive.file"

	DefaultUploadURL = "https://www.googleapis.com/upload/drive/v3/files"
	DefaultFilesURL  = "https://www.googleapis.com/drive/v3/files"
	DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"
)

// Config identifies the Drive folder and OAuth client.
type Config struct {
	FolderID     string
	APIKey       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	TokenFile    string

	UploadURL string
	FilesURL  string
	RevokeURL string
	Endpoint  oauth2.Endpoint

	HTTPClient *http.Client
}

// ConfigFromEnv maps the DRIVE_* and GOOGLE_* settings onto a Config.
func ConfigFromEnv(e intconfig.DriveEnv) Config {
	c := Config{
		FolderID:     e.FolderID,
		APIKey:       e.APIKey,
		ClientID:     e.ClientID,
		ClientSecret: e.ClientSecret,
		RedirectURL:  e.RedirectURL,
		TokenFile:    e.TokenFile,
		UploadURL:    e.UploadURL,
		FilesURL:     e.FilesURL,
		RevokeURL:    e.RevokeURL,
	}
	if e.TokenURL != "" {
		c.Endpoint = oauth2.Endpoint{AuthURL: google.Endpoint.AuthURL, TokenURL: e.TokenURL}
	}
	return c
}

func (c Config) withDefaults() Config {
	if len(c.Scopes) == 0 {
		c.Scopes = []string{ScopeDriveFile}
	}
	if c.UploadURL == "" {
		c.UploadURL = DefaultUploadURL
	}
	if c.FilesURL == "" {
		c.FilesURL = DefaultFilesURL
	}
	if c.RevokeURL == "" {
		c.RevokeURL = DefaultRevokeURL
	}
	if c.Endpoint.TokenURL == "" {
		c.Endpoint = google.Endpoint
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	c.UploadURL = strings.TrimRight(c.UploadURL, "/")
	c.FilesURL = strings.TrimRight(c.FilesURL, "/")
	return c
}

func (c Config) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
		Endpoint:     c.Endpoint,
	}
}

// PublicLink is the anyone-with-the-link viewer URL of a file.
func PublicLink(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view?usp=sharing"
}
