package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOAuthClient() *OAuthClientConfig {
	return &OAuthClientConfig{
		Installed: OAuthInstalled{
			ClientID:                "client-id.apps.googleusercontent.com",
			ProjectID:               "facilitators",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}
}

func TestValidateOAuthClient(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *OAuthClientConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*OAuthClientConfig) {}},
		{name: "missing client id", mutate: func(cfg *OAuthClientConfig) { cfg.Installed.ClientID = "" }, wantErr: true},
		{name: "invalid auth uri", mutate: func(cfg *OAuthClientConfig) { cfg.Installed.AuthURI = "not-a-url" }, wantErr: true},
		{name: "no redirect uris", mutate: func(cfg *OAuthClientConfig) { cfg.Installed.RedirectURIs = []string{} }, wantErr: true},
		{name: "invalid redirect uri", mutate: func(cfg *OAuthClientConfig) { cfg.Installed.RedirectURIs = []string{"not a uri"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validOAuthClient()
			tt.mutate(cfg)

			err := ValidateOAuthClient(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "validation failed")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.json")
	content := `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "project_id": "facilitators",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "secret",
    "redirect_uris": ["http://localhost:8080", "urn:ietf:wg:oauth:2.0:oob"]
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "client-id.apps.googleusercontent.com", cfg.Installed.ClientID)
	assert.Equal(t, "secret", cfg.Installed.ClientSecret)
	assert.Len(t, cfg.Installed.RedirectURIs, 2)
}

func TestLoadOAuthClientFromPath_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed": {"client_id": "x" "project_id": "y"}}`), 0644))

	_, err := LoadOAuthClientFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse oauth client file")
}

func TestLoadOAuthClientFromPath_FileNotFound(t *testing.T) {
	_, err := LoadOAuthClientFromPath("/nonexistent/path/oauthClient.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth client file")
}

func TestNeedsGoogle(t *testing.T) {
	assert.False(t, (&Config{}).NeedsGoogle())
	assert.True(t, (&Config{ReportSheetID: "sheet"}).NeedsGoogle())
	assert.True(t, (&Config{Notifications: Notifications{Enabled: true}}).NeedsGoogle())
}
