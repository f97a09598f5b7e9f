package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCredentials(t *testing.T) {
	path := writeCredentials(t, `{"bearer_token": "AAAA%2Ftoken", "extra": 1}`)

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "AAAA%2Ftoken", creds.BearerToken)
}

func TestLoadCredentialsErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		kind    ErrorKind
		message string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "config.json") },
			kind:    MissingFile,
			message: "Error: config.json file not found",
		},
		{
			name:    "malformed json",
			path:    func(t *testing.T) string { return writeCredentials(t, `{"bearer_token": `) },
			kind:    MalformedJSON,
			message: "Error: Invalid JSON format in config.json",
		},
		{
			name:    "top level array",
			path:    func(t *testing.T) string { return writeCredentials(t, `["bearer_token"]`) },
			kind:    MalformedJSON,
			message: "Error: Invalid JSON format in config.json",
		},
		{
			name:    "missing field",
			path:    func(t *testing.T) string { return writeCredentials(t, `{"api_key": "x"}`) },
			kind:    MissingField,
			message: "Error: 'bearer_token' key not found in config.json",
		},
		{
			name:    "non string field",
			path:    func(t *testing.T) string { return writeCredentials(t, `{"bearer_token": 42}`) },
			kind:    MissingField,
			message: "Error: 'bearer_token' key not found in config.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := LoadCredentials(tt.path(t))
			assert.Nil(t, creds)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.kind, cfgErr.Kind)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestConfigErrorUsesActualFileName(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "twitter.json"))
	assert.EqualError(t, err, "Error: twitter.json file not found")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "missing_file", MissingFile.String())
	assert.Equal(t, "malformed_json", MalformedJSON.String())
	assert.Equal(t, "missing_field", MissingField.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}
