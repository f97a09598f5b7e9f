package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ErrorKind distinguishes the ways a credentials file can be unusable
type ErrorKind int

const (
	MissingFile ErrorKind = iota + 1
	MalformedJSON
	MissingField
)

func (k ErrorKind) String() string {
	switch k {
	case MissingFile:
		return "missing_file"
	case MalformedJSON:
		return "malformed_json"
	case MissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// BearerTokenField is the required key in the credentials file
const BearerTokenField = "bearer_token"

// ConfigError reports an unusable credentials file. Its message is meant
// to be shown to the user as is.
type ConfigError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	name := filepath.Base(e.Path)
	switch e.Kind {
	case MissingFile:
		return fmt.Sprintf("Error: %s file not found", name)
	case MalformedJSON:
		return fmt.Sprintf("Error: Invalid JSON format in %s", name)
	case MissingField:
		return fmt.Sprintf("Error: '%s' key not found in %s", BearerTokenField, name)
	default:
		return fmt.Sprintf("Error: unable to load %s", name)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Credentials holds the API credential read from the credentials file
type Credentials struct {
	BearerToken string `json:"bearer_token"`
}

// LoadCredentials reads the JSON credentials file at path.
// Every failure is a *ConfigError.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// unreadable files are reported like absent ones
		return nil, &ConfigError{Kind: MissingFile, Path: path, Err: err}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Kind: MalformedJSON, Path: path, Err: err}
	}

	field, ok := raw[BearerTokenField]
	if !ok {
		return nil, &ConfigError{Kind: MissingField, Path: path}
	}

	var token string
	if err := json.Unmarshal(field, &token); err != nil || token == "" {
		return nil, &ConfigError{Kind: MissingField, Path: path, Err: err}
	}

	return &Credentials{BearerToken: token}, nil
}
