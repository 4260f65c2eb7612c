package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NewFileCredentials loads an access key from a credential file and
// returns static credentials. Two formats are accepted:
//
//   - JSON with secretId / secretKey (and optional sessionToken)
//     fields, the format the console exports;
//   - YAML profiles keyed by name, selected with NewProfileCredentials.
//
// The format is chosen by file extension; anything that is not .yaml
// or .yml is treated as JSON.
func NewFileCredentials(path string) (*StaticCredentials, error) {
	return NewProfileCredentials(path, "default")
}

// NewProfileCredentials loads the named profile from a YAML credential
// file. For JSON files the profile name is ignored, the file holds a
// single key.
func NewProfileCredentials(path, profile string) (*StaticCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read credential file: %w", err)
	}

	var secret Secret
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		secret, err = parseProfileYAML(data, profile)
	default:
		secret, err = parseSecretJSON(data)
	}
	if err != nil {
		return nil, err
	}

	c := &StaticCredentials{}
	if err := c.SetSecret(secret); err != nil {
		return nil, fmt.Errorf("auth: credential file %s: %w", path, err)
	}
	return c, nil
}

type secretFile struct {
	SecretID     string `json:"secretId" yaml:"secret_id"`
	SecretKey    string `json:"secretKey" yaml:"secret_key"`
	SessionToken string `json:"sessionToken" yaml:"session_token"`
}

func (f secretFile) secret() Secret {
	return Secret{ID: f.SecretID, Key: f.SecretKey, Token: f.SessionToken}
}

func parseSecretJSON(data []byte) (Secret, error) {
	var file secretFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Secret{}, fmt.Errorf("auth: parse credential file: %w", err)
	}
	return file.secret(), nil
}

func parseProfileYAML(data []byte, profile string) (Secret, error) {
	var profiles map[string]secretFile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return Secret{}, fmt.Errorf("auth: parse credential file: %w", err)
	}
	file, ok := profiles[profile]
	if !ok {
		return Secret{}, fmt.Errorf("auth: no such profile %q", profile)
	}
	return file.secret(), nil
}
