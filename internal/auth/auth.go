// Package auth keeps the bearer tokens sent when fetching remote seed lists.
// Tokens are stored per host in ~/.basket/credentials.json; BASKET_TOKEN
// applies to every host and wins over the file.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	credFileName = "credentials.json"
	// EnvToken overrides the credentials file when set.
	EnvToken = "BASKET_TOKEN"
)

// TokenInfo is one stored seed token.
type TokenInfo struct {
	Host      string     `json:"host"`
	Token     string     `json:"token"`
	Source    string     `json:"-"` // "env" | "file"
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // from the JWT exp claim
}

// Expired reports whether the token carries an expiry that has passed.
func (ti TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && !now.Before(*ti.ExpiresAt)
}

type credentials struct {
	Tokens map[string]TokenInfo `json:"tokens"`
}

// Host returns the lowercased host[:port] a seed URL's token is filed under.
func Host(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse seed url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("seed url %q has no host", rawURL)
	}
	return strings.ToLower(u.Host), nil
}

func credFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".basket", credFileName), nil
}

func readCredentials() (credentials, error) {
	creds := credentials{Tokens: map[string]TokenInfo{}}
	p, err := credFilePath()
	if err != nil {
		return creds, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return creds, nil
		}
		return creds, fmt.Errorf("read credentials: %w", err)
	}
	if err := json.Unmarshal(b, &creds); err != nil {
		return creds, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.Tokens == nil {
		creds.Tokens = map[string]TokenInfo{}
	}
	return creds, nil
}

func writeCredentials(creds credentials) error {
	p, err := credFilePath()
	if err != nil {
		return err
	}
	if len(creds.Tokens) == 0 {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove credentials: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// owner-only
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func envToken() string {
	return stripBearer(strings.TrimSpace(os.Getenv(EnvToken)))
}

// GetToken returns the token for host, or nil when there is none.
func GetToken(host string) (*TokenInfo, error) {
	host = strings.ToLower(host)
	if env := envToken(); env != "" {
		return &TokenInfo{Host: host, Token: env, Source: "env", ExpiresAt: jwtExpiry(env)}, nil
	}
	creds, err := readCredentials()
	if err != nil {
		return nil, err
	}
	ti, ok := creds.Tokens[host]
	if !ok {
		return nil, nil
	}
	ti.Host, ti.Source = host, "file"
	return &ti, nil
}

// Tokens lists the stored tokens ordered by host. The env override is not
// included.
func Tokens() ([]TokenInfo, error) {
	creds, err := readCredentials()
	if err != nil {
		return nil, err
	}
	out := make([]TokenInfo, 0, len(creds.Tokens))
	for host, ti := range creds.Tokens {
		ti.Host, ti.Source = host, "file"
		out = append(out, ti)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out, nil
}

// BearerFor returns the token to send when fetching rawURL, or "" when there
// is no usable one. Expired tokens are not sent.
func BearerFor(rawURL string) string {
	host, err := Host(rawURL)
	if err != nil {
		return ""
	}
	ti, err := GetToken(host)
	if err != nil || ti == nil || ti.Expired(time.Now()) {
		return ""
	}
	return ti.Token
}

// SetToken files token under host. A JWT's exp claim becomes ExpiresAt.
func SetToken(host, token string) (*TokenInfo, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	token = stripBearer(strings.TrimSpace(token))
	if host == "" {
		return nil, fmt.Errorf("empty host")
	}
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	creds, err := readCredentials()
	if err != nil {
		return nil, err
	}
	ti := TokenInfo{
		Host:      host,
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: jwtExpiry(token),
	}
	creds.Tokens[host] = ti
	if err := writeCredentials(creds); err != nil {
		return nil, err
	}
	return &ti, nil
}

// DeleteToken forgets host's token. It reports whether one was stored.
func DeleteToken(host string) (bool, error) {
	creds, err := readCredentials()
	if err != nil {
		return false, err
	}
	host = strings.ToLower(host)
	if _, ok := creds.Tokens[host]; !ok {
		return false, nil
	}
	delete(creds.Tokens, host)
	return true, writeCredentials(creds)
}

// JWTPayload decodes the (unverified) payload of a JWT. ok is false for
// opaque tokens.
func JWTPayload(token string) (payload string, ok bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}
	seg := parts[1]
	if dec, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return string(dec), true
	}
	if dec, err := base64.URLEncoding.DecodeString(seg); err == nil {
		return string(dec), true
	}
	return "", false
}

func jwtExpiry(token string) *time.Time {
	payload, ok := JWTPayload(token)
	if !ok {
		return nil
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal([]byte(payload), &claims); err != nil || claims.Exp == 0 {
		return nil
	}
	exp := time.Unix(claims.Exp, 0).UTC()
	return &exp
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
