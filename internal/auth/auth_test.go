package auth

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func jwt(t *testing.T, claims string) string {
	t.Helper()
	return "h." + base64.RawURLEncoding.EncodeToString([]byte(claims)) + ".s"
}

func TestHost(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://Lists.Example.com/seed.json", "lists.example.com", false},
		{"http://localhost:8080/items", "localhost:8080", false},
		{"/just/a/path", "", true},
		{"::nope", "", true},
	}
	for _, tt := range tests {
		got, err := Host(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("Host(%q) = %q, %v; want %q, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestGetToken_NotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvToken, "")

	ti, err := GetToken("lists.example.com")
	if err != nil {
		t.Fatalf("GetToken returned error: %v", err)
	}
	if ti != nil {
		t.Fatalf("GetToken = %#v, want nil", ti)
	}
	if got := BearerFor("https://lists.example.com/seed"); got != "" {
		t.Fatalf("BearerFor = %q, want empty", got)
	}
}

func TestGetToken_EnvAppliesToEveryHost(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvToken, "  Bearer abc123 ")

	for _, host := range []string{"a.example.com", "b.example.com"} {
		ti, err := GetToken(host)
		if err != nil {
			t.Fatalf("GetToken(%s) returned error: %v", host, err)
		}
		if ti == nil || ti.Token != "abc123" || ti.Source != "env" || ti.Host != host {
			t.Fatalf("GetToken(%s) = %#v, want env token abc123", host, ti)
		}
	}
}

func TestSetToken_FiledPerHost(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvToken, "")

	if _, err := SetToken("Lists.Example.com", "bearer first"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if _, err := SetToken("other.example.com", "second"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	info, err := os.Stat(filepath.Join(home, ".basket", credFileName))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("credentials perm = %o, want 600", perm)
	}

	if got := BearerFor("https://lists.example.com/seed.json"); got != "first" {
		t.Fatalf("BearerFor(lists) = %q, want first", got)
	}
	if got := BearerFor("https://other.example.com/x"); got != "second" {
		t.Fatalf("BearerFor(other) = %q, want second", got)
	}
	if got := BearerFor("https://unknown.example.com/x"); got != "" {
		t.Fatalf("BearerFor(unknown) = %q, want empty", got)
	}

	tokens, err := Tokens()
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	var hosts []string
	for _, ti := range tokens {
		hosts = append(hosts, ti.Host)
	}
	if diff := cmp.Diff([]string{"lists.example.com", "other.example.com"}, hosts); diff != "" {
		t.Fatalf("hosts (-want +got):\n%s", diff)
	}
}

func TestDeleteToken(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvToken, "")

	if _, err := SetToken("lists.example.com", "tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	removed, err := DeleteToken("LISTS.example.com")
	if err != nil || !removed {
		t.Fatalf("DeleteToken = %v, %v; want true, nil", removed, err)
	}
	removed, err = DeleteToken("lists.example.com")
	if err != nil || removed {
		t.Fatalf("second DeleteToken = %v, %v; want false, nil", removed, err)
	}
	if _, err := os.Stat(filepath.Join(home, ".basket", credFileName)); !os.IsNotExist(err) {
		t.Fatalf("credentials file left behind after last token: %v", err)
	}
}

func TestSetToken_Empty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := SetToken("lists.example.com", "   "); err == nil {
		t.Fatalf("SetToken(blank token) returned nil error")
	}
	if _, err := SetToken(" ", "tok"); err == nil {
		t.Fatalf("SetToken(blank host) returned nil error")
	}
}

func TestExpiredTokenIsNotSent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvToken, "")

	past := time.Now().Add(-time.Hour).Unix()
	ti, err := SetToken("lists.example.com", jwt(t, fmt.Sprintf(`{"exp":%d}`, past)))
	if err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if ti.ExpiresAt == nil || ti.ExpiresAt.Unix() != past {
		t.Fatalf("ExpiresAt = %v, want %d", ti.ExpiresAt, past)
	}
	if got := BearerFor("https://lists.example.com/seed"); got != "" {
		t.Fatalf("expired token sent: %q", got)
	}

	future := time.Now().Add(time.Hour).Unix()
	token := jwt(t, fmt.Sprintf(`{"exp":%d}`, future))
	if _, err := SetToken("lists.example.com", token); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got := BearerFor("https://lists.example.com/seed"); got != token {
		t.Fatalf("BearerFor = %q, want the fresh token", got)
	}
}

func TestJWTPayload(t *testing.T) {
	payload := `{"sub":"shopper"}`
	got, ok := JWTPayload(jwt(t, payload))
	if !ok || got != payload {
		t.Fatalf("JWTPayload = %q, %v; want %q, true", got, ok, payload)
	}
	if _, ok := JWTPayload("opaque"); ok {
		t.Fatalf("JWTPayload(opaque) ok = true")
	}
}
