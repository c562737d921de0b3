package config

import (
	"testing"

	"notedrop/internal/logging"

	"github.com/zalando/go-keyring"
)

func TestCredentialsRoundTrip(t *testing.T) {
	keyring.MockInit()
	creds := NewCredentials()

	if creds.HasNotionToken() {
		t.Fatal("fresh mock keyring should hold no token")
	}

	if err := creds.StoreNotionToken("secret_token_value"); err != nil {
		t.Fatalf("StoreNotionToken failed: %v", err)
	}

	if !creds.HasNotionToken() {
		t.Error("HasNotionToken should be true after store")
	}

	token, err := creds.NotionToken()
	if err != nil {
		t.Fatalf("NotionToken failed: %v", err)
	}
	if token != "secret_token_value" {
		t.Errorf("token = %q", token)
	}

	if err := creds.DeleteNotionToken(); err != nil {
		t.Fatalf("DeleteNotionToken failed: %v", err)
	}
	if creds.HasNotionToken() {
		t.Error("token should be gone after delete")
	}
	// Deleting again is not an error.
	if err := creds.DeleteNotionToken(); err != nil {
		t.Errorf("double delete should be nil, got %v", err)
	}
}

func TestStoreNotionTokenRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	creds := NewCredentials()

	if err := creds.StoreNotionToken("   "); err == nil {
		t.Fatal("expected error for blank token")
	}
}

func TestResolveNotionTokenPrefersEnv(t *testing.T) {
	keyring.MockInit()
	creds := NewCredentials()
	if err := creds.StoreNotionToken("from-keyring"); err != nil {
		t.Fatalf("StoreNotionToken failed: %v", err)
	}

	logger, _ := logging.NewTestLogger()

	t.Setenv(EnvNotionToken, "from-env")
	if got := ResolveNotionToken(logger); got != "from-env" {
		t.Errorf("ResolveNotionToken = %q, want from-env", got)
	}

	t.Setenv(EnvNotionToken, "")
	if got := ResolveNotionToken(logger); got != "from-keyring" {
		t.Errorf("ResolveNotionToken = %q, want from-keyring", got)
	}
}
