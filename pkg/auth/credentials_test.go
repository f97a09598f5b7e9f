package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCredentialManager(t *testing.T) {
	manager, store := NewMockManager()

	cred := &Credential{Name: "work", BearerToken: "AAAAAAAAAAAAAAAAAAAAAtoken1234"}
	require.NoError(t, manager.Store(cred))
	assert.False(t, cred.LastModified.IsZero())

	retrieved, err := manager.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, cred.BearerToken, retrieved.BearerToken)

	creds, err := manager.List()
	require.NoError(t, err)
	require.Len(t, creds, 1)

	require.NoError(t, manager.Delete("work"))
	_, err = manager.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, store.Count())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.Error(t, manager.Store(nil))
	assert.Error(t, manager.Store(&Credential{BearerToken: "x"}))
	assert.Error(t, manager.Store(&Credential{Name: "work"}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("disk full")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)
	require.NoError(t, manager.Store(&Credential{Name: "work", BearerToken: "token"}))

	assert.True(t, working.Exists("work"))
	assert.False(t, broken.Exists("work"))
}

func TestManagerStoreAllFail(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("disk full")

	err := NewManagerWithStores(broken).Store(&Credential{Name: "work", BearerToken: "token"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.ErrorIs(t, NewManagerWithStores().Store(&Credential{Name: "work", BearerToken: "token"}), ErrStoreUnavailable)
}

func TestManagerListNewestFirst(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	now := time.Now()

	require.NoError(t, first.Store(&Credential{Name: "old", BearerToken: "a", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, first.Store(&Credential{Name: "shared", BearerToken: "stale", LastModified: now.Add(-2 * time.Hour)}))
	require.NoError(t, second.Store(&Credential{Name: "shared", BearerToken: "fresh", LastModified: now}))

	manager := NewManagerWithStores(first, second)
	creds, err := manager.List()
	require.NoError(t, err)
	require.Len(t, creds, 2)

	assert.Equal(t, "shared", creds[0].Name)
	assert.Equal(t, "fresh", creds[0].BearerToken)
	assert.Equal(t, "old", creds[1].Name)

	def, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "shared", def.Name)
}

func TestManagerRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv(BearerTokenEnv, "env-token")

	store := NewMockStore()
	require.NoError(t, store.Store(&Credential{Name: "work", BearerToken: "stored", LastModified: time.Now()}))

	def, err := NewManagerWithStores(store, NewEnvironmentStore()).RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env-token", def.BearerToken)
	assert.Equal(t, "env", def.Name)
}

func TestManagerRetrieveDefaultEmpty(t *testing.T) {
	t.Setenv(BearerTokenEnv, "")

	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())
	_, err := manager.RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerDeleteSkipsReadOnlyStores(t *testing.T) {
	t.Setenv(BearerTokenEnv, "env-token")

	store := NewMockStore()
	require.NoError(t, store.Store(&Credential{Name: "work", BearerToken: "stored"}))

	manager := NewManagerWithStores(store, NewEnvironmentStore())
	require.NoError(t, manager.Delete("work"))
	assert.False(t, store.Exists("work"))

	err := NewManagerWithStores(NewMockStore(), NewEnvironmentStore()).Delete("missing")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(BearerTokenEnv, "")
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists(""))
	creds, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, creds)

	t.Setenv(BearerTokenEnv, "env-token")
	cred, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "env", cred.Name)
	assert.Equal(t, "env-token", cred.BearerToken)
	assert.True(t, store.Exists(""))

	assert.ErrorIs(t, store.Store(cred), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("env"), ErrStoreUnavailable)
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store := NewEncryptedFileStoreWithPassphrase(path, "test-passphrase")

	_, err := store.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	creds, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, creds)

	cred := &Credential{Name: "work", BearerToken: "secret-bearer-token"}
	require.NoError(t, store.Store(cred))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "secret-bearer-token")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second store over the same file sees the credential
	reopened := NewEncryptedFileStoreWithPassphrase(path, "test-passphrase")
	retrieved, err := reopened.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "secret-bearer-token", retrieved.BearerToken)
	assert.True(t, reopened.Exists("work"))

	wrong := NewEncryptedFileStoreWithPassphrase(path, "other-passphrase")
	_, err = wrong.Retrieve("work")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Delete("work"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is removed with the last credential")
	assert.ErrorIs(t, store.Delete("work"), ErrCredentialsNotFound)
}

func TestEncryptedFileStorePassphraseFile(t *testing.T) {
	t.Setenv(PassphraseEnv, "")
	dir := t.TempDir()

	store, err := NewEncryptedFileStore(filepath.Join(dir, "nested", "credentials.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Name: "work", BearerToken: "token"}))

	passphrase, err := os.ReadFile(filepath.Join(dir, "nested", ".passphrase"))
	require.NoError(t, err)
	assert.NotEmpty(t, passphrase)

	again, err := NewEncryptedFileStore(filepath.Join(dir, "nested", "credentials.enc"))
	require.NoError(t, err)
	assert.True(t, again.Exists("work"))
}

func TestEncryptedFileStorePassphraseEnv(t *testing.T) {
	t.Setenv(PassphraseEnv, "from-env")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Name: "work", BearerToken: "token"}))

	assert.True(t, NewEncryptedFileStoreWithPassphrase(path, "from-env").Exists("work"))
	_, err = os.Stat(filepath.Join(filepath.Dir(path), ".passphrase"))
	assert.True(t, os.IsNotExist(err))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	_, err = store.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Credential{Name: "work", BearerToken: "work-token"}))
	require.NoError(t, store.Store(&Credential{Name: "home", BearerToken: "home-token"}))
	require.NoError(t, store.Store(&Credential{Name: "work", BearerToken: "work-token-2"}))

	creds, err := store.List()
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "home", creds[0].Name)
	assert.Equal(t, "work-token-2", creds[1].BearerToken)

	require.NoError(t, store.Delete("home"))
	assert.False(t, store.Exists("home"))
	assert.ErrorIs(t, store.Delete("home"), ErrCredentialsNotFound)

	creds, err = store.List()
	require.NoError(t, err)
	require.Len(t, creds, 1)
}

func TestNewManagerUsesConfigDir(t *testing.T) {
	keyring.MockInit()
	t.Setenv(PassphraseEnv, "")
	dir := t.TempDir()

	manager, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, manager.Store(&Credential{Name: "work", BearerToken: "token"}))

	cred, err := manager.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "token", cred.BearerToken)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********", MaskToken(""))
	assert.Equal(t, "********", MaskToken("12345678"))
	assert.Equal(t, "AAAA...wxyz", MaskToken("AAAAbcdefghijklmnopwxyz"))

	cred := &Credential{Name: "work", BearerToken: "AAAAbcdefghijklmnopwxyz"}
	sanitized := SanitizeCredential(cred)
	assert.Equal(t, "work", sanitized.Name)
	assert.Equal(t, "AAAA...wxyz", sanitized.BearerToken)
	assert.Equal(t, "AAAAbcdefghijklmnopwxyz", cred.BearerToken, "original is untouched")
	assert.Nil(t, SanitizeCredential(nil))
}

func TestBearerTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowBearerTokenGuide(&buf)
	assert.Contains(t, buf.String(), "Keys and tokens")
	assert.Contains(t, buf.String(), BearerTokenEnv)

	buf.Reset()
	ShowQuickTokenGuide(&buf)
	assert.Contains(t, buf.String(), "Bearer Token")
}
