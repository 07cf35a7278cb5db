package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLoadAbsent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess, "absent credentials file must load as signed-out, not an error")
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store := NewFileStore(path)

	in := &Session{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		User:         &Profile{ID: "u-1", Email: "dev@example.com", Name: "Dev"},
	}
	require.NoError(t, store.Save(in))

	// Credentials are private to the user.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "at-1", out.AccessToken)
	assert.Equal(t, "rt-1", out.RefreshToken)
	require.NotNil(t, out.User)
	assert.Equal(t, "dev@example.com", out.User.Email)

	// No stray temp or lock files after a successful save.
	assert.NoFileExists(t, path+".tmp")
	assert.NoFileExists(t, path+".lock")
}

func TestFileStoreRejectsPartialSession(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))

	err := store.Save(&Session{AccessToken: "at-only"})
	require.ErrorIs(t, err, ErrPartialSession)

	err = store.Save(&Session{RefreshToken: "rt-only"})
	require.ErrorIs(t, err, ErrPartialSession)

	sess, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Nil(t, sess)
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileStore(path)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := store.Load()
	assert.Error(t, err)

	// A half pair on disk is corrupt too, even though the JSON parses.
	half, marshalErr := json.Marshal(map[string]string{"access_token": "at-only"})
	require.NoError(t, marshalErr)
	require.NoError(t, os.WriteFile(path, half, 0o600))
	_, err = store.Load()
	require.ErrorIs(t, err, ErrPartialSession)
}

func TestFileStoreLoadEmptySessionAsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileStore(path)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(&Session{AccessToken: "at-1", RefreshToken: "rt-1"}))
	require.NoError(t, store.Clear())
	assert.NoFileExists(t, path)

	// Clearing again is not an error.
	require.NoError(t, store.Clear())
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(&Session{AccessToken: "at-1", RefreshToken: "rt-1"}))
	require.NoError(t, store.Save(&Session{AccessToken: "at-2", RefreshToken: "rt-2"}))

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "at-2", sess.AccessToken)
	assert.Equal(t, "rt-2", sess.RefreshToken)
}
