package ipa

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type archiveEntry struct {
	name    string
	content []byte
}

func TestExtractEmbeddedProfile(t *testing.T) {
	archivePth := createArchive(t, []archiveEntry{
		{"Payload/App.app/Info.plist", []byte("info")},
		{"Payload/App.app/embedded.mobileprovision", []byte("profile-bytes")},
	})
	workspaceDir := t.TempDir()

	got, err := ExtractEmbeddedProfile(archivePth, workspaceDir)

	require.NoError(t, err)
	require.Equal(t, filepath.Join(workspaceDir, "Payload", "App.app", "embedded.mobileprovision"), got)

	content, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, []byte("profile-bytes"), content)
}

func TestExtractEmbeddedProfile_firstEntryWins(t *testing.T) {
	// multiple embedded apps in one archive: the first entry in listing order
	// is selected, this is a known limitation
	archivePth := createArchive(t, []archiveEntry{
		{"Payload/First.app/embedded.mobileprovision", []byte("first")},
		{"Payload/Second.app/embedded.mobileprovision", []byte("second")},
	})
	workspaceDir := t.TempDir()

	got, err := ExtractEmbeddedProfile(archivePth, workspaceDir)

	require.NoError(t, err)

	content, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), content)
}

func TestExtractEmbeddedProfile_noEmbeddedProfile(t *testing.T) {
	archivePth := createArchive(t, []archiveEntry{
		{"Payload/App.app/Info.plist", []byte("info")},
	})

	_, err := ExtractEmbeddedProfile(archivePth, t.TempDir())

	require.ErrorIs(t, err, ErrNoEmbeddedProfile)
}

func TestExtractEmbeddedProfile_corruptArchive(t *testing.T) {
	archivePth := filepath.Join(t.TempDir(), "corrupt.ipa")
	require.NoError(t, os.WriteFile(archivePth, []byte("not a zip archive"), 0600))

	_, err := ExtractEmbeddedProfile(archivePth, t.TempDir())

	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoEmbeddedProfile)
}

func TestExtractEmbeddedProfile_entryEscapingWorkspace(t *testing.T) {
	archivePth := createArchive(t, []archiveEntry{
		{"../embedded.mobileprovision", []byte("escaping")},
	})

	_, err := ExtractEmbeddedProfile(archivePth, t.TempDir())

	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoEmbeddedProfile)
}

func createArchive(t *testing.T, entries []archiveEntry) string {
	archivePth := filepath.Join(t.TempDir(), "app.ipa")

	f, err := os.Create(archivePth)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for _, entry := range entries {
		entryWriter, err := w.Create(entry.name)
		require.NoError(t, err)
		_, err = entryWriter.Write(entry.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return archivePth
}
