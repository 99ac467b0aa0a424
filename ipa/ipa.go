// Package ipa extracts the embedded provisioning profile from .ipa archives.
package ipa

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EmbeddedProfileName is the canonical name of the provisioning profile
// bundled inside an application archive's Payload/*.app directory.
const EmbeddedProfileName = "embedded.mobileprovision"

// ErrNoEmbeddedProfile is returned when the archive has no embedded profile entry.
var ErrNoEmbeddedProfile = errors.New("no " + EmbeddedProfileName + " found")

// ExtractEmbeddedProfile extracts the archive's embedded provisioning profile
// into workspaceDir, preserving the entry's internal relative path, and
// returns the extracted file's path.
//
// When the archive contains multiple embedded profiles (multiple bundled
// apps), the first entry in the archive's listing order wins. This is a known
// limitation, not a pick-the-primary-app policy.
func ExtractEmbeddedProfile(archivePth, workspaceDir string) (string, error) {
	r, err := zip.OpenReader(archivePth)
	if err != nil {
		return "", fmt.Errorf("failed to open archive %s: %s", archivePth, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, EmbeddedProfileName) {
			continue
		}

		extractedPth, err := extractEntry(f, workspaceDir)
		if err != nil {
			return "", fmt.Errorf("failed to extract %s from %s: %s", f.Name, archivePth, err)
		}
		return extractedPth, nil
	}

	return "", ErrNoEmbeddedProfile
}

func extractEntry(f *zip.File, destDir string) (string, error) {
	destPth := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(destPth, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid entry path: %s", f.Name)
	}

	if err := os.MkdirAll(filepath.Dir(destPth), 0755); err != nil {
		return "", err
	}

	destFile, err := os.OpenFile(destPth, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", err
	}
	defer destFile.Close()

	srcFile, err := f.Open()
	if err != nil {
		return "", err
	}
	defer srcFile.Close()

	if _, err := io.Copy(destFile, srcFile); err != nil {
		return "", err
	}

	return destPth, nil
}
