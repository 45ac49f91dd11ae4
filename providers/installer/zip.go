package installer

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// compilerEntry is the executable name inside the legacy windows archives.
const compilerEntry = "solc.exe"

// extractZip unpacks the archive into dir and renames the compiler to exe.
func extractZip(archive, dir, exe string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return errors.Wrap(err, "unable to open the archive")
	}
	defer r.Close()

	found := false
	for _, f := range r.File {
		name := filepath.Clean(filepath.FromSlash(f.Name))
		if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return errors.Errorf("illegal archive entry %q", f.Name)
		}
		target := filepath.Join(dir, name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if filepath.Base(name) == compilerEntry {
			target = exe
			found = true
		}
		if err := extractFile(f, target); err != nil {
			return errors.Wrapf(err, "unable to extract %s", f.Name)
		}
	}
	if !found {
		return errors.Errorf("archive has no %s", compilerEntry)
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
