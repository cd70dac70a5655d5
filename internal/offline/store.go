// Package offline owns the on-disk layout of downloaded map areas.
//
// Each downloaded area is one entry named exactly after the area's display
// title, directly under a single offline root:
//
//	<cache-dir>/<offline-dir>/<area-title>
//
// Existence of that entry is the only "downloaded" signal. There is no
// manifest, checksum or version marker, so caches written by earlier releases
// remain valid as long as the path rule is unchanged.
package offline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const (
	// DefaultDirName is the offline root created under the cache directory.
	DefaultDirName = "arcgis_offline_maps"

	lockFileName   = ".lock"
	stagingPrefix  = ".staging-"
	lockRetryDelay = 10 * time.Millisecond
)

// ErrInvalidTitle is returned for titles that cannot name an entry directly
// under the offline root.
var ErrInvalidTitle = errors.New("invalid area title")

// Store manages the offline root directory.
type Store struct {
	root string
}

// NewStore returns a Store rooted at <cacheDir>/<dirName>. An empty dirName
// uses DefaultDirName.
func NewStore(cacheDir, dirName string) *Store {
	if dirName == "" {
		dirName = DefaultDirName
	}
	return &Store{root: filepath.Join(cacheDir, dirName)}
}

// Root returns the offline root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the location of an area's package. The title is appended
// verbatim, without cleaning, so the layout matches existing caches byte for
// byte.
func (s *Store) Path(title string) string {
	return s.root + string(os.PathSeparator) + title
}

// Exists reports whether anything is present at the area's path. Invalid
// titles never exist.
func (s *Store) Exists(title string) bool {
	if s.checkTitle(title) != nil {
		return false
	}
	_, err := os.Stat(s.Path(title))
	return err == nil
}

// checkTitle rejects titles whose path would be the root itself, leave the
// root, or collide with the lock file and staging directories.
func (s *Store) checkTitle(title string) error {
	if title == "" || title == "." || title == ".." {
		return errors.Wrapf(ErrInvalidTitle, "%q", title)
	}
	rel, err := filepath.Rel(s.root, s.Path(title))
	if err != nil {
		return errors.Wrapf(ErrInvalidTitle, "%q", title)
	}
	sep := string(os.PathSeparator)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+sep) {
		return errors.Wrapf(ErrInvalidTitle, "%q leaves the offline root", title)
	}
	first, _, _ := strings.Cut(rel, sep)
	if first == lockFileName || strings.HasPrefix(first, stagingPrefix) {
		return errors.Wrapf(ErrInvalidTitle, "%q is a reserved name", title)
	}
	return nil
}

// Provision creates the offline root. It reports whether the directory was
// created by this call.
func (s *Store) Provision() (created bool, err error) {
	if info, err := os.Stat(s.root); err == nil {
		if !info.IsDir() {
			return false, errors.Errorf("offline root %s is not a directory", s.root)
		}
		return false, nil
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return false, errors.Wrap(err, "could not create offline map directory")
	}
	return true, nil
}

// Remove deletes an area's package recursively. Removing an area that is not
// present is a no-op; an invalid title is an error.
func (s *Store) Remove(ctx context.Context, title string) error {
	if err := s.checkTitle(title); err != nil {
		return err
	}
	path := s.Path(title)
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "could not stat offline area")
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "could not remove offline area %q", title)
	}
	return nil
}

// Materialize extracts a gzip-compressed tar package into the area's path.
// Extraction happens in a staging directory inside the root which is renamed
// into place once complete, so a partial extraction never looks downloaded.
// An existing package for the same title is replaced.
func (s *Store) Materialize(ctx context.Context, title string, archive io.Reader) error {
	if err := s.checkTitle(title); err != nil {
		return err
	}
	if _, err := s.Provision(); err != nil {
		return err
	}

	staging, err := os.MkdirTemp(s.root, stagingPrefix+"*")
	if err != nil {
		return errors.Wrap(err, "could not create staging directory")
	}
	defer func() { _ = os.RemoveAll(staging) }()

	if err := extract(ctx, archive, staging); err != nil {
		return err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	dest := s.Path(title)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(err, "could not create area parent directory")
	}
	if err := os.RemoveAll(dest); err != nil {
		return errors.Wrap(err, "could not replace existing offline area")
	}
	if err := os.Rename(staging, dest); err != nil {
		return errors.Wrap(err, "could not move staged area into place")
	}
	return nil
}

// lock takes the cross-process lock guarding renames and removals under the
// root. The returned func releases it.
func (s *Store) lock(ctx context.Context) (func(), error) {
	fileLock := flock.New(filepath.Join(s.root, lockFileName))
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, errors.Wrap(err, "could not lock offline map directory")
	}
	if !locked {
		return nil, errors.New("could not obtain offline map directory lock")
	}
	return func() { _ = fileLock.Unlock() }, nil
}
