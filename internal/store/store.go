// Package store resolves presences inside a local presence store checkout.
//
// The store lays presences out under single-letter bucket directories:
// <root>/<Bucket>/<Name>, where Bucket is derived from the first rune of the
// presence name (digits share a "0-9" bucket).
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// PrimaryEntry is the required entry script of every presence.
	PrimaryEntry = "presence.ts"

	// IframeEntry is the optional secondary entry script.
	IframeEntry = "iframe.ts"

	// ManifestFile is the dependency manifest consulted before building.
	ManifestFile = "package.json"

	// MetadataFile describes the presence (service, author, settings).
	MetadataFile = "metadata.json"

	digitBucket = "0-9"
)

// Unit is one buildable presence, resolved at compile time. The entry and
// manifest probes reflect the directory state at resolution time and are
// never cached.
type Unit struct {
	Name        string
	Dir         string
	HasIframe   bool
	HasManifest bool
}

// Entries returns the entry-point set for the unit: always the primary
// entry, plus the iframe entry when its file existed at resolution time.
func (u Unit) Entries() map[string]string {
	entries := map[string]string{"presence": "./" + PrimaryEntry}
	if u.HasIframe {
		entries["iframe"] = "./" + IframeEntry
	}
	return entries
}

// Store locates presences beneath a root directory.
type Store struct {
	root string
}

// New creates a Store rooted at root.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// Bucket returns the bucket directory name for a presence name. Names are
// NFC-normalized first so visually identical names land in one bucket.
func Bucket(name string) string {
	name = norm.NFC.String(name)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return digitBucket
	}
	if unicode.IsDigit(r) {
		return digitBucket
	}
	return string(unicode.ToUpper(r))
}

// PresencePath returns the directory expected to hold the presence sources.
// Purely derived from the name; no filesystem access.
func (s *Store) PresencePath(name string) string {
	return filepath.Join(s.root, Bucket(name), norm.NFC.String(name))
}

// Resolve builds a Unit for name, probing for the iframe entry and the
// dependency manifest. A missing directory is not an error here; it surfaces
// later as an install or bundle failure.
func (s *Store) Resolve(name string) Unit {
	dir := s.PresencePath(name)
	return Unit{
		Name:        name,
		Dir:         dir,
		HasIframe:   fileExists(filepath.Join(dir, IframeEntry)),
		HasManifest: fileExists(filepath.Join(dir, ManifestFile)),
	}
}

// List enumerates all presence names in the store, sorted. A presence is any
// directory under a bucket directory that contains the primary entry.
func (s *Store) List() ([]string, error) {
	buckets, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read store root %s: %w", s.root, err)
	}

	var names []string
	for _, b := range buckets {
		if !b.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, b.Name()))
		if err != nil {
			return nil, fmt.Errorf("read bucket %s: %w", b.Name(), err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if fileExists(filepath.Join(s.root, b.Name(), e.Name(), PrimaryEntry)) {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
