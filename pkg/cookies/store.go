// Package cookies keeps the cookie files users upload so that fetches can be
// made with their Instagram session.
package cookies

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"igreelbot/pkg/config"
	igerrors "igreelbot/pkg/errors"
	"igreelbot/pkg/logger"
	"igreelbot/pkg/storage"
)

// Status of a user's credential
type Status string

const (
	StatusActive Status = "active"
	StatusAbsent Status = "absent"
)

// Record maps a user to a saved cookie file
type Record struct {
	UserID  int64
	Path    string
	SavedAt time.Time
}

var fileNamePattern = regexp.MustCompile(`^instagram_cookies_(-?\d+)\.txt$`)

// FileName is the cookie file name for a user
func FileName(userID int64) string {
	return fmt.Sprintf("instagram_cookies_%d.txt", userID)
}

// Store maps user ids to cookie files in a single directory. Mappings live in
// memory; LoadExisting rebuilds them from the directory.
type Store struct {
	dir       string
	domain    string
	retention time.Duration
	now       func() time.Time
	log       logger.Logger

	mu      sync.Mutex
	records map[int64]Record
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store's logger
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a store writing into cfg.Dir
func NewStore(cfg config.CookiesConfig, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cookies directory: %w", err)
	}

	s := &Store{
		dir:       cfg.Dir,
		domain:    cfg.Domain,
		retention: cfg.Retention,
		now:       time.Now,
		log:       logger.NewNopLogger(),
		records:   make(map[int64]Record),
	}
	if s.domain == "" {
		s.domain = DefaultDomain
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "cookies")
	return s, nil
}

// Validate checks content against the store's domain
func (s *Store) Validate(content string) bool {
	return ValidateDomain(content, s.domain)
}

// Save writes content as the user's cookie file and maps the user to it,
// replacing any earlier file
func (s *Store) Save(userID int64, content string) (string, error) {
	if !s.Validate(content) {
		return "", igerrors.New(igerrors.ErrorTypeInvalidInput, "not a Netscape cookie file for "+s.domain)
	}

	path := filepath.Join(s.dir, FileName(userID))
	if err := storage.WriteFileAtomic(path, strings.NewReader(content), 0600); err != nil {
		return "", igerrors.Wrap(igerrors.ErrorTypePersistFailed, "save cookies", err)
	}

	savedAt := s.now()
	if err := os.Chtimes(path, savedAt, savedAt); err != nil {
		return "", igerrors.Wrap(igerrors.ErrorTypePersistFailed, "stamp cookies", err)
	}

	s.mu.Lock()
	s.records[userID] = Record{UserID: userID, Path: path, SavedAt: savedAt}
	s.mu.Unlock()

	s.log.WithField("user_id", userID).Info("Cookies saved")
	return path, nil
}

// Status reports whether the user has a usable cookie file
func (s *Store) Status(userID int64) Status {
	if _, ok := s.Path(userID); ok {
		return StatusActive
	}
	return StatusAbsent
}

// Path returns the user's cookie file. A mapping whose file has been deleted
// is dropped.
func (s *Store) Path(userID int64) (string, bool) {
	rec, ok := s.Record(userID)
	return rec.Path, ok
}

// Record returns the user's mapping if its file still exists
func (s *Store) Record(userID int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return Record{}, false
	}
	if _, err := os.Stat(rec.Path); err != nil {
		delete(s.records, userID)
		return Record{}, false
	}
	return rec, true
}

// ExpiresIn returns how long the user's cookie file has left before
// PurgeExpired would remove it
func (s *Store) ExpiresIn(userID int64) (time.Duration, bool) {
	rec, ok := s.Record(userID)
	if !ok {
		return 0, false
	}
	left := rec.SavedAt.Add(s.retention).Sub(s.now())
	if left < 0 {
		left = 0
	}
	return left, true
}

// Len returns the number of mappings
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// LoadExisting maps cookie files already present in the directory to their
// users and returns how many were adopted
func (s *Store) LoadExisting() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cookies directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	adopted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := fileNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		userID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if _, exists := s.records[userID]; exists {
			continue
		}
		s.records[userID] = Record{
			UserID:  userID,
			Path:    filepath.Join(s.dir, entry.Name()),
			SavedAt: info.ModTime(),
		}
		adopted++
	}
	return adopted, nil
}

// PurgeExpired drops mappings whose file is missing or was last written more
// than the retention window ago, deleting the expired files. It returns the
// number of mappings removed.
func (s *Store) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	purged := 0
	for userID, rec := range s.records {
		info, err := os.Stat(rec.Path)
		if err != nil {
			delete(s.records, userID)
			purged++
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
			s.log.WithError(igerrors.Wrap(igerrors.ErrorTypeCleanupFailed, rec.Path, err)).
				Warn("Failed to delete expired cookies")
		}
		delete(s.records, userID)
		purged++
	}

	if purged > 0 {
		s.log.WithField("purged", purged).Info("Expired cookies purged")
	}
	return purged
}
