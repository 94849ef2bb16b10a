package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// LoadProfile reads a scoring profile from a YAML file. An empty path yields
// the built-in default profile. Omitted sections fall back to defaults; a
// weights table, when given, replaces the default table entirely.
//
//	name: essays
//	weighting:
//	  missing_signal_policy: fail
//	  weights: {perplexity: 0.4, ai_probability: 0.4, burstiness: 0.2}
//	diagnostics:
//	  natural: 0.65
func LoadProfile(path string) (domain.ScoringProfile, error) {
	if strings.TrimSpace(path) == "" {
		return domain.DefaultScoringProfile(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.ScoringProfile{}, fmt.Errorf("read scoring profile: %w", err)
	}
	return ParseProfile(raw, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// ParseProfile decodes YAML profile bytes. fallbackName names the profile
// when the document does not.
func ParseProfile(raw []byte, fallbackName string) (domain.ScoringProfile, error) {
	var profile domain.ScoringProfile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return domain.ScoringProfile{}, domain.WrapError(domain.ErrInvalidInput, "parse scoring profile", err)
	}

	def := domain.DefaultScoringProfile()
	if profile.Name == "" {
		profile.Name = fallbackName
	}
	if profile.Name == "" {
		profile.Name = def.Name
	}
	if len(profile.Weighting.Weights) == 0 {
		profile.Weighting.Weights = def.Weighting.Weights
	}
	if profile.Weighting.MissingSignalPolicy == "" {
		profile.Weighting.MissingSignalPolicy = def.Weighting.MissingSignalPolicy
	}
	if profile.Diagnostics.Natural == 0 {
		profile.Diagnostics = def.Diagnostics
	}
	if err := profile.Validate(); err != nil {
		return domain.ScoringProfile{}, err
	}
	return profile, nil
}

// ProfileStore holds the active scoring profile. Readers get an immutable
// snapshot; a reload swaps the whole profile atomically.
type ProfileStore struct {
	path    string
	current atomic.Pointer[domain.ScoringProfile]
}

func NewProfileStore(path string) (*ProfileStore, error) {
	profile, err := LoadProfile(path)
	if err != nil {
		return nil, err
	}
	s := &ProfileStore{path: path}
	s.store(profile)
	return s, nil
}

// NewStaticProfileStore serves a fixed profile and never reloads.
func NewStaticProfileStore(profile domain.ScoringProfile) *ProfileStore {
	s := &ProfileStore{}
	s.store(profile)
	return s
}

func (s *ProfileStore) store(profile domain.ScoringProfile) {
	profile.Weighting = profile.Weighting.Clone()
	s.current.Store(&profile)
}

func (s *ProfileStore) Current() domain.ScoringProfile {
	p := s.current.Load()
	out := *p
	out.Weighting = p.Weighting.Clone()
	return out
}

// Reload re-reads the profile file. An invalid file leaves the active
// profile in place.
func (s *ProfileStore) Reload() error {
	if s.path == "" {
		return nil
	}
	profile, err := LoadProfile(s.path)
	if err != nil {
		return err
	}
	s.store(profile)
	slog.Info("scoring_profile_reloaded", "path", s.path, "profile", profile.Name)
	return nil
}

// Watch reloads the profile whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file on save
// are picked up too.
func (s *ProfileStore) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create profile watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch profile directory: %w", err)
	}

	// Editors often emit several events per save.
	const settle = 100 * time.Millisecond
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(settle)
			}
		case <-pending:
			pending = nil
			if err := s.Reload(); err != nil {
				slog.Warn("scoring_profile_reload_failed", "path", s.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				slog.Warn("scoring_profile_watch_error", "error", err)
			}
		}
	}
}
