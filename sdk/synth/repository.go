package synth

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/leandrodaf/synthctl/sdk/midi"
)

const profileExt = ".json"

// DefaultDir returns the per-user profile directory, e.g.
// ~/.config/synthctl/configs on Linux.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, midi.DefaultClientName, "configs"), nil
}

// Repository keeps the profiles found in one directory, one JSON document
// per profile, named after the file without its extension. It assumes a
// single writer.
type Repository struct {
	logger   contracts.Logger
	dir      string
	profiles map[string]*Profile
	loadErrs []error
}

// NewRepository creates a repository over dir. Nothing is read until LoadAll.
func NewRepository(dir string, opts ...contracts.Option) (*Repository, error) {
	options, err := midi.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	log := options.Logger.Named("repository")
	return &Repository{
		logger:   log.With(log.Field().String("dir", dir)),
		dir:      dir,
		profiles: make(map[string]*Profile),
	}, nil
}

// Dir returns the directory the repository reads and writes.
func (r *Repository) Dir() string {
	return r.dir
}

// LoadAll replaces the repository contents with every profile in the
// directory, creating the directory if needed. Documents that fail to parse
// are logged, kept in LoadErrors and skipped. The error is non-nil only when
// the directory itself cannot be read.
func (r *Repository) LoadAll() (map[string]*Profile, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile directory: %w", err)
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read profile directory: %w", err)
	}

	profiles := make(map[string]*Profile)
	var loadErrs []error
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != profileExt {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), profileExt)

		p, err := loadProfile(path)
		if err != nil {
			loadErrs = append(loadErrs, err)
			r.logger.Error("Error loading profile",
				r.logger.Field().String("file", entry.Name()),
				r.logger.Field().Error("error", err))
			continue
		}
		profiles[name] = p
		r.logger.Debug("Profile loaded", r.logger.Field().String("name", name))
	}

	r.profiles = profiles
	r.loadErrs = loadErrs
	r.logger.Info("Profiles loaded",
		r.logger.Field().Int("loaded", len(profiles)),
		r.logger.Field().Int("failed", len(loadErrs)))
	return maps.Clone(profiles), nil
}

func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return p, nil
}

// LoadErrors returns the *ParseError values from the last LoadAll.
func (r *Repository) LoadErrors() []error {
	return slices.Clone(r.loadErrs)
}

// Get returns a loaded or saved profile.
func (r *Repository) Get(name string) (*Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

// List returns the profile names in sorted order.
func (r *Repository) List() []string {
	return slices.Sorted(maps.Keys(r.profiles))
}

// Save writes p as name.json and, once the file is in place, stores it under
// name. The file is replaced atomically.
func (r *Repository) Save(name string, p *Profile) error {
	path := filepath.Join(r.dir, name+profileExt)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return &PersistenceError{Name: name, Path: path, Err: ErrInvalidName}
	}
	if err := r.write(path, p); err != nil {
		r.logger.Error("Error saving profile",
			r.logger.Field().String("name", name),
			r.logger.Field().Error("error", err))
		return &PersistenceError{Name: name, Path: path, Err: err}
	}
	r.profiles[name] = p
	r.logger.Info("Profile saved", r.logger.Field().String("name", name))
	return nil
}

func (r *Repository) write(path string, p *Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(r.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
