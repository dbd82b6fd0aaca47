package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
)

// SeedPattern selects layout files below the seed directory
const SeedPattern = "**/*.{json,yaml,yml,toml}"

// ErrUnsupportedFormat is returned for layout files with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported layout format")

// SeedResult counts the outcome of a seeding run
type SeedResult struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Seeder loads prebuilt layouts from disk
type Seeder struct {
	manager *Manager
	dir     string
	logger  *zap.Logger
}

// NewSeeder creates a seeder reading layouts below dir
func NewSeeder(manager *Manager, dir string, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{manager: manager, dir: dir, logger: logger}
}

// Seed saves every layout file whose ID is not stored yet. A file that fails
// to decode or validate is counted and logged; the rest still load.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var result SeedResult
	start := time.Now()

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Warn("Seed directory not found", zap.String("dir", s.dir))
		return result, nil
	}

	paths, err := s.discover(ctx)
	if err != nil {
		return result, fmt.Errorf("scan seed directory: %w", err)
	}
	s.logger.Info("Seeding layouts", zap.String("dir", s.dir), zap.Int("files", len(paths)))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		loaded, err := s.seedFile(ctx, path)
		switch {
		case err != nil:
			result.Failed++
			s.logger.Warn("Failed to seed layout", zap.String("file", path), zap.Error(err))
		case loaded:
			result.Loaded++
			s.logger.Debug("Seeded layout", zap.String("file", path))
		default:
			result.Skipped++
		}
	}

	s.logger.Info("Seeding complete",
		zap.Int("loaded", result.Loaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		logging.Elapsed(start))
	return result, nil
}

// discover walks the seed directory and returns matching files sorted by path
func (s *Seeder) discover(ctx context.Context) ([]string, error) {
	var (
		mu    sync.Mutex
		paths []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, s.dir, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(SeedPattern, filepath.ToSlash(rel)); !ok {
			return nil
		}

		mu.Lock()
		paths = append(paths, p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

func (s *Seeder) seedFile(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	layout, err := DecodeLayout(path, data)
	if err != nil {
		return false, err
	}
	if layout.ID == "" {
		layout.ID = stem(path)
	}

	exists, err := s.manager.Exists(ctx, layout.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := s.manager.Save(ctx, layout); err != nil {
		return false, err
	}
	return true, nil
}

// DecodeLayout decodes a JSON, YAML or TOML layout, chosen by the file
// extension of name. YAML and TOML documents are re-encoded as JSON first so
// property values have the same shapes as layouts stored through the API.
func DecodeLayout(name string, data []byte) (*Layout, error) {
	if err := utils.ValidateSize(data, utils.MaxLayoutSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		var l Layout
		if err := sonic.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return &l, nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}

	canonical, err := sonic.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize layout: %w", err)
	}
	var l Layout
	if err := sonic.Unmarshal(canonical, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &l, nil
}

// stem derives a layout ID from a file name: home.yaml -> home
func stem(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)
}
