package dso

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/rdl2/rdl"
)

// EnvDsoPath names the environment variable holding the default dso path.
const EnvDsoPath = "RDL2_DSO_PATH"

// Source reads class files from the directories of a dso path. It
// implements rdl.ClassSource.
type Source struct {
	logger      *slog.Logger
	concurrency int
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithLogger sets the logger; nil means slog.Default().
func WithLogger(l *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = l }
}

// WithConcurrency bounds how many files are decoded at once.
func WithConcurrency(n int) SourceOption {
	return func(s *Source) { s.concurrency = n }
}

// NewSource creates a source.
func NewSource(opts ...SourceOption) *Source {
	s := &Source{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

var _ rdl.ClassSource = (*Source)(nil)

// SplitPath returns the non-empty directories of a dso path.
func SplitPath(dsoPath string) []string {
	var dirs []string
	for _, d := range filepath.SplitList(dsoPath) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Files lists the class files of a dso path, directory by directory in
// path order and sorted by name within a directory.
func Files(dsoPath string) ([]string, error) {
	dirs := SplitPath(dsoPath)
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: empty dso path", rdl.ErrSchema)
	}
	var files []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: dso path: %v", rdl.ErrSchema, err)
		}
		for _, e := range entries {
			if !e.IsDir() && isClassFile(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	return files, nil
}

func isClassFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return (ext == ".yaml" || ext == ".yml") && !strings.HasPrefix(name, ".")
}

// LoadClasses decodes every class file of dsoPath concurrently and
// returns the classes in file order. A class name defined twice is a
// schema error naming both files.
func (s *Source) LoadClasses(ctx context.Context, dsoPath string) ([]*rdl.SceneClass, error) {
	files, err := Files(dsoPath)
	if err != nil {
		return nil, err
	}

	perFile := make([][]*rdl.SceneClass, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: %v", rdl.ErrSchema, err)
			}
			classes, err := ParseFile(data, path)
			if err != nil {
				return err
			}
			perFile[i] = classes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]string)
	var out []*rdl.SceneClass
	for _, classes := range perFile {
		for _, c := range classes {
			if prev, dup := seen[c.Name()]; dup {
				return nil, fmt.Errorf("%w: class %s defined in %s and %s",
					rdl.ErrSchema, c.Name(), prev, c.SourcePath())
			}
			seen[c.Name()] = c.SourcePath()
			out = append(out, c)
		}
	}
	s.logger.Debug("dso: loaded class files",
		slog.Int("files", len(files)),
		slog.Int("classes", len(out)))
	return out, nil
}

// Registry loads dsoPath into a fresh registry.
func (s *Source) Registry(ctx context.Context, dsoPath string) (*rdl.Registry, error) {
	classes, err := s.LoadClasses(ctx, dsoPath)
	if err != nil {
		return nil, err
	}
	reg := rdl.NewRegistry()
	for _, c := range classes {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// ClassNames returns the sorted names of classes.
func ClassNames(classes []*rdl.SceneClass) []string {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name()
	}
	slices.Sort(names)
	return names
}
