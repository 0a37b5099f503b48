// Package loader locates unit definitions across an ordered list of search
// roots.
//
// A unit named with structured segments maps to a file whose relative path
// mirrors them: "pkg/git" and "pkg.git" both resolve to "pkg/git.hcl". The
// first root containing a match wins.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/specialistvlad/ensure/internal/ctxlog"
	"github.com/specialistvlad/ensure/internal/fsutil"
	"github.com/specialistvlad/ensure/internal/node"
)

// Extension is the file extension of unit definition files.
const Extension = ".hcl"

// Root is one search location.
type Root struct {
	// Name identifies the root in messages, e.g. the directory as configured.
	Name string
	// Dir is the on-disk directory backing FS. It is empty for roots that are
	// not on disk, such as the embedded self-test units.
	Dir string
	// FS holds the unit files.
	FS fs.FS
}

// DirRoot returns a root backed by a directory on disk.
func DirRoot(dir string) Root {
	return Root{Name: dir, Dir: dir, FS: os.DirFS(dir)}
}

// Source is a located, still unparsed definition.
type Source struct {
	Name      string
	Filename  string
	OriginDir string
	Body      []byte
}

// Loader searches roots in order.
type Loader struct {
	roots []Root
}

// New creates a loader over the given roots.
func New(roots ...Root) *Loader {
	return &Loader{roots: roots}
}

// Roots returns the names of the search roots, in order.
func (l *Loader) Roots() []string {
	names := make([]string, len(l.roots))
	for i, r := range l.roots {
		names[i] = r.Name
	}
	return names
}

// Find returns the first definition matching name. It returns a
// *node.NotFoundError when no root has one.
func (l *Loader) Find(ctx context.Context, name string) (*Source, error) {
	logger := ctxlog.FromContext(ctx)

	rel, err := RelPath(name)
	if err != nil {
		return nil, err
	}

	for _, root := range l.roots {
		if !fsutil.FileExists(root.FS, rel) {
			logger.Debug("Unit not in root.", "unit", name, "root", root.Name)
			continue
		}
		body, err := fs.ReadFile(root.FS, rel)
		if err != nil {
			return nil, fmt.Errorf("failed to read unit %q from %s: %w", name, root.Name, err)
		}

		src := &Source{Name: name, Body: body}
		if root.Dir != "" {
			src.Filename = filepath.Join(root.Dir, filepath.FromSlash(rel))
			src.OriginDir = filepath.Dir(src.Filename)
		} else {
			src.Filename = root.Name + ":" + rel
			src.OriginDir = root.Name + ":" + path.Dir(rel)
		}
		logger.Debug("Unit found.", "unit", name, "file", src.Filename)
		return src, nil
	}

	return nil, &node.NotFoundError{Name: name, Roots: l.Roots()}
}

// List returns every unit name available across the roots, sorted. A name
// present in several roots is listed once.
func (l *Loader) List() ([]string, error) {
	seen := make(map[string]struct{})
	for _, root := range l.roots {
		files, err := fsutil.FindFilesByExtension(root.FS, ".", Extension)
		if err != nil {
			return nil, fmt.Errorf("failed to list units in %s: %w", root.Name, err)
		}
		for _, file := range files {
			seen[strings.TrimSuffix(file, Extension)] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RelPath maps a unit name to its slash-separated path relative to a root.
func RelPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("invalid unit name: empty")
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid unit name %q: must be relative", name)
	}

	segments := strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '.' })
	if len(segments) == 0 || strings.Count(name, "/")+strings.Count(name, ".") != len(segments)-1 {
		return "", fmt.Errorf("invalid unit name %q: empty segment", name)
	}
	for _, seg := range segments {
		if strings.ContainsAny(seg, `\`) {
			return "", fmt.Errorf("invalid unit name %q: segment %q", name, seg)
		}
	}
	return path.Join(segments...) + Extension, nil
}
