package sandbox

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var ErrAccessDenied = errors.New("access denied")

// IsSafe reports whether absPath equals one of roots or lies beneath one of
// them. The comparison is case-insensitive and requires a separator after the
// root, so "/data/books-evil" is not inside "/data/books".
func IsSafe(absPath string, roots []string) bool {
	candidate := normalize(absPath)
	for _, root := range roots {
		if root == "" {
			continue
		}
		r := normalize(root)
		if candidate == r {
			return true
		}
		if !strings.HasSuffix(r, string(filepath.Separator)) {
			r += string(filepath.Separator)
		}
		if strings.HasPrefix(candidate, r) {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	return strings.ToLower(filepath.Clean(p))
}

// Guard is the single entry point used before any filesystem access driven by
// a request.
type Guard struct {
	resolver *Resolver
	allowed  []string
}

func NewGuard(roots Roots) *Guard {
	return &Guard{
		resolver: NewResolver(roots),
		allowed:  roots.List(),
	}
}

// NewAssetGuard is a Guard for reads that only ever target book, cover and
// attachment files. Paths directly under DataRoot are denied.
func NewAssetGuard(roots Roots) *Guard {
	return &Guard{
		resolver: NewResolver(roots),
		allowed:  roots.Assets(),
	}
}

// Resolve maps requested to an absolute path and returns ErrAccessDenied if
// the result falls outside the allowed roots.
func (g *Guard) Resolve(requested string) (string, error) {
	abs := g.resolver.Resolve(requested)
	if !g.Allowed(abs) {
		return "", errors.WithStack(ErrAccessDenied)
	}
	return abs, nil
}

// Allowed reports whether an already absolute path is inside the allowed roots.
func (g *Guard) Allowed(abs string) bool {
	return IsSafe(abs, g.allowed)
}

func (g *Guard) Resolver() *Resolver {
	return g.resolver
}
