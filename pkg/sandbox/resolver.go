package sandbox

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	BooksPrefix          = "/books"
	CoversPrefix         = "/covers"
	AttachedAssetsPrefix = "/attached_assets"
)

var (
	unsafeChars   = regexp.MustCompile(`[<>:"|?*]`)
	driveArtifact = regexp.MustCompile(`^/[A-Za-z]:`)
)

type Resolver struct {
	roots Roots
}

func NewResolver(roots Roots) *Resolver {
	return &Resolver{roots: roots}
}

// SanitizePath removes traversal sequences and characters that have no place
// in a virtual path, and makes sure the result starts with a slash.
func SanitizePath(p string) string {
	p = strings.ReplaceAll(p, "..", "")
	p = unsafeChars.ReplaceAllString(p, "")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Resolve maps a requested path (possibly percent-encoded) to an absolute
// filesystem path. It never fails; whether the result may be accessed is up
// to the Guard.
func (r *Resolver) Resolve(requested string) string {
	decoded, err := url.PathUnescape(requested)
	if err != nil {
		decoded = requested
	}

	clean := SanitizePath(filepath.ToSlash(decoded))

	if rest, ok := cutPrefix(clean, AttachedAssetsPrefix); ok {
		return join(r.roots.AttachedAssetsDir, rest)
	}
	if rest, ok := cutPrefix(clean, BooksPrefix); ok {
		return join(r.roots.BooksDir, rest)
	}
	if rest, ok := cutPrefix(clean, CoversPrefix); ok {
		return join(r.roots.CoversDir, rest)
	}

	// Anything else is relative to the data root. The colon is still needed
	// here to recognise a drive letter, so only traversal is stripped.
	fallback := strings.ReplaceAll(filepath.ToSlash(decoded), "..", "")
	if driveArtifact.MatchString(fallback) {
		fallback = fallback[1:]
	}
	fallback = filepath.FromSlash(fallback)
	if filepath.IsAbs(fallback) {
		return filepath.Clean(fallback)
	}
	return join(r.roots.DataRoot, fallback)
}

// cutPrefix matches prefix as a whole path segment, so "/booksfoo" is not a
// books path.
func cutPrefix(p, prefix string) (string, bool) {
	if p == prefix {
		return "", true
	}
	if strings.HasPrefix(p, prefix+"/") {
		return p[len(prefix)+1:], true
	}
	return "", false
}

func join(root, rest string) string {
	return filepath.Join(root, filepath.FromSlash(rest))
}
