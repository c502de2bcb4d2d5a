// Package sandbox maps virtual request paths onto the filesystem and decides
// whether a resolved path may be touched at all.
package sandbox

import (
	"path/filepath"

	"github.com/maktabaapp/maktaba/pkg/config"
)

// Roots is the set of directories the application is allowed to read from
// and write to. It is computed once at startup.
type Roots struct {
	DataRoot          string
	BooksDir          string
	CoversDir         string
	AttachedAssetsDir string
}

func RootsFromConfig(cfg *config.Config) Roots {
	return Roots{
		DataRoot:          filepath.Clean(cfg.DataRoot),
		BooksDir:          filepath.Clean(cfg.BooksDir),
		CoversDir:         filepath.Clean(cfg.CoversDir),
		AttachedAssetsDir: filepath.Clean(cfg.AttachedAssetsDir),
	}
}

// List returns the allowed root set.
func (r Roots) List() []string {
	return []string{r.BooksDir, r.CoversDir, r.AttachedAssetsDir, r.DataRoot}
}

// Assets returns the roots that hold user files, leaving out DataRoot.
func (r Roots) Assets() []string {
	return []string{r.BooksDir, r.CoversDir, r.AttachedAssetsDir}
}
