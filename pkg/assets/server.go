// Package assets serves book, cover and attachment files. Every entry point
// goes through the same resolve and guard step before the filesystem is
// touched.
package assets

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const mimePDF = "application/pdf"

type Server struct {
	// guard admits the whole allowed root set, DataRoot included.
	guard *sandbox.Guard
	// assetGuard admits only the book, cover and attachment folders.
	assetGuard *sandbox.Guard
}

func NewServer(roots sandbox.Roots) *Server {
	return &Server{
		guard:      sandbox.NewGuard(roots),
		assetGuard: sandbox.NewAssetGuard(roots),
	}
}

// file is a resolved, guarded, existing regular file.
type file struct {
	path string
	info os.FileInfo
}

// open resolves requested, rejects anything outside the guard's roots and
// makes sure a regular file exists there. Error messages never carry the
// path.
func (s *Server) open(ctx context.Context, guard *sandbox.Guard, requested string) (*file, error) {
	log := logger.FromContext(ctx)

	abs, err := guard.Resolve(requested)
	if err != nil {
		log.Warn("blocked file access outside allowed roots", logger.Data{"requested": requested})
		return nil, errcodes.AccessDenied()
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		log.Warn("file not found", logger.Data{"requested": requested, "path": abs})
		return nil, errcodes.NotFound("File")
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if info.IsDir() {
		return nil, errcodes.NotFound("File")
	}

	return &file{path: abs, info: info}, nil
}

// contentType is application/pdf for PDFs and sniffed from the content for
// everything else.
func (f *file) contentType() string {
	if strings.EqualFold(filepath.Ext(f.path), ".pdf") {
		return mimePDF
	}
	mtype, err := mimetype.DetectFile(f.path)
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}
