// Package uploads stores files sent by the client: PDFs land in the books
// folder, images in the covers folder. The organizer files a PDF under its
// category and author once a book references it.
package uploads

import (
	"context"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/fileutils"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const tmpDirName = ".uploads"

type Result struct {
	URL        string `json:"url"`
	MimeType   string `json:"mimeType"`
	Size       int64  `json:"size"`
	TotalPages *int   `json:"totalPages,omitempty"`
}

type Service struct {
	roots sandbox.Roots
}

func NewService(roots sandbox.Roots) *Service {
	return &Service{roots: roots}
}

// Save stores an uploaded file under a unique, sanitized name and returns the
// virtual URL it can be fetched from. The type is decided by the content, not
// by the client's filename or header.
func (svc *Service) Save(ctx context.Context, fh *multipart.FileHeader) (*Result, error) {
	log := logger.FromContext(ctx)

	tmp, size, err := svc.spool(fh)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	mtype, err := mimetype.DetectFile(tmp)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var dir, prefix string
	switch {
	case mtype.Is("application/pdf"):
		dir, prefix = svc.roots.BooksDir, sandbox.BooksPrefix
	case strings.HasPrefix(mtype.String(), "image/"):
		dir, prefix = svc.roots.CoversDir, sandbox.CoversPrefix
	default:
		log.Warn("rejected upload", logger.Data{"mime_type": mtype.String(), "filename": fh.Filename})
		return nil, errcodes.UnsupportedMediaType()
	}

	base := filepath.Base(filepath.ToSlash(fh.Filename))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := fileutils.SanitizeName(base, uuid.NewString()) + mtype.Extension()

	target := fileutils.UniqueFilepath(filepath.Join(dir, name))
	if err := fileutils.MoveFile(tmp, target); err != nil {
		return nil, errors.WithStack(err)
	}

	result := &Result{
		URL:      prefix + "/" + url.PathEscape(filepath.Base(target)),
		MimeType: mtype.String(),
		Size:     size,
	}

	if prefix == sandbox.BooksPrefix {
		pages, err := api.PageCountFile(target)
		if err != nil {
			log.Warn("could not count pdf pages", logger.Data{"path": target, "error": err.Error()})
		} else {
			result.TotalPages = &pages
		}
	}

	log.Info("stored upload", logger.Data{"url": result.URL, "size": size, "mime_type": result.MimeType})
	return result, nil
}

// spool copies the upload to a uuid-named file next to the data root so the
// final move stays on one filesystem where possible.
func (svc *Service) spool(fh *multipart.FileHeader) (string, int64, error) {
	src, err := fh.Open()
	if err != nil {
		return "", 0, errors.WithStack(err)
	}
	defer src.Close()

	dir := filepath.Join(svc.roots.DataRoot, tmpDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, errors.WithStack(err)
	}

	path := filepath.Join(dir, uuid.NewString())
	dst, err := os.Create(path)
	if err != nil {
		return "", 0, errors.WithStack(err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, errors.WithStack(err)
	}
	return path, n, nil
}
