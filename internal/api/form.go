package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Form is a multipart/form-data body. The client sends it as built, with the
// writer's own boundary in the content type.
type Form struct {
	parts []formPart
}

type formPart struct {
	field    string
	filename string
	open     func() (io.ReadCloser, error)
}

func NewForm() *Form { return &Form{} }

// AddFile adds a file part whose content is read from r when the request is built.
func (f *Form) AddFile(field, filename string, r io.Reader) *Form {
	f.parts = append(f.parts, formPart{
		field:    field,
		filename: filename,
		open:     func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	})
	return f
}

// AddFilePath adds a file part read from disk. The base name is sent as the filename.
func (f *Form) AddFilePath(field, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	f.parts = append(f.parts, formPart{
		field:    field,
		filename: filepath.Base(path),
		open:     func() (io.ReadCloser, error) { return os.Open(path) },
	})
	return nil
}

// encode renders the form and returns the body with its content type.
func (f *Form) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, p := range f.parts {
		part, err := w.CreateFormFile(p.field, p.filename)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", p.field, err)
		}
		rc, err := p.open()
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", p.filename, err)
		}
		_, err = io.Copy(part, rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", p.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
