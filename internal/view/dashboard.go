package view

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/docbox-cli/internal/api"
)

// Dashboard lists the user's documents, uploads new ones and shows one OCR
// result at a time in an overlay.
type Dashboard struct {
	deps Deps

	// Documents is the last successfully fetched list. Each fetch replaces it.
	Documents []api.Document
	// Selected is the result shown in the overlay, nil when closed.
	Selected *api.Result
	Image    *ZoomableImage

	file string
}

func NewDashboard(d Deps) (*Dashboard, error) {
	if err := d.require(true, true, false); err != nil {
		return nil, err
	}
	return &Dashboard{deps: d}, nil
}

func (v *Dashboard) token() string { return v.deps.Session.Token() }

// Refresh replaces the document list. Failures are logged and the previous
// list is kept.
func (v *Dashboard) Refresh(ctx context.Context) {
	docs, err := v.deps.Backend.ListDocuments(ctx, v.token())
	if err != nil {
		v.deps.logger().Warn("document list refresh failed", "error", err)
		return
	}
	v.Documents = docs
}

// SelectFile sets the pending upload. An empty path clears it.
func (v *Dashboard) SelectFile(path string) { v.file = path }

func (v *Dashboard) PendingFile() string { return v.file }

// Upload sends the pending file and then refetches the whole list. Without a
// pending file it does nothing and returns nil, nil.
func (v *Dashboard) Upload(ctx context.Context) (*api.Document, error) {
	if v.file == "" {
		return nil, nil
	}
	doc, err := v.deps.Backend.UploadDocument(ctx, v.token(), v.file)
	if err != nil {
		return nil, err
	}
	v.Refresh(ctx)
	return doc, nil
}

// View fetches the OCR result for id and opens the overlay. Results are not
// cached; every call hits the backend.
func (v *Dashboard) View(ctx context.Context, id int) error {
	res, err := v.deps.Backend.DocumentResult(ctx, v.token(), id)
	if err != nil {
		return err
	}
	v.Selected = res
	v.Image = NewZoomableImage(v.deps.Backend.URL(api.AssetPath(res.Filename)), res.Filename)
	return nil
}

// Close dismisses the overlay.
func (v *Dashboard) Close() {
	v.Selected = nil
	v.Image = nil
}

func (v *Dashboard) Status(ctx context.Context, id int) (*api.DocumentStatus, error) {
	return v.deps.Backend.DocumentStatus(ctx, v.token(), id)
}

// Logout ends the session. The route guard redirects on the next render.
func (v *Dashboard) Logout() error {
	return v.deps.Session.Logout()
}

func (v *Dashboard) Render(w io.Writer) {
	fmt.Fprintln(w, "== My Documents ==")
	if v.file != "" {
		fmt.Fprintf(w, "pending upload: %s\n", filepath.Base(v.file))
	}
	if len(v.Documents) == 0 {
		fmt.Fprintln(w, "(no documents)")
	}
	for _, d := range v.Documents {
		fmt.Fprintf(w, "- [%d] %s  status: %s\n", d.ID, d.Filename, d.OCRStatus)
	}
	if v.Selected != nil {
		v.RenderOverlay(w)
	}
}

// RenderOverlay prints the open result. It prints nothing when closed.
func (v *Dashboard) RenderOverlay(w io.Writer) {
	if v.Selected == nil {
		return
	}
	fmt.Fprintf(w, "\n--- %s ---\n", v.Selected.Filename)
	if v.Image != nil {
		v.Image.Render(w)
	}
	fmt.Fprintln(w, v.Selected.Text)
	fmt.Fprintln(w, "---")
}
