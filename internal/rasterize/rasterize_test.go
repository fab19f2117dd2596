package rasterize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFakePDF(t *testing.T, mediaBoxes ...string) string {
	t.Helper()
	var content string
	for _, box := range mediaBoxes {
		content += "<< /Type /Page /MediaBox [" + box + "] >>\n"
	}
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fake PDF: %v", err)
	}
	return path
}

func TestRasterizePageUsesMediaBoxDimensions(t *testing.T) {
	path := writeFakePDF(t, "0 0 612 792", "0 0 300 300")

	r := NewMinimalRasterizer()
	img, err := r.RasterizePage(context.Background(), path, 1, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bounds := img.Bounds()
	wantW := 300 * 150 / 72
	wantH := 300 * 150 / 72
	if bounds.Dx() != wantW || bounds.Dy() != wantH {
		t.Fatalf("expected %dx%d, got %dx%d", wantW, wantH, bounds.Dx(), bounds.Dy())
	}
}

func TestRasterizePageFallsBackToDefaultBoxWhenMissing(t *testing.T) {
	path := writeFakePDF(t)

	r := NewMinimalRasterizer()
	img, err := r.RasterizePage(context.Background(), path, 0, 72)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 612 || bounds.Dy() != 792 {
		t.Fatalf("expected default US Letter at 72dpi (612x792), got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRasterizePageRejectsNonPositiveDPI(t *testing.T) {
	path := writeFakePDF(t, "0 0 612 792")

	r := NewMinimalRasterizer()
	if _, err := r.RasterizePage(context.Background(), path, 0, 0); err == nil {
		t.Fatal("expected error for non-positive DPI")
	}
}

func TestRasterizePageOutOfRangePageUsesLastKnownBox(t *testing.T) {
	path := writeFakePDF(t, "0 0 612 792")

	r := NewMinimalRasterizer()
	img, err := r.RasterizePage(context.Background(), path, 5, 72)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 612 || bounds.Dy() != 792 {
		t.Fatalf("expected fallback to last known box, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestPageCountMatchesMediaBoxOccurrences(t *testing.T) {
	path := writeFakePDF(t, "0 0 612 792", "0 0 300 300", "0 0 100 100")

	r := NewMinimalRasterizer()
	n, err := r.PageCount(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 pages, got %d", n)
	}
}

func TestPageCountDefaultsToOneWhenNoMediaBoxFound(t *testing.T) {
	path := writeFakePDF(t)

	r := NewMinimalRasterizer()
	n, err := r.PageCount(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected a default of 1 page, got %d", n)
	}
}

func TestPageCountErrorsOnMissingFile(t *testing.T) {
	r := NewMinimalRasterizer()
	if _, err := r.PageCount(context.Background(), "/nonexistent/path.pdf"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
