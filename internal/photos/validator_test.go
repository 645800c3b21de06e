package photos

import (
	"strings"
	"testing"

	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

func TestValidateFileRejectsUnknownMime(t *testing.T) {
	t.Parallel()

	err := ValidateFile(FileMeta{FileName: "notes.txt", MimeType: "text/plain", SizeBytes: 10})
	if err == nil {
		t.Fatal("expected rejection for text/plain")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, want := range []string{"JPEG", "PNG", "WebP"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("reason %q should name %s", err.Error(), want)
		}
	}
}

func TestValidateFileRejectsOversized(t *testing.T) {
	t.Parallel()

	err := ValidateFile(FileMeta{FileName: "big.jpg", MimeType: "image/jpeg", SizeBytes: 6 * 1024 * 1024})
	if err == nil {
		t.Fatal("expected rejection for 6MiB jpeg")
	}
	if !strings.Contains(err.Error(), "5MB") {
		t.Fatalf("reason %q should state the size limit", err.Error())
	}
}

func TestValidateFileAcceptsAllowedTypes(t *testing.T) {
	t.Parallel()

	cases := []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "IMAGE/PNG", "image/png; charset=binary"}
	for _, mimeType := range cases {
		if err := ValidateFile(FileMeta{FileName: "pic", MimeType: mimeType, SizeBytes: MaxPhotoBytes}); err != nil {
			t.Fatalf("expected %q at the size ceiling to pass, got %v", mimeType, err)
		}
	}
}

func TestMimeExtensionRoundTrip(t *testing.T) {
	t.Parallel()

	ext, err := ExtensionForMimeType("image/webp")
	if err != nil {
		t.Fatalf("extension for webp: %v", err)
	}
	if ext != "webp" {
		t.Fatalf("unexpected extension %q", ext)
	}
	if got := MimeTypeForExtension(".webp"); got != "image/webp" {
		t.Fatalf("unexpected mime %q", got)
	}
	if _, err := ExtensionForMimeType("application/pdf"); err == nil {
		t.Fatal("expected error for pdf")
	}
}
