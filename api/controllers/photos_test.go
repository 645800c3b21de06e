package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/sibusisodev/campusmart-backend/internal/photos"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

type stubBatchUploader struct {
	result *photos.BatchResult
	err    error
	last   photos.BatchInput
}

func (s *stubBatchUploader) UploadBatch(ctx context.Context, input photos.BatchInput, callbacks photos.BatchCallbacks) (*photos.BatchResult, error) {
	s.last = input
	return s.result, s.err
}

func uploadBody(t *testing.T, overrides map[string]any) []byte {
	t.Helper()
	payload := map[string]any{
		"imageData": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("fake-jpeg-bytes")),
		"fileName":  "textbook.jpg",
		"type":      "item",
		"itemId":    uuid.NewString(),
	}
	for key, value := range overrides {
		if value == nil {
			delete(payload, key)
			continue
		}
		payload[key] = value
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func doUpload(uploader batchUploader, method string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/photos/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	PhotoUpload(uploader, nil).ServeHTTP(rec, req)
	return rec
}

func decodeUploadResponse(t *testing.T, rec *httptest.ResponseRecorder) photoUploadResponse {
	t.Helper()
	var resp photoUploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestPhotoUploadSuccess(t *testing.T) {
	recordID := uuid.New()
	uploader := &stubBatchUploader{result: &photos.BatchResult{
		Tasks:         []photos.TaskState{{Phase: photos.TaskSucceeded, Progress: 100, URL: "https://storage.test/items/x.jpg", RecordID: recordID}},
		SucceededURLs: []string{"https://storage.test/items/x.jpg"},
	}}

	rec := doUpload(uploader, http.MethodPost, uploadBody(t, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeUploadResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success true")
	}
	if resp.URL != "https://storage.test/items/x.jpg" {
		t.Fatalf("unexpected url %s", resp.URL)
	}
	if resp.PhotoID != recordID.String() {
		t.Fatalf("expected photoId %s got %s", recordID, resp.PhotoID)
	}
	if uploader.last.Kind != enums.PhotoKindItem {
		t.Fatalf("expected item kind got %s", uploader.last.Kind)
	}
	if len(uploader.last.Files) != 1 || uploader.last.Files[0].MimeType != "image/jpeg" {
		t.Fatalf("unexpected files forwarded: %+v", uploader.last.Files)
	}
	if string(uploader.last.Files[0].Data) != "fake-jpeg-bytes" {
		t.Fatalf("payload not decoded from base64")
	}
}

func TestPhotoUploadMethodNotAllowed(t *testing.T) {
	rec := doUpload(&stubBatchUploader{}, http.MethodGet, nil)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
	resp := decodeUploadResponse(t, rec)
	if resp.Success || resp.Error != "Method not allowed" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestPhotoUploadValidationOrder(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]any
		wantError string
	}{
		{"missing imageData", map[string]any{"imageData": nil}, "imageData is required"},
		{"missing fileName", map[string]any{"fileName": nil}, "fileName is required"},
		{"missing type", map[string]any{"type": nil}, "type is required"},
		{"unknown type", map[string]any{"type": "banner"}, "type must be item or profile"},
		{"item without itemId", map[string]any{"itemId": nil}, "itemId is required for item photos"},
		{"profile without userId", map[string]any{"type": "profile", "itemId": nil}, "userId is required for profile photos"},
		{"data url without comma", map[string]any{"imageData": "nonsense"}, "imageData must be a base64 data URL"},
		{"data url with bad base64", map[string]any{"imageData": "data:image/jpeg;base64,!!!"}, "imageData must be a base64 data URL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doUpload(&stubBatchUploader{}, http.MethodPost, uploadBody(t, tc.overrides))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
			resp := decodeUploadResponse(t, rec)
			if resp.Error != tc.wantError {
				t.Fatalf("expected error %q got %q", tc.wantError, resp.Error)
			}
		})
	}
}

func TestPhotoUploadRejectedFileReturnsReason(t *testing.T) {
	uploader := &stubBatchUploader{result: &photos.BatchResult{
		Tasks: []photos.TaskState{{Phase: photos.TaskRejected, Reason: "file type must be one of image/jpeg, image/png, image/webp"}},
	}}

	rec := doUpload(uploader, http.MethodPost, uploadBody(t, map[string]any{"imageData": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	resp := decodeUploadResponse(t, rec)
	if resp.Error != "file type must be one of image/jpeg, image/png, image/webp" {
		t.Fatalf("unexpected reason %q", resp.Error)
	}
}

func TestPhotoUploadBatchCeilingReturns400(t *testing.T) {
	uploader := &stubBatchUploader{err: pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("maximum %d photos per item", 5))}

	rec := doUpload(uploader, http.MethodPost, uploadBody(t, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	resp := decodeUploadResponse(t, rec)
	if resp.Error != "maximum 5 photos per item" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
}

func TestPhotoUploadDownstreamFailureReturns500(t *testing.T) {
	uploader := &stubBatchUploader{result: &photos.BatchResult{
		Tasks: []photos.TaskState{{Phase: photos.TaskFailed, Reason: "upload items/x.jpg: storage unreachable"}},
	}}

	rec := doUpload(uploader, http.MethodPost, uploadBody(t, nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	resp := decodeUploadResponse(t, rec)
	if resp.Success {
		t.Fatalf("expected success false")
	}
	if resp.Error != "upload items/x.jpg: storage unreachable" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
}

func TestPhotoUploadBatchDependencyFailureReturns500(t *testing.T) {
	uploader := &stubBatchUploader{err: pkgerrors.New(pkgerrors.CodeDependency, "counting existing photos")}

	rec := doUpload(uploader, http.MethodPost, uploadBody(t, nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	resp := decodeUploadResponse(t, rec)
	if resp.Success {
		t.Fatalf("expected success false")
	}
	if resp.Error != "counting existing photos" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
}
