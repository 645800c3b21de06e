package controllers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sibusisodev/campusmart-backend/api/middleware"
	"github.com/sibusisodev/campusmart-backend/api/responses"
	"github.com/sibusisodev/campusmart-backend/api/validators"
	"github.com/sibusisodev/campusmart-backend/internal/photos"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

type batchUploader interface {
	UploadBatch(ctx context.Context, input photos.BatchInput, callbacks photos.BatchCallbacks) (*photos.BatchResult, error)
}

type photoUploadRequest struct {
	ImageData string `json:"imageData"`
	FileName  string `json:"fileName"`
	Type      string `json:"type"`
	ItemID    string `json:"itemId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

type photoUploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	PhotoID string `json:"photoId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PhotoUpload accepts one data-URL encoded image and runs it through the
// upload pipeline. The response envelope is the one the web client already
// speaks, which predates the standard success envelope.
func PhotoUpload(uploader batchUploader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeUploadJSON(w, http.StatusMethodNotAllowed, photoUploadResponse{Error: "Method not allowed"})
			return
		}
		if uploader == nil {
			writeUploadJSON(w, http.StatusInternalServerError, photoUploadResponse{Error: "uploader unavailable"})
			return
		}

		var body photoUploadRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "invalid request body"})
			return
		}

		if body.ImageData == "" {
			writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "imageData is required"})
			return
		}
		if body.FileName == "" {
			writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "fileName is required"})
			return
		}
		if body.Type == "" {
			writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "type is required"})
			return
		}

		kind := enums.PhotoKind(body.Type)
		if !kind.IsValid() {
			writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "type must be item or profile"})
			return
		}

		input := photos.BatchInput{Kind: kind}
		switch kind {
		case enums.PhotoKindItem:
			if body.ItemID == "" {
				writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "itemId is required for item photos"})
				return
			}
			itemID, err := uuid.Parse(body.ItemID)
			if err != nil {
				writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "itemId must be a valid id"})
				return
			}
			input.ItemID = itemID
		case enums.PhotoKindProfile:
			if body.UserID == "" {
				writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "userId is required for profile photos"})
				return
			}
			userID, err := uuid.Parse(body.UserID)
			if err != nil {
				writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: "userId must be a valid id"})
				return
			}
			input.UserID = userID
		}

		mimeType, data, err := decodeDataURL(body.ImageData)
		if err != nil {
			writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: err.Error()})
			return
		}
		input.Files = []photos.UploadFile{{
			FileName: body.FileName,
			MimeType: mimeType,
			Data:     data,
		}}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		result, err := uploader.UploadBatch(ctx, input, photos.BatchCallbacks{})
		if err != nil {
			status := http.StatusInternalServerError
			message := err.Error()
			if typed := pkgerrors.As(err); typed != nil {
				message = typed.Message()
				// The legacy envelope only knows 400 and 500; anything
				// that is not the client's fault surfaces as 500.
				if s := pkgerrors.MetadataFor(typed.Code()).HTTPStatus; s >= 400 && s < 500 {
					status = s
				}
			}
			if logg != nil && status >= http.StatusInternalServerError {
				logg.Error(r.Context(), "photo upload failed", err)
			}
			writeUploadJSON(w, status, photoUploadResponse{Error: message})
			return
		}

		task := result.Tasks[0]
		switch task.Phase {
		case photos.TaskSucceeded:
			writeUploadJSON(w, http.StatusOK, photoUploadResponse{
				Success: true,
				URL:     task.URL,
				PhotoID: task.RecordID.String(),
			})
		case photos.TaskRejected:
			writeUploadJSON(w, http.StatusBadRequest, photoUploadResponse{Error: task.Reason})
		default:
			if logg != nil {
				logg.Warn(r.Context(), "photo upload task failed: "+task.Reason)
			}
			writeUploadJSON(w, http.StatusInternalServerError, photoUploadResponse{Error: task.Reason})
		}
	}
}

// decodeDataURL splits a "data:<mime>;base64,<payload>" string into its MIME
// type and raw bytes.
func decodeDataURL(raw string) (string, []byte, error) {
	header, payload, found := strings.Cut(raw, ",")
	if !found {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "imageData must be a base64 data URL")
	}
	mimeType := ""
	if rest, ok := strings.CutPrefix(header, "data:"); ok {
		mimeType, _, _ = strings.Cut(rest, ";")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "imageData must be a base64 data URL")
	}
	return mimeType, data, nil
}

func writeUploadJSON(w http.ResponseWriter, status int, payload photoUploadResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type photoReorderRequest struct {
	Updates []photos.PositionUpdate `json:"updates" validate:"required,min=1,dive"`
}

// PhotoReorder applies new ordinal positions to a set of photo records.
func PhotoReorder(svc photos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photo service unavailable"))
			return
		}

		var body photoReorderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Reorder(r.Context(), body.Updates); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"updated": len(body.Updates)})
	}
}

// PhotoDelete removes one photo record and its stored object.
func PhotoDelete(svc photos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photo service unavailable"))
			return
		}

		recordID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "photoId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid photo id"))
			return
		}

		if err := svc.DeleteRecord(r.Context(), recordID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type itemPhotoResponse struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	FileName   string    `json:"file_name"`
	SizeBytes  int64     `json:"size_bytes"`
	Position   int       `json:"position"`
	UploadedAt string    `json:"uploaded_at"`
}

// ItemPhotosList returns the photos of one listing ordered by position.
func ItemPhotosList(svc photos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photo service unavailable"))
			return
		}

		itemID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "itemId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		records, err := svc.ListForItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]itemPhotoResponse, len(records))
		for i, record := range records {
			payload[i] = itemPhotoResponse{
				ID:         record.ID,
				URL:        record.URL,
				FileName:   record.OriginalFileName,
				SizeBytes:  record.SizeBytes,
				Position:   record.Position,
				UploadedAt: record.UploadedAt.UTC().Format(time.RFC3339),
			}
		}
		responses.WriteSuccess(w, payload)
	}
}

// MyPhotoStats reports the caller's storage footprint.
func MyPhotoStats(svc photos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photo service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// requireUserID pulls the authenticated user out of the request context.
func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
