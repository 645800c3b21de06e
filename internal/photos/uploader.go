package photos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/sibusisodev/campusmart-backend/internal/photos/sweeper"
	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/metrics"
	"github.com/sibusisodev/campusmart-backend/pkg/storage/gcs"
)

// TaskPhase names one state of an upload task.
type TaskPhase string

const (
	TaskRejected  TaskPhase = "rejected"
	TaskQueued    TaskPhase = "queued"
	TaskUploading TaskPhase = "uploading"
	TaskSucceeded TaskPhase = "succeeded"
	TaskFailed    TaskPhase = "failed"
)

// TaskState is the tagged per-file state. Transitions replace the whole
// value; callers never mutate a state in place.
type TaskState struct {
	Phase    TaskPhase `json:"phase"`
	Progress float64   `json:"progress,omitempty"`
	URL      string    `json:"url,omitempty"`
	RecordID uuid.UUID `json:"record_id,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

func taskRejected(reason string) TaskState { return TaskState{Phase: TaskRejected, Reason: reason} }
func taskQueued() TaskState                { return TaskState{Phase: TaskQueued} }
func taskUploading(pct float64) TaskState  { return TaskState{Phase: TaskUploading, Progress: pct} }
func taskFailed(reason string) TaskState   { return TaskState{Phase: TaskFailed, Reason: reason} }

func taskSucceeded(url string, recordID uuid.UUID) TaskState {
	return TaskState{Phase: TaskSucceeded, Progress: 100, URL: url, RecordID: recordID}
}

// Terminal reports whether the task can no longer change state.
func (s TaskState) Terminal() bool {
	return s.Phase == TaskRejected || s.Phase == TaskSucceeded || s.Phase == TaskFailed
}

type imageCompressor interface {
	Compress(data []byte) ([]byte, error)
}

type storageUploader interface {
	UploadWithProgress(ctx context.Context, bucket, object, contentType string, data []byte, onProgress gcs.ProgressFunc) (string, error)
	Delete(ctx context.Context, objectURL string) error
}

type deletionNotifier interface {
	PublishDeletion(ctx context.Context, event sweeper.DeletionEvent) error
}

// UploadFile is one candidate file handed to the orchestrator.
type UploadFile struct {
	FileName string
	MimeType string
	Data     []byte
}

// BatchInput describes one upload batch for a single owner.
type BatchInput struct {
	Kind   enums.PhotoKind
	ItemID uuid.UUID
	UserID uuid.UUID
	Files  []UploadFile
}

// BatchCallbacks are optional per-batch observers. OnComplete fires exactly
// once after every task has reached a terminal state, carrying the succeeded
// URLs. OnFileError fires once per failed file.
type BatchCallbacks struct {
	OnTaskUpdate func(index int, state TaskState)
	OnFileError  func(index int, err error)
	OnComplete   func(urls []string)
}

// BatchResult aggregates the terminal state of every task in the batch.
type BatchResult struct {
	Tasks         []TaskState
	SucceededURLs []string
}

// Uploader drains upload batches through validate, compress, upload, and
// record creation, one file at a time.
type Uploader struct {
	itemCompressor    imageCompressor
	profileCompressor imageCompressor
	storage           storageUploader
	records           Service
	deletions         deletionNotifier
	bucket            string
	maxPhotos         int
	retryAttempts     uint64
	metrics           *metrics.UploadMetrics
	logg              *logger.Logger
}

// NewUploader wires an orchestrator from its collaborators.
func NewUploader(
	cfg config.PhotosConfig,
	itemCompressor, profileCompressor imageCompressor,
	storage storageUploader,
	records Service,
	deletions deletionNotifier,
	bucket string,
	uploadMetrics *metrics.UploadMetrics,
	logg *logger.Logger,
) (*Uploader, error) {
	if itemCompressor == nil || profileCompressor == nil {
		return nil, fmt.Errorf("compressors required")
	}
	if storage == nil {
		return nil, fmt.Errorf("storage uploader required")
	}
	if records == nil {
		return nil, fmt.Errorf("photo record service required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket required")
	}
	maxPhotos := cfg.MaxPhotosPerItem
	if maxPhotos <= 0 {
		maxPhotos = 5
	}
	attempts := cfg.UploadRetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Uploader{
		itemCompressor:    itemCompressor,
		profileCompressor: profileCompressor,
		storage:           storage,
		records:           records,
		deletions:         deletions,
		bucket:            bucket,
		maxPhotos:         maxPhotos,
		retryAttempts:     uint64(attempts),
		metrics:           uploadMetrics,
		logg:              logg,
	}, nil
}

// MaxPhotosPerItem reports the per-item photo ceiling.
func (u *Uploader) MaxPhotosPerItem() int {
	return u.maxPhotos
}

// UploadBatch runs every file through the pipeline sequentially. Files that
// fail validation are rejected up front and never enter the queue. If the
// queued files would push the item past its photo ceiling the whole batch is
// refused; nothing is uploaded.
func (u *Uploader) UploadBatch(ctx context.Context, input BatchInput, callbacks BatchCallbacks) (*BatchResult, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid photo kind")
	}
	if input.Kind == enums.PhotoKindItem && input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required for item photos")
	}
	if input.Kind == enums.PhotoKindProfile && input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required for profile photos")
	}
	if len(input.Files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files supplied")
	}

	tasks := make([]TaskState, len(input.Files))
	queued := 0
	for i, file := range input.Files {
		if err := ValidateFile(FileMeta{FileName: file.FileName, MimeType: file.MimeType, SizeBytes: int64(len(file.Data))}); err != nil {
			tasks[i] = taskRejected(err.Error())
			u.notify(callbacks, i, tasks[i])
			u.metrics.IncOutcome(string(input.Kind), string(TaskRejected))
			continue
		}
		tasks[i] = taskQueued()
		queued++
		u.notify(callbacks, i, tasks[i])
	}

	existing := int64(0)
	if input.Kind == enums.PhotoKindItem {
		count, err := u.records.CountForItem(ctx, input.ItemID)
		if err != nil {
			return nil, err
		}
		existing = count
	}
	if existing+int64(queued) > int64(u.maxPhotos) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("maximum %d photos per item", u.maxPhotos))
	}

	result := &BatchResult{Tasks: tasks}
	position := int(existing)
	for i := range input.Files {
		if tasks[i].Terminal() {
			continue
		}
		state := u.uploadOne(ctx, input, input.Files[i], position, func(pct float64) {
			tasks[i] = taskUploading(pct)
			u.notify(callbacks, i, tasks[i])
		})
		tasks[i] = state
		u.notify(callbacks, i, state)
		u.metrics.IncOutcome(string(input.Kind), string(state.Phase))

		switch state.Phase {
		case TaskSucceeded:
			position++
			result.SucceededURLs = append(result.SucceededURLs, state.URL)
		case TaskFailed:
			if callbacks.OnFileError != nil {
				callbacks.OnFileError(i, pkgerrors.New(pkgerrors.CodeDependency, state.Reason))
			}
		}
	}
	result.Tasks = tasks

	if len(result.SucceededURLs) > 0 {
		if err := u.complete(ctx, input, result.SucceededURLs); err != nil {
			return nil, err
		}
	}

	if callbacks.OnComplete != nil {
		callbacks.OnComplete(result.SucceededURLs)
	}
	return result, nil
}

func (u *Uploader) uploadOne(ctx context.Context, input BatchInput, file UploadFile, position int, onProgress gcs.ProgressFunc) TaskState {
	started := time.Now()
	defer func() {
		u.metrics.ObserveDuration(string(input.Kind), time.Since(started))
	}()

	compressor := u.itemCompressor
	if input.Kind == enums.PhotoKindProfile {
		compressor = u.profileCompressor
	}
	compressed, err := compressor.Compress(file.Data)
	if err != nil {
		return taskFailed(err.Error())
	}

	object := u.objectPath(input)
	url, err := u.uploadWithRetry(ctx, object, compressed, onProgress)
	if err != nil {
		return taskFailed(err.Error())
	}
	u.metrics.ObserveStoredBytes(string(input.Kind), int64(len(compressed)))

	record, err := u.createRecordWithRetry(ctx, input, file, url, object, int64(len(compressed)), position)
	if err != nil {
		// The object is already durable; remove it so a failed record does
		// not strand storage. When even the delete fails, hand the orphan to
		// the sweeper over the deletion topic.
		if cleanupErr := u.storage.Delete(ctx, url); cleanupErr != nil {
			u.reportOrphan(ctx, url, object, cleanupErr)
		}
		return taskFailed(err.Error())
	}

	return taskSucceeded(url, record.ID)
}

// objectPath builds a collision-resistant storage path. The random suffix
// keeps concurrent uploads in the same millisecond from colliding.
func (u *Uploader) objectPath(input BatchInput) string {
	owner := input.UserID
	category := "profiles"
	if input.Kind == enums.PhotoKindItem {
		owner = input.ItemID
		category = "items"
	}
	return fmt.Sprintf("%s/%s/%d-%s.jpg", category, owner, time.Now().UnixMilli(), uuid.NewString())
}

// reportOrphan publishes a deletion event for an object whose cleanup
// delete failed, so the sweeper removes it later.
func (u *Uploader) reportOrphan(ctx context.Context, url, object string, cleanupErr error) {
	if u.logg != nil {
		u.logg.Warn(ctx, fmt.Sprintf("orphaned object %s left behind: %v", object, cleanupErr))
	}
	if u.deletions == nil {
		return
	}
	event := sweeper.DeletionEvent{ObjectURL: url, Reason: "record_insert_failed"}
	if err := u.deletions.PublishDeletion(ctx, event); err != nil && u.logg != nil {
		u.logg.Error(ctx, fmt.Sprintf("publish deletion for orphaned object %s", object), err)
	}
}

func (u *Uploader) uploadWithRetry(ctx context.Context, object string, data []byte, onProgress gcs.ProgressFunc) (string, error) {
	var url string
	// Progress is clamped to its high-water mark so a retried attempt does
	// not rewind the task's reported percentage.
	highWater := -1.0
	progress := func(pct float64) {
		if onProgress == nil || pct < highWater {
			return
		}
		highWater = pct
		onProgress(pct)
	}
	err := retry.Do(ctx, u.backoff(), func(ctx context.Context) error {
		uploaded, err := u.storage.UploadWithProgress(ctx, u.bucket, object, "image/jpeg", data, progress)
		if err != nil {
			return retry.RetryableError(err)
		}
		url = uploaded
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return url, nil
}

func (u *Uploader) createRecordWithRetry(ctx context.Context, input BatchInput, file UploadFile, url, object string, sizeBytes int64, position int) (*retryableRecord, error) {
	meta := CreateRecordInput{
		URL:              url,
		FileName:         object,
		OriginalFileName: file.FileName,
		SizeBytes:        sizeBytes,
	}
	if input.Kind == enums.PhotoKindItem {
		itemID := input.ItemID
		meta.ItemID = &itemID
		meta.Position = position
	} else {
		userID := input.UserID
		meta.UserID = &userID
	}

	var record retryableRecord
	err := retry.Do(ctx, u.backoff(), func(ctx context.Context) error {
		created, err := u.records.CreateRecord(ctx, meta)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
				return err
			}
			return retry.RetryableError(err)
		}
		record.ID = created.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

type retryableRecord struct {
	ID uuid.UUID
}

func (u *Uploader) complete(ctx context.Context, input BatchInput, urls []string) error {
	if input.Kind == enums.PhotoKindItem {
		return u.records.CompleteItemUpload(ctx, input.ItemID)
	}
	// Last successful upload wins as the profile picture.
	return u.records.CompleteProfileUpload(ctx, input.UserID, urls[len(urls)-1])
}

func (u *Uploader) backoff() retry.Backoff {
	b := retry.NewExponential(100 * time.Millisecond)
	b = retry.WithMaxRetries(u.retryAttempts, b)
	return b
}

func (u *Uploader) notify(callbacks BatchCallbacks, index int, state TaskState) {
	if callbacks.OnTaskUpdate != nil {
		callbacks.OnTaskUpdate(index, state)
	}
}
