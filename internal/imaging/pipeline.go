package imaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/homestead/internal/model"
	"github.com/debemdeboas/homestead/internal/objectstore"
	"github.com/google/uuid"
)

var ErrCancelled = errors.New("batch cancelled")

// File is one upload as received.
type File struct {
	Name string
	Data []byte
}

type Options struct {
	// Fallback uploads the original file when compression fails instead of failing the task.
	Fallback bool
}

// ProgressFunc receives a copy of a task every time its state or progress changes.
type ProgressFunc func(Task)

type Pipeline struct {
	compressor *Compressor
	uploader   objectstore.Uploader
	maxBytes   int64
	keyPrefix  string

	now func() time.Time
}

func NewPipeline(compressor *Compressor, uploader objectstore.Uploader, maxBytes int64, keyPrefix string) *Pipeline {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Pipeline{
		compressor: compressor,
		uploader:   uploader,
		maxBytes:   maxBytes,
		keyPrefix:  keyPrefix,
		now:        time.Now,
	}
}

// Process runs files through validate, compress and upload, strictly one after another.
// A failing file is marked as an error and the batch moves on; uploads already made are kept.
// Once ctx is done, the files not yet started are marked as errors.
func (p *Pipeline) Process(ctx context.Context, owner model.UserID, batchID string, files []File, opts Options, progress ProgressFunc) *BatchResult {
	if progress == nil {
		progress = func(Task) {}
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}

	log := imagingLogger.With().Str("batch", batchID).Str("user_id", string(owner)).Logger()

	tasks := make([]Task, len(files))
	for i, f := range files {
		tasks[i] = Task{
			ID:           uuid.NewString(),
			Name:         f.Name,
			State:        StatePending,
			OriginalSize: int64(len(f.Data)),
		}
		progress(tasks[i])
	}

	result := &BatchResult{ID: batchID, URLs: []string{}}
	for i := range tasks {
		t := &tasks[i]
		if err := ctx.Err(); err != nil {
			t.fail(fmt.Errorf("%w: %v", ErrCancelled, err))
			progress(*t)
			result.add(*t)
			continue
		}

		p.processOne(ctx, owner, files[i], t, opts, progress)
		if t.State == StateError {
			log.Warn().Str("file", t.Name).Str("error", t.Error).Msg("Image task failed")
		}
		result.add(*t)
	}

	log.Info().
		Int("completed", result.Completed).
		Int("failed", result.Failed).
		Int64("original_bytes", result.OriginalBytes).
		Int64("compressed_bytes", result.CompressedBytes).
		Msg("Image batch processed")

	return result
}

func (p *Pipeline) processOne(ctx context.Context, owner model.UserID, f File, t *Task, opts Options, progress ProgressFunc) {
	contentType, err := Validate(f.Data, p.maxBytes)
	if err != nil {
		t.fail(err)
		progress(*t)
		return
	}
	t.ContentType = contentType

	t.State = StateCompressing
	t.Progress = ProgressCompressing
	progress(*t)

	out, err := p.compressor.Compress(f.Data, contentType)
	if err != nil {
		if !opts.Fallback || errors.Is(err, ErrTooManyPixels) {
			t.fail(err)
			progress(*t)
			return
		}
		imagingLogger.Info().Err(err).Str("file", f.Name).Msg("Compression failed, uploading original")
		out = Compressed{Data: f.Data, ContentType: contentType, Pass: -1}
		t.FellBack = true
	}
	t.ContentType = out.ContentType
	t.CompressedSize = int64(len(out.Data))
	t.Progress = ProgressCompressed

	t.State = StateUploading
	progress(*t)

	key := objectstore.NewKey(p.keyPrefix, owner, out.ContentType, p.now())
	url, err := p.uploader.Upload(ctx, key, out.Data, out.ContentType)
	if err != nil {
		t.fail(err)
		progress(*t)
		return
	}
	t.Key = key
	t.URL = url
	t.Progress = ProgressUploaded
	progress(*t)

	t.State = StateCompleted
	t.Progress = ProgressCompleted
	progress(*t)
}
