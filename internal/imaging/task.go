package imaging

type State string

const (
	StatePending     State = "pending"
	StateCompressing State = "compressing"
	StateUploading   State = "uploading"
	StateCompleted   State = "completed"
	StateError       State = "error"
)

// Coarse progress points reported while a file moves through the pipeline.
const (
	ProgressCompressing = 10
	ProgressCompressed  = 40
	ProgressUploaded    = 80
	ProgressCompleted   = 100
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// Task tracks one file of a batch.
type Task struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ContentType    string `json:"contentType,omitempty"`
	State          State  `json:"state"`
	Progress       int    `json:"progress"`
	OriginalSize   int64  `json:"originalSize"`
	CompressedSize int64  `json:"compressedSize,omitempty"`
	Key            string `json:"key,omitempty"`
	URL            string `json:"url,omitempty"`
	FellBack       bool   `json:"fellBack,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (t *Task) fail(err error) {
	t.State = StateError
	t.Error = err.Error()
}

// BatchResult summarizes a processed batch.
type BatchResult struct {
	ID              string   `json:"id"`
	Tasks           []Task   `json:"tasks"`
	Completed       int      `json:"completed"`
	Failed          int      `json:"failed"`
	OriginalBytes   int64    `json:"originalBytes"`
	CompressedBytes int64    `json:"compressedBytes"`
	URLs            []string `json:"urls"`
}

// SavedBytes is how much compression saved over the completed files.
func (b *BatchResult) SavedBytes() int64 {
	return b.OriginalBytes - b.CompressedBytes
}

func (b *BatchResult) add(t Task) {
	b.Tasks = append(b.Tasks, t)
	switch t.State {
	case StateCompleted:
		b.Completed++
		b.OriginalBytes += t.OriginalSize
		b.CompressedBytes += t.CompressedSize
		b.URLs = append(b.URLs, t.URL)
	case StateError:
		b.Failed++
	}
}
