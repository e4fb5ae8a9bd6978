package domain

import (
	"io"
	"time"
)

// WorkflowState is the single active state of the upload-and-train workflow.
type WorkflowState string

const (
	StateIdle         WorkflowState = "idle"
	StateFileSelected WorkflowState = "file_selected"
	StateSubmitting   WorkflowState = "submitting"
	StateSucceeded    WorkflowState = "succeeded"
	StateFailed       WorkflowState = "failed"
)

// DefaultModelType is the fixed model tag sent with every training submission.
const DefaultModelType = "tfidf_naive_bayes"

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ServiceURL            string `json:"serviceUrl" yaml:"service_url"`
	ModelType             string `json:"modelType" yaml:"model_type"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds" yaml:"request_timeout_seconds"`
	DatasetDir            string `json:"datasetDir" yaml:"dataset_dir"`
}

// RequestTimeout converts the configured seconds into a duration.
func (s Settings) RequestTimeout() time.Duration {
	if s.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// CandidateFile is the one dataset file currently chosen for upload.
type CandidateFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`

	open func() (io.ReadCloser, error)
}

// NewCandidateFile builds a candidate whose content is read lazily through open.
func NewCandidateFile(name string, size int64, open func() (io.ReadCloser, error)) CandidateFile {
	return CandidateFile{Name: name, Size: size, open: open}
}

// Open returns a fresh reader over the file content.
func (f CandidateFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return f.open()
}

// IsZero reports whether no file is held.
func (f CandidateFile) IsZero() bool {
	return f.Name == "" && f.open == nil
}

// StageDescriptor is one named step of the simulated processing sequence.
type StageDescriptor struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Duration    time.Duration `json:"duration"`
	Description string        `json:"description"`
}

// Snapshot is the render input for the upload page.
type Snapshot struct {
	State           WorkflowState  `json:"state"`
	SessionID       string         `json:"sessionId,omitempty"`
	File            *CandidateFile `json:"file,omitempty"`
	FileSizeLabel   string         `json:"fileSizeLabel,omitempty"`
	CanSubmit       bool           `json:"canSubmit"`
	Progress        float64        `json:"progress"`
	DisplayProgress float64        `json:"displayProgress"`
	ActiveStage     string         `json:"activeStage,omitempty"`
	CompletedStages []string       `json:"completedStages,omitempty"`
	Error           string         `json:"error,omitempty"`
}
