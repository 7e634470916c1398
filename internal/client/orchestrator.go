package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
)

// User-facing messages.
const (
	MsgInvalidFileType = "Invalid file type. Please upload an image."
	MsgFileReadFailed  = "Failed to read the file."
	msgAnalysisFailed  = "Analysis failed: "
	msgUnknownError    = "An unknown error occurred during analysis."
)

// UIState is what the user sees. At rest exactly one of Result, Error, or neither is set.
type UIState struct {
	Result    *analysis.Result `json:"result"`
	IsLoading bool             `json:"isLoading"`
	Error     string           `json:"error,omitempty"`
}

// Analyzer is the pipeline as seen by the client, in-process or remote.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (analysis.Result, error)
}

// Notice is a user-visible message.
type Notice struct {
	Title       string
	Description string
	Destructive bool
}

type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Orchestrator owns UIState and drives it from file-selection and analyze events.
// Every event bumps a generation counter; completions from superseded generations are dropped.
type Orchestrator struct {
	analyzer Analyzer
	notifier Notifier
	onChange func(UIState)
	log      zerolog.Logger

	mu         sync.Mutex
	state      UIState
	dataURI    string
	generation uint64
}

type Option func(*Orchestrator)

// WithOnChange registers a listener called with a snapshot after every state change.
func WithOnChange(fn func(UIState)) Option { return func(o *Orchestrator) { o.onChange = fn } }

func WithLogger(l zerolog.Logger) Option { return func(o *Orchestrator) { o.log = l } }

func NewOrchestrator(analyzer Analyzer, notifier Notifier, opts ...Option) *Orchestrator {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	o := &Orchestrator{analyzer: analyzer, notifier: notifier, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns a snapshot of the current UI state.
func (o *Orchestrator) State() UIState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

// DataURI returns the currently held image payload, if any.
func (o *Orchestrator) DataURI() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dataURI, o.dataURI != ""
}

// SelectFile clears prior result, error and payload, then reads f asynchronously.
func (o *Orchestrator) SelectFile(ctx context.Context, f File) *Task {
	o.mu.Lock()
	o.generation++
	gen := o.generation
	o.state = UIState{IsLoading: true}
	o.dataURI = ""
	snap := o.snapshot()
	o.mu.Unlock()
	o.changed(snap)

	o.log.Debug().Str("file", f.Name()).Uint64("generation", gen).Msg("reading file")

	task := newTask()
	go func() {
		data, err := f.Read(ctx)
		if err != nil {
			o.log.Warn().Err(err).Str("file", f.Name()).Msg("file read failed")
			task.settle(o.apply(gen, func(s *UIState) {
				*s = UIState{Error: MsgFileReadFailed}
			}, Notice{
				Title:       "File Read Error",
				Description: "There was an error reading the selected file.",
				Destructive: true,
			}))
			return
		}

		uri := EncodeDataURI(f.ContentType(), data)
		if !IsImageDataURI(uri) {
			task.settle(o.apply(gen, func(s *UIState) {
				*s = UIState{Error: MsgInvalidFileType}
			}, Notice{
				Title:       "Invalid File Type",
				Description: "Please upload a valid image file (e.g., PNG, JPG, GIF).",
				Destructive: true,
			}))
			return
		}

		task.settle(o.apply(gen, func(s *UIState) {
			o.dataURI = uri
			s.IsLoading = false
		}, Notice{}))
	}()
	return task
}

// Analyze submits the held payload. Without a payload it only emits a notice.
func (o *Orchestrator) Analyze(ctx context.Context) *Task {
	o.mu.Lock()
	if o.dataURI == "" {
		o.mu.Unlock()
		o.notifier.Notify(Notice{
			Title:       "No Image Uploaded",
			Description: "Please upload an image first.",
			Destructive: true,
		})
		return completedTask()
	}
	o.generation++
	gen := o.generation
	uri := o.dataURI
	o.state = UIState{IsLoading: true}
	snap := o.snapshot()
	o.mu.Unlock()
	o.changed(snap)

	task := newTask()
	go func() {
		res, err := o.analyzer.Analyze(ctx, analysis.Input{PhotoDataURI: uri})
		if err != nil {
			msg := errorMessage(err)
			o.log.Error().Err(err).Uint64("generation", gen).Msg("analysis failed")
			task.settle(o.apply(gen, func(s *UIState) {
				*s = UIState{Error: msgAnalysisFailed + msg}
			}, Notice{Title: "Analysis Failed", Description: msg, Destructive: true}))
			return
		}
		task.settle(o.apply(gen, func(s *UIState) {
			*s = UIState{Result: &res}
		}, Notice{Title: "Analysis Complete", Description: "Image analysis finished successfully."}))
	}()
	return task
}

// apply mutates state only if gen is still current. The notice is emitted only when applied.
func (o *Orchestrator) apply(gen uint64, mutate func(*UIState), n Notice) bool {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		o.log.Debug().Uint64("generation", gen).Msg("discarding stale completion")
		return false
	}
	mutate(&o.state)
	snap := o.snapshot()
	o.mu.Unlock()

	o.changed(snap)
	if n.Title != "" {
		o.notifier.Notify(n)
	}
	return true
}

func (o *Orchestrator) snapshot() UIState {
	s := o.state
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}

func (o *Orchestrator) changed(s UIState) {
	if o.onChange != nil {
		o.onChange(s)
	}
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgUnknownError
}
