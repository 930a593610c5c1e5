// Package workflow drives a single review session: generate proposals from
// text, edit them locally, then save them as a named set.
package workflow

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/tenx-cards/core/internal/models"
	"go.uber.org/zap"
)

const (
	maxTextLength = 10000
	unknownModel  = "unknown"
)

// API is the server surface the session talks to.
type API interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	CreateSet(ctx context.Context, req CreateSetRequest) (*SavedSet, error)
}

// Workflow holds one session. It is safe for concurrent use; network calls
// run without the lock so Snapshot keeps working while they are in flight.
type Workflow struct {
	api   API
	log   *zap.Logger
	model string

	mu         sync.Mutex
	epoch      uint64
	state      State
	text       string
	setName    string
	proposals  []Proposal
	failure    *Failure
	saved      *SavedSet
	meta       *GenerationMeta
	lastAction Action
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithModel asks the server for a specific model instead of its default.
func WithModel(model string) Option {
	return func(w *Workflow) { w.model = strings.TrimSpace(model) }
}

// WithLogger sets the logger used for failed steps.
func WithLogger(log *zap.Logger) Option {
	return func(w *Workflow) {
		if log != nil {
			w.log = log
		}
	}
}

func New(api API, opts ...Option) *Workflow {
	w := &Workflow{api: api, log: zap.NewNop(), state: StateIdle}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot returns a copy of the session.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		State:      w.state,
		Text:       w.text,
		SetName:    w.setName,
		Proposals:  append([]Proposal(nil), w.proposals...),
		LastAction: w.lastAction,
	}
	if w.failure != nil {
		f := *w.failure
		snap.Error = &f
	}
	if w.saved != nil {
		s := *w.saved
		snap.Saved = &s
	}
	if w.meta != nil {
		m := *w.meta
		snap.Meta = &m
	}
	return snap
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) SetText(text string) {
	w.mu.Lock()
	w.text = text
	w.mu.Unlock()
}

func (w *Workflow) SetName(name string) {
	w.mu.Lock()
	w.setName = name
	w.mu.Unlock()
}

// Generate requests proposals for the current text. It is allowed from idle
// and error. Any failure moves the session to error and is also returned.
func (w *Workflow) Generate(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateIdle && w.state != StateError {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	return w.runGenerate(ctx)
}

// Save stores the reviewed proposals under the current set name. It is only
// allowed from reviewing; Retry re-enters it from error.
func (w *Workflow) Save(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateReviewing {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	return w.runSave(ctx)
}

// Retry repeats the step that failed. Every path into error records that
// step, so the proposal list is not used to guess it.
func (w *Workflow) Retry(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateError {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	if w.lastAction == ActionSave {
		return w.runSave(ctx)
	}
	return w.runGenerate(ctx)
}

// Reset clears the session from any state. A Generate or Save still waiting
// on the network will discard its result.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.epoch++
	w.state = StateIdle
	w.text = ""
	w.setName = ""
	w.proposals = nil
	w.failure = nil
	w.saved = nil
	w.meta = nil
	w.lastAction = ActionNone
}

// UpdateProposal replaces the text of a proposal and marks it as edited.
// Length bounds are left to the editing surface. Unknown ids are ignored.
func (w *Workflow) UpdateProposal(id, avers, rewers string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateReviewing {
		return ErrInvalidTransition
	}
	for i := range w.proposals {
		if w.proposals[i].ID == id {
			w.proposals[i].Avers = avers
			w.proposals[i].Rewers = rewers
			w.proposals[i].Source = models.SourceAIEdited
			break
		}
	}
	return nil
}

// DeleteProposal removes a proposal. Unknown ids are ignored.
func (w *Workflow) DeleteProposal(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateReviewing {
		return ErrInvalidTransition
	}
	out := w.proposals[:0]
	for _, p := range w.proposals {
		if p.ID != id {
			out = append(out, p)
		}
	}
	w.proposals = out
	return nil
}

// ToggleFlag flips the flag of a proposal. Unknown ids are ignored.
func (w *Workflow) ToggleFlag(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateReviewing {
		return ErrInvalidTransition
	}
	for i := range w.proposals {
		if w.proposals[i].ID == id {
			w.proposals[i].IsFlagged = !w.proposals[i].IsFlagged
			break
		}
	}
	return nil
}

// runGenerate is entered with w.mu held and releases it.
func (w *Workflow) runGenerate(ctx context.Context) error {
	w.lastAction = ActionGenerate
	text := w.text
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) > maxTextLength {
		err := w.failLocked(&Failure{
			Title:   "Invalid input",
			Message: "Text cannot be empty and cannot exceed 10,000 characters.",
			Kind:    FailureInput,
		})
		w.mu.Unlock()
		return err
	}
	w.moveLocked(StateGenerating)
	w.failure = nil
	epoch := w.epoch
	w.mu.Unlock()

	resp, err := w.api.Generate(ctx, GenerateRequest{Text: strings.TrimSpace(text), Model: w.model})

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return ErrSessionReset
	}
	if err != nil {
		w.log.Warn("flashcard generation failed", zap.Error(err))
		return w.failLocked(failureFrom(err, FailureGeneration, "Generation failed", "Failed to generate flashcards"))
	}

	proposals := make([]Proposal, 0, len(resp.FlashcardProposals))
	for _, p := range resp.FlashcardProposals {
		proposals = append(proposals, Proposal{
			ID:     newProposalID(),
			Avers:  p.Avers,
			Rewers: p.Rewers,
			Source: models.SourceAIFull,
		})
	}
	w.proposals = proposals
	w.meta = &GenerationMeta{Model: resp.Model, GenerationDuration: resp.GenerationDuration}
	w.moveLocked(StateReviewing)
	return nil
}

// runSave is entered with w.mu held and releases it.
func (w *Workflow) runSave(ctx context.Context) error {
	w.lastAction = ActionSave
	name := strings.TrimSpace(w.setName)
	if name == "" || utf8.RuneCountInString(w.setName) > models.SetNameMaxLen {
		err := w.failLocked(&Failure{
			Title:   "Invalid set name",
			Message: "Set name cannot be empty and cannot exceed 100 characters.",
			Kind:    FailureInput,
		})
		w.mu.Unlock()
		return err
	}
	if len(w.proposals) == 0 {
		err := w.failLocked(&Failure{
			Title:   "No flashcards",
			Message: "You need at least one flashcard to save a set.",
			Kind:    FailureInput,
		})
		w.mu.Unlock()
		return err
	}

	req := CreateSetRequest{
		Name:       name,
		Model:      unknownModel,
		Flashcards: make([]FlashcardPayload, 0, len(w.proposals)),
	}
	if w.meta != nil {
		if w.meta.Model != "" {
			req.Model = w.meta.Model
		}
		req.GenerationDuration = w.meta.GenerationDuration
	}
	for _, p := range w.proposals {
		req.Flashcards = append(req.Flashcards, FlashcardPayload{
			Avers:   p.Avers,
			Rewers:  p.Rewers,
			Source:  p.Source,
			Flagged: p.IsFlagged,
		})
	}
	w.moveLocked(StateSaving)
	w.failure = nil
	epoch := w.epoch
	w.mu.Unlock()

	saved, err := w.api.CreateSet(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return ErrSessionReset
	}
	if err != nil {
		w.log.Warn("saving flashcard set failed", zap.String("name", name), zap.Error(err))
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return w.failLocked(&Failure{
				Title:   "Save failed",
				Message: "A set with this name already exists.",
				Kind:    FailureConflict,
				Status:  apiErr.Status,
				Code:    apiErr.Code,
				Details: apiErr.Details,
			})
		}
		return w.failLocked(failureFrom(err, FailureSave, "Save failed", "Failed to save the flashcard set"))
	}
	w.saved = saved
	w.moveLocked(StateSuccess)
	return nil
}

func (w *Workflow) moveLocked(to State) {
	if !canTransition(w.state, to) {
		// every caller checks its precondition first
		panic("workflow: undefined transition " + string(w.state) + " -> " + string(to))
	}
	w.state = to
}

func (w *Workflow) failLocked(f *Failure) error {
	w.moveLocked(StateError)
	w.failure = f
	return f
}

func failureFrom(err error, kind FailureKind, title, fallback string) *Failure {
	f := &Failure{Title: title, Message: fallback, Kind: kind}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			f.Message = apiErr.Message
		}
		f.Status = apiErr.Status
		f.Code = apiErr.Code
		f.Details = apiErr.Details
		return f
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		f.Message = msg
	}
	return f
}

var fallbackID atomic.Uint64

func newProposalID() string {
	id, err := gonanoid.New()
	if err != nil {
		// ids only need to be unique within a session
		return "local-" + strconv.FormatUint(fallbackID.Add(1), 10)
	}
	return id
}
