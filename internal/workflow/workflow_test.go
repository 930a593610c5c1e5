package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenx-cards/core/internal/models"
)

type fakeAPI struct {
	mu          sync.Mutex
	generate    func(GenerateRequest) (*GenerateResponse, error)
	create      func(CreateSetRequest) (*SavedSet, error)
	genCalls    int
	createCalls int
	lastCreate  CreateSetRequest
}

func (f *fakeAPI) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	f.mu.Lock()
	f.genCalls++
	fn := f.generate
	f.mu.Unlock()
	if fn == nil {
		return proposalsResponse(6), nil
	}
	return fn(req)
}

func (f *fakeAPI) CreateSet(_ context.Context, req CreateSetRequest) (*SavedSet, error) {
	f.mu.Lock()
	f.createCalls++
	f.lastCreate = req
	fn := f.create
	f.mu.Unlock()
	if fn == nil {
		return &SavedSet{ID: "set-1", Name: req.Name, Model: req.Model, FlashcardCount: len(req.Flashcards)}, nil
	}
	return fn(req)
}

func (f *fakeAPI) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.genCalls, f.createCalls
}

func proposalsResponse(n int) *GenerateResponse {
	resp := &GenerateResponse{Model: "openai/gpt-4o", GenerationDuration: 1800}
	for i := 1; i <= n; i++ {
		resp.FlashcardProposals = append(resp.FlashcardProposals, ProposalPayload{
			Avers:  fmt.Sprintf("Question %d?", i),
			Rewers: fmt.Sprintf("Answer %d.", i),
		})
	}
	return resp
}

// reviewing returns a workflow holding the proposals api generated.
func reviewing(t *testing.T, api *fakeAPI) *Workflow {
	t.Helper()
	w := New(api)
	w.SetText("TCP is a reliable transport protocol.")
	require.NoError(t, w.Generate(context.Background()))
	require.Equal(t, StateReviewing, w.State())
	return w
}

func TestWorkflow_GenerateReviewSave(t *testing.T) {
	api := &fakeAPI{}
	w := reviewing(t, api)
	ctx := context.Background()

	snap := w.Snapshot()
	require.Len(t, snap.Proposals, 6)
	ids := map[string]bool{}
	for _, p := range snap.Proposals {
		assert.Equal(t, models.SourceAIFull, p.Source)
		assert.False(t, p.IsFlagged)
		assert.NotEmpty(t, p.ID)
		ids[p.ID] = true
	}
	assert.Len(t, ids, 6)
	assert.Equal(t, &GenerationMeta{Model: "openai/gpt-4o", GenerationDuration: 1800}, snap.Meta)

	require.NoError(t, w.DeleteProposal(snap.Proposals[0].ID))
	require.NoError(t, w.DeleteProposal(snap.Proposals[3].ID))
	w.SetName("  Networking  ")
	require.NoError(t, w.Save(ctx))

	snap = w.Snapshot()
	assert.Equal(t, StateSuccess, snap.State)
	require.NotNil(t, snap.Saved)
	assert.Equal(t, 4, snap.Saved.FlashcardCount)

	assert.Equal(t, "Networking", api.lastCreate.Name)
	assert.Equal(t, "openai/gpt-4o", api.lastCreate.Model)
	assert.Equal(t, int64(1800), api.lastCreate.GenerationDuration)
	require.Len(t, api.lastCreate.Flashcards, 4)
	assert.Equal(t, "Question 2?", api.lastCreate.Flashcards[0].Avers)
}

func TestWorkflow_GenerateRejectsInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", " \n\t "},
		{"too long", strings.Repeat("a", maxTextLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			w := New(api)
			w.SetText(tt.text)

			err := w.Generate(context.Background())
			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, FailureInput, f.Kind)

			snap := w.Snapshot()
			assert.Equal(t, StateError, snap.State)
			assert.Equal(t, "Invalid input", snap.Error.Title)
			gen, _ := api.calls()
			assert.Zero(t, gen)
		})
	}
}

func TestWorkflow_TextAtLimitIsAccepted(t *testing.T) {
	api := &fakeAPI{}
	w := New(api)
	w.SetText(strings.Repeat("ą", maxTextLength))
	assert.NoError(t, w.Generate(context.Background()))
}

func TestWorkflow_SaveRejectsName(t *testing.T) {
	for _, name := range []string{"", "   ", strings.Repeat("n", models.SetNameMaxLen+1)} {
		api := &fakeAPI{}
		w := reviewing(t, api)
		before := w.Snapshot().Proposals
		w.SetName(name)

		err := w.Save(context.Background())
		var f *Failure
		require.ErrorAs(t, err, &f)
		assert.Equal(t, "Invalid set name", f.Title)

		snap := w.Snapshot()
		assert.Equal(t, StateError, snap.State)
		assert.Equal(t, before, snap.Proposals)
		_, created := api.calls()
		assert.Zero(t, created)
	}
}

func TestWorkflow_SaveRequiresProposal(t *testing.T) {
	api := &fakeAPI{generate: func(GenerateRequest) (*GenerateResponse, error) { return proposalsResponse(1), nil }}
	w := reviewing(t, api)
	require.NoError(t, w.DeleteProposal(w.Snapshot().Proposals[0].ID))
	w.SetName("Empty")

	err := w.Save(context.Background())
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "No flashcards", f.Title)
	assert.Equal(t, StateError, w.State())
}

func TestWorkflow_RetryAfterInvalidNameSaves(t *testing.T) {
	api := &fakeAPI{}
	w := reviewing(t, api)
	require.Error(t, w.Save(context.Background()))

	w.SetName("Fixed")
	require.NoError(t, w.Retry(context.Background()))
	assert.Equal(t, StateSuccess, w.State())
	gen, created := api.calls()
	assert.Equal(t, 1, gen)
	assert.Equal(t, 1, created)
}

func TestWorkflow_RetryAfterTimeoutRegenerates(t *testing.T) {
	attempt := 0
	api := &fakeAPI{}
	api.generate = func(GenerateRequest) (*GenerateResponse, error) {
		attempt++
		if attempt == 1 {
			return nil, &APIError{
				Status:  http.StatusServiceUnavailable,
				Code:    "SERVICE_UNAVAILABLE",
				Message: "AI service is temporarily unavailable. Please try again later.",
				Details: map[string]any{"reason": "TIMEOUT"},
			}
		}
		return proposalsResponse(5), nil
	}
	w := New(api)
	w.SetText("Some notes")

	err := w.Generate(context.Background())
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, FailureGeneration, f.Kind)
	assert.Equal(t, "Generation failed", f.Title)
	assert.Equal(t, "AI service is temporarily unavailable. Please try again later.", f.Message)
	assert.Equal(t, http.StatusServiceUnavailable, f.Status)
	assert.Equal(t, ActionGenerate, w.Snapshot().LastAction)

	require.NoError(t, w.Retry(context.Background()))
	snap := w.Snapshot()
	assert.Equal(t, StateReviewing, snap.State)
	assert.Len(t, snap.Proposals, 5)
	assert.Nil(t, snap.Error)
}

func TestWorkflow_NetworkErrorMessage(t *testing.T) {
	api := &fakeAPI{generate: func(GenerateRequest) (*GenerateResponse, error) {
		return nil, errors.New("connection refused")
	}}
	w := New(api)
	w.SetText("notes")
	require.Error(t, w.Generate(context.Background()))
	assert.Equal(t, "connection refused", w.Snapshot().Error.Message)
}

func TestWorkflow_SaveConflict(t *testing.T) {
	api := &fakeAPI{create: func(req CreateSetRequest) (*SavedSet, error) {
		return nil, &APIError{Status: http.StatusConflict, Code: "NAME_CONFLICT", Message: "exists",
			Details: map[string]any{"field": "name", "value": req.Name}}
	}}
	w := reviewing(t, api)
	w.SetName("Biology")

	err := w.Save(context.Background())
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, FailureConflict, f.Kind)
	assert.Equal(t, "A set with this name already exists.", f.Message)
	assert.Len(t, w.Snapshot().Proposals, 6)

	// retry goes back to saving, not generating
	api.mu.Lock()
	api.create = nil
	api.mu.Unlock()
	w.SetName("Biology 2")
	require.NoError(t, w.Retry(context.Background()))
	assert.Equal(t, StateSuccess, w.State())
	gen, created := api.calls()
	assert.Equal(t, 1, gen)
	assert.Equal(t, 2, created)
}

func TestWorkflow_SaveServerError(t *testing.T) {
	api := &fakeAPI{create: func(CreateSetRequest) (*SavedSet, error) {
		return nil, &APIError{Status: http.StatusInternalServerError, Code: "TRANSACTION_FAILED",
			Message: "Failed to create flashcard set due to a database error"}
	}}
	w := reviewing(t, api)
	w.SetName("Chemistry")
	require.Error(t, w.Save(context.Background()))

	f := w.Snapshot().Error
	assert.Equal(t, FailureSave, f.Kind)
	assert.Equal(t, "Save failed", f.Title)
	assert.Equal(t, "Failed to create flashcard set due to a database error", f.Message)
}

func TestWorkflow_UpdateProposal(t *testing.T) {
	w := reviewing(t, &fakeAPI{})
	id := w.Snapshot().Proposals[2].ID

	require.NoError(t, w.UpdateProposal(id, "New front", "New back"))
	require.NoError(t, w.UpdateProposal("missing", "x", "y"))

	snap := w.Snapshot()
	assert.Equal(t, "New front", snap.Proposals[2].Avers)
	assert.Equal(t, "New back", snap.Proposals[2].Rewers)
	assert.Equal(t, models.SourceAIEdited, snap.Proposals[2].Source)
	assert.Equal(t, models.SourceAIFull, snap.Proposals[1].Source)
	assert.Len(t, snap.Proposals, 6)
}

func TestWorkflow_ToggleFlag(t *testing.T) {
	w := reviewing(t, &fakeAPI{})
	id := w.Snapshot().Proposals[0].ID

	require.NoError(t, w.ToggleFlag(id))
	assert.True(t, w.Snapshot().Proposals[0].IsFlagged)
	require.NoError(t, w.ToggleFlag(id))
	assert.False(t, w.Snapshot().Proposals[0].IsFlagged)
	require.NoError(t, w.ToggleFlag("missing"))
}

func TestWorkflow_DeleteUnknownIsNoop(t *testing.T) {
	w := reviewing(t, &fakeAPI{})
	require.NoError(t, w.DeleteProposal("missing"))
	assert.Len(t, w.Snapshot().Proposals, 6)
}

func TestWorkflow_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	idle := New(&fakeAPI{})
	assert.ErrorIs(t, idle.Save(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, idle.Retry(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, idle.UpdateProposal("x", "a", "b"), ErrInvalidTransition)
	assert.ErrorIs(t, idle.DeleteProposal("x"), ErrInvalidTransition)
	assert.ErrorIs(t, idle.ToggleFlag("x"), ErrInvalidTransition)
	assert.Equal(t, StateIdle, idle.State())

	rev := reviewing(t, &fakeAPI{})
	assert.ErrorIs(t, rev.Generate(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, rev.Retry(ctx), ErrInvalidTransition)
	assert.Equal(t, StateReviewing, rev.State())

	done := reviewing(t, &fakeAPI{})
	done.SetName("Done")
	require.NoError(t, done.Save(ctx))
	assert.ErrorIs(t, done.Generate(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, done.Save(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, done.ToggleFlag("x"), ErrInvalidTransition)
	assert.Equal(t, StateSuccess, done.State())

	failed := New(&fakeAPI{})
	require.Error(t, failed.Generate(ctx))
	assert.ErrorIs(t, failed.Save(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, failed.UpdateProposal("x", "a", "b"), ErrInvalidTransition)
	assert.Equal(t, StateError, failed.State())
}

func TestWorkflow_GenerateAgainFromError(t *testing.T) {
	api := &fakeAPI{}
	w := New(api)
	require.Error(t, w.Generate(context.Background()))

	w.SetText("now with text")
	require.NoError(t, w.Generate(context.Background()))
	assert.Equal(t, StateReviewing, w.State())
}

func TestWorkflow_Reset(t *testing.T) {
	w := reviewing(t, &fakeAPI{})
	w.SetName("Name")
	require.NoError(t, w.Save(context.Background()))

	w.Reset()
	snap := w.Snapshot()
	assert.Equal(t, Snapshot{State: StateIdle}, snap)
}

func TestWorkflow_ResetDiscardsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{generate: func(GenerateRequest) (*GenerateResponse, error) {
		close(started)
		<-release
		return proposalsResponse(5), nil
	}}
	w := New(api)
	w.SetText("notes")

	errCh := make(chan error, 1)
	go func() { errCh <- w.Generate(context.Background()) }()

	<-started
	assert.Equal(t, StateGenerating, w.State())
	w.Reset()
	close(release)

	assert.ErrorIs(t, <-errCh, ErrSessionReset)
	snap := w.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Proposals)
}

func TestWorkflow_SnapshotIsCopy(t *testing.T) {
	w := reviewing(t, &fakeAPI{})
	snap := w.Snapshot()
	snap.Proposals[0].Avers = "changed"
	snap.Meta.Model = "changed"

	again := w.Snapshot()
	assert.Equal(t, "Question 1?", again.Proposals[0].Avers)
	assert.Equal(t, "openai/gpt-4o", again.Meta.Model)
}

func TestWorkflow_WithModel(t *testing.T) {
	var got GenerateRequest
	api := &fakeAPI{generate: func(req GenerateRequest) (*GenerateResponse, error) {
		got = req
		return proposalsResponse(5), nil
	}}
	w := New(api, WithModel(" anthropic/claude-3.5-sonnet "))
	w.SetText("  notes  ")
	require.NoError(t, w.Generate(context.Background()))
	assert.Equal(t, GenerateRequest{Text: "notes", Model: "anthropic/claude-3.5-sonnet"}, got)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(StateIdle, StateGenerating))
	assert.True(t, canTransition(StateError, StateSaving))
	assert.False(t, canTransition(StateIdle, StateSaving))
	assert.False(t, canTransition(StateSuccess, StateGenerating))
	assert.False(t, canTransition(StateGenerating, StateSaving))
}
