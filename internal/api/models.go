package api

import (
	"time"

	"github.com/phrazzld/errbook/internal/connectivity"
	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/syncer"
)

// CreateQuestionRequest defines the payload for capturing a question.
type CreateQuestionRequest struct {
	Subject       string   `json:"subject"       validate:"required,max=200"`
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correctAnswer"`
	UserAnswer    string   `json:"userAnswer"`
	Analysis      string   `json:"analysis"`
	Source        string   `json:"source"        validate:"max=200"`
	ErrorType     string   `json:"errorType"     validate:"max=100"`
	Tags          []string `json:"tags"          validate:"max=50,dive,max=64"`
}

func (req CreateQuestionRequest) draft() domain.QuestionDraft {
	return domain.QuestionDraft{
		Subject:       req.Subject,
		Question:      req.Question,
		CorrectAnswer: req.CorrectAnswer,
		UserAnswer:    req.UserAnswer,
		Analysis:      req.Analysis,
		Source:        req.Source,
		ErrorType:     req.ErrorType,
		Tags:          req.Tags,
	}
}

// UpdateQuestionRequest is a partial update. Omitted fields are unchanged.
type UpdateQuestionRequest struct {
	Subject       *string   `json:"subject"       validate:"omitempty,min=1,max=200"`
	Question      *string   `json:"question"`
	CorrectAnswer *string   `json:"correctAnswer"`
	UserAnswer    *string   `json:"userAnswer"`
	Analysis      *string   `json:"analysis"`
	Source        *string   `json:"source"        validate:"omitempty,max=200"`
	ErrorType     *string   `json:"errorType"     validate:"omitempty,max=100"`
	Tags          *[]string `json:"tags"          validate:"omitempty,max=50,dive,max=64"`
}

func (req UpdateQuestionRequest) patch() domain.QuestionPatch {
	return domain.QuestionPatch{
		Subject:       req.Subject,
		Question:      req.Question,
		CorrectAnswer: req.CorrectAnswer,
		UserAnswer:    req.UserAnswer,
		Analysis:      req.Analysis,
		Source:        req.Source,
		ErrorType:     req.ErrorType,
		Tags:          req.Tags,
	}
}

// FeedbackRequest defines the payload for reviewing a question.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,oneof=remember fuzzy forgot"`
}

// QuestionListResponse wraps a list of questions.
type QuestionListResponse struct {
	Questions []*domain.Question `json:"questions"`
	Count     int                `json:"count"`
}

// BlockRequest is one content block of a note.
type BlockRequest struct {
	ID      string `json:"id"      validate:"omitempty,uuid"`
	Kind    string `json:"kind"    validate:"max=32"`
	Content string `json:"content"`
}

// CreateNoteRequest defines the payload for creating a note.
type CreateNoteRequest struct {
	Title   string         `json:"title"   validate:"required,max=200"`
	Content string         `json:"content"`
	Tags    []string       `json:"tags"    validate:"max=50,dive,max=64"`
	Blocks  []BlockRequest `json:"blocks"  validate:"dive"`
}

func (req CreateNoteRequest) draft() domain.NoteDraft {
	return domain.NoteDraft{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Blocks:  blockDrafts(req.Blocks),
	}
}

// UpdateNoteRequest is a partial update. A present blocks list replaces all blocks.
type UpdateNoteRequest struct {
	Title   *string         `json:"title"   validate:"omitempty,min=1,max=200"`
	Content *string         `json:"content"`
	Tags    *[]string       `json:"tags"    validate:"omitempty,max=50,dive,max=64"`
	Blocks  *[]BlockRequest `json:"blocks"  validate:"omitempty,dive"`
}

func (req UpdateNoteRequest) patch() domain.NotePatch {
	p := domain.NotePatch{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	}
	if req.Blocks != nil {
		blocks := blockDrafts(*req.Blocks)
		p.Blocks = &blocks
	}
	return p
}

func blockDrafts(in []BlockRequest) []domain.BlockDraft {
	out := make([]domain.BlockDraft, len(in))
	for i, b := range in {
		out[i] = domain.BlockDraft{ID: b.ID, Kind: b.Kind, Content: b.Content}
	}
	return out
}

// NoteListResponse wraps a list of notes.
type NoteListResponse struct {
	Notes []*domain.Note `json:"notes"`
	Count int            `json:"count"`
}

// SyncResponse reports the replication state.
type SyncResponse struct {
	Status       syncer.Status      `json:"status"`
	LastSyncAt   *time.Time         `json:"lastSyncAt"`
	FailedCount  int                `json:"failedCount"`
	Pending      int                `json:"pending"`
	Connectivity connectivity.State `json:"connectivity"`
	Error        string             `json:"error,omitempty"`
}

// FlushResponse reports the outcome of a requested flush.
type FlushResponse struct {
	Skipped bool          `json:"skipped"`
	Status  syncer.Status `json:"status"`
	Pushed  int           `json:"pushed"`
	Failed  int           `json:"failed"`
	Pending int           `json:"pending"`
}
