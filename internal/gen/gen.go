// Package gen drives the text-generation collaborator: summarization,
// handbook and briefing synthesis, and tag suggestion. The core treats
// every generated payload as an opaque string; per-item failures fall
// back to a marked placeholder instead of aborting the batch.
package gen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ldi/opsvault/internal/store"
	"github.com/ldi/opsvault/pkg/models"
)

// Generator produces text from task content. Implementations call out
// to a model; tests substitute a fake.
type Generator interface {
	// Summarize condenses one task's content into a few key points.
	Summarize(ctx context.Context, content string) (string, error)
	// ComposeHandbook assembles an operational handbook from the
	// summarized contexts.
	ComposeHandbook(ctx context.Context, name, focus string, contexts, stack []string) (string, error)
	// ComposeBriefing audits the given task digests into a briefing
	// document.
	ComposeBriefing(ctx context.Context, digests []string) (string, error)
	// SuggestTags proposes a small set of short labels for the content.
	SuggestTags(ctx context.Context, content string) ([]string, error)
	// Name identifies the generator in history entries.
	Name() string
}

// GenerationError reports a total, unrecoverable failure of an entire
// generation request. Per-item failures inside a batch never surface as
// this; they are replaced with placeholders.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Service wires a Generator to the task store so generated results land
// as ordinary field updates and history entries.
type Service struct {
	store *store.Store
	gen   Generator
	now   func() time.Time
}

func NewService(s *store.Store, g Generator) *Service {
	return &Service{store: s, gen: g, now: time.Now}
}

// SetClock overrides the service's time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// HandbookRequest selects the context for a handbook build.
type HandbookRequest struct {
	Name            string
	Focus           string
	TaskIDs         []string
	IncludeAllNotes bool
	Stack           []string
}

// summarizeContexts condenses each task, substituting a marked
// placeholder when a single summarization fails. Only the composition
// step can fail the whole request.
func (s *Service) summarizeContexts(ctx context.Context, tasks []*models.Task) []string {
	contexts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		summary, err := s.gen.Summarize(ctx, t.Content)
		if err != nil {
			contexts = append(contexts, fmt.Sprintf(
				"Operational Context (%s): %s (Summary Generation Failed - Using Raw Header)", t.Kind, t.Title))
			continue
		}
		contexts = append(contexts, fmt.Sprintf(
			"Summarized Task Logic (%s, Priority: %s): %s\nKey Actions & Points:\n%s", t.Kind, t.Priority, t.Title, summary))
	}
	return contexts
}

// BuildHandbook summarizes the selected tasks, composes a handbook
// document from them and stores it as a new completed system task.
func (s *Service) BuildHandbook(ctx context.Context, req HandbookRequest) (*models.Task, error) {
	if req.Name == "" || req.Focus == "" {
		return nil, &GenerationError{Op: "handbook", Err: fmt.Errorf("name and focus are required")}
	}

	tasks, err := s.collectContext(req.TaskIDs, req.IncludeAllNotes)
	if err != nil {
		return nil, err
	}
	contexts := s.summarizeContexts(ctx, tasks)

	content, err := s.gen.ComposeHandbook(ctx, req.Name, req.Focus, contexts, req.Stack)
	if err != nil {
		return nil, &GenerationError{Op: "handbook", Err: err}
	}

	stackNote := strings.Join(req.Stack, ", ")
	if stackNote == "" {
		stackNote = "N/A"
	}

	return s.storeGenerated(
		"Handbook_"+strings.ReplaceAll(req.Name, " ", "_"),
		content,
		models.PriorityMedium,
		append([]string{"Generated", "AI-Consultancy"}, req.Stack...),
		fmt.Sprintf("Knowledge Synthesis complete with stack: %s", stackNote),
	)
}

// BuildBriefing composes a briefing document from the selected tasks
// and stores it as a new completed high-priority system task.
func (s *Service) BuildBriefing(ctx context.Context, taskIDs []string) (*models.Task, error) {
	if len(taskIDs) == 0 {
		return nil, &GenerationError{Op: "briefing", Err: fmt.Errorf("no tasks selected")}
	}

	digests := make([]string, 0, len(taskIDs))
	for _, id := range taskIDs {
		t, err := s.store.Get(id)
		if err != nil {
			return nil, err
		}
		digests = append(digests, fmt.Sprintf("File: %s.md\nPriority: %s\nContent:\n%s", t.Title, t.Priority, t.Content))
	}

	content, err := s.gen.ComposeBriefing(ctx, digests)
	if err != nil {
		return nil, &GenerationError{Op: "briefing", Err: err}
	}

	return s.storeGenerated(
		"Briefing_"+s.now().Format("2006-01-02"),
		content,
		models.PriorityHigh,
		[]string{"Briefing", "Management"},
		"Daily audit synthesized",
	)
}

// ApplyTags asks the generator for tags and applies them to the task,
// recording a single history entry attributed to the generator.
func (s *Service) ApplyTags(ctx context.Context, taskID string) (*models.Task, error) {
	t, err := s.store.Get(taskID)
	if err != nil {
		return nil, err
	}
	if t.Content == "" {
		return nil, &GenerationError{Op: "tags", Err: fmt.Errorf("task has no content to analyze")}
	}

	tags, err := s.gen.SuggestTags(ctx, t.Content)
	if err != nil {
		return nil, &GenerationError{Op: "tags", Err: err}
	}

	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}

	return s.store.UpdateFields(taskID, store.Fields{Tags: &cleaned}, "Tags generated by AI", s.gen.Name())
}

// collectContext resolves the manually selected tasks plus, optionally,
// every notes task, de-duplicated.
func (s *Service) collectContext(ids []string, includeAllNotes bool) ([]*models.Task, error) {
	seen := make(map[string]bool, len(ids))
	var tasks []*models.Task
	for _, id := range ids {
		t, err := s.store.Get(id)
		if err != nil {
			return nil, err
		}
		if !seen[t.ID] {
			seen[t.ID] = true
			tasks = append(tasks, t)
		}
	}
	if includeAllNotes {
		for _, t := range s.store.Tasks() {
			if t.Kind == models.TaskKindNotes && !seen[t.ID] {
				seen[t.ID] = true
				tasks = append(tasks, t)
			}
		}
	}
	return tasks, nil
}

// storeGenerated creates the result task and walks it to Done through
// the workflow gate, then records the synthesis entry. Generated tasks
// land completed but their audit trail still only contains legal edges.
func (s *Service) storeGenerated(title, content string, priority models.TaskPriority, tags []string, synthesisNote string) (*models.Task, error) {
	t := s.store.Create(store.Draft{
		Title:    title,
		Kind:     models.TaskKindSystem,
		Priority: priority,
		Content:  content,
		Tags:     tags,
		Actor:    models.ActorSystem,
	})
	if _, err := s.store.TransitionAs(t.ID, models.TaskStatusInProgress, s.gen.Name()); err != nil {
		return nil, err
	}
	if _, err := s.store.TransitionAs(t.ID, models.TaskStatusDone, s.gen.Name()); err != nil {
		return nil, err
	}
	return s.store.UpdateFields(t.ID, store.Fields{}, synthesisNote, s.gen.Name())
}
