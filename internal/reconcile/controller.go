package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sync"

	"github.com/starford/foldertags/internal/codec"
	"github.com/starford/foldertags/internal/events"
	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/prompt"
	"github.com/starford/foldertags/internal/resolver"
	"github.com/starford/foldertags/internal/vaultpath"
)

// State is the controller's lifecycle position.
type State string

// Controller states.
const (
	Idle     State = "idle"
	Awaiting State = "awaiting-user-choice"
	Applying State = "applying"
)

// Notes reads and writes whole notes.
type Notes interface {
	List(dir string) ([]models.NoteMetadata, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}

// Engine owns the folder tag map and settings.
type Engine interface {
	Settings() models.Settings
	Tags() resolver.TagSource
	// ForgetFolder drops the folder and its descendants from the map.
	ForgetFolder(ctx context.Context, folder string) error
	// MoveFolder moves the folder's map entries and returns the map as it
	// was before the move.
	MoveFolder(ctx context.Context, from, to string) (resolver.TagSource, error)
}

// Hooks are optional callbacks fired by the controller.
type Hooks struct {
	// FolderCreated receives new folders when new-folder prompts are on.
	FolderCreated func(folder string)
	// Applied is called after a note was rewritten.
	Applied func(note string, tags []string)
}

// Controller turns events into note rewrites.
type Controller struct {
	notes    Notes
	engine   Engine
	prompter prompt.Prompter
	hooks    Hooks
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// NewController creates a controller.
func NewController(notes Notes, engine Engine, prompter prompt.Prompter, hooks Hooks, logger *slog.Logger) *Controller {
	return &Controller{
		notes:    notes,
		engine:   engine,
		prompter: prompter,
		hooks:    hooks,
		logger:   logger,
		state:    Idle,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) planner() Planner {
	return Planner{Tags: c.engine.Tags(), Settings: c.engine.Settings()}
}

// Handle processes one event to completion.
func (c *Controller) Handle(ctx context.Context, ev events.Event) error {
	switch e := ev.(type) {
	case events.NoteCreated, events.NoteMoved:
		return c.Run(ctx, c.planner().Plan(ev, nil))

	case events.FolderTagsChanged:
		affected, err := c.notesUnder(e.Path)
		if err != nil {
			return err
		}
		return c.Run(ctx, c.planner().Plan(ev, affected))

	case events.FolderRenamed:
		before, err := c.engine.MoveFolder(ctx, e.From, e.To)
		if err != nil {
			return fmt.Errorf("reconcile: move folder: %w", err)
		}
		affected, err := c.notesUnder(e.To)
		if err != nil {
			return err
		}
		return c.Run(ctx, c.planner().PlanRename(e, affected, before))

	case events.FolderDeleted:
		if err := c.engine.ForgetFolder(ctx, e.Path); err != nil {
			return fmt.Errorf("reconcile: forget folder: %w", err)
		}
		c.logger.Debug("reconcile: folder forgotten", slog.String("path", e.Path))

	case events.FolderCreated:
		if c.hooks.FolderCreated != nil && c.engine.Settings().NewFolderPrompt {
			c.hooks.FolderCreated(e.Path)
		}
	}
	return nil
}

func (c *Controller) notesUnder(folder string) ([]string, error) {
	metas, err := c.notes.List(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reconcile: list %s: %w", folder, err)
	}
	out := make([]string, 0, len(metas))
	for _, m := range metas {
		out = append(out, vaultpath.Normalize(m.Path))
	}
	return out, nil
}

// Run carries out an action, prompting first when it asks to.
func (c *Controller) Run(ctx context.Context, a Action) error {
	switch a.Kind {
	case NoOp:
		return nil
	case ApplyMerge:
		return c.apply(a.Notes, Merge)
	}

	c.setState(Awaiting)
	outcome := c.ask(ctx, a)
	if outcome == NoAction || outcome == KeepAll {
		c.setState(Idle)
		c.logger.Debug("reconcile: left unchanged", slog.String("outcome", string(outcome)))
		return nil
	}
	return c.apply(a.Notes, outcome)
}

func (c *Controller) ask(ctx context.Context, a Action) Outcome {
	p := prompt.Prompt{
		Kind:    prompt.KindChoice,
		Title:   a.Title,
		Message: a.Message,
	}
	for _, n := range a.Notes {
		p.Paths = append(p.Paths, n.Path)
	}
	for _, o := range a.Options {
		p.Options = append(p.Options, prompt.Option{ID: string(o), Label: o.Label()})
	}

	answer, err := c.prompter.Ask(ctx, p)
	if err != nil {
		c.logger.Warn("reconcile: prompt failed", slog.String("error", err.Error()))
		return NoAction
	}
	if answer.Dismissed {
		c.logger.Info("reconcile: prompt dismissed", slog.String("title", a.Title))
		return NoAction
	}
	o := Outcome(answer.Choice)
	for _, allowed := range a.Options {
		if o == allowed {
			return o
		}
	}
	c.logger.Warn("reconcile: unexpected answer", slog.String("choice", answer.Choice))
	return NoAction
}

// apply rewrites each note for outcome. A note that vanished is skipped;
// other failures abandon that note only and are returned together.
func (c *Controller) apply(plans []NotePlan, outcome Outcome) error {
	c.setState(Applying)
	defer c.setState(Idle)

	surface := codec.For(c.engine.Settings().UseFrontMatter)
	var errs []error
	for _, plan := range plans {
		if err := c.applyNote(surface, plan, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) applyNote(surface codec.Surface, plan NotePlan, outcome Outcome) error {
	if path.Ext(plan.Path) != ".md" {
		return nil
	}
	data, err := c.notes.Read(plan.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("reconcile: note gone", slog.String("path", plan.Path))
			return nil
		}
		return fmt.Errorf("reconcile: read %s: %w", plan.Path, err)
	}
	before := string(data)
	after := Apply(surface, before, outcome, plan)
	if after == before {
		return nil
	}
	if err := c.notes.Write(plan.Path, []byte(after)); err != nil {
		return fmt.Errorf("reconcile: write %s: %w", plan.Path, err)
	}
	c.logger.Info("reconcile: note updated",
		slog.String("path", plan.Path),
		slog.String("outcome", string(outcome)))
	if c.hooks.Applied != nil {
		c.hooks.Applied(plan.Path, surface.Extract(after))
	}
	return nil
}
