package intake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/foldertags/internal/prompt"
	"github.com/starford/foldertags/internal/validate"
	"github.com/starford/foldertags/internal/vaultpath"
)

// FolderTagger reads effective folder tags and assigns own tags.
type FolderTagger interface {
	GetFolderTagsWithInheritance(folder string) []string
	SetFolderTags(ctx context.Context, folder string, tags []string) error
}

// PromptHandler returns a Handler that asks for the folder's tags and
// stores the validated answer. The prompt is pre-filled with what the
// parent folder hands down. Dismissed or empty answers leave the folder
// untagged.
func PromptHandler(p prompt.Prompter, tagger FolderTagger, logger *slog.Logger) Handler {
	return func(ctx context.Context, folder string) error {
		answer, err := p.Ask(ctx, prompt.Prompt{
			Kind:      prompt.KindTags,
			Title:     "Tag new folder",
			Message:   fmt.Sprintf("Enter tags for %q", folder),
			Paths:     []string{folder},
			Suggested: tagger.GetFolderTagsWithInheritance(vaultpath.Parent(folder)),
		})
		if err != nil {
			return fmt.Errorf("intake: ask: %w", err)
		}
		if answer.Dismissed {
			logger.Debug("intake: prompt dismissed", slog.String("path", folder))
			return nil
		}
		tags, err := validate.Tags(answer.Tags)
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		if err := tagger.SetFolderTags(ctx, folder, tags); err != nil {
			return fmt.Errorf("intake: set tags: %w", err)
		}
		logger.Info("intake: folder tagged", slog.String("path", folder))
		return nil
	}
}
