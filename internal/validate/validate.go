// Package validate checks user-entered tags and folder names before they
// reach the engine. The engine itself accepts any non-empty tag.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/foldertags/internal/apperr"
	"github.com/starford/foldertags/internal/tagset"
)

var (
	errNumericTag = validation.NewError("validate.tag.numeric", "tag must not be purely numeric")
	errFolderName = validation.NewError("validate.folder.name", "folder name must not contain path separators")

	tagPattern = regexp.MustCompile(`^[^\s#]+$`)
)

var tagRules = []validation.Rule{
	validation.Required,
	validation.Match(tagPattern).Error("tag must not contain whitespace or '#'"),
	validation.By(notNumeric),
}

func notNumeric(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return errNumericTag
}

// Normalize trims each tag and drops one leading '#'. Empty entries and
// duplicates are removed.
func Normalize(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimPrefix(strings.TrimSpace(t), "#"))
	}
	return tagset.Unique(out)
}

// Tags normalises tags and rejects any that break the tag rules. The
// returned error wraps apperr.ErrInvalidInput.
func Tags(tags []string) ([]string, error) {
	clean := Normalize(tags)
	if err := validation.Validate(clean, validation.Each(tagRules...)); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	return clean, nil
}

// ParseList splits free-form input such as "work, #q3 urgent" into tags.
func ParseList(input string) []string {
	return Normalize(strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	}))
}

// FolderName rejects empty names and names holding a path separator.
func FolderName(name string) error {
	err := validation.Validate(strings.TrimSpace(name),
		validation.Required,
		validation.By(func(value any) error {
			if strings.ContainsAny(value.(string), `/\`) {
				return errFolderName
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	return nil
}
