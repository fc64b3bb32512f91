package errors

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is a single failed constraint on a named attribute.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level failures. Field order is preserved.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a failure for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Empty reports whether nothing has been recorded.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// ErrOrNil returns e as an error when it holds failures and nil otherwise.
func (e *ValidationError) ErrOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// On returns the messages recorded for field.
func (e *ValidationError) On(field string) []string {
	var out []string
	for _, f := range e.Fields {
		if f.Field == field {
			out = append(out, f.Message)
		}
	}
	return out
}

// FullMessages renders every failure prefixed by its humanized field name,
// e.g. "Limits cpu must be greater than 0".
func (e *ValidationError) FullMessages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			out = append(out, f.Message)
			continue
		}
		out = append(out, humanize(f.Field)+" "+f.Message)
	}
	return out
}

// Sentence joins FullMessages as "a, b, and c".
func (e *ValidationError) Sentence() string {
	return ToSentence(e.FullMessages())
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Sentence()
}

// ToSentence joins words the way a person would list them.
func ToSentence(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	case 2:
		return words[0] + " and " + words[1]
	default:
		return strings.Join(words[:len(words)-1], ", ") + ", and " + words[len(words)-1]
	}
}

func humanize(field string) string {
	s := strings.TrimSuffix(field, "_id")
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RevisionNotFoundError is returned when a ref cannot be resolved to a commit.
type RevisionNotFoundError struct {
	Ref string
	Err error
}

func (e *RevisionNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("revision %q not found: %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("revision %q not found", e.Ref)
}

func (e *RevisionNotFoundError) Unwrap() error { return e.Err }

// TemplateError is returned when the deployable template cannot be produced.
type TemplateError struct {
	Kind string
	Err  error
}

func (e *TemplateError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("template error: %v", e.Err)
	}
	return fmt.Sprintf("template error in %s: %v", e.Kind, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// ItemFailure is one failed entry of a batch operation.
type ItemFailure struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Err   error  `json:"-"`
}

// Cause renders the human readable reason of the failure.
func (f ItemFailure) Cause() string {
	var ve *ValidationError
	if errors.As(f.Err, &ve) {
		return ve.Sentence()
	}
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// Line renders "<label>: <cause>".
func (f ItemFailure) Line() string {
	if f.Label == "" {
		return f.Cause()
	}
	return f.Label + ": " + f.Cause()
}

// PartialBatchFailure aggregates the failed items of a batch that attempted
// every item.
type PartialBatchFailure struct {
	Op        string
	Attempted int
	Items     []ItemFailure
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%s: %d of %d items failed", e.Op, len(e.Items), e.Attempted)
}

// Messages renders header followed by at most limit detail lines. When more
// failures exist a trailing "... N more" marker line is appended.
func (e *PartialBatchFailure) Messages(header string, limit int) []string {
	if limit < 0 {
		limit = 0
	}
	out := []string{header}
	for i, item := range e.Items {
		if i >= limit {
			out = append(out, fmt.Sprintf("... %d more", len(e.Items)-limit))
			break
		}
		out = append(out, item.Line())
	}
	return out
}
