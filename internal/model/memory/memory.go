package memory

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("memory validation failed")

// Feelings 是保存回忆时可选择的感受词表。
var Feelings = []string{"grateful", "happy", "peaceful", "proud", "loved", "hopeful", "inspired", "brave"}

// Memory is a user-curated highlight. ConversationIDs are weak references to turns.
type Memory struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Feelings        []string   `json:"feelings"`
	SpecialDates    []string   `json:"specialDates"`
	ConversationIDs []string   `json:"conversationIds"`
	CreatedAt       time.Time  `json:"createdAt"`
	BackedUpAt      *time.Time `json:"backedUpAt"`
}

// Draft 是创建回忆的请求载荷，写入前必须通过 Validate。
type Draft struct {
	Title           string   `json:"title" validate:"required,max=100"`
	Description     string   `json:"description" validate:"max=500"`
	Feelings        []string `json:"feelings" validate:"dive,oneof=grateful happy peaceful proud loved hopeful inspired brave"`
	SpecialDates    []string `json:"specialDates" validate:"dive,datetime=2006-01-02"`
	ConversationIDs []string `json:"conversationIds"`
}

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid memory: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Normalize trims text fields and drops duplicate feelings and dates, keeping first occurrence.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Feelings = dedupe(d.Feelings)
	d.SpecialDates = dedupe(d.SpecialDates)
	d.ConversationIDs = dedupe(d.ConversationIDs)
	return d
}

// Validate normalizes the draft and checks it against the field rules.
func (d Draft) Validate() (Draft, error) {
	d = d.Normalize()

	err := validatorInstance().Struct(d)
	if err == nil {
		return d, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return d, fmt.Errorf("validate memory: %w", err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := strings.SplitN(fe.Field(), "[", 2)[0]
		if _, exists := out.Fields[field]; exists {
			continue
		}
		out.Fields[field] = describe(fe)
	}
	return d, out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Please add a title"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a known feeling", fe.Value())
	case "datetime":
		return fmt.Sprintf("%q is not a YYYY-MM-DD date", fe.Value())
	default:
		return "is invalid"
	}
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
