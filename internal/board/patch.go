package board

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

type fieldState uint8

const (
	fieldAbsent fieldState = iota
	fieldSet
	fieldCleared
)

// Field is a patch slot that distinguishes "leave untouched", "set" and "clear".
// The zero value is absent.
type Field[T any] struct {
	state fieldState
	value T
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] { return Field[T]{state: fieldSet, value: v} }

// Clear returns a Field that resets the target to its empty value.
func Clear[T any]() Field[T] { return Field[T]{state: fieldCleared} }

// Present reports whether the field was supplied at all.
func (f Field[T]) Present() bool { return f.state != fieldAbsent }

// Cleared reports whether the field asks for the target to be emptied.
func (f Field[T]) Cleared() bool { return f.state == fieldCleared }

// Value returns the carried value and whether one was set.
func (f Field[T]) Value() (T, bool) { return f.value, f.state == fieldSet }

// apply writes the field into dst. Cleared fields store the zero value.
func (f Field[T]) apply(dst *T) {
	switch f.state {
	case fieldSet:
		*dst = f.value
	case fieldCleared:
		var zero T
		*dst = zero
	}
}

// StringField maps an optional JSON string onto a Field: nil is absent,
// "" clears, anything else sets.
func StringField(raw *string) Field[string] {
	switch {
	case raw == nil:
		return Field[string]{}
	case *raw == "":
		return Clear[string]()
	default:
		return Set(*raw)
	}
}

// ParseClosedAt maps a JSON closed_at value onto a Field: nil is absent,
// "" reopens the job, anything else must be an RFC 3339 timestamp or a date.
func ParseClosedAt(raw *string) (Field[time.Time], error) {
	if raw == nil {
		return Field[time.Time]{}, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return Clear[time.Time](), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return Set(t.UTC()), nil
		}
	}
	return Field[time.Time]{}, fmt.Errorf("%w: closed_at %q is not a timestamp", ErrInvalidInput, s)
}

// OrganizationPatch lists the organization fields a caller may change.
type OrganizationPatch struct {
	Name        Field[string]
	ThemeColor  Field[string]
	LogoURL     Field[string]
	Description Field[string]
	Website     Field[string]
}

// JobPatch lists the job fields a caller may change.
type JobPatch struct {
	Title           Field[string]
	WorkPolicy      Field[string]
	Location        Field[string]
	Department      Field[string]
	EmploymentType  Field[string]
	ExperienceLevel Field[string]
	JobType         Field[string]
	SalaryRange     Field[string]
	Slug            Field[string]
	Description     Field[string]
	ClosedAt        Field[time.Time]
}

var themeColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func validateOrgName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return "", fmt.Errorf("%w: organization name must be at least 2 characters", ErrInvalidInput)
	}
	return name, nil
}

func validateThemeColor(c string) error {
	if c != "" && !themeColorPattern.MatchString(c) {
		return fmt.Errorf("%w: theme color must be a hex code like #1A2B3C", ErrInvalidInput)
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) url", ErrInvalidInput, field)
	}
	return nil
}

func (p OrganizationPatch) validate() error {
	if v, ok := p.Name.Value(); ok {
		if _, err := validateOrgName(v); err != nil {
			return err
		}
	} else if p.Name.Cleared() {
		return fmt.Errorf("%w: organization name cannot be cleared", ErrInvalidInput)
	}
	if v, ok := p.ThemeColor.Value(); ok {
		if err := validateThemeColor(v); err != nil {
			return err
		}
	}
	if v, ok := p.LogoURL.Value(); ok {
		if err := validateHTTPURL("logo_url", v); err != nil {
			return err
		}
	}
	if v, ok := p.Website.Value(); ok {
		if err := validateHTTPURL("website", v); err != nil {
			return err
		}
	}
	return nil
}

func (p OrganizationPatch) applyTo(o *Organization) {
	if v, ok := p.Name.Value(); ok {
		o.Name = strings.TrimSpace(v)
	}
	p.ThemeColor.apply(&o.ThemeColor)
	p.LogoURL.apply(&o.LogoURL)
	p.Description.apply(&o.Description)
	p.Website.apply(&o.Website)
}

func (p JobPatch) validate() error {
	if p.Title.Cleared() {
		return fmt.Errorf("%w: job title cannot be cleared", ErrInvalidInput)
	}
	if v, ok := p.Title.Value(); ok && strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: job title is required", ErrInvalidInput)
	}
	return nil
}

func (p JobPatch) applyTo(j *Job) {
	p.Title.apply(&j.Title)
	p.WorkPolicy.apply(&j.WorkPolicy)
	p.Location.apply(&j.Location)
	p.Department.apply(&j.Department)
	p.EmploymentType.apply(&j.EmploymentType)
	p.ExperienceLevel.apply(&j.ExperienceLevel)
	p.JobType.apply(&j.JobType)
	p.SalaryRange.apply(&j.SalaryRange)
	p.Slug.apply(&j.Slug)
	p.Description.apply(&j.Description)
	switch {
	case p.ClosedAt.Cleared():
		j.ClosedAt = nil
	case p.ClosedAt.Present():
		t, _ := p.ClosedAt.Value()
		j.ClosedAt = &t
	}
}
