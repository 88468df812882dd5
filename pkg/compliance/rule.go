package compliance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRule reports a malformed rule configuration.
var ErrInvalidRule = errors.New("invalid expiration rule")

// PeriodKind selects how a rule resolves the expiry date.
type PeriodKind string

const (
	// PeriodDuration computes expiry as anchor + period.
	PeriodDuration PeriodKind = "duration"
	// PeriodExplicit reads expiry from a separate record field.
	PeriodExplicit PeriodKind = "explicit"
)

// ValidityPeriod describes the validity window of a rule.
type ValidityPeriod struct {
	Kind  PeriodKind `json:"kind" toml:"kind"`
	Years int        `json:"years,omitempty" toml:"years"`
	Days  int        `json:"days,omitempty" toml:"days"`
	Field string     `json:"field,omitempty" toml:"field"`
}

// Duration builds a fixed validity window.
func Duration(years, days int) ValidityPeriod {
	return ValidityPeriod{Kind: PeriodDuration, Years: years, Days: days}
}

// Explicit builds a validity window read from field.
func Explicit(field string) ValidityPeriod {
	return ValidityPeriod{Kind: PeriodExplicit, Field: field}
}

// Period returns the calendar offset of a duration window.
func (v ValidityPeriod) Period() Period {
	return Period{Years: v.Years, Days: v.Days}
}

// ExpirationRule configures one compliance concept, e.g. CDL expiration.
type ExpirationRule struct {
	Name              string         `json:"name" toml:"name"`
	AnchorField       string         `json:"anchor_field" toml:"anchor_field"`
	Validity          ValidityPeriod `json:"validity" toml:"validity"`
	WarningWindowDays int            `json:"warning_window_days" toml:"warning_window_days"`
}

// NewExpirationRule builds and validates a rule.
func NewExpirationRule(name, anchorField string, validity ValidityPeriod, warningWindowDays int) (ExpirationRule, error) {
	rule := ExpirationRule{
		Name:              name,
		AnchorField:       anchorField,
		Validity:          validity,
		WarningWindowDays: warningWindowDays,
	}
	if err := rule.Validate(); err != nil {
		return ExpirationRule{}, err
	}
	return rule, nil
}

// Validate checks the rule invariants.
func (r ExpirationRule) Validate() error {
	if r.WarningWindowDays < 0 {
		return fmt.Errorf("%w %q: warning window must not be negative", ErrInvalidRule, r.Name)
	}
	switch r.Validity.Kind {
	case PeriodDuration:
		if strings.TrimSpace(r.AnchorField) == "" {
			return fmt.Errorf("%w %q: duration rule requires an anchor field", ErrInvalidRule, r.Name)
		}
		if r.Validity.Period().IsZero() {
			return fmt.Errorf("%w %q: duration rule requires a non-zero period", ErrInvalidRule, r.Name)
		}
	case PeriodExplicit:
		if strings.TrimSpace(r.Validity.Field) == "" {
			return fmt.Errorf("%w %q: explicit rule requires an expiry field", ErrInvalidRule, r.Name)
		}
	default:
		return fmt.Errorf("%w %q: unknown validity kind %q", ErrInvalidRule, r.Name, r.Validity.Kind)
	}
	return nil
}

// ExpiryTag discriminates the outcomes of ResolveExpiry.
type ExpiryTag int

const (
	// ExpiryUnresolved means the date needed to compute expiry is missing or garbage.
	ExpiryUnresolved ExpiryTag = iota
	// ExpiryNone means the record never expires.
	ExpiryNone
	// ExpiryDate means Date holds the resolved expiry.
	ExpiryDate
)

// Expiry is the tagged result of resolving a rule against a record.
type Expiry struct {
	Tag  ExpiryTag
	Date time.Time
}

// ResolveExpiry resolves the expiry date of rec.
//
// A duration rule with a missing or unparseable anchor is unresolved. An explicit
// rule with an absent or empty field never expires; a present but unparseable
// explicit field is unresolved.
func (r ExpirationRule) ResolveExpiry(rec Record) Expiry {
	switch r.Validity.Kind {
	case PeriodDuration:
		anchor, ok := r.ResolveAnchor(rec)
		if !ok {
			return Expiry{Tag: ExpiryUnresolved}
		}
		return Expiry{Tag: ExpiryDate, Date: AddPeriod(anchor, r.Validity.Period())}
	case PeriodExplicit:
		value, ok := field(rec, r.Validity.Field)
		if !ok || isBlank(value) {
			return Expiry{Tag: ExpiryNone}
		}
		date, ok := ParseDate(value)
		if !ok {
			return Expiry{Tag: ExpiryUnresolved}
		}
		return Expiry{Tag: ExpiryDate, Date: date}
	default:
		return Expiry{Tag: ExpiryUnresolved}
	}
}

// ResolveAnchor reads and parses the rule's anchor date.
func (r ExpirationRule) ResolveAnchor(rec Record) (time.Time, bool) {
	value, ok := field(rec, r.AnchorField)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(value)
}

func field(rec Record, name string) (any, bool) {
	if rec == nil || name == "" {
		return nil, false
	}
	return rec.Field(name)
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	case time.Time:
		return v.IsZero()
	case *time.Time:
		return v == nil || v.IsZero()
	default:
		return false
	}
}
