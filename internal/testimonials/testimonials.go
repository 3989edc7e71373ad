// Package testimonials keeps visitor-submitted quotes pending in the
// visitor store next to the static approved set.
package testimonials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"northgate.capital/web/internal/session"
)

const (
	// MaxPending bounds the pending list so the session cookie stays small.
	MaxPending = 3
	// MaxQuoteLength is measured in runes.
	MaxQuoteLength = 400
	// PendingBudget caps the pending list, in bytes, as it appears inside
	// the session cookie payload. Browsers drop cookies past about 4 KB.
	PendingBudget = 2048

	maxNameLength    = 80
	maxCompanyLength = 120
)

// ErrInvalid wraps every validation failure; see *ValidationError for fields.
var ErrInvalid = errors.New("testimonials: invalid submission")

// ValidationError maps form field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%v: %s", ErrInvalid, strings.Join(keys, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Submission is one testimonial awaiting moderation.
type Submission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Company     string    `json:"company,omitempty"`
	Quote       string    `json:"quote"`
	Rating      int       `json:"rating"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Testimonial is an approved quote shown on the public page.
type Testimonial struct {
	Name    string
	Title   string
	Quote   string
	Rating  int
	Service string
}

// Submit validates sub, stamps it and appends it to the pending list.
// The oldest entries are dropped past MaxPending or PendingBudget; a single
// submission over the budget is rejected.
func Submit(store session.Store, sub Submission) (Submission, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Company = strings.TrimSpace(sub.Company)
	sub.Quote = strings.TrimSpace(sub.Quote)

	fields := map[string]string{}
	switch {
	case sub.Name == "":
		fields["name"] = "Name is required."
	case utf8.RuneCountInString(sub.Name) > maxNameLength:
		fields["name"] = fmt.Sprintf("Name must be %d characters or fewer.", maxNameLength)
	}
	if utf8.RuneCountInString(sub.Company) > maxCompanyLength {
		fields["company"] = fmt.Sprintf("Company must be %d characters or fewer.", maxCompanyLength)
	}
	switch {
	case sub.Quote == "":
		fields["quote"] = "Quote is required."
	case utf8.RuneCountInString(sub.Quote) > MaxQuoteLength:
		fields["quote"] = fmt.Sprintf("Quote must be %d characters or fewer.", MaxQuoteLength)
	}
	if sub.Rating < 1 || sub.Rating > 5 {
		fields["rating"] = "Rating must be between 1 and 5."
	}
	if len(fields) > 0 {
		return Submission{}, &ValidationError{Fields: fields}
	}

	sub.ID = ulid.Make().String()
	sub.SubmittedAt = time.Now().UTC().Truncate(time.Second)

	list := append(Pending(store), sub)
	if len(list) > MaxPending {
		list = list[len(list)-MaxPending:]
	}
	for {
		raw, err := encode(list)
		if err != nil {
			return Submission{}, fmt.Errorf("encode pending testimonials: %w", err)
		}
		size, err := storedSize(string(raw))
		if err != nil {
			return Submission{}, fmt.Errorf("encode pending testimonials: %w", err)
		}
		if size <= PendingBudget {
			store.Set(session.KeyPendingTestimonials, string(raw))
			return sub, nil
		}
		if len(list) == 1 {
			return Submission{}, &ValidationError{Fields: map[string]string{
				"quote": "This testimonial is too long to save. Please shorten it.",
			}}
		}
		list = list[1:]
	}
}

// storedSize reports how many bytes value takes once encoded as a JSON
// string inside the session payload.
func storedSize(value string) (int, error) {
	b, err := encode(value)
	return len(b), err
}

// encode marshals without HTML escaping, the way the session cookie does.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Pending returns the visitor's submissions, oldest first. Unreadable state
// reads as empty.
func Pending(store session.Store) []Submission {
	raw, ok := store.Get(session.KeyPendingTestimonials)
	if !ok || raw == "" {
		return nil
	}
	var list []Submission
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

// Published returns the approved testimonials.
func Published() []Testimonial {
	out := make([]Testimonial, len(published))
	copy(out, published)
	return out
}

var published = []Testimonial{
	{
		Name:    "Amara Okafor",
		Title:   "CEO, Meridian Freight Systems",
		Quote:   "Northgate rebuilt our raise narrative in three weeks. We closed a $42M Series B with two of the funds on their shortlist.",
		Rating:  5,
		Service: "Capital Raising",
	},
	{
		Name:    "Daniel Reyes",
		Title:   "Managing Partner, Reyes Development Group",
		Quote:   "Their underwriting memo answered the lender's questions before they asked. Construction financing closed 40 days ahead of plan.",
		Rating:  5,
		Service: "Development Finance",
	},
	{
		Name:    "Hannah Lindqvist",
		Title:   "Founder, Borealis Bioworks",
		Quote:   "The valuation work gave our board a defensible range and a clear story for the secondary.",
		Rating:  4,
		Service: "Valuation",
	},
}
