// Package feedback implements the conversational civic feedback intake
// engine: it extracts a structured record from a free-form dialogue, and
// files the record once every field has been collected.
package feedback

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of the caller-supplied conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Category classifies a feedback record.
type Category string

const (
	CategoryRequest  Category = "request"
	CategoryQuestion Category = "question"
	CategoryPraise   Category = "praise"
)

// Categories lists every valid category label, in the order they appear in
// the structured output contract.
var Categories = []Category{CategoryRequest, CategoryQuestion, CategoryPraise}

// ValidCategory reports whether s is one of the fixed category labels.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if s == string(c) {
			return true
		}
	}
	return false
}

// Form is the accumulating feedback record. Every field starts empty; an
// empty string means "not collected yet". Forms are values: Merge returns a
// new Form and never mutates its receiver.
type Form struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Place       string `json:"place"`
}

// Patch carries one turn's newly extracted field values. An empty field
// means "no new information this turn", never "clear the field".
type Patch struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Place       string `json:"place"`
}

// Merge applies a patch to the form. A non-empty patch field overwrites the
// form's value; an empty patch field leaves it untouched. Merging an empty
// patch is the identity.
func (f Form) Merge(p Patch) Form {
	if p.Title != "" {
		f.Title = p.Title
	}
	if p.Category != "" {
		f.Category = p.Category
	}
	if p.Description != "" {
		f.Description = p.Description
	}
	if p.Place != "" {
		f.Place = p.Place
	}
	return f
}

// IsComplete reports whether every field of the form has been collected.
func (f Form) IsComplete() bool {
	return f.Title != "" && f.Category != "" && f.Description != "" && f.Place != ""
}
