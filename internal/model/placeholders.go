package model

import (
	"bytes"
	"encoding/json"
)

// RawPlaceholders is placeholder input as an author supplies it: either a
// free-form string ("name, order_id total") or an explicit list. The zero
// value and a nil pointer both mean "no placeholders given".
type RawPlaceholders struct {
	text  *string
	list  []string
	isSet bool
}

// PlaceholderText wraps a comma/space separated placeholder string
func PlaceholderText(s string) *RawPlaceholders {
	return &RawPlaceholders{text: &s, isSet: true}
}

// PlaceholderList wraps an explicit list of placeholder tokens
func PlaceholderList(items []string) *RawPlaceholders {
	if items == nil {
		items = []string{}
	}
	return &RawPlaceholders{list: items, isSet: true}
}

// Text returns the string form, if that is what was supplied
func (p *RawPlaceholders) Text() (string, bool) {
	if p == nil || p.text == nil {
		return "", false
	}
	return *p.text, true
}

// List returns the list form, if that is what was supplied
func (p *RawPlaceholders) List() ([]string, bool) {
	if p == nil || p.text != nil || !p.isSet {
		return nil, false
	}
	return p.list, true
}

// IsSet reports whether a value (possibly JSON null) was provided
func (p *RawPlaceholders) IsSet() bool {
	return p != nil && p.isSet
}

// UnmarshalJSON accepts a string, an array of strings, or null. Any other
// shape, or an array holding non-strings, is coerced to an empty list.
func (p *RawPlaceholders) UnmarshalJSON(data []byte) error {
	p.isSet = true
	p.text = nil
	p.list = nil

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		p.text = &s
		return nil
	}

	var items []string
	if err := json.Unmarshal(trimmed, &items); err == nil {
		p.list = items
		return nil
	}

	p.list = []string{}
	return nil
}

// MarshalJSON writes back whichever form was supplied
func (p RawPlaceholders) MarshalJSON() ([]byte, error) {
	if p.text != nil {
		return json.Marshal(*p.text)
	}
	if p.list != nil {
		return json.Marshal(p.list)
	}
	return []byte("null"), nil
}
