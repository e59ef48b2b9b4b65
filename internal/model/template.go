package model

import "time"

// Field names a header/footer attribute that may fall back to a global default
type Field string

const (
	FieldHeaderImage           Field = "header_image"
	FieldHeaderText            Field = "header_text"
	FieldHeaderTextColor       Field = "header_text_color"
	FieldHeaderBackgroundColor Field = "header_background_color"
	FieldFooterImage           Field = "footer_image"
	FieldFooterText            Field = "footer_text"
	FieldFooterTextColor       Field = "footer_text_color"
	FieldFooterBackgroundColor Field = "footer_background_color"
	FieldFooterBottomImage     Field = "footer_bottom_image"
)

// Fields lists every resolvable field in render order
var Fields = []Field{
	FieldHeaderImage,
	FieldHeaderText,
	FieldHeaderTextColor,
	FieldHeaderBackgroundColor,
	FieldFooterImage,
	FieldFooterText,
	FieldFooterTextColor,
	FieldFooterBackgroundColor,
	FieldFooterBottomImage,
}

// Appearance holds the optional header and footer attributes shared by
// templates and global defaults. A nil or empty value means "not set".
type Appearance struct {
	HeaderImage           *string `json:"headerImage,omitempty"`
	HeaderText            *string `json:"headerText,omitempty"`
	HeaderTextColor       *string `json:"headerTextColor,omitempty"`
	HeaderBackgroundColor *string `json:"headerBackgroundColor,omitempty"`
	FooterImage           *string `json:"footerImage,omitempty"`
	FooterText            *string `json:"footerText,omitempty"`
	FooterTextColor       *string `json:"footerTextColor,omitempty"`
	FooterBackgroundColor *string `json:"footerBackgroundColor,omitempty"`
	FooterBottomImage     *string `json:"footerBottomImage,omitempty"`
}

// Value returns the stored value for a field, or nil when the field is unknown
func (a *Appearance) Value(f Field) *string {
	switch f {
	case FieldHeaderImage:
		return a.HeaderImage
	case FieldHeaderText:
		return a.HeaderText
	case FieldHeaderTextColor:
		return a.HeaderTextColor
	case FieldHeaderBackgroundColor:
		return a.HeaderBackgroundColor
	case FieldFooterImage:
		return a.FooterImage
	case FieldFooterText:
		return a.FooterText
	case FieldFooterTextColor:
		return a.FooterTextColor
	case FieldFooterBackgroundColor:
		return a.FooterBackgroundColor
	case FieldFooterBottomImage:
		return a.FooterBottomImage
	}
	return nil
}

// Pointers returns addresses of every field in the order of Fields.
// Repositories use it to build column lists and scan targets.
func (a *Appearance) Pointers() []**string {
	return []**string{
		&a.HeaderImage,
		&a.HeaderText,
		&a.HeaderTextColor,
		&a.HeaderBackgroundColor,
		&a.FooterImage,
		&a.FooterText,
		&a.FooterTextColor,
		&a.FooterBackgroundColor,
		&a.FooterBottomImage,
	}
}

// EmailTemplate is a reusable, keyed email definition
type EmailTemplate struct {
	ID           string   `json:"id"`
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	Placeholders []string `json:"placeholders"`
	Appearance

	// Header and Footer are legacy override flags kept for schema
	// compatibility. Rendering only looks at the field values.
	Header bool `json:"header"`
	Footer bool `json:"footer"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GlobalEmailTemplate provides process-wide header/footer defaults
type GlobalEmailTemplate struct {
	ID string `json:"id"`
	Appearance
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RenderedEmail is a template with every field resolved and substituted
type RenderedEmail struct {
	Key     string `json:"key"`
	Subject string `json:"subject"`
	Body    string `json:"body"`

	HeaderImage           string `json:"headerImage"`
	HeaderText            string `json:"headerText"`
	HeaderTextColor       string `json:"headerTextColor"`
	HeaderBackgroundColor string `json:"headerBackgroundColor"`
	FooterImage           string `json:"footerImage"`
	FooterText            string `json:"footerText"`
	FooterTextColor       string `json:"footerTextColor"`
	FooterBackgroundColor string `json:"footerBackgroundColor"`
	FooterBottomImage     string `json:"footerBottomImage"`
}

// Set assigns a resolved field value
func (r *RenderedEmail) Set(f Field, v string) {
	switch f {
	case FieldHeaderImage:
		r.HeaderImage = v
	case FieldHeaderText:
		r.HeaderText = v
	case FieldHeaderTextColor:
		r.HeaderTextColor = v
	case FieldHeaderBackgroundColor:
		r.HeaderBackgroundColor = v
	case FieldFooterImage:
		r.FooterImage = v
	case FieldFooterText:
		r.FooterText = v
	case FieldFooterTextColor:
		r.FooterTextColor = v
	case FieldFooterBackgroundColor:
		r.FooterBackgroundColor = v
	case FieldFooterBottomImage:
		r.FooterBottomImage = v
	}
}
