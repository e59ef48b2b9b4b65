package emailbuilder

import "time"

// Appearance holds the optional header and footer attributes of a template
// or of the global defaults. Nil fields fall back on the server.
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

// Template is a stored email template.
type Template struct {
	ID                  string   `json:"id"`
	Key                 string   `json:"key"`
	Name                string   `json:"name"`
	Subject             string   `json:"subject"`
	Body                string   `json:"body"`
	Placeholders        []string `json:"placeholders"`
	PlaceholdersDisplay string   `json:"placeholdersDisplay"`
	Appearance
	Header    bool      `json:"header"`
	Footer    bool      `json:"footer"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TemplateInput creates or patches a template. Nil fields are left unchanged
// on update. Placeholders may be a list or comma separated text.
type TemplateInput struct {
	Key          *string     `json:"key,omitempty"`
	Name         *string     `json:"name,omitempty"`
	Subject      *string     `json:"subject,omitempty"`
	Body         *string     `json:"body,omitempty"`
	Placeholders interface{} `json:"placeholders,omitempty"`
	Appearance
	Header *bool `json:"header,omitempty"`
	Footer *bool `json:"footer,omitempty"`
}

// GlobalTemplate holds process-wide header and footer defaults.
type GlobalTemplate struct {
	ID string `json:"id"`
	Appearance
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RenderedEmail is a template with every field resolved and substituted.
type RenderedEmail struct {
	Key                   string `json:"key"`
	Subject               string `json:"subject"`
	Body                  string `json:"body"`
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

// Recipient is either an email address or a user ID resolved by the server.
type Recipient struct {
	Kind   string `json:"kind"`
	Email  string `json:"email,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// ToAddress addresses an email directly.
func ToAddress(email string) Recipient {
	return Recipient{Kind: "address", Email: email}
}

// ToUser addresses the user with the given ID.
func ToUser(userID string) Recipient {
	return Recipient{Kind: "user", UserID: userID}
}

// SendResult is returned by a synchronous send.
type SendResult struct {
	Status string         `json:"status"`
	Email  *RenderedEmail `json:"email"`
}

// QueuedResult is returned by an asynchronous send.
type QueuedResult struct {
	Status string `json:"status"`
	TaskID string `json:"taskId"`
}
