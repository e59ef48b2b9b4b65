package model

// RecipientKind tells how a recipient was identified
type RecipientKind string

const (
	RecipientAddress RecipientKind = "address"
	RecipientUser    RecipientKind = "user"
)

// Recipient is either a raw email address or a reference to a user whose
// address is looked up at send time. Exactly one of Email and UserID is set.
type Recipient struct {
	Kind   RecipientKind `json:"kind"`
	Email  string        `json:"email,omitempty"`
	UserID string        `json:"userId,omitempty"`
}

// AddressRecipient builds a recipient from an email address
func AddressRecipient(email string) Recipient {
	return Recipient{Kind: RecipientAddress, Email: email}
}

// UserRecipient builds a recipient from a user ID
func UserRecipient(userID string) Recipient {
	return Recipient{Kind: RecipientUser, UserID: userID}
}

// String returns a loggable identifier for the recipient
func (r Recipient) String() string {
	if r.Kind == RecipientUser {
		return "user:" + r.UserID
	}
	return r.Email
}
