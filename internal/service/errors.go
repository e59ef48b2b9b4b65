package service

import "errors"

// Service errors
var (
	ErrInvalidTemplate   = errors.New("invalid email template")
	ErrInvalidRecipient  = errors.New("invalid recipient")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrDeliveryFailed    = errors.New("email delivery failed")
	ErrQueueUnavailable  = errors.New("send queue is not configured")
)
