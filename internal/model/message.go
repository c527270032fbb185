package model

import (
	"time"
)

// Direction indicates which side of the thread a message came from.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// ThreadMessage is one message in a guest conversation thread.
// Threads are append-only from the channel's perspective and chronological.
type ThreadMessage struct {
	ID        int64     `json:"id"`
	ThreadKey string    `json:"thread_key"`
	Direction Direction `json:"direction"`
	Sender    string    `json:"sender,omitempty"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// InboundMessage is the channel webhook payload for a new guest message.
type InboundMessage struct {
	ThreadKey    string `json:"thread_key"`
	PropertyCode string `json:"property_code,omitempty"`
	GuestName    string `json:"guest_name,omitempty"`
	Sender       string `json:"sender,omitempty"`
	Body         string `json:"body"`
	CheckinDate  string `json:"checkin_date,omitempty"`
	CheckoutDate string `json:"checkout_date,omitempty"`
}
