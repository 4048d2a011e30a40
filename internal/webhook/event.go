package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/evently/webhook-service/internal/user"
)

// EventType discriminates identity provider webhook payloads.
type EventType string

const (
	EventUserCreated EventType = "user.created"
	EventUserUpdated EventType = "user.updated"
	EventUserDeleted EventType = "user.deleted"
)

var errInvalidPayload = errors.New("invalid event payload")

var validate = validator.New()

// Event is the webhook envelope. Data is decoded according to Type.
type Event struct {
	Type   EventType       `json:"type" validate:"required"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data" validate:"required"`
}

// EmailAddress is one entry of a user's email_addresses.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address" validate:"required"`
}

// UserData is the data body of user.created and user.updated events.
// Nullable provider fields are pointers so absence is explicit.
type UserData struct {
	ID                    string         `json:"id" validate:"required"`
	EmailAddresses        []EmailAddress `json:"email_addresses" validate:"omitempty,dive"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id"`
	Username              *string        `json:"username"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              *string        `json:"image_url"`
}

// DeletedData is the data body of user.deleted events.
type DeletedData struct {
	ID      string `json:"id" validate:"required"`
	Deleted bool   `json:"deleted"`
}

// ParseEvent decodes and validates the envelope.
func ParseEvent(body []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	if err := validate.Struct(evt); err != nil {
		return Event{}, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return evt, nil
}

// DataID returns data.id without interpreting the rest of the body.
func (e Event) DataID() string {
	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(e.Data, &probe)
	return probe.ID
}

func decodeData[T any](e Event) (T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return data, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	if err := validate.Struct(data); err != nil {
		return data, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return data, nil
}

// NewUser maps a user.created body onto a local record. The first listed
// email address is used; at least one is required.
func (d UserData) NewUser() (user.User, error) {
	if len(d.EmailAddresses) == 0 {
		return user.User{}, fmt.Errorf("%w: user %s has no email address", errInvalidPayload, d.ID)
	}
	return user.User{
		ClerkID:   d.ID,
		Email:     d.EmailAddresses[0].EmailAddress,
		Username:  deref(d.Username),
		FirstName: deref(d.FirstName),
		LastName:  deref(d.LastName),
		Photo:     deref(d.ImageURL),
	}, nil
}

// Update maps a user.updated body onto the mutable fields.
func (d UserData) Update() user.Update {
	return user.Update{
		FirstName: deref(d.FirstName),
		LastName:  deref(d.LastName),
		Username:  deref(d.Username),
		Photo:     deref(d.ImageURL),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
