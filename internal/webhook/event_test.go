package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	evt, err := ParseEvent([]byte(`{"object":"event","type":"user.deleted","data":{"id":"user_9","deleted":true}}`))
	require.NoError(t, err)
	assert.Equal(t, EventUserDeleted, evt.Type)
	assert.Equal(t, "user_9", evt.DataID())

	_, err = ParseEvent([]byte(`{"data":{"id":"user_9"}}`))
	assert.ErrorIs(t, err, errInvalidPayload, "type is required")

	_, err = ParseEvent([]byte(`{"type":"user.created"}`))
	assert.ErrorIs(t, err, errInvalidPayload, "data is required")
}

func TestUserData_NewUser(t *testing.T) {
	username := "alice"
	d := UserData{
		ID: "ext_1",
		EmailAddresses: []EmailAddress{
			{EmailAddress: "first@example.com"},
			{EmailAddress: "second@example.com"},
		},
		Username: &username,
	}

	u, err := d.NewUser()
	require.NoError(t, err)
	assert.Equal(t, "ext_1", u.ClerkID)
	assert.Equal(t, "first@example.com", u.Email)
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, u.FirstName)

	_, err = UserData{ID: "ext_2"}.NewUser()
	assert.ErrorIs(t, err, errInvalidPayload)
}

func TestDecodeData_RequiresID(t *testing.T) {
	_, err := decodeData[DeletedData](Event{Type: EventUserDeleted, Data: []byte(`{"deleted":true}`)})
	assert.ErrorIs(t, err, errInvalidPayload)

	_, err = decodeData[UserData](Event{Type: EventUserCreated, Data: []byte(`{"id":"x","email_addresses":[{"email_address":""}]}`)})
	assert.ErrorIs(t, err, errInvalidPayload, "empty email entries are rejected")
}
