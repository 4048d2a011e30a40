package clerk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePublicMetadata(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotAuth   string
		gotBody   metadataRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"user_1"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("sk_test_123", srv.URL+"/")
	err := c.UpdatePublicMetadata(context.Background(), "user_1", map[string]any{"userId": "64f0"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/users/user_1/metadata", gotPath)
	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "64f0", gotBody.PublicMetadata["userId"])
}

func TestUpdatePublicMetadata_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"code":"resource_not_found","message":"not found"}]}`))
	}))
	t.Cleanup(srv.Close)

	err := NewClient("sk_test_123", srv.URL).UpdatePublicMetadata(context.Background(), "user_x", map[string]any{"userId": "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "not found")
}

func TestUpdatePublicMetadata_Disabled(t *testing.T) {
	c := NewClient("", "")
	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.UpdatePublicMetadata(context.Background(), "user_1", nil), ErrDisabled)
}
