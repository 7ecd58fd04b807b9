package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSubmissionReceived(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", Endpoint: srv.URL, MailFrom: "hello@bizmart.ng"}
	err := c.SendSubmissionReceived(context.Background(), "ada@example.com", "Ada", "Mama <Put> Kitchen")
	require.NoError(t, err)

	assert.Equal(t, "k", apiKey)
	assert.Equal(t, "hello@bizmart.ng", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "ada@example.com", got.To[0].Email)
	assert.Contains(t, got.HTMLContent, "Mama &lt;Put&gt; Kitchen")
}

func TestSend_NoAPIKeyIsNoop(t *testing.T) {
	c := &BrevoClient{Endpoint: "http://127.0.0.1:1"}
	assert.NoError(t, c.SendSubmissionReceived(context.Background(), "a@b.c", "", "x"))
}

func TestSend_Non2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	c := &BrevoClient{APIKey: "k", Endpoint: srv.URL}
	err := c.SendSubmissionReceived(context.Background(), "a@b.c", "A", "x")
	assert.ErrorContains(t, err, "status 400")
}
