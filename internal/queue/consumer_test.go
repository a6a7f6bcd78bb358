package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	to      string
	subject string
	body    string
}

func (r *recordingSender) Send(to, subject, textBody string) error {
	r.to, r.subject, r.body = to, subject, textBody
	return nil
}

func TestHandleMessageDeliversCode(t *testing.T) {
	ev := OTPRequestedEvent{
		Email:        "ann@test.com",
		Code:         "123456",
		Purpose:      "login",
		ExpiresInMin: 10,
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var sender recordingSender
	require.NoError(t, handleMessage(body, &sender))
	assert.Equal(t, "ann@test.com", sender.to)
	assert.Equal(t, "Your verification code", sender.subject)
	assert.Contains(t, sender.body, "123456")
	assert.Contains(t, sender.body, "10 minutes")
}

func TestHandleMessagePasswordResetSubject(t *testing.T) {
	body, err := json.Marshal(OTPRequestedEvent{
		Email: "ann@test.com", Code: "654321", Purpose: "password_reset", ExpiresInMin: 10,
	})
	require.NoError(t, err)

	var sender recordingSender
	require.NoError(t, handleMessage(body, &sender))
	assert.Equal(t, "Your password reset code", sender.subject)
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	var sender recordingSender
	assert.Error(t, handleMessage([]byte("{not json"), &sender))
	assert.Error(t, handleMessage([]byte(`{"email":"","code":"123456"}`), &sender))
	assert.Error(t, handleMessage([]byte(`{"email":"ann@test.com","code":""}`), &sender))
	assert.Empty(t, sender.to)
}
