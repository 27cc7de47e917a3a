package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SMTPConfig
		wantErr string
	}{
		{"missing host", SMTPConfig{Port: 587, From: "noreply@x.com"}, "smtp host is required"},
		{"missing sender", SMTPConfig{Host: "localhost", Port: 587}, "sender address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewSMTPMailer(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSMTPMailer_SendRejectsBadAddresses(t *testing.T) {
	ctx := context.Background()

	t.Run("bad sender", func(t *testing.T) {
		m, err := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "not an address", Timeout: time.Second})
		require.NoError(t, err)

		err = m.Send(ctx, Message{To: "a@x.com", Subject: "s", Body: "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid sender address")
	})

	t.Run("bad recipient", func(t *testing.T) {
		m, err := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "noreply@x.com", Timeout: time.Second})
		require.NoError(t, err)

		err = m.Send(ctx, Message{To: "not an address", Subject: "s", Body: "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid recipient address")
	})
}

func TestLogMailer_Send(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := NewLogMailer(logger).Send(context.Background(), Message{
		To:      "a@x.com",
		Subject: "Reset",
		Body:    "link",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "to=a@x.com")
	assert.Contains(t, out, "subject=Reset")
	assert.Contains(t, out, "body=link")
}
