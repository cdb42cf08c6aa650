package mtproto

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	xerrors "almudeer-service/internal/pkg/errors"

	"github.com/gotd/td/session"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

func TestMemorySessionEmpty(t *testing.T) {
	s := &memorySession{}

	if _, err := s.LoadSession(context.Background()); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("LoadSession on empty store = %v, want session.ErrNotFound", err)
	}
}

func TestMemorySessionRoundTrip(t *testing.T) {
	s := &memorySession{}
	ctx := context.Background()

	payload := []byte("session-bytes")
	if err := s.StoreSession(ctx, payload); err != nil {
		t.Fatalf("StoreSession: %v", err)
	}

	got, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("LoadSession = %q, want %q", got, payload)
	}

	// Mutating the caller's slice must not reach the stored copy.
	payload[0] = 'X'
	if b := s.Bytes(); !bytes.Equal(b, []byte("session-bytes")) {
		t.Fatalf("stored session aliased caller slice: %q", b)
	}
}

func TestMapError(t *testing.T) {
	c := NewClient(1, "hash", time.Second, zap.NewNop())

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "invalid code", in: tgerr.New(400, "PHONE_CODE_INVALID"), want: xerrors.ErrInvalidCode},
		{name: "expired code", in: tgerr.New(400, "PHONE_CODE_EXPIRED"), want: xerrors.ErrCodeExpired},
		{name: "unoccupied phone", in: tgerr.New(400, "PHONE_NUMBER_UNOCCUPIED"), want: xerrors.ErrPhoneUnoccupied},
		{name: "revoked session", in: tgerr.New(401, "SESSION_REVOKED"), want: xerrors.ErrSessionExpired},
		{name: "unregistered auth key", in: tgerr.New(401, "AUTH_KEY_UNREGISTERED"), want: xerrors.ErrSessionExpired},
		{name: "unknown provider error", in: errors.New("boom"), want: xerrors.ErrProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.mapError(tt.in); !errors.Is(got, tt.want) {
				t.Fatalf("mapError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMapErrorFloodWait(t *testing.T) {
	c := NewClient(1, "hash", time.Second, zap.NewNop())

	got := c.mapError(tgerr.New(420, "FLOOD_WAIT_30"))
	fw, ok := xerrors.AsFloodWait(got)
	if !ok {
		t.Fatalf("mapError flood wait = %v, want FloodWaitError", got)
	}
	if fw.Seconds != 30 {
		t.Fatalf("flood wait seconds = %d, want 30", fw.Seconds)
	}
}

func TestSentMessageID(t *testing.T) {
	if id := sentMessageID(&tg.UpdateShortSentMessage{ID: 42}); id != 42 {
		t.Fatalf("short sent message id = %d, want 42", id)
	}

	updates := &tg.Updates{
		Updates: []tg.UpdateClass{
			&tg.UpdateNewMessage{},
			&tg.UpdateMessageID{ID: 77},
		},
	}
	if id := sentMessageID(updates); id != 77 {
		t.Fatalf("updates envelope id = %d, want 77", id)
	}

	if id := sentMessageID(&tg.UpdatesTooLong{}); id != 0 {
		t.Fatalf("unknown envelope id = %d, want 0", id)
	}
}
