package loginhandle

import (
	"bytes"
	"errors"
	"testing"
	"time"

	xerrors "almudeer-service/internal/pkg/errors"
)

func TestIssueParseRoundTrip(t *testing.T) {
	m := NewManager([]byte("handle-secret"), 10*time.Minute)

	session := []byte{0x01, 0x02, 0x03}
	handle, err := m.Issue("+963912345678", "abc123hash", session)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Parse(handle)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.PhoneNumber != "+963912345678" {
		t.Fatalf("PhoneNumber = %q, want embedded phone", claims.PhoneNumber)
	}
	if claims.PhoneCodeHash != "abc123hash" {
		t.Fatalf("PhoneCodeHash = %q", claims.PhoneCodeHash)
	}
	if !bytes.Equal(claims.Session, session) {
		t.Fatalf("Session = %v, want %v", claims.Session, session)
	}
	if claims.IssuedNano == 0 {
		t.Fatal("IssuedNano not set")
	}
}

func TestIssuedNanoMonotonic(t *testing.T) {
	m := NewManager([]byte("handle-secret"), 10*time.Minute)

	var prev int64
	for i := 0; i < 5; i++ {
		handle, err := m.Issue("+963912345678", "hash", nil)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		claims, err := m.Parse(handle)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if claims.IssuedNano <= prev {
			t.Fatalf("IssuedNano %d not increasing past %d", claims.IssuedNano, prev)
		}
		prev = claims.IssuedNano
	}
}

func TestParseExpired(t *testing.T) {
	m := NewManager([]byte("handle-secret"), 10*time.Minute)

	handle, err := m.Issue("+963912345678", "hash", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Move the clock past the TTL.
	m.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if _, err := m.Parse(handle); !errors.Is(err, xerrors.ErrLoginExpired) {
		t.Fatalf("Parse expired handle error = %v, want ErrLoginExpired", err)
	}
}

func TestParseTampered(t *testing.T) {
	m := NewManager([]byte("handle-secret"), 10*time.Minute)

	handle, err := m.Issue("+963912345678", "hash", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := handle[:len(handle)-2] + "xx"
	if _, err := m.Parse(tampered); !errors.Is(err, xerrors.ErrLoginExpired) {
		t.Fatalf("Parse tampered handle error = %v, want ErrLoginExpired", err)
	}
}

func TestParseForeignSecret(t *testing.T) {
	issuer := NewManager([]byte("secret-a"), 10*time.Minute)
	verifier := NewManager([]byte("secret-b"), 10*time.Minute)

	handle, err := issuer.Issue("+963912345678", "hash", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Parse(handle); !errors.Is(err, xerrors.ErrLoginExpired) {
		t.Fatalf("Parse with wrong secret error = %v, want ErrLoginExpired", err)
	}
}
