package sessioncipher

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := New([]byte("unit-test-master-key"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plaintext := []byte("1BVtsOKwBu6...session-string")
	sealed, err := c.Encrypt(42, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := c.Decrypt(42, sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestDecryptWrongLicenseFails(t *testing.T) {
	c, err := New([]byte("unit-test-master-key"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sealed, err := c.Encrypt(1, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := c.Decrypt(2, sealed); err == nil {
		t.Fatal("expected decryption under another license key to fail")
	}
}

func TestDecryptTamperedFails(t *testing.T) {
	c, err := New([]byte("unit-test-master-key"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sealed, err := c.Encrypt(1, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xFF

	if _, err := c.Decrypt(1, sealed); err == nil {
		t.Fatal("expected tampered ciphertext to fail")
	}
}

func TestDecryptTruncatedFails(t *testing.T) {
	c, err := New([]byte("unit-test-master-key"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Decrypt(1, []byte("short")); err == nil {
		t.Fatal("expected truncated ciphertext to fail")
	}
}

func TestNewEmptyKey(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected empty master key to be rejected")
	}
}
