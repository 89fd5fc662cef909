package adaptive

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

var key32 = func() []byte {
	k := make([]byte, KeySize)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}()

func TestNew(t *testing.T) {
	c, err := New(key32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Type() != CipherAESGCM && c.Type() != CipherChaCha20 {
		t.Errorf("New() returned unknown cipher type %s", c.Type())
	}
}

func TestNewWithType(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		typ     CipherType
		wantErr bool
	}{
		{"aes", key32, CipherAESGCM, false},
		{"chacha", key32, CipherChaCha20, false},
		{"short key", key32[:16], CipherAESGCM, true},
		{"unknown", key32, "rot13", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWithType(tt.key, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWithType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Type() != tt.typ {
				t.Errorf("Type() = %s, want %s", c.Type(), tt.typ)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			c, err := NewWithType(key32, typ)
			if err != nil {
				t.Fatalf("NewWithType() error = %v", err)
			}

			plain := []byte(`{"kind":"save_user_data"}`)
			aad := []byte("queue/op-1")

			sealed, err := c.Encrypt(plain, aad)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(sealed) != len(plain)+c.Overhead() {
				t.Errorf("sealed length = %d, want %d", len(sealed), len(plain)+c.Overhead())
			}

			got, err := c.Decrypt(sealed, aad)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(got, plain) {
				t.Errorf("Decrypt() = %q, want %q", got, plain)
			}

			if _, err := c.Decrypt(sealed, []byte("queue/op-2")); err == nil {
				t.Error("Decrypt() with wrong additional data should fail")
			}
			if _, err := c.Decrypt(sealed[:4], aad); !errors.Is(err, ErrCiphertextTooShort) {
				t.Errorf("Decrypt(short) error = %v, want ErrCiphertextTooShort", err)
			}
		})
	}
}

func TestFromHex(t *testing.T) {
	if _, err := FromHex(hex.EncodeToString(key32)); err != nil {
		t.Errorf("FromHex(valid) error = %v", err)
	}
	if _, err := FromHex("zz"); err == nil {
		t.Error("FromHex(non-hex) should fail")
	}
	if _, err := FromHex("abcd"); !errors.Is(err, ErrKeySize) {
		t.Errorf("FromHex(short) error = %v, want ErrKeySize", err)
	}
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey(key32, "queue")
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	b, _ := DeriveKey(key32, "session")
	again, _ := DeriveKey(key32, "queue")

	if len(a) != KeySize {
		t.Errorf("derived key length = %d", len(a))
	}
	if bytes.Equal(a, b) {
		t.Error("different purposes produced the same key")
	}
	if !bytes.Equal(a, again) {
		t.Error("DeriveKey() is not deterministic")
	}
}
