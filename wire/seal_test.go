package wire

import "testing"

func TestSealOpen_RoundTrip(t *testing.T) {
	var secret [32]byte
	for i := range secret {
		secret[i] = byte(i)
	}

	plaintext := []byte("a fragment payload")
	sealed, err := Seal(secret, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if string(sealed) == string(plaintext) {
		t.Fatal("sealed output equals plaintext")
	}

	opened, err := Open(secret, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(opened) != string(plaintext) {
		t.Fatalf("opened = %q, want %q", opened, plaintext)
	}
}

func TestOpen_WrongSecretFails(t *testing.T) {
	var secretA, secretB [32]byte
	secretB[0] = 1

	sealed, err := Seal(secretA, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(secretB, sealed); err == nil {
		t.Fatal("expected Open with wrong secret to fail")
	}
}

func TestOpen_TooShort(t *testing.T) {
	var secret [32]byte
	if _, err := Open(secret, []byte{1, 2, 3}); err != ErrSealedTooShort {
		t.Fatalf("err = %v, want ErrSealedTooShort", err)
	}
}
