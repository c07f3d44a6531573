// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateKeypair(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	if !strings.HasPrefix(keypair.PrivateKey, "AGE-SECRET-KEY-1") {
		t.Errorf("PrivateKey prefix wrong: %.20q", keypair.PrivateKey)
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want prefix age1", keypair.PublicKey)
	}
	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey(generated) error: %v", err)
	}
}

func TestSealOpen(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	sealer, err := NewSealer([]string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("NewSealer() error: %v", err)
	}

	plaintext := "my password is hunter2hunter2"
	envelope, err := sealer.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if !IsSealed(envelope) {
		t.Fatalf("Seal() = %q, missing prefix", envelope)
	}
	if strings.Contains(envelope, "hunter2") {
		t.Error("envelope contains plaintext")
	}
	if _, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(envelope, Prefix)); err != nil {
		t.Errorf("envelope body is not base64: %v", err)
	}

	identities, err := ParseIdentities(strings.NewReader("# created for test\n" + keypair.PrivateKey + "\n"))
	if err != nil {
		t.Fatalf("ParseIdentities() error: %v", err)
	}
	opened, err := Open(envelope, identities...)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if opened != plaintext {
		t.Errorf("Open() = %q, want %q", opened, plaintext)
	}
}

func TestSealMultipleRecipients(t *testing.T) {
	first, _ := GenerateKeypair()
	second, _ := GenerateKeypair()
	sealer, err := NewSealer([]string{first.PublicKey, second.PublicKey})
	if err != nil {
		t.Fatal(err)
	}
	envelope, err := sealer.Seal("shared")
	if err != nil {
		t.Fatal(err)
	}
	for _, keypair := range []Keypair{first, second} {
		identities, err := ParseIdentities(strings.NewReader(keypair.PrivateKey))
		if err != nil {
			t.Fatal(err)
		}
		if opened, err := Open(envelope, identities...); err != nil || opened != "shared" {
			t.Errorf("Open with %s = %q, %v", keypair.PublicKey, opened, err)
		}
	}
}

func TestOpenWrongIdentity(t *testing.T) {
	owner, _ := GenerateKeypair()
	stranger, _ := GenerateKeypair()
	sealer, _ := NewSealer([]string{owner.PublicKey})
	envelope, err := sealer.Seal("private")
	if err != nil {
		t.Fatal(err)
	}
	identities, _ := ParseIdentities(strings.NewReader(stranger.PrivateKey))
	if _, err := Open(envelope, identities...); err == nil {
		t.Error("Open with the wrong identity should fail")
	}
	if _, err := Open(envelope); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Open without identities: err = %v, want ErrNoIdentity", err)
	}
}

func TestOpenPassesThroughPlainValues(t *testing.T) {
	for _, value := range []string{"", "plain text", "sealedish but not prefixed"} {
		opened, err := Open(value)
		if err != nil || opened != value {
			t.Errorf("Open(%q) = %q, %v", value, opened, err)
		}
	}
}

func TestSealEmpty(t *testing.T) {
	keypair, _ := GenerateKeypair()
	sealer, _ := NewSealer([]string{keypair.PublicKey})
	envelope, err := sealer.Seal("")
	if err != nil || envelope != "" {
		t.Errorf("Seal(\"\") = %q, %v; want empty", envelope, err)
	}
}

func TestNewSealerErrors(t *testing.T) {
	if _, err := NewSealer(nil); err == nil {
		t.Error("NewSealer(nil) should fail")
	}
	if _, err := NewSealer([]string{"age1notakey"}); err == nil {
		t.Error("NewSealer with an invalid key should fail")
	}
}

func TestLoadIdentities(t *testing.T) {
	keypair, _ := GenerateKeypair()
	path := filepath.Join(t.TempDir(), "identity.txt")
	if err := os.WriteFile(path, []byte(keypair.PrivateKey+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	identities, err := LoadIdentities(path)
	if err != nil {
		t.Fatalf("LoadIdentities() error: %v", err)
	}
	if len(identities) != 1 {
		t.Errorf("got %d identities, want 1", len(identities))
	}
	if _, err := LoadIdentities(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("LoadIdentities(missing) should fail")
	}
}
