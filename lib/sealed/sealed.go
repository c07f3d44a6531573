// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// Prefix marks a sealed envelope.
const Prefix = "sealed:"

// ErrNoIdentity is returned by Open for a sealed value when no
// identities were supplied.
var ErrNoIdentity = errors.New("sealed value requires an identity")

// Keypair holds an age x25519 keypair as strings.
type Keypair struct {
	// PrivateKey is the secret key in AGE-SECRET-KEY-1... format.
	PrivateKey string

	// PublicKey is the corresponding recipient in age1... format.
	PublicKey string
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return Keypair{}, fmt.Errorf("generating age keypair: %w", err)
	}
	return Keypair{
		PrivateKey: identity.String(),
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// Sealer encrypts text to a fixed set of recipients. Safe for
// concurrent use.
type Sealer struct {
	recipients []age.Recipient
}

// NewSealer parses recipient public keys. At least one is required.
func NewSealer(recipientKeys []string) (*Sealer, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return &Sealer{recipients: recipients}, nil
}

// Seal encrypts plaintext and returns the envelope. Empty plaintext is
// returned as the empty string so absent fields stay absent.
func (sealer *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, sealer.recipients...)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(writer, plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	return Prefix + base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// IsSealed reports whether value is a sealed envelope.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Open decrypts a sealed envelope. Values that are not sealed are
// returned unchanged.
func Open(value string, identities ...age.Identity) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if len(identities) == 0 {
		return "", ErrNoIdentity
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("decoding base64 ciphertext: %w", err)
	}
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return string(plaintext), nil
}

// ParseIdentities reads age identities in the identity-file format:
// one AGE-SECRET-KEY-1... per line, with blank lines and # comments
// ignored.
func ParseIdentities(reader io.Reader) ([]age.Identity, error) {
	identities, err := age.ParseIdentities(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing identities: %w", err)
	}
	return identities, nil
}

// LoadIdentities reads an age identity file.
func LoadIdentities(path string) ([]age.Identity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer file.Close()
	return ParseIdentities(file)
}

// ParsePublicKey validates an age public key string.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}
