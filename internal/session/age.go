package session

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Sealed tokens are stored as ENC[age:<base64>].
const (
	sealPrefix = "ENC[age:"
	sealSuffix = "]"
)

// GenerateIdentity creates an X25519 key pair and writes it to path with 0o600.
// It is idempotent: if the file already exists, it does nothing.
func GenerateIdentity(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generate age identity: %w", err)
	}

	content := fmt.Sprintf("# created by taskdeck\n# public key: %s\n%s\n",
		identity.Recipient().String(), identity.String())

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write age key: %w", err)
	}
	return nil
}

// LoadIdentity reads an age private key from the given file.
func LoadIdentity(path string) (*age.X25519Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open age key: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse age identities: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", path)
	}
	id, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("unexpected identity type in %s", path)
	}
	return id, nil
}

// sealToken encrypts the bearer token for session.json so a copied session
// file is useless without the local .age-key.
func sealToken(token string, recipient age.Recipient) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", fmt.Errorf("seal token: %w", err)
	}
	if _, err := io.WriteString(w, token); err != nil {
		return "", fmt.Errorf("seal token: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("seal token: %w", err)
	}
	return sealPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + sealSuffix, nil
}

// openToken reverses sealToken. A key other than the one that sealed the
// token fails here, and the caller treats the session as unreadable.
func openToken(sealed string, identity age.Identity) (string, error) {
	if !isSealed(sealed) {
		return "", errors.New("token is not sealed")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(strings.TrimPrefix(sealed, sealPrefix), sealSuffix))
	if err != nil {
		return "", fmt.Errorf("open token: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return "", fmt.Errorf("open token: %w", err)
	}
	token, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("open token: %w", err)
	}
	return string(token), nil
}

// isSealed reports whether a stored token was written by sealToken. Plain
// tokens from hand-edited session files are accepted as they are.
func isSealed(s string) bool {
	return strings.HasPrefix(s, sealPrefix) && strings.HasSuffix(s, sealSuffix)
}
