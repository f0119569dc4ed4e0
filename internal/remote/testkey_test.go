package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"

	"golang.org/x/crypto/ssh"
)

// testKeyPair generates a throwaway ed25519 key pair PEM-encoded the same
// way sshimmer does, for use only by this package's own tests.
func testKeyPair() (ssh.PublicKey, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, nil, err
	}

	pemBlock, err := ssh.MarshalPrivateKey(priv, "remote test key")
	if err != nil {
		return nil, nil, err
	}

	return sshPub, pem.EncodeToMemory(pemBlock), nil
}
