// Package adaptive provides authenticated encryption that picks its
// algorithm from the host architecture.
//
// AES-256-GCM is used where Go has hardware AES (amd64, arm64) and
// ChaCha20-Poly1305 everywhere else. Ciphertexts carry their nonce as a
// prefix, so a Cipher needs nothing but the key to open them.
//
//	c, err := adaptive.FromHex(cfg.Sync.EncryptionKey)
//	sealed, err := c.Encrypt(plaintext, []byte("queue/op-01h..."))
//	plain, err := c.Decrypt(sealed, []byte("queue/op-01h..."))
//
// DeriveKey stretches one master key into independent per-purpose keys
// with HKDF-SHA256.
package adaptive
