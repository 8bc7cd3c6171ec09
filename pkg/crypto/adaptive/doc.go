// Package adaptive provides authenticated encryption with hardware-aware
// algorithm selection.
//
// Supported algorithms:
//
//   - AES-256-GCM: preferred when the CPU accelerates AES
//   - ChaCha20-Poly1305: used everywhere else
//
// Every ciphertext carries its own random nonce as a prefix, so a Cipher is
// safe for concurrent use and a key may seal many messages.
//
// Usage:
//
//	c, err := adaptive.NewWithType(key, adaptive.CipherChaCha20)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
