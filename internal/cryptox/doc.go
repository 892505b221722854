// Package cryptox holds the client-side crypto surface of the vault:
// master-key derivation (PBKDF2-SHA256) and per-item authenticated
// encryption (AES-256-GCM).
//
// Nothing in this package is ever called by the server. The derived key and
// the master password stay on the client; only the base64 salt, ciphertext
// and IV cross the network.
package cryptox
