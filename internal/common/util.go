package common

// WipeByteArray zeroes b in place. Master passwords, derived keys and
// decrypted plaintext go through it once they are no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
