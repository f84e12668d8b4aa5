package loratext

// Transform XORs every byte of data with the key, repeating the key as needed.
// Applying it twice with the same key restores the input. It is obfuscation, not encryption.
func Transform(data []byte, key string) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out, nil
}
