package checksumfile

import (
	"bytes"
	"hash"

	"golang.org/x/crypto/sha3"
)

func newHash() hash.Hash {
	return sha3.New256()
}

func computeHash(data []byte, h hash.Hash) ([]byte, error) {
	h.Reset()
	if _, err := h.Write(data); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func valid(checksum []byte, data []byte, h hash.Hash) bool {
	cksm, err := computeHash(data, h)
	if err != nil {
		return false
	}
	return bytes.Equal(checksum, cksm)
}
