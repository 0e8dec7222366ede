// Package conn implements the connection framing described in §4.7: a
// little-endian 16-bit length prefix followed by a ChaCha20-Poly1305
// ciphertext, encrypted with a zero nonce for both the handshake frame and
// every frame after it (the session key changes per connection; the nonce
// does not, since §4.7 names no per-frame nonce schedule).
package conn

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// MaxFrameSize is the largest ciphertext a single frame may carry. A larger
// declared length is a protocol violation (§7 category 1): the caller
// should drop the connection without responding.
const MaxFrameSize = 32 * 1024

// ErrFrameTooLarge is returned when a frame's declared or actual length
// exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("conn: frame exceeds 32 KiB")

// HandshakePayload is the exact plaintext a handshake frame must decrypt to.
var HandshakePayload = [4]byte{0, 0, 0, 0}

// NewAEAD constructs a ChaCha20-Poly1305 AEAD from a 32-byte key.
func NewAEAD(key [32]byte) (cipher.AEAD, error) {
	return chacha20poly1305.New(key[:])
}

// ReadRawFrame reads one length-prefixed frame from r without decrypting
// it, for the handshake path where the key is not yet known.
func ReadRawFrame(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint16(lenBuf[:])
	if int(n) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	ciphertext := make([]byte, n)
	if _, err := io.ReadFull(r, ciphertext); err != nil {
		return nil, err
	}
	return ciphertext, nil
}

// OpenWithKey decrypts ciphertext against key using the fixed zero nonce.
func OpenWithKey(key [32]byte, ciphertext []byte) ([]byte, error) {
	aead, err := NewAEAD(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	return aead.Open(nil, nonce[:], ciphertext, nil)
}

// ReadFrame reads and decrypts one frame from r using aead.
func ReadFrame(r io.Reader, aead cipher.AEAD) ([]byte, error) {
	ciphertext, err := ReadRawFrame(r)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	plaintext, err := aead.Open(ciphertext[:0], nonce[:], ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("conn: decrypt frame: %w", err)
	}
	return plaintext, nil
}

// WriteFrame encrypts plaintext with aead and writes it to w as a
// length-prefixed frame.
func WriteFrame(w io.Writer, aead cipher.AEAD, plaintext []byte) error {
	var nonce [chacha20poly1305.NonceSize]byte
	ciphertext := aead.Seal(nil, nonce[:], plaintext, nil)
	if len(ciphertext) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(ciphertext)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(ciphertext)
	return err
}
