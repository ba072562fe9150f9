// Package qr renders session tokens as scannable codes. The payload is the
// raw session id string with no envelope; all trust decisions happen in the
// verification gate when the code is scanned back.
package qr

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// EncodePNG renders the given session token as a PNG image.
func EncodePNG(token string, size int) ([]byte, error) {
	if token == "" {
		return nil, errors.New("token required")
	}
	if size <= 0 {
		size = defaultSize
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}
