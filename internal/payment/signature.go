package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrStaleSignature     = errors.New("signature timestamp outside allowed window")
	ErrInvalidSignature   = errors.New("signature does not match payload")
)

// DefaultSignatureWindow bounds replay of captured callbacks.
const DefaultSignatureWindow = 5 * time.Minute

// Sign produces a "t=<unix>,v1=<hex>" header over ts.body, the shape payment
// providers use for webhook signing.
func Sign(secret []byte, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// Verify checks an inbound callback signature against the raw body. The
// timestamp must fall within window of now; outside it the callback is
// treated as a replay and rejected.
func Verify(secret []byte, header string, body []byte, window time.Duration) error {
	var tsPart, sigPart string
	for _, part := range strings.Split(header, ",") {
		switch {
		case strings.HasPrefix(part, "t="):
			tsPart = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			sigPart = strings.TrimPrefix(part, "v1=")
		}
	}
	if tsPart == "" || sigPart == "" {
		return ErrMalformedSignature
	}

	unix, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return ErrMalformedSignature
	}
	ts := time.Unix(unix, 0)
	age := time.Since(ts)
	if age > window || age < -window {
		return ErrStaleSignature
	}

	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", unix)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sigPart)) {
		return ErrInvalidSignature
	}
	return nil
}
