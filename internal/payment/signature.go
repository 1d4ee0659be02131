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

// DefaultSignatureTolerance bounds how far a webhook timestamp may
// drift from the local clock before the signature is rejected.
const DefaultSignatureTolerance = 5 * time.Minute

var errSignatureInvalid = errors.New("webhook signature verification failed")

// VerifySignature checks a webhook signature header of the form
// "t=<unix>,v1=<hex>" against the raw request body. The signed string
// is "<t>.<body>" and the MAC is HMAC-SHA256 keyed with the endpoint
// secret. All failure modes return the same error.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return errSignatureInvalid
	}

	drift := now.Sub(time.Unix(timestamp, 0))
	if drift < -tolerance || drift > tolerance {
		return errSignatureInvalid
	}

	expected := computeSignature(payload, timestamp, secret)
	for _, sig := range signatures {
		provided, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(provided, expected) {
			return nil
		}
	}

	return errSignatureInvalid
}

// SignPayload produces a signature header for the given body, used by
// tests and local webhook replay tooling.
func SignPayload(payload []byte, secret string, at time.Time) string {
	timestamp := at.Unix()
	mac := computeSignature(payload, timestamp, secret)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac))
}

func computeSignature(payload []byte, timestamp int64, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp  int64
		signatures []string
		sawT       bool
	)

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed timestamp: %w", err)
			}
			timestamp = ts
			sawT = true
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if !sawT || len(signatures) == 0 {
		return 0, nil, errors.New("missing timestamp or signature")
	}
	return timestamp, signatures, nil
}
