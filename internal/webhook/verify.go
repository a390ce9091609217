// Package webhook authenticates and processes inbound Airtable change
// notifications.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds replay exposure: notifications whose timestamp is
// further than this from now, in either direction, are rejected.
const DefaultTolerance = 5 * time.Minute

// VerifySignature checks that a notification genuinely originated from a
// holder of the shared webhook secret. The header has the form
// "t={unixSeconds},v1={hexHmac}" and the signature is HMAC-SHA256 over the
// exact byte string "{t}.{rawBody}".
//
// Ordered short-circuit pipeline; each rejection is logged distinctly but
// callers only see the boolean, and downstream processing must never run
// on false.
func VerifySignature(signatureHeader string, rawBody []byte, secret string, tolerance time.Duration) bool {
	if signatureHeader == "" || len(rawBody) == 0 || secret == "" {
		log.Printf("⚠️ Webhook rejected: signature header, body, or secret missing")
		return false
	}

	var (
		timestamp int64
		signature string
		haveTS    bool
	)
	for _, part := range strings.Split(signatureHeader, ",") {
		switch {
		case strings.HasPrefix(part, "t="):
			ts, err := strconv.ParseInt(strings.TrimPrefix(part, "t="), 10, 64)
			if err != nil {
				log.Printf("⚠️ Webhook rejected: unparseable timestamp in signature header")
				return false
			}
			timestamp = ts
			haveTS = true
		case strings.HasPrefix(part, "v1="):
			signature = strings.TrimPrefix(part, "v1=")
		}
	}
	if !haveTS || signature == "" {
		log.Printf("⚠️ Webhook rejected: could not extract timestamp or signature from header")
		return false
	}

	// Skew is tolerated in both directions: a slow delivery looks stale,
	// a fast clock looks like the future.
	skew := time.Now().Unix() - timestamp
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > tolerance {
		log.Printf("⚠️ Webhook rejected: timestamp %d outside tolerance window", timestamp)
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	// hmac.Equal is constant time; a short-circuiting comparison would
	// leak how many leading digits matched.
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		log.Printf("⚠️ Webhook rejected: signature mismatch")
		return false
	}

	return true
}
