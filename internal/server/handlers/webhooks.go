package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/pysugar/airform/internal/logging"
	"github.com/pysugar/airform/internal/util"
	"github.com/pysugar/airform/internal/webhook"
	"gorm.io/gorm"
)

// SignatureHeader carries Airtable's timestamped HMAC signature.
const SignatureHeader = "Airtable-Signature"

// WebhookHandler receives Airtable change notifications. The raw body is
// verified against the signature before a single byte of it is parsed;
// nothing downstream ever runs on an unverified payload.
func WebhookHandler(database *gorm.DB, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawBody, err := io.ReadAll(r.Body)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Could not read request body.")
			return
		}

		signature := r.Header.Get(SignatureHeader)
		if !webhook.VerifySignature(signature, rawBody, secret, webhook.DefaultTolerance) {
			writeMessage(w, http.StatusUnauthorized, "Invalid webhook signature.")
			return
		}

		log.Printf("📬 [%s] Verified Airtable webhook: %s",
			logging.GetRequestID(r.Context()), util.TruncateBytes(rawBody))

		if err := webhook.ProcessNotification(database, rawBody); err != nil {
			log.Printf("❌ Error processing Airtable webhook: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to process webhook.")
			return
		}

		writeMessage(w, http.StatusOK, "Webhook received and processed.")
	}
}
