package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ruteri/contract-analysis-backend/interfaces"
)

// TopicPayment is the only webhook topic that updates the ledger.
const TopicPayment = "payment"

// Notification is the part of a provider webhook the service acts on.
type Notification struct {
	Topic  string
	DataID string
}

type notificationBody struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
	ID json.RawMessage `json:"id"`
}

// ParseNotification reads the topic and resource id from the query string
// (type|topic, data.id|id), falling back to the JSON body.
func ParseNotification(query url.Values, body []byte) Notification {
	n := Notification{
		Topic:  firstNonEmpty(query.Get("type"), query.Get("topic")),
		DataID: firstNonEmpty(query.Get("data.id"), query.Get("id")),
	}
	if n.Topic != "" && n.DataID != "" {
		return n
	}

	var b notificationBody
	if len(body) == 0 || json.Unmarshal(body, &b) != nil {
		return n
	}

	if n.Topic == "" {
		n.Topic = firstNonEmpty(b.Type, b.Topic)
		// "payment.created", "payment.updated"
		if n.Topic == "" && b.Action != "" {
			n.Topic, _, _ = strings.Cut(b.Action, ".")
		}
	}
	if n.DataID == "" {
		n.DataID = firstNonEmpty(rawID(b.Data.ID), rawID(b.ID))
	}
	return n
}

// IsPayment reports whether the notification refers to a payment resource.
func (n Notification) IsPayment() bool {
	return n.Topic == TopicPayment && n.DataID != ""
}

// rawID accepts both string and numeric ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// VerifySignature checks the x-signature header of a webhook against secret.
// The header has the form "ts=<unix>,v1=<hex hmac>" and the signed manifest is
// "id:<data id>;request-id:<x-request-id>;ts:<ts>;".
func VerifySignature(secret, signatureHeader, requestID, dataID string) error {
	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: malformed signature header", interfaces.ErrInvalidSignature)
	}

	expected := signManifest(secret, manifest(dataID, requestID, ts))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return interfaces.ErrInvalidSignature
	}
	return nil
}

func manifest(dataID, requestID, ts string) string {
	var sb strings.Builder
	if dataID != "" {
		// Alphanumeric ids are signed in lower case.
		sb.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		sb.WriteString("request-id:" + requestID + ";")
	}
	sb.WriteString("ts:" + ts + ";")
	return sb.String()
}

func signManifest(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}
