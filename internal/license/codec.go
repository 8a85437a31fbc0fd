package license

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Key format: PF- followed by four dash-separated groups of four uppercase
// alphanumerics, e.g. PF-AB12-CD34-EF56-GH78.
var keyPattern = regexp.MustCompile(`^PF-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// TrialRecord is the persisted trial ledger entry for this installation.
// Created once when the trial starts; superseded by a FullLicense.
type TrialRecord struct {
	StartedAt   time.Time `json:"started_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Fingerprint string    `json:"fingerprint"`
}

// FullLicense is the persisted activation record. Once written it is never
// silently replaced by a trial.
type FullLicense struct {
	Key         string    `json:"key"`
	ActivatedAt time.Time `json:"activated_at"`
	Fingerprint string    `json:"fingerprint"`
	Type        string    `json:"type"`
}

// TrialLedger records every fingerprint that has ever started a trial, so
// clearing the trial record does not reset eligibility.
type TrialLedger struct {
	Fingerprints []string `json:"fingerprints"`
}

// Contains reports whether fp already started a trial.
func (l *TrialLedger) Contains(fp string) bool {
	for _, known := range l.Fingerprints {
		if known == fp {
			return true
		}
	}
	return false
}

// Codec interprets and constructs license material: key format validation,
// offline signature verification, and the tamper-evident envelope used for
// persisted records.
type Codec struct {
	issuerKey  ed25519.PublicKey
	hmacSecret []byte
}

// NewCodec creates a codec. issuerKey is the Ed25519 public key of the
// license issuing authority; hmacSecret keys the integrity envelope around
// persisted records.
func NewCodec(issuerKey ed25519.PublicKey, hmacSecret []byte) (*Codec, error) {
	if len(issuerKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("issuer key must be %d bytes, got %d", ed25519.PublicKeySize, len(issuerKey))
	}
	if len(hmacSecret) == 0 {
		return nil, fmt.Errorf("hmac secret is required")
	}
	return &Codec{issuerKey: issuerKey, hmacSecret: hmacSecret}, nil
}

// ValidateFormat reports whether key matches PF-XXXX-XXXX-XXXX-XXXX. Pure.
func ValidateFormat(key string) bool {
	return keyPattern.MatchString(key)
}

// NormalizeKey uppercases a key and restores the dashed grouping, accepting
// input typed with or without dashes.
func NormalizeKey(key string) string {
	clean := strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(key, "-", ""), " ", ""))
	if len(clean) != 18 || !strings.HasPrefix(clean, "PF") {
		return strings.ToUpper(strings.TrimSpace(key))
	}
	body := clean[2:]
	return fmt.Sprintf("PF-%s-%s-%s-%s", body[0:4], body[4:8], body[8:12], body[12:16])
}

// VerifyKey checks format first, then verifies the detached Ed25519
// signature over the normalized key. A syntactically valid key with a bad
// signature is not a license.
func (c *Codec) VerifyKey(key string, signature []byte) error {
	normalized := NormalizeKey(key)
	if !ValidateFormat(normalized) {
		return ErrInvalidFormat
	}
	if !ed25519.Verify(c.issuerKey, []byte(normalized), signature) {
		return ErrInvalidLicense
	}
	return nil
}

// envelope wraps a serialized record with an HMAC-SHA256 tag. The whole
// envelope is base64-encoded for storage as an opaque string.
type envelope struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

func (c *Codec) seal(record any) (string, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	env := envelope{Payload: payload, Signature: c.sign(payload)}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (c *Codec) open(blob string, record any) error {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return ErrCorruptRecord
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ErrCorruptRecord
	}
	expected := c.sign(env.Payload)
	if !hmac.Equal([]byte(env.Signature), []byte(expected)) {
		return ErrCorruptRecord
	}
	if err := json.Unmarshal(env.Payload, record); err != nil {
		return ErrCorruptRecord
	}
	return nil
}

func (c *Codec) sign(payload []byte) string {
	h := hmac.New(sha256.New, c.hmacSecret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeTrial seals a trial record into an opaque blob.
func (c *Codec) EncodeTrial(record TrialRecord) (string, error) { return c.seal(record) }

// DecodeTrial opens a trial blob; integrity failure yields ErrCorruptRecord,
// never partial data.
func (c *Codec) DecodeTrial(blob string) (TrialRecord, error) {
	var record TrialRecord
	if err := c.open(blob, &record); err != nil {
		return TrialRecord{}, err
	}
	return record, nil
}

// EncodeLicense seals a full license record.
func (c *Codec) EncodeLicense(record FullLicense) (string, error) { return c.seal(record) }

// DecodeLicense opens a license blob.
func (c *Codec) DecodeLicense(blob string) (FullLicense, error) {
	var record FullLicense
	if err := c.open(blob, &record); err != nil {
		return FullLicense{}, err
	}
	return record, nil
}

// EncodeLedger seals the trial ledger.
func (c *Codec) EncodeLedger(ledger TrialLedger) (string, error) { return c.seal(ledger) }

// DecodeLedger opens the trial ledger blob.
func (c *Codec) DecodeLedger(blob string) (TrialLedger, error) {
	var ledger TrialLedger
	if err := c.open(blob, &ledger); err != nil {
		return TrialLedger{}, err
	}
	return ledger, nil
}
