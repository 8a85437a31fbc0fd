package license

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) (*Codec, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	codec, err := NewCodec(pub, []byte("test-envelope-secret"))
	require.NoError(t, err)
	return codec, priv
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"well-formed", "PF-AB12-CD34-EF56-GH78", true},
		{"all digits", "PF-1111-2222-3333-4444", true},
		{"missing prefix", "AB12-CD34-EF56-GH78", false},
		{"wrong prefix", "XX-AB12-CD34-EF56-GH78", false},
		{"lowercase", "pf-ab12-cd34-ef56-gh78", false},
		{"short group", "PF-AB1-CD34-EF56-GH78", false},
		{"long group", "PF-AB123-CD34-EF56-GH78", false},
		{"three groups", "PF-AB12-CD34-EF56", false},
		{"five groups", "PF-AB12-CD34-EF56-GH78-IJ90", false},
		{"special chars", "PF-AB!2-CD34-EF56-GH78", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateFormat(tt.key))
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "PF-AB12-CD34-EF56-GH78", "PF-AB12-CD34-EF56-GH78"},
		{"no dashes", "PFAB12CD34EF56GH78", "PF-AB12-CD34-EF56-GH78"},
		{"lowercase with spaces", "pf ab12 cd34 ef56 gh78", "PF-AB12-CD34-EF56-GH78"},
		{"garbage stays garbage", "not-a-key", "NOT-A-KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestVerifyKey(t *testing.T) {
	codec, priv := newTestCodec(t)
	key := "PF-AB12-CD34-EF56-GH78"
	sig := ed25519.Sign(priv, []byte(key))

	t.Run("valid signature", func(t *testing.T) {
		assert.NoError(t, codec.VerifyKey(key, sig))
	})

	t.Run("accepts undashed input", func(t *testing.T) {
		assert.NoError(t, codec.VerifyKey("pfab12cd34ef56gh78", sig))
	})

	t.Run("malformed key fails before signature check", func(t *testing.T) {
		err := codec.VerifyKey("PF-SHORT", sig)
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("signature for a different key", func(t *testing.T) {
		err := codec.VerifyKey("PF-1111-2222-3333-4444", sig)
		assert.ErrorIs(t, err, ErrInvalidLicense)
	})

	t.Run("truncated signature", func(t *testing.T) {
		err := codec.VerifyKey(key, sig[:16])
		assert.ErrorIs(t, err, ErrInvalidLicense)
	})

	t.Run("well-formed key with no issuer signature", func(t *testing.T) {
		err := codec.VerifyKey("PF-ZZZZ-ZZZZ-ZZZZ-ZZZZ", nil)
		assert.ErrorIs(t, err, ErrInvalidLicense)
	})
}

func TestNewCodec_Validation(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = NewCodec(pub[:16], []byte("secret"))
	assert.Error(t, err, "short issuer key must be rejected")

	_, err = NewCodec(pub, nil)
	assert.Error(t, err, "empty hmac secret must be rejected")
}

func TestTrialEnvelope_RoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)
	now := time.Now().UTC().Truncate(time.Second)
	record := TrialRecord{
		StartedAt:   now,
		ExpiresAt:   now.Add(TrialDuration),
		Fingerprint: "device-a",
	}

	blob, err := codec.EncodeTrial(record)
	require.NoError(t, err)

	decoded, err := codec.DecodeTrial(blob)
	require.NoError(t, err)
	assert.True(t, record.StartedAt.Equal(decoded.StartedAt))
	assert.True(t, record.ExpiresAt.Equal(decoded.ExpiresAt))
	assert.Equal(t, record.Fingerprint, decoded.Fingerprint)
}

func TestEnvelope_TamperDetection(t *testing.T) {
	codec, _ := newTestCodec(t)
	record := TrialRecord{StartedAt: time.Now(), ExpiresAt: time.Now().Add(TrialDuration), Fingerprint: "device-a"}
	blob, err := codec.EncodeTrial(record)
	require.NoError(t, err)

	t.Run("flipped payload byte", func(t *testing.T) {
		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)
		tampered := strings.Replace(string(raw), "device-a", "device-b", 1)
		_, err = codec.DecodeTrial(base64.StdEncoding.EncodeToString([]byte(tampered)))
		assert.ErrorIs(t, err, ErrCorruptRecord)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := codec.DecodeTrial("!!! definitely not base64 !!!")
		assert.ErrorIs(t, err, ErrCorruptRecord)
	})

	t.Run("wrong envelope secret", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		other, err := NewCodec(pub, []byte("different-secret"))
		require.NoError(t, err)
		_, err = other.DecodeTrial(blob)
		assert.ErrorIs(t, err, ErrCorruptRecord)
	})
}

func TestLedgerEnvelope_RoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)
	ledger := TrialLedger{Fingerprints: []string{"fp-1", "fp-2"}}

	blob, err := codec.EncodeLedger(ledger)
	require.NoError(t, err)

	decoded, err := codec.DecodeLedger(blob)
	require.NoError(t, err)
	assert.True(t, decoded.Contains("fp-1"))
	assert.True(t, decoded.Contains("fp-2"))
	assert.False(t, decoded.Contains("fp-3"))
}
