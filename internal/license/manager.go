package license

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"poscore/internal/security"
	"poscore/internal/store"
)

// TrialDuration is the fixed length of the evaluation period.
const TrialDuration = 30 * 24 * time.Hour

// ManagerInterface is the entitlement contract consumed by the service
// layer. Kept as an interface so handlers can be tested against a mock.
type ManagerInterface interface {
	Status(ctx context.Context) Status
	StartTrial(ctx context.Context) (*TrialRecord, error)
	Activate(ctx context.Context, key string, signature []byte) (*FullLicense, error)
}

// Manager is the entitlement state machine. It holds no entitlement state of
// its own: every answer is derived from the store at query time. Construct
// one per process and pass it explicitly; there is no ambient singleton.
type Manager struct {
	store        store.Store
	codec        *Codec
	fingerprints security.Fingerprinter
	logger       *slog.Logger
	metrics      *Metrics
	now          func() time.Time
}

// NewManager wires the state machine. metrics may be nil when telemetry is
// disabled.
func NewManager(s store.Store, codec *Codec, fp security.Fingerprinter, logger *slog.Logger, metrics *Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:        s,
		codec:        codec,
		fingerprints: fp,
		logger:       logger.With(slog.String("component", "entitlement")),
		metrics:      metrics,
		now:          time.Now,
	}
}

// Status answers "is this installation entitled to run?". It always
// succeeds: store failures and corrupt records degrade to StateNone (fail
// safe toward not entitled, never toward entitled) and are logged for
// operator attention.
func (m *Manager) Status(ctx context.Context) Status {
	start := time.Now()
	status := m.computeStatus(ctx)
	m.metrics.recordStatus(ctx, status.State, time.Since(start))
	return status
}

func (m *Manager) computeStatus(ctx context.Context) Status {
	// A full license, when present and intact, supersedes everything.
	if lic, err := m.loadLicense(ctx); err == nil && lic != nil {
		return Status{State: StateFullActive, License: lic}
	} else if errors.Is(err, ErrCorruptRecord) {
		m.logger.WarnContext(ctx, "license record failed integrity check, treating as unlicensed")
	}

	trial, err := m.loadTrial(ctx)
	if err != nil {
		if errors.Is(err, ErrCorruptRecord) {
			m.logger.WarnContext(ctx, "trial record failed integrity check, treating as unlicensed")
		}
		return Status{State: StateNone}
	}
	if trial == nil {
		return Status{State: StateNone}
	}

	now := m.now()
	if now.After(trial.ExpiresAt) {
		return Status{State: StateTrialExpired, Trial: trial}
	}
	return Status{State: StateTrialActive, DaysLeft: daysLeft(now, trial.ExpiresAt), Trial: trial}
}

// StartTrial begins the 30-day evaluation period. Policy: one trial per
// device fingerprint, ever. The ledger keeps every fingerprint that started
// a trial, so clearing the trial record does not restore eligibility.
func (m *Manager) StartTrial(ctx context.Context) (*TrialRecord, error) {
	fp := m.fingerprints.Fingerprint()

	if lic, err := m.loadLicense(ctx); err == nil && lic != nil {
		m.metrics.recordTrialStart(ctx, "license_active")
		return nil, ErrLicenseActive
	}

	now := m.now()
	record := TrialRecord{
		StartedAt:   now,
		ExpiresAt:   now.Add(TrialDuration),
		Fingerprint: fp,
	}

	// Encoded up front: once the fingerprint is in the ledger, the only step
	// left is the record write itself.
	blob, err := m.codec.EncodeTrial(record)
	if err != nil {
		m.metrics.recordTrialStart(ctx, "encode_error")
		return nil, err
	}

	// The eligibility check and the ledger append happen inside one atomic
	// update so two concurrent sessions cannot both start a trial.
	err = m.store.Update(ctx, store.KeyTrialLedger, func(current string, absent bool) (string, error) {
		ledger := TrialLedger{}
		if !absent && current != "" {
			decoded, err := m.codec.DecodeLedger(current)
			if err != nil {
				// A tampered ledger never unlocks a fresh trial.
				return "", err
			}
			ledger = decoded
		}
		if ledger.Contains(fp) {
			return "", ErrTrialAlreadyUsed
		}
		ledger.Fingerprints = append(ledger.Fingerprints, fp)
		return m.codec.EncodeLedger(ledger)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTrialAlreadyUsed):
			m.metrics.recordTrialStart(ctx, "already_used")
		case errors.Is(err, ErrCorruptRecord):
			m.metrics.recordTrialStart(ctx, "corrupt_ledger")
		default:
			m.metrics.recordTrialStart(ctx, "store_error")
		}
		return nil, err
	}

	if err := m.store.Set(ctx, store.KeyTrialRecord, blob); err != nil {
		// A failed record write must not leave the fingerprint burned with
		// no trial to show for it.
		m.releaseLedgerEntry(ctx, fp)
		m.metrics.recordTrialStart(ctx, "store_error")
		return nil, err
	}

	m.metrics.recordTrialStart(ctx, "started")
	m.logger.InfoContext(ctx, "trial started",
		slog.Time("expires_at", record.ExpiresAt),
		slog.String("fingerprint", shortFingerprint(fp)),
	)
	return &record, nil
}

// releaseLedgerEntry removes fp from the trial ledger after a failed trial
// record write, restoring eligibility for a retry.
func (m *Manager) releaseLedgerEntry(ctx context.Context, fp string) {
	err := m.store.Update(ctx, store.KeyTrialLedger, func(current string, absent bool) (string, error) {
		if absent || current == "" {
			return current, nil
		}
		ledger, err := m.codec.DecodeLedger(current)
		if err != nil {
			return "", err
		}
		kept := ledger.Fingerprints[:0]
		for _, known := range ledger.Fingerprints {
			if known != fp {
				kept = append(kept, known)
			}
		}
		ledger.Fingerprints = kept
		return m.codec.EncodeLedger(ledger)
	})
	if err != nil {
		m.logger.WarnContext(ctx, "trial ledger rollback failed",
			slog.String("fingerprint", shortFingerprint(fp)),
			slog.String("error", err.Error()),
		)
	}
}

// Activate verifies the key and persists a full license bound to the current
// fingerprint. Re-activating the same key while active is a no-op success;
// there is no deactivate through this interface.
func (m *Manager) Activate(ctx context.Context, key string, signature []byte) (*FullLicense, error) {
	normalized := NormalizeKey(key)
	if err := m.codec.VerifyKey(normalized, signature); err != nil {
		if errors.Is(err, ErrInvalidFormat) {
			m.metrics.recordActivation(ctx, "invalid_format")
		} else {
			m.metrics.recordActivation(ctx, "invalid_signature")
		}
		m.logger.WarnContext(ctx, "license activation rejected",
			slog.String("reason", err.Error()),
		)
		return nil, err
	}

	if existing, err := m.loadLicense(ctx); err == nil && existing != nil && existing.Key == normalized {
		m.metrics.recordActivation(ctx, "already_active")
		return existing, nil
	}

	record := FullLicense{
		Key:         normalized,
		ActivatedAt: m.now(),
		Fingerprint: m.fingerprints.Fingerprint(),
		Type:        "full",
	}
	blob, err := m.codec.EncodeLicense(record)
	if err != nil {
		m.metrics.recordActivation(ctx, "encode_error")
		return nil, err
	}
	if err := m.store.Set(ctx, store.KeyFullLicense, blob); err != nil {
		m.metrics.recordActivation(ctx, "store_error")
		return nil, err
	}

	m.metrics.recordActivation(ctx, "activated")
	m.logger.InfoContext(ctx, "license activated",
		slog.String("key", normalized),
		slog.String("fingerprint", shortFingerprint(record.Fingerprint)),
	)
	return &record, nil
}

// loadLicense returns (nil, nil) when no license record exists.
func (m *Manager) loadLicense(ctx context.Context) (*FullLicense, error) {
	blob, err := m.store.Get(ctx, store.KeyFullLicense)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record, err := m.codec.DecodeLicense(blob)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *Manager) loadTrial(ctx context.Context) (*TrialRecord, error) {
	blob, err := m.store.Get(ctx, store.KeyTrialRecord)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record, err := m.codec.DecodeTrial(blob)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
