// Package services provides the business-logic layer between the HTTP
// transport and the domain cores. Services own request-scoped logging and
// the mapping from domain records to wire contracts.
package services

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"poscore/internal/infrastructure"
	"poscore/internal/license"
	"poscore/pkg/contracts/domain"
)

// tracer resolves against the provider registered at startup. Resolved per
// call so construction order does not matter.
func tracer() oteltrace.Tracer {
	return otel.Tracer("poscore/services")
}

// traceID correlates the response with the exported span; when tracing is
// disabled it falls back to the per-request ID assigned by the router.
func traceID(ctx context.Context) string {
	if id := infrastructure.TraceIDFromContext(ctx); id != "" {
		return id
	}
	return middleware.GetReqID(ctx)
}

// EntitlementService exposes the entitlement state machine to the transport.
type EntitlementService interface {
	Status(ctx context.Context) *domain.EntitlementStatusResponse
	StartTrial(ctx context.Context) (*domain.TrialStartResponse, error)
	Activate(ctx context.Context, req domain.LicenseActivationRequest) (*domain.LicenseActivationResponse, error)
}

type entitlementService struct {
	manager license.ManagerInterface
	logger  *slog.Logger
}

// NewEntitlementService wires the service.
func NewEntitlementService(manager license.ManagerInterface, logger *slog.Logger) EntitlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &entitlementService{
		manager: manager,
		logger:  logger.With(slog.String("service", "entitlement")),
	}
}

// Status recomputes the entitlement answer from the store. Total: the
// manager fails safe internally, so this never errors.
func (s *entitlementService) Status(ctx context.Context) *domain.EntitlementStatusResponse {
	ctx, span := tracer().Start(ctx, "entitlement.status")
	defer span.End()

	status := s.manager.Status(ctx)
	span.SetAttributes(attribute.String("entitlement.state", string(status.State)))

	s.logger.DebugContext(ctx, "entitlement status computed",
		slog.String("trace_id", traceID(ctx)),
		slog.String("state", string(status.State)),
		slog.Int("days_left", status.DaysLeft),
	)

	resp := &domain.EntitlementStatusResponse{
		State:     string(status.State),
		Entitled:  status.Entitled(),
		DaysLeft:  status.DaysLeft,
		TraceID:   traceID(ctx),
		Timestamp: time.Now().UTC(),
	}
	if status.Trial != nil {
		ends := status.Trial.ExpiresAt
		resp.TrialEndsAt = &ends
	}
	if status.License != nil {
		activated := status.License.ActivatedAt
		resp.ActivatedAt = &activated
		resp.LicenseKey = status.License.Key
	}
	return resp
}

func (s *entitlementService) StartTrial(ctx context.Context) (*domain.TrialStartResponse, error) {
	ctx, span := tracer().Start(ctx, "entitlement.start_trial")
	defer span.End()

	record, err := s.manager.StartTrial(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.InfoContext(ctx, "trial start rejected",
			slog.String("trace_id", traceID(ctx)),
			slog.String("reason", err.Error()),
		)
		return nil, err
	}

	return &domain.TrialStartResponse{
		StartedAt: record.StartedAt,
		ExpiresAt: record.ExpiresAt,
		DaysLeft:  int(license.TrialDuration / (24 * time.Hour)),
		TraceID:   traceID(ctx),
	}, nil
}

func (s *entitlementService) Activate(ctx context.Context, req domain.LicenseActivationRequest) (*domain.LicenseActivationResponse, error) {
	ctx, span := tracer().Start(ctx, "entitlement.activate",
		oteltrace.WithAttributes(attribute.Int("license.key_length", len(req.LicenseKey))))
	defer span.End()

	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		span.RecordError(err)
		return nil, license.ErrInvalidLicense
	}

	record, err := s.manager.Activate(ctx, req.LicenseKey, signature)
	if err != nil {
		span.RecordError(err)
		s.logger.InfoContext(ctx, "license activation rejected",
			slog.String("trace_id", traceID(ctx)),
			slog.String("reason", err.Error()),
		)
		return nil, err
	}

	return &domain.LicenseActivationResponse{
		Success:     true,
		LicenseKey:  record.Key,
		ActivatedAt: record.ActivatedAt,
		TraceID:     traceID(ctx),
	}, nil
}
