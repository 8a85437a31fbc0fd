package services

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"poscore/internal/accounts"
	"poscore/pkg/contracts/domain"
)

// AccountsService exposes registration and admin-managed user management to
// the transport.
type AccountsService interface {
	BootstrapStatus(ctx context.Context) *domain.BootstrapStatusResponse
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserResponse, error)
	ListUsers(ctx context.Context) (*domain.UserListResponse, error)
	AddUser(ctx context.Context, req domain.UserRequest) (*domain.UserResponse, error)
	UpdateUser(ctx context.Context, id string, req domain.UserRequest) (*domain.UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type accountsService struct {
	gate   accounts.GateInterface
	logger *slog.Logger
}

// NewAccountsService wires the service.
func NewAccountsService(gate accounts.GateInterface, logger *slog.Logger) AccountsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountsService{
		gate:   gate,
		logger: logger.With(slog.String("service", "accounts")),
	}
}

// BootstrapStatus is recomputed from the store on every call; the UI must
// not cache it across renders.
func (s *accountsService) BootstrapStatus(ctx context.Context) *domain.BootstrapStatusResponse {
	ctx, span := tracer().Start(ctx, "accounts.bootstrap_status")
	defer span.End()

	canRegister := s.gate.CanSelfRegisterAsAdmin(ctx)
	return &domain.BootstrapStatusResponse{
		AdminExists:          !canRegister,
		CanSelfRegisterAdmin: canRegister,
		TraceID:              traceID(ctx),
	}
}

func (s *accountsService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserResponse, error) {
	ctx, span := tracer().Start(ctx, "accounts.register")
	span.SetAttributes(attribute.String("accounts.requested_role", req.Role))
	defer span.End()

	candidate := accounts.Candidate{
		Username:        req.Username,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		PIN:             req.PIN,
		PINConfirm:      req.PINConfirm,
		FullName:        req.FullName,
	}

	account, err := s.gate.Register(ctx, candidate, accounts.Role(req.Role), req.SecurityAck)
	if err != nil {
		span.RecordError(err)
		s.logger.InfoContext(ctx, "registration rejected",
			slog.String("trace_id", traceID(ctx)),
			slog.String("username", req.Username),
			slog.String("requested_role", req.Role),
			slog.String("reason", err.Error()),
		)
		return nil, err
	}

	resp := toUserResponse(account.Public())
	return &resp, nil
}

func (s *accountsService) ListUsers(ctx context.Context) (*domain.UserListResponse, error) {
	users, err := s.gate.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	resp := &domain.UserListResponse{
		Users:   make([]domain.UserResponse, 0, len(users)),
		TraceID: traceID(ctx),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u.Public()))
	}
	return resp, nil
}

func (s *accountsService) AddUser(ctx context.Context, req domain.UserRequest) (*domain.UserResponse, error) {
	account, err := s.gate.AddUser(ctx, toNewUser(req))
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(account.Public())
	return &resp, nil
}

func (s *accountsService) UpdateUser(ctx context.Context, id string, req domain.UserRequest) (*domain.UserResponse, error) {
	account, err := s.gate.UpdateUser(ctx, id, toNewUser(req))
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(account.Public())
	return &resp, nil
}

func (s *accountsService) DeleteUser(ctx context.Context, id string) error {
	return s.gate.DeleteUser(ctx, id)
}

func toNewUser(req domain.UserRequest) accounts.NewUser {
	return accounts.NewUser{
		Username: req.Username,
		Password: req.Password,
		PIN:      req.PIN,
		FullName: req.FullName,
		Role:     accounts.Role(req.Role),
	}
}

func toUserResponse(p accounts.Public) domain.UserResponse {
	return domain.UserResponse{
		ID:        p.ID,
		Username:  p.Username,
		FullName:  p.FullName,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
