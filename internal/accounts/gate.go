package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"poscore/internal/store"
)

// Canonical PIN policy: 4 to 6 decimal digits for every creation path. The
// predecessor enforced a fixed 6 digits for admin-managed creation and 4-6
// for self-registration; one rule applies uniformly here.
var pinPattern = regexp.MustCompile(`^[0-9]{4,6}$`)

const minPasswordLength = 8

// Candidate carries the raw self-registration input. Confirmation fields are
// compared here; raw secrets never leave this package.
type Candidate struct {
	Username        string
	Password        string
	PasswordConfirm string
	PIN             string
	PINConfirm      string
	FullName        string
}

// NewUser carries admin-managed creation/update input. No confirmation
// fields: the admin UI performs its own double-entry.
type NewUser struct {
	Username string
	Password string
	PIN      string
	FullName string
	Role     Role
}

// GateInterface is the bootstrap-gate contract consumed by the service
// layer.
type GateInterface interface {
	CanSelfRegisterAsAdmin(ctx context.Context) bool
	Register(ctx context.Context, candidate Candidate, role Role, securityAckGiven bool) (*UserAccount, error)
	ListUsers(ctx context.Context) ([]UserAccount, error)
	AddUser(ctx context.Context, input NewUser) (*UserAccount, error)
	UpdateUser(ctx context.Context, id string, input NewUser) (*UserAccount, error)
	DeleteUser(ctx context.Context, id string) error
}

// Gate enforces the bootstrap invariant. It is stateless between calls: the
// admin-exists answer is recomputed from the store on every query, and the
// decisive re-check happens inside the atomic store update that commits the
// account.
type Gate struct {
	store      store.Store
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time
}

// NewGate wires the bootstrap gate. cost <= 0 selects bcrypt's default.
func NewGate(s store.Store, logger *slog.Logger, cost int) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Gate{
		store:      s,
		logger:     logger.With(slog.String("component", "bootstrap_gate")),
		bcryptCost: cost,
		now:        time.Now,
	}
}

// CanSelfRegisterAsAdmin reports whether the user collection holds zero
// admin records. Computed fresh on every call; a collection that cannot be
// read answers false (fail safe: registration blocked, never escalated).
func (g *Gate) CanSelfRegisterAsAdmin(ctx context.Context) bool {
	users, err := g.loadUsers(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "user collection unreadable, blocking admin self-registration",
			slog.String("error", err.Error()),
		)
		return false
	}
	return !adminExists(users)
}

// Register validates the candidate and commits the account. The role policy
// and the username uniqueness check run inside the atomic update against the
// freshest read, so two sessions racing past the same rendered form cannot
// both create an admin.
func (g *Gate) Register(ctx context.Context, candidate Candidate, role Role, securityAckGiven bool) (*UserAccount, error) {
	if candidate.Password != candidate.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}
	if candidate.PIN != candidate.PINConfirm {
		return nil, ErrPINMismatch
	}
	if !pinPattern.MatchString(candidate.PIN) {
		return nil, ErrInvalidPIN
	}
	if len(candidate.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if candidate.Username == "" || candidate.FullName == "" {
		return nil, ErrMissingFields
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	account, err := g.newAccount(candidate.Username, candidate.Password, candidate.PIN, candidate.FullName, role)
	if err != nil {
		return nil, err
	}

	err = g.store.Update(ctx, store.KeyUsers, func(current string, absent bool) (string, error) {
		users, err := decodeUsers(current, absent)
		if err != nil {
			return "", err
		}
		if role == RoleAdmin {
			// Re-checked against the freshest read: a concurrent session may
			// have won the bootstrap race since the form was rendered. The
			// request is rejected outright, never downgraded to cashier.
			if adminExists(users) {
				return "", ErrAdminExists
			}
			// The acknowledgment is an in-flight confirmation for this one
			// registration, never persisted.
			if !securityAckGiven {
				return "", ErrAckRequired
			}
		}
		if usernameTaken(users, account.Username) {
			return "", ErrUsernameTaken
		}
		return encodeUsers(append(users, *account))
	})
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "account registered",
		slog.String("username", account.Username),
		slog.String("role", string(account.Role)),
		slog.Bool("bootstrap_admin", role == RoleAdmin),
	)
	return account, nil
}

// ListUsers returns the full collection. Callers are admin-gated upstream.
func (g *Gate) ListUsers(ctx context.Context) ([]UserAccount, error) {
	return g.loadUsers(ctx)
}

// AddUser is the admin-managed creation path. Same field rules as
// Register, without the confirmation comparisons; the caller is already an
// authenticated admin, so any role may be assigned.
func (g *Gate) AddUser(ctx context.Context, input NewUser) (*UserAccount, error) {
	if err := validateNewUser(input, true); err != nil {
		return nil, err
	}

	account, err := g.newAccount(input.Username, input.Password, input.PIN, input.FullName, input.Role)
	if err != nil {
		return nil, err
	}

	err = g.store.Update(ctx, store.KeyUsers, func(current string, absent bool) (string, error) {
		users, err := decodeUsers(current, absent)
		if err != nil {
			return "", err
		}
		if usernameTaken(users, account.Username) {
			return "", ErrUsernameTaken
		}
		return encodeUsers(append(users, *account))
	})
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "user added by admin",
		slog.String("username", account.Username),
		slog.String("role", string(account.Role)),
	)
	return account, nil
}

// UpdateUser replaces the identified record, role included: changing a role
// here is an explicit admin decision, not self-service escalation. Empty
// password or PIN keeps the stored credential.
func (g *Gate) UpdateUser(ctx context.Context, id string, input NewUser) (*UserAccount, error) {
	if err := validateNewUser(input, false); err != nil {
		return nil, err
	}

	var updated *UserAccount
	err := g.store.Update(ctx, store.KeyUsers, func(current string, absent bool) (string, error) {
		users, err := decodeUsers(current, absent)
		if err != nil {
			return "", err
		}
		idx := -1
		for i := range users {
			if users[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", ErrUserNotFound
		}
		for i := range users {
			if i != idx && users[i].Username == input.Username {
				return "", ErrUsernameTaken
			}
		}

		record := users[idx]
		record.Username = input.Username
		record.FullName = input.FullName
		record.Role = input.Role
		record.UpdatedAt = g.now()
		if input.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), g.bcryptCost)
			if err != nil {
				return "", fmt.Errorf("hash password: %w", err)
			}
			record.PasswordHash = hash
		}
		if input.PIN != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(input.PIN), g.bcryptCost)
			if err != nil {
				return "", fmt.Errorf("hash pin: %w", err)
			}
			record.PINHash = hash
		}

		users[idx] = record
		updated = &record
		return encodeUsers(users)
	})
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "user updated by admin",
		slog.String("id", id),
		slog.String("username", updated.Username),
		slog.String("role", string(updated.Role)),
	)
	return updated, nil
}

// DeleteUser removes the identified record.
func (g *Gate) DeleteUser(ctx context.Context, id string) error {
	err := g.store.Update(ctx, store.KeyUsers, func(current string, absent bool) (string, error) {
		users, err := decodeUsers(current, absent)
		if err != nil {
			return "", err
		}
		kept := users[:0]
		found := false
		for _, u := range users {
			if u.ID == id {
				found = true
				continue
			}
			kept = append(kept, u)
		}
		if !found {
			return "", ErrUserNotFound
		}
		return encodeUsers(kept)
	})
	if err != nil {
		return err
	}

	g.logger.InfoContext(ctx, "user deleted by admin", slog.String("id", id))
	return nil
}

func (g *Gate) newAccount(username, password, pin, fullName string, role Role) (*UserAccount, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), g.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), g.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}
	now := g.now()
	return &UserAccount{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		PINHash:      pinHash,
		FullName:     fullName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (g *Gate) loadUsers(ctx context.Context) ([]UserAccount, error) {
	blob, err := g.store.Get(ctx, store.KeyUsers)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeUsers(blob, false)
}

func validateNewUser(input NewUser, credentialsRequired bool) error {
	if input.Username == "" || input.FullName == "" {
		return ErrMissingFields
	}
	if credentialsRequired && (input.Password == "" || input.PIN == "") {
		return ErrMissingFields
	}
	if input.Password != "" && len(input.Password) < minPasswordLength {
		return ErrWeakPassword
	}
	if input.PIN != "" && !pinPattern.MatchString(input.PIN) {
		return ErrInvalidPIN
	}
	if !input.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func adminExists(users []UserAccount) bool {
	for _, u := range users {
		if u.Role == RoleAdmin {
			return true
		}
	}
	return false
}

func usernameTaken(users []UserAccount, username string) bool {
	for _, u := range users {
		if u.Username == username {
			return true
		}
	}
	return false
}

func decodeUsers(blob string, absent bool) ([]UserAccount, error) {
	if absent || blob == "" {
		return nil, nil
	}
	var users []UserAccount
	if err := json.Unmarshal([]byte(blob), &users); err != nil {
		return nil, ErrCorruptUserStore
	}
	return users, nil
}

func encodeUsers(users []UserAccount) (string, error) {
	raw, err := json.Marshal(users)
	if err != nil {
		return "", fmt.Errorf("marshal user collection: %w", err)
	}
	return string(raw), nil
}
