package accounts

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"poscore/internal/store"
)

func validCandidate() Candidate {
	return Candidate{
		Username:        "owner",
		Password:        "longpassword",
		PasswordConfirm: "longpassword",
		PIN:             "1234",
		PINConfirm:      "1234",
		FullName:        "Shop Owner",
	}
}

// GateTestSuite exercises the bootstrap gate against the in-memory store.
type GateTestSuite struct {
	suite.Suite
	store *store.MemoryStore
	gate  *Gate
}

func (s *GateTestSuite) SetupTest() {
	s.store = store.NewMemoryStore()
	// MinCost keeps the suite fast; production uses the configured cost.
	s.gate = NewGate(s.store, slog.Default(), bcrypt.MinCost)
}

func TestGateTestSuite(t *testing.T) {
	suite.Run(t, new(GateTestSuite))
}

func (s *GateTestSuite) TestFreshInstallAllowsAdminSelfRegistration() {
	s.True(s.gate.CanSelfRegisterAsAdmin(context.Background()))
}

func (s *GateTestSuite) TestBootstrapScenario() {
	ctx := context.Background()

	s.Require().True(s.gate.CanSelfRegisterAsAdmin(ctx))

	account, err := s.gate.Register(ctx, validCandidate(), RoleAdmin, true)
	s.Require().NoError(err)
	s.Equal(RoleAdmin, account.Role)
	s.Equal("owner", account.Username)
	s.NotEmpty(account.ID)

	// The gate closes immediately after the first admin.
	s.False(s.gate.CanSelfRegisterAsAdmin(ctx))

	second := validCandidate()
	second.Username = "intruder"
	_, err = s.gate.Register(ctx, second, RoleAdmin, true)
	s.ErrorIs(err, ErrAdminExists)
}

func (s *GateTestSuite) TestAdminRequiresSecurityAck() {
	ctx := context.Background()

	_, err := s.gate.Register(ctx, validCandidate(), RoleAdmin, false)
	s.ErrorIs(err, ErrAckRequired)

	// Nothing was committed; the gate is still open.
	s.True(s.gate.CanSelfRegisterAsAdmin(ctx))
}

func (s *GateTestSuite) TestAdminExistsTakesPrecedenceOverAck() {
	ctx := context.Background()

	_, err := s.gate.Register(ctx, validCandidate(), RoleAdmin, true)
	s.Require().NoError(err)

	second := validCandidate()
	second.Username = "other"
	_, err = s.gate.Register(ctx, second, RoleAdmin, false)
	s.ErrorIs(err, ErrAdminExists, "a closed gate answers ADMIN_EXISTS regardless of the ack")
}

func (s *GateTestSuite) TestCashierRegistrationNeedsNoAck() {
	ctx := context.Background()

	account, err := s.gate.Register(ctx, validCandidate(), RoleCashier, false)
	s.Require().NoError(err)
	s.Equal(RoleCashier, account.Role)

	// Cashier accounts do not close the bootstrap gate.
	s.True(s.gate.CanSelfRegisterAsAdmin(ctx))
}

func (s *GateTestSuite) TestValidationFailuresWriteNothing() {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*Candidate)
		wantErr error
	}{
		{"password mismatch", func(c *Candidate) { c.PasswordConfirm = "different" }, ErrPasswordMismatch},
		{"pin mismatch", func(c *Candidate) { c.PINConfirm = "9999" }, ErrPINMismatch},
		{"pin too short", func(c *Candidate) { c.PIN, c.PINConfirm = "123", "123" }, ErrInvalidPIN},
		{"pin too long", func(c *Candidate) { c.PIN, c.PINConfirm = "1234567", "1234567" }, ErrInvalidPIN},
		{"pin not numeric", func(c *Candidate) { c.PIN, c.PINConfirm = "12ab", "12ab" }, ErrInvalidPIN},
		{"weak password", func(c *Candidate) { c.Password, c.PasswordConfirm = "short", "short" }, ErrWeakPassword},
		{"missing username", func(c *Candidate) { c.Username = "" }, ErrMissingFields},
		{"missing full name", func(c *Candidate) { c.FullName = "" }, ErrMissingFields},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			before := s.store.WriteCount()
			candidate := validCandidate()
			tt.mutate(&candidate)

			_, err := s.gate.Register(ctx, candidate, RoleCashier, false)
			s.ErrorIs(err, tt.wantErr)
			s.Equal(before, s.store.WriteCount(), "failed validation must not write")
		})
	}
}

func (s *GateTestSuite) TestUnknownRoleRejected() {
	_, err := s.gate.Register(context.Background(), validCandidate(), Role("superuser"), true)
	s.ErrorIs(err, ErrInvalidRole)
}

func (s *GateTestSuite) TestUsernameUniqueness() {
	ctx := context.Background()

	_, err := s.gate.Register(ctx, validCandidate(), RoleCashier, false)
	s.Require().NoError(err)

	duplicate := validCandidate()
	duplicate.FullName = "Somebody Else"
	_, err = s.gate.Register(ctx, duplicate, RoleCashier, false)
	s.ErrorIs(err, ErrUsernameTaken)
}

func (s *GateTestSuite) TestCredentialsAreHashedAndVerifiable() {
	ctx := context.Background()

	account, err := s.gate.Register(ctx, validCandidate(), RoleCashier, false)
	s.Require().NoError(err)

	s.NotContains(string(account.PasswordHash), "longpassword")
	s.NotContains(string(account.PINHash), "1234")

	s.True(account.VerifyPassword("longpassword"))
	s.False(account.VerifyPassword("wrong"))
	s.True(account.VerifyPIN("1234"))
	s.False(account.VerifyPIN("0000"))

	public := account.Public()
	s.Equal(account.Username, public.Username)
}

func (s *GateTestSuite) TestConcurrentBootstrapOnlyOneAdminWins() {
	ctx := context.Background()

	// Both sessions saw "no admin exists" at render time; the commit-time
	// re-check inside the atomic update decides the race.
	results := make(chan error, 2)
	for _, username := range []string{"first", "second"} {
		go func(name string) {
			candidate := validCandidate()
			candidate.Username = name
			_, err := s.gate.Register(ctx, candidate, RoleAdmin, true)
			results <- err
		}(username)
	}

	var failures, successes int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			s.ErrorIs(err, ErrAdminExists)
			failures++
		} else {
			successes++
		}
	}
	s.Equal(1, successes)
	s.Equal(1, failures)

	users, err := s.gate.ListUsers(ctx)
	s.Require().NoError(err)
	admins := 0
	for _, u := range users {
		if u.Role == RoleAdmin {
			admins++
		}
	}
	s.Equal(1, admins)
}

func (s *GateTestSuite) TestCorruptCollectionBlocksRegistration() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, store.KeyUsers, "{not json"))

	s.False(s.gate.CanSelfRegisterAsAdmin(ctx), "unreadable collection fails safe")

	_, err := s.gate.Register(ctx, validCandidate(), RoleCashier, false)
	s.ErrorIs(err, ErrCorruptUserStore)
}

func (s *GateTestSuite) TestAdminManagedCRUD() {
	ctx := context.Background()

	created, err := s.gate.AddUser(ctx, NewUser{
		Username: "till-2",
		Password: "secretpass",
		PIN:      "556677",
		FullName: "Second Till",
		Role:     RoleCashier,
	})
	s.Require().NoError(err)
	s.Equal(RoleCashier, created.Role)

	// Admin-managed creation may assign the admin role freely; the bootstrap
	// invariant only binds the public path.
	secondAdmin, err := s.gate.AddUser(ctx, NewUser{
		Username: "manager",
		Password: "managerpass",
		PIN:      "9876",
		FullName: "Store Manager",
		Role:     RoleAdmin,
	})
	s.Require().NoError(err)
	s.Equal(RoleAdmin, secondAdmin.Role)

	// Update replaces the whole record, role included.
	updated, err := s.gate.UpdateUser(ctx, created.ID, NewUser{
		Username: "till-2",
		FullName: "Second Till Renamed",
		Role:     RoleAdmin,
	})
	s.Require().NoError(err)
	s.Equal(RoleAdmin, updated.Role)
	s.Equal("Second Till Renamed", updated.FullName)
	s.True(updated.VerifyPassword("secretpass"), "empty password keeps the stored credential")

	// Update with a new PIN replaces only that credential.
	updated, err = s.gate.UpdateUser(ctx, created.ID, NewUser{
		Username: "till-2",
		FullName: "Second Till Renamed",
		Role:     RoleCashier,
		PIN:      "4321",
	})
	s.Require().NoError(err)
	s.True(updated.VerifyPIN("4321"))
	s.True(updated.VerifyPassword("secretpass"))

	s.Require().NoError(s.gate.DeleteUser(ctx, created.ID))
	s.ErrorIs(s.gate.DeleteUser(ctx, created.ID), ErrUserNotFound)

	_, err = s.gate.UpdateUser(ctx, "missing-id", NewUser{Username: "x", FullName: "y", Role: RoleCashier})
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *GateTestSuite) TestAddUserRequiresAllFields() {
	ctx := context.Background()

	_, err := s.gate.AddUser(ctx, NewUser{Username: "x", FullName: "y", Role: RoleCashier})
	s.ErrorIs(err, ErrMissingFields)

	_, err = s.gate.AddUser(ctx, NewUser{Username: "x", Password: "longenough", PIN: "12345", FullName: "y", Role: Role("boss")})
	s.ErrorIs(err, ErrInvalidRole)
}

func (s *GateTestSuite) TestAddUserDuplicateUsername() {
	ctx := context.Background()

	_, err := s.gate.Register(ctx, validCandidate(), RoleCashier, false)
	require.NoError(s.T(), err)

	_, err = s.gate.AddUser(ctx, NewUser{
		Username: "owner",
		Password: "anotherpass",
		PIN:      "2222",
		FullName: "Duplicate",
		Role:     RoleCashier,
	})
	s.ErrorIs(err, ErrUsernameTaken)
}

func (s *GateTestSuite) TestUpdateUserDuplicateUsername() {
	ctx := context.Background()

	first, err := s.gate.AddUser(ctx, NewUser{Username: "a", Password: "passwordA", PIN: "1111", FullName: "A", Role: RoleCashier})
	s.Require().NoError(err)
	_, err = s.gate.AddUser(ctx, NewUser{Username: "b", Password: "passwordB", PIN: "2222", FullName: "B", Role: RoleCashier})
	s.Require().NoError(err)

	_, err = s.gate.UpdateUser(ctx, first.ID, NewUser{Username: "b", FullName: "A", Role: RoleCashier})
	s.ErrorIs(err, ErrUsernameTaken)
}
