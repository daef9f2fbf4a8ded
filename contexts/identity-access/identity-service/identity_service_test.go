package identityservice_test

import (
	"context"
	"errors"
	"testing"

	identityservice "ardhi/contexts/identity-access/identity-service"
	domainerrors "ardhi/contexts/identity-access/identity-service/domain/errors"
	transporthttp "ardhi/contexts/identity-access/identity-service/transport/http"
)

func newTestModule() identityservice.Module {
	return identityservice.NewInMemoryModule("test-secret", nil)
}

func register(t *testing.T, module identityservice.Module, req transporthttp.RegisterRequest) transporthttp.UserDTO {
	t.Helper()
	resp, err := module.Handler.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return resp.User
}

func TestRegisterAndLogin(t *testing.T) {
	module := newTestModule()
	ctx := context.Background()

	user := register(t, module, transporthttp.RegisterRequest{
		Username: "wanjiku",
		Password: "correct-horse",
		County:   "Nairobi",
	})
	if user.Role != "normal" {
		t.Fatalf("expected applicant role by default, got %s", user.Role)
	}
	if !user.Active {
		t.Fatalf("expected new accounts to be active")
	}

	login, err := module.Handler.Login(ctx, transporthttp.LoginRequest{Username: "wanjiku", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if login.Token == "" {
		t.Fatalf("expected a session token")
	}

	identity, err := module.Handler.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if identity.UserID != user.UserID {
		t.Fatalf("token resolved to wrong user: %s", identity.UserID)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	module := newTestModule()
	ctx := context.Background()
	register(t, module, transporthttp.RegisterRequest{Username: "otieno", Password: "long-enough", County: "Kisumu"})

	_, err := module.Handler.Login(ctx, transporthttp.LoginRequest{Username: "otieno", Password: "wrong-password"})
	if !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for wrong password, got %v", err)
	}

	// Unknown usernames produce the same error as wrong passwords.
	_, err = module.Handler.Login(ctx, transporthttp.LoginRequest{Username: "no-such-user", Password: "whatever-here"})
	if !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	module := newTestModule()
	ctx := context.Background()

	_, err := module.Handler.Register(ctx, transporthttp.RegisterRequest{Username: "short", Password: "tiny", County: "Nairobi"})
	if !errors.Is(err, domainerrors.ErrWeakPassword) {
		t.Fatalf("expected weak password error, got %v", err)
	}

	register(t, module, transporthttp.RegisterRequest{Username: "dup", Password: "long-enough", County: "Nairobi"})
	_, err = module.Handler.Register(ctx, transporthttp.RegisterRequest{Username: "dup", Password: "long-enough", County: "Nairobi"})
	if !errors.Is(err, domainerrors.ErrUsernameTaken) {
		t.Fatalf("expected username taken error, got %v", err)
	}

	// Registry staff must belong to a registry.
	_, err = module.Handler.Register(ctx, transporthttp.RegisterRequest{Username: "reg-no-office", Password: "long-enough", County: "Nairobi", Role: "registrar"})
	if !errors.Is(err, domainerrors.ErrInvalidUserInput) {
		t.Fatalf("expected input error for registrar without registry, got %v", err)
	}
}

func TestUserAdministrationScopes(t *testing.T) {
	module := newTestModule()
	ctx := context.Background()

	register(t, module, transporthttp.RegisterRequest{Username: "ric", Password: "long-enough", County: "Nairobi", Registry: "nairobi-central", Role: "registrar_in_charge"})
	registrar := register(t, module, transporthttp.RegisterRequest{Username: "reg", Password: "long-enough", County: "Nairobi", Registry: "nairobi-central", Role: "registrar"})
	register(t, module, transporthttp.RegisterRequest{Username: "faraway", Password: "long-enough", County: "Kiambu", Registry: "thika", Role: "registrar"})

	login, err := module.Handler.Login(ctx, transporthttp.LoginRequest{Username: "ric", Password: "long-enough"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	ric := login.User

	ricIdentity, err := module.Handler.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if ricIdentity.UserID != ric.UserID {
		t.Fatalf("unexpected identity %s", ricIdentity.UserID)
	}

	// The roster is scoped to the caller's registry.
	roster, err := module.Handler.ListUsers(ctx, ricIdentity, "registrar")
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(roster.Items) != 1 || roster.Items[0].UserID != registrar.UserID {
		t.Fatalf("unexpected roster: %+v", roster.Items)
	}

	if err := module.Handler.DeactivateUser(ctx, ricIdentity, registrar.UserID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	// Deactivated accounts cannot log in.
	_, err = module.Handler.Login(ctx, transporthttp.LoginRequest{Username: "reg", Password: "long-enough"})
	if !errors.Is(err, domainerrors.ErrUserInactive) {
		t.Fatalf("expected inactive account error, got %v", err)
	}

	regularLogin, err := module.Handler.Login(ctx, transporthttp.LoginRequest{Username: "faraway", Password: "long-enough"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	regularIdentity, err := module.Handler.Authenticate(ctx, regularLogin.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := module.Handler.ListUsers(ctx, regularIdentity, ""); !errors.Is(err, domainerrors.ErrActorNotAuthorized) {
		t.Fatalf("expected authorization error for non in-charge caller, got %v", err)
	}
}
