package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/interview-assistant/errors"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
)

type fakeUsers struct {
	users map[string]*entities.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*entities.User)}
}

func (f *fakeUsers) Create(ctx context.Context, user *entities.User) error {
	f.users[user.Handle] = user
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) FindByHandle(ctx context.Context, handle string) (*entities.User, error) {
	u, ok := f.users[handle]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) Update(ctx context.Context, user *entities.User) error {
	f.users[user.Handle] = user
	return nil
}

func (f *fakeUsers) List(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	return nil, nil
}

func TestCreate_RegistersHandle(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, zap.NewNop())

	email := "alice@example.com"
	u, err := svc.Create(context.Background(), CreateInput{
		Handle:      "alice",
		DisplayName: "Alice Tran",
		Email:       &email,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if u.Handle != "alice" || u.DisplayName != "Alice Tran" {
		t.Fatalf("fields wrong: %+v", u)
	}
	if u.Email == nil || *u.Email != email {
		t.Fatal("email not stored")
	}
	if !u.WantsFinalizeEmail() {
		t.Fatal("new user with an email should want finalize summaries")
	}
	if _, err := users.FindByHandle(context.Background(), "alice"); err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
}

func TestCreate_DuplicateHandleIsConflict(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, zap.NewNop())

	if _, err := svc.Create(context.Background(), CreateInput{Handle: "alice", DisplayName: "Alice"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := svc.Create(context.Background(), CreateInput{Handle: "alice", DisplayName: "Other Alice"})
	if !errors.Is(err, entities.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestCreate_RejectsBadHandle(t *testing.T) {
	svc := NewService(newFakeUsers(), zap.NewNop())

	for _, handle := range []string{"", "ab", "-starts-wrong", "Has Space", "UPPER"} {
		_, err := svc.Create(context.Background(), CreateInput{Handle: handle, DisplayName: "X"})
		if err == nil {
			t.Fatalf("handle %q should be rejected", handle)
		}
		var appErr apperrors.AppError
		if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_INVALID_ARGUMENT {
			t.Fatalf("handle %q: expected INVALID_ARGUMENT, got %v", handle, err)
		}
	}
}

func TestGetByHandle(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, zap.NewNop())

	if _, err := svc.Create(context.Background(), CreateInput{Handle: "bob", DisplayName: "Bob"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	u, err := svc.GetByHandle(context.Background(), "bob")
	if err != nil || u.Handle != "bob" {
		t.Fatalf("lookup failed: %v %+v", err, u)
	}

	if _, err := svc.GetByHandle(context.Background(), "ghost"); !errors.Is(err, entities.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
