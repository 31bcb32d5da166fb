package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursify-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursify-backend/internal/domain"
)

func TestUserRepoCreateNormalizesEmail(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	created, err := repo.Create(ctx, tx, []*types.User{
		{Email: "  Ada@Example.COM "},
		{Email: "bob@example.com", Name: testutil.PtrString("Bob")},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Create: got %d users", len(created))
	}
	if created[0].Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", created[0].Email)
	}
	if created[0].ID == uuid.Nil {
		t.Fatalf("Create did not assign an ID")
	}

	none, err := repo.Create(ctx, tx, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("Create empty: %v %v", none, err)
	}

	if _, err := repo.Create(ctx, tx, []*types.User{{Email: "ADA@example.com"}}); err == nil {
		t.Fatalf("expected duplicate email to fail")
	}
}

func TestUserRepoLookups(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	ada := testutil.SeedUser(t, ctx, db, "ada@example.com")
	bob := testutil.SeedUser(t, ctx, db, "bob@example.com")

	byID, err := repo.GetByIDs(ctx, nil, []uuid.UUID{ada.ID, bob.ID, uuid.New()})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(byID) != 2 {
		t.Fatalf("GetByIDs: got %d want 2", len(byID))
	}

	empty, err := repo.GetByIDs(ctx, nil, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("GetByIDs empty: %v %v", empty, err)
	}

	byEmail, err := repo.GetByEmails(ctx, nil, []string{" BOB@example.com", "nobody@example.com"})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(byEmail) != 1 || byEmail[0].ID != bob.ID {
		t.Fatalf("GetByEmails: got %+v", byEmail)
	}

	empty, err = repo.GetByEmails(ctx, nil, []string{})
	if err != nil || len(empty) != 0 {
		t.Fatalf("GetByEmails empty: %v %v", empty, err)
	}
}
