package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/library-circulation/internal/persistence"
	"github.com/example/library-circulation/internal/testfixtures"
)

func TestCreateUserRoundTrip(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	library := testfixtures.NewLibrary()
	if err := h.Libraries.CreateLibrary(ctx, library); err != nil {
		t.Fatalf("failed to create library: %v", err)
	}

	blocked := testfixtures.ReferenceTime().AddDate(0, 0, 10)
	reader := testfixtures.NewReader(library.ID, testfixtures.WithUserBlockedUntil(blocked))
	if err := h.Users.CreateUser(ctx, reader); err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}

	stored, err := h.Users.GetUser(ctx, reader.ID)
	if err != nil {
		t.Fatalf("failed to load reader: %v", err)
	}
	if stored.Name != reader.Name || stored.Role != persistence.RoleReader {
		t.Fatalf("unexpected user row: %+v", stored)
	}
	if stored.LibraryID == nil || *stored.LibraryID != library.ID {
		t.Fatalf("expected library affiliation %s, got %v", library.ID, stored.LibraryID)
	}
	if stored.BlockedUntil == nil || stored.BlockedUntil.Format("2006-01-02") != blocked.Format("2006-01-02") {
		t.Fatalf("expected block until %v, got %v", blocked, stored.BlockedUntil)
	}
	if !stored.Consent {
		t.Fatalf("expected consent flag to persist")
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	first := testfixtures.NewNetworkAdmin(testfixtures.WithUserEmail("gestor@rede.com"))
	if err := h.Users.CreateUser(ctx, first); err != nil {
		t.Fatalf("failed to create first user: %v", err)
	}

	second := testfixtures.NewNetworkAdmin(testfixtures.WithUserEmail("Gestor@Rede.com"))
	if err := h.Users.CreateUser(ctx, second); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for same email, got %v", err)
	}
}

func TestCreateUserAllowsMultipleWithoutEmail(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	library := testfixtures.NewLibrary()
	if err := h.Libraries.CreateLibrary(ctx, library); err != nil {
		t.Fatalf("failed to create library: %v", err)
	}

	// Readers enroll without email; the unique column must not collide on
	// the absent value.
	for i := 0; i < 2; i++ {
		reader := testfixtures.NewReader(library.ID, testfixtures.WithUserEmail(""))
		if err := h.Users.CreateUser(ctx, reader); err != nil {
			t.Fatalf("failed to create reader %d: %v", i, err)
		}
	}
}

func TestGetUserByEmailNormalizes(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	admin := testfixtures.NewNetworkAdmin(testfixtures.WithUserEmail("gestor@rede.com"))
	if err := h.Users.CreateUser(ctx, admin); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	stored, err := h.Users.GetUserByEmail(ctx, "  Gestor@Rede.com ")
	if err != nil {
		t.Fatalf("failed to look up by email: %v", err)
	}
	if stored.ID != admin.ID {
		t.Fatalf("expected user %s, got %s", admin.ID, stored.ID)
	}

	if _, err := h.Users.GetUserByEmail(ctx, "ninguem@rede.com"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListStaffAndReadersAreScoped(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	library := testfixtures.NewLibrary()
	other := testfixtures.NewLibrary()
	for _, l := range []persistence.Library{library, other} {
		if err := h.Libraries.CreateLibrary(ctx, l); err != nil {
			t.Fatalf("failed to create library: %v", err)
		}
	}

	admin := testfixtures.NewNetworkAdmin()
	coordinator := testfixtures.NewCoordinator(library.ID)
	reader := testfixtures.NewReader(library.ID)
	foreignReader := testfixtures.NewReader(other.ID)
	for _, user := range []persistence.User{admin, coordinator, reader, foreignReader} {
		if err := h.Users.CreateUser(ctx, user); err != nil {
			t.Fatalf("failed to create user %s: %v", user.ID, err)
		}
	}

	staff, err := h.Users.ListStaff(ctx)
	if err != nil {
		t.Fatalf("failed to list staff: %v", err)
	}
	if len(staff) != 2 {
		t.Fatalf("expected 2 staff accounts, got %d", len(staff))
	}
	for _, user := range staff {
		if user.Role == persistence.RoleReader {
			t.Fatalf("reader leaked into staff listing: %+v", user)
		}
	}

	readers, err := h.Users.ListReaders(ctx, library.ID)
	if err != nil {
		t.Fatalf("failed to list readers: %v", err)
	}
	if len(readers) != 1 || readers[0].ID != reader.ID {
		t.Fatalf("expected only the local reader, got %+v", readers)
	}
}

func TestAuditAppendIsValidated(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	entry := persistence.AuditEntry{
		ID:        "audit-001",
		Action:    "loan_create",
		UserID:    "coord-001",
		Details:   "loan=loan-001",
		Timestamp: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	if err := h.Audits.Append(ctx, entry); err != nil {
		t.Fatalf("failed to append audit entry: %v", err)
	}

	missing := persistence.AuditEntry{ID: "audit-002", UserID: "coord-001"}
	if err := h.Audits.Append(ctx, missing); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}
