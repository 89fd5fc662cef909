package memory

import (
	"context"
	"testing"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/core/domain"
)

func TestUpsertSelect(t *testing.T) {
	b := New()
	uid := signedUp(t, b).User.ID
	ctx := context.Background()

	if _, err := b.Select(ctx, domain.TableUserData, backend.Eq("user_id", uid)); !backend.HasCode(err, backend.CodeUndefinedTable) {
		t.Errorf("Select(missing table) error = %v", err)
	}

	for _, v := range []string{"first", "second"} {
		rec := backend.Record{"user_id": uid, "data": map[string]any{"v": v}}
		if err := b.Upsert(ctx, domain.TableUserData, rec, domain.ConflictUserID); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	rows, err := b.Select(ctx, domain.TableUserData, backend.Eq("user_id", uid))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("Select() returned %d rows, want 1 after conflicting upserts", len(rows))
	}
	if data := rows[0]["data"].(map[string]any); data["v"] != "second" {
		t.Errorf("row data = %v, want second", data)
	}
}

func TestUpsert_Rejections(t *testing.T) {
	b := New()
	ctx := context.Background()

	err := b.Upsert(ctx, domain.TableRoutines, backend.Record{"id": "r1", "user_id": "u"}, domain.ConflictID)
	if !backend.HasCode(err, backend.CodeNotAuthenticated) {
		t.Errorf("anonymous Upsert() error = %v", err)
	}

	uid := signedUp(t, b).User.ID
	if err := b.Upsert(ctx, domain.TableRoutines, backend.Record{"user_id": uid}, domain.ConflictID); err == nil {
		t.Error("Upsert() without conflict key value should fail")
	}
	if err := b.Upsert(ctx, domain.TableRoutines, backend.Record{"id": "r1", "user_id": "someone-else"}, domain.ConflictID); err == nil {
		t.Error("Upsert() for another user should fail")
	}
}

func TestSelectOrderAndDelete(t *testing.T) {
	b := New()
	uid := signedUp(t, b).User.ID
	ctx := context.Background()

	for _, s := range []struct{ id, date string }{{"a", "2026-01-02"}, {"b", "2026-01-03"}, {"c", "2026-01-01"}} {
		rec := backend.Record{"id": s.id, "user_id": uid, "date": s.date}
		if err := b.Upsert(ctx, domain.TableSessions, rec, domain.ConflictID); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := b.Select(ctx, domain.TableSessions, backend.Eq("user_id", uid).Order("date", true))
	if err != nil {
		t.Fatal(err)
	}
	var ids string
	for _, r := range rows {
		ids += r.String("id")
	}
	if ids != "bac" {
		t.Errorf("order = %s, want bac", ids)
	}

	if err := b.Delete(ctx, domain.TableSessions, backend.Eq("id", "a").And("user_id", uid)); err != nil {
		t.Fatal(err)
	}
	if n := len(b.Rows(domain.TableSessions)); n != 2 {
		t.Errorf("%d rows after Delete, want 2", n)
	}
	if err := b.Delete(ctx, "no_such_table", backend.Filter{}); err != nil {
		t.Errorf("Delete(missing table) error = %v", err)
	}
}
