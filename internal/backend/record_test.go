package backend

import (
	"encoding/json"
	"testing"

	"github.com/yndnr/supertracker-go/internal/core/domain"
)

func TestToRecordDecode(t *testing.T) {
	in := domain.WorkoutSession{
		ID:          "s1",
		UserID:      "u1",
		SessionData: json.RawMessage(`{"sets":3}`),
		Date:        "2026-10-01",
		Completed:   true,
	}

	rec, err := ToRecord(in)
	if err != nil {
		t.Fatalf("ToRecord() error = %v", err)
	}
	if rec.String("user_id") != "u1" || rec.String("completed") != "true" {
		t.Errorf("ToRecord() = %v", rec)
	}

	var out domain.WorkoutSession
	if err := rec.Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.ID != in.ID || out.Date != in.Date || string(out.SessionData) != `{"sets":3}` {
		t.Errorf("Decode() = %+v", out)
	}

	if _, err := ToRecord([]int{1}); err == nil {
		t.Error("ToRecord(slice) should fail")
	}
}

func TestFilter(t *testing.T) {
	rows := []Record{
		{"id": "a", "user_id": "u1", "date": "2026-01-02"},
		{"id": "b", "user_id": "u2", "date": "2026-01-01"},
		{"id": "c", "user_id": "u1", "date": "2026-01-03"},
	}

	f := Eq("user_id", "u1")
	var matched []Record
	for _, r := range rows {
		if f.Matches(r) {
			matched = append(matched, r)
		}
	}
	if len(matched) != 2 {
		t.Fatalf("Matches() kept %d rows, want 2", len(matched))
	}

	f.Order("date", true).Sort(matched)
	if matched[0].String("id") != "c" || matched[1].String("id") != "a" {
		t.Errorf("Sort(desc) = %v", matched)
	}

	if !(Filter{}).Matches(rows[1]) {
		t.Error("zero Filter should match every row")
	}
	if Eq("id", "a").And("user_id", "u2").Matches(rows[0]) {
		t.Error("And() condition ignored")
	}
}

func TestFilter_AndDoesNotAlias(t *testing.T) {
	base := Eq("user_id", "u1")
	a := base.And("id", "a")
	b := base.And("id", "b")
	if a.String() != "user_id=eq.u1,id=eq.a" {
		t.Errorf("a = %s", a)
	}
	if b.String() != "user_id=eq.u1,id=eq.b" {
		t.Errorf("b = %s", b)
	}
}

func TestRecordClone(t *testing.T) {
	r := Record{"id": "a"}
	cp := r.Clone()
	cp["id"] = "b"
	if r["id"] != "a" {
		t.Error("Clone() shares storage with the original")
	}
	if Record(nil).Clone() != nil {
		t.Error("Clone(nil) should be nil")
	}
}
