package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/claudekit/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM operations`).Scan(&count); err != nil {
		t.Fatalf("operations table missing: %v", err)
	}
}

func TestRecordAssignsIDAndTime(t *testing.T) {
	db := testDB(t)
	if err := db.Record(models.JournalEntry{Component: "agents", Operation: models.OpInstall, Outcome: models.OutcomeSuccess}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entries, err := db.List("agents", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	if entries[0].ID == "" || entries[0].At.IsZero() {
		t.Errorf("entry = %+v, want id and time set", entries[0])
	}
}

func TestListNewestFirstAndFiltered(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = db.Record(models.JournalEntry{Component: "agents", Operation: models.OpInstall, Outcome: models.OutcomeSuccess, At: base})
	_ = db.Record(models.JournalEntry{Component: "core", Operation: models.OpInstall, Outcome: models.OutcomeSuccess, At: base.Add(time.Minute)})
	_ = db.Record(models.JournalEntry{Component: "agents", Operation: models.OpUpdate, Outcome: models.OutcomeNoOp, At: base.Add(2 * time.Minute)})

	all, err := db.List("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Operation != models.OpUpdate {
		t.Errorf("first = %+v, want newest update", all[0])
	}

	agents, err := db.List("agents", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(agents) != 1 || agents[0].Outcome != models.OutcomeNoOp {
		t.Errorf("agents = %+v", agents)
	}
}

func TestRecordKeepsFields(t *testing.T) {
	db := testDB(t)
	in := models.JournalEntry{
		ID:          "fixed-id",
		Component:   "agents",
		Operation:   models.OpUpdate,
		Outcome:     models.OutcomeRolledBack,
		FromVersion: "1.0.0",
		ToVersion:   "2.0.0",
		Files:       4,
		Checksum:    "abc",
		Error:       "post-install failed",
	}
	if err := db.Record(in); err != nil {
		t.Fatal(err)
	}
	got, _ := db.List("agents", 1)
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	g := got[0]
	if g.ID != "fixed-id" || g.FromVersion != "1.0.0" || g.ToVersion != "2.0.0" || g.Files != 4 || g.Checksum != "abc" || g.Error != in.Error {
		t.Errorf("round trip = %+v", g)
	}
}

func TestRecord_DuplicateID(t *testing.T) {
	db := testDB(t)
	e := models.JournalEntry{ID: "dup", Component: "a", Operation: models.OpInstall, Outcome: models.OutcomeSuccess}
	if err := db.Record(e); err != nil {
		t.Fatal(err)
	}
	if err := db.Record(e); err == nil {
		t.Error("expected primary key violation")
	}
}
