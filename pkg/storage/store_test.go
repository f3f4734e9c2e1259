package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/unijobs/unijobs/pkg/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "offers.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return store
}

func testOffer() *core.Offer {
	publish := time.Date(2019, 11, 22, 10, 0, 0, 0, time.UTC)
	minDur, maxDur := 3, 6
	paid := true
	return &core.Offer{
		Title:          "Backend Engineer",
		PublishDate:    publish,
		PublishEndDate: publish.AddDate(0, 1, 0),
		JobMinDuration: &minDur,
		JobMaxDuration: &maxDur,
		Description:    "Build and operate backend services.",
		Contacts:       []string{"jobs@example.com"},
		IsPaid:         &paid,
		JobType:        "FULL-TIME",
		Fields:         []string{"BACKEND", "DEVOPS"},
		Technologies:   []string{"Go"},
		Owner:          "company-1",
		OwnerName:      "Example Corp",
		Location:       "Lisbon, Portugal",
	}
}

func TestCreateAssignsID(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	if err := store.Create(offer); err != nil {
		t.Fatalf("creating offer: %v", err)
	}
	if offer.ID == "" {
		t.Fatal("expected store to assign an id")
	}

	second := testOffer()
	if err := store.Create(second); err != nil {
		t.Fatalf("creating second offer: %v", err)
	}
	if second.ID <= offer.ID {
		t.Errorf("expected ids to be time-ordered, got %q then %q", offer.ID, second.ID)
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	if err := store.Create(offer); err != nil {
		t.Fatalf("creating offer: %v", err)
	}

	got, err := store.GetByID(offer.ID)
	if err != nil {
		t.Fatalf("fetching offer: %v", err)
	}

	if got.Title != offer.Title {
		t.Errorf("title = %q, want %q", got.Title, offer.Title)
	}
	if !got.PublishDate.Equal(offer.PublishDate) {
		t.Errorf("publishDate = %v, want %v", got.PublishDate, offer.PublishDate)
	}
	if got.JobMinDuration == nil || *got.JobMinDuration != 3 {
		t.Errorf("jobMinDuration = %v, want 3", got.JobMinDuration)
	}
	if got.JobMaxDuration == nil || *got.JobMaxDuration != 6 {
		t.Errorf("jobMaxDuration = %v, want 6", got.JobMaxDuration)
	}
	if got.IsPaid == nil || !*got.IsPaid {
		t.Errorf("isPaid = %v, want true", got.IsPaid)
	}
	if got.Vacancies != nil {
		t.Errorf("vacancies = %v, want nil", got.Vacancies)
	}
	if len(got.Fields) != 2 || got.Fields[0] != "BACKEND" {
		t.Errorf("fields = %v", got.Fields)
	}
	if len(got.Contacts) != 1 || got.Contacts[0] != "jobs@example.com" {
		t.Errorf("contacts = %v", got.Contacts)
	}
}

func TestCreateNormalizesEnums(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	offer.JobType = "full-time"
	offer.Fields = []string{"backend", "devops"}
	offer.Technologies = []string{"go"}

	if err := store.Create(offer); err != nil {
		t.Fatalf("creating offer: %v", err)
	}

	got, err := store.GetByID(offer.ID)
	if err != nil {
		t.Fatalf("fetching offer: %v", err)
	}
	if got.JobType != "FULL-TIME" {
		t.Errorf("jobType = %q, want FULL-TIME", got.JobType)
	}
	if got.Technologies[0] != "Go" {
		t.Errorf("technologies = %v, want [Go]", got.Technologies)
	}
}

func TestCreateRejectsInvalidOffer(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	offer.Fields = []string{"BACKEND"} // below minimum
	if err := store.Create(offer); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByID("no-such-offer")
	if !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("err = %v, want ErrOfferNotFound", err)
	}
}

func TestHideEnable(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	if err := store.Create(offer); err != nil {
		t.Fatalf("creating offer: %v", err)
	}

	if err := store.Hide(offer.ID, core.HiddenReasonAdminRequest, "spam"); err != nil {
		t.Fatalf("hiding offer: %v", err)
	}
	got, err := store.GetByID(offer.ID)
	if err != nil {
		t.Fatalf("fetching offer: %v", err)
	}
	if !got.IsHidden || got.HiddenReason != core.HiddenReasonAdminRequest || got.AdminReason != "spam" {
		t.Errorf("hidden state = (%v, %q, %q)", got.IsHidden, got.HiddenReason, got.AdminReason)
	}

	if err := store.Enable(offer.ID); err != nil {
		t.Fatalf("enabling offer: %v", err)
	}
	got, err = store.GetByID(offer.ID)
	if err != nil {
		t.Fatalf("fetching offer: %v", err)
	}
	if got.IsHidden || got.HiddenReason != "" || got.AdminReason != "" {
		t.Errorf("hidden state after enable = (%v, %q, %q)", got.IsHidden, got.HiddenReason, got.AdminReason)
	}

	if err := store.Hide("no-such-offer", core.HiddenReasonAdminRequest, ""); !errors.Is(err, ErrOfferNotFound) {
		t.Errorf("hide missing offer: err = %v, want ErrOfferNotFound", err)
	}
}

func TestUpdatePreservesHiddenState(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	if err := store.Create(offer); err != nil {
		t.Fatalf("creating offer: %v", err)
	}
	if err := store.Hide(offer.ID, core.HiddenReasonCompanyRequest, "requested"); err != nil {
		t.Fatalf("hiding offer: %v", err)
	}

	edited := testOffer()
	edited.ID = offer.ID
	edited.Title = "Senior Backend Engineer"
	if err := store.Update(edited); err != nil {
		t.Fatalf("updating offer: %v", err)
	}

	got, err := store.GetByID(offer.ID)
	if err != nil {
		t.Fatalf("fetching offer: %v", err)
	}
	if got.Title != "Senior Backend Engineer" {
		t.Errorf("title = %q", got.Title)
	}
	if !got.IsHidden || got.HiddenReason != core.HiddenReasonCompanyRequest {
		t.Errorf("expected hidden state to survive update, got (%v, %q)", got.IsHidden, got.HiddenReason)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	if err := store.Create(offer); err != nil {
		t.Fatalf("creating offer: %v", err)
	}
	if err := store.Delete(offer.ID); err != nil {
		t.Fatalf("deleting offer: %v", err)
	}
	if _, err := store.GetByID(offer.ID); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("err = %v, want ErrOfferNotFound", err)
	}
	if err := store.Delete(offer.ID); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("second delete: err = %v, want ErrOfferNotFound", err)
	}
}

func TestQueryHitsScoreColumn(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	if err := store.Create(offer); err != nil {
		t.Fatalf("creating offer: %v", err)
	}

	hits, err := store.QueryHits("SELECT " + OfferColumns + ", 0.0 AS score FROM offers o")
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Offer.ID != offer.ID {
		t.Errorf("hit id = %q, want %q", hits[0].Offer.ID, offer.ID)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)

	current := testOffer()
	if err := store.Create(current); err != nil {
		t.Fatalf("creating offer: %v", err)
	}
	hidden := testOffer()
	if err := store.Create(hidden); err != nil {
		t.Fatalf("creating offer: %v", err)
	}
	if err := store.Hide(hidden.ID, core.HiddenReasonAdminRequest, ""); err != nil {
		t.Fatalf("hiding offer: %v", err)
	}

	now := FormatTime(time.Date(2019, 11, 25, 0, 0, 0, 0, time.UTC))
	stats, err := store.GetStats(now)
	if err != nil {
		t.Fatalf("getting stats: %v", err)
	}
	if stats.TotalOffers != 2 {
		t.Errorf("total = %d, want 2", stats.TotalOffers)
	}
	if stats.HiddenOffers != 1 {
		t.Errorf("hidden = %d, want 1", stats.HiddenOffers)
	}
	if stats.CurrentOffers != 1 {
		t.Errorf("current = %d, want 1", stats.CurrentOffers)
	}
}

func TestMaintenance(t *testing.T) {
	store := newTestStore(t)

	offer := testOffer()
	if err := store.Create(offer); err != nil {
		t.Fatalf("creating offer: %v", err)
	}

	if err := store.IntegrityCheck(); err != nil {
		t.Errorf("integrity check: %v", err)
	}
	if err := store.FTSIntegrityCheck(); err != nil {
		t.Errorf("FTS integrity check: %v", err)
	}
	if err := store.FTSRebuild(); err != nil {
		t.Fatalf("FTS rebuild: %v", err)
	}

	// The rebuilt index must still match the offer.
	hits, err := store.QueryHits("SELECT " + OfferColumns + ", 1.0 AS score " +
		"FROM offers o JOIN offers_fts ON o.rowid = offers_fts.rowid WHERE offers_fts MATCH ?", `"backend"`)
	if err != nil {
		t.Fatalf("querying rebuilt index: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits after rebuild, want 1", len(hits))
	}

	if err := store.Analyze(); err != nil {
		t.Errorf("analyze: %v", err)
	}
	if err := store.WALCheckpoint(); err != nil {
		t.Errorf("checkpoint: %v", err)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	in := time.Date(2019, 11, 22, 10, 30, 45, 123456789, time.UTC)
	encoded := FormatTime(in)
	out, err := ParseTime(encoded)
	if err != nil {
		t.Fatalf("parsing %q: %v", encoded, err)
	}
	if !out.Equal(in.Truncate(time.Second)) {
		t.Errorf("round trip = %v, want %v", out, in.Truncate(time.Second))
	}
}
