// Package storage implements the SQLite-backed offer store. It owns the
// offers table and the offers_fts full-text index, keeping both in sync
// inside a single transaction for every write.
//
// The search engine (pkg/search) builds SELECT statements against this
// store's schema and executes them through QueryHits; the store itself never
// interprets search semantics.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/unijobs/unijobs/pkg/core"
	"github.com/unijobs/unijobs/pkg/db"
	"github.com/unijobs/unijobs/pkg/log"
	"github.com/unijobs/unijobs/pkg/realtime"
)

// ErrOfferNotFound is returned when an offer id does not exist.
var ErrOfferNotFound = errors.New("offer not found")

// TimeLayout is the canonical encoding for timestamps in the database and in
// continuation tokens: RFC3339, UTC, whole seconds. Lexicographic order of
// encoded values equals chronological order.
const TimeLayout = time.RFC3339

// OfferColumns is the canonical select list for offer rows, qualified with
// the "o" table alias used by the query builder. QueryHits scans rows in
// exactly this order, followed by a relevance score column.
const OfferColumns = `o.id, o.title, o.publish_date, o.publish_end_date,
	o.job_min_duration, o.job_max_duration, o.job_start_date, o.description,
	o.contacts, o.is_paid, o.vacancies, o.job_type, o.fields, o.technologies,
	o.is_hidden, o.hidden_reason, o.admin_reason, o.owner, o.owner_name,
	o.location, o.requirements`

var logger = log.ForComponent("storage")

// Store is a handle to one offer database.
type Store struct {
	db  *sql.DB
	hub *realtime.Hub
}

// Open opens (creating if necessary) the offer database at dbPath and brings
// its schema up to date.
func Open(dbPath string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
		"PRAGMA optimize",
	}

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.Initialize(sqlDB); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for migration tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetEventHub attaches a realtime hub; newly created offers are broadcast to
// it. A nil hub disables broadcasting.
func (s *Store) SetEventHub(hub *realtime.Hub) {
	s.hub = hub
}

// FormatTime encodes a timestamp in the canonical database layout.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimeLayout)
}

// ParseTime decodes a timestamp stored by FormatTime. It tolerates
// fractional seconds written by older builds.
func ParseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", value, err)
		}
	}
	return t.UTC(), nil
}

// Create validates, normalizes and stores a new offer. The store assigns the
// identifier: a UUIDv7, whose string form is time-ordered, so identifiers are
// totally ordered the way the pagination protocol requires.
func (s *Store) Create(offer *core.Offer) error {
	if err := offer.Normalize(); err != nil {
		return err
	}
	if err := offer.Validate(); err != nil {
		return err
	}
	if offer.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generating offer id: %w", err)
		}
		offer.ID = id.String()
	}

	if err := s.writeOffer(offer); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Broadcast(realtime.Event{
			Type: "offer",
			Offer: realtime.OfferEvent{
				ID:           offer.ID,
				Title:        offer.Title,
				OwnerName:    offer.OwnerName,
				Location:     offer.Location,
				JobType:      offer.JobType,
				Fields:       offer.Fields,
				Technologies: offer.Technologies,
				PublishDate:  offer.PublishDate,
			},
		})
	}
	return nil
}

// Update replaces a stored offer and refreshes its full-text index entry.
func (s *Store) Update(offer *core.Offer) error {
	if offer.ID == "" {
		return fmt.Errorf("offer id is required")
	}
	if err := offer.Normalize(); err != nil {
		return err
	}
	if err := offer.Validate(); err != nil {
		return err
	}

	existing, err := s.GetByID(offer.ID)
	if err != nil {
		return err
	}
	// Hidden state is owned by Hide/Enable, not by edits.
	offer.IsHidden = existing.IsHidden
	offer.HiddenReason = existing.HiddenReason
	offer.AdminReason = existing.AdminReason

	return s.writeOffer(offer)
}

// Hide marks an offer hidden with the given reason. adminReason is optional
// free text recorded for moderators.
func (s *Store) Hide(id, reason, adminReason string) error {
	res, err := s.db.Exec(`
		UPDATE offers SET is_hidden = 1, hidden_reason = ?, admin_reason = ?
		WHERE id = ?
	`, reason, nullableString(adminReason), id)
	if err != nil {
		return fmt.Errorf("hiding offer %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Enable clears an offer's hidden state.
func (s *Store) Enable(id string) error {
	res, err := s.db.Exec(`
		UPDATE offers SET is_hidden = 0, hidden_reason = NULL, admin_reason = NULL
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("enabling offer %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Delete removes an offer and its index entry.
func (s *Store) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				logger.Warnf("failed to rollback transaction: %v", err)
			}
		}
	}()

	if _, err := tx.Exec(`
		DELETE FROM offers_fts WHERE rowid = (SELECT rowid FROM offers WHERE id = ?)
	`, id); err != nil {
		return fmt.Errorf("deleting offer %s from index: %w", id, err)
	}

	res, err := tx.Exec("DELETE FROM offers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting offer %s: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a single offer. Returns ErrOfferNotFound when absent.
func (s *Store) GetByID(id string) (*core.Offer, error) {
	query := "SELECT " + strings.ReplaceAll(OfferColumns, "o.", "") + " FROM offers WHERE id = ?"
	row := s.db.QueryRow(query, id)

	offer, err := scanOffer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching offer %s: %w", id, err)
	}
	return offer, nil
}

// QueryHits executes a SELECT produced by the query builder. The statement
// must select OfferColumns followed by one numeric relevance score column.
func (s *Store) QueryHits(query string, args ...any) ([]core.SearchHit, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying offers: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var hits []core.SearchHit
	for rows.Next() {
		var score float64
		offer, err := scanOffer(func(dest ...any) error {
			return rows.Scan(append(dest, &score)...)
		})
		if err != nil {
			return nil, fmt.Errorf("scanning offer row: %w", err)
		}
		hits = append(hits, core.SearchHit{Offer: *offer, Score: score})
	}

	return hits, rows.Err()
}

// writeOffer upserts the offer row and its FTS entry in one transaction.
func (s *Store) writeOffer(offer *core.Offer) error {
	contacts, err := json.Marshal(offer.Contacts)
	if err != nil {
		return fmt.Errorf("marshaling contacts for offer %s: %w", offer.ID, err)
	}
	fields, err := json.Marshal(offer.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields for offer %s: %w", offer.ID, err)
	}
	technologies, err := json.Marshal(offer.Technologies)
	if err != nil {
		return fmt.Errorf("marshaling technologies for offer %s: %w", offer.ID, err)
	}
	var requirements any
	if offer.Requirements != nil {
		data, err := json.Marshal(offer.Requirements)
		if err != nil {
			return fmt.Errorf("marshaling requirements for offer %s: %w", offer.ID, err)
		}
		requirements = string(data)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				logger.Warnf("failed to rollback transaction: %v", err)
			}
		}
	}()

	var jobStartDate any
	if offer.JobStartDate != nil {
		jobStartDate = FormatTime(*offer.JobStartDate)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO offers (
			id, title, publish_date, publish_end_date,
			job_min_duration, job_max_duration, job_start_date, description,
			contacts, is_paid, vacancies, job_type, fields, technologies,
			is_hidden, hidden_reason, admin_reason, owner, owner_name,
			location, requirements
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		offer.ID, offer.Title, FormatTime(offer.PublishDate), FormatTime(offer.PublishEndDate),
		offer.JobMinDuration, offer.JobMaxDuration, jobStartDate, offer.Description,
		string(contacts), offer.IsPaid, offer.Vacancies, offer.JobType, string(fields), string(technologies),
		offer.IsHidden, nullableString(offer.HiddenReason), nullableString(offer.AdminReason), offer.Owner, offer.OwnerName,
		offer.Location, requirements,
	); err != nil {
		return fmt.Errorf("inserting offer %s: %w", offer.ID, err)
	}

	title, ownerName, jobType, ftsFields, ftsTechnologies, location := offer.SearchText()
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO offers_fts (rowid, title, owner_name, job_type, fields, technologies, location)
		VALUES ((SELECT rowid FROM offers WHERE id = ?), ?, ?, ?, ?, ?, ?)
	`, offer.ID, title, ownerName, jobType, ftsFields, ftsTechnologies, location); err != nil {
		return fmt.Errorf("inserting offer %s into FTS: %w", offer.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// scanOffer reads one offer row through the provided scan function, which
// must accept destinations in OfferColumns order.
func scanOffer(scan func(dest ...any) error) (*core.Offer, error) {
	var (
		offer                                     core.Offer
		publishDate, publishEndDate               string
		jobStartDate, hiddenReason, adminReason   sql.NullString
		contacts, fields, technologies            string
		requirements                              sql.NullString
		jobMinDuration, jobMaxDuration, vacancies sql.NullInt64
		isPaid                                    sql.NullBool
	)

	err := scan(
		&offer.ID, &offer.Title, &publishDate, &publishEndDate,
		&jobMinDuration, &jobMaxDuration, &jobStartDate, &offer.Description,
		&contacts, &isPaid, &vacancies, &offer.JobType, &fields, &technologies,
		&offer.IsHidden, &hiddenReason, &adminReason, &offer.Owner, &offer.OwnerName,
		&offer.Location, &requirements,
	)
	if err != nil {
		return nil, err
	}

	if offer.PublishDate, err = ParseTime(publishDate); err != nil {
		return nil, err
	}
	if offer.PublishEndDate, err = ParseTime(publishEndDate); err != nil {
		return nil, err
	}
	if jobStartDate.Valid {
		t, err := ParseTime(jobStartDate.String)
		if err != nil {
			return nil, err
		}
		offer.JobStartDate = &t
	}
	if jobMinDuration.Valid {
		v := int(jobMinDuration.Int64)
		offer.JobMinDuration = &v
	}
	if jobMaxDuration.Valid {
		v := int(jobMaxDuration.Int64)
		offer.JobMaxDuration = &v
	}
	if vacancies.Valid {
		v := int(vacancies.Int64)
		offer.Vacancies = &v
	}
	if isPaid.Valid {
		v := isPaid.Bool
		offer.IsPaid = &v
	}
	offer.HiddenReason = hiddenReason.String
	offer.AdminReason = adminReason.String

	if err := json.Unmarshal([]byte(contacts), &offer.Contacts); err != nil {
		return nil, fmt.Errorf("unmarshaling contacts for offer %s: %w", offer.ID, err)
	}
	if err := json.Unmarshal([]byte(fields), &offer.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields for offer %s: %w", offer.ID, err)
	}
	if err := json.Unmarshal([]byte(technologies), &offer.Technologies); err != nil {
		return nil, fmt.Errorf("unmarshaling technologies for offer %s: %w", offer.ID, err)
	}
	if requirements.Valid {
		if err := json.Unmarshal([]byte(requirements.String), &offer.Requirements); err != nil {
			return nil, fmt.Errorf("unmarshaling requirements for offer %s: %w", offer.ID, err)
		}
	}

	return &offer, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrOfferNotFound, id)
	}
	return nil
}
