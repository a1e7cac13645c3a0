package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/commonground-hq/commonground/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS speeches (
	id         TEXT PRIMARY KEY,
	granule_id TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL DEFAULT '',
	speaker    TEXT,
	party      TEXT,
	chamber    TEXT NOT NULL,
	date       DATETIME NOT NULL,
	raw_html   TEXT NOT NULL DEFAULT '',
	plain_text TEXT NOT NULL DEFAULT '',
	processed  INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS briefs (
	id                   TEXT PRIMARY KEY,
	date                 DATETIME NOT NULL,
	topic                TEXT NOT NULL,
	slug                 TEXT NOT NULL,
	red_position         TEXT NOT NULL,
	blue_position        TEXT NOT NULL,
	shared_values        TEXT NOT NULL DEFAULT '[]',
	differences          TEXT NOT NULL DEFAULT '[]',
	compromise_paths     TEXT NOT NULL DEFAULT '[]',
	democracy_check      TEXT NOT NULL DEFAULT '',
	democracy_flagged    INTEGER NOT NULL DEFAULT 0,
	policy_draft         TEXT NOT NULL DEFAULT '',
	agent_conversation   TEXT NOT NULL DEFAULT '[]',
	collaboration_score  TEXT,
	collaboration_reason TEXT,
	source_speech_meta   TEXT,
	source_speech_ids    TEXT NOT NULL DEFAULT '[]',
	created_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS bills (
	id                   TEXT PRIMARY KEY,
	congress             TEXT NOT NULL,
	bill_type            TEXT NOT NULL,
	bill_number          TEXT NOT NULL,
	title                TEXT NOT NULL,
	policy_area          TEXT,
	legislative_subjects TEXT NOT NULL DEFAULT '[]',
	sponsor_name         TEXT,
	sponsor_party        TEXT,
	sponsor_state        TEXT,
	cosponsor_count_r    INTEGER NOT NULL DEFAULT 0,
	cosponsor_count_d    INTEGER NOT NULL DEFAULT 0,
	cosponsor_count_i    INTEGER NOT NULL DEFAULT 0,
	cosponsor_total      INTEGER NOT NULL DEFAULT 0,
	bipartisan_score     REAL NOT NULL DEFAULT 0,
	status               TEXT NOT NULL DEFAULT 'introduced',
	latest_action_text   TEXT,
	latest_action_date   DATETIME,
	congress_gov_url     TEXT NOT NULL DEFAULT '',
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (congress, bill_type, bill_number)
);

CREATE TABLE IF NOT EXISTS bill_topic_links (
	bill_id    TEXT NOT NULL REFERENCES bills(id),
	topic_slug TEXT NOT NULL,
	confidence TEXT NOT NULL DEFAULT 'medium',
	PRIMARY KEY (bill_id, topic_slug)
);

CREATE INDEX IF NOT EXISTS idx_speeches_date ON speeches(date);
CREATE INDEX IF NOT EXISTS idx_speeches_processed ON speeches(processed);
CREATE INDEX IF NOT EXISTS idx_briefs_slug ON briefs(slug);
CREATE INDEX IF NOT EXISTS idx_briefs_date ON briefs(date);
CREATE INDEX IF NOT EXISTS idx_bills_score ON bills(bipartisan_score);
CREATE INDEX IF NOT EXISTS idx_bill_topic_links_slug ON bill_topic_links(topic_slug);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteSpeechColumns = `id, granule_id, title, speaker, party, chamber, date, raw_html, plain_text, processed, created_at`

func (s *SQLiteStore) InsertSpeech(ctx context.Context, speech model.Speech) (*model.Speech, error) {
	if speech.ID == "" {
		speech.ID = uuid.New().String()
	}
	speech.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO speeches (id, granule_id, title, speaker, party, chamber, date, raw_html, plain_text, processed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		speech.ID, speech.GranuleID, speech.Title, speech.Speaker, speech.Party,
		string(speech.Chamber), speech.Date, speech.RawHTML, speech.PlainText,
		speech.Processed, speech.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert speech %s", speech.GranuleID)
	}
	return &speech, nil
}

func (s *SQLiteStore) GetSpeechByGranuleID(ctx context.Context, granuleID string) (*model.Speech, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteSpeechColumns+` FROM speeches WHERE granule_id = ?`, granuleID)

	sp, err := scanSQLiteSpeech(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get speech %s", granuleID)
	}
	return sp, nil
}

func (s *SQLiteStore) ListSpeechesByDate(ctx context.Context, start, end time.Time) ([]model.Speech, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteSpeechColumns+` FROM speeches WHERE date >= ? AND date <= ? ORDER BY created_at`,
		start, end)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list speeches")
	}
	defer rows.Close()

	var speeches []model.Speech
	for rows.Next() {
		sp, err := scanSQLiteSpeech(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan speech")
		}
		speeches = append(speeches, *sp)
	}
	return speeches, eris.Wrap(rows.Err(), "sqlite: list speeches iterate")
}

func (s *SQLiteStore) MarkSpeechProcessed(ctx context.Context, speechID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE speeches SET processed = 1 WHERE id = ?`, speechID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark speech processed %s", speechID)
	}
	return checkRowsAffected(res, "speech", speechID)
}

const sqliteBriefColumns = `id, date, topic, slug, red_position, blue_position, shared_values, differences, compromise_paths, democracy_check, democracy_flagged, policy_draft, agent_conversation, collaboration_score, collaboration_reason, source_speech_meta, source_speech_ids, created_at`

func (s *SQLiteStore) InsertBrief(ctx context.Context, brief model.Brief) (*model.Brief, error) {
	if brief.ID == "" {
		brief.ID = uuid.New().String()
	}
	brief.CreatedAt = time.Now().UTC()

	sharedValues, err := jsonList(brief.SharedValues)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal shared values")
	}
	differences, err := jsonList(brief.Differences)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal differences")
	}
	compromisePaths, err := jsonList(brief.CompromisePaths)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal compromise paths")
	}
	conversation, err := json.Marshal(brief.AgentConversation)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal conversation")
	}
	speechIDs, err := jsonList(brief.SourceSpeechIDs)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal speech ids")
	}
	var speechMeta sql.NullString
	if brief.SourceSpeechMeta != nil {
		raw, err := json.Marshal(brief.SourceSpeechMeta)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal speech meta")
		}
		speechMeta = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO briefs (id, date, topic, slug, red_position, blue_position, shared_values, differences, compromise_paths, democracy_check, democracy_flagged, policy_draft, agent_conversation, collaboration_score, collaboration_reason, source_speech_meta, source_speech_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		brief.ID, brief.Date, brief.Topic, brief.Slug, brief.RedPosition, brief.BluePosition,
		string(sharedValues), string(differences), string(compromisePaths),
		brief.DemocracyCheck, brief.DemocracyFlagged, brief.PolicyDraft, string(conversation),
		brief.CollaborationScore, brief.CollaborationReason, speechMeta, string(speechIDs),
		brief.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert brief %s", brief.Slug)
	}
	return &brief, nil
}

func (s *SQLiteStore) GetBriefBySlug(ctx context.Context, slug string) (*model.Brief, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteBriefColumns+` FROM briefs WHERE slug = ? ORDER BY date DESC LIMIT 1`, slug)

	b, err := scanSQLiteBrief(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get brief %s", slug)
	}
	return b, nil
}

func (s *SQLiteStore) ListBriefs(ctx context.Context, filter BriefFilter) ([]model.Brief, error) {
	query := `SELECT ` + sqliteBriefColumns + ` FROM briefs WHERE 1=1`
	var args []any

	if filter.Slug != "" {
		query += ` AND slug = ?`
		args = append(args, filter.Slug)
	}
	if !filter.Start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		query += ` AND date <= ?`
		args = append(args, filter.End)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list briefs")
	}
	defer rows.Close()

	var briefs []model.Brief
	for rows.Next() {
		b, err := scanSQLiteBrief(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brief")
		}
		briefs = append(briefs, *b)
	}
	return briefs, eris.Wrap(rows.Err(), "sqlite: list briefs iterate")
}

func (s *SQLiteStore) ListDistinctTopicSlugs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT slug FROM briefs ORDER BY slug`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list topic slugs")
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan slug")
		}
		slugs = append(slugs, slug)
	}
	return slugs, eris.Wrap(rows.Err(), "sqlite: list topic slugs iterate")
}

const sqliteBillColumns = `id, congress, bill_type, bill_number, title, policy_area, legislative_subjects, sponsor_name, sponsor_party, sponsor_state, cosponsor_count_r, cosponsor_count_d, cosponsor_count_i, cosponsor_total, bipartisan_score, status, latest_action_text, latest_action_date, congress_gov_url, updated_at`

const sqliteBillColumnsPrefixed = `bills.id, bills.congress, bills.bill_type, bills.bill_number, bills.title, bills.policy_area, bills.legislative_subjects, bills.sponsor_name, bills.sponsor_party, bills.sponsor_state, bills.cosponsor_count_r, bills.cosponsor_count_d, bills.cosponsor_count_i, bills.cosponsor_total, bills.bipartisan_score, bills.status, bills.latest_action_text, bills.latest_action_date, bills.congress_gov_url, bills.updated_at`

func (s *SQLiteStore) GetBill(ctx context.Context, key model.BillKey) (*model.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteBillColumns+` FROM bills WHERE congress = ? AND bill_type = ? AND bill_number = ?`,
		key.Congress, key.BillType, key.BillNumber)

	b, err := scanSQLiteBill(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get bill %s-%s", key.BillType, key.BillNumber)
	}
	return b, nil
}

func (s *SQLiteStore) UpsertBill(ctx context.Context, bill model.Bill) (*model.Bill, error) {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	bill.UpdatedAt = time.Now().UTC()

	subjects, err := jsonList(bill.LegislativeSubjects)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal subjects")
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO bills (id, congress, bill_type, bill_number, title, policy_area, legislative_subjects, sponsor_name, sponsor_party, sponsor_state, cosponsor_count_r, cosponsor_count_d, cosponsor_count_i, cosponsor_total, bipartisan_score, status, latest_action_text, latest_action_date, congress_gov_url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (congress, bill_type, bill_number) DO UPDATE SET
			title = excluded.title,
			policy_area = excluded.policy_area,
			legislative_subjects = excluded.legislative_subjects,
			sponsor_name = excluded.sponsor_name,
			sponsor_party = excluded.sponsor_party,
			sponsor_state = excluded.sponsor_state,
			cosponsor_count_r = excluded.cosponsor_count_r,
			cosponsor_count_d = excluded.cosponsor_count_d,
			cosponsor_count_i = excluded.cosponsor_count_i,
			cosponsor_total = excluded.cosponsor_total,
			bipartisan_score = excluded.bipartisan_score,
			status = excluded.status,
			latest_action_text = excluded.latest_action_text,
			latest_action_date = excluded.latest_action_date,
			congress_gov_url = excluded.congress_gov_url,
			updated_at = excluded.updated_at
		 RETURNING id`,
		bill.ID, bill.Congress, bill.BillType, bill.BillNumber, bill.Title, bill.PolicyArea,
		string(subjects), bill.SponsorName, bill.SponsorParty, bill.SponsorState,
		bill.CosponsorCountR, bill.CosponsorCountD, bill.CosponsorCountI, bill.CosponsorTotal,
		bill.BipartisanScore, string(bill.Status), bill.LatestActionText, bill.LatestActionDate,
		bill.CongressGovURL, bill.UpdatedAt,
	)
	if err := row.Scan(&bill.ID); err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert bill %s-%s", bill.BillType, bill.BillNumber)
	}
	return &bill, nil
}

func (s *SQLiteStore) ListBills(ctx context.Context, filter BillFilter) ([]model.Bill, error) {
	query := `SELECT ` + sqliteBillColumnsPrefixed + ` FROM bills`
	var args []any

	if filter.TopicSlug != "" {
		query += ` INNER JOIN bill_topic_links l ON l.bill_id = bills.id AND l.topic_slug = ?`
		args = append(args, filter.TopicSlug)
	}
	query += ` WHERE 1=1`
	if filter.Status != "" {
		query += ` AND bills.status = ?`
		args = append(args, filter.Status)
	}
	if filter.MinScore > 0 {
		query += ` AND bills.bipartisan_score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY bills.bipartisan_score DESC, bills.updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list bills")
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanSQLiteBill(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan bill")
		}
		bills = append(bills, *b)
	}
	return bills, eris.Wrap(rows.Err(), "sqlite: list bills iterate")
}

func (s *SQLiteStore) InsertBillTopicLink(ctx context.Context, link model.BillTopicLink) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bill_topic_links (bill_id, topic_slug, confidence) VALUES (?, ?, ?)
		 ON CONFLICT (bill_id, topic_slug) DO NOTHING`,
		link.BillID, link.TopicSlug, string(link.Confidence))
	return eris.Wrapf(err, "sqlite: insert bill topic link %s", link.TopicSlug)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteSpeech(row scannable) (*model.Speech, error) {
	var sp model.Speech
	var chamber string
	err := row.Scan(&sp.ID, &sp.GranuleID, &sp.Title, &sp.Speaker, &sp.Party,
		&chamber, &sp.Date, &sp.RawHTML, &sp.PlainText, &sp.Processed, &sp.CreatedAt)
	if err != nil {
		return nil, err
	}
	sp.Chamber = model.Chamber(chamber)
	return &sp, nil
}

func scanSQLiteBrief(row scannable) (*model.Brief, error) {
	var b model.Brief
	var sharedValues, differences, compromisePaths, conversation, speechIDs string
	var speechMeta sql.NullString

	err := row.Scan(&b.ID, &b.Date, &b.Topic, &b.Slug, &b.RedPosition, &b.BluePosition,
		&sharedValues, &differences, &compromisePaths, &b.DemocracyCheck, &b.DemocracyFlagged,
		&b.PolicyDraft, &conversation, &b.CollaborationScore, &b.CollaborationReason,
		&speechMeta, &speechIDs, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sharedValues), &b.SharedValues); err != nil {
		return nil, eris.Wrap(err, "unmarshal shared values")
	}
	if err := json.Unmarshal([]byte(differences), &b.Differences); err != nil {
		return nil, eris.Wrap(err, "unmarshal differences")
	}
	if err := json.Unmarshal([]byte(compromisePaths), &b.CompromisePaths); err != nil {
		return nil, eris.Wrap(err, "unmarshal compromise paths")
	}
	if err := json.Unmarshal([]byte(conversation), &b.AgentConversation); err != nil {
		return nil, eris.Wrap(err, "unmarshal conversation")
	}
	if err := json.Unmarshal([]byte(speechIDs), &b.SourceSpeechIDs); err != nil {
		return nil, eris.Wrap(err, "unmarshal speech ids")
	}
	if speechMeta.Valid {
		if err := json.Unmarshal([]byte(speechMeta.String), &b.SourceSpeechMeta); err != nil {
			return nil, eris.Wrap(err, "unmarshal speech meta")
		}
	}
	return &b, nil
}

func scanSQLiteBill(row scannable) (*model.Bill, error) {
	var b model.Bill
	var subjects, status string

	err := row.Scan(&b.ID, &b.Congress, &b.BillType, &b.BillNumber, &b.Title, &b.PolicyArea,
		&subjects, &b.SponsorName, &b.SponsorParty, &b.SponsorState,
		&b.CosponsorCountR, &b.CosponsorCountD, &b.CosponsorCountI, &b.CosponsorTotal,
		&b.BipartisanScore, &status, &b.LatestActionText, &b.LatestActionDate,
		&b.CongressGovURL, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.Status = model.BillStatus(status)
	if err := json.Unmarshal([]byte(subjects), &b.LegislativeSubjects); err != nil {
		return nil, eris.Wrap(err, "unmarshal subjects")
	}
	return &b, nil
}
