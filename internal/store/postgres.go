package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/commonground-hq/commonground/internal/db"
	"github.com/commonground-hq/commonground/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS speeches (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	granule_id TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL DEFAULT '',
	speaker    TEXT,
	party      TEXT,
	chamber    TEXT NOT NULL,
	date       TIMESTAMPTZ NOT NULL,
	raw_html   TEXT NOT NULL DEFAULT '',
	plain_text TEXT NOT NULL DEFAULT '',
	processed  BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_speeches_date ON speeches(date);
CREATE INDEX IF NOT EXISTS idx_speeches_processed ON speeches(processed);

CREATE TABLE IF NOT EXISTS briefs (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	date                 TIMESTAMPTZ NOT NULL,
	topic                TEXT NOT NULL,
	slug                 TEXT NOT NULL,
	red_position         TEXT NOT NULL,
	blue_position        TEXT NOT NULL,
	shared_values        JSONB NOT NULL DEFAULT '[]',
	differences          JSONB NOT NULL DEFAULT '[]',
	compromise_paths     JSONB NOT NULL DEFAULT '[]',
	democracy_check      TEXT NOT NULL DEFAULT '',
	democracy_flagged    BOOLEAN NOT NULL DEFAULT false,
	policy_draft         TEXT NOT NULL DEFAULT '',
	agent_conversation   JSONB NOT NULL DEFAULT '[]',
	collaboration_score  TEXT,
	collaboration_reason TEXT,
	source_speech_meta   JSONB,
	source_speech_ids    JSONB NOT NULL DEFAULT '[]',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_briefs_slug ON briefs(slug);
CREATE INDEX IF NOT EXISTS idx_briefs_date ON briefs(date DESC);

CREATE TABLE IF NOT EXISTS bills (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	congress             TEXT NOT NULL,
	bill_type            TEXT NOT NULL,
	bill_number          TEXT NOT NULL,
	title                TEXT NOT NULL,
	policy_area          TEXT,
	legislative_subjects JSONB NOT NULL DEFAULT '[]',
	sponsor_name         TEXT,
	sponsor_party        TEXT,
	sponsor_state        TEXT,
	cosponsor_count_r    INTEGER NOT NULL DEFAULT 0,
	cosponsor_count_d    INTEGER NOT NULL DEFAULT 0,
	cosponsor_count_i    INTEGER NOT NULL DEFAULT 0,
	cosponsor_total      INTEGER NOT NULL DEFAULT 0,
	bipartisan_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	status               TEXT NOT NULL DEFAULT 'introduced',
	latest_action_text   TEXT,
	latest_action_date   TIMESTAMPTZ,
	congress_gov_url     TEXT NOT NULL DEFAULT '',
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (congress, bill_type, bill_number)
);

CREATE INDEX IF NOT EXISTS idx_bills_score ON bills(bipartisan_score DESC);

CREATE TABLE IF NOT EXISTS bill_topic_links (
	bill_id    TEXT NOT NULL REFERENCES bills(id),
	topic_slug TEXT NOT NULL,
	confidence TEXT NOT NULL DEFAULT 'medium',
	PRIMARY KEY (bill_id, topic_slug)
);

CREATE INDEX IF NOT EXISTS idx_bill_topic_links_slug ON bill_topic_links(topic_slug);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const speechColumns = `id, granule_id, title, speaker, party, chamber, date, raw_html, plain_text, processed, created_at`

func (s *PostgresStore) InsertSpeech(ctx context.Context, speech model.Speech) (*model.Speech, error) {
	if speech.ID == "" {
		speech.ID = uuid.New().String()
	}
	speech.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO speeches (id, granule_id, title, speaker, party, chamber, date, raw_html, plain_text, processed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		speech.ID, speech.GranuleID, speech.Title, speech.Speaker, speech.Party,
		string(speech.Chamber), speech.Date, speech.RawHTML, speech.PlainText,
		speech.Processed, speech.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert speech %s", speech.GranuleID)
	}
	return &speech, nil
}

func scanSpeech(row pgx.Row) (*model.Speech, error) {
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

func (s *PostgresStore) GetSpeechByGranuleID(ctx context.Context, granuleID string) (*model.Speech, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+speechColumns+` FROM speeches WHERE granule_id = $1`, granuleID)

	sp, err := scanSpeech(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get speech %s", granuleID)
	}
	return sp, nil
}

func (s *PostgresStore) ListSpeechesByDate(ctx context.Context, start, end time.Time) ([]model.Speech, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+speechColumns+` FROM speeches WHERE date >= $1 AND date <= $2 ORDER BY created_at`,
		start, end)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list speeches")
	}
	defer rows.Close()

	var speeches []model.Speech
	for rows.Next() {
		sp, err := scanSpeech(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan speech")
		}
		speeches = append(speeches, *sp)
	}
	return speeches, rows.Err()
}

func (s *PostgresStore) MarkSpeechProcessed(ctx context.Context, speechID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE speeches SET processed = true WHERE id = $1`, speechID)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark speech processed %s", speechID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("speech not found: %s", speechID)
	}
	return nil
}

const briefColumns = `id, date, topic, slug, red_position, blue_position, shared_values, differences, compromise_paths, democracy_check, democracy_flagged, policy_draft, agent_conversation, collaboration_score, collaboration_reason, source_speech_meta, source_speech_ids, created_at`

func (s *PostgresStore) InsertBrief(ctx context.Context, brief model.Brief) (*model.Brief, error) {
	if brief.ID == "" {
		brief.ID = uuid.New().String()
	}
	brief.CreatedAt = time.Now().UTC()

	sharedValues, err := jsonList(brief.SharedValues)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal shared values")
	}
	differences, err := jsonList(brief.Differences)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal differences")
	}
	compromisePaths, err := jsonList(brief.CompromisePaths)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal compromise paths")
	}
	conversation, err := json.Marshal(brief.AgentConversation)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal conversation")
	}
	speechIDs, err := jsonList(brief.SourceSpeechIDs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal speech ids")
	}
	var speechMeta []byte
	if brief.SourceSpeechMeta != nil {
		speechMeta, err = json.Marshal(brief.SourceSpeechMeta)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal speech meta")
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO briefs (id, date, topic, slug, red_position, blue_position, shared_values, differences, compromise_paths, democracy_check, democracy_flagged, policy_draft, agent_conversation, collaboration_score, collaboration_reason, source_speech_meta, source_speech_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		brief.ID, brief.Date, brief.Topic, brief.Slug, brief.RedPosition, brief.BluePosition,
		sharedValues, differences, compromisePaths, brief.DemocracyCheck, brief.DemocracyFlagged,
		brief.PolicyDraft, conversation, brief.CollaborationScore, brief.CollaborationReason,
		speechMeta, speechIDs, brief.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert brief %s", brief.Slug)
	}
	return &brief, nil
}

// jsonList marshals a possibly-nil string slice as a JSON array, never null.
func jsonList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func scanBrief(row pgx.Row) (*model.Brief, error) {
	var b model.Brief
	var sharedValues, differences, compromisePaths, conversation, speechIDs []byte
	var speechMeta []byte

	err := row.Scan(&b.ID, &b.Date, &b.Topic, &b.Slug, &b.RedPosition, &b.BluePosition,
		&sharedValues, &differences, &compromisePaths, &b.DemocracyCheck, &b.DemocracyFlagged,
		&b.PolicyDraft, &conversation, &b.CollaborationScore, &b.CollaborationReason,
		&speechMeta, &speechIDs, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sharedValues, &b.SharedValues); err != nil {
		return nil, eris.Wrap(err, "unmarshal shared values")
	}
	if err := json.Unmarshal(differences, &b.Differences); err != nil {
		return nil, eris.Wrap(err, "unmarshal differences")
	}
	if err := json.Unmarshal(compromisePaths, &b.CompromisePaths); err != nil {
		return nil, eris.Wrap(err, "unmarshal compromise paths")
	}
	if err := json.Unmarshal(conversation, &b.AgentConversation); err != nil {
		return nil, eris.Wrap(err, "unmarshal conversation")
	}
	if err := json.Unmarshal(speechIDs, &b.SourceSpeechIDs); err != nil {
		return nil, eris.Wrap(err, "unmarshal speech ids")
	}
	if len(speechMeta) > 0 {
		if err := json.Unmarshal(speechMeta, &b.SourceSpeechMeta); err != nil {
			return nil, eris.Wrap(err, "unmarshal speech meta")
		}
	}
	return &b, nil
}

func (s *PostgresStore) GetBriefBySlug(ctx context.Context, slug string) (*model.Brief, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+briefColumns+` FROM briefs WHERE slug = $1 ORDER BY date DESC LIMIT 1`, slug)

	b, err := scanBrief(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get brief %s", slug)
	}
	return b, nil
}

func (s *PostgresStore) ListBriefs(ctx context.Context, filter BriefFilter) ([]model.Brief, error) {
	query := `SELECT ` + briefColumns + ` FROM briefs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Slug != "" {
		query += fmt.Sprintf(` AND slug = $%d`, argIdx)
		args = append(args, filter.Slug)
		argIdx++
	}
	if !filter.Start.IsZero() {
		query += fmt.Sprintf(` AND date >= $%d`, argIdx)
		args = append(args, filter.Start)
		argIdx++
	}
	if !filter.End.IsZero() {
		query += fmt.Sprintf(` AND date <= $%d`, argIdx)
		args = append(args, filter.End)
		argIdx++
	}
	query += ` ORDER BY date DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list briefs")
	}
	defer rows.Close()

	var briefs []model.Brief
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan brief")
		}
		briefs = append(briefs, *b)
	}
	return briefs, rows.Err()
}

func (s *PostgresStore) ListDistinctTopicSlugs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT slug FROM briefs ORDER BY slug`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list topic slugs")
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, eris.Wrap(err, "postgres: scan slug")
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

const billColumns = `id, congress, bill_type, bill_number, title, policy_area, legislative_subjects, sponsor_name, sponsor_party, sponsor_state, cosponsor_count_r, cosponsor_count_d, cosponsor_count_i, cosponsor_total, bipartisan_score, status, latest_action_text, latest_action_date, congress_gov_url, updated_at`

// billColumnsPrefixed qualifies every bill column for queries that join the
// links table.
const billColumnsPrefixed = `bills.id, bills.congress, bills.bill_type, bills.bill_number, bills.title, bills.policy_area, bills.legislative_subjects, bills.sponsor_name, bills.sponsor_party, bills.sponsor_state, bills.cosponsor_count_r, bills.cosponsor_count_d, bills.cosponsor_count_i, bills.cosponsor_total, bills.bipartisan_score, bills.status, bills.latest_action_text, bills.latest_action_date, bills.congress_gov_url, bills.updated_at`

func scanBill(row pgx.Row) (*model.Bill, error) {
	var b model.Bill
	var subjects []byte
	var status string

	err := row.Scan(&b.ID, &b.Congress, &b.BillType, &b.BillNumber, &b.Title, &b.PolicyArea,
		&subjects, &b.SponsorName, &b.SponsorParty, &b.SponsorState,
		&b.CosponsorCountR, &b.CosponsorCountD, &b.CosponsorCountI, &b.CosponsorTotal,
		&b.BipartisanScore, &status, &b.LatestActionText, &b.LatestActionDate,
		&b.CongressGovURL, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.Status = model.BillStatus(status)
	if err := json.Unmarshal(subjects, &b.LegislativeSubjects); err != nil {
		return nil, eris.Wrap(err, "unmarshal subjects")
	}
	return &b, nil
}

func (s *PostgresStore) GetBill(ctx context.Context, key model.BillKey) (*model.Bill, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE congress = $1 AND bill_type = $2 AND bill_number = $3`,
		key.Congress, key.BillType, key.BillNumber)

	b, err := scanBill(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get bill %s-%s", key.BillType, key.BillNumber)
	}
	return b, nil
}

func (s *PostgresStore) UpsertBill(ctx context.Context, bill model.Bill) (*model.Bill, error) {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	bill.UpdatedAt = time.Now().UTC()

	subjects, err := jsonList(bill.LegislativeSubjects)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal subjects")
	}

	// The natural key wins on conflict; the generated id of the losing
	// insert is discarded, so re-read the winning row's id afterward.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO bills (id, congress, bill_type, bill_number, title, policy_area, legislative_subjects, sponsor_name, sponsor_party, sponsor_state, cosponsor_count_r, cosponsor_count_d, cosponsor_count_i, cosponsor_total, bipartisan_score, status, latest_action_text, latest_action_date, congress_gov_url, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		 ON CONFLICT (congress, bill_type, bill_number) DO UPDATE SET
			title = EXCLUDED.title,
			policy_area = EXCLUDED.policy_area,
			legislative_subjects = EXCLUDED.legislative_subjects,
			sponsor_name = EXCLUDED.sponsor_name,
			sponsor_party = EXCLUDED.sponsor_party,
			sponsor_state = EXCLUDED.sponsor_state,
			cosponsor_count_r = EXCLUDED.cosponsor_count_r,
			cosponsor_count_d = EXCLUDED.cosponsor_count_d,
			cosponsor_count_i = EXCLUDED.cosponsor_count_i,
			cosponsor_total = EXCLUDED.cosponsor_total,
			bipartisan_score = EXCLUDED.bipartisan_score,
			status = EXCLUDED.status,
			latest_action_text = EXCLUDED.latest_action_text,
			latest_action_date = EXCLUDED.latest_action_date,
			congress_gov_url = EXCLUDED.congress_gov_url,
			updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		bill.ID, bill.Congress, bill.BillType, bill.BillNumber, bill.Title, bill.PolicyArea,
		subjects, bill.SponsorName, bill.SponsorParty, bill.SponsorState,
		bill.CosponsorCountR, bill.CosponsorCountD, bill.CosponsorCountI, bill.CosponsorTotal,
		bill.BipartisanScore, string(bill.Status), bill.LatestActionText, bill.LatestActionDate,
		bill.CongressGovURL, bill.UpdatedAt,
	)
	if err := row.Scan(&bill.ID); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert bill %s-%s", bill.BillType, bill.BillNumber)
	}
	return &bill, nil
}

func (s *PostgresStore) ListBills(ctx context.Context, filter BillFilter) ([]model.Bill, error) {
	query := `SELECT ` + billColumnsPrefixed + ` FROM bills`
	args := []any{}
	argIdx := 1

	if filter.TopicSlug != "" {
		query += fmt.Sprintf(` INNER JOIN bill_topic_links l ON l.bill_id = bills.id AND l.topic_slug = $%d`, argIdx)
		args = append(args, filter.TopicSlug)
		argIdx++
	}
	query += ` WHERE true`
	if filter.Status != "" {
		query += fmt.Sprintf(` AND bills.status = $%d`, argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND bills.bipartisan_score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	query += ` ORDER BY bills.bipartisan_score DESC, bills.updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list bills")
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan bill")
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (s *PostgresStore) InsertBillTopicLink(ctx context.Context, link model.BillTopicLink) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bill_topic_links (bill_id, topic_slug, confidence) VALUES ($1, $2, $3)
		 ON CONFLICT (bill_id, topic_slug) DO NOTHING`,
		link.BillID, link.TopicSlug, string(link.Confidence))
	return eris.Wrapf(err, "postgres: insert bill topic link %s", link.TopicSlug)
}
