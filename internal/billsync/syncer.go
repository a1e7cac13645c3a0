// Package billsync ingests bipartisan bills from congress.gov, scores them,
// and links them to analyzed brief topics.
package billsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/commonground-hq/commonground/internal/agents"
	"github.com/commonground-hq/commonground/internal/model"
	"github.com/commonground-hq/commonground/internal/store"
	"github.com/commonground-hq/commonground/pkg/congress"
)

// billTypes are the bill types the sync evaluates each pass.
var billTypes = []string{"hr", "s"}

// Options tune one sync pass.
type Options struct {
	Congress  string
	ListLimit int
	Freshness time.Duration
}

// Result reports what one sync pass did.
type Result struct {
	Congress     string `json:"congress"`
	Evaluated    int    `json:"bills_evaluated"`
	Saved        int    `json:"bills_saved"`
	LinksCreated int    `json:"topic_links_created"`
}

// Syncer ingests recent bills and links them to brief topics.
type Syncer struct {
	client congress.Client
	store  store.Store
	inv    *agents.Invoker
	opts   Options
}

// New creates a Syncer. A nil invoker disables topic matching.
func New(client congress.Client, st store.Store, inv *agents.Invoker, opts Options) *Syncer {
	if opts.Congress == "" {
		opts.Congress = "119"
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = 50
	}
	if opts.Freshness <= 0 {
		opts.Freshness = 24 * time.Hour
	}
	return &Syncer{client: client, store: st, inv: inv, opts: opts}
}

// Sync runs one full pass: list recent hr and s bills, refresh the stale
// advanced ones, then match the newly saved bills against existing brief
// topics. Per-bill failures are logged and skipped.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("congress", s.opts.Congress))
	result := &Result{Congress: s.opts.Congress}

	var matchInputs []agents.BillMatchInput

	for _, billType := range billTypes {
		list, err := s.client.ListRecentBills(ctx, s.opts.Congress, billType, s.opts.ListLimit)
		if err != nil {
			return nil, eris.Wrapf(err, "billsync: list %s bills", billType)
		}

		var advanced []congress.BillListItem
		for _, item := range list {
			if congress.IsAdvancedBill(latestActionText(item.LatestAction)) {
				advanced = append(advanced, item)
			}
		}
		log.Info("billsync: listed bills",
			zap.String("type", billType),
			zap.Int("total", len(list)),
			zap.Int("advanced", len(advanced)),
		)

		for _, item := range advanced {
			result.Evaluated++
			input, err := s.syncBill(ctx, billType, item)
			if err != nil {
				log.Error("billsync: bill failed",
					zap.String("bill", fmt.Sprintf("%s-%d", billType, item.Number)),
					zap.Error(err),
				)
				continue
			}
			if input != nil {
				result.Saved++
				matchInputs = append(matchInputs, *input)
			}
		}
	}

	if len(matchInputs) > 0 {
		links, err := s.linkTopics(ctx, matchInputs)
		if err != nil {
			log.Error("billsync: topic matching failed", zap.Error(err))
		} else {
			result.LinksCreated = links
		}
	}

	log.Info("billsync: pass complete",
		zap.Int("evaluated", result.Evaluated),
		zap.Int("saved", result.Saved),
		zap.Int("links", result.LinksCreated),
	)
	return result, nil
}

// syncBill refreshes one bill. Returns nil without error when the bill was
// skipped (still fresh, or not bipartisan and not enacted).
func (s *Syncer) syncBill(ctx context.Context, billType string, item congress.BillListItem) (*agents.BillMatchInput, error) {
	number := strconv.Itoa(item.Number)
	key := model.BillKey{Congress: s.opts.Congress, BillType: billType, BillNumber: number}

	existing, err := s.store.GetBill(ctx, key)
	if err != nil {
		return nil, eris.Wrap(err, "billsync: lookup")
	}
	if existing != nil && time.Since(existing.UpdatedAt) < s.opts.Freshness {
		return nil, nil
	}

	var detail *congress.BillDetail
	var cosponsors []congress.Cosponsor
	var subjects *congress.BillSubjects

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = s.client.GetBillDetail(gCtx, s.opts.Congress, billType, number)
		return err
	})
	g.Go(func() error {
		var err error
		cosponsors, err = s.client.GetBillCosponsors(gCtx, s.opts.Congress, billType, number)
		return err
	})
	g.Go(func() error {
		var err error
		subjects, err = s.client.GetBillSubjects(gCtx, s.opts.Congress, billType, number)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "billsync: fetch")
	}

	counts := map[string]int{"R": 0, "D": 0, "I": 0}
	for _, c := range cosponsors {
		if _, ok := counts[c.Party]; ok {
			counts[c.Party]++
		}
	}
	var sponsor *congress.Sponsor
	if len(detail.Sponsors) > 0 {
		sponsor = &detail.Sponsors[0]
		if _, ok := counts[sponsor.Party]; ok {
			counts[sponsor.Party]++
		}
	}

	score := congress.BipartisanScore(counts["R"], counts["D"])
	status := congress.DeriveBillStatus(latestActionText(detail.LatestAction))

	// A partisan bill is noise unless it actually became law.
	if score == 0 && status != congress.StatusEnacted {
		return nil, nil
	}

	bill := model.Bill{
		Congress:        s.opts.Congress,
		BillType:        billType,
		BillNumber:      number,
		Title:           detail.Title,
		CosponsorCountR: counts["R"],
		CosponsorCountD: counts["D"],
		CosponsorCountI: counts["I"],
		CosponsorTotal:  len(cosponsors),
		BipartisanScore: score,
		Status:          model.BillStatus(status),
		CongressGovURL:  congressGovURL(s.opts.Congress, billType, number),
	}
	if existing != nil {
		bill.ID = existing.ID
	}

	var subjectNames []string
	for _, sub := range subjects.LegislativeSubjects {
		subjectNames = append(subjectNames, sub.Name)
	}
	bill.LegislativeSubjects = subjectNames

	var policyArea string
	if subjects.PolicyArea != nil {
		policyArea = subjects.PolicyArea.Name
	} else if detail.PolicyArea != nil {
		policyArea = detail.PolicyArea.Name
	}
	if policyArea != "" {
		bill.PolicyArea = &policyArea
	}

	if sponsor != nil {
		if sponsor.FullName != "" {
			name := sponsor.FullName
			bill.SponsorName = &name
		}
		if sponsor.Party != "" {
			party := sponsor.Party
			bill.SponsorParty = &party
		}
		if sponsor.State != "" {
			state := sponsor.State
			bill.SponsorState = &state
		}
	}

	if detail.LatestAction != nil {
		if detail.LatestAction.Text != "" {
			text := detail.LatestAction.Text
			bill.LatestActionText = &text
		}
		if detail.LatestAction.ActionDate != "" {
			if d, parseErr := time.Parse("2006-01-02", detail.LatestAction.ActionDate); parseErr == nil {
				bill.LatestActionDate = &d
			}
		}
	}

	if _, err := s.store.UpsertBill(ctx, bill); err != nil {
		return nil, eris.Wrap(err, "billsync: upsert")
	}

	return &agents.BillMatchInput{
		BillKey:    billType + "-" + number,
		Title:      detail.Title,
		PolicyArea: policyArea,
		Subjects:   subjectNames,
	}, nil
}

// linkTopics matches the freshly saved bills against the distinct set of
// brief slugs and records the links. Duplicate links are no-ops.
func (s *Syncer) linkTopics(ctx context.Context, bills []agents.BillMatchInput) (int, error) {
	if s.inv == nil {
		return 0, nil
	}

	slugs, err := s.store.ListDistinctTopicSlugs(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "billsync: list topic slugs")
	}
	if len(slugs) == 0 {
		return 0, nil
	}

	zap.L().Info("billsync: matching bills to topics",
		zap.Int("bills", len(bills)),
		zap.Int("topics", len(slugs)),
	)
	matches, err := agents.RunBillMatcher(ctx, s.inv, bills, slugs)
	if err != nil {
		return 0, eris.Wrap(err, "billsync: bill matcher")
	}

	created := 0
	for _, match := range matches.Matches {
		billType, number, ok := strings.Cut(match.BillKey, "-")
		if !ok {
			continue
		}
		bill, err := s.store.GetBill(ctx, model.BillKey{
			Congress: s.opts.Congress, BillType: billType, BillNumber: number,
		})
		if err != nil || bill == nil {
			continue
		}
		for _, slug := range match.TopicSlugs {
			link := model.BillTopicLink{BillID: bill.ID, TopicSlug: slug, Confidence: match.Confidence}
			if err := s.store.InsertBillTopicLink(ctx, link); err != nil {
				zap.L().Warn("billsync: link failed",
					zap.String("bill", match.BillKey),
					zap.String("slug", slug),
					zap.Error(err),
				)
				continue
			}
			created++
		}
	}
	return created, nil
}

func latestActionText(a *congress.LatestAction) string {
	if a == nil {
		return ""
	}
	return a.Text
}

// congressGovURL builds the public congress.gov page for a bill.
func congressGovURL(congressNum, billType, number string) string {
	segment := billType
	switch billType {
	case "hr":
		segment = "house-bill"
	case "s":
		segment = "senate-bill"
	}
	return fmt.Sprintf("https://www.congress.gov/bill/%sth-congress/%s/%s", congressNum, segment, number)
}
