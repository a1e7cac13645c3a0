package billsync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/commonground-hq/commonground/internal/agents"
	"github.com/commonground-hq/commonground/internal/model"
	"github.com/commonground-hq/commonground/internal/store"
	"github.com/commonground-hq/commonground/pkg/anthropic"
	"github.com/commonground-hq/commonground/pkg/congress"
)

type mockCongress struct {
	mock.Mock
}

func (m *mockCongress) ListRecentBills(ctx context.Context, cong, billType string, limit int) ([]congress.BillListItem, error) {
	args := m.Called(ctx, cong, billType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]congress.BillListItem), args.Error(1)
}

func (m *mockCongress) GetBillDetail(ctx context.Context, cong, billType, number string) (*congress.BillDetail, error) {
	args := m.Called(ctx, cong, billType, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*congress.BillDetail), args.Error(1)
}

func (m *mockCongress) GetBillCosponsors(ctx context.Context, cong, billType, number string) ([]congress.Cosponsor, error) {
	args := m.Called(ctx, cong, billType, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]congress.Cosponsor), args.Error(1)
}

func (m *mockCongress) GetBillSubjects(ctx context.Context, cong, billType, number string) (*congress.BillSubjects, error) {
	args := m.Called(ctx, cong, billType, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*congress.BillSubjects), args.Error(1)
}

// matcherBackend answers every call with the same bill-matcher JSON.
type matcherBackend struct {
	reply string
	calls int
}

func (b *matcherBackend) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	b.calls++
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: b.reply}},
	}, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "bills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func action(text string) *congress.LatestAction {
	return &congress.LatestAction{ActionDate: "2026-02-01", Text: text}
}

func expectBillFetch(mc *mockCongress, billType string, number string, detail *congress.BillDetail, cosponsors []congress.Cosponsor, subjects *congress.BillSubjects) {
	mc.On("GetBillDetail", mock.Anything, "119", billType, number).Return(detail, nil)
	mc.On("GetBillCosponsors", mock.Anything, "119", billType, number).Return(cosponsors, nil)
	mc.On("GetBillSubjects", mock.Anything, "119", billType, number).Return(subjects, nil)
}

func TestSync_SavesBipartisanAdvancedBill(t *testing.T) {
	st := newTestStore(t)
	mc := &mockCongress{}

	mc.On("ListRecentBills", mock.Anything, "119", "hr", 50).Return([]congress.BillListItem{
		{Congress: 119, Type: "HR", Number: 1234, Title: "Border Security Modernization Act",
			LatestAction: action("Reported by the Committee on the Judiciary.")},
		{Congress: 119, Type: "HR", Number: 9, Title: "Sense of the House",
			LatestAction: action("Referred to the Committee on Rules.")},
	}, nil)
	mc.On("ListRecentBills", mock.Anything, "119", "s", 50).Return([]congress.BillListItem{}, nil)

	expectBillFetch(mc, "hr", "1234",
		&congress.BillDetail{
			Congress: 119, Type: "HR", Number: 1234,
			Title:        "Border Security Modernization Act",
			Sponsors:     []congress.Sponsor{{FullName: "Rep. Smith", Party: "R", State: "TX"}},
			LatestAction: action("Reported by the Committee on the Judiciary."),
		},
		[]congress.Cosponsor{
			{FullName: "Rep. Jones", Party: "D"},
			{FullName: "Rep. Brown", Party: "D"},
			{FullName: "Rep. White", Party: "R"},
		},
		&congress.BillSubjects{
			LegislativeSubjects: []congress.NamedItem{{Name: "Border security and unlawful immigration"}},
			PolicyArea:          &congress.NamedItem{Name: "Immigration"},
		},
	)

	syncer := New(mc, st, nil, Options{Congress: "119"})
	result, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Evaluated) // the referred-only bill never counts
	assert.Equal(t, 1, result.Saved)
	assert.Zero(t, result.LinksCreated)

	bill, err := st.GetBill(context.Background(), model.BillKey{Congress: "119", BillType: "hr", BillNumber: "1234"})
	require.NoError(t, err)
	require.NotNil(t, bill)
	// Sponsor counts toward the party tally: 1R sponsor + 1R/2D cosponsors.
	assert.Equal(t, 2, bill.CosponsorCountR)
	assert.Equal(t, 2, bill.CosponsorCountD)
	assert.Equal(t, 3, bill.CosponsorTotal)
	assert.InDelta(t, 1.0, bill.BipartisanScore, 1e-9)
	assert.Equal(t, model.StatusCommittee, bill.Status)
	require.NotNil(t, bill.PolicyArea)
	assert.Equal(t, "Immigration", *bill.PolicyArea)
	assert.Equal(t, "https://www.congress.gov/bill/119th-congress/house-bill/1234", bill.CongressGovURL)
	require.NotNil(t, bill.LatestActionDate)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *bill.LatestActionDate)

	mc.AssertExpectations(t)
}

func TestSync_SkipsPartisanUnlessEnacted(t *testing.T) {
	st := newTestStore(t)
	mc := &mockCongress{}

	mc.On("ListRecentBills", mock.Anything, "119", "hr", 50).Return([]congress.BillListItem{
		{Number: 10, Title: "Partisan Bill", LatestAction: action("Passed House.")},
		{Number: 11, Title: "Partisan Law", LatestAction: action("Became Public Law No: 119-42.")},
	}, nil)
	mc.On("ListRecentBills", mock.Anything, "119", "s", 50).Return([]congress.BillListItem{}, nil)

	// Both bills are R-only: score 0.
	for _, num := range []string{"10", "11"} {
		text := "Passed House."
		if num == "11" {
			text = "Became Public Law No: 119-42."
		}
		expectBillFetch(mc, "hr", num,
			&congress.BillDetail{
				Title:        "Bill " + num,
				Sponsors:     []congress.Sponsor{{FullName: "Rep. Smith", Party: "R", State: "TX"}},
				LatestAction: action(text),
			},
			[]congress.Cosponsor{{FullName: "Rep. White", Party: "R"}},
			&congress.BillSubjects{},
		)
	}

	syncer := New(mc, st, nil, Options{})
	result, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 1, result.Saved)

	skipped, err := st.GetBill(context.Background(), model.BillKey{Congress: "119", BillType: "hr", BillNumber: "10"})
	require.NoError(t, err)
	assert.Nil(t, skipped)

	enacted, err := st.GetBill(context.Background(), model.BillKey{Congress: "119", BillType: "hr", BillNumber: "11"})
	require.NoError(t, err)
	require.NotNil(t, enacted)
	assert.Equal(t, model.StatusEnacted, enacted.Status)
	assert.Zero(t, enacted.BipartisanScore)
}

func TestSync_SkipsFreshBill(t *testing.T) {
	st := newTestStore(t)
	mc := &mockCongress{}

	_, err := st.UpsertBill(context.Background(), model.Bill{
		Congress: "119", BillType: "hr", BillNumber: "1234",
		Title: "Already Tracked", Status: model.StatusCommittee, BipartisanScore: 0.5,
	})
	require.NoError(t, err)

	mc.On("ListRecentBills", mock.Anything, "119", "hr", 50).Return([]congress.BillListItem{
		{Number: 1234, Title: "Already Tracked", LatestAction: action("Reported by committee.")},
	}, nil)
	mc.On("ListRecentBills", mock.Anything, "119", "s", 50).Return([]congress.BillListItem{}, nil)

	syncer := New(mc, st, nil, Options{Freshness: 24 * time.Hour})
	result, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Evaluated)
	assert.Zero(t, result.Saved)
	// No detail fetch happened.
	mc.AssertNotCalled(t, "GetBillDetail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_PerBillFailureDoesNotAbortPass(t *testing.T) {
	st := newTestStore(t)
	mc := &mockCongress{}

	mc.On("ListRecentBills", mock.Anything, "119", "hr", 50).Return([]congress.BillListItem{
		{Number: 1, Title: "Broken Bill", LatestAction: action("Reported by committee.")},
		{Number: 2, Title: "Working Bill", LatestAction: action("Reported by committee.")},
	}, nil)
	mc.On("ListRecentBills", mock.Anything, "119", "s", 50).Return([]congress.BillListItem{}, nil)

	mc.On("GetBillDetail", mock.Anything, "119", "hr", "1").Return(nil, assert.AnError)
	mc.On("GetBillCosponsors", mock.Anything, "119", "hr", "1").Return([]congress.Cosponsor{}, nil).Maybe()
	mc.On("GetBillSubjects", mock.Anything, "119", "hr", "1").Return(&congress.BillSubjects{}, nil).Maybe()

	expectBillFetch(mc, "hr", "2",
		&congress.BillDetail{
			Title:        "Working Bill",
			Sponsors:     []congress.Sponsor{{FullName: "Rep. Smith", Party: "R"}},
			LatestAction: action("Reported by committee."),
		},
		[]congress.Cosponsor{{FullName: "Rep. Jones", Party: "D"}},
		&congress.BillSubjects{},
	)

	syncer := New(mc, st, nil, Options{})
	result, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 1, result.Saved)
}

func TestSync_LinksBillsToTopics(t *testing.T) {
	st := newTestStore(t)
	mc := &mockCongress{}
	ctx := context.Background()

	// Existing briefs provide the topic slug universe.
	_, err := st.InsertBrief(ctx, model.Brief{
		Date: time.Now().UTC(), Topic: "Immigration Reform", Slug: "immigration-reform",
	})
	require.NoError(t, err)

	mc.On("ListRecentBills", mock.Anything, "119", "hr", 50).Return([]congress.BillListItem{
		{Number: 1234, Title: "Border Security Modernization Act", LatestAction: action("Reported by committee.")},
	}, nil)
	mc.On("ListRecentBills", mock.Anything, "119", "s", 50).Return([]congress.BillListItem{}, nil)

	expectBillFetch(mc, "hr", "1234",
		&congress.BillDetail{
			Title:        "Border Security Modernization Act",
			Sponsors:     []congress.Sponsor{{FullName: "Rep. Smith", Party: "R"}},
			LatestAction: action("Reported by committee."),
		},
		[]congress.Cosponsor{{FullName: "Rep. Jones", Party: "D"}},
		&congress.BillSubjects{PolicyArea: &congress.NamedItem{Name: "Immigration"}},
	)

	backend := &matcherBackend{reply: `{"matches":[
		{"billKey":"hr-1234","topicSlugs":["immigration-reform"],"confidence":"high"}
	]}`}
	inv := agents.NewInvoker(backend, "test-model")

	syncer := New(mc, st, inv, Options{})
	result, err := syncer.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 1, result.LinksCreated)
	assert.Equal(t, 1, backend.calls)

	// Re-running the matcher insert is a no-op, not an error.
	bill, err := st.GetBill(ctx, model.BillKey{Congress: "119", BillType: "hr", BillNumber: "1234"})
	require.NoError(t, err)
	require.NotNil(t, bill)
	require.NoError(t, st.InsertBillTopicLink(ctx, model.BillTopicLink{
		BillID: bill.ID, TopicSlug: "immigration-reform", Confidence: model.ConfidenceHigh,
	}))
}

func TestSync_NoMatcherWhenNoTopics(t *testing.T) {
	st := newTestStore(t)
	mc := &mockCongress{}

	mc.On("ListRecentBills", mock.Anything, "119", "hr", 50).Return([]congress.BillListItem{
		{Number: 7, Title: "Bipartisan Bill", LatestAction: action("Reported by committee.")},
	}, nil)
	mc.On("ListRecentBills", mock.Anything, "119", "s", 50).Return([]congress.BillListItem{}, nil)

	expectBillFetch(mc, "hr", "7",
		&congress.BillDetail{
			Title:        "Bipartisan Bill",
			Sponsors:     []congress.Sponsor{{FullName: "Rep. Smith", Party: "R"}},
			LatestAction: action("Reported by committee."),
		},
		[]congress.Cosponsor{{FullName: "Rep. Jones", Party: "D"}},
		&congress.BillSubjects{},
	)

	backend := &matcherBackend{reply: `{"matches":[]}`}
	inv := agents.NewInvoker(backend, "test-model")

	syncer := New(mc, st, inv, Options{})
	result, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Saved)
	assert.Zero(t, result.LinksCreated)
	// An empty slug universe means the matcher never runs.
	assert.Zero(t, backend.calls)
}
