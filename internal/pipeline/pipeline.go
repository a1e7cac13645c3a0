package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/commonground-hq/commonground/internal/agents"
	"github.com/commonground-hq/commonground/internal/config"
	"github.com/commonground-hq/commonground/internal/model"
	"github.com/commonground-hq/commonground/internal/store"
	"github.com/commonground-hq/commonground/pkg/anthropic"
)

// RunState reports where a pipeline run terminated.
type RunState string

const (
	StateNoSpeeches          RunState = "no_speeches"
	StateNoSubstantiveTopics RunState = "no_substantive_topics"
	StateNoPositions         RunState = "no_positions"
	StateCompleted           RunState = "completed"
	StateFailed              RunState = "failed"
)

// RunResult summarizes one pipeline run.
type RunResult struct {
	State       RunState `json:"state"`
	SpeechCount int      `json:"speech_count"`
	Analyzed    int      `json:"analyzed"`
	BriefCount  int      `json:"brief_count"`
	Topics      []string `json:"topics,omitempty"`
}

// Pipeline orchestrates the daily analysis run: intake, topic selection,
// steelmanning, bridge analysis, democracy check, and policy drafting.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
	inv   *agents.Invoker
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, backend anthropic.Client) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		store: st,
		inv:   agents.NewInvoker(backend, cfg.Anthropic.Model),
	}
}

// Run executes the full agent pipeline over the speeches stored for the
// given date. Every fetched speech is marked processed before Run returns,
// even when no brief was produced, so a day is consumed at most once.
func (p *Pipeline) Run(ctx context.Context, date time.Time) (*RunResult, error) {
	log := zap.L().With(zap.String("date", date.Format("2006-01-02")))

	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24*time.Hour - time.Millisecond)

	allSpeeches, err := p.store.ListSpeechesByDate(ctx, start, end)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list speeches")
	}
	if len(allSpeeches) == 0 {
		log.Info("pipeline: no speeches for date")
		return &RunResult{State: StateNoSpeeches}, nil
	}

	result := &RunResult{SpeechCount: len(allSpeeches)}

	// The longest speeches carry the most substance; cap the intake input
	// so one run stays within cron time limits.
	selected := longestSpeeches(allSpeeches, p.cfg.Pipeline.MaxSpeeches)
	result.Analyzed = len(selected)

	log.Info("pipeline: running intake",
		zap.Int("analyzed", len(selected)),
		zap.Int("total", len(allSpeeches)),
	)

	inputs := make([]agents.IntakeInput, 0, len(selected))
	for _, sp := range selected {
		inputs = append(inputs, agents.IntakeInput{
			GranuleID: sp.GranuleID,
			Text:      sp.PlainText,
			Chamber:   sp.Chamber,
		})
	}

	intake, err := agents.RunIntake(ctx, p.inv, inputs)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: intake")
	}

	var substantive []model.IntakeTopic
	for _, t := range intake.Topics {
		if t.HasSubstantive() {
			substantive = append(substantive, t)
		}
	}
	if len(substantive) == 0 {
		log.Info("pipeline: no substantive topics")
		p.markProcessed(ctx, allSpeeches)
		result.State = StateNoSubstantiveTopics
		return result, nil
	}

	// Scout failure is survivable: fall back to the first substantive topic.
	var scout *model.ScoutResult
	scoutResult, err := agents.RunScout(ctx, p.inv, substantive)
	if err != nil {
		log.Warn("pipeline: scout failed, falling back to first topic", zap.Error(err))
	} else {
		scout = &scoutResult
		log.Info("pipeline: scout complete", zap.String("summary", scoutResult.Summary))
	}

	selections := selectTopics(scout, substantive, p.cfg.Pipeline.TopicMode, p.cfg.Pipeline.TopicCount)

	noPositions := 0
	for _, sel := range selections {
		result.Topics = append(result.Topics, sel.Topic.Name)
		saved, topicErr := p.processTopic(ctx, sel, date, allSpeeches)
		if topicErr != nil {
			log.Error("pipeline: topic failed",
				zap.String("topic", sel.Topic.Name),
				zap.Error(topicErr),
			)
			continue
		}
		if saved {
			result.BriefCount++
		} else {
			noPositions++
		}
	}

	p.markProcessed(ctx, allSpeeches)

	result.State = StateCompleted
	if result.BriefCount == 0 && noPositions == len(selections) {
		// Every selected topic lacked positions from both parties.
		result.State = StateNoPositions
	}
	log.Info("pipeline: run complete",
		zap.Int("briefs", result.BriefCount),
		zap.Strings("topics", result.Topics),
	)
	return result, nil
}

// markProcessed flips the processed flag on every fetched speech. Failures
// are logged but never abort the run.
func (p *Pipeline) markProcessed(ctx context.Context, speeches []model.Speech) {
	for _, sp := range speeches {
		if err := p.store.MarkSpeechProcessed(ctx, sp.ID); err != nil {
			zap.L().Warn("pipeline: mark processed failed",
				zap.String("speech_id", sp.ID),
				zap.Error(err),
			)
		}
	}
}

// longestSpeeches returns up to max speeches ordered by text length
// descending. The input slice is not modified.
func longestSpeeches(speeches []model.Speech, max int) []model.Speech {
	sorted := make([]model.Speech, len(speeches))
	copy(sorted, speeches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].PlainText) > len(sorted[j].PlainText)
	})
	if max > 0 && len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}

// processTopic runs the steelman, bridge, guard, and drafter stages on one
// topic and persists the resulting brief. Returns false when the topic had
// no positions from either party.
func (p *Pipeline) processTopic(ctx context.Context, sel topicSelection, date time.Time, allSpeeches []model.Speech) (bool, error) {
	topic := sel.Topic
	var conversation []model.AgentMessage
	say := func(agent string, role model.AgentRole, content string) {
		conversation = append(conversation, model.AgentMessage{
			Agent:     agent,
			Role:      role,
			Content:   content,
			Timestamp: time.Now().UTC(),
		})
	}

	redPositions := topic.PositionsByParty(model.PartyRepublican)
	bluePositions := topic.PositionsByParty(model.PartyDemocrat)
	if len(redPositions) == 0 && len(bluePositions) == 0 {
		return false, nil
	}
	oneSided := len(redPositions) == 0 || len(bluePositions) == 0

	intakeNote := fmt.Sprintf("Identified topic: %s. Found %d Republican and %d Democratic speeches.",
		topic.Name, len(redPositions), len(bluePositions))
	if oneSided {
		intakeNote += " Note: Only one party addressed this topic today."
	}
	say("Intake Agent", model.RoleIntake, intakeNote)

	if sel.Scout != nil {
		scoutNote := fmt.Sprintf("Collaboration score: %d/10. %s", sel.Scout.Score, sel.Scout.Reason)
		if sel.Scout.SharedUnderlying != "" {
			scoutNote += " Shared underlying value: " + sel.Scout.SharedUnderlying
		}
		say("Opportunity Scout", model.RoleScout, scoutNote)
	}

	zap.L().Info("pipeline: steelmanning", zap.String("topic", topic.Name))
	var redPosition, bluePosition string
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pos, err := agents.RunRedSteelman(gCtx, p.inv, topic.Name, redPositions, bluePositions)
		redPosition = pos
		return err
	})
	g.Go(func() error {
		pos, err := agents.RunBlueSteelman(gCtx, p.inv, topic.Name, bluePositions, redPositions)
		bluePosition = pos
		return err
	})
	if err := g.Wait(); err != nil {
		return false, eris.Wrap(err, "pipeline: steelman")
	}
	say("Red Agent", model.RoleRed, redPosition)
	say("Blue Agent", model.RoleBlue, bluePosition)

	zap.L().Info("pipeline: bridge analysis", zap.String("topic", topic.Name))
	bridge, err := agents.RunBridge(ctx, p.inv, topic.Name, redPosition, bluePosition)
	if err != nil {
		return false, eris.Wrap(err, "pipeline: bridge")
	}
	say("Bridge Agent", model.RoleBridge, bridge.Summary)

	zap.L().Info("pipeline: democracy check", zap.String("topic", topic.Name))
	democracy, err := agents.RunDemocracyGuard(ctx, p.inv, topic.Name, redPosition, bluePosition, bridge.Summary, bridge.CompromisePaths)
	if err != nil {
		return false, eris.Wrap(err, "pipeline: democracy guard")
	}
	say("Democracy Guard", model.RoleGuard, democracy.Summary)

	zap.L().Info("pipeline: drafting policy", zap.String("topic", topic.Name))
	draft, err := agents.RunPolicyDrafter(ctx, p.inv, topic.Name, redPosition, bluePosition, bridge.CompromisePaths, democracy.Flags)
	if err != nil {
		return false, eris.Wrap(err, "pipeline: policy drafter")
	}
	say("Policy Drafter", model.RoleDrafter, draft)

	brief := model.Brief{
		Date:              date,
		Topic:             topic.Name,
		Slug:              topic.Slug,
		RedPosition:       redPosition,
		BluePosition:      bluePosition,
		SharedValues:      bridge.SharedValues,
		Differences:       bridge.GenuineDifferences,
		CompromisePaths:   bridge.CompromisePaths,
		DemocracyCheck:    democracy.Summary,
		DemocracyFlagged:  !democracy.Passed,
		PolicyDraft:       draft,
		AgentConversation: conversation,
	}
	if sel.Scout != nil {
		score := fmt.Sprintf("%d/10", sel.Scout.Score)
		brief.CollaborationScore = &score
		if sel.Scout.Reason != "" {
			reason := sel.Scout.Reason
			brief.CollaborationReason = &reason
		}
	}
	brief.SourceSpeechMeta, brief.SourceSpeechIDs = sourceAttribution(topic, allSpeeches)

	if _, err := p.store.InsertBrief(ctx, brief); err != nil {
		return false, eris.Wrap(err, "pipeline: save brief")
	}
	zap.L().Info("pipeline: brief saved", zap.String("topic", topic.Name))
	return true, nil
}

// sourceAttribution snapshots the topic's speeches for brief attribution,
// resolving speaker and title from the stored records where the intake
// annotation left them blank.
func sourceAttribution(topic model.IntakeTopic, allSpeeches []model.Speech) ([]model.SpeechMeta, []string) {
	byGranule := make(map[string]model.Speech, len(allSpeeches))
	for _, sp := range allSpeeches {
		byGranule[sp.GranuleID] = sp
	}

	meta := make([]model.SpeechMeta, 0, len(topic.Speeches))
	var ids []string
	for _, s := range topic.Speeches {
		m := model.SpeechMeta{
			GranuleID:    s.GranuleID,
			Party:        s.Party,
			Chamber:      s.Chamber,
			CorePosition: s.CorePosition,
		}
		if s.Speaker != "" {
			speaker := s.Speaker
			m.Speaker = &speaker
		}
		if stored, ok := byGranule[s.GranuleID]; ok {
			if m.Speaker == nil {
				m.Speaker = stored.Speaker
			}
			m.Title = stored.Title
			ids = append(ids, stored.ID)
		}
		meta = append(meta, m)
	}
	return meta, ids
}
