package pipeline

import (
	"sort"

	"go.uber.org/zap"

	"github.com/commonground-hq/commonground/internal/model"
)

// topicSelection pairs a substantive topic with its scout ranking entry,
// when the scout produced one.
type topicSelection struct {
	Topic model.IntakeTopic
	Scout *model.ScoutTopic
}

// selectTopics chooses which substantive topics the pipeline analyzes.
// In "single" mode the highest-scoring ranked topic that exists in the
// substantive list wins; "topn" takes up to n such topics. When the scout
// produced nothing usable the first substantive topic is the deterministic
// fallback.
func selectTopics(scout *model.ScoutResult, substantive []model.IntakeTopic, mode string, n int) []topicSelection {
	bySlug := make(map[string]model.IntakeTopic, len(substantive))
	for _, t := range substantive {
		bySlug[t.Slug] = t
	}

	limit := 1
	if mode == "topn" && n > 1 {
		limit = n
	}

	var selections []topicSelection
	if scout != nil {
		ranked := make([]model.ScoutTopic, len(scout.RankedTopics))
		copy(ranked, scout.RankedTopics)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

		for _, st := range ranked {
			topic, ok := bySlug[st.Slug]
			if !ok {
				continue
			}
			entry := st
			selections = append(selections, topicSelection{Topic: topic, Scout: &entry})
			zap.L().Info("pipeline: scout picked topic",
				zap.String("topic", topic.Name),
				zap.Int("score", st.Score),
			)
			if len(selections) == limit {
				return selections
			}
		}
	}

	if len(selections) > 0 {
		return selections
	}

	fallback := substantive[0]
	zap.L().Info("pipeline: scout found no match, falling back to first topic",
		zap.String("topic", fallback.Name),
	)
	return []topicSelection{{Topic: fallback}}
}
