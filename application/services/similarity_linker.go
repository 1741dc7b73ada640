package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/domain/config"
	"priorify/domain/core/entities"
)

// SimilarMatch is a related schedule with its similarity score
type SimilarMatch struct {
	ScheduleID string
	Score      float64
}

// SimilarityLinker finds schedules related to a given one through the
// embedding index. Lookups are best effort: index failures are logged and
// produce an empty result.
type SimilarityLinker struct {
	index  ports.SimilarityIndex
	cfg    config.SimilarityConfig
	logger *zap.Logger
}

// NewSimilarityLinker creates a new similarity linker
func NewSimilarityLinker(index ports.SimilarityIndex, cfg config.SimilarityConfig, logger *zap.Logger) *SimilarityLinker {
	return &SimilarityLinker{
		index:  index,
		cfg:    cfg,
		logger: logger,
	}
}

// FindSimilar returns up to MaxResults active schedules of the same owner
// whose similarity is at or above the threshold, best first. The schedule
// itself is never returned.
func (l *SimilarityLinker) FindSimilar(ctx context.Context, schedule *entities.Schedule) []SimilarMatch {
	if l == nil || l.index == nil || schedule == nil || !schedule.HasEmbedding() {
		return nil
	}

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	hits, err := l.index.Search(ctx, ports.SimilarityQuery{
		OwnerID:       schedule.OwnerID,
		Status:        entities.ScheduleActive,
		Vector:        schedule.Embedding,
		CandidatePool: l.cfg.CandidatePool,
		Limit:         l.cfg.SearchLimit,
	})
	if err != nil {
		l.logger.Warn("Similarity lookup failed, continuing without related schedules",
			zap.String("scheduleID", schedule.ID),
			zap.String("ownerID", schedule.OwnerID),
			zap.Error(err),
		)
		return nil
	}

	matches := make([]SimilarMatch, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		if hit.ScheduleID == "" || hit.ScheduleID == schedule.ID || seen[hit.ScheduleID] {
			continue
		}
		if hit.Score < l.cfg.Threshold {
			continue
		}
		seen[hit.ScheduleID] = true
		matches = append(matches, SimilarMatch{ScheduleID: hit.ScheduleID, Score: hit.Score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > l.cfg.MaxResults {
		matches = matches[:l.cfg.MaxResults]
	}

	l.logger.Debug("Found similar schedules",
		zap.String("scheduleID", schedule.ID),
		zap.Int("candidates", len(hits)),
		zap.Int("matches", len(matches)),
	)

	return matches
}

// SimilarIDs returns only the ids of FindSimilar
func (l *SimilarityLinker) SimilarIDs(ctx context.Context, schedule *entities.Schedule) []string {
	matches := l.FindSimilar(ctx, schedule)
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ScheduleID
	}
	return ids
}
