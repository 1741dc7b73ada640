package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"priorify/application/queries"
	"priorify/domain/config"
	"priorify/domain/core/entities"
	"priorify/domain/core/scoring"
	"priorify/pkg/utils"
)

// Graph rendering palette
const (
	colorUser           = "#4A90E2"
	colorCategory       = "#7ED321"
	colorSchedule       = "#F5A623"
	colorStrong         = "#D0021B"
	colorMedium         = "#F5A623"
	colorWeak           = "#50E3C2"
	colorSimilarity     = "#9013FE"
	colorUnknownEdge    = "#CCCCCC"
	thicknessStrong     = 4
	thicknessMedium     = 3
	thicknessWeak       = 2
	userNodeSize        = 60
	categoryNodeSize    = 40
	scheduleNodeSize    = 30
	graphMaxDepth       = 2
	graphLayoutStrategy = "hierarchical"
)

// scoredPair is one (schedule, category) grouping key with its score
type scoredPair struct {
	schedule *entities.Schedule
	score    scoring.Score
}

// categoryGroup aggregates the pairs of one category
type categoryGroup struct {
	name          string
	pairs         []scoredPair
	totalPriority float64
}

func (g *categoryGroup) avgPriority() float64 {
	if len(g.pairs) == 0 {
		return 0
	}
	return g.totalPriority / float64(len(g.pairs))
}

// emittedSchedule remembers the first category that emitted a schedule node
type emittedSchedule struct {
	nodeID   string
	priority float64
}

// GraphBuilder turns a user's schedules into the user -> category ->
// schedule graph.
type GraphBuilder struct {
	engine        *scoring.Engine
	linker        *SimilarityLinker
	cfg           config.GraphConfig
	similarWeight float64
	uncategorized string
	loc           *time.Location
	logger        *zap.Logger
}

// NewGraphBuilder creates a new graph builder. linker may be nil, in which
// case no similarity links are attached.
func NewGraphBuilder(engine *scoring.Engine, linker *SimilarityLinker, cfg *config.DomainConfig, logger *zap.Logger) *GraphBuilder {
	return &GraphBuilder{
		engine:        engine,
		linker:        linker,
		cfg:           cfg.Graph,
		similarWeight: cfg.Similarity.EdgeWeight,
		uncategorized: cfg.UncategorizedLabel,
		loc:           cfg.Location(),
		logger:        logger,
	}
}

// Build assembles the graph. schedules must already be restricted to the
// requested window and statuses.
func (b *GraphBuilder) Build(ctx context.Context, user *entities.User, schedules []*entities.Schedule, now time.Time) *queries.ScheduleGraphDTO {
	groups := b.group(user, schedules, now)

	userNode := queries.GraphNodeDTO{
		ID:    userNodeID(user.ID()),
		Label: user.Name(),
		Type:  queries.NodeTypeUser,
		Level: 0,
	}

	graph := &queries.ScheduleGraphDTO{
		Nodes:         []queries.GraphNodeDTO{userNode},
		Edges:         []queries.GraphEdgeDTO{},
		RootUser:      &userNode,
		Schedules:     []queries.ScheduleListItemDTO{},
		TopCategories: []string{},
		Metadata:      layoutMetadata(),
	}

	emitted := make(map[string]emittedSchedule)
	emittedOrder := make([]*entities.Schedule, 0, len(schedules))
	similar := make(map[string][]string)
	categoryIDs := make(map[string]bool, len(groups))
	var prioritySum float64

	for _, group := range groups {
		catID := uniqueNodeID(categoryNodeID(group.name), categoryIDs)
		count := len(group.pairs)
		avg := group.avgPriority()

		graph.Nodes = append(graph.Nodes, queries.GraphNodeDTO{
			ID:            catID,
			Label:         group.name,
			Type:          queries.NodeTypeCategory,
			Level:         1,
			ScheduleCount: &count,
			AvgPriority:   &avg,
		})
		graph.Edges = append(graph.Edges, b.newEdge(userNode.ID, catID, queries.EdgeTypeUserCategory, avg))

		for _, pair := range group.pairs {
			s := pair.schedule
			if first, ok := emitted[s.ID]; ok {
				graph.Edges = append(graph.Edges, b.newEdge(catID, first.nodeID, queries.EdgeTypeCategorySchedule, first.priority))
				continue
			}

			nodeID := scheduleNodeID(s.ID)
			emitted[s.ID] = emittedSchedule{nodeID: nodeID, priority: pair.score.Priority}
			emittedOrder = append(emittedOrder, s)
			prioritySum += pair.score.Priority

			similarIDs := b.linker.SimilarIDs(ctx, s)
			similar[s.ID] = similarIDs

			graph.Nodes = append(graph.Nodes, b.scheduleNode(nodeID, s, pair.score, similarIDs))
			graph.Edges = append(graph.Edges, b.newEdge(catID, nodeID, queries.EdgeTypeCategorySchedule, pair.score.Priority))
			graph.Schedules = append(graph.Schedules, queries.NewScheduleListItemDTO(s, pair.score.Priority, b.uncategorized, b.loc))
		}
	}

	// Similarity edges only connect schedules present in this graph.
	edgeIDs := make(map[string]bool)
	for _, s := range emittedOrder {
		for _, targetID := range similar[s.ID] {
			target, ok := emitted[targetID]
			if !ok {
				continue
			}
			edge := b.newEdge(emitted[s.ID].nodeID, target.nodeID, queries.EdgeTypeScheduleSchedule, b.similarWeight)
			if edgeIDs[edge.ID] {
				continue
			}
			edgeIDs[edge.ID] = true
			graph.Edges = append(graph.Edges, edge)
		}
	}

	graph.TotalSchedules = len(emitted)
	graph.TotalCategories = len(groups)
	if graph.TotalSchedules > 0 {
		graph.AveragePriority = prioritySum / float64(graph.TotalSchedules)
	}
	for i := 0; i < len(groups) && i < b.cfg.TopCategories; i++ {
		graph.TopCategories = append(graph.TopCategories, groups[i].name)
	}

	b.logger.Debug("Built schedule graph",
		zap.String("userID", user.ID()),
		zap.Int("schedules", graph.TotalSchedules),
		zap.Int("categories", graph.TotalCategories),
		zap.Int("edges", len(graph.Edges)),
	)

	return graph
}

// group expands schedules into (category, schedule) pairs, scores them and
// groups them by category. Groups are ordered by schedule count descending;
// ties keep first-seen order.
func (b *GraphBuilder) group(user *entities.User, schedules []*entities.Schedule, now time.Time) []*categoryGroup {
	table := b.engine.WeightTable(user)

	byName := make(map[string]*categoryGroup)
	var groups []*categoryGroup
	for _, s := range schedules {
		listed := make(map[string]bool, len(s.Categories))
		for _, category := range s.CategoriesOr(b.uncategorized) {
			if listed[category] {
				continue
			}
			listed[category] = true

			group, ok := byName[category]
			if !ok {
				group = &categoryGroup{name: category}
				byName[category] = group
				groups = append(groups, group)
			}
			score := b.engine.Score(s, category, table, now)
			group.pairs = append(group.pairs, scoredPair{schedule: s, score: score})
			group.totalPriority += score.Priority
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].pairs) > len(groups[j].pairs)
	})
	return groups
}

func (b *GraphBuilder) scheduleNode(nodeID string, s *entities.Schedule, score scoring.Score, similarIDs []string) queries.GraphNodeDTO {
	priority, urgency, weight := score.Priority, score.Urgency, score.Weight
	return queries.GraphNodeDTO{
		ID:                 nodeID,
		Label:              s.Title,
		Type:               queries.NodeTypeSchedule,
		Level:              2,
		StartTime:          utils.FormatIn(s.StartAt, queries.DisplayTimeLayout, b.loc),
		EndTime:            utils.FormatIn(s.EndAt, queries.DisplayTimeLayout, b.loc),
		Priority:           &priority,
		Status:             string(s.Status),
		UrgencyScore:       &urgency,
		CategoryWeight:     &weight,
		SimilarScheduleIDs: similarIDs,
	}
}

func (b *GraphBuilder) newEdge(source, target, edgeType string, weight float64) queries.GraphEdgeDTO {
	return queries.GraphEdgeDTO{
		ID:        source + "_to_" + target,
		Source:    source,
		Target:    target,
		Type:      edgeType,
		Weight:    weight,
		Color:     b.edgeColor(edgeType, weight),
		Thickness: b.edgeThickness(weight),
	}
}

func (b *GraphBuilder) edgeColor(edgeType string, weight float64) string {
	switch edgeType {
	case queries.EdgeTypeUserCategory:
		return colorUser
	case queries.EdgeTypeCategorySchedule:
		switch {
		case weight > b.cfg.StrongEdgeThreshold:
			return colorStrong
		case weight > b.cfg.MediumEdgeThreshold:
			return colorMedium
		default:
			return colorWeak
		}
	case queries.EdgeTypeScheduleSchedule:
		return colorSimilarity
	default:
		return colorUnknownEdge
	}
}

func (b *GraphBuilder) edgeThickness(weight float64) int {
	switch {
	case weight > b.cfg.StrongEdgeThreshold:
		return thicknessStrong
	case weight > b.cfg.MediumEdgeThreshold:
		return thicknessMedium
	default:
		return thicknessWeak
	}
}

func layoutMetadata() queries.GraphLayoutDTO {
	return queries.GraphLayoutDTO{
		LayoutType:        graphLayoutStrategy,
		MaxDepth:          graphMaxDepth,
		UserNodeColor:     colorUser,
		CategoryNodeColor: colorCategory,
		ScheduleNodeColor: colorSchedule,
		UserNodeSize:      userNodeSize,
		CategoryNodeSize:  categoryNodeSize,
		ScheduleNodeSize:  scheduleNodeSize,
		HighPriorityColor: colorStrong,
		MedPriorityColor:  colorMedium,
		LowPriorityColor:  colorWeak,
	}
}

func userNodeID(userID string) string {
	return "user_" + userID
}

func categoryNodeID(category string) string {
	return "category_" + strings.ReplaceAll(category, " ", "_")
}

// uniqueNodeID suffixes base with _2, _3, ... until it is unused. Names
// differing only in spaces and underscores otherwise share an id.
func uniqueNodeID(base string, used map[string]bool) string {
	id := base
	for n := 2; used[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	used[id] = true
	return id
}

func scheduleNodeID(scheduleID string) string {
	return "schedule_" + scheduleID
}
