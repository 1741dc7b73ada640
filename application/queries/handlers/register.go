package handlers

import (
	"priorify/application/queries"
	"priorify/application/queries/bus"
)

// Set holds every query handler of the service
type Set struct {
	Graph       *GetScheduleGraphHandler
	List        *ListSchedulesHandler
	TopPriority *GetTopPriorityHandler
	Similar     *GetSimilarSchedulesHandler
	Priorities  *GetPrioritiesHandler
	Statistics  *GetStatisticsHandler
	BatchStats  *GetBatchStatisticsHandler
}

// Register binds each handler to its query type
func (s *Set) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetScheduleGraphQuery{}, bus.Typed(s.Graph.Handle)},
		{queries.ListSchedulesQuery{}, bus.Typed(s.List.Handle)},
		{queries.GetTopPrioritySchedulesQuery{}, bus.Typed(s.TopPriority.Handle)},
		{queries.GetSimilarSchedulesQuery{}, bus.Typed(s.Similar.Handle)},
		{queries.GetPrioritiesQuery{}, bus.Typed(s.Priorities.Handle)},
		{queries.GetStatisticsQuery{}, bus.Typed(s.Statistics.Handle)},
		{queries.GetCategoryStatisticsQuery{}, bus.Typed(s.Statistics.HandleCategories)},
		{queries.GetBatchStatisticsQuery{}, bus.Typed(s.BatchStats.Handle)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}
