package services

import (
	"fmt"
	"testing"
	"time"

	"priorify/domain/config"
	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
)

// 2025-05-12 10:00 in Seoul
var testNow = time.Date(2025, 5, 12, 1, 0, 0, 0, time.UTC)

func after(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func testConfig() *config.DomainConfig {
	return config.DefaultDomainConfig()
}

// testUser prefers work (4.0) and study (3.5) and dislikes games (0.5)
func testUser(t *testing.T) *entities.User {
	t.Helper()
	return entities.ReconstructUser("u1", "Dana", "dana@example.com",
		[]valueobjects.CategoryPreference{
			valueobjects.MustCategoryPreference("work", 1),
			valueobjects.MustCategoryPreference("study", 2),
		},
		[]valueobjects.CategoryPreference{
			valueobjects.MustCategoryPreference("games", 1),
		},
		testNow, testNow, 1)
}

func schedule(id, title string, start, end *time.Time, categories ...string) *entities.Schedule {
	return &entities.Schedule{
		ID:         id,
		OwnerID:    "u1",
		Title:      title,
		Categories: categories,
		StartAt:    start,
		EndAt:      end,
		Status:     entities.ScheduleActive,
	}
}

func makeUsers(n int, withEmail func(i int) bool) []*entities.User {
	users := make([]*entities.User, n)
	for i := range users {
		email := ""
		if withEmail(i) {
			email = fmt.Sprintf("user%d@example.com", i)
		}
		users[i] = entities.ReconstructUser(fmt.Sprintf("u%d", i), fmt.Sprintf("User %d", i), email,
			nil, nil, testNow, testNow, 1)
	}
	return users
}

func toList(schedules ...*entities.Schedule) []*entities.Schedule {
	return schedules
}
