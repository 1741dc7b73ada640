package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"priorify/application/commands"
	"priorify/application/ports"
	"priorify/application/queries"
	"priorify/domain/core/validators"
	"priorify/domain/core/valueobjects"
	pkgerrors "priorify/pkg/errors"
	"priorify/pkg/utils"
)

// SetPrioritiesHandler validates and stores a user's preference lists
type SetPrioritiesHandler struct {
	users     ports.UserRepository
	validator *validators.PreferenceValidator
	publisher ports.EventPublisher
	cache     ports.Cache
	logger    *zap.Logger
}

// NewSetPrioritiesHandler creates a new handler. publisher and cache may be
// nil.
func NewSetPrioritiesHandler(
	users ports.UserRepository,
	validator *validators.PreferenceValidator,
	publisher ports.EventPublisher,
	cache ports.Cache,
	logger *zap.Logger,
) *SetPrioritiesHandler {
	return &SetPrioritiesHandler{
		users:     users,
		validator: validator,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
	}
}

// Handle executes the set priorities command
func (h *SetPrioritiesHandler) Handle(ctx context.Context, cmd commands.SetPrioritiesCommand) error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return asInvalidPreferences(err)
	}
	if err := h.validator.Validate(toInputs(cmd.HighPriorities), toInputs(cmd.LowPriorities)); err != nil {
		return asInvalidPreferences(err)
	}

	high, err := toPreferences(cmd.HighPriorities)
	if err != nil {
		return err
	}
	low, err := toPreferences(cmd.LowPriorities)
	if err != nil {
		return err
	}

	user, err := h.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return err
	}

	user.SetPriorities(high, low)
	if err := h.users.UpdatePriorities(ctx, user.ID(), user.HighPriorities(), user.LowPriorities(), user.UpdatedAt()); err != nil {
		return err
	}

	if h.publisher != nil {
		if err := h.publisher.PublishBatch(ctx, user.GetUncommittedEvents()); err != nil {
			h.logger.Warn("Failed to publish priority events", zap.String("userID", user.ID()), zap.Error(err))
		}
	}
	user.MarkEventsAsCommitted()

	if h.cache != nil {
		if err := h.cache.DeletePrefix(ctx, queries.GraphCacheKeyPrefix(user.ID())); err != nil {
			h.logger.Warn("Failed to invalidate graph cache", zap.String("userID", user.ID()), zap.Error(err))
		}
	}

	h.logger.Info("Priorities updated",
		zap.String("userID", user.ID()),
		zap.Int("high", len(high)),
		zap.Int("low", len(low)),
	)
	return nil
}

func asInvalidPreferences(err error) error {
	var fieldErrs *pkgerrors.FieldErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs.ToAppError(pkgerrors.CodeInvalidPreferences)
	}
	return err
}

func toInputs(list []commands.CategoryRank) []validators.PreferenceInput {
	out := make([]validators.PreferenceInput, len(list))
	for i, p := range list {
		out[i] = validators.PreferenceInput{Category: p.Category, Rank: p.Rank}
	}
	return out
}

func toPreferences(list []commands.CategoryRank) ([]valueobjects.CategoryPreference, error) {
	out := make([]valueobjects.CategoryPreference, 0, len(list))
	for _, p := range list {
		pref, err := valueobjects.NewCategoryPreference(p.Category, p.Rank)
		if err != nil {
			return nil, err
		}
		out = append(out, pref)
	}
	return out, nil
}
