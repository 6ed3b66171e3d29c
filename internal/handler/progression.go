package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
	"github.com/osse101/BrandishProgression_Go/internal/logger"
	"github.com/osse101/BrandishProgression_Go/internal/progression"
	"github.com/osse101/BrandishProgression_Go/internal/rank"
)

// ProgressionHandlers contains HTTP handlers for the progression engine
type ProgressionHandlers struct {
	service progression.Service
	now     func() time.Time
}

// NewProgressionHandlers creates new progression handlers
func NewProgressionHandlers(service progression.Service) *ProgressionHandlers {
	return &ProgressionHandlers{service: service, now: time.Now}
}

// HandleInit creates a progression record for a new user
func (h *ProgressionHandlers) HandleInit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InitRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Initialize progression"); err != nil {
			return
		}

		var band *domain.ProficiencyBand
		if req.AssessedLevel != "" {
			b := domain.ProficiencyBand(strings.ToUpper(req.AssessedLevel))
			band = &b
		}

		view, err := h.service.Initialize(r.Context(), req.UserID, band)
		if err != nil {
			respondServiceError(w, r, "Initialize progression", err)
			return
		}

		logger.FromContext(r.Context()).Info("Initialize progression: success", "user_id", req.UserID)
		respondJSON(w, http.StatusCreated, view)
	}
}

// HandleAddXP grants XP
func (h *ProgressionHandlers) HandleAddXP() http.HandlerFunc {
	return h.handleGrant(domain.EventXPGrant, "Add XP")
}

// HandleAddCoins grants coins
func (h *ProgressionHandlers) HandleAddCoins() http.HandlerFunc {
	return h.handleGrant(domain.EventCoinGrant, "Add coins")
}

// HandleSpendCoins spends coins; an overdraft is rejected with 422
func (h *ProgressionHandlers) HandleSpendCoins() http.HandlerFunc {
	return h.handleGrant(domain.EventCoinSpend, "Spend coins")
}

func (h *ProgressionHandlers) handleGrant(kind domain.EventKind, opName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GrantRequest
		if err := DecodeAndValidateRequest(r, w, &req, opName); err != nil {
			return
		}

		h.apply(w, r, opName, domain.Event{
			UserID:         req.UserID,
			Kind:           kind,
			Amount:         req.Amount,
			Counters:       req.Counters,
			IdempotencyKey: req.IdempotencyKey,
		})
	}
}

// HandlePurchase records a purchase
func (h *ProgressionHandlers) HandlePurchase() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PurchaseRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Record purchase"); err != nil {
			return
		}

		h.apply(w, r, "Record purchase", domain.Event{
			UserID:         req.UserID,
			Kind:           domain.EventPurchase,
			Amount:         req.CoinsRedeemed,
			Spend:          req.Spend,
			Counters:       req.Counters,
			IdempotencyKey: req.IdempotencyKey,
		})
	}
}

// HandleAssessment records an assessment result
func (h *ProgressionHandlers) HandleAssessment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssessmentRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Record assessment"); err != nil {
			return
		}

		h.apply(w, r, "Record assessment", domain.Event{
			UserID: req.UserID,
			Kind:   domain.EventAssessment,
			Assessment: &domain.AssessmentResult{
				Level:    domain.ProficiencyBand(strings.ToUpper(req.Level)),
				Passed:   req.Passed,
				XPReward: req.XPReward,
			},
			IdempotencyKey: req.IdempotencyKey,
		})
	}
}

// HandleStreak records daily activity
func (h *ProgressionHandlers) HandleStreak() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StreakRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Streak tick"); err != nil {
			return
		}

		day := h.now().UTC()
		if req.Date != "" {
			parsed, err := time.Parse(time.DateOnly, req.Date)
			if err != nil {
				respondError(w, http.StatusBadRequest, ErrMsgInvalidDate)
				return
			}
			day = parsed
		}

		h.apply(w, r, "Streak tick", domain.Event{
			UserID:         req.UserID,
			Kind:           domain.EventStreakTick,
			Date:           day,
			IdempotencyKey: req.IdempotencyKey,
		})
	}
}

// HandleEvaluateBadges evaluates the badge catalog against reported counters
func (h *ProgressionHandlers) HandleEvaluateBadges() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EvaluateBadgesRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Evaluate badges"); err != nil {
			return
		}

		res, err := h.service.EvaluateBadges(r.Context(), req.UserID, req.Counters)
		if err != nil {
			respondServiceError(w, r, "Evaluate badges", err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// HandleGetLevel returns the user's level view including rank
func (h *ProgressionHandlers) HandleGetLevel() http.HandlerFunc {
	return h.handleUserRead("Get level", func(ctx context.Context, userID string) (interface{}, error) {
		return h.service.GetLevel(ctx, userID)
	})
}

// HandleGetBadges returns every badge the user has earned
func (h *ProgressionHandlers) HandleGetBadges() http.HandlerFunc {
	return h.handleUserRead("Get badges", func(ctx context.Context, userID string) (interface{}, error) {
		badges, err := h.service.GetBadges(ctx, userID)
		if err != nil {
			return nil, err
		}
		return BadgesResponse{Badges: nonNil(badges)}, nil
	})
}

// HandleGetNewBadges returns unseen badges and marks them seen
func (h *ProgressionHandlers) HandleGetNewBadges() http.HandlerFunc {
	return h.handleUserRead("Get new badges", func(ctx context.Context, userID string) (interface{}, error) {
		badges, err := h.service.GetNewBadges(ctx, userID)
		if err != nil {
			return nil, err
		}
		return BadgesResponse{Badges: nonNil(badges)}, nil
	})
}

// HandleSetBadgeDisplayed toggles a badge on the profile
func (h *ProgressionHandlers) HandleSetBadgeDisplayed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BadgeDisplayRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Set badge display"); err != nil {
			return
		}

		code := strings.ToUpper(req.BadgeCode)
		if err := h.service.SetBadgeDisplayed(r.Context(), req.UserID, code, req.Displayed); err != nil {
			respondServiceError(w, r, "Set badge display", err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgBadgeDisplayUpdated})
	}
}

// HandleLeaderboard returns the top users by XP
func (h *ProgressionHandlers) HandleLeaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := GetIntQueryParam(r, w, "limit", rank.DefaultLeaderboardLimit)
		if !ok {
			return
		}

		entries, err := h.service.Leaderboard(r.Context(), limit)
		if err != nil {
			respondServiceError(w, r, "Leaderboard", err)
			return
		}
		if entries == nil {
			entries = []domain.LeaderboardEntry{}
		}
		respondJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries})
	}
}

// apply runs one activity event. A duplicate is a success and carries
// the outcome in the body.
func (h *ProgressionHandlers) apply(w http.ResponseWriter, r *http.Request, opName string, evt domain.Event) {
	res, err := h.service.ApplyEvent(r.Context(), evt)
	if err != nil {
		respondServiceError(w, r, opName, err)
		return
	}

	logger.FromContext(r.Context()).Info(opName+": success",
		"user_id", evt.UserID, "outcome", res.Outcome, "new_badges", len(res.NewBadges))
	respondJSON(w, http.StatusOK, res)
}

func (h *ProgressionHandlers) handleUserRead(opName string, read func(context.Context, string) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetQueryParam(r, w, "user_id")
		if !ok {
			return
		}

		out, err := read(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, opName, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func nonNil(badges []domain.BadgeView) []domain.BadgeView {
	if badges == nil {
		return []domain.BadgeView{}
	}
	return badges
}
