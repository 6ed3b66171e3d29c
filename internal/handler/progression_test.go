package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

func doRequest(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func appliedResult(userID string, xp int64) *domain.ApplyResult {
	return &domain.ApplyResult{
		Outcome:   domain.OutcomeApplied,
		View:      domain.UserLevelView{UserID: userID, TotalXP: xp, Level: 2, LoyaltyTier: "BRONZE"},
		NewBadges: []domain.BadgeView{},
	}
}

func TestHandleInit(t *testing.T) {
	t.Run("Success with band", func(t *testing.T) {
		svc := &MockProgressionService{}
		band := domain.BandB1
		svc.On("Initialize", mock.Anything, "u1", &band).
			Return(&domain.UserLevelView{UserID: "u1", Level: 1, AssessedLevel: &band}, nil)

		h := NewProgressionHandlers(svc)
		w := doRequest(h.HandleInit(), http.MethodPost, "/init", `{"user_id":"u1","assessed_level":"b1"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"assessed_level":"B1"`)
		svc.AssertExpectations(t)
	})

	t.Run("Already initialized", func(t *testing.T) {
		svc := &MockProgressionService{}
		svc.On("Initialize", mock.Anything, "u1", (*domain.ProficiencyBand)(nil)).
			Return(nil, fmt.Errorf("wrap: %w", domain.ErrAlreadyInitialized))

		h := NewProgressionHandlers(svc)
		w := doRequest(h.HandleInit(), http.MethodPost, "/init", `{"user_id":"u1"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"ALREADY_INITIALIZED"`)
	})

	t.Run("Validation failures", func(t *testing.T) {
		svc := &MockProgressionService{}
		h := NewProgressionHandlers(svc)

		w := doRequest(h.HandleInit(), http.MethodPost, "/init", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"This field is required"`)

		w = doRequest(h.HandleInit(), http.MethodPost, "/init", `{"user_id":"u1","assessed_level":"Z9"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid proficiency band")

		w = doRequest(h.HandleInit(), http.MethodPost, "/init", `not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		svc.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleGrants(t *testing.T) {
	tests := []struct {
		name    string
		handler func(*ProgressionHandlers) http.HandlerFunc
		kind    domain.EventKind
	}{
		{"xp", (*ProgressionHandlers).HandleAddXP, domain.EventXPGrant},
		{"coins", (*ProgressionHandlers).HandleAddCoins, domain.EventCoinGrant},
		{"spend", (*ProgressionHandlers).HandleSpendCoins, domain.EventCoinSpend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockProgressionService{}
			want := domain.Event{
				UserID: "u1", Kind: tt.kind, Amount: 40, IdempotencyKey: "evt-1",
				Counters: map[string]int64{"clubsJoined": 1},
			}
			svc.On("ApplyEvent", mock.Anything, want).Return(appliedResult("u1", 40), nil)

			h := NewProgressionHandlers(svc)
			body := `{"user_id":"u1","amount":40,"idempotency_key":"evt-1","counters":{"clubsJoined":1}}`
			w := doRequest(tt.handler(h), http.MethodPost, "/", body)

			assert.Equal(t, http.StatusOK, w.Code)
			var res domain.ApplyResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, domain.OutcomeApplied, res.Outcome)
			assert.Equal(t, int64(40), res.View.TotalXP)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleGrants_RequireKey(t *testing.T) {
	svc := &MockProgressionService{}
	h := NewProgressionHandlers(svc)

	for _, hf := range []http.HandlerFunc{h.HandleAddXP(), h.HandleAddCoins(), h.HandleSpendCoins()} {
		w := doRequest(hf, http.MethodPost, "/", `{"user_id":"u1","amount":5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"idempotency_key":"This field is required"`)
	}
	svc.AssertNotCalled(t, "ApplyEvent", mock.Anything, mock.Anything)
}

func TestHandleAddXP_FreshUser(t *testing.T) {
	svc := &MockProgressionService{}
	svc.On("ApplyEvent", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.UserID == "fresh" && e.Kind == domain.EventXPGrant && e.IdempotencyKey == "x1"
	})).Return(appliedResult("fresh", 30), nil)

	h := NewProgressionHandlers(svc)
	w := doRequest(h.HandleAddXP(), http.MethodPost, "/xp", `{"user_id":"fresh","amount":30,"idempotency_key":"x1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_xp":30`)
	svc.AssertExpectations(t)
}

func TestHandleAddXP_Duplicate(t *testing.T) {
	svc := &MockProgressionService{}
	dup := appliedResult("u1", 150)
	dup.Outcome = domain.OutcomeDuplicateIgnored
	svc.On("ApplyEvent", mock.Anything, mock.Anything).Return(dup, nil)

	h := NewProgressionHandlers(svc)
	w := doRequest(h.HandleAddXP(), http.MethodPost, "/xp", `{"user_id":"u1","amount":150,"idempotency_key":"evt-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"DUPLICATE_IGNORED"`)
}

func TestHandleErrors_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", fmt.Errorf("%w: u1", domain.ErrUserNotFound), http.StatusNotFound, ErrMsgUserNotFoundError},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest, ErrMsgInvalidAmountError},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest, ErrMsgInvalidInputError},
		{"insufficient", fmt.Errorf("%w: need 5", domain.ErrInsufficientBalance), http.StatusUnprocessableEntity, ErrMsgInsufficientBalanceErr},
		{"catalog", domain.ErrBadgeCatalogInconsistent, http.StatusInternalServerError, ErrMsgGenericServerError},
		{"store", assert.AnError, http.StatusInternalServerError, ErrMsgGenericServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockProgressionService{}
			svc.On("ApplyEvent", mock.Anything, mock.Anything).Return(nil, tt.err)

			h := NewProgressionHandlers(svc)
			w := doRequest(h.HandleSpendCoins(), http.MethodPost, "/coins/spend", `{"user_id":"u1","amount":5,"idempotency_key":"s1"}`)

			assert.Equal(t, tt.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body.Error)
			assert.NotContains(t, w.Body.String(), assert.AnError.Error())
		})
	}
}

func TestHandlePurchase(t *testing.T) {
	svc := &MockProgressionService{}
	svc.On("ApplyEvent", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.Kind == domain.EventPurchase &&
			e.Spend.Equal(decimal.RequireFromString("120.50")) &&
			e.Amount == 10 && e.IdempotencyKey == "p1"
	})).Return(appliedResult("u1", 0), nil)

	h := NewProgressionHandlers(svc)
	w := doRequest(h.HandlePurchase(), http.MethodPost, "/purchase",
		`{"user_id":"u1","spend":"120.50","coins_redeemed":10,"idempotency_key":"p1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHandleAssessment(t *testing.T) {
	svc := &MockProgressionService{}
	svc.On("ApplyEvent", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.Kind == domain.EventAssessment && e.Assessment != nil &&
			e.Assessment.Level == domain.BandC1 && e.Assessment.Passed && e.Assessment.XPReward == 50
	})).Return(appliedResult("u1", 50), nil)

	h := NewProgressionHandlers(svc)
	w := doRequest(h.HandleAssessment(), http.MethodPost, "/assessment",
		`{"user_id":"u1","level":"c1","passed":true,"xp_reward":50}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(h.HandleAssessment(), http.MethodPost, "/assessment", `{"user_id":"u1","passed":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "ApplyEvent", 1)
}

func TestHandleStreak(t *testing.T) {
	t.Run("Explicit date", func(t *testing.T) {
		svc := &MockProgressionService{}
		day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		svc.On("ApplyEvent", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
			return e.Kind == domain.EventStreakTick && e.Date.Equal(day)
		})).Return(appliedResult("u1", 0), nil)

		h := NewProgressionHandlers(svc)
		w := doRequest(h.HandleStreak(), http.MethodPost, "/streak", `{"user_id":"u1","date":"2026-03-02"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Defaults to today", func(t *testing.T) {
		svc := &MockProgressionService{}
		now := time.Date(2026, 5, 9, 23, 30, 0, 0, time.UTC)
		svc.On("ApplyEvent", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
			return e.Date.Equal(now)
		})).Return(appliedResult("u1", 0), nil)

		h := NewProgressionHandlers(svc)
		h.now = func() time.Time { return now }
		w := doRequest(h.HandleStreak(), http.MethodPost, "/streak", `{"user_id":"u1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Bad date", func(t *testing.T) {
		h := NewProgressionHandlers(&MockProgressionService{})
		w := doRequest(h.HandleStreak(), http.MethodPost, "/streak", `{"user_id":"u1","date":"03/02/2026"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleEvaluateBadges(t *testing.T) {
	svc := &MockProgressionService{}
	res := appliedResult("u1", 0)
	res.NewBadges = []domain.BadgeView{{Code: "FIRST_CLUB", IsNew: true}}
	svc.On("EvaluateBadges", mock.Anything, "u1", map[string]int64{"clubsJoined": 1}).Return(res, nil)

	h := NewProgressionHandlers(svc)
	w := doRequest(h.HandleEvaluateBadges(), http.MethodPost, "/badges/evaluate",
		`{"user_id":"u1","counters":{"clubsJoined":1}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FIRST_CLUB"`)

	w = doRequest(h.HandleEvaluateBadges(), http.MethodPost, "/badges/evaluate", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleReads(t *testing.T) {
	svc := &MockProgressionService{}
	next := int64(300)
	svc.On("GetLevel", mock.Anything, "u1").
		Return(&domain.UserLevelView{UserID: "u1", Level: 2, TotalXP: 150, XPForNextLevel: &next, Rank: 3}, nil)
	svc.On("GetLevel", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)
	svc.On("GetBadges", mock.Anything, "u1").Return([]domain.BadgeView(nil), nil)
	svc.On("GetNewBadges", mock.Anything, "u1").Return([]domain.BadgeView{{Code: "LEVEL_5", IsNew: true}}, nil)

	h := NewProgressionHandlers(svc)

	w := doRequest(h.HandleGetLevel(), http.MethodGet, "/level?user_id=u1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rank":3`)
	assert.Contains(t, w.Body.String(), `"xp_for_next_level":300`)

	w = doRequest(h.HandleGetLevel(), http.MethodGet, "/level?user_id=ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(h.HandleGetLevel(), http.MethodGet, "/level", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(h.HandleGetBadges(), http.MethodGet, "/badges?user_id=u1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"badges":[]}`, w.Body.String())

	w = doRequest(h.HandleGetNewBadges(), http.MethodGet, "/badges/new?user_id=u1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"LEVEL_5"`)
}

func TestHandleSetBadgeDisplayed(t *testing.T) {
	svc := &MockProgressionService{}
	svc.On("SetBadgeDisplayed", mock.Anything, "u1", "FIRST_CLUB", true).Return(nil)
	svc.On("SetBadgeDisplayed", mock.Anything, "u1", "LEVEL_25", true).Return(domain.ErrInvalidInput)

	h := NewProgressionHandlers(svc)

	w := doRequest(h.HandleSetBadgeDisplayed(), http.MethodPost, "/badges/display",
		`{"user_id":"u1","badge_code":"first_club","displayed":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MsgBadgeDisplayUpdated)

	w = doRequest(h.HandleSetBadgeDisplayed(), http.MethodPost, "/badges/display",
		`{"user_id":"u1","badge_code":"LEVEL_25","displayed":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleLeaderboard(t *testing.T) {
	svc := &MockProgressionService{}
	svc.On("Leaderboard", mock.Anything, 10).Return([]domain.LeaderboardEntry{
		{UserID: "b", TotalXP: 200, Level: 2, Rank: 1},
	}, nil)
	svc.On("Leaderboard", mock.Anything, 3).Return([]domain.LeaderboardEntry(nil), nil)

	h := NewProgressionHandlers(svc)

	w := doRequest(h.HandleLeaderboard(), http.MethodGet, "/leaderboard", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"b"`)

	w = doRequest(h.HandleLeaderboard(), http.MethodGet, "/leaderboard?limit=3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"entries":[]}`, w.Body.String())

	w = doRequest(h.HandleLeaderboard(), http.MethodGet, "/leaderboard?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "Leaderboard", 2)
}
