package postgres

import (
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

func bandArg(b *domain.ProficiencyBand) *string {
	if b == nil {
		return nil
	}
	s := string(*b)
	return &s
}

func bandPtr(s *string) *domain.ProficiencyBand {
	if s == nil {
		return nil
	}
	b := domain.ProficiencyBand(*s)
	return &b
}

func scanUserBadges(rows pgx.Rows) ([]domain.UserBadge, error) {
	defer rows.Close()

	badges := make([]domain.UserBadge, 0)
	for rows.Next() {
		var ub domain.UserBadge
		if err := rows.Scan(&ub.UserID, &ub.BadgeCode, &ub.EarnedAt, &ub.IsNew, &ub.IsDisplayed); err != nil {
			return nil, err
		}
		badges = append(badges, ub)
	}
	return badges, rows.Err()
}

func sortByEarned(badges []domain.UserBadge) {
	sort.Slice(badges, func(i, j int) bool {
		if !badges[i].EarnedAt.Equal(badges[j].EarnedAt) {
			return badges[i].EarnedAt.Before(badges[j].EarnedAt)
		}
		return badges[i].BadgeCode < badges[j].BadgeCode
	})
}
