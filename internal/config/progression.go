package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/osse101/BrandishProgression_Go/internal/curve"
	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// ProgressionFile is the on-disk shape of configs/progression.yaml
type ProgressionFile struct {
	Levels struct {
		MaxLevel   int     `yaml:"max_level"`
		Thresholds []int64 `yaml:"thresholds"`
	} `yaml:"levels"`
	LoyaltyTiers []TierSpec     `yaml:"loyalty_tiers"`
	Badges       []domain.Badge `yaml:"badges"`
}

// TierSpec is one loyalty row. Threshold is a decimal string so money
// amounts never pass through float parsing.
type TierSpec struct {
	Name      string `yaml:"name"`
	Threshold string `yaml:"threshold"`
	Discount  int    `yaml:"discount"`
}

// Progression is the validated runtime form of the progression file
type Progression struct {
	Levels  *curve.LevelCurve
	Loyalty *curve.LoyaltyCurve
	Badges  []domain.Badge
}

// LoadProgression reads and validates the progression file. An empty path
// yields the built-in curves and no badges. Invalid tables are returned as
// ErrInvalidCurve and must abort startup.
func LoadProgression(path string) (*Progression, error) {
	var file ProgressionFile
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read progression config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse progression config %s: %w", path, err)
		}
	}
	return BuildProgression(file)
}

// BuildProgression turns a decoded file into validated curves
func BuildProgression(file ProgressionFile) (*Progression, error) {
	upper := cases.Upper(language.Und)

	thresholds := file.Levels.Thresholds
	if len(thresholds) == 0 {
		maxLevel := file.Levels.MaxLevel
		if maxLevel == 0 {
			maxLevel = curve.DefaultMaxLevel
		}
		thresholds = curve.DefaultLevelThresholds(maxLevel)
	}
	levels, err := curve.NewLevelCurve(thresholds)
	if err != nil {
		return nil, err
	}

	tiers := curve.DefaultLoyaltyTiers()
	if len(file.LoyaltyTiers) > 0 {
		tiers = make([]curve.Tier, 0, len(file.LoyaltyTiers))
		for _, raw := range file.LoyaltyTiers {
			threshold, err := decimal.NewFromString(strings.TrimSpace(raw.Threshold))
			if err != nil {
				return nil, fmt.Errorf("%w: tier %s threshold %q: %v",
					domain.ErrInvalidCurve, raw.Name, raw.Threshold, err)
			}
			tiers = append(tiers, curve.Tier{
				Name:            upper.String(strings.TrimSpace(raw.Name)),
				Threshold:       threshold,
				DiscountPercent: raw.Discount,
			})
		}
	}
	loyalty, err := curve.NewLoyaltyCurve(tiers)
	if err != nil {
		return nil, err
	}

	badges := make([]domain.Badge, 0, len(file.Badges))
	for _, b := range file.Badges {
		b.Code = upper.String(strings.TrimSpace(b.Code))
		b.Rarity = domain.Rarity(upper.String(string(b.Rarity)))
		b.Criteria.Kind = domain.CriterionKind(upper.String(string(b.Criteria.Kind)))
		if b.Code == "" {
			return nil, fmt.Errorf("%w: badge entry without code", domain.ErrBadgeCatalogInconsistent)
		}
		badges = append(badges, b)
	}

	return &Progression{Levels: levels, Loyalty: loyalty, Badges: badges}, nil
}
