package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
	"github.com/osse101/BrandishProgression_Go/internal/repository"
)

const progressionColumns = `user_id, total_xp, coins, total_spent::text, purchase_count,
	consecutive_days, last_active_date, assessed_level, certified_level, created_at, updated_at`

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProgressionRepository implements repository.Progression and
// repository.BadgeCatalog on Postgres
type ProgressionRepository struct {
	db *pgxpool.Pool
}

var (
	_ repository.Progression  = (*ProgressionRepository)(nil)
	_ repository.BadgeCatalog = (*ProgressionRepository)(nil)
)

// NewProgressionRepository creates a new Postgres-backed repository
func NewProgressionRepository(db *pgxpool.Pool) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

func (r *ProgressionRepository) GetProgression(ctx context.Context, userID string) (*domain.UserProgression, error) {
	return getProgression(ctx, r.db, userID, false)
}

func (r *ProgressionRepository) CreateProgression(ctx context.Context, p *domain.UserProgression) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO user_progression (user_id, total_xp, coins, total_spent, purchase_count,
			consecutive_days, last_active_date, assessed_level, certified_level)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO NOTHING`,
		p.UserID, p.TotalXP, p.Coins, p.TotalSpent.String(), p.PurchaseCount,
		p.ConsecutiveDays, p.LastActiveDate, bandArg(p.AssessedLevel), bandArg(p.CertifiedLevel))
	if err != nil {
		return fmt.Errorf("failed to create progression: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyInitialized, p.UserID)
	}
	return nil
}

func (r *ProgressionRepository) GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	if err := r.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT user_id, badge_code, earned_at, is_new, is_displayed
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at, badge_code`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}
	return scanUserBadges(rows)
}

func (r *ProgressionRepository) AcknowledgeNewBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	if err := r.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	// RETURNING reports the pre-update row set; is_new is true there by construction
	rows, err := r.db.Query(ctx, `
		UPDATE user_badges SET is_new = FALSE
		WHERE user_id = $1 AND is_new
		RETURNING user_id, badge_code, earned_at, TRUE, is_displayed`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge badges: %w", err)
	}
	badges, err := scanUserBadges(rows)
	if err != nil {
		return nil, err
	}
	sortByEarned(badges)
	return badges, nil
}

func (r *ProgressionRepository) SetBadgeDisplayed(ctx context.Context, userID, badgeCode string, displayed bool) error {
	if err := r.ensureUser(ctx, userID); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE user_badges SET is_displayed = $3
		WHERE user_id = $1 AND badge_code = $2`, userID, badgeCode, displayed)
	if err != nil {
		return fmt.Errorf("failed to update badge display: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: badge %s not earned by %s", domain.ErrInvalidInput, badgeCode, userID)
	}
	return nil
}

func (r *ProgressionRepository) CountUsersAbove(ctx context.Context, totalXP int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_progression WHERE total_xp > $1`, totalXP).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *ProgressionRepository) TopByXP(ctx context.Context, limit int) ([]domain.UserProgression, error) {
	rows, err := r.db.Query(ctx, `SELECT `+progressionColumns+`
		FROM user_progression
		ORDER BY total_xp DESC, user_id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.UserProgression
	for rows.Next() {
		p, err := scanProgression(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *ProgressionRepository) GetBadgeCatalog(ctx context.Context) ([]domain.Badge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT code, name, description, badge_type, rarity, coins_reward, is_active,
			criteria_kind, criteria_value, criteria_counter
		FROM badges
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to get badge catalog: %w", err)
	}
	defer rows.Close()

	var out []domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.Code, &b.Name, &b.Description, &b.Type, &b.Rarity, &b.CoinsReward,
			&b.IsActive, &b.Criteria.Kind, &b.Criteria.Threshold, &b.Criteria.Counter); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *ProgressionRepository) UpsertBadges(ctx context.Context, badges []domain.Badge) error {
	batch := &pgx.Batch{}
	for _, b := range badges {
		batch.Queue(`
			INSERT INTO badges (code, name, description, badge_type, rarity, coins_reward, is_active,
				criteria_kind, criteria_value, criteria_counter)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				badge_type = EXCLUDED.badge_type,
				rarity = EXCLUDED.rarity,
				coins_reward = EXCLUDED.coins_reward,
				is_active = EXCLUDED.is_active,
				criteria_kind = EXCLUDED.criteria_kind,
				criteria_value = EXCLUDED.criteria_value,
				criteria_counter = EXCLUDED.criteria_counter`,
			b.Code, b.Name, b.Description, b.Type, string(b.Rarity), b.CoinsReward, b.IsActive,
			string(b.Criteria.Kind), b.Criteria.Threshold, b.Criteria.Counter)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert badges: %w", err)
	}
	return nil
}

// BeginTx opens a read-committed transaction. Row locks taken with
// GetProgressionForUpdate serialize writers across processes.
func (r *ProgressionRepository) BeginTx(ctx context.Context) (repository.ProgressionTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &progressionTx{tx: tx}, nil
}

func (r *ProgressionRepository) ensureUser(ctx context.Context, userID string) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_progression WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return nil
}

type progressionTx struct {
	tx pgx.Tx
}

func (t *progressionTx) GetProgressionForUpdate(ctx context.Context, userID string) (*domain.UserProgression, error) {
	return getProgression(ctx, t.tx, userID, true)
}

// GetOrCreateProgressionForUpdate inserts a zero row for an unknown user and
// locks it. created reports whether this transaction inserted the row.
func (t *progressionTx) GetOrCreateProgressionForUpdate(ctx context.Context, userID string) (*domain.UserProgression, bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO user_progression (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create progression: %w", err)
	}
	p, err := getProgression(ctx, t.tx, userID, true)
	if err != nil {
		return nil, false, err
	}
	return p, tag.RowsAffected() == 1, nil
}

func (t *progressionTx) UpdateProgression(ctx context.Context, p *domain.UserProgression) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE user_progression SET
			total_xp = $2,
			coins = $3,
			total_spent = $4::numeric,
			purchase_count = $5,
			consecutive_days = $6,
			last_active_date = $7,
			assessed_level = $8,
			certified_level = $9,
			updated_at = NOW()
		WHERE user_id = $1`,
		p.UserID, p.TotalXP, p.Coins, p.TotalSpent.String(), p.PurchaseCount,
		p.ConsecutiveDays, p.LastActiveDate, bandArg(p.AssessedLevel), bandArg(p.CertifiedLevel))
	if err != nil {
		return fmt.Errorf("failed to update progression: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, p.UserID)
	}
	return nil
}

func (t *progressionTx) IsKeyConsumed(ctx context.Context, userID string, scope domain.KeyScope, key string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM consumed_keys WHERE user_id = $1 AND scope = $2 AND key = $3)`,
		userID, string(scope), key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return exists, nil
}

func (t *progressionTx) ConsumeKey(ctx context.Context, userID string, scope domain.KeyScope, key string, kind domain.EventKind) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO consumed_keys (user_id, scope, key, event_kind)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, scope, key) DO NOTHING`, userID, string(scope), key, string(kind))
	if err != nil {
		return fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return nil
}

func (t *progressionTx) GetOwnedBadgeCodes(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := t.tx.Query(ctx, `SELECT badge_code FROM user_badges WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owned badges: %w", err)
	}
	defer rows.Close()

	owned := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan badge code: %w", err)
		}
		owned[code] = true
	}
	return owned, rows.Err()
}

func (t *progressionTx) InsertUserBadge(ctx context.Context, ub *domain.UserBadge) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO user_badges (user_id, badge_code, earned_at, is_new, is_displayed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, badge_code) DO NOTHING`,
		ub.UserID, ub.BadgeCode, ub.EarnedAt, ub.IsNew, ub.IsDisplayed)
	if err != nil {
		return false, fmt.Errorf("failed to insert user badge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *progressionTx) Commit(ctx context.Context) error {
	return translateTxErr(t.tx.Commit(ctx))
}

func (t *progressionTx) Rollback(ctx context.Context) error {
	return translateTxErr(t.tx.Rollback(ctx))
}

func translateTxErr(err error) error {
	if errors.Is(err, pgx.ErrTxClosed) {
		return repository.ErrTxClosed
	}
	return err
}

func getProgression(ctx context.Context, q querier, userID string, forUpdate bool) (*domain.UserProgression, error) {
	sql := `SELECT ` + progressionColumns + ` FROM user_progression WHERE user_id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	p, err := scanProgression(q.QueryRow(ctx, sql, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProgression(row pgx.Row) (*domain.UserProgression, error) {
	var (
		p          domain.UserProgression
		spent      string
		lastActive *time.Time
		assessed   *string
		certified  *string
	)
	err := row.Scan(&p.UserID, &p.TotalXP, &p.Coins, &spent, &p.PurchaseCount,
		&p.ConsecutiveDays, &lastActive, &assessed, &certified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan progression: %w", err)
	}

	p.TotalSpent, err = decimal.NewFromString(spent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total_spent %q: %w", spent, err)
	}
	if lastActive != nil {
		d := lastActive.UTC()
		p.LastActiveDate = &d
	}
	p.AssessedLevel = bandPtr(assessed)
	p.CertifiedLevel = bandPtr(certified)
	return &p, nil
}
