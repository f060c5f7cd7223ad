package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/filter"
	"go-recruit-crawler/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

type Repository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func ConnectDB(ctx context.Context, connString string, logger *zap.Logger) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Poolers in transaction mode (PgBouncer, Supabase) break prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool, logger: logger}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Version returns the server version string and the current database size.
func (r *Repository) Version(ctx context.Context) (string, string, error) {
	var version, size string
	if err := r.db.QueryRow(ctx, "SELECT version(), pg_size_pretty(pg_database_size(current_database()))").Scan(&version, &size); err != nil {
		return "", "", fmt.Errorf("query failed: %w", err)
	}
	return version, size, nil
}

// Migrate creates the tables if they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

type ImportStats struct {
	Total   int
	Added   int
	Skipped int
}

// ImportHistory inserts every history entry whose key is not in the table yet.
// Existing rows are left alone. Skill tags are derived from the position.
func (r *Repository) ImportHistory(ctx context.Context, hist *dedup.History) (ImportStats, error) {
	stats := ImportStats{Total: len(hist.Jobs)}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	for key, rec := range hist.Jobs {
		tag, err := tx.Exec(ctx, insertJobSQL, jobArgs(key, rec)...)
		if err != nil {
			return stats, fmt.Errorf("failed to insert job %s: %w", key, err)
		}
		if tag.RowsAffected() == 0 {
			stats.Skipped++
			continue
		}
		stats.Added++

		for _, s := range skillRows(key, rec.Position) {
			if _, err := tx.Exec(ctx, insertSkillSQL, s.ID, s.JobKey, s.Skill); err != nil {
				return stats, fmt.Errorf("failed to insert skill %s: %w", s.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}
	r.logger.Info("🗄️ history imported",
		zap.Int("total", stats.Total), zap.Int("added", stats.Added), zap.Int("skipped", stats.Skipped))
	return stats, nil
}

const insertJobSQL = `
	INSERT INTO jobs (key, job_type, company, company_type, location, recruitment_type, target,
		position, update_time, deadline, links, notice, referral, notes, crawl_time)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (key) DO NOTHING`

const insertSkillSQL = `
	INSERT INTO job_skills (id, job_key, skill) VALUES ($1, $2, $3)
	ON CONFLICT (id) DO NOTHING`

func jobArgs(key string, rec models.Record) []any {
	var crawl *time.Time
	if !rec.CrawlTime.IsZero() {
		t := rec.CrawlTime
		crawl = &t
	}
	return []any{key, string(rec.JobType), rec.Company, rec.CompanyType, rec.Location,
		rec.RecruitmentType, rec.Target, rec.Position, rec.UpdateTime, rec.Deadline,
		rec.Links, rec.Notice, rec.Referral, rec.Notes, crawl}
}

type skillRow struct {
	ID     string
	JobKey string
	Skill  string
}

func skillRows(key, position string) []skillRow {
	skills := filter.ExtractSkills(position)
	rows := make([]skillRow, 0, len(skills))
	for _, s := range skills {
		rows = append(rows, skillRow{ID: key + "-" + s, JobKey: key, Skill: s})
	}
	return rows
}

// JobQuery filters QueryJobs. Empty fields match everything.
type JobQuery struct {
	JobType  string
	Target   string
	Location string
	Skill    string
	Limit    int
}

func buildJobQuery(q JobQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if q.JobType != "" {
		jt := q.JobType
		if parsed, ok := models.ParseJobType(jt); ok {
			jt = string(parsed)
		}
		add("j.job_type = $%d", jt)
	}
	if q.Target != "" {
		add("j.target ILIKE $%d", "%"+q.Target+"%")
	}
	if q.Location != "" {
		add("j.location ILIKE $%d", "%"+q.Location+"%")
	}
	if q.Skill != "" {
		add("EXISTS (SELECT 1 FROM job_skills s WHERE s.job_key = j.key AND s.skill ILIKE $%d)", q.Skill)
	}

	var b strings.Builder
	b.WriteString(`SELECT j.company, j.company_type, j.location, j.recruitment_type, j.target, j.position,
		j.update_time, j.deadline, j.links, j.notice, j.referral, j.notes, j.job_type, j.crawl_time
	FROM jobs j`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY j.crawl_time DESC NULLS LAST")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func (r *Repository) QueryJobs(ctx context.Context, q JobQuery) ([]models.Record, error) {
	sql, args := buildJobQuery(q)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var (
			rec     models.Record
			jobType string
			crawl   *time.Time
		)
		if err := rows.Scan(&rec.Company, &rec.CompanyType, &rec.Location, &rec.RecruitmentType,
			&rec.Target, &rec.Position, &rec.UpdateTime, &rec.Deadline, &rec.Links, &rec.Notice,
			&rec.Referral, &rec.Notes, &jobType, &crawl); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		rec.JobType = models.JobType(jobType)
		if crawl != nil {
			rec.CrawlTime = *crawl
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CleanExpired deletes rows crawled more than days ago, except open-ended ones.
func (r *Repository) CleanExpired(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be positive, got %d", days)
	}
	tag, err := r.db.Exec(ctx, cleanExpiredSQL, models.DeadlineUntilFilled, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired jobs: %w", err)
	}
	r.logger.Info("🧹 expired jobs removed", zap.Int64("rows", tag.RowsAffected()), zap.Int("older_than_days", days))
	return tag.RowsAffected(), nil
}

const cleanExpiredSQL = `DELETE FROM jobs WHERE deadline <> $1 AND crawl_time < $2`
