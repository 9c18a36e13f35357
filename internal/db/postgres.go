package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitness-coach/internal/backend"
	"fitness-coach/internal/models"
	"fitness-coach/internal/plan"
)

const service = "postgres"

type Config struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(cfg Config) (*PostgresDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	// Set connection pool parameters
	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	// Connect with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection works
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	return classify(db.pool.Ping(ctx))
}

// EnsureSchema creates the tables used by the bot when they are missing.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", classify(err))
		}
	}
	return nil
}

func (db *PostgresDB) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	query := `
        INSERT INTO surveys (user_id, name, email, age, height_cm, weight_kg, bmi, bmi_category,
            activity_frequency, available_hours, gym_equipment, goals, injuries,
            current_pushups, current_dips, current_pullups)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (user_id) DO UPDATE
        SET name = $2, email = $3, age = $4, height_cm = $5, weight_kg = $6, bmi = $7,
            bmi_category = $8, activity_frequency = $9, available_hours = $10, gym_equipment = $11,
            goals = $12, injuries = $13, current_pushups = $14, current_dips = $15,
            current_pullups = $16, updated_at = NOW()
        RETURNING created_at, updated_at
    `

	p.UpdateBMI()
	err := db.pool.QueryRow(ctx, query,
		p.UserID, p.Name, p.Email, p.Age, p.HeightCm, p.WeightKg, p.BMI, p.BMICategory,
		p.ActivityFrequency, p.AvailableHours, p.GymEquipment, p.Goals, p.Injuries,
		p.CurrentPushups, p.CurrentDips, p.CurrentPullups,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	return classify(err)
}

// FetchProfile returns nil without an error when the user has not filled in
// the survey.
func (db *PostgresDB) FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	id, err := numericID(userID)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT user_id, name, email, age, height_cm, weight_kg, bmi, bmi_category,
            activity_frequency, available_hours, gym_equipment, goals, injuries,
            current_pushups, current_dips, current_pullups, created_at, updated_at
        FROM surveys
        WHERE user_id = $1
    `

	var p models.UserProfile
	err = db.pool.QueryRow(ctx, query, id).Scan(
		&p.UserID, &p.Name, &p.Email, &p.Age, &p.HeightCm, &p.WeightKg, &p.BMI, &p.BMICategory,
		&p.ActivityFrequency, &p.AvailableHours, &p.GymEquipment, &p.Goals, &p.Injuries,
		&p.CurrentPushups, &p.CurrentDips, &p.CurrentPullups, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

// FetchPlan returns the newest plan row as a storage document, or nil when
// the user has none.
func (db *PostgresDB) FetchPlan(ctx context.Context, userID string) ([]byte, error) {
	id, err := numericID(userID)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT user_id, plan_name, goal, duration_weeks, overall_notes, workout_days
        FROM workout_plans
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `

	var rec plan.Record
	var days []byte
	err = db.pool.QueryRow(ctx, query, id).Scan(
		&rec.UserID, &rec.PlanName, &rec.Goal, &rec.DurationWeeks, &rec.OverallNotes, &days,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	rec.WorkoutDays = json.RawMessage(days)

	return json.Marshal(rec)
}

func (db *PostgresDB) SavePlan(ctx context.Context, rec *plan.Record) error {
	query := `
        INSERT INTO workout_plans (user_id, plan_name, goal, duration_weeks, overall_notes, workout_days)
        VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err := db.pool.Exec(ctx, query,
		rec.UserID, rec.PlanName, rec.Goal, rec.DurationWeeks, rec.OverallNotes, []byte(rec.WorkoutDays),
	)
	return classify(err)
}

// FetchProgress returns the user's progress rows, oldest first, as a JSON array.
func (db *PostgresDB) FetchProgress(ctx context.Context, userID string) ([]byte, error) {
	id, err := numericID(userID)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, day, day_index, exercise_name, completed, completed_at
        FROM exercise_progress
        WHERE user_id = $1
        ORDER BY created_at, id
    `

	rows, err := db.pool.Query(ctx, query, id)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	events := make([]models.ProgressEvent, 0)
	for rows.Next() {
		ev := models.ProgressEvent{UserID: userID}
		var dayIndex *int32
		if err := rows.Scan(&ev.ID, &ev.Day, &dayIndex, &ev.ExerciseName, &ev.Completed, &ev.CompletedAt); err != nil {
			return nil, classify(err)
		}
		if dayIndex != nil {
			i := int(*dayIndex)
			ev.DayIndex = &i
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return json.Marshal(events)
}

func (db *PostgresDB) AppendProgressEvent(ctx context.Context, ev models.ProgressEvent) error {
	id, err := numericID(ev.UserID)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO exercise_progress (user_id, day, day_index, exercise_name, completed, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err = db.pool.Exec(ctx, query, id, ev.Day, ev.DayIndex, ev.ExerciseName, ev.Completed, ev.CompletedAt)
	return classify(err)
}

func numericID(userID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(userID), 10, 64)
	if err != nil {
		return 0, &plan.InvalidUserIDError{UserID: userID}
	}
	return id, nil
}

// classify maps server-side failures to BackendError and everything else to
// a transport error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &backend.BackendError{Service: service, Message: pgErr.Code + ": " + pgErr.Message}
	}
	return backend.Transport(service, err)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS surveys (
        user_id            BIGINT PRIMARY KEY,
        name               TEXT NOT NULL DEFAULT '',
        email              TEXT NOT NULL DEFAULT '',
        age                INTEGER NOT NULL DEFAULT 0,
        height_cm          DOUBLE PRECISION NOT NULL DEFAULT 0,
        weight_kg          DOUBLE PRECISION NOT NULL DEFAULT 0,
        bmi                DOUBLE PRECISION NOT NULL DEFAULT 0,
        bmi_category       TEXT NOT NULL DEFAULT '',
        activity_frequency TEXT NOT NULL DEFAULT '',
        available_hours    DOUBLE PRECISION NOT NULL DEFAULT 0,
        gym_equipment      BOOLEAN NOT NULL DEFAULT FALSE,
        goals              TEXT NOT NULL DEFAULT '',
        injuries           TEXT NOT NULL DEFAULT '',
        current_pushups    INTEGER NOT NULL DEFAULT 0,
        current_dips       INTEGER NOT NULL DEFAULT 0,
        current_pullups    INTEGER NOT NULL DEFAULT 0,
        created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS workout_plans (
        id             BIGSERIAL PRIMARY KEY,
        user_id        BIGINT NOT NULL,
        plan_name      TEXT NOT NULL,
        goal           TEXT NOT NULL DEFAULT '',
        duration_weeks INTEGER NOT NULL DEFAULT 4,
        overall_notes  TEXT NOT NULL DEFAULT '',
        workout_days   JSONB NOT NULL,
        created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS workout_plans_user_created_idx ON workout_plans (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS exercise_progress (
        id            BIGSERIAL PRIMARY KEY,
        user_id       BIGINT NOT NULL,
        day           TEXT NOT NULL,
        day_index     INTEGER,
        exercise_name TEXT NOT NULL,
        completed     BOOLEAN NOT NULL,
        completed_at  TIMESTAMPTZ,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS exercise_progress_user_idx ON exercise_progress (user_id, created_at)`,
}
