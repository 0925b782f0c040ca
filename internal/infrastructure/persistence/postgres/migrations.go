package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Migration is a single schema migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies embedded migrations in order.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator with all embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
	}
}

// Up applies all pending migrations. Each migration runs in its own
// transaction together with its version bookkeeping row.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		mig := mig
		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("migration %03d (%s): %w", mig.Version, mig.Name, err)
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, NOW())`,
				mig.Version, mig.Name,
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) ensureMigrationTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, err
		}
		applied[version] = at
	}
	return applied, rows.Err()
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_learners", UpSQL: migration001Up},
		{Version: 2, Name: "create_curriculum", UpSQL: migration002Up},
		{Version: 3, Name: "create_progress_and_balances", UpSQL: migration003Up},
		{Version: 4, Name: "create_achievements", UpSQL: migration004Up},
		{Version: 5, Name: "create_reward_requests", UpSQL: migration005Up},
		{Version: 6, Name: "create_submissions", UpSQL: migration006Up},
		{Version: 7, Name: "seed_catalog", UpSQL: migration007Up},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: LEARNERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS learners (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'student',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('student', 'professor'))
);

CREATE INDEX IF NOT EXISTS idx_learners_email ON learners(email);
CREATE INDEX IF NOT EXISTS idx_learners_role ON learners(role);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: TRAILS & MODULES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS trails (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(150) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS modules (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    trail_id UUID NOT NULL REFERENCES trails(id) ON DELETE CASCADE,
    title VARCHAR(150) NOT NULL,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp_reward CHECK (xp_reward >= 0)
);

CREATE INDEX IF NOT EXISTS idx_modules_trail_id ON modules(trail_id, position);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: MODULE PROGRESS & BALANCES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS user_balances (
    user_id UUID PRIMARY KEY REFERENCES learners(id) ON DELETE CASCADE,
    total_xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    streak_days INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_total_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1)
);

CREATE TABLE IF NOT EXISTS module_progress (
    user_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    module_id UUID NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
    xp_earned INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP WITH TIME ZONE,

    PRIMARY KEY (user_id, module_id),
    CONSTRAINT valid_status CHECK (status IN ('not_started', 'in_progress', 'completed')),
    CONSTRAINT completed_has_timestamp CHECK (
        (status = 'completed') = (completed_at IS NOT NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_module_progress_user ON module_progress(user_id, status);
CREATE INDEX IF NOT EXISTS idx_module_progress_module ON module_progress(module_id);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS achievements (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(150) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    type VARCHAR(20) NOT NULL,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    requirement INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_type CHECK (type IN ('module', 'trail', 'level', 'submission'))
);

CREATE TABLE IF NOT EXISTS achievement_grants (
    user_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    achievement_id UUID NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_achievement_grants_user ON achievement_grants(user_id, earned_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: REWARD REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
CREATE TABLE IF NOT EXISTS reward_requests (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    reward_type VARCHAR(30) NOT NULL,
    points_cost INTEGER NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    professor_id UUID REFERENCES learners(id),
    professor_response TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    resolved_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_status CHECK (status IN ('pending', 'approved', 'rejected')),
    CONSTRAINT valid_cost CHECK (points_cost > 0),
    CONSTRAINT resolved_has_professor CHECK (
        status = 'pending' OR professor_id IS NOT NULL
    )
);

CREATE INDEX IF NOT EXISTS idx_reward_requests_pending ON reward_requests(created_at) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_reward_requests_student ON reward_requests(student_id, created_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 006: SUBMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration006Up = `
CREATE TABLE IF NOT EXISTS submissions (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    module_id UUID NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    artifact_name VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    reviewed_by UUID REFERENCES learners(id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    reviewed_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_status CHECK (status IN ('pending', 'approved', 'rejected'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_submissions_approved ON submissions(user_id) WHERE status = 'approved';
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 007: SEED CATALOG
// Trails, modules, and the achievement catalog referenced by the engine's
// predicate titles. Safe to re-run: inserts skip on conflict.
// ══════════════════════════════════════════════════════════════════════════════

const migration007Up = `
INSERT INTO trails (id, title, description, position) VALUES
    ('11111111-1111-1111-1111-111111111101', 'Lógica de Programação', 'Fundamentos de lógica e algoritmos.', 1),
    ('11111111-1111-1111-1111-111111111102', 'Desenvolvimento Web', 'Do HTML ao backend.', 2)
ON CONFLICT DO NOTHING;

INSERT INTO modules (id, trail_id, title, xp_reward, position) VALUES
    ('22222222-2222-2222-2222-222222222201', '11111111-1111-1111-1111-111111111101', 'Variáveis e Tipos', 150, 1),
    ('22222222-2222-2222-2222-222222222202', '11111111-1111-1111-1111-111111111101', 'Estruturas de Controle', 200, 2),
    ('22222222-2222-2222-2222-222222222203', '11111111-1111-1111-1111-111111111101', 'Funções', 250, 3),
    ('22222222-2222-2222-2222-222222222204', '11111111-1111-1111-1111-111111111102', 'HTML e CSS', 150, 1),
    ('22222222-2222-2222-2222-222222222205', '11111111-1111-1111-1111-111111111102', 'JavaScript Básico', 300, 2),
    ('22222222-2222-2222-2222-222222222206', '11111111-1111-1111-1111-111111111102', 'APIs e Backend', 400, 3)
ON CONFLICT DO NOTHING;

INSERT INTO achievements (title, description, type, xp_reward, requirement) VALUES
    ('Primeiro Passo', 'Conclua seu primeiro módulo.', 'module', 50, 1),
    ('Explorador', 'Conclua cinco módulos.', 'module', 150, 5),
    ('Maratonista', 'Conclua dez módulos.', 'module', 300, 10),
    ('Trilha Completa: Lógica de Programação', 'Conclua todos os módulos da trilha de lógica.', 'trail', 200, 1),
    ('Trilha Completa: Desenvolvimento Web', 'Conclua todos os módulos da trilha web.', 'trail', 200, 1),
    ('Aprendiz Dedicado', 'Alcance o nível 2.', 'level', 100, 2),
    ('Veterano', 'Alcance o nível 5.', 'level', 250, 5),
    ('Primeira Aprovação', 'Tenha sua primeira submissão aprovada.', 'submission', 100, 1)
ON CONFLICT DO NOTHING;
`
