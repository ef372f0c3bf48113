// ABOUTME: SQLite schema for daily metric scores and health aggregates.
// ABOUTME: Both tables are append/upsert-only from the engine's perspective.
package store

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS daily_metric_scores (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		value REAL NOT NULL,
		points INTEGER NOT NULL DEFAULT 0,
		goal REAL NOT NULL DEFAULT 0,
		goal_reached INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		UNIQUE(user_id, date, metric_type)
	);

	CREATE TABLE IF NOT EXISTS health_metrics (
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		steps REAL,
		distance REAL,
		calories REAL,
		heart_rate REAL,
		exercise REAL,
		basal_calories REAL,
		flights_climbed REAL,
		daily_score INTEGER NOT NULL DEFAULT 0,
		weekly_score INTEGER NOT NULL DEFAULT 0,
		streak_days INTEGER NOT NULL DEFAULT 0,
		last_updated DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_scores_user_date ON daily_metric_scores(user_id, date);
	CREATE INDEX IF NOT EXISTS idx_scores_updated ON daily_metric_scores(updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_metrics_user_date ON health_metrics(user_id, date);
	`

	_, err := d.db.Exec(schema)
	return err
}
