package store

type migration struct {
	name string
	sql  string
}

// Schema uses composite natural keys throughout: every entity hangs off a
// league_key, and within a league off the source's own team/player/stat keys.
var migrations = []migration{
	{
		name: "001_create_league",
		sql: `
		CREATE TABLE IF NOT EXISTS league (
			league_key        VARCHAR(64) PRIMARY KEY,
			season            INT NOT NULL,
			name              TEXT NOT NULL DEFAULT '',
			sport             VARCHAR(16) NOT NULL DEFAULT '',
			num_teams         INT NOT NULL DEFAULT 0,
			scoring_type      VARCHAR(32) NOT NULL DEFAULT '',
			num_scoring_stats INT NOT NULL DEFAULT 0,
			current_week      INT NOT NULL DEFAULT 0,
			start_week        INT NOT NULL DEFAULT 0,
			end_week          INT NOT NULL DEFAULT 0,
			playoff_start_week INT,
			uses_faab         BOOLEAN NOT NULL DEFAULT FALSE,
			is_finished       BOOLEAN NOT NULL DEFAULT FALSE,
			synced_at         TIMESTAMPTZ
		)`,
	},
	{
		name: "002_create_stat_category",
		sql: `
		CREATE TABLE IF NOT EXISTS stat_category (
			league_key      VARCHAR(64) NOT NULL REFERENCES league(league_key),
			stat_id         INT NOT NULL,
			name            TEXT NOT NULL DEFAULT '',
			display_name    TEXT NOT NULL DEFAULT '',
			sort_order      INT NOT NULL DEFAULT 1,
			position_type   VARCHAR(8),
			is_only_display BOOLEAN NOT NULL DEFAULT FALSE,
			is_scoring_stat BOOLEAN NOT NULL DEFAULT TRUE,
			PRIMARY KEY (league_key, stat_id)
		)`,
	},
	{
		name: "003_create_team",
		sql: `
		CREATE TABLE IF NOT EXISTS team (
			league_key      VARCHAR(64) NOT NULL REFERENCES league(league_key),
			team_key        VARCHAR(64) NOT NULL,
			team_id         INT NOT NULL,
			name            TEXT NOT NULL DEFAULT '',
			manager_guid    VARCHAR(64) NOT NULL DEFAULT '',
			manager_nickname TEXT NOT NULL DEFAULT '',
			manager_name    TEXT NOT NULL DEFAULT '',
			waiver_priority INT,
			faab_balance    INT,
			finish          INT,
			playoff_seed    INT,
			PRIMARY KEY (league_key, team_key)
		);
		CREATE INDEX IF NOT EXISTS idx_team_manager_guid ON team(manager_guid)`,
	},
	{
		name: "004_create_matchup",
		sql: `
		CREATE TABLE IF NOT EXISTS matchup (
			league_key      VARCHAR(64) NOT NULL REFERENCES league(league_key),
			week            INT NOT NULL,
			matchup_id      INT NOT NULL,
			team_key_1      VARCHAR(64) NOT NULL,
			team_key_2      VARCHAR(64) NOT NULL,
			cats_won_1      INT NOT NULL DEFAULT 0,
			cats_won_2      INT NOT NULL DEFAULT 0,
			cats_tied       INT NOT NULL DEFAULT 0,
			winner_team_key VARCHAR(64),
			is_tied         BOOLEAN NOT NULL DEFAULT FALSE,
			is_playoffs     BOOLEAN NOT NULL DEFAULT FALSE,
			is_consolation  BOOLEAN NOT NULL DEFAULT FALSE,
			week_start      VARCHAR(10) NOT NULL DEFAULT '',
			week_end        VARCHAR(10) NOT NULL DEFAULT '',
			PRIMARY KEY (league_key, week, matchup_id)
		);
		CREATE INDEX IF NOT EXISTS idx_matchup_teams ON matchup(league_key, team_key_1, team_key_2)`,
	},
	{
		name: "005_create_matchup_category",
		sql: `
		CREATE TABLE IF NOT EXISTS matchup_category (
			league_key      VARCHAR(64) NOT NULL,
			week            INT NOT NULL,
			matchup_id      INT NOT NULL,
			stat_id         INT NOT NULL,
			team_1_value    TEXT,
			team_2_value    TEXT,
			winner_team_key VARCHAR(64),
			PRIMARY KEY (league_key, week, matchup_id, stat_id)
		)`,
	},
	{
		name: "006_create_player",
		sql: `
		CREATE TABLE IF NOT EXISTS player (
			player_key        VARCHAR(64) PRIMARY KEY,
			player_id         VARCHAR(32) NOT NULL DEFAULT '',
			full_name         TEXT NOT NULL DEFAULT '',
			first_name        TEXT NOT NULL DEFAULT '',
			last_name         TEXT NOT NULL DEFAULT '',
			editorial_team    VARCHAR(16) NOT NULL DEFAULT '',
			primary_position  VARCHAR(16) NOT NULL DEFAULT '',
			eligible_positions TEXT NOT NULL DEFAULT ''
		)`,
	},
	{
		name: "007_create_weekly_roster",
		sql: `
		CREATE TABLE IF NOT EXISTS weekly_roster (
			league_key        VARCHAR(64) NOT NULL,
			week              INT NOT NULL,
			team_key          VARCHAR(64) NOT NULL,
			player_key        VARCHAR(64) NOT NULL,
			selected_position VARCHAR(16),
			is_starter        BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (league_key, week, team_key, player_key)
		);
		CREATE INDEX IF NOT EXISTS idx_roster_starters ON weekly_roster(league_key, week, is_starter)`,
	},
	{
		name: "008_create_player_weekly_stat",
		sql: `
		CREATE TABLE IF NOT EXISTS player_weekly_stat (
			league_key VARCHAR(64) NOT NULL,
			week       INT NOT NULL,
			player_key VARCHAR(64) NOT NULL,
			stat_id    INT NOT NULL,
			value      TEXT,
			PRIMARY KEY (league_key, week, player_key, stat_id)
		)`,
	},
	{
		name: "009_create_team_weekly_score",
		sql: `
		CREATE TABLE IF NOT EXISTS team_weekly_score (
			league_key VARCHAR(64) NOT NULL,
			week       INT NOT NULL,
			team_key   VARCHAR(64) NOT NULL,
			stat_id    INT NOT NULL,
			value      TEXT,
			PRIMARY KEY (league_key, week, team_key, stat_id)
		)`,
	},
	{
		name: "010_create_transactions",
		sql: `
		CREATE TABLE IF NOT EXISTS transaction_record (
			transaction_key  VARCHAR(64) PRIMARY KEY,
			league_key       VARCHAR(64) NOT NULL REFERENCES league(league_key),
			type             VARCHAR(32) NOT NULL DEFAULT '',
			status           VARCHAR(32) NOT NULL DEFAULT '',
			ts               VARCHAR(32) NOT NULL DEFAULT '',
			week             INT,
			trader_team_key  VARCHAR(64),
			tradee_team_key  VARCHAR(64),
			faab_bid         INT
		);
		CREATE INDEX IF NOT EXISTS idx_txn_league ON transaction_record(league_key);
		CREATE TABLE IF NOT EXISTS transaction_player (
			transaction_key      VARCHAR(64) NOT NULL REFERENCES transaction_record(transaction_key),
			player_key           VARCHAR(64) NOT NULL,
			source_type          VARCHAR(32) NOT NULL DEFAULT '',
			source_team_key      VARCHAR(64),
			destination_type     VARCHAR(32) NOT NULL DEFAULT '',
			destination_team_key VARCHAR(64),
			type                 VARCHAR(16) NOT NULL DEFAULT '',
			PRIMARY KEY (transaction_key, player_key)
		)`,
	},
	{
		name: "011_create_draft_pick",
		sql: `
		CREATE TABLE IF NOT EXISTS draft_pick (
			league_key VARCHAR(64) NOT NULL REFERENCES league(league_key),
			pick       INT NOT NULL,
			round      INT NOT NULL DEFAULT 0,
			team_key   VARCHAR(64) NOT NULL,
			player_key VARCHAR(64) NOT NULL,
			cost       INT,
			PRIMARY KEY (league_key, pick)
		);
		CREATE INDEX IF NOT EXISTS idx_draft_team ON draft_pick(league_key, team_key)`,
	},
	{
		name: "012_create_keeper",
		sql: `
		CREATE TABLE IF NOT EXISTS keeper (
			league_key       VARCHAR(64) NOT NULL REFERENCES league(league_key),
			team_key         VARCHAR(64) NOT NULL,
			player_key       VARCHAR(64) NOT NULL,
			player_name      TEXT NOT NULL DEFAULT '',
			season           INT NOT NULL,
			round_cost       INT NOT NULL DEFAULT 0,
			kept_from_season INT,
			PRIMARY KEY (league_key, team_key, player_key)
		)`,
	},
	{
		name: "013_create_sync_log",
		sql: `
		CREATE TABLE IF NOT EXISTS sync_log (
			league_key      VARCHAR(64) NOT NULL,
			sync_type       VARCHAR(32) NOT NULL,
			week            INT NOT NULL DEFAULT 0,
			status          VARCHAR(16) NOT NULL DEFAULT 'running',
			started_at      TIMESTAMPTZ,
			completed_at    TIMESTAMPTZ,
			records_written INT NOT NULL DEFAULT 0,
			error_message   TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (league_key, sync_type, week)
		)`,
	},
}
