package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog if DB is empty (assets only; everything else is
	// created by the desk at runtime)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure back-office users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates all tables. Exported so tests can run it against an
// in-memory database.
func EnsureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Canonical assets (read-only catalog)
CREATE TABLE IF NOT EXISTS assets(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  grade TEXT NOT NULL DEFAULT '',
  cert_number TEXT NOT NULL DEFAULT '',
  image_ref TEXT NOT NULL DEFAULT '',
  series_key TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_assets_series ON assets(series_key);

-- Buying-desk sessions
CREATE TABLE IF NOT EXISTS buy_sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  seq_number TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open','closed')),
  event_ref TEXT NOT NULL DEFAULT '',
  seller_name TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_buy_sessions_user ON buy_sessions(user_id);

CREATE TABLE IF NOT EXISTS buy_session_lines(
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES buy_sessions(id) ON DELETE CASCADE,
  asset_id TEXT NOT NULL,
  offer_price NUMERIC NOT NULL CHECK (offer_price >= 0),
  note TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_session_lines_session ON buy_session_lines(session_id);

-- Ownership
CREATE TABLE IF NOT EXISTS holdings(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  asset_id TEXT NOT NULL,
  purchase_price NUMERIC NOT NULL,
  acquired_on TEXT NOT NULL,
  source TEXT NOT NULL,
  session_id TEXT NOT NULL DEFAULT '',
  market_value NUMERIC NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_holdings_user_asset ON holdings(user_id, asset_id);

-- Per-user transaction containers; the deterministic name keeps repeated
-- checkouts from proliferating containers
CREATE TABLE IF NOT EXISTS txn_containers(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(user_id, name)
);

CREATE TABLE IF NOT EXISTS purchase_txns(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  container_id TEXT NOT NULL REFERENCES txn_containers(id),
  session_id TEXT NOT NULL DEFAULT '',
  holding_id TEXT NOT NULL,
  asset_id TEXT NOT NULL,
  price NUMERIC NOT NULL,
  payment_method TEXT NOT NULL,
  counterparty TEXT NOT NULL DEFAULT '',
  market_value NUMERIC NOT NULL DEFAULT 0,
  note TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_purchase_txns_holding ON purchase_txns(holding_id);
CREATE INDEX IF NOT EXISTS idx_purchase_txns_user_asset ON purchase_txns(user_id, asset_id);

-- Consignment inventory
CREATE TABLE IF NOT EXISTS consignment_assets(
  id TEXT PRIMARY KEY,
  container_id TEXT NOT NULL,
  title TEXT NOT NULL,
  grade TEXT NOT NULL DEFAULT '',
  cert_number TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
  reserve NUMERIC NOT NULL DEFAULT 0 CHECK (reserve >= 0),
  split_percent NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'draft'
    CHECK (status IN ('draft','active','on_hold','sold','returned')),
  listed_at TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_consignment_assets_container ON consignment_assets(container_id);

-- Outbox for fire-and-forget side effects (sale-history append, refresh jobs)
CREATE TABLE IF NOT EXISTS outbox(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  sent_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

-- Back-office users & cookie sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM assets`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo assets")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO assets(id,title,grade,cert_number,image_ref,series_key) VALUES
	  ('psa-char-001','1999 Charizard Holo #4','PSA 9','45120881','assets/psa-char-001/main.jpg','pokemon-base-charizard'),
	  ('psa-blast-002','1999 Blastoise Holo #2','PSA 8','45120902','assets/psa-blast-002/main.jpg','pokemon-base-blastoise'),
	  ('bgs-jordan-003','1986 Fleer Michael Jordan #57','BGS 8.5','0012677341','assets/bgs-jordan-003/main.jpg','fleer-86-jordan'),
	  ('cgc-spawn-004','Spawn #1 (1992)','CGC 9.8','3972110005','assets/cgc-spawn-004/main.jpg','image-spawn-1')`)

	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-dana", "dana@gradedesk.test", "Dana", "USER", "Passw0rd!"),
		mk("u-miles", "miles@gradedesk.test", "Miles", "USER", "Passw0rd!"),
		mk("u-admin", "admin@gradedesk.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
