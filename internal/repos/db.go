package repos

import (
	"log"

	"github.com/google/uuid"
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

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed sample listings if the table is empty (idempotent; safe on every start)
	if err := seedSampleProperties(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Commercial building lead records (the product)
CREATE TABLE IF NOT EXISTS properties(
  id TEXT PRIMARY KEY,
  property_name TEXT NOT NULL,
  address TEXT NOT NULL,
  city TEXT NOT NULL,
  zip_code TEXT NOT NULL,
  building_age INTEGER NOT NULL CHECK (building_age >= 0),
  year_built INTEGER NOT NULL,
  square_footage INTEGER NOT NULL CHECK (square_footage >= 0),
  property_type TEXT NOT NULL,
  owner_name TEXT NOT NULL,
  management_company TEXT NOT NULL DEFAULT '',
  owner_phone TEXT NOT NULL,
  owner_email TEXT NOT NULL DEFAULT '',
  last_permit_date TEXT NOT NULL,
  warranty_expiration TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  is_sample INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_properties_sample     ON properties(is_sample);
CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at);

-- Database copy purchases
CREATE TABLE IF NOT EXISTS purchases(
  id TEXT PRIMARY KEY,
  buyer_name TEXT NOT NULL,
  buyer_email TEXT NOT NULL,
  buyer_company TEXT NOT NULL,
  buyer_phone TEXT NOT NULL,
  amount_cents INTEGER NOT NULL DEFAULT 0,
  stripe_session_id TEXT NOT NULL DEFAULT '',
  stripe_payment_intent_id TEXT NOT NULL DEFAULT '',
  payment_status TEXT NOT NULL DEFAULT 'pending'
    CHECK (payment_status IN ('pending','completed','failed')),
  download_url TEXT NOT NULL DEFAULT '',
  delivered_at TEXT NOT NULL DEFAULT '',
  can_repurchase_after TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_purchases_session
  ON purchases(stripe_session_id) WHERE stripe_session_id != '';
CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(payment_status);

-- Lead capture
CREATE TABLE IF NOT EXISTS free_lead_requests(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  company TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','sent')),
  lead_sent_at TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS waitlist_signups(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  company TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','sent')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Landing-page sample views (scarcity/traffic stats)
CREATE TABLE IF NOT EXISTS sample_views(
  id TEXT PRIMARY KEY,
  ip_address TEXT NOT NULL DEFAULT '',
  viewed_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Admin users & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// SeedAdmin ensures the configured admin account exists (idempotent).
// An empty password skips seeding so production never gets a default login.
func SeedAdmin(db *sqlx.DB, email, password string) error {
	if email == "" || password == "" {
		log.Println("[seed] no admin credentials configured, skipping admin seed")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role)
		VALUES(?,?,?,?,'ADMIN')
		ON CONFLICT(email) DO NOTHING
	`, uuid.NewString(), email, "Admin", string(hash))
	return err
}

// seedSampleProperties inserts the public trust-building preview records when
// the properties table is empty.
func seedSampleProperties(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM properties`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting sample property records")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO properties(
	    id, property_name, address, city, zip_code, building_age, year_built,
	    square_footage, property_type, owner_name, management_company,
	    owner_phone, owner_email, last_permit_date, warranty_expiration, notes, is_sample)
	  VALUES
	  ('prop-sample-1','Lakeview Business Plaza','2200 Lakeview Dr','Orlando','32803',21,2004,
	   48000,'Office','Sample Owner','','(407) 555-0101','','2005-03-01','2025-03-01',
	   'Flat TPO roof, visible ponding on aerials',1),
	  ('prop-sample-2','Colonial Retail Center','815 E Colonial Dr','Orlando','32801',19,2006,
	   62500,'Retail','Sample Owner','Sample Mgmt Co','(407) 555-0102','','2006-08-15','2026-08-15',
	   'Multi-tenant strip, original roof',1),
	  ('prop-sample-3','Orange Ave Warehouse','4410 S Orange Ave','Orlando','32806',24,2001,
	   110000,'Industrial','Sample Owner','','(407) 555-0103','','2003-11-20','2023-11-20',
	   'Warranty already expired',1)`)

	return tx.Commit()
}
