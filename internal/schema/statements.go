package schema

// Table definitions per backend. Timestamps are stored as fixed-width UTC
// text on both backends (see utils.TimestampLayout).

var postgresTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(255) PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		provider VARCHAR(50) NOT NULL,
		phone VARCHAR(50),
		tax_id VARCHAR(50),
		filing_status VARCHAR(50),
		agi DOUBLE PRECISION,
		marginal_tax_rate DOUBLE PRECISION,
		itemize_deductions BOOLEAN,
		updated_at VARCHAR(32) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS charities (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		name VARCHAR(512) NOT NULL,
		ein VARCHAR(20),
		category VARCHAR(255),
		status VARCHAR(255),
		classification VARCHAR(255),
		nonprofit_type VARCHAR(255),
		deductibility VARCHAR(255),
		street VARCHAR(255),
		city VARCHAR(255),
		state VARCHAR(64),
		zip VARCHAR(20),
		created_at VARCHAR(32) NOT NULL,
		updated_at VARCHAR(32) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS donations (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		year INTEGER NOT NULL,
		date VARCHAR(10) NOT NULL,
		category VARCHAR(20),
		amount DOUBLE PRECISION,
		charity_id VARCHAR(64) NOT NULL,
		notes TEXT,
		created_at VARCHAR(32) NOT NULL,
		updated_at VARCHAR(32) NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (` + postgresReceiptColumns + `)`,
	`CREATE TABLE IF NOT EXISTS audit_revisions (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(255),
		table_name VARCHAR(64) NOT NULL,
		record_id VARCHAR(64) NOT NULL,
		operation VARCHAR(10) NOT NULL,
		old_values TEXT,
		new_values TEXT,
		created_at VARCHAR(32) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		action VARCHAR(64) NOT NULL,
		table_name VARCHAR(64) NOT NULL,
		record_id VARCHAR(64),
		details TEXT,
		created_at VARCHAR(32) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS valuations (
		name VARCHAR(255) PRIMARY KEY,
		min_value DOUBLE PRECISION NOT NULL,
		max_value DOUBLE PRECISION NOT NULL
	)`,
}

const postgresReceiptColumns = `
		id VARCHAR(64) PRIMARY KEY,
		donation_id VARCHAR(64) NOT NULL REFERENCES donations(id),
		key VARCHAR(1024) NOT NULL,
		file_name VARCHAR(512),
		content_type VARCHAR(255),
		size BIGINT,
		ocr_text TEXT,
		ocr_date VARCHAR(10),
		ocr_amount BIGINT,
		ocr_status VARCHAR(32),
		created_at VARCHAR(32) NOT NULL
	`

var sqliteTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL,
		provider TEXT NOT NULL,
		phone TEXT,
		tax_id TEXT,
		filing_status TEXT,
		agi REAL,
		marginal_tax_rate REAL,
		itemize_deductions BOOLEAN,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS charities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		ein TEXT,
		category TEXT,
		status TEXT,
		classification TEXT,
		nonprofit_type TEXT,
		deductibility TEXT,
		street TEXT,
		city TEXT,
		state TEXT,
		zip TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS donations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		date TEXT NOT NULL,
		category TEXT,
		amount REAL,
		charity_id TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (` + sqliteReceiptColumns + `)`,
	`CREATE TABLE IF NOT EXISTS audit_revisions (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		table_name TEXT NOT NULL,
		record_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		old_values TEXT,
		new_values TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		table_name TEXT NOT NULL,
		record_id TEXT,
		details TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS valuations (
		name TEXT PRIMARY KEY,
		min_value REAL NOT NULL,
		max_value REAL NOT NULL
	)`,
}

const sqliteReceiptColumns = `
		id TEXT PRIMARY KEY,
		donation_id TEXT NOT NULL REFERENCES donations(id),
		key TEXT NOT NULL,
		file_name TEXT,
		content_type TEXT,
		size INTEGER,
		ocr_text TEXT,
		ocr_date TEXT,
		ocr_amount INTEGER,
		ocr_status TEXT,
		created_at TEXT NOT NULL
	`

// Indexes are identical on both backends.
var indexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_charities_user_lower_name ON charities (user_id, LOWER(name))",
	"CREATE INDEX IF NOT EXISTS idx_charities_user_ein ON charities (user_id, ein)",
	"CREATE INDEX IF NOT EXISTS idx_donations_user_year ON donations (user_id, year)",
	"CREATE INDEX IF NOT EXISTS idx_donations_user_changed ON donations (user_id, updated_at, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_donations_charity ON donations (charity_id)",
	"CREATE INDEX IF NOT EXISTS idx_audit_revisions_record ON audit_revisions (table_name, record_id, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_created ON audit_logs (user_id, created_at)",
}

var receiptIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_receipts_donation_key ON receipts (donation_id, key)",
}

// column is a late addition that older databases may lack.
type column struct {
	table      string
	name       string
	postgresTy string
	sqliteTy   string
}

var lateColumns = []column{
	{"users", "phone", "VARCHAR(50)", "TEXT"},
	{"users", "tax_id", "VARCHAR(50)", "TEXT"},
	{"users", "filing_status", "VARCHAR(50)", "TEXT"},
	{"users", "agi", "DOUBLE PRECISION", "REAL"},
	{"users", "marginal_tax_rate", "DOUBLE PRECISION", "REAL"},
	{"users", "itemize_deductions", "BOOLEAN", "BOOLEAN"},
	{"charities", "category", "VARCHAR(255)", "TEXT"},
	{"charities", "status", "VARCHAR(255)", "TEXT"},
	{"charities", "classification", "VARCHAR(255)", "TEXT"},
	{"charities", "nonprofit_type", "VARCHAR(255)", "TEXT"},
	{"charities", "deductibility", "VARCHAR(255)", "TEXT"},
	{"charities", "street", "VARCHAR(255)", "TEXT"},
	{"charities", "city", "VARCHAR(255)", "TEXT"},
	{"charities", "state", "VARCHAR(64)", "TEXT"},
	{"charities", "zip", "VARCHAR(20)", "TEXT"},
	{"donations", "category", "VARCHAR(20)", "TEXT"},
	{"receipts", "ocr_text", "TEXT", "TEXT"},
	{"receipts", "ocr_date", "VARCHAR(10)", "TEXT"},
	{"receipts", "ocr_amount", "BIGINT", "INTEGER"},
	{"receipts", "ocr_status", "VARCHAR(32)", "TEXT"},
}

// receiptColumns is the current receipts shape, in table order.
var receiptColumns = []string{
	"id", "donation_id", "key", "file_name", "content_type", "size",
	"ocr_text", "ocr_date", "ocr_amount", "ocr_status", "created_at",
}
