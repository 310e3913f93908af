package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/dealfolio/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateDealsTable()
	migrateExpensesTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		auth_provider TEXT DEFAULT 'local',
		is_email_verified BOOLEAN DEFAULT FALSE,
		email_verification_token TEXT,
		email_verification_token_expires_at TIMESTAMP,
		password_reset_token TEXT,
		password_reset_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS commission_profiles (
		user_id INTEGER PRIMARY KEY,
		commission_mode TEXT NOT NULL DEFAULT 'percentage',
		commission_percent REAL NOT NULL DEFAULT 0,
		fixed_commission_amount REAL NOT NULL DEFAULT 0,
		company_split_percent REAL NOT NULL DEFAULT 0,
		company_split_cap REAL NOT NULL DEFAULT 0,
		royalty_percent REAL NOT NULL DEFAULT 0,
		royalty_cap REAL NOT NULL DEFAULT 0,
		estimated_tax_percent REAL NOT NULL DEFAULT 0,
		commission_year_start TEXT NOT NULL DEFAULT '01-01',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS deals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		close_date TEXT NOT NULL,
		address TEXT,
		client TEXT,
		notes TEXT,
		total_deal_amount REAL NOT NULL DEFAULT 0,
		commission_percent_override REAL,
		referral_fee REAL NOT NULL DEFAULT 0,
		transaction_fee REAL NOT NULL DEFAULT 0,
		agent_commission REAL NOT NULL DEFAULT 0,
		company_split REAL NOT NULL DEFAULT 0,
		royalty_used REAL NOT NULL DEFAULT 0,
		gross_income REAL NOT NULL DEFAULT 0,
		estimated_taxes REAL NOT NULL DEFAULT 0,
		net_income REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		category TEXT,
		description TEXT,
		amount REAL NOT NULL DEFAULT 0,
		deductible BOOLEAN DEFAULT TRUE,
		receipt_path TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS mileage_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		from_address TEXT,
		to_address TEXT,
		purpose TEXT,
		distance_miles REAL NOT NULL DEFAULT 0,
		distance_looked_up BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		user_id INTEGER PRIMARY KEY,
		stripe_customer_id TEXT,
		stripe_subscription_id TEXT,
		status TEXT NOT NULL DEFAULT 'none',
		current_period_end TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_deals_user_close_date ON deals(user_id, close_date);
	CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date);
	CREATE INDEX IF NOT EXISTS idx_mileage_user_date ON mileage_entries(user_id, date);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func tableColumns(tableName string) (map[string]bool, bool) {
	var name string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", tableName).Scan(&name)
	if err != nil {
		if err != sql.ErrNoRows && logger.L != nil {
			logger.L.Error("Error checking for table", "table", tableName, "error", err)
		}
		return nil, false
	}

	rows, err := DB.Query("PRAGMA table_info(" + tableName + ")")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema", "table", tableName, "error", err)
		}
		return nil, false
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var colName, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &colName, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "table", tableName, "error", err)
			}
			return nil, false
		}
		columnExists[colName] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "table", tableName, "error", err)
		}
		return nil, false
	}
	return columnExists, true
}

func addColumn(tableName, columnDef, columnName string) {
	_, err := DB.Exec("ALTER TABLE " + tableName + " ADD COLUMN " + columnDef)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error adding column", "table", tableName, "column", columnName, "error", err)
		} else {
			stdlog.Printf("Error adding column %s to %s: %v", columnName, tableName, err)
		}
		return
	}
	if logger.L != nil {
		logger.L.Info("Added column", "table", tableName, "column", columnName)
	} else {
		stdlog.Printf("Added column %s to %s", columnName, tableName)
	}
}

// migrateDealsTable backfills columns added after the initial deals schema.
func migrateDealsTable() {
	columnExists, ok := tableColumns("deals")
	if !ok {
		return
	}
	if !columnExists["commission_percent_override"] {
		addColumn("deals", "commission_percent_override REAL", "commission_percent_override")
	}
	if !columnExists["notes"] {
		addColumn("deals", "notes TEXT", "notes")
	}
	if !columnExists["referral_fee"] {
		addColumn("deals", "referral_fee REAL NOT NULL DEFAULT 0", "referral_fee")
	}
	if !columnExists["transaction_fee"] {
		addColumn("deals", "transaction_fee REAL NOT NULL DEFAULT 0", "transaction_fee")
	}
}

// migrateExpensesTable backfills the receipt_path column for installs that
// predate receipt uploads.
func migrateExpensesTable() {
	columnExists, ok := tableColumns("expenses")
	if !ok {
		return
	}
	if !columnExists["receipt_path"] {
		addColumn("expenses", "receipt_path TEXT", "receipt_path")
	}
	if !columnExists["deductible"] {
		addColumn("expenses", "deductible BOOLEAN DEFAULT TRUE", "deductible")
	}
}
