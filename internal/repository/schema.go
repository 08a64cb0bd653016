package repository

// Foreign keys on client_id are not enforced in either dialect (SQLite leaves
// the pragma off, PostgreSQL declares none): deleting a client leaves its
// readings and bills in place, and a reading may name any client id.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		meter_no TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL,
		phone TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		reading REAL NOT NULL,
		FOREIGN KEY(client_id) REFERENCES clients(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_client_date ON readings(client_id, date)`,
	`CREATE TABLE IF NOT EXISTS bills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		units REAL NOT NULL,
		amount REAL NOT NULL,
		status TEXT NOT NULL,
		FOREIGN KEY(client_id) REFERENCES clients(id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		meter_no TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL,
		phone TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL,
		date DATE NOT NULL,
		reading DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_client_date ON readings(client_id, date)`,
	`CREATE TABLE IF NOT EXISTS bills (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		units DOUBLE PRECISION NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL
	)`,
}
