package db

import (
	"database/sql"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var DB *sql.DB

func ConnectDB() {
	var err error
	dsn := os.Getenv("DSN")
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("DB connection error")
	}

	userTable := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL
	);`

	notesTable := `
	CREATE TABLE IF NOT EXISTS notes (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(200) NOT NULL,
		content TEXT NOT NULL,
		pinned BOOLEAN NOT NULL DEFAULT FALSE,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	if _, err = DB.Exec(userTable); err != nil {
		log.Fatal().Err(err).Msg("Error creating users table")
	}
	if _, err = DB.Exec(notesTable); err != nil {
		log.Fatal().Err(err).Msg("Error creating notes table")
	}
}

// BootstrapAdmin guarantees exactly one superuser row with username "admin".
// The password comes from ADMIN_PASSWORD and only applies on first creation.
func BootstrapAdmin() {
	var id int
	err := DB.QueryRow("SELECT id FROM users WHERE username = ?", "admin").Scan(&id)
	if err == nil {
		// Row exists; make sure the flag survived whatever happened before.
		if _, err := DB.Exec("UPDATE users SET is_superuser = TRUE WHERE id = ?", id); err != nil {
			log.Fatal().Err(err).Msg("Error promoting admin user")
		}
		return
	}
	if err != sql.ErrNoRows {
		log.Fatal().Err(err).Msg("Error looking up admin user")
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Error hashing admin password")
	}
	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	_, err = DB.Exec(
		"INSERT INTO users (username, password_hash, is_superuser, created_at) VALUES (?, ?, TRUE, ?)",
		"admin", hash, now,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating admin user")
	}
	log.Info().Msg("Bootstrapped admin superuser")
}
