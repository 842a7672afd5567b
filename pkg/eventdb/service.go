// EventDB is the operational journal for the weather station: mode
// transitions, device faults, forced stops and log rotations land here so
// they can be inspected after the fact without grepping console output.
// Reading data never goes in this database; the daily CSV files are the
// record of measurements.
package eventdb

import (
	"database/sql"
	"embed"
	"sync"

	"github.com/NotCoffee418/dbmigrator"

	_ "modernc.org/sqlite"
)

var (
	mu sync.Mutex
	db *sql.DB
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Initialize must be called manually on startup. Until it succeeds the
// journal is disabled and inserts are dropped.
func Initialize(path string) error {
	mu.Lock()
	defer mu.Unlock()

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	if err = conn.Ping(); err != nil {
		conn.Close()
		return err
	}

	// Apply migrations
	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		conn,
		migrationFS,
		"migrations",
	)

	db = conn
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

func getDB() *sql.DB {
	mu.Lock()
	defer mu.Unlock()
	return db
}
