package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSQLite creates the full schema in a fresh SQLite database with
// foreign key enforcement on.
func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "holonet.db") + "?_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	planner := NewPlannerWithOptions(PlannerOptions{Dialect: SQLite, IfNotExists: true})
	for _, stmt := range planner.CreateStatements(orderedTables(t)) {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

func insertID(t *testing.T, db *sql.DB, query string, args ...any) int64 {
	t.Helper()
	res, err := db.Exec(query, args...)
	require.NoError(t, err, query)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
	return n
}

func TestSQLite_CascadeDeletes(t *testing.T) {
	db := openSQLite(t)

	tatooine := insertID(t, db, `INSERT INTO planets (name) VALUES (?)`, "Tatooine")
	luke := insertID(t, db, `INSERT INTO characters (name, planet_id) VALUES (?, ?)`, "Luke", tatooine)
	insertID(t, db, `INSERT INTO characters (name, planet_id) VALUES (?, ?)`, "Owen", tatooine)

	ana := insertID(t, db, `INSERT INTO users (email, password, is_active) VALUES (?, ?, ?)`, "a@x.com", "hash", true)
	post := insertID(t, db, `INSERT INTO posts (title, content, user_id) VALUES (?, ?, ?)`, "Hi", "Body", ana)
	insertID(t, db, `INSERT INTO comments (content, post_id, user_id) VALUES (?, ?, ?)`, "Nice", post, ana)
	insertID(t, db, `INSERT INTO user_planets (user_id, planet_id) VALUES (?, ?)`, ana, tatooine)
	insertID(t, db, `INSERT INTO user_characters (user_id, character_id) VALUES (?, ?)`, ana, luke)

	_, err := db.Exec(`DELETE FROM planets WHERE id = ?`, tatooine)
	require.NoError(t, err)
	assert.Equal(t, 0, count(t, db, "characters"), "planet delete removes residents")
	assert.Equal(t, 0, count(t, db, "user_planets"), "planet delete removes favorites")
	assert.Equal(t, 0, count(t, db, "user_characters"), "resident delete removes favorites")

	_, err = db.Exec(`DELETE FROM users WHERE id = ?`, ana)
	require.NoError(t, err)
	assert.Equal(t, 0, count(t, db, "posts"), "user delete removes posts")
	assert.Equal(t, 0, count(t, db, "comments"), "user delete removes comments")
}

func TestSQLite_PostDeleteRemovesComments(t *testing.T) {
	db := openSQLite(t)

	ana := insertID(t, db, `INSERT INTO users (email, password, is_active) VALUES (?, ?, ?)`, "a@x.com", "hash", true)
	post := insertID(t, db, `INSERT INTO posts (title, content, user_id) VALUES (?, ?, ?)`, "Hi", "Body", ana)
	insertID(t, db, `INSERT INTO comments (content, post_id, user_id) VALUES (?, ?, ?)`, "Nice", post, ana)

	_, err := db.Exec(`DELETE FROM posts WHERE id = ?`, post)
	require.NoError(t, err)
	assert.Equal(t, 0, count(t, db, "comments"))
	assert.Equal(t, 1, count(t, db, "users"))
}

func TestSQLite_ForeignKeyRejected(t *testing.T) {
	db := openSQLite(t)

	_, err := db.Exec(`INSERT INTO characters (name, planet_id) VALUES (?, ?)`, "Nobody", 999)
	assert.Error(t, err, "character with a missing planet")

	_, err = db.Exec(`INSERT INTO posts (title, content, user_id) VALUES (?, ?, ?)`, "t", "c", 999)
	assert.Error(t, err, "post with a missing author")
}

func TestSQLite_Constraints(t *testing.T) {
	db := openSQLite(t)

	ana := insertID(t, db, `INSERT INTO users (email, password, is_active) VALUES (?, ?, ?)`, "a@x.com", "hash", false)
	hoth := insertID(t, db, `INSERT INTO planets (name) VALUES (?)`, "Hoth")

	insertID(t, db, `INSERT INTO user_planets (user_id, planet_id) VALUES (?, ?)`, ana, hoth)
	_, err := db.Exec(`INSERT INTO user_planets (user_id, planet_id) VALUES (?, ?)`, ana, hoth)
	assert.Error(t, err, "duplicate favorite")

	_, err = db.Exec(`INSERT INTO users (email, password, is_active) VALUES (?, ?, ?)`, "a@x.com", "other", true)
	assert.Error(t, err, "duplicate email")

	_, err = db.Exec(`INSERT INTO users (email, is_active) VALUES (?, ?)`, "b@x.com", true)
	assert.Error(t, err, "missing password")
}

func TestSQLite_DropStatements(t *testing.T) {
	db := openSQLite(t)

	planner := NewPlannerWithOptions(PlannerOptions{Dialect: SQLite, IfNotExists: true})
	for _, stmt := range planner.DropStatements(orderedTables(t)) {
		_, err := db.ExecContext(context.Background(), stmt)
		require.NoError(t, err, stmt)
	}

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`).Scan(&n))
	assert.Zero(t, n)
}
