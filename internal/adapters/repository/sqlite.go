package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/womenconnect/platform/internal/domain/model"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore is a Store backed by a single SQLite database file. Array
// fields are kept as JSON columns and rewritten inside a transaction.
type SQLiteStore struct {
	db *sql.DB

	settings settings
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, settings: defaultSettings(), stopChan: make(chan struct{})}
	for _, opt := range opts {
		opt(&s.settings)
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}

	startMetricsUpdater(ctx, &s.wg, s.stopChan, s.settings.metricsUpdateInterval, s.Counts)
	return s, nil
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			email_key TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			photo_url TEXT NOT NULL,
			bookmarks_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			date INTEGER NOT NULL,
			type TEXT NOT NULL,
			location TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			created_by TEXT NOT NULL,
			creator_name TEXT NOT NULL,
			attendees_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_date ON events(date, id);`,
		`CREATE TABLE IF NOT EXISTS stories (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			image_url TEXT NOT NULL,
			author_id TEXT NOT NULL,
			author_name TEXT NOT NULL,
			likes_json TEXT NOT NULL,
			comments_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_stories_created ON stories(created_at DESC, id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const (
	userColumns  = `id, name, email, password_hash, photo_url, bookmarks_json, created_at`
	eventColumns = `id, title, date, type, location, description, category, created_by, creator_name, attendees_json, created_at`
	storyColumns = `id, title, content, image_url, author_id, author_name, likes_json, comments_json, created_at`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (model.User, error) {
	var (
		u         model.User
		bookmarks string
		created   int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhotoURL, &bookmarks, &created); err != nil {
		return model.User{}, err
	}
	if err := json.Unmarshal([]byte(bookmarks), &u.Bookmarks); err != nil {
		return model.User{}, fmt.Errorf("decode bookmarks: %w", err)
	}
	u.CreatedAt = fromNanos(created)
	return cloneUser(u), nil
}

func scanEvent(row scanner) (model.Event, error) {
	var (
		e         model.Event
		attendees string
		date      int64
		created   int64
	)
	if err := row.Scan(&e.ID, &e.Title, &date, &e.Type, &e.Location, &e.Description, &e.Category,
		&e.CreatedBy, &e.CreatorName, &attendees, &created); err != nil {
		return model.Event{}, err
	}
	if err := json.Unmarshal([]byte(attendees), &e.Attendees); err != nil {
		return model.Event{}, fmt.Errorf("decode attendees: %w", err)
	}
	e.Date = fromNanos(date)
	e.CreatedAt = fromNanos(created)
	return cloneEvent(e), nil
}

func scanStory(row scanner) (model.Story, error) {
	var (
		st       model.Story
		likes    string
		comments string
		created  int64
	)
	if err := row.Scan(&st.ID, &st.Title, &st.Content, &st.ImageURL, &st.AuthorID, &st.AuthorName,
		&likes, &comments, &created); err != nil {
		return model.Story{}, err
	}
	if err := json.Unmarshal([]byte(likes), &st.Likes); err != nil {
		return model.Story{}, fmt.Errorf("decode likes: %w", err)
	}
	if err := json.Unmarshal([]byte(comments), &st.Comments); err != nil {
		return model.Story{}, fmt.Errorf("decode comments: %w", err)
	}
	st.CreatedAt = fromNanos(created)
	return cloneStory(st), nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Only string slices and comments are encoded here.
		panic(err)
	}
	return string(b)
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fail(op, ErrNotFound)
	}
	return fail(op, fmt.Errorf("%s: %w", op, err))
}

// inTx runs fn inside a transaction, committing only when fn succeeds.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) error {
	defer observe("create_user", time.Now())
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ? OR email_key = ?`,
			u.ID, NormalizeEmail(u.Email)).Scan(&n)
		if err != nil {
			return fail("create_user", err)
		}
		if n > 0 {
			return fail("create_user", ErrConflict)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO users(`+userColumns+`, email_key) VALUES(?,?,?,?,?,?,?,?)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.PhotoURL, mustJSON(cloneStrings(u.Bookmarks)),
			toNanos(u.CreatedAt), NormalizeEmail(u.Email))
		if err != nil {
			return fail("create_user", err)
		}
		return nil
	})
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (model.User, error) {
	defer observe("get_user", time.Now())
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return model.User{}, notFound("get_user", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	defer observe("get_user_by_email", time.Now())
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email_key = ?`, NormalizeEmail(email)))
	if err != nil {
		return model.User{}, notFound("get_user_by_email", err)
	}
	return u, nil
}

func (s *SQLiteStore) UpdateUserName(ctx context.Context, id, name string) (model.User, error) {
	return s.updateUser(ctx, "update_user_name", id, func(u *model.User) { u.Name = name })
}

func (s *SQLiteStore) UpdateUserPhoto(ctx context.Context, id, photoURL string) (model.User, error) {
	return s.updateUser(ctx, "update_user_photo", id, func(u *model.User) { u.PhotoURL = photoURL })
}

func (s *SQLiteStore) ToggleBookmark(ctx context.Context, userID, storyID string) (bool, error) {
	var on bool
	_, err := s.updateUser(ctx, "toggle_bookmark", userID, func(u *model.User) {
		u.Bookmarks, on = toggle(u.Bookmarks, storyID)
	})
	return on, err
}

func (s *SQLiteStore) updateUser(ctx context.Context, op, id string, mutate func(*model.User)) (model.User, error) {
	defer observe(op, time.Now())
	var out model.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		if err != nil {
			return notFound(op, err)
		}
		mutate(&u)
		_, err = tx.ExecContext(ctx, `UPDATE users SET name = ?, photo_url = ?, bookmarks_json = ? WHERE id = ?`,
			u.Name, u.PhotoURL, mustJSON(cloneStrings(u.Bookmarks)), id)
		if err != nil {
			return fail(op, err)
		}
		out = u
		return nil
	})
	return out, err
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, e model.Event) error {
	defer observe("create_event", time.Now())
	return s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := rowExists(ctx, tx, `SELECT COUNT(*) FROM events WHERE id = ?`, e.ID)
		if err != nil {
			return fail("create_event", err)
		}
		if exists {
			return fail("create_event", ErrConflict)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO events(`+eventColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
			e.ID, e.Title, toNanos(e.Date), e.Type, e.Location, e.Description, e.Category,
			e.CreatedBy, e.CreatorName, mustJSON(cloneStrings(e.Attendees)), toNanos(e.CreatedAt))
		if err != nil {
			return fail("create_event", err)
		}
		return nil
	})
}

func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (model.Event, error) {
	defer observe("get_event", time.Now())
	e, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return model.Event{}, notFound("get_event", err)
	}
	return e, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	defer observe("list_events", time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fail("list_events", err)
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fail("list_events", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("list_events", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteEvent(ctx context.Context, id string) error {
	defer observe("delete_event", time.Now())
	return s.deleteByID(ctx, "delete_event", `DELETE FROM events WHERE id = ?`, id)
}

func (s *SQLiteStore) CreateStory(ctx context.Context, st model.Story) error {
	defer observe("create_story", time.Now())
	st = cloneStory(st)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := rowExists(ctx, tx, `SELECT COUNT(*) FROM stories WHERE id = ?`, st.ID)
		if err != nil {
			return fail("create_story", err)
		}
		if exists {
			return fail("create_story", ErrConflict)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO stories(`+storyColumns+`) VALUES(?,?,?,?,?,?,?,?,?)`,
			st.ID, st.Title, st.Content, st.ImageURL, st.AuthorID, st.AuthorName,
			mustJSON(st.Likes), mustJSON(st.Comments), toNanos(st.CreatedAt))
		if err != nil {
			return fail("create_story", err)
		}
		return nil
	})
}

func (s *SQLiteStore) GetStory(ctx context.Context, id string) (model.Story, error) {
	defer observe("get_story", time.Now())
	st, err := scanStory(s.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id))
	if err != nil {
		return model.Story{}, notFound("get_story", err)
	}
	return st, nil
}

func (s *SQLiteStore) ListStories(ctx context.Context) ([]model.Story, error) {
	defer observe("list_stories", time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT `+storyColumns+` FROM stories ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fail("list_stories", err)
	}
	defer rows.Close()

	out := []model.Story{}
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, fail("list_stories", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("list_stories", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteStory(ctx context.Context, id string) error {
	defer observe("delete_story", time.Now())
	return s.deleteByID(ctx, "delete_story", `DELETE FROM stories WHERE id = ?`, id)
}

func (s *SQLiteStore) ToggleLike(ctx context.Context, storyID, userID string) (model.Story, error) {
	return s.updateStory(ctx, "toggle_like", storyID, func(st *model.Story) {
		st.Likes, _ = toggle(st.Likes, userID)
	})
}

func (s *SQLiteStore) AddComment(ctx context.Context, storyID string, c model.Comment) (model.Story, error) {
	return s.updateStory(ctx, "add_comment", storyID, func(st *model.Story) {
		st.Comments = append(st.Comments, c)
	})
}

func (s *SQLiteStore) updateStory(ctx context.Context, op, id string, mutate func(*model.Story)) (model.Story, error) {
	defer observe(op, time.Now())
	var out model.Story
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		st, err := scanStory(tx.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id))
		if err != nil {
			return notFound(op, err)
		}
		mutate(&st)
		_, err = tx.ExecContext(ctx, `UPDATE stories SET likes_json = ?, comments_json = ? WHERE id = ?`,
			mustJSON(st.Likes), mustJSON(st.Comments), id)
		if err != nil {
			return fail(op, err)
		}
		out = st
		return nil
	})
	return out, err
}

func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM events),
		(SELECT COUNT(*) FROM stories)`).Scan(&c.Users, &c.Events, &c.Stories)
	if err != nil {
		return Counts{}, fail("counts", err)
	}
	return c, nil
}

func (s *SQLiteStore) deleteByID(ctx context.Context, op, stmt, id string) error {
	res, err := s.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail(op, err)
	}
	if n == 0 {
		return fail(op, ErrNotFound)
	}
	return nil
}

func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
