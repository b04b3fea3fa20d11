package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetherion/assistant-core/pkg/skills/calendar"
	"github.com/zetherion/assistant-core/pkg/skills/devwatcher"
	"github.com/zetherion/assistant-core/pkg/skills/milestone"
	"github.com/zetherion/assistant-core/pkg/skills/profile"
	"github.com/zetherion/assistant-core/pkg/skills/taskmanager"
	"github.com/zetherion/assistant-core/pkg/skills/youtube"
)

// CalendarStore implements calendar.Store against calendar_events.
type CalendarStore struct{ pool *pgxpool.Pool }

// NewCalendarStore builds a CalendarStore over pool.
func NewCalendarStore(pool *pgxpool.Pool) *CalendarStore { return &CalendarStore{pool: pool} }

func (s *CalendarStore) upcoming(ctx context.Context, userID string, from, to time.Time) ([]calendar.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, starts_at FROM calendar_events
		WHERE user_id = $1 AND starts_at >= $2 AND starts_at <= $3
		ORDER BY starts_at ASC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calendar.Event
	for rows.Next() {
		var e calendar.Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.StartsAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *CalendarStore) Upcoming(ctx context.Context, userID string, within time.Duration) ([]calendar.Event, error) {
	now := time.Now()
	return s.upcoming(ctx, userID, now, now.Add(within))
}

func (s *CalendarStore) ImminentDeadlines(ctx context.Context, userID string, within time.Duration) ([]calendar.Event, error) {
	return s.Upcoming(ctx, userID, within)
}

// DevWatcherStore implements devwatcher.Store against dev_commits and
// dev_digest_state.
type DevWatcherStore struct{ pool *pgxpool.Pool }

// NewDevWatcherStore builds a DevWatcherStore over pool.
func NewDevWatcherStore(pool *pgxpool.Pool) *DevWatcherStore { return &DevWatcherStore{pool: pool} }

func (s *DevWatcherStore) RecentCommits(ctx context.Context, userID string, since time.Time) ([]devwatcher.Commit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sha, message, author, ts FROM dev_commits
		WHERE user_id = $1 AND ts >= $2
		ORDER BY ts DESC`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []devwatcher.Commit
	for rows.Next() {
		var c devwatcher.Commit
		if err := rows.Scan(&c.SHA, &c.Message, &c.Author, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCommit records an ingested commit for userID. sha is the primary
// key: re-ingesting a commit already seen (e.g. after a poller restart
// re-walks its lookback window) is a no-op rather than an error.
func (s *DevWatcherStore) InsertCommit(ctx context.Context, userID string, c devwatcher.Commit) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dev_commits (sha, user_id, message, author, ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sha) DO NOTHING`, c.SHA, userID, c.Message, c.Author, c.Timestamp)
	return err
}

// LatestCommitAt returns the timestamp of the most recent commit recorded
// for userID, or the zero Time if none has been recorded yet.
func (s *DevWatcherStore) LatestCommitAt(ctx context.Context, userID string) (time.Time, error) {
	var at time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT ts FROM dev_commits WHERE user_id = $1 ORDER BY ts DESC LIMIT 1`, userID).Scan(&at)
	if err == pgx.ErrNoRows {
		return time.Time{}, nil
	}
	return at, err
}

func (s *DevWatcherStore) LastDigestAt(ctx context.Context, userID string) (time.Time, error) {
	var at time.Time
	err := s.pool.QueryRow(ctx, `SELECT last_digest_at FROM dev_digest_state WHERE user_id = $1`, userID).Scan(&at)
	if err == pgx.ErrNoRows {
		return time.Time{}, nil
	}
	return at, err
}

func (s *DevWatcherStore) MarkDigestSent(ctx context.Context, userID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dev_digest_state (user_id, last_digest_at) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET last_digest_at = excluded.last_digest_at`, userID, at)
	return err
}

// MilestoneStore implements milestone.Store against milestones.
type MilestoneStore struct{ pool *pgxpool.Pool }

// NewMilestoneStore builds a MilestoneStore over pool.
func NewMilestoneStore(pool *pgxpool.Pool) *MilestoneStore { return &MilestoneStore{pool: pool} }

func (s *MilestoneStore) Pending(ctx context.Context, userID string) ([]milestone.Milestone, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, detected_at, acknowledged FROM milestones
		WHERE user_id = $1 AND acknowledged = false
		ORDER BY detected_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []milestone.Milestone
	for rows.Next() {
		var m milestone.Milestone
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.DetectedAt, &m.Acknowledged); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *MilestoneStore) Acknowledge(ctx context.Context, userID, milestoneID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE milestones SET acknowledged = true WHERE id = $1 AND user_id = $2`, milestoneID, userID)
	return err
}

// ProfileStore implements profile.Store against profile_facts.
type ProfileStore struct{ pool *pgxpool.Pool }

// NewProfileStore builds a ProfileStore over pool.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore { return &ProfileStore{pool: pool} }

func (s *ProfileStore) FactsByCategory(ctx context.Context, userID, category string) ([]profile.Fact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, text, confidence FROM profile_facts
		WHERE user_id = $1 AND category = $2`, userID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFacts(rows)
}

func (s *ProfileStore) AllFacts(ctx context.Context, userID string) ([]profile.Fact, error) {
	rows, err := s.pool.Query(ctx, `SELECT category, text, confidence FROM profile_facts WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFacts(rows)
}

func scanFacts(rows pgx.Rows) ([]profile.Fact, error) {
	var out []profile.Fact
	for rows.Next() {
		var f profile.Fact
		if err := rows.Scan(&f.Category, &f.Text, &f.Confidence); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// StoreFact inserts an extracted personal fact. Not part of profile.Store
// (which is read-only from the skill's perspective); called by the
// profile-extraction path that writes what the skill later reads.
func (s *ProfileStore) StoreFact(ctx context.Context, userID string, f profile.Fact) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profile_facts (user_id, category, text, confidence) VALUES ($1, $2, $3, $4)`,
		userID, f.Category, f.Text, f.Confidence)
	return err
}

// TaskManagerStore implements taskmanager.Store against tasks.
type TaskManagerStore struct{ pool *pgxpool.Pool }

// NewTaskManagerStore builds a TaskManagerStore over pool.
func NewTaskManagerStore(pool *pgxpool.Pool) *TaskManagerStore { return &TaskManagerStore{pool: pool} }

func (s *TaskManagerStore) Create(ctx context.Context, t taskmanager.Task) (taskmanager.Task, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, user_id, title, due_at)
		VALUES (gen_random_uuid()::text, $1, $2, $3)
		RETURNING id, user_id, title, due_at, done, created_at`,
		t.UserID, t.Title, t.DueAt,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.DueAt, &t.Done, &t.CreatedAt)
	return t, err
}

func (s *TaskManagerStore) List(ctx context.Context, userID string, includeDone bool) ([]taskmanager.Task, error) {
	query := `SELECT id, user_id, title, due_at, done, created_at FROM tasks WHERE user_id = $1`
	if !includeDone {
		query += ` AND done = false`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taskmanager.Task
	for rows.Next() {
		var t taskmanager.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.DueAt, &t.Done, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TaskManagerStore) Complete(ctx context.Context, userID, taskID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tasks SET done = true WHERE id = $1 AND user_id = $2`, taskID, userID)
	return err
}

func (s *TaskManagerStore) Snooze(ctx context.Context, userID, taskID string, until time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE tasks SET due_at = $3 WHERE id = $1 AND user_id = $2`, taskID, userID, until)
	return err
}

func (s *TaskManagerStore) Overdue(ctx context.Context, userID string, now time.Time) ([]taskmanager.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, due_at, done, created_at FROM tasks
		WHERE user_id = $1 AND done = false AND due_at IS NOT NULL AND due_at < $2
		ORDER BY due_at ASC`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taskmanager.Task
	for rows.Next() {
		var t taskmanager.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.DueAt, &t.Done, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// YouTubeManagementStore implements youtube.ManagementStore against
// youtube_channels.
type YouTubeManagementStore struct{ pool *pgxpool.Pool }

// NewYouTubeManagementStore builds a YouTubeManagementStore over pool.
func NewYouTubeManagementStore(pool *pgxpool.Pool) *YouTubeManagementStore {
	return &YouTubeManagementStore{pool: pool}
}

func (s *YouTubeManagementStore) ChannelSummary(ctx context.Context, channelID string) (youtube.Channel, error) {
	var c youtube.Channel
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, subscriber_count, pending_comments FROM youtube_channels WHERE id = $1`, channelID,
	).Scan(&c.ID, &c.Name, &c.SubscriberCount, &c.PendingComments)
	return c, err
}

func (s *YouTubeManagementStore) PendingModerationCount(ctx context.Context, channelID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT pending_comments FROM youtube_channels WHERE id = $1`, channelID).Scan(&n)
	return n, err
}
