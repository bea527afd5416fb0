// Package archive persists generated papers in SQLite so they can be
// listed, revisited, and scored after the request-level cache has moved on.
package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/examforge/examforge/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a paper does not exist.
var ErrNotFound = errors.New("paper not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_board TEXT NOT NULL,
		subject TEXT NOT NULL,
		target_year INTEGER NOT NULL DEFAULT 0,
		kind TEXT NOT NULL,
		questions TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_papers_created_at ON papers(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SavePaper stores one generation result and returns its ID.
func (s *Store) SavePaper(p model.Paper) (int64, error) {
	questions, err := json.Marshal(p.Questions)
	if err != nil {
		return 0, fmt.Errorf("marshal questions: %w", err)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO papers (exam_board, subject, target_year, kind, questions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Board, p.Subject, p.TargetYear, p.Kind, string(questions), createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPaper returns a paper by ID.
func (s *Store) GetPaper(id int64) (model.Paper, error) {
	var p model.Paper
	var questions string
	err := s.db.QueryRow(
		`SELECT id, exam_board, subject, target_year, kind, questions, created_at FROM papers WHERE id = ?`, id,
	).Scan(&p.ID, &p.Board, &p.Subject, &p.TargetYear, &p.Kind, &questions, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Paper{}, ErrNotFound
	}
	if err != nil {
		return model.Paper{}, err
	}
	if err := json.Unmarshal([]byte(questions), &p.Questions); err != nil {
		return model.Paper{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return p, nil
}

// ListPapers returns the most recent papers, newest first, without
// question bodies.
func (s *Store) ListPapers(limit int) ([]model.PaperInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, exam_board, subject, target_year, kind, questions, created_at
		 FROM papers ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var infos []model.PaperInfo
	for rows.Next() {
		var info model.PaperInfo
		var questions string
		if err := rows.Scan(&info.ID, &info.Board, &info.Subject, &info.TargetYear, &info.Kind, &questions, &info.CreatedAt); err != nil {
			return nil, err
		}
		var qs []model.Question
		if err := json.Unmarshal([]byte(questions), &qs); err != nil {
			return nil, fmt.Errorf("unmarshal questions for paper %d: %w", info.ID, err)
		}
		info.QuestionCount = len(qs)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// ExportAll returns every archived paper, oldest first.
func (s *Store) ExportAll() ([]model.Paper, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_board, subject, target_year, kind, questions, created_at FROM papers ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var papers []model.Paper
	for rows.Next() {
		var p model.Paper
		var questions string
		if err := rows.Scan(&p.ID, &p.Board, &p.Subject, &p.TargetYear, &p.Kind, &questions, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(questions), &p.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions for paper %d: %w", p.ID, err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// PaperCount returns the number of archived papers.
func (s *Store) PaperCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM papers`).Scan(&count)
	return count, err
}
