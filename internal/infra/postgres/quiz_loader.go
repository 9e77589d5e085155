package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-quiz-service/internal/domain"
)

// QuizLoader loads and stores quiz JSONB in Postgres. The play counter lives in its
// own column so increments never rewrite the document.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		raw   []byte
		plays int
	)
	err := l.pool.QueryRow(ctx, `SELECT data, plays FROM quizzes WHERE id=$1`, quizID).Scan(&raw, &plays)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.Plays = plays
	return quiz, nil
}

// SaveQuiz upserts a quiz document; the play counter is left untouched on update.
func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	plays := quiz.Plays
	quiz.Plays = 0
	raw, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO quizzes (id, data, plays) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		quiz.ID, raw, plays)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (l *QuizLoader) IncrementPlays(ctx context.Context, quizID string) error {
	tag, err := l.pool.Exec(ctx, `UPDATE quizzes SET plays = plays + 1 WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("increment plays: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
