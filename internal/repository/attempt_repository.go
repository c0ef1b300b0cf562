package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/harshyyy26/QuizApp/internal/model"
)

// AttemptRepo persists quiz attempt history.  Submitted answers are stored as
// a JSON array in a single column.
type AttemptRepo struct{ DB *sql.DB }

func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{DB: db} }

// Create records a finished attempt.
func (r *AttemptRepo) Create(ctx context.Context, a model.QuizAttempt) (uint64, error) {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO quiz_attempts (user_id, quiz_id, answers, score, total_questions, attempted_at)
		VALUES (?,?,?,?,?,?)`,
		a.UserID, a.QuizID, answers, a.Score, a.TotalQuestions, a.AttemptedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanAttempts(rows *sql.Rows) ([]model.QuizAttempt, error) {
	defer rows.Close()
	var out []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		var answers []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &answers, &a.Score, &a.TotalQuestions, &a.AttemptedAt); err != nil {
			return nil, err
		}
		if len(answers) > 0 {
			if err := json.Unmarshal(answers, &a.Answers); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const attemptCols = "id,user_id,quiz_id,answers,score,total_questions,attempted_at"

// ListByUser returns a user's attempt history, newest first.
func (r *AttemptRepo) ListByUser(ctx context.Context, userID uint64) ([]model.QuizAttempt, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+attemptCols+" FROM quiz_attempts WHERE user_id=? ORDER BY attempted_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return scanAttempts(rows)
}

// ListByQuiz returns every attempt of a quiz, the raw material for the
// leaderboard aggregation.
func (r *AttemptRepo) ListByQuiz(ctx context.Context, quizID uint64) ([]model.QuizAttempt, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+attemptCols+" FROM quiz_attempts WHERE quiz_id=?", quizID)
	if err != nil {
		return nil, err
	}
	return scanAttempts(rows)
}

// DeleteByUser removes all attempts of a user.  Runs before the admin deletes
// the user row itself.
func (r *AttemptRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM quiz_attempts WHERE user_id=?", userID)
	return err
}
