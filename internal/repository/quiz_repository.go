package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/harshyyy26/QuizApp/internal/model"
)

// QuizRepo persists quizzes and their questions.  Questions live in a child
// table keyed by a generated UUID so individual questions can be updated or
// deleted while editing a quiz.
type QuizRepo struct{ DB *sql.DB }

func NewQuizRepo(db *sql.DB) *QuizRepo { return &QuizRepo{DB: db} }

// CreateQuiz inserts a quiz subject and returns its id.
func (r *QuizRepo) CreateQuiz(ctx context.Context, subject string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO quizzes (subject) VALUES (?)", subject)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetQuiz fetches a quiz together with its questions.
func (r *QuizRepo) GetQuiz(ctx context.Context, id uint64) (model.Quiz, error) {
	var q model.Quiz
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,subject FROM quizzes WHERE id=? LIMIT 1", id).Scan(&q.ID, &q.Subject)
	if err == sql.ErrNoRows {
		return q, ErrNotFound
	}
	if err != nil {
		return q, err
	}
	q.Questions, err = r.GetQuestions(ctx, id)
	return q, err
}

// ListQuizzes returns every quiz with its question count.  The count rides in
// Questions as a nil slice is indistinguishable from empty, so listings use a
// separate aggregate query.
func (r *QuizRepo) ListQuizzes(ctx context.Context) ([]model.Quiz, []int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT q.id, q.subject, COUNT(s.id)
		FROM quizzes q LEFT JOIN questions s ON s.quiz_id = q.id
		GROUP BY q.id, q.subject ORDER BY q.id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	var counts []int
	for rows.Next() {
		var q model.Quiz
		var n int
		if err := rows.Scan(&q.ID, &q.Subject, &n); err != nil {
			return nil, nil, err
		}
		quizzes = append(quizzes, q)
		counts = append(counts, n)
	}
	return quizzes, counts, rows.Err()
}

// DeleteQuiz removes a quiz and its questions.
func (r *QuizRepo) DeleteQuiz(ctx context.Context, id uint64) error {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM questions WHERE quiz_id=?", id); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM quizzes WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetQuestions returns a quiz's questions in insertion order.
func (r *QuizRepo) GetQuestions(ctx context.Context, quizID uint64) ([]model.Question, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, quiz_id, question_text, option_a, option_b, option_c, option_d, correct_answer
		FROM questions WHERE quiz_id=? ORDER BY position, id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// AddQuestion appends a question to an existing quiz and returns it with a
// freshly generated id.  Fails ErrNotFound when the quiz does not exist.
func (r *QuizRepo) AddQuestion(ctx context.Context, quizID uint64, q model.Question) (model.Question, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM quizzes WHERE id=? LIMIT 1", quizID).Scan(&one)
	if err == sql.ErrNoRows {
		return q, ErrNotFound
	}
	if err != nil {
		return q, err
	}
	q.ID = uuid.NewString()
	q.QuizID = quizID
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO questions (id, quiz_id, question_text, option_a, option_b, option_c, option_d, correct_answer, position)
		SELECT ?,?,?,?,?,?,?,?, COALESCE(MAX(position),0)+1 FROM questions WHERE quiz_id=?`,
		q.ID, quizID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, quizID)
	return q, err
}

// UpdateQuestion replaces the text, options and answer of one question.
func (r *QuizRepo) UpdateQuestion(ctx context.Context, quizID uint64, questionID string, q model.Question) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE questions SET question_text=?, option_a=?, option_b=?, option_c=?, option_d=?, correct_answer=?
		WHERE id=? AND quiz_id=?`,
		q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, questionID, quizID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQuestion removes one question from a quiz.
func (r *QuizRepo) DeleteQuestion(ctx context.Context, quizID uint64, questionID string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM questions WHERE id=? AND quiz_id=?", questionID, quizID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
