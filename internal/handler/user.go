package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harshyyy26/QuizApp/internal/model"
	"github.com/harshyyy26/QuizApp/internal/repository"
)

// UserHandler serves the quiz-taking surface under /user.  Every route
// requires the USER role; the identity comes from the request principal, not
// from re-parsing the token.
type UserHandler struct {
	Users    *repository.UserRepo
	Quizzes  *repository.QuizRepo
	Attempts *repository.AttemptRepo
}

func NewUserHandler(u *repository.UserRepo, q *repository.QuizRepo, a *repository.AttemptRepo) *UserHandler {
	return &UserHandler{Users: u, Quizzes: q, Attempts: a}
}

// ----- DTOs -----

type profileResp struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}
type quizSubjectResp struct {
	ID            uint64 `json:"id"`
	Subject       string `json:"subject"`
	QuestionCount int    `json:"questionCount"`
}
type quizResultResp struct {
	TotalQuestions int `json:"totalQuestions"`
	CorrectAnswers int `json:"correctAnswers"`
	Score          int `json:"score"`
}
type attemptResp struct {
	QuizID         uint64    `json:"quizId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Answers        []string  `json:"answers"`
	AttemptedAt    time.Time `json:"attemptedAt"`
}
type leaderboardEntry struct {
	Username       string    `json:"username"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	AttemptedAt    time.Time `json:"attemptedAt"`
}

func quizIDParam(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("quizId"), 10, 64)
}

// Profile returns the authenticated user's own record.
func (h *UserHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := currentUser(c, ctx, h.Users)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return c.JSON(http.StatusOK, profileResp{Username: u.Username, Email: u.Email, Roles: roles})
}

// QuizSubjects lists all quizzes with their question counts.
func (h *UserHandler) QuizSubjects(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	quizzes, counts, err := h.Quizzes.ListQuizzes(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]quizSubjectResp, 0, len(quizzes))
	for i, q := range quizzes {
		out = append(out, quizSubjectResp{ID: q.ID, Subject: q.Subject, QuestionCount: counts[i]})
	}
	return c.JSON(http.StatusOK, out)
}

// QuizQuestions returns a quiz's questions with the correct answers stripped.
func (h *UserHandler) QuizQuestions(c echo.Context) error {
	quizID, err := quizIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quiz id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	quiz, err := h.Quizzes.GetQuiz(ctx, quizID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quiz not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]model.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		out = append(out, q.Sanitized())
	}
	return c.JSON(http.StatusOK, out)
}

// Solve scores a submitted answer list against the quiz's questions and
// persists the attempt.  Answers are matched case-insensitively by option
// letter; missing or empty entries simply score zero for that question.
func (h *UserHandler) Solve(c echo.Context) error {
	quizID, err := quizIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quiz id"})
	}
	var answers []string
	if err := c.Bind(&answers); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := currentUser(c, ctx, h.Users)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	quiz, err := h.Quizzes.GetQuiz(ctx, quizID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quiz not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	score := 0
	for i, q := range quiz.Questions {
		if i < len(answers) && answers[i] != "" && strings.EqualFold(q.CorrectAnswer, answers[i]) {
			score++
		}
	}

	attempt := model.QuizAttempt{
		UserID:         u.ID,
		QuizID:         quizID,
		Answers:        answers,
		Score:          score,
		TotalQuestions: len(quiz.Questions),
		AttemptedAt:    time.Now().UTC(),
	}
	if _, err := h.Attempts.Create(ctx, attempt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save attempt failed"})
	}
	return c.JSON(http.StatusOK, quizResultResp{
		TotalQuestions: len(quiz.Questions),
		CorrectAnswers: score,
		Score:          score,
	})
}

// ListAttempts returns the authenticated user's attempt history.
func (h *UserHandler) ListAttempts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := currentUser(c, ctx, h.Users)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	attempts, err := h.Attempts.ListByUser(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]attemptResp, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptResp{
			QuizID:         a.QuizID,
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions,
			Answers:        a.Answers,
			AttemptedAt:    a.AttemptedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Leaderboard aggregates a quiz's attempts to the best score per user,
// sorted descending.
func (h *UserHandler) Leaderboard(c echo.Context) error {
	quizID, err := quizIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quiz id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	attempts, err := h.Attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	best := make(map[uint64]model.QuizAttempt)
	for _, a := range attempts {
		if cur, ok := best[a.UserID]; !ok || a.Score > cur.Score {
			best[a.UserID] = a
		}
	}

	entries := make([]leaderboardEntry, 0, len(best))
	for userID, a := range best {
		username := "Unknown"
		if u, err := h.Users.GetByID(ctx, userID); err == nil {
			username = u.Username
		}
		entries = append(entries, leaderboardEntry{
			Username:       username,
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions,
			AttemptedAt:    a.AttemptedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return c.JSON(http.StatusOK, entries)
}
