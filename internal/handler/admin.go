package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/harshyyy26/QuizApp/internal/model"
	"github.com/harshyyy26/QuizApp/internal/repository"
)

// AdminHandler serves quiz and user management under /admin.  Every route
// requires the ADMIN role.
type AdminHandler struct {
	Users    *repository.UserRepo
	Quizzes  *repository.QuizRepo
	Attempts *repository.AttemptRepo
}

func NewAdminHandler(u *repository.UserRepo, q *repository.QuizRepo, a *repository.AttemptRepo) *AdminHandler {
	return &AdminHandler{Users: u, Quizzes: q, Attempts: a}
}

type quizReq struct {
	Subject   string           `json:"subject"`
	Questions []model.Question `json:"questions"`
}
type quizResp struct {
	ID        uint64           `json:"id"`
	Subject   string           `json:"subject"`
	Questions []model.Question `json:"questions"`
}
type adminQuizSubjectResp struct {
	ID      uint64 `json:"id"`
	Subject string `json:"subject"`
}

// AddQuiz creates a quiz subject, optionally with an initial question list.
func (h *AdminHandler) AddQuiz(c echo.Context) error {
	var req quizReq
	if err := c.Bind(&req); err != nil || req.Subject == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subject required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Quizzes.CreateQuiz(ctx, req.Subject)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create quiz failed"})
	}
	questions := make([]model.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		saved, err := h.Quizzes.AddQuestion(ctx, id, q)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add question failed"})
		}
		questions = append(questions, saved)
	}
	return c.JSON(http.StatusOK, quizResp{ID: id, Subject: req.Subject, Questions: questions})
}

// AddQuestion appends one question to an existing quiz.
func (h *AdminHandler) AddQuestion(c echo.Context) error {
	quizID, err := quizIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quiz id"})
	}
	var q model.Question
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	_, err = h.Quizzes.AddQuestion(ctx, quizID, q)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quiz not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add question failed"})
	}
	return h.respondQuiz(c, quizID)
}

// UpdateQuestion replaces one question of a quiz.
func (h *AdminHandler) UpdateQuestion(c echo.Context) error {
	quizID, err := quizIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quiz id"})
	}
	questionID := c.Param("questionId")
	var q model.Question
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err = h.Quizzes.UpdateQuestion(ctx, quizID, questionID, q)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "question not found in the quiz"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update question failed"})
	}
	return h.respondQuiz(c, quizID)
}

// DeleteQuestion removes one question from a quiz.
func (h *AdminHandler) DeleteQuestion(c echo.Context) error {
	quizID, err := quizIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quiz id"})
	}
	questionID := c.Param("questionId")

	ctx, cancel := reqCtx(c)
	defer cancel()

	err = h.Quizzes.DeleteQuestion(ctx, quizID, questionID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "question not found in the quiz"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete question failed"})
	}
	return h.respondQuiz(c, quizID)
}

// respondQuiz returns the current state of a quiz after an edit, mirroring
// how the editing UI refreshes its view from the response.
func (h *AdminHandler) respondQuiz(c echo.Context, quizID uint64) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	quiz, err := h.Quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load quiz failed"})
	}
	return c.JSON(http.StatusOK, quizResp{ID: quiz.ID, Subject: quiz.Subject, Questions: quiz.Questions})
}

// DeleteQuiz removes a quiz and its questions.
func (h *AdminHandler) DeleteQuiz(c echo.Context) error {
	quizID, err := quizIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quiz id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err = h.Quizzes.DeleteQuiz(ctx, quizID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quiz not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete quiz failed"})
	}
	return c.String(http.StatusOK, "Quiz deleted")
}

// QuizList lists quiz ids and subjects for the admin overview.
func (h *AdminHandler) QuizList(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	quizzes, _, err := h.Quizzes.ListQuizzes(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminQuizSubjectResp, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, adminQuizSubjectResp{ID: q.ID, Subject: q.Subject})
	}
	return c.JSON(http.StatusOK, out)
}

// Quiz returns one full quiz including correct answers.
func (h *AdminHandler) Quiz(c echo.Context) error {
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
	return c.JSON(http.StatusOK, quizResp{ID: quiz.ID, Subject: quiz.Subject, Questions: quiz.Questions})
}

// Users lists all registered users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteUser removes a user and cascades the deletion of their attempt
// history first.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); errors.Is(err, repository.ErrNotFound) {
		return c.String(http.StatusNotFound, "User not found.")
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Attempts.DeleteByUser(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete attempts failed"})
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	return c.String(http.StatusOK, "User deleted successfully.")
}
