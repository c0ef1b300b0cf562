package model

import "time"

// QuizAttempt models a row in the `quiz_attempts` table: one finished solve
// of a quiz by a user.  The submitted answers are kept as a JSON array in a
// single column so past attempts can be replayed in the profile view.
//
// Fields:
//  ID             – primary key.
//  UserID         – who attempted.
//  QuizID         – which quiz.
//  Answers        – submitted options in question order ("A".."D", may be empty).
//  Score          – number of correct answers.
//  TotalQuestions – question count at the time of the attempt.
//  AttemptedAt    – when the attempt was submitted.
type QuizAttempt struct {
	ID             uint64    // quiz_attempts.id
	UserID         uint64    // quiz_attempts.user_id
	QuizID         uint64    // quiz_attempts.quiz_id
	Answers        []string  // quiz_attempts.answers (JSON array)
	Score          int       // quiz_attempts.score
	TotalQuestions int       // quiz_attempts.total_questions
	AttemptedAt    time.Time // quiz_attempts.attempted_at
}
