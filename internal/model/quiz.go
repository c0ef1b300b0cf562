package model

// Quiz represents a row in the `quizzes` table.  Questions live in their own
// table and are loaded separately when needed.
//
// Fields:
//  ID      – primary key identifier of the quiz.
//  Subject – human readable subject name shown in listings.
type Quiz struct {
	ID        uint64     // quizzes.id
	Subject   string     // quizzes.subject
	Questions []Question // loaded on demand, not a column
}

// Question represents a row in the `questions` table.  Each question belongs
// to exactly one quiz and offers four options, one of which is correct.
// The ID is a generated UUID so questions can be addressed individually when
// editing a quiz.
//
// Fields:
//  ID            – UUID primary key.
//  QuizID        – owning quiz.
//  QuestionText  – the prompt.
//  OptionA..D    – the four answer options.
//  CorrectAnswer – which option is correct: "A", "B", "C" or "D".
type Question struct {
	ID            string `json:"id"`            // questions.id
	QuizID        uint64 `json:"-"`             // questions.quiz_id
	QuestionText  string `json:"questionText"`  // questions.question_text
	OptionA       string `json:"optionA"`       // questions.option_a
	OptionB       string `json:"optionB"`       // questions.option_b
	OptionC       string `json:"optionC"`       // questions.option_c
	OptionD       string `json:"optionD"`       // questions.option_d
	CorrectAnswer string `json:"correctAnswer,omitempty"` // questions.correct_answer
}

// Sanitized returns a copy of the question with the correct answer stripped,
// safe to hand to a quiz taker.
func (q Question) Sanitized() Question {
	q.CorrectAnswer = ""
	return q
}
