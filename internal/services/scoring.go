package services

import "github.com/coachingcourse/course-service/internal/models"

// Evaluation is the graded outcome of one quiz submission
type Evaluation struct {
	Score   int
	Passed  bool
	Correct int
	Total   int
	Answers []models.AnswerResult
}

// ScoreQuiz grades answers against the quiz questions by position. A nil,
// missing or out-of-range answer counts as wrong. The percentage is rounded
// half-up in integer arithmetic; a quiz without questions scores 0.
func ScoreQuiz(questions []models.Question, passingScore int, answers []*int) Evaluation {
	total := len(questions)
	results := make([]models.AnswerResult, total)
	correct := 0

	for i, q := range questions {
		var given *int
		if i < len(answers) && answers[i] != nil {
			v := *answers[i]
			given = &v
		}

		isCorrect := given != nil &&
			*given >= 0 && *given < len(q.Options) &&
			*given == q.CorrectAnswer
		if isCorrect {
			correct++
		}

		results[i] = models.AnswerResult{
			QuestionIndex: i,
			AnswerIndex:   given,
			IsCorrect:     isCorrect,
		}
	}

	score := 0
	if total > 0 {
		score = (200*correct + total) / (2 * total)
	}

	return Evaluation{
		Score:   score,
		Passed:  score >= passingScore,
		Correct: correct,
		Total:   total,
		Answers: results,
	}
}
