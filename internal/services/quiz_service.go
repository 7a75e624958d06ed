package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	notifier  EventNotifier
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewQuizService(repo repositories.Repository, notifier EventNotifier, logger *slog.Logger, validator *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		notifier:  notifier,
		logger:    NewServiceLogger(logger, "quiz"),
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ===== MANAGEMENT =====

func (s *quizService) List(ctx context.Context) ([]*models.Quiz, error) {
	quizzes, err := s.repo.Quiz().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

// Get returns the quiz for viewer; correct answers and explanations are only
// included for admins.
func (s *quizService) Get(ctx context.Context, id uint, viewer *models.User) (*QuizView, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrQuizNotFound, "get quiz")
	}
	return buildQuizView(quiz, viewer != nil && viewer.IsAdmin()), nil
}

func (s *quizService) Create(ctx context.Context, req *QuizRequest) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passingScore := models.DefaultPassingScore
	if req.PassingScore != nil {
		passingScore = *req.PassingScore
	}
	if errs := s.validator.Quiz().ValidateDefinition(passingScore, req.Questions); len(errs) > 0 {
		return nil, errs
	}

	quiz := &models.Quiz{
		SectionID:    req.SectionID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		PassingScore: passingScore,
		Questions:    req.Questions,
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		section, err := s.repo.Section().GetByID(ctx, tx, req.SectionID)
		if err != nil {
			return mapRepoError(err, ErrSectionNotFound, "get section")
		}
		if section.QuizID != nil {
			return ErrSectionHasQuiz
		}

		if err := s.repo.Quiz().Create(ctx, tx, quiz); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrSectionHasQuiz
			}
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		return s.repo.Section().SetQuiz(ctx, tx, section.ID, &quiz.ID)
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *QuizUpdateRequest) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrQuizNotFound, "get quiz")
	}

	if req.Title != nil {
		quiz.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.Questions != nil {
		quiz.Questions = req.Questions
	}

	if errs := s.validator.Quiz().ValidateDefinition(quiz.PassingScore, quiz.Questions); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, mapRepoError(err, ErrQuizNotFound, "update quiz")
	}
	return quiz, nil
}

// Delete removes the quiz with its results and detaches it from its section
func (s *quizService) Delete(ctx context.Context, id uint) error {
	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		quiz, err := s.repo.Quiz().GetByID(ctx, tx, id)
		if err != nil {
			return mapRepoError(err, ErrQuizNotFound, "get quiz")
		}

		if _, err := s.repo.QuizResult().DeleteByQuizzes(ctx, tx, []uint{id}); err != nil {
			return fmt.Errorf("failed to delete quiz results: %w", err)
		}
		if err := s.repo.Quiz().Delete(ctx, tx, id); err != nil {
			return mapRepoError(err, ErrQuizNotFound, "delete quiz")
		}

		err = s.repo.Section().SetQuiz(ctx, tx, quiz.SectionID, nil)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to detach quiz from section: %w", err)
		}
		return nil
	})
}

// ===== SUBMISSION =====

// Submit grades the answers, stores the result and, on a pass, marks the quiz
// section complete. Result and progress are written in one transaction; events
// go out only after commit.
func (s *quizService) Submit(ctx context.Context, quizID, userID uint, req *SubmitQuizRequest) (*QuizSubmissionResponse, error) {
	op := s.logger.WithOperation(ctx, "submit_quiz", userID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(quizID, "quiz", err)
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		err = mapRepoError(err, ErrQuizNotFound, "get quiz")
		op.LogResult(quizID, "quiz", err)
		return nil, err
	}

	section, err := s.repo.Section().GetByID(ctx, nil, quiz.SectionID)
	if err != nil {
		err = mapRepoError(err, ErrSectionNotFound, "get quiz section")
		op.LogResult(quizID, "quiz", err)
		return nil, err
	}
	if req.ModuleID != nil && *req.ModuleID != section.ModuleID {
		op.LogResult(quizID, "quiz", ErrModuleMismatch)
		return nil, ErrModuleMismatch
	}

	eval := ScoreQuiz(quiz.Questions, quiz.PassingScore, req.Answers)
	now := s.now()

	result := &models.QuizResult{
		UserID:         userID,
		QuizID:         quiz.ID,
		SectionID:      section.ID,
		ModuleID:       section.ModuleID,
		Score:          eval.Score,
		Passed:         eval.Passed,
		Answers:        eval.Answers,
		CompletionDate: now,
	}

	var progress *models.Progress
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.QuizResult().Create(ctx, tx, result); err != nil {
			return fmt.Errorf("failed to save quiz result: %w", err)
		}
		if !eval.Passed {
			return nil
		}
		var err error
		progress, err = recordProgress(ctx, s.repo, tx, userID, section.ModuleID, section.ID, true, now)
		return err
	})
	if err != nil {
		op.LogResult(quizID, "quiz", err)
		return nil, err
	}

	op.LogResult(quizID, "quiz", nil)
	s.notifier.NotifyQuizSubmitted(ctx, result)
	if progress != nil {
		s.notifier.NotifySectionCompleted(ctx, progress)
	}

	return &QuizSubmissionResponse{
		ResultID:       result.ID,
		Score:          eval.Score,
		Passed:         eval.Passed,
		PassingScore:   quiz.PassingScore,
		CorrectCount:   eval.Correct,
		TotalQuestions: eval.Total,
		Answers:        eval.Answers,
	}, nil
}

func (s *quizService) ListResults(ctx context.Context, userID uint, actor *models.User) ([]*models.QuizResult, error) {
	if err := requireSelfOrAdmin(actor, userID, "quiz_results", "list"); err != nil {
		return nil, err
	}
	results, err := s.repo.QuizResult().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	return results, nil
}

func buildQuizView(quiz *models.Quiz, withAnswers bool) *QuizView {
	view := &QuizView{
		ID:           quiz.ID,
		SectionID:    quiz.SectionID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		PassingScore: quiz.PassingScore,
		Questions:    make([]QuestionView, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		qv := QuestionView{Text: q.Text, Options: q.Options}
		if withAnswers {
			answer := q.CorrectAnswer
			qv.CorrectAnswer = &answer
			qv.Explanation = q.Explanation
		}
		view.Questions[i] = qv
	}
	return view
}
