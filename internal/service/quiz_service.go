package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/authz"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// QuizStore is the quiz data access needed by QuizService.
type QuizStore interface {
	Create(ctx context.Context, q *model.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Quiz, error)
	Update(ctx context.Context, q *model.Quiz) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuestionStore is the question data access needed by QuizService.
type QuestionStore interface {
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	ReplaceAll(ctx context.Context, quizID uuid.UUID, questions []model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttemptStore is the attempt data access needed by QuizService.
type AttemptStore interface {
	GetByQuizAndStudent(ctx context.Context, quizID uuid.UUID, studentID int) (*model.QuizAttempt, error)
	Create(ctx context.Context, a *model.QuizAttempt) error
}

// ProgressRecomputer is the enrollment side QuizService depends on:
// checking that a student is enrolled before grading, and refreshing
// their progress after a submission. Implemented by EnrollmentService.
type ProgressRecomputer interface {
	IsEnrolled(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error)
	Recompute(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Enrollment, error)
}

// QuizService handles quiz management, submission grading, and result
// reporting.
type QuizService struct {
	quizzes       QuizStore
	questions     QuestionStore
	attempts      AttemptStore
	progress      ProgressRecomputer
	courseService *CourseService
	notifier      Notifier
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	quizzes QuizStore,
	questions QuestionStore,
	attempts AttemptStore,
	progress ProgressRecomputer,
	courseService *CourseService,
	notifier Notifier,
) *QuizService {
	return &QuizService{
		quizzes:       quizzes,
		questions:     questions,
		attempts:      attempts,
		progress:      progress,
		courseService: courseService,
		notifier:      notifier,
	}
}

// ─── Quiz management ────────────────────────────────────────────────────────

// Create adds a quiz to a course owned by the actor.
func (s *QuizService) Create(ctx context.Context, actor authz.Actor, courseID uuid.UUID, req *model.CreateQuizRequest) (*model.Quiz, error) {
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(courseID)); err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		CourseID:        courseID,
		Title:           req.Title,
		PassingScore:    req.PassingScore,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// Get retrieves one quiz.
func (s *QuizService) Get(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return s.getByID(ctx, id)
}

// ListByCourse retrieves the quizzes of a course.
func (s *QuizService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Quiz, error) {
	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// Update applies a partial update after the course-ownership check.
func (s *QuizService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(quiz.CourseID)); err != nil {
		return nil, err
	}

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.DurationMinutes != nil {
		quiz.DurationMinutes = *req.DurationMinutes
	}

	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	return quiz, nil
}

// Delete removes a quiz after the course-ownership check.
func (s *QuizService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	quiz, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(quiz.CourseID)); err != nil {
		return err
	}
	if err := s.quizzes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

// AddQuestion appends one question to a quiz owned by the actor.
func (s *QuizService) AddQuestion(ctx context.Context, actor authz.Actor, quizID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	quiz, err := s.getByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(quiz.CourseID)); err != nil {
		return nil, err
	}

	question := &model.Question{
		QuizID:        quizID,
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		OrderNum:      req.OrderNum,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("add question: %w", err)
	}
	return question, nil
}

// ReplaceQuestions atomically swaps the full question set of a quiz.
func (s *QuizService) ReplaceQuestions(ctx context.Context, actor authz.Actor, quizID uuid.UUID, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	quiz, err := s.getByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(quiz.CourseID)); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, model.Question{
			QuizID:        quizID,
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			OrderNum:      q.OrderNum,
		})
	}

	if err := s.questions.ReplaceAll(ctx, quizID, questions); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}
	return questions, nil
}

// QuestionsForStudent returns a quiz's questions with the answer key
// stripped.
func (s *QuizService) QuestionsForStudent(ctx context.Context, quizID uuid.UUID) ([]model.QuestionForStudent, error) {
	if _, err := s.getByID(ctx, quizID); err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	out := make([]model.QuestionForStudent, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ForStudent())
	}
	return out, nil
}

// ─── Submission and grading ─────────────────────────────────────────────────

// Submit grades a student's answer set and persists it. The student
// must be enrolled in the quiz's course. Exactly one attempt may exist
// per (student, quiz) pair; the second submission is rejected and the
// first stays authoritative. On success the student's enrollment
// progress is recomputed.
func (s *QuizService) Submit(ctx context.Context, studentID int, quizID uuid.UUID, req *model.SubmitQuizRequest) (*model.QuizAttempt, error) {
	quiz, err := s.getByID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.progress.IsEnrolled(ctx, studentID, quiz.CourseID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	if _, err := s.attempts.GetByQuizAndStudent(ctx, quizID, studentID); err == nil {
		return nil, ErrAlreadySubmitted
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check attempt: %w", err)
	}

	questions, err := s.questions.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	attempt := &model.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		Answers:   req.Answers,
		Score:     gradeAnswers(questions, req.Answers),
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("persist attempt: %w", err)
	}

	if _, err := s.progress.Recompute(ctx, studentID, quiz.CourseID); err != nil {
		return nil, fmt.Errorf("recompute progress: %w", err)
	}

	s.notifier.Notify(ctx, studentID, model.NotificationQuizGraded,
		"Quiz graded", fmt.Sprintf("You scored %d/%d on %q.", attempt.Score, len(questions), quiz.Title))

	return attempt, nil
}

// GetResult recomputes the correct/wrong breakdown of a stored attempt
// against the question bank. Correct and wrong always sum to the quiz's
// question count; pass/fail compares the raw score to the passing
// threshold.
func (s *QuizService) GetResult(ctx context.Context, studentID int, quizID uuid.UUID) (*model.QuizResult, error) {
	quiz, err := s.getByID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attempts.GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	questions, err := s.questions.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	total := len(questions)
	correct := gradeAnswers(questions, attempt.Answers)

	percentage := 0.0
	if total > 0 {
		percentage = float64(correct) / float64(total) * 100
	}

	return &model.QuizResult{
		QuizID:          quizID,
		StudentID:       studentID,
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		WrongAnswers:    total - correct,
		Score:           attempt.Score,
		Percentage:      percentage,
		PassingScore:    quiz.PassingScore,
		Passed:          attempt.Score >= quiz.PassingScore,
		DurationSeconds: attempt.DurationSeconds(),
	}, nil
}

// CheckStatus reports whether the student has submitted the quiz. Pure
// read, no side effects.
func (s *QuizService) CheckStatus(ctx context.Context, studentID int, quizID uuid.UUID) (*model.QuizStatusResponse, error) {
	if _, err := s.getByID(ctx, quizID); err != nil {
		return nil, err
	}

	attempt, err := s.attempts.GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.QuizStatusResponse{Status: model.AttemptStatusNotAttempted}, nil
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	return &model.QuizStatusResponse{
		Status: model.AttemptStatusSubmitted,
		Score:  &attempt.Score,
	}, nil
}

func (s *QuizService) getByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

// gradeAnswers counts submitted answers matching the stored correct
// option. Unanswered questions simply do not match.
func gradeAnswers(questions []model.Question, answers map[string]string) int {
	score := 0
	for _, q := range questions {
		if chosen, ok := answers[q.ID.String()]; ok && chosen == q.CorrectOption {
			score++
		}
	}
	return score
}
