package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/coachingcourse/course-service/internal/repositories"
)

const (
	QuizResultsSheet = "Quiz Results"
	UsersSheet       = "Users"

	exportTimeLayout = "2006-01-02 15:04:05"
	exportPageSize   = 100
)

var (
	quizResultHeaders = []string{"Result ID", "User ID", "Username", "Email", "Quiz ID", "Quiz Title", "Module ID", "Section ID", "Score", "Passed", "Completed At"}
	userHeaders       = []string{"User ID", "Name", "Username", "Email", "Role", "Status", "Registered At", "Last Login"}
)

type exportService struct {
	repo   repositories.Repository
	logger *ServiceLogger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: NewServiceLogger(logger, "export"),
	}
}

func (s *exportService) ExportQuizResults(ctx context.Context, filters repositories.QuizResultFilters) (*bytes.Buffer, error) {
	results, err := s.repo.QuizResult().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}

	rows := make([][]any, 0, len(results))
	for _, r := range results {
		var username, email, quizTitle string
		if r.User != nil {
			username, email = r.User.Username, r.User.Email
		}
		if r.Quiz != nil {
			quizTitle = r.Quiz.Title
		}
		rows = append(rows, []any{
			r.ID, r.UserID, username, email, r.QuizID, quizTitle,
			r.ModuleID, r.SectionID, r.Score, r.Passed,
			r.CompletionDate.UTC().Format(exportTimeLayout),
		})
	}

	buf, err := writeSheet(QuizResultsSheet, quizResultHeaders, rows)
	if err != nil {
		return nil, err
	}
	s.logger.Logger().InfoContext(ctx, "Exported quiz results", "rows", len(rows))
	return buf, nil
}

func (s *exportService) ExportUsers(ctx context.Context) (*bytes.Buffer, error) {
	var rows [][]any
	filters := repositories.UserFilters{SortBy: "registration_date", SortOrder: "asc", Limit: exportPageSize}
	for {
		users, total, err := s.repo.User().List(ctx, nil, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		for _, u := range users {
			rows = append(rows, []any{
				u.ID, u.Name, u.Username, u.Email, string(u.Role), string(u.Status),
				u.RegistrationDate.UTC().Format(exportTimeLayout), formatOptionalTime(u.LastLogin),
			})
		}
		filters.Offset += len(users)
		if len(users) == 0 || int64(filters.Offset) >= total {
			break
		}
	}

	buf, err := writeSheet(UsersSheet, userHeaders, rows)
	if err != nil {
		return nil, err
	}
	s.logger.Logger().InfoContext(ctx, "Exported users", "rows", len(rows))
	return buf, nil
}

// writeSheet renders a workbook with a single sheet: headers in row 1, one row per record after it
func writeSheet(sheetName string, headers []string, rows [][]any) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(exportTimeLayout)
}
