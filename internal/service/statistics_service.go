package service

import (
	"context"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates approval throughput for documents submitted inside
// the time window, plus the longest-waiting open steps across all documents.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	inRange := func(db *gorm.DB) *gorm.DB {
		return db.Where("documents.created_at >= ? AND documents.created_at <= ?", startDate, endDate)
	}

	if err := s.db.WithContext(ctx).Model(&model.Document{}).
		Scopes(inRange).
		Count(&response.TotalDocuments).Error; err != nil {
		return response, err
	}

	if err := s.db.WithContext(ctx).Model(&model.Document{}).
		Select("status, COUNT(*) as count").
		Scopes(inRange).
		Group("status").
		Order("count DESC").
		Scan(&response.StatusCounts).Error; err != nil {
		return response, err
	}

	if err := s.db.WithContext(ctx).Model(&model.Document{}).
		Select("line_code, COUNT(*) as count").
		Scopes(inRange).
		Group("line_code").
		Order("count DESC").
		Limit(5).
		Scan(&response.TopLines).Error; err != nil {
		return response, err
	}

	var avg struct {
		Value *float64
	}
	if err := s.db.WithContext(ctx).Model(&model.Document{}).
		Select("AVG(progress) as value").
		Scopes(inRange).
		Where("documents.status = ?", model.DocStatusOnProgress).
		Scan(&avg).Error; err != nil {
		return response, err
	}
	if avg.Value != nil {
		response.AverageProgress = *avg.Value
	}

	if err := s.db.WithContext(ctx).Model(&model.BypassLog{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Count(&response.BypassCount).Error; err != nil {
		return response, err
	}

	if err := s.db.WithContext(ctx).Table("approval_steps").
		Select("approval_steps.document_id as document_id, documents.doc_number as doc_number, approval_steps.step_order as step_order, approval_steps.actor_label as actor_label, users.display_name as approver_name, approval_steps.updated_at as waiting_since").
		Joins("JOIN documents ON documents.id = approval_steps.document_id").
		Joins("JOIN users ON users.id = approval_steps.approver_id").
		Where("approval_steps.status = ?", model.StepStatusOnGoing).
		Order("approval_steps.updated_at ASC").
		Limit(5).
		Scan(&response.OldestOpenSteps).Error; err != nil {
		return response, err
	}

	return response, nil
}
