package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStatistics(t *testing.T) {
	e := newTestEnv(t)
	svc := NewStatisticsService(e.db)

	// One chain in progress at 50%, one finished, one rejected.
	e.createChainedDocument(t, []string{model.StepStatusApproved, model.StepStatusOnGoing})
	e.createChainedDocument(t, []string{model.StepStatusApproved, model.StepStatusApproved})
	doc, _ := e.createChainedDocument(t, []string{model.StepStatusRejected})
	require.NoError(t, e.db.Create(&model.BypassLog{
		DocumentID:   doc.ID,
		AdminID:      doc.SubmitterID,
		Strategy:     model.BypassStrategyFull,
		BeforeStatus: model.DocStatusOnProgress,
		AfterStatus:  model.DocStatusDone,
		Reason:       "test",
	}).Error)

	stats, err := svc.GetStatistics(context.Background(), time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.TotalDocuments)
	assert.EqualValues(t, 1, stats.BypassCount)

	counts := make(map[string]int64, len(stats.StatusCounts))
	for _, sc := range stats.StatusCounts {
		counts[sc.Status] = sc.Count
	}
	assert.EqualValues(t, 1, counts[model.DocStatusOnProgress])
	assert.EqualValues(t, 1, counts[model.DocStatusDone])
	assert.EqualValues(t, 1, counts[model.DocStatusRejected])

	// All seeded documents are on line M1.
	require.Len(t, stats.TopLines, 1)
	assert.Equal(t, "M1", stats.TopLines[0].LineCode)
	assert.EqualValues(t, 3, stats.TopLines[0].Count)

	// Only one open document, at 50 percent.
	assert.InDelta(t, 50.0, stats.AverageProgress, 0.01)

	require.Len(t, stats.OldestOpenSteps, 1)
	assert.Equal(t, 2, stats.OldestOpenSteps[0].StepOrder)
}

func TestGetStatistics_EmptyWindow(t *testing.T) {
	e := newTestEnv(t)
	svc := NewStatisticsService(e.db)

	e.createChainedDocument(t, []string{model.StepStatusOnGoing})

	// A window entirely in the past sees nothing except open steps, which are
	// not time-bounded.
	stats, err := svc.GetStatistics(context.Background(), time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalDocuments)
	assert.Empty(t, stats.StatusCounts)
	assert.Len(t, stats.OldestOpenSteps, 1)
}
