package service

import (
	"context"
	"fmt"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Section{},
		&model.Department{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.ApprovalTemplate{},
		&model.Document{},
		&model.DocumentMember{},
		&model.ApprovalStep{},
		&model.HistoryEntry{},
		&model.BypassLog{},
	))

	return db
}

type testEnv struct {
	db        *gorm.DB
	txm       repository.TransactionManager
	users     repository.UserRepository
	tokens    repository.RefreshTokenRepository
	orgs      repository.OrgRepository
	templates repository.TemplateRepository
	docs      repository.DocumentRepository
	steps     repository.StepRepository
	history   repository.HistoryRepository
	bypasses  repository.BypassLogRepository
	logger    zerolog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	db := newTestDB(t)
	return &testEnv{
		db:        db,
		txm:       repository.NewTransactionManager(db),
		users:     repository.NewUserRepository(db),
		tokens:    repository.NewRefreshTokenRepository(db),
		orgs:      repository.NewOrgRepository(db),
		templates: repository.NewTemplateRepository(db),
		docs:      repository.NewDocumentRepository(db),
		steps:     repository.NewStepRepository(db),
		history:   repository.NewHistoryRepository(db),
		bypasses:  repository.NewBypassLogRepository(db),
		logger:    zerolog.Nop(),
	}
}

func (e *testEnv) createUser(t *testing.T, code, role string) *model.User {
	t.Helper()
	user := &model.User{
		EmployeeCode: code,
		Username:     code,
		DisplayName:  "User " + code,
		Email:        code + "@example.com",
		Password:     "not-a-real-hash",
		Role:         role,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createSectionWithHead(t *testing.T, code string, head *model.User) *model.Section {
	t.Helper()
	section := &model.Section{Code: code, Name: "Section " + code}
	if head != nil {
		section.HeadUserID = &head.ID
	}
	require.NoError(t, e.db.Create(section).Error)
	return section
}

func (e *testEnv) createDocument(t *testing.T, submitter *model.User, lineCode string) *model.Document {
	t.Helper()
	doc := &model.Document{
		DocType:     model.DocTypeAuthorization,
		DocNumber:   fmt.Sprintf("AUT/%s/2026/08/%05d", lineCode, nextDocSeq()),
		LineCode:    lineCode,
		Title:       "Test document",
		SubmitterID: submitter.ID,
		Submitter:   submitter,
		Status:      model.DocStatusSubmitted,
	}
	require.NoError(t, e.db.Create(doc).Error)
	return doc
}

var docSeq int

func nextDocSeq() int {
	docSeq++
	return docSeq
}

// createChainedDocument seeds a document with one step per status, one fresh
// approver per step, and a consistent aggregate state.
func (e *testEnv) createChainedDocument(t *testing.T, statuses []string) (*model.Document, []*model.User) {
	t.Helper()

	submitter := e.createUser(t, fmt.Sprintf("SUB%04d", nextDocSeq()), "staff")
	doc := e.createDocument(t, submitter, "M1")

	approvers := make([]*model.User, 0, len(statuses))
	steps := make([]model.ApprovalStep, 0, len(statuses))
	for i, status := range statuses {
		approver := e.createUser(t, fmt.Sprintf("APP%04d", nextDocSeq()), "approver")
		approvers = append(approvers, approver)
		steps = append(steps, model.ApprovalStep{
			DocumentID: doc.ID,
			StepOrder:  i + 1,
			ActorLabel: fmt.Sprintf("Reviewer %d", i+1),
			ApproverID: approver.ID,
			Status:     status,
		})
	}
	require.NoError(t, e.db.Create(&steps).Error)

	doc.Status = aggregateStatus(steps)
	doc.Progress = computeProgress(steps)
	require.NoError(t, e.db.Save(doc).Error)

	return doc, approvers
}

func (e *testEnv) chainStatuses(t *testing.T, doc *model.Document) []string {
	t.Helper()
	steps, err := e.steps.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	statuses := make([]string, 0, len(steps))
	for _, s := range steps {
		statuses = append(statuses, s.Status)
	}
	return statuses
}

func (e *testEnv) historyCount(t *testing.T, doc *model.Document) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&model.HistoryEntry{}).Where("document_id = ?", doc.ID).Count(&count).Error)
	return count
}

// requireSingleOnGoing asserts the core chain invariant: at most one step is
// ON_GOING at any committed point.
func requireSingleOnGoing(t *testing.T, statuses []string) {
	t.Helper()
	onGoing := 0
	for _, s := range statuses {
		if s == model.StepStatusOnGoing {
			onGoing++
		}
	}
	require.LessOrEqual(t, onGoing, 1, "more than one ON_GOING step: %v", statuses)
}
