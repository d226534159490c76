package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocumentService(e *testEnv) DocumentService {
	templates := NewTemplateResolver(e.templates, e.logger)
	approvers := NewApproverResolver(e.orgs, e.logger)
	chains := NewChainBuilder(e.steps, e.docs, e.history, StartSubmitterApproved, e.logger)
	numbers := NewDocNumberGenerator(e.db, e.docs)
	return NewDocumentService(e.txm, e.docs, e.users, e.history, templates, approvers, chains, numbers, nil, e.logger)
}

// seedSubmissionFixture configures everything CreateDocument needs: a base
// chain of two templates, a line-scoped insert step, section heads and a
// submitter attached to a section.
func seedSubmissionFixture(t *testing.T, e *testEnv) *model.User {
	t.Helper()

	sectionHead := e.createUser(t, "HEAD01", "approver")
	deptHead := e.createUser(t, "HEAD02", "approver")
	qaHead := e.createUser(t, "HEAD03", "approver")

	ownSection := e.createSectionWithHead(t, "SEC-OWN", sectionHead)
	deptSection := e.createSectionWithHead(t, "SEC-DEP", deptHead)
	qaSection := e.createSectionWithHead(t, "SEC-QA", qaHead)

	seedBaseTemplate(t, e, 1, "Section Head") // dynamic: submitter's section
	require.NoError(t, e.db.Create(&model.ApprovalTemplate{
		StepOrder: 2,
		ActorName: "Department Review",
		ModelType: model.ModelTypeSection,
		SectionID: &deptSection.ID,
		IsActive:  true,
	}).Error)
	after := 1
	require.NoError(t, e.db.Create(&model.ApprovalTemplate{
		StepOrder:       99,
		ActorName:       "QA Review",
		ModelType:       model.ModelTypeSection,
		SectionID:       &qaSection.ID,
		IsInsertStep:    true,
		InsertAfterStep: &after,
		AppliesToLines:  `["M1"]`,
		IsActive:        true,
	}).Error)

	submitter := e.createUser(t, "SUBM01", "staff")
	submitter.SectionID = &ownSection.ID
	require.NoError(t, e.db.Save(submitter).Error)
	return submitter
}

func TestCreateDocument_FullSubmissionPipeline(t *testing.T) {
	e := newTestEnv(t)
	svc := newDocumentService(e)
	submitter := seedSubmissionFixture(t, e)

	resp, err := svc.CreateDocument(context.Background(), submitter.ID, CreateDocumentDTO{
		DocType:  model.DocTypeAuthorization,
		Title:    "New press line tooling",
		LineCode: "M1",
		Amount:   "1250.50",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.DocNumber, "AUT/M1/")
	assert.Equal(t, "M1", resp.LineCode)
	assert.Equal(t, "1250.5000", resp.Amount)
	assert.Equal(t, model.DocStatusOnProgress, resp.Status)

	// Submitter auto-step, section head, the M1-scoped QA insert, then the
	// fixed department review: four steps, first approved, second on-going.
	require.Len(t, resp.Steps, 4)
	assert.Equal(t, "Submitter", resp.Steps[0].ActorLabel)
	assert.Equal(t, model.StepStatusApproved, resp.Steps[0].Status)
	assert.Equal(t, "Section Head", resp.Steps[1].ActorLabel)
	assert.Equal(t, model.StepStatusOnGoing, resp.Steps[1].Status)
	assert.Equal(t, "QA Review", resp.Steps[2].ActorLabel)
	assert.Equal(t, "Department Review", resp.Steps[3].ActorLabel)
	assert.Equal(t, 25, resp.Progress)

	// The initial submission is on the record.
	docID, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	history, total, err := svc.ListHistory(context.Background(), docID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, history, 1)
	assert.Equal(t, model.DocStatusSubmitted, history[0].Status)
}

func TestCreateDocument_LineOutsideInsertScope(t *testing.T) {
	e := newTestEnv(t)
	svc := newDocumentService(e)
	submitter := seedSubmissionFixture(t, e)

	resp, err := svc.CreateDocument(context.Background(), submitter.ID, CreateDocumentDTO{
		DocType:  model.DocTypeHandover,
		Title:    "Line handover",
		LineCode: "Z9",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.DocNumber, "HOV/Z9/")
	require.Len(t, resp.Steps, 3) // no QA insert for Z9
	assert.Equal(t, "Submitter", resp.Steps[0].ActorLabel)
	assert.Equal(t, "Section Head", resp.Steps[1].ActorLabel)
	assert.Equal(t, "Department Review", resp.Steps[2].ActorLabel)
}

func TestCreateDocument_ExternalNumberWins(t *testing.T) {
	e := newTestEnv(t)
	svc := newDocumentService(e)
	submitter := seedSubmissionFixture(t, e)

	resp, err := svc.CreateDocument(context.Background(), submitter.ID, CreateDocumentDTO{
		DocType:   model.DocTypeAuthorization,
		Title:     "Externally numbered",
		LineCode:  "ignored",
		DocNumber: "AUT/M1/2026/08/90001",
	})
	require.NoError(t, err)

	assert.Equal(t, "AUT/M1/2026/08/90001", resp.DocNumber)
	// The line code comes from the number, not the request field.
	assert.Equal(t, "M1", resp.LineCode)
}

func TestCreateDocument_MalformedExternalNumber(t *testing.T) {
	e := newTestEnv(t)
	svc := newDocumentService(e)
	submitter := seedSubmissionFixture(t, e)

	_, err := svc.CreateDocument(context.Background(), submitter.ID, CreateDocumentDTO{
		DocType:   model.DocTypeAuthorization,
		Title:     "Bad number",
		LineCode:  "M1",
		DocNumber: "no-separators",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// The whole submission rolled back with it.
	var count int64
	require.NoError(t, e.db.Model(&model.Document{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateDocument_InvalidAmount(t *testing.T) {
	e := newTestEnv(t)
	svc := newDocumentService(e)
	submitter := seedSubmissionFixture(t, e)

	_, err := svc.CreateDocument(context.Background(), submitter.ID, CreateDocumentDTO{
		DocType:  model.DocTypeAuthorization,
		Title:    "Bad amount",
		LineCode: "M1",
		Amount:   "twelve",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestCreateDocument_UnknownSubmitter(t *testing.T) {
	e := newTestEnv(t)
	svc := newDocumentService(e)
	seedSubmissionFixture(t, e)

	_, err := svc.CreateDocument(context.Background(), uuid.New(), CreateDocumentDTO{
		DocType:  model.DocTypeAuthorization,
		Title:    "Ghost submitter",
		LineCode: "M1",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCreateDocument_NoTemplatesConfigured(t *testing.T) {
	e := newTestEnv(t)
	svc := newDocumentService(e)
	submitter := e.createUser(t, "SUBM01", "staff")

	_, err := svc.CreateDocument(context.Background(), submitter.ID, CreateDocumentDTO{
		DocType:  model.DocTypeAuthorization,
		Title:    "No chain possible",
		LineCode: "M1",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// Atomic create: no half-built document survives.
	var count int64
	require.NoError(t, e.db.Model(&model.Document{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestListHistory_UnknownDocument(t *testing.T) {
	e := newTestEnv(t)
	svc := newDocumentService(e)

	_, _, err := svc.ListHistory(context.Background(), uuid.New(), 1, 10)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
