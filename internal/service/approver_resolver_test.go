package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproverResolver_FixedAndDynamicUnits(t *testing.T) {
	e := newTestEnv(t)
	resolver := NewApproverResolver(e.orgs, e.logger)

	sectionHead := e.createUser(t, "EMP010", "approver")
	docSectionHead := e.createUser(t, "EMP011", "approver")
	fixedSection := e.createSectionWithHead(t, "SEC-A", sectionHead)
	docSection := e.createSectionWithHead(t, "SEC-B", docSectionHead)

	submitter := e.createUser(t, "EMP012", "staff")
	doc := e.createDocument(t, submitter, "M1")
	doc.SectionID = &docSection.ID

	resolved, err := resolver.ResolveAll(context.Background(), doc, []model.ApprovalTemplate{
		{ActorName: "Fixed Section Head", ModelType: model.ModelTypeSection, SectionID: &fixedSection.ID},
		// No section on the template: the document's own section decides.
		{ActorName: "Own Section Head", ModelType: model.ModelTypeSection},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	assert.Equal(t, "Fixed Section Head", resolved[0].ActorLabel)
	assert.Equal(t, sectionHead.ID, resolved[0].Approver.ID)
	assert.Equal(t, "Own Section Head", resolved[1].ActorLabel)
	assert.Equal(t, docSectionHead.ID, resolved[1].Approver.ID)
}

func TestApproverResolver_DepartmentHead(t *testing.T) {
	e := newTestEnv(t)
	resolver := NewApproverResolver(e.orgs, e.logger)

	head := e.createUser(t, "EMP020", "approver")
	dept := &model.Department{Code: "DEP-A", Name: "Department A", HeadUserID: &head.ID}
	require.NoError(t, e.db.Create(dept).Error)

	submitter := e.createUser(t, "EMP021", "staff")
	doc := e.createDocument(t, submitter, "M1")
	doc.DepartmentID = &dept.ID

	resolved, err := resolver.ResolveAll(context.Background(), doc, []model.ApprovalTemplate{
		{ActorName: "Department Head", ModelType: model.ModelTypeDepartment},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, head.ID, resolved[0].Approver.ID)
}

func TestApproverResolver_ConfigurationGapsAreDropped(t *testing.T) {
	e := newTestEnv(t)
	resolver := NewApproverResolver(e.orgs, e.logger)

	head := e.createUser(t, "EMP030", "approver")
	goodSection := e.createSectionWithHead(t, "SEC-A", head)
	headlessSection := e.createSectionWithHead(t, "SEC-B", nil)

	submitter := e.createUser(t, "EMP031", "staff")
	doc := e.createDocument(t, submitter, "M1")

	resolved, err := resolver.ResolveAll(context.Background(), doc, []model.ApprovalTemplate{
		{ActorName: "Headless Section", ModelType: model.ModelTypeSection, SectionID: &headlessSection.ID},
		// The document has no section either, so a dynamic lookup has nothing
		// to substitute.
		{ActorName: "Dynamic Without Unit", ModelType: model.ModelTypeSection},
		{ActorName: "Working Step", ModelType: model.ModelTypeSection, SectionID: &goodSection.ID},
	})
	require.NoError(t, err)

	// Unresolvable steps vanish instead of failing the submission.
	require.Len(t, resolved, 1)
	assert.Equal(t, "Working Step", resolved[0].ActorLabel)
	assert.Equal(t, head.ID, resolved[0].Approver.ID)
}
