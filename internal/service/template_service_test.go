package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateService_CreateAndResolve(t *testing.T) {
	e := newTestEnv(t)
	svc := NewTemplateService(e.templates)
	resolver := NewTemplateResolver(e.templates, e.logger)

	_, err := svc.CreateTemplate(context.Background(), CreateTemplateDTO{
		ActorName: "Section Head",
		ModelType: model.ModelTypeSection,
		StepOrder: 1,
	})
	require.NoError(t, err)

	after := 1
	_, err = svc.CreateTemplate(context.Background(), CreateTemplateDTO{
		ActorName:       "QA Review",
		ModelType:       model.ModelTypeSection,
		IsInsertStep:    true,
		InsertAfterStep: &after,
		AppliesToLines:  []string{"M1"},
	})
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), "M1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Section Head", "QA Review"}, actorNames(resolved))
}

func TestTemplateService_InsertStepNeedsLines(t *testing.T) {
	e := newTestEnv(t)
	svc := NewTemplateService(e.templates)

	_, err := svc.CreateTemplate(context.Background(), CreateTemplateDTO{
		ActorName:    "QA Review",
		ModelType:    model.ModelTypeSection,
		IsInsertStep: true,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestTemplateService_BaseStepNeedsOrder(t *testing.T) {
	e := newTestEnv(t)
	svc := NewTemplateService(e.templates)

	_, err := svc.CreateTemplate(context.Background(), CreateTemplateDTO{
		ActorName: "Section Head",
		ModelType: model.ModelTypeSection,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestTemplateService_DeactivateRemovesFromResolution(t *testing.T) {
	e := newTestEnv(t)
	svc := NewTemplateService(e.templates)
	resolver := NewTemplateResolver(e.templates, e.logger)

	first, err := svc.CreateTemplate(context.Background(), CreateTemplateDTO{
		ActorName: "Section Head",
		ModelType: model.ModelTypeSection,
		StepOrder: 1,
	})
	require.NoError(t, err)
	_, err = svc.CreateTemplate(context.Background(), CreateTemplateDTO{
		ActorName: "Department Head",
		ModelType: model.ModelTypeDepartment,
		StepOrder: 2,
	})
	require.NoError(t, err)

	updated, err := svc.SetTemplateActive(context.Background(), first.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	resolved, err := resolver.Resolve(context.Background(), "M1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Department Head"}, actorNames(resolved))
	assert.Equal(t, 1, resolved[0].StepOrder) // renumbered from scratch
}
