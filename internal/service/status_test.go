package service

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func stepsWith(statuses ...string) []model.ApprovalStep {
	steps := make([]model.ApprovalStep, 0, len(statuses))
	for i, s := range statuses {
		steps = append(steps, model.ApprovalStep{StepOrder: i + 1, Status: s})
	}
	return steps
}

func TestComputeProgress(t *testing.T) {
	cases := []struct {
		name     string
		statuses []string
		want     int
	}{
		{"empty chain", nil, 0},
		{"none approved", []string{model.StepStatusOnGoing, model.StepStatusPending}, 0},
		{"one of three", []string{model.StepStatusApproved, model.StepStatusOnGoing, model.StepStatusPending}, 33},
		{"two of three rounds up", []string{model.StepStatusApproved, model.StepStatusApproved, model.StepStatusOnGoing}, 67},
		{"all approved", []string{model.StepStatusApproved, model.StepStatusApproved}, 100},
		{"rejected still counts approvals", []string{model.StepStatusApproved, model.StepStatusRejected}, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, computeProgress(stepsWith(tc.statuses...)))
		})
	}
}

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"all approved", []string{model.StepStatusApproved, model.StepStatusApproved}, model.DocStatusDone},
		{"still moving", []string{model.StepStatusApproved, model.StepStatusOnGoing}, model.DocStatusOnProgress},
		{"pending tail", []string{model.StepStatusApproved, model.StepStatusPending}, model.DocStatusOnProgress},
		{"not approved outranks open", []string{model.StepStatusNotApproved, model.StepStatusOnGoing}, model.DocStatusNotApproved},
		{"rejected outranks everything", []string{model.StepStatusApproved, model.StepStatusRejected, model.StepStatusNotApproved}, model.DocStatusRejected},
		{"empty chain", nil, model.DocStatusOnProgress},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, aggregateStatus(stepsWith(tc.statuses...)))
		})
	}
}
