package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineCode(t *testing.T) {
	cases := []struct {
		name    string
		number  string
		want    string
		wantErr bool
	}{
		{"full number", "AUT/M1/2026/08/00001", "M1", false},
		{"minimal", "HOV/Z9", "Z9", false},
		{"lowercase normalized", "AUT/m1/2026/08/00001", "M1", false},
		{"no separator", "AUT-M1-00001", "", true},
		{"empty line segment", "AUT//2026", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLineCode(tc.number)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsKind(err, apperror.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDocNumberGenerator_SequencePerPrefix(t *testing.T) {
	e := newTestEnv(t)
	gen := NewDocNumberGenerator(e.db, e.docs)
	submitter := e.createUser(t, "EMP001", "staff")

	now := time.Now()
	wantPrefix := fmt.Sprintf("AUT/M1/%04d/%02d/", now.Year(), int(now.Month()))

	first, err := gen.Next(context.Background(), model.DocTypeAuthorization, "m1")
	require.NoError(t, err)
	assert.Equal(t, wantPrefix+"00001", first)

	// The sequence only advances once a document carrying the number exists.
	require.NoError(t, e.db.Create(&model.Document{
		DocType:     model.DocTypeAuthorization,
		DocNumber:   first,
		LineCode:    "M1",
		Title:       "numbered",
		SubmitterID: submitter.ID,
		Status:      model.DocStatusSubmitted,
	}).Error)

	second, err := gen.Next(context.Background(), model.DocTypeAuthorization, "M1")
	require.NoError(t, err)
	assert.Equal(t, wantPrefix+"00002", second)

	// A different line code sequences independently.
	other, err := gen.Next(context.Background(), model.DocTypeAuthorization, "Z9")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(other, "/00001"))
	assert.Contains(t, other, "/Z9/")
}

func TestDocNumberGenerator_UnknownDocType(t *testing.T) {
	e := newTestEnv(t)
	gen := NewDocNumberGenerator(e.db, e.docs)

	_, err := gen.Next(context.Background(), "MEMO", "M1")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
