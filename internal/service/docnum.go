package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"gorm.io/gorm"
)

// Document number prefixes per document kind.
var docNumberPrefixes = map[string]string{
	model.DocTypeAuthorization: "AUT",
	model.DocTypeHandover:      "HOV",
}

// ParseLineCode extracts the line code from a structured document number of
// the form "segment/LINE_CODE/segment...". Fewer than two segments is a
// Validation error.
func ParseLineCode(docNumber string) (string, error) {
	parts := strings.Split(docNumber, "/")
	if len(parts) < 2 {
		return "", apperror.New(apperror.KindValidation, "malformed document number %q", docNumber)
	}
	line := strings.ToUpper(strings.TrimSpace(parts[1]))
	if line == "" {
		return "", apperror.New(apperror.KindValidation, "malformed document number %q: empty line code", docNumber)
	}
	return line, nil
}

// DocNumberGenerator issues structured document numbers
// (PREFIX/LINE/YYYY/MM/SEQ). It stands in for the external numbering service.
type DocNumberGenerator interface {
	Next(ctx context.Context, docType, lineCode string) (string, error)
}

type docNumberGenerator struct {
	db   *gorm.DB
	docs repository.DocumentRepository
}

func NewDocNumberGenerator(db *gorm.DB, docs repository.DocumentRepository) DocNumberGenerator {
	return &docNumberGenerator{db: db, docs: docs}
}

func (g *docNumberGenerator) Next(ctx context.Context, docType, lineCode string) (string, error) {
	prefix, ok := docNumberPrefixes[docType]
	if !ok {
		return "", apperror.New(apperror.KindValidation, "unknown document type %q", docType)
	}

	now := time.Now()
	numberPrefix := fmt.Sprintf("%s/%s/%04d/%02d/", prefix, strings.ToUpper(lineCode), now.Year(), int(now.Month()))

	// Advisory lock prevents concurrent duplicate numbers under the same
	// prefix; sqlite under test is single-writer already.
	db := repository.GetDB(ctx, g.db)
	if g.db.Dialector.Name() == "postgres" {
		db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", numberPrefix)
	}

	count, err := g.docs.CountByNumberPrefix(ctx, numberPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to count documents for numbering: %w", err)
	}

	return fmt.Sprintf("%s%05d", numberPrefix, count+1), nil
}
