package businesses

import (
	"bizmart-backend/internal/application/catalog"
	"bizmart-backend/internal/application/emails"
	"bizmart-backend/internal/infrastructure/events"
	"bizmart-backend/internal/infrastructure/storage"
	"bizmart-backend/internal/pkg/uid"
	"bizmart-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

// DefaultPageSize is used when Service.PageSize is zero.
const DefaultPageSize = 15

// SubmittedMessage is the acknowledgment shown after a successful submission.
const SubmittedMessage = "Business has been created and under review, you will been notified via email once approved!"

// Service implements browse, search, detail and submission of business listings.
type Service struct {
	DB        *gorm.DB
	Catalog   *catalog.Service
	Storage   storage.Storage
	IDs       uid.Generator
	Bus       events.Bus
	Subject   string
	Mailer    emails.Sender
	Validator *validation.Validator
	PageSize  int
}

func (s *Service) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return DefaultPageSize
}
