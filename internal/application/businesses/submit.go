package businesses

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bizmart-backend/internal/domain"
	"bizmart-backend/internal/infrastructure/events"
	"bizmart-backend/internal/infrastructure/storage"
	"bizmart-backend/internal/pkg/uid"
	"bizmart-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// PhotoNameLength is the length of the random stored photo file name.
const PhotoNameLength = 50

const dateTimeLocal = "2006-01-02T15:04"

var (
	ErrUnauthenticated = errors.New("businesses: owner is required")
	ErrStorePhoto      = errors.New("businesses: failed to store photo")
)

// sniffedExtension lists the accepted photo types and their stored extension.
var sniffedExtension = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/webp": "webp",
}

// SubmitInput is the raw form of a new listing.
type SubmitInput struct {
	BusinessName    string `form:"business_name" validate:"required"`
	BusinessYear    string `form:"business_year" validate:"required,digits=4"`
	BusinessType    string `form:"business_type" validate:"required"`
	CategoryID      string `form:"category_id" validate:"required,number"`
	PropertyID      string `form:"property_id" validate:"required,number"`
	Age             string `form:"age" validate:"required"`
	BusinessNumber  string `form:"business_number" validate:"required"`
	Description     string `form:"description" validate:"required"`
	Address         string `form:"address"`
	Lga             string `form:"lga"`
	City            string `form:"city"`
	State           string `form:"state"`
	Country         string `form:"country"`
	Landmark        string `form:"landmark"`
	Staffs          string `form:"staffs" validate:"required,number"`
	TransactionType string `form:"transaction_type" validate:"required"`
	Price           string `form:"price" validate:"required,numeric"`
	ProfitMargin    string `form:"profit_margin" validate:"required,numeric"`
	Ends            string `form:"ends"`

	Photos []PhotoUpload `form:"-"`
}

// PhotoUpload is one uploaded image. Content is read once; the stored type
// and extension come from its leading bytes, never from Filename.
type PhotoUpload struct {
	Filename string
	Content  io.Reader
}

// Store validates in and creates a pending listing owned by owner with its
// photos. Validation failures are returned as validation.Errors.
func (s *Service) Store(ctx context.Context, in SubmitInput, owner *domain.Viewer) (*domain.Business, error) {
	if owner == nil {
		return nil, ErrUnauthenticated
	}
	in = trimInput(in)
	in.Photos = append([]PhotoUpload(nil), in.Photos...)
	types := sniffPhotos(in.Photos)

	b, errs, err := s.validate(ctx, in, types)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs
	}
	b.ListingID = s.IDs.Generate()
	b.UserID = owner.UserID
	b.Status = domain.StatusPending
	b.BusinessStatus = domain.Unsold
	b.BusinessState = true

	var stored []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		for i, p := range in.Photos {
			img, err := s.storePhoto(ctx, p, types[i])
			if err != nil {
				return err
			}
			stored = append(stored, img.Path)
			img.BusinessID = b.ID
			if err := tx.Create(img).Error; err != nil {
				return err
			}
			b.Images = append(b.Images, *img)
		}
		err := tx.Model(&domain.Category{}).
			Where("id = ?", b.CategoryID).
			UpdateColumn("business_count", gorm.Expr("business_count + ?", 1)).Error
		if err != nil {
			return err
		}
		return tx.Create(submittedEvent(b, owner)).Error
	})
	if err != nil {
		s.discard(ctx, stored)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			errs, uerr := s.uniqueErrors(ctx, b.BusinessName, b.BusinessNumber)
			if uerr != nil {
				return nil, uerr
			}
			if len(errs) > 0 {
				return nil, errs
			}
		}
		return nil, fmt.Errorf("store business: %w", err)
	}

	s.afterSubmit(ctx, b, owner)
	return b, nil
}

// Update is reserved for listing edits and currently changes nothing.
func (s *Service) Update(ctx context.Context, listingID string) error {
	return nil
}

func trimInput(in SubmitInput) SubmitInput {
	for _, f := range []*string{
		&in.BusinessName, &in.BusinessYear, &in.BusinessType, &in.CategoryID, &in.PropertyID,
		&in.Age, &in.BusinessNumber, &in.Description, &in.Address, &in.Lga, &in.City,
		&in.State, &in.Country, &in.Landmark, &in.Staffs, &in.TransactionType, &in.Price,
		&in.ProfitMargin, &in.Ends,
	} {
		*f = strings.TrimSpace(*f)
	}
	return in
}

// validate checks in field by field and builds the listing on success.
// Store failures are returned as err, separate from field errors.
func (s *Service) validate(ctx context.Context, in SubmitInput, photoTypes []string) (*domain.Business, validation.Errors, error) {
	errs := s.Validator.Struct(in)
	switch {
	case len(in.Photos) == 0:
		errs.Add("photos", "The photos field is required.")
	case lo.SomeBy(photoTypes, func(t string) bool { _, ok := sniffedExtension[t]; return !ok }):
		errs.Add("photos", "The photos must be images of type jpg, png, gif, bmp or webp.")
	}

	b := &domain.Business{
		BusinessName:   in.BusinessName,
		BusinessYear:   in.BusinessYear,
		BusinessType:   in.BusinessType,
		Age:            in.Age,
		BusinessNumber: in.BusinessNumber,
		Description:    in.Description,
		Address:        lo.EmptyableToPtr(in.Address),
		Lga:            lo.EmptyableToPtr(in.Lga),
		City:           lo.EmptyableToPtr(in.City),
		State:          lo.EmptyableToPtr(in.State),
		Country:        lo.EmptyableToPtr(in.Country),
		Landmark:       lo.EmptyableToPtr(in.Landmark),
	}

	if _, bad := errs["transaction_type"]; !bad {
		t, err := domain.ParseTransactionType(in.TransactionType)
		if err != nil {
			errs.Add("transaction_type", "The selected transaction type is invalid.")
		}
		b.TransactionType = t
	}
	if _, bad := errs["staffs"]; !bad {
		n, err := strconv.Atoi(in.Staffs)
		if err != nil {
			errs.Add("staffs", "The staffs field must be an integer.")
		}
		b.Staffs = n
	}
	if _, bad := errs["price"]; !bad {
		b.Price, _ = strconv.ParseFloat(in.Price, 64)
	}
	if _, bad := errs["profit_margin"]; !bad {
		b.ProfitMargin, _ = strconv.ParseFloat(in.ProfitMargin, 64)
	}
	if in.Ends != "" {
		ends, err := parseEnds(in.Ends)
		if err != nil {
			errs.Add("ends", "The ends field must be a valid date.")
		} else {
			b.Ends = &ends
		}
	}

	if _, bad := errs["category_id"]; !bad {
		id, _ := strconv.ParseUint(in.CategoryID, 10, 64)
		ok, err := s.Catalog.CategoryExists(ctx, uint(id))
		if err != nil {
			return nil, nil, fmt.Errorf("check category: %w", err)
		}
		if !ok {
			errs.Add("category_id", "The selected category id is invalid.")
		}
		b.CategoryID = uint(id)
	}
	if _, bad := errs["property_id"]; !bad {
		id, _ := strconv.ParseUint(in.PropertyID, 10, 64)
		ok, err := s.Catalog.PropertyExists(ctx, uint(id))
		if err != nil {
			return nil, nil, fmt.Errorf("check property: %w", err)
		}
		if !ok {
			errs.Add("property_id", "The selected property id is invalid.")
		}
		b.PropertyID = uint(id)
	}

	name, number := in.BusinessName, in.BusinessNumber
	if _, bad := errs["business_name"]; bad {
		name = ""
	}
	if _, bad := errs["business_number"]; bad {
		number = ""
	}
	taken, err := s.uniqueErrors(ctx, name, number)
	if err != nil {
		return nil, nil, err
	}
	for field, msg := range taken {
		errs.Add(field, msg)
	}
	return b, errs, nil
}

// uniqueErrors reports which of name and number are already taken. Empty
// arguments are skipped.
func (s *Service) uniqueErrors(ctx context.Context, name, number string) (validation.Errors, error) {
	errs := validation.Errors{}
	taken := func(column, value string) (bool, error) {
		var n int64
		err := s.DB.WithContext(ctx).Model(&domain.Business{}).Where(column+" = ?", value).Count(&n).Error
		if err != nil {
			return false, fmt.Errorf("check %s: %w", column, err)
		}
		return n > 0, nil
	}
	if name != "" {
		ok, err := taken("business_name", name)
		if err != nil {
			return nil, err
		}
		if ok {
			errs.Add("business_name", "The business name has already been taken.")
		}
	}
	if number != "" {
		ok, err := taken("business_number", number)
		if err != nil {
			return nil, err
		}
		if ok {
			errs.Add("business_number", "Reg. number has been used!")
		}
	}
	return errs, nil
}

func parseEnds(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(dateTimeLocal, v)
}

// sniffPhotos buffers each photo in place and returns its detected content type.
func sniffPhotos(photos []PhotoUpload) []string {
	types := make([]string, len(photos))
	for i := range photos {
		br := bufio.NewReaderSize(photos[i].Content, 512)
		head, _ := br.Peek(512)
		types[i] = http.DetectContentType(head)
		photos[i].Content = br
	}
	return types
}

// storePhoto writes p under businesses/ with a random name and the extension of
// its sniffed contentType.
func (s *Service) storePhoto(ctx context.Context, p PhotoUpload, contentType string) (*domain.Image, error) {
	ext, ok := sniffedExtension[contentType]
	if !ok {
		return nil, fmt.Errorf("%w %q: unsupported type %s", ErrStorePhoto, p.Filename, contentType)
	}
	name, err := uid.RandomString(PhotoNameLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorePhoto, err)
	}
	stored, err := s.Storage.Put(ctx, storage.BusinessPhotosDir, name+"."+ext, contentType, p.Content)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrStorePhoto, p.Filename, err)
	}
	return &domain.Image{URL: s.Storage.URL(stored), Path: stored}, nil
}

// discard removes files written by a failed submission.
func (s *Service) discard(ctx context.Context, paths []string) {
	lo.ForEach(paths, func(p string, _ int) {
		if err := s.Storage.Delete(context.WithoutCancel(ctx), p); err != nil {
			log.Error().Err(err).Str("path", p).Msg("failed to remove orphaned photo")
		}
	})
}

func submittedEvent(b *domain.Business, owner *domain.Viewer) *domain.BusinessEvent {
	data, _ := json.Marshal(map[string]interface{}{
		"business_name":    b.BusinessName,
		"transaction_type": b.TransactionType,
		"images":           len(b.Images),
	})
	return &domain.BusinessEvent{
		BusinessID: b.ID,
		ListingID:  b.ListingID,
		EventType:  domain.EventSubmitted,
		EventData:  data,
		ActorID:    &owner.UserID,
	}
}

// afterSubmit runs the side effects of a committed submission. Failures are logged.
func (s *Service) afterSubmit(ctx context.Context, b *domain.Business, owner *domain.Viewer) {
	if err := s.Catalog.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
	if s.Bus != nil {
		evt := events.BusinessSubmitted{
			ListingID:       b.ListingID,
			BusinessName:    b.BusinessName,
			TransactionType: b.TransactionType.String(),
			OwnerID:         owner.UserID,
			ImageCount:      len(b.Images),
			SubmittedAt:     b.CreatedAt,
		}
		if err := events.PublishJSON(ctx, s.Bus, s.Subject, b.ListingID, evt); err != nil {
			log.Error().Err(err).Str("listing_id", b.ListingID).Msg("failed to publish submission event")
		}
	}
	if s.Mailer != nil {
		if err := s.Mailer.SendSubmissionReceived(ctx, owner.Email, owner.Name, b.BusinessName); err != nil {
			log.Error().Err(err).Str("listing_id", b.ListingID).Msg("failed to send submission email")
		}
	}
}
