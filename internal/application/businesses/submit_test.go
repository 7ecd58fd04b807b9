package businesses

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"bizmart-backend/internal/domain"
	"bizmart-backend/internal/infrastructure/events"
	"bizmart-backend/internal/infrastructure/storage"
	"bizmart-backend/internal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var photoName = regexp.MustCompile(`^businesses/[A-Za-z0-9]{50}\.(jpg|png)$`)

func TestStore_CreatesPendingListingWithPhotos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Store(ctx, f.validInput(), f.viewer())
	require.NoError(t, err)

	assert.Equal(t, "listing-1", b.ListingID)
	assert.Equal(t, domain.StatusPending, b.Status)
	assert.Equal(t, domain.Unsold, b.BusinessStatus)
	assert.True(t, b.BusinessState)
	assert.Equal(t, f.owner.ID, b.UserID)
	assert.Equal(t, domain.Sale, b.TransactionType)
	assert.Equal(t, 4, b.Staffs)
	assert.InDelta(t, 22.5, b.ProfitMargin, 0.001)
	require.NotNil(t, b.City)
	assert.Equal(t, "Lagos", *b.City)
	assert.Nil(t, b.Landmark)

	var stored domain.Business
	require.NoError(t, f.db.Preload("Images").Where("listing_id = ?", "listing-1").First(&stored).Error)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.True(t, stored.BusinessState)
	require.Len(t, stored.Images, 2)

	contents := map[string]string{}
	for _, img := range stored.Images {
		assert.Regexp(t, photoName, img.Path)
		assert.Equal(t, "/storage/"+img.Path, img.URL)
		data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(img.Path)))
		require.NoError(t, err)
		contents[filepath.Ext(img.Path)] = string(data)
	}
	assert.Equal(t, map[string]string{".jpg": jpegPhoto, ".png": pngPhoto}, contents)

	var cat domain.Category
	require.NoError(t, f.db.First(&cat, f.category.ID).Error)
	assert.Equal(t, 1, cat.BusinessCount)

	var evts []domain.BusinessEvent
	require.NoError(t, f.db.Where("business_id = ?", b.ID).Find(&evts).Error)
	require.Len(t, evts, 1)
	assert.Equal(t, domain.EventSubmitted, evts[0].EventType)

	require.Len(t, f.bus.msgs, 1)
	assert.Equal(t, "businesses.submitted", f.bus.msgs[0].subject)
	assert.Equal(t, "listing-1", f.bus.msgs[0].msgID)
	var evt events.BusinessSubmitted
	require.NoError(t, json.Unmarshal(f.bus.msgs[0].data, &evt))
	assert.Equal(t, "sale", evt.TransactionType)
	assert.Equal(t, 2, evt.ImageCount)

	assert.Equal(t, []string{"ada@example.com"}, f.mailer.to)
	assert.Equal(t, []string{"Mama Put Kitchen"}, f.mailer.business)
}

func TestStore_SniffsExtensionWhenMissing(t *testing.T) {
	f := newFixture(t)
	in := f.validInput()
	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32)
	in.Photos = []PhotoUpload{{Filename: "blob", Content: strings.NewReader(png)}}

	b, err := f.svc.Store(context.Background(), in, f.viewer())
	require.NoError(t, err)
	require.Len(t, b.Images, 1)
	assert.True(t, strings.HasSuffix(b.Images[0].Path, ".png"), b.Images[0].Path)

	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(b.Images[0].Path)))
	require.NoError(t, err)
	assert.Equal(t, png, string(data))
}

func TestStore_RequiresOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Store(context.Background(), f.validInput(), nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestStore_RequiredFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Store(context.Background(), SubmitInput{}, f.viewer())

	errs, ok := validation.AsErrors(err)
	require.True(t, ok, "got %v", err)
	for _, field := range []string{
		"business_name", "business_year", "business_type", "category_id", "property_id",
		"age", "business_number", "description", "staffs", "transaction_type", "price",
		"profit_margin", "photos",
	} {
		assert.Contains(t, errs, field)
	}
	assert.Equal(t, "The business name field is required.", errs["business_name"])
	assert.NotContains(t, errs, "landmark")

	var count int64
	f.db.Model(&domain.Business{}).Count(&count)
	assert.Zero(t, count)
}

func TestStore_FieldRules(t *testing.T) {
	f := newFixture(t)
	in := f.validInput()
	in.BusinessYear = "20a4"
	in.TransactionType = "rent"
	in.Price = "ten"
	in.CategoryID = "999"
	in.Ends = "next week"

	_, err := f.svc.Store(context.Background(), in, f.viewer())
	errs, ok := validation.AsErrors(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "The business year field must be 4 digits.", errs["business_year"])
	assert.Equal(t, "The selected transaction type is invalid.", errs["transaction_type"])
	assert.Equal(t, "The price field must be a number.", errs["price"])
	assert.Equal(t, "The selected category id is invalid.", errs["category_id"])
	assert.Contains(t, errs, "ends")
	assert.NotContains(t, errs, "business_name")
}

func TestStore_AcceptsDatetimeLocalEnds(t *testing.T) {
	f := newFixture(t)
	in := f.validInput()
	in.TransactionType = "auction"
	in.Ends = "2026-12-01T18:30"

	b, err := f.svc.Store(context.Background(), in, f.viewer())
	require.NoError(t, err)
	require.NotNil(t, b.Ends)
	assert.Equal(t, 18, b.Ends.Hour())
}

func TestStore_UniqueNameAndNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Store(ctx, f.validInput(), f.viewer())
	require.NoError(t, err)

	_, err = f.svc.Store(ctx, f.validInput(), f.viewer())
	errs, ok := validation.AsErrors(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "The business name has already been taken.", errs["business_name"])
	assert.Equal(t, "Reg. number has been used!", errs["business_number"])

	var count int64
	f.db.Model(&domain.Business{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestStore_ConcurrentDuplicateBecomesFieldError(t *testing.T) {
	f := newFixture(t)
	in := f.validInput()

	// Commit a listing with the same name right after the last uniqueness
	// check, before Store inserts.
	fired := false
	err := f.db.Callback().Query().After("gorm:query").Register("test:competing_insert", func(tx *gorm.DB) {
		if fired || !strings.Contains(tx.Statement.SQL.String(), "business_number = ?") {
			return
		}
		fired = true
		f.seed(t, in.BusinessName, domain.Auction)
	})
	require.NoError(t, err)

	_, err = f.svc.Store(context.Background(), in, f.viewer())
	require.True(t, fired)
	errs, ok := validation.AsErrors(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "The business name has already been taken.", errs["business_name"])
	assert.NotContains(t, errs, "business_number")

	var count int64
	f.db.Model(&domain.Business{}).Count(&count)
	assert.Equal(t, int64(1), count)
	entries, _ := os.ReadDir(filepath.Join(f.root, storage.BusinessPhotosDir))
	assert.Empty(t, entries)
	assert.Empty(t, f.bus.msgs)
}

func TestStore_PhotoFailureRollsBackAndRemovesFiles(t *testing.T) {
	f := newFixture(t)
	local := f.svc.Storage.(*storage.Local)
	f.svc.Storage = &failingStorage{Local: local, failAt: 2}

	_, err := f.svc.Store(context.Background(), f.validInput(), f.viewer())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorePhoto), "got %v", err)

	var count int64
	f.db.Model(&domain.Business{}).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&domain.Image{}).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&domain.BusinessEvent{}).Count(&count)
	assert.Zero(t, count)

	entries, err := os.ReadDir(filepath.Join(f.root, storage.BusinessPhotosDir))
	require.NoError(t, err)
	assert.Empty(t, entries)

	var cat domain.Category
	require.NoError(t, f.db.First(&cat, f.category.ID).Error)
	assert.Zero(t, cat.BusinessCount)
	assert.Empty(t, f.bus.msgs)
	assert.Empty(t, f.mailer.to)
}

func TestStore_DuplicateListingIDIsNotAFieldError(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "Existing", domain.Sale, func(b *domain.Business) { b.ListingID = "listing-1" })

	_, err := f.svc.Store(context.Background(), f.validInput(), f.viewer())
	require.Error(t, err)
	_, isValidation := validation.AsErrors(err)
	assert.False(t, isValidation)

	entries, _ := os.ReadDir(filepath.Join(f.root, storage.BusinessPhotosDir))
	assert.Empty(t, entries)
}

func TestStore_MailerFailureDoesNotFailSubmission(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	b, err := f.svc.Store(context.Background(), f.validInput(), f.viewer())
	require.NoError(t, err)
	assert.NotEmpty(t, b.ListingID)
}

func TestUpdate_NoOp(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, "Static", domain.Sale)
	require.NoError(t, f.svc.Update(context.Background(), b.ListingID))

	var after domain.Business
	require.NoError(t, f.db.First(&after, b.ID).Error)
	assert.Equal(t, b.BusinessName, after.BusinessName)
	assert.Equal(t, b.UpdatedAt.Unix(), after.UpdatedAt.Unix())
}

func TestStore_RejectsNonImagePhotos(t *testing.T) {
	f := newFixture(t)
	in := f.validInput()
	in.Photos = append(in.Photos, PhotoUpload{
		Filename: "x.html",
		Content:  strings.NewReader("<html><script>alert(1)</script></html>"),
	})

	_, err := f.svc.Store(context.Background(), in, f.viewer())
	errs, ok := validation.AsErrors(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, errs, "photos")

	var count int64
	f.db.Model(&domain.Business{}).Count(&count)
	assert.Zero(t, count)
	entries, _ := os.ReadDir(filepath.Join(f.root, storage.BusinessPhotosDir))
	assert.Empty(t, entries)
}

func TestStore_ExtensionFollowsContentNotFilename(t *testing.T) {
	f := newFixture(t)
	in := f.validInput()
	in.Photos = []PhotoUpload{{Filename: "page.html", Content: strings.NewReader(pngPhoto)}}

	b, err := f.svc.Store(context.Background(), in, f.viewer())
	require.NoError(t, err)
	require.Len(t, b.Images, 1)
	assert.Regexp(t, photoName, b.Images[0].Path)
	assert.True(t, strings.HasSuffix(b.Images[0].Path, ".png"), b.Images[0].Path)
}

func TestStore_PrecheckStoreFailuresAreNotFieldErrors(t *testing.T) {
	errDown := errors.New("store down")
	cases := map[string]func(tx *gorm.DB) bool{
		"category lookup": func(tx *gorm.DB) bool { return tx.Statement.Table == "categories" },
		"property lookup": func(tx *gorm.DB) bool { return tx.Statement.Table == "properties" },
		"uniqueness count": func(tx *gorm.DB) bool {
			return strings.Contains(tx.Statement.SQL.String(), "business_name = ?")
		},
	}
	for name, match := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			err := f.db.Callback().Query().After("gorm:query").Register("test:fail_lookup", func(tx *gorm.DB) {
				if match(tx) {
					tx.AddError(errDown)
				}
			})
			require.NoError(t, err)

			_, err = f.svc.Store(context.Background(), f.validInput(), f.viewer())
			require.Error(t, err)
			assert.ErrorIs(t, err, errDown)
			_, isValidation := validation.AsErrors(err)
			assert.False(t, isValidation)

			var count int64
			f.db.Model(&domain.Business{}).Count(&count)
			assert.Zero(t, count)
		})
	}
}
