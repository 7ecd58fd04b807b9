package businesses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"bizmart-backend/internal/application/catalog"
	"bizmart-backend/internal/domain"
	"bizmart-backend/internal/infrastructure/database/dbtest"
	"bizmart-backend/internal/infrastructure/storage"
	"bizmart-backend/internal/pkg/validation"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Minimal payloads carrying the JPEG and PNG signatures.
const (
	jpegPhoto = "\xff\xd8\xff\xe0jpeg-1"
	pngPhoto  = "\x89PNG\r\n\x1a\npng-2"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("listing-%d", g.n)
}

type published struct {
	subject, msgID string
	data           []byte
}

type recordingBus struct {
	mu   sync.Mutex
	msgs []published
}

func (b *recordingBus) Publish(_ context.Context, subject string, data []byte, msgID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{subject: subject, msgID: msgID, data: data})
	return nil
}

func (b *recordingBus) Drain() error { return nil }

type recordingMailer struct {
	to, business []string
	err          error
}

func (m *recordingMailer) SendSubmissionReceived(_ context.Context, toEmail, _ string, businessName string) error {
	m.to = append(m.to, toEmail)
	m.business = append(m.business, businessName)
	return m.err
}

// failingStorage delegates to Local and fails the nth Put.
type failingStorage struct {
	*storage.Local
	failAt int
	puts   int
}

func (f *failingStorage) Put(ctx context.Context, dir, name, contentType string, r io.Reader) (string, error) {
	f.puts++
	if f.puts == f.failAt {
		return "", errors.New("disk full")
	}
	return f.Local.Put(ctx, dir, name, contentType, r)
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	root     string
	bus      *recordingBus
	mailer   *recordingMailer
	owner    *domain.User
	category domain.Category
	property domain.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	root := t.TempDir()
	local, err := storage.NewLocal(root, "/storage")
	require.NoError(t, err)

	f := &fixture{db: db, root: root, bus: &recordingBus{}, mailer: &recordingMailer{}}
	f.svc = &Service{
		DB:        db,
		Catalog:   &catalog.Service{DB: db},
		Storage:   local,
		IDs:       &seqIDs{},
		Bus:       f.bus,
		Subject:   "businesses.submitted",
		Mailer:    f.mailer,
		Validator: validation.New(),
	}

	f.owner = &domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(f.owner).Error)
	f.category = domain.Category{Name: "Food", Status: true}
	require.NoError(t, db.Create(&f.category).Error)
	f.property = domain.Property{Name: "Shop", Status: true}
	require.NoError(t, db.Create(&f.property).Error)
	return f
}

func (f *fixture) viewer() *domain.Viewer {
	return domain.ViewerFromUser(f.owner)
}

// seed inserts a listing directly, bypassing Store.
func (f *fixture) seed(t *testing.T, name string, tt domain.TransactionType, mutate ...func(*domain.Business)) *domain.Business {
	t.Helper()
	b := &domain.Business{
		ListingID:       "seed-" + strings.ReplaceAll(name, " ", "-"),
		BusinessName:    name,
		BusinessYear:    "2019",
		BusinessType:    "Limited",
		BusinessNumber:  "RC-" + name,
		CategoryID:      f.category.ID,
		PropertyID:      f.property.ID,
		Age:             "5",
		Description:     "desc",
		Staffs:          3,
		TransactionType: tt,
		Price:           1000,
		ProfitMargin:    10,
		Status:          domain.StatusApproved,
		BusinessStatus:  domain.Unsold,
		BusinessState:   true,
		UserID:          f.owner.ID,
	}
	for _, m := range mutate {
		m(b)
	}
	require.NoError(t, f.db.Create(b).Error)
	return b
}

func (f *fixture) validInput() SubmitInput {
	return SubmitInput{
		BusinessName:    "Mama Put Kitchen",
		BusinessYear:    "2018",
		BusinessType:    "Sole proprietorship",
		CategoryID:      fmt.Sprint(f.category.ID),
		PropertyID:      fmt.Sprint(f.property.ID),
		Age:             "6",
		BusinessNumber:  "BN-778812",
		Description:     "Busy canteen near the market",
		City:            "Lagos",
		Staffs:          "4",
		TransactionType: "sale",
		Price:           "2500000",
		ProfitMargin:    "22.5",
		Photos: []PhotoUpload{
			{Filename: "front.JPG", Content: strings.NewReader(jpegPhoto)},
			{Filename: "inside.png", Content: strings.NewReader(pngPhoto)},
		},
	}
}
