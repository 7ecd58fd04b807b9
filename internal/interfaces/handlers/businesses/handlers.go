package businesses

import (
	"errors"
	"mime/multipart"
	"strconv"

	svc "bizmart-backend/internal/application/businesses"
	"bizmart-backend/internal/interfaces/view"
	"bizmart-backend/internal/middleware"
	"bizmart-backend/internal/pkg/response"
	"bizmart-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const createPath = "/businesses/create"

// photoFields are the multipart keys accepted for listing photos.
var photoFields = []string{"photos", "photos[]"}

// Handlers holds dependencies for listing endpoints.
type Handlers struct {
	Service *svc.Service
	View    view.Renderer
}

// Index GET /businesses renders every visible listing grouped by transaction type.
func (h *Handlers) Index(c *fiber.Ctx) error {
	out, err := h.Service.BrowseAll(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return err
	}
	return h.View.Render(c, "Businesses", fiber.Map{
		"auction":           out.Auction,
		"sale":              out.Sale,
		"investment":        out.Investment,
		"lease":             out.Lease,
		"categories":        out.Categories,
		"popularCategories": out.PopularCategories,
	})
}

// Search GET /businesses/search?search=&category=&activeTransactionType=&page=
func (h *Handlers) Search(c *fiber.Ctx) error {
	in := svc.SearchInput{
		Search:                c.Query("search"),
		ActiveTransactionType: c.Query("activeTransactionType"),
		Page:                  c.QueryInt("page", 1),
	}
	if raw := c.Query("category"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			cat := uint(id)
			in.CategoryID = &cat
		}
	}
	out, err := h.Service.Search(c.UserContext(), in)
	if err != nil {
		return err
	}
	return h.View.Render(c, "Businesses", fiber.Map{
		"auction":               out.Auction,
		"sale":                  out.Sale,
		"investment":            out.Investment,
		"lease":                 out.Lease,
		"search":                out.Search,
		"activeTransactionType": out.ActiveTransactionType,
		"categories":            out.Categories,
	})
}

// Create GET /businesses/create renders the listing form.
func (h *Handlers) Create(c *fiber.Ctx) error {
	form, err := h.Service.ShowForm(c.UserContext())
	if err != nil {
		return err
	}
	return h.View.Render(c, "Post", fiber.Map{
		"categories":        form.Categories,
		"properties":        form.Properties,
		"transaction_types": form.TransactionTypes,
	})
}

// Show GET /businesses/:listing_id renders one listing; an unknown id renders
// business as null.
func (h *Handlers) Show(c *fiber.Ctx) error {
	out, err := h.Service.Business(c.UserContext(), c.Params("listing_id"), middleware.GetViewer(c))
	if err != nil {
		return err
	}
	return h.View.Render(c, "Business", fiber.Map{
		"user":       out.User,
		"business":   out.Business,
		"bookmarks":  out.Bookmarks,
		"isLoggedIn": out.IsLoggedIn,
	})
}

// Store POST /businesses accepts the multipart listing form with photos.
func (h *Handlers) Store(c *fiber.Ctx) error {
	var in svc.SubmitInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form data")
	}
	files, err := h.photos(c, &in)
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	if err != nil {
		return err
	}

	b, err := h.Service.Store(c.UserContext(), in, middleware.GetViewer(c))
	if errs, ok := validation.AsErrors(err); ok {
		if view.WantsJSON(c) {
			return response.Unprocessable(c, "The given data was invalid.", errs)
		}
		middleware.SetFlash(c, "", errs)
		return c.RedirectBack(createPath, fiber.StatusSeeOther)
	}
	if errors.Is(err, svc.ErrUnauthenticated) {
		return response.Unauthorized(c, "Unauthorized")
	}
	if err != nil {
		return err
	}

	log.Info().Str("listing_id", b.ListingID).Uint("user_id", b.UserID).Int("photos", len(b.Images)).Msg("business submitted")
	if view.WantsJSON(c) {
		return response.SuccessCreated(c, svc.SubmittedMessage, b, nil)
	}
	middleware.SetFlash(c, svc.SubmittedMessage, nil)
	return c.RedirectBack(createPath, fiber.StatusSeeOther)
}

// Update PUT /businesses/:listing_id is accepted and changes nothing.
func (h *Handlers) Update(c *fiber.Ctx) error {
	if err := h.Service.Update(c.UserContext(), c.Params("listing_id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// photos opens every uploaded photo into in.Photos. The returned files must be
// closed by the caller.
func (h *Handlers) photos(c *fiber.Ctx, in *svc.SubmitInput) ([]multipart.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// not multipart: no photos
		return nil, nil
	}
	var files []multipart.File
	for _, field := range photoFields {
		for _, fh := range form.File[field] {
			f, err := fh.Open()
			if err != nil {
				return files, err
			}
			files = append(files, f)
			in.Photos = append(in.Photos, svc.PhotoUpload{Filename: fh.Filename, Content: f})
		}
	}
	return files, nil
}
