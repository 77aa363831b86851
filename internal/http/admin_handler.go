package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/service"
	"github.com/google/uuid"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	xlsxMimeType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ProductsAPI interface {
	List(ctx context.Context, session *access.Session, search string, page domain.PageRequest) (domain.Page[domain.Product], error)
	Get(ctx context.Context, session *access.Session, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, session *access.Session, in service.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, session *access.Session, id uuid.UUID, in service.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, session *access.Session, id uuid.UUID) error
	Export(ctx context.Context, session *access.Session, w io.Writer) error
}

type FAQsAPI interface {
	List(ctx context.Context, session *access.Session) ([]domain.FAQ, error)
	Create(ctx context.Context, session *access.Session, in service.FAQInput) (*domain.FAQ, error)
	Update(ctx context.Context, session *access.Session, id uuid.UUID, in service.FAQInput) (*domain.FAQ, error)
	Delete(ctx context.Context, session *access.Session, id uuid.UUID) error
}

type SettingsAPI interface {
	Get(ctx context.Context) (*domain.SiteSettings, error)
	Update(ctx context.Context, session *access.Session, settings *domain.SiteSettings) (*domain.SiteSettings, error)
}

type NavAPI interface {
	List(ctx context.Context, session *access.Session, location domain.NavLocation) ([]domain.NavItem, error)
	Create(ctx context.Context, session *access.Session, in service.NavInput) (*domain.NavItem, error)
	Update(ctx context.Context, session *access.Session, id uuid.UUID, in service.NavInput) (*domain.NavItem, error)
	Delete(ctx context.Context, session *access.Session, id uuid.UUID) error
}

type MediaAPI interface {
	List(ctx context.Context, session *access.Session, page domain.PageRequest) (domain.Page[domain.Media], error)
	Upload(ctx context.Context, session *access.Session, up service.Upload) (*domain.Media, error)
	UpdateAlt(ctx context.Context, session *access.Session, id uuid.UUID, alt *string) (*domain.Media, error)
	Delete(ctx context.Context, session *access.Session, id uuid.UUID) error
}

type UsersAPI interface {
	List(ctx context.Context, session *access.Session) ([]domain.User, error)
	Create(ctx context.Context, session *access.Session, in service.UserInput) (*domain.User, error)
	Update(ctx context.Context, session *access.Session, id uuid.UUID, in service.UserInput) (*domain.User, error)
	Delete(ctx context.Context, session *access.Session, id uuid.UUID) error
}

type DashboardAPI interface {
	Stats(ctx context.Context, session *access.Session) (*domain.DashboardStats, error)
}

// AdminHandler backs the back-office JSON API. Every route sits behind
// Gate.AdminAPI; the services apply the per-role permission checks.
type AdminHandler struct {
	products  ProductsAPI
	faqs      FAQsAPI
	settings  SettingsAPI
	nav       NavAPI
	media     MediaAPI
	users     UsersAPI
	dashboard DashboardAPI
	timeout   time.Duration
}

type AdminServices struct {
	Products  ProductsAPI
	FAQs      FAQsAPI
	Settings  SettingsAPI
	Nav       NavAPI
	Media     MediaAPI
	Users     UsersAPI
	Dashboard DashboardAPI
}

func NewAdminHandler(s AdminServices, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		products:  s.Products,
		faqs:      s.FAQs,
		settings:  s.Settings,
		nav:       s.Nav,
		media:     s.Media,
		users:     s.Users,
		dashboard: s.Dashboard,
		timeout:   timeout,
	}
}

type UpdateMediaRequestDTO struct {
	AltText *string `json:"alt_text"`
}

func (h *AdminHandler) begin(r *http.Request) (context.Context, context.CancelFunc, *access.Session) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	return ctx, cancel, access.SessionFrom(r.Context())
}

// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	stats, err := h.dashboard.Stats(ctx, session)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GET /api/admin/products?search=&page=&limit=
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	page, err := h.products.List(ctx, session, r.URL.Query().Get("search"), pageQuery(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GET /api/admin/products/export
func (h *AdminHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	// buffered so a failed export still gets a JSON error
	var buf bytes.Buffer
	if err := h.products.Export(ctx, session, &buf); err != nil {
		respondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxMimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GET /api/admin/products/{id}
func (h *AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	product, err := h.products.Get(ctx, session, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// POST /api/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	var in service.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := h.products.Create(ctx, session, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// PUT /api/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in service.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := h.products.Update(ctx, session, id, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// DELETE /api/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(ctx, session, id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/admin/faqs
func (h *AdminHandler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	faqs, err := h.faqs.List(ctx, session)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, faqs)
}

// POST /api/admin/faqs
func (h *AdminHandler) CreateFAQ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	var in service.FAQInput
	if !decodeJSON(w, r, &in) {
		return
	}
	faq, err := h.faqs.Create(ctx, session, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, faq)
}

// PUT /api/admin/faqs/{id}
func (h *AdminHandler) UpdateFAQ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in service.FAQInput
	if !decodeJSON(w, r, &in) {
		return
	}
	faq, err := h.faqs.Update(ctx, session, id, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, faq)
}

// DELETE /api/admin/faqs/{id}
func (h *AdminHandler) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.faqs.Delete(ctx, session, id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/admin/settings
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, _ := h.begin(r)
	defer cancel()

	settings, err := h.settings.Get(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// PUT /api/admin/settings
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	var in domain.SiteSettings
	if !decodeJSON(w, r, &in) {
		return
	}
	settings, err := h.settings.Update(ctx, session, &in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// GET /api/admin/nav?location=
func (h *AdminHandler) ListNav(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	items, err := h.nav.List(ctx, session, domain.NavLocation(r.URL.Query().Get("location")))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// POST /api/admin/nav
func (h *AdminHandler) CreateNav(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	var in service.NavInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.nav.Create(ctx, session, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// PUT /api/admin/nav/{id}
func (h *AdminHandler) UpdateNav(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in service.NavInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.nav.Update(ctx, session, id, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DELETE /api/admin/nav/{id}
func (h *AdminHandler) DeleteNav(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.nav.Delete(ctx, session, id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/admin/media?page=&limit=
func (h *AdminHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	page, err := h.media.List(ctx, session, pageQuery(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// POST /api/admin/media (multipart, field "file")
func (h *AdminHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	media, err := h.media.Upload(ctx, session, service.Upload{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Body:         file,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, media)
}

// PATCH /api/admin/media/{id}
func (h *AdminHandler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateMediaRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	media, err := h.media.UpdateAlt(ctx, session, id, req.AltText)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, media)
}

// DELETE /api/admin/media/{id}
func (h *AdminHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.media.Delete(ctx, session, id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	users, err := h.users.List(ctx, session)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// POST /api/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	var in service.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.users.Create(ctx, session, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in service.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.users.Update(ctx, session, id, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, session := h.begin(r)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(ctx, session, id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
