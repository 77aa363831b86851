package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/cache"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/AlxM1/aelo/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func setupQueryCache(t *testing.T) (*cache.RedisQueryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisQueryCache(client, time.Minute), mr
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductService_Create(t *testing.T) {
	repo := setupRepo(t)
	qc, _ := setupQueryCache(t)
	svc := NewProductService(repo, qc, logger.Nop())
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, ProductInput{Name: strPtr("  Yuzu Ginger "), Price: decPtr("24.99")})
	require.NoError(t, err)
	assert.Equal(t, "Yuzu Ginger", p.Name)
	assert.Equal(t, "yuzu-ginger", p.Slug)
	assert.True(t, p.IsActive)
	assert.False(t, p.CompareAtPrice.Valid)
	assert.Equal(t, editor.UserID, p.CreatedByID.UUID)

	_, err = svc.Create(ctx, editor, ProductInput{Name: strPtr("Yuzu Ginger"), Price: decPtr("19.99")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Create(ctx, editor, ProductInput{Name: strPtr("Free"), Price: decPtr("-1")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, editor, ProductInput{Price: decPtr("1")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProductService_Permissions(t *testing.T) {
	repo := setupRepo(t)
	svc := NewProductService(repo, nil, logger.Nop())
	editor := newSession(t, repo, domain.RoleEditor)
	admin := newSession(t, repo, domain.RoleAdmin)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, ProductInput{Name: strPtr("Yuzu"), Price: decPtr("1")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	p, err := svc.Create(ctx, editor, ProductInput{Name: strPtr("Yuzu"), Price: decPtr("1")})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, editor, p.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, p.ID))

	_, err = svc.Get(ctx, admin, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductService_ListSearch(t *testing.T) {
	repo := setupRepo(t)
	svc := NewProductService(repo, nil, logger.Nop())
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	for _, name := range []string{"Yuzu Ginger", "Hibiscus Rose", "Blood Orange"} {
		_, err := svc.Create(ctx, editor, ProductInput{Name: strPtr(name), Price: decPtr("24.99")})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, editor, "", domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 50, page.Limit)

	page, err = svc.List(ctx, editor, "hibiscus", domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "hibiscus-rose", page.Items[0].Slug)
}

func TestCatalogService_CachesUntilAdminWrite(t *testing.T) {
	repo := setupRepo(t)
	qc, mr := setupQueryCache(t)
	log := logger.Nop()
	settings := NewSettingsService(repo, qc, log)
	catalog := NewCatalogService(repo, repo, repo, settings, qc, log)
	products := NewProductService(repo, qc, log)
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	p, err := products.Create(ctx, editor, ProductInput{Name: strPtr("Yuzu"), Price: decPtr("24.99")})
	require.NoError(t, err)

	list, err := catalog.Products(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists("query:products:active"))

	// a write that bypasses the service is not visible while cached
	p.Name = "Renamed Directly"
	require.NoError(t, repo.UpdateProduct(ctx, p))
	list, err = catalog.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Yuzu", list[0].Name)

	_, err = products.Update(ctx, editor, p.ID, ProductInput{Name: strPtr("Yuzu Ginger")})
	require.NoError(t, err)
	assert.False(t, mr.Exists("query:products:active"))

	list, err = catalog.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Yuzu Ginger", list[0].Name)
}

func TestCatalogService_ProductBySlugHidesInactive(t *testing.T) {
	repo := setupRepo(t)
	log := logger.Nop()
	catalog := NewCatalogService(repo, repo, repo, NewSettingsService(repo, nil, log), nil, log)
	products := NewProductService(repo, nil, log)
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	inactive := false
	_, err := products.Create(ctx, editor, ProductInput{Name: strPtr("Retired"), Price: decPtr("10"), IsActive: &inactive})
	require.NoError(t, err)
	_, err = products.Create(ctx, editor, ProductInput{Name: strPtr("Yuzu"), Price: decPtr("24.99")})
	require.NoError(t, err)

	_, err = catalog.ProductBySlug(ctx, "retired")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := catalog.ProductBySlug(ctx, "yuzu")
	require.NoError(t, err)
	assert.Equal(t, "Yuzu", p.Name)

	list, err := catalog.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalogService_CacheDownFallsBack(t *testing.T) {
	repo := setupRepo(t)
	qc, mr := setupQueryCache(t)
	log := logger.Nop()
	catalog := NewCatalogService(repo, repo, repo, NewSettingsService(repo, qc, log), qc, log)
	mr.Close()

	settings, err := catalog.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettingsID, settings.ID)
}

func TestSettingsService(t *testing.T) {
	repo := setupRepo(t)
	qc, mr := setupQueryCache(t)
	log := logger.Nop()
	svc := NewSettingsService(repo, qc, log)
	catalog := NewCatalogService(repo, repo, repo, svc, qc, log)
	editor := newSession(t, repo, domain.RoleEditor)
	admin := newSession(t, repo, domain.RoleAdmin)
	ctx := context.Background()

	_, err := repo.GetSettings(ctx)
	require.ErrorIs(t, err, repository.ErrSettingsNotFound)

	s, err := catalog.Settings(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, s.SiteName)

	stored, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.SiteName, stored.SiteName)

	s.SiteName = "aelo drinks"
	_, err = svc.Update(ctx, editor, s)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(ctx, admin, s)
	require.NoError(t, err)
	assert.False(t, mr.Exists("query:settings:default"))

	s, err = catalog.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aelo drinks", s.SiteName)

	s.SiteName = "  "
	_, err = svc.Update(ctx, admin, s)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNavigation_Tree(t *testing.T) {
	repo := setupRepo(t)
	log := logger.Nop()
	nav := NewNavService(repo, nil, log)
	catalog := NewCatalogService(repo, repo, repo, NewSettingsService(repo, nil, log), nil, log)
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	shop, err := nav.Create(ctx, editor, NavInput{Label: strPtr("Shop"), Href: strPtr("/shop")})
	require.NoError(t, err)
	assert.Equal(t, domain.NavHeader, shop.Location)

	one := 1
	_, err = nav.Create(ctx, editor, NavInput{Label: strPtr("About"), Href: strPtr("/about"), SortOrder: &one})
	require.NoError(t, err)

	parent := shop.ID.String()
	_, err = nav.Create(ctx, editor, NavInput{Label: strPtr("Sparkling"), Href: strPtr("/shop/sparkling"), ParentID: &parent})
	require.NoError(t, err)

	hidden := false
	_, err = nav.Create(ctx, editor, NavInput{Label: strPtr("Draft"), Href: strPtr("/shop/draft"), ParentID: &parent, IsVisible: &hidden})
	require.NoError(t, err)

	footer := domain.NavFooter
	_, err = nav.Create(ctx, editor, NavInput{Label: strPtr("FAQ"), Href: strPtr("/faq"), Location: &footer})
	require.NoError(t, err)

	tree, err := catalog.Navigation(ctx, "")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Shop", tree[0].Label)
	assert.Equal(t, "About", tree[1].Label)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Sparkling", tree[0].Children[0].Label)

	all, err := nav.List(ctx, editor, domain.NavHeader)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Len(t, all[0].Children, 2)

	_, err = catalog.Navigation(ctx, "sidebar")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNavService_ParentRules(t *testing.T) {
	repo := setupRepo(t)
	nav := NewNavService(repo, nil, logger.Nop())
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	shop, err := nav.Create(ctx, editor, NavInput{Label: strPtr("Shop"), Href: strPtr("/shop")})
	require.NoError(t, err)
	parent := shop.ID.String()
	child, err := nav.Create(ctx, editor, NavInput{Label: strPtr("Sparkling"), Href: strPtr("/s"), ParentID: &parent})
	require.NoError(t, err)

	// only one level of nesting
	grandparent := child.ID.String()
	_, err = nav.Create(ctx, editor, NavInput{Label: strPtr("Deep"), Href: strPtr("/d"), ParentID: &grandparent})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = nav.Update(ctx, editor, shop.ID, NavInput{ParentID: &parent})
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := "not-a-uuid"
	_, err = nav.Create(ctx, editor, NavInput{Label: strPtr("X"), Href: strPtr("/x"), ParentID: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	top := ""
	moved, err := nav.Update(ctx, editor, child.ID, NavInput{ParentID: &top})
	require.NoError(t, err)
	assert.False(t, moved.ParentID.Valid)
}

func TestFAQService(t *testing.T) {
	repo := setupRepo(t)
	log := logger.Nop()
	faqs := NewFAQService(repo, nil, log)
	catalog := NewCatalogService(repo, repo, repo, NewSettingsService(repo, nil, log), nil, log)
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	f, err := faqs.Create(ctx, editor, FAQInput{Question: strPtr("Is it vegan?"), Answer: strPtr("Yes."), Category: strPtr("Ingredients")})
	require.NoError(t, err)
	assert.True(t, f.IsPublished)
	assert.Equal(t, 0, f.SortOrder)

	draft := false
	_, err = faqs.Create(ctx, editor, FAQInput{Question: strPtr("Draft?"), Answer: strPtr("Later."), Category: strPtr("Shipping"), IsPublished: &draft})
	require.NoError(t, err)

	_, err = faqs.Create(ctx, editor, FAQInput{Question: strPtr("No answer")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	published, err := catalog.FAQs(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)

	all, err := faqs.List(ctx, editor)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMediaService_UploadDelete(t *testing.T) {
	repo := setupRepo(t)
	dir := filepath.Join(t.TempDir(), "uploads")
	svc := NewMediaService(repo, dir, logger.Nop())
	editor := newSession(t, repo, domain.RoleEditor)
	admin := newSession(t, repo, domain.RoleAdmin)
	ctx := context.Background()

	m, err := svc.Upload(ctx, editor, Upload{
		OriginalName: "Hero Shot.PNG",
		MimeType:     "image/png",
		Body:         strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(m.Filename, ".png"))
	assert.Equal(t, "/uploads/"+m.Filename, m.URL)
	assert.Equal(t, "Hero Shot.PNG", m.OriginalName)
	assert.Equal(t, int64(9), m.Size)

	data, err := os.ReadFile(filepath.Join(dir, m.Filename))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	alt := "can on ice"
	updated, err := svc.UpdateAlt(ctx, editor, m.ID, &alt)
	require.NoError(t, err)
	require.NotNil(t, updated.Alt)
	assert.Equal(t, alt, *updated.Alt)

	page, err := svc.List(ctx, editor, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 20, page.Limit)

	assert.ErrorIs(t, svc.Delete(ctx, editor, m.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, m.ID))
	_, err = os.Stat(filepath.Join(dir, m.Filename))
	assert.True(t, os.IsNotExist(err))

	_, err = svc.Upload(ctx, editor, Upload{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService(t *testing.T) {
	repo := setupRepo(t)
	auth := access.NewAuthenticator("test-secret", time.Hour, repo)
	svc := NewUserService(repo, auth, logger.Nop())
	root := newSession(t, repo, domain.RoleSuperAdmin)
	admin := newSession(t, repo, domain.RoleAdmin)
	ctx := context.Background()

	in := UserInput{Email: strPtr("sam@drinkaelo.com"), Password: strPtr("hunter22"), Name: strPtr("Sam")}
	_, err := svc.Create(ctx, admin, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	u, err := svc.Create(ctx, root, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEditor, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "hunter22", u.PasswordHash)

	_, err = svc.Create(ctx, root, in)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Create(ctx, root, UserInput{Email: strPtr("x@drinkaelo.com")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err := svc.Login(ctx, "sam@drinkaelo.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotNil(t, res.User.LastLoginAt)

	_, err = svc.Login(ctx, "sam@drinkaelo.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@drinkaelo.com", "hunter22")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// an empty password leaves the hash alone
	inactive := false
	_, err = svc.Update(ctx, root, u.ID, UserInput{Password: strPtr(""), IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "sam@drinkaelo.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	users, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	assert.ErrorIs(t, svc.Delete(ctx, root, root.UserID), domain.ErrSelfDeletion)
	require.NoError(t, svc.Delete(ctx, root, u.ID))
}

func TestProductService_Export(t *testing.T) {
	repo := setupRepo(t)
	svc := NewProductService(repo, nil, logger.Nop())
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	_, err := svc.Create(ctx, editor, ProductInput{Name: strPtr("Yuzu"), Price: decPtr("24.99"), CompareAtPrice: decPtr("29.99")})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, editor, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet := file.Sheet["Products"]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Slug", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "yuzu", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "24.99", sheet.Rows[1].Cells[5].String())
	assert.Equal(t, "29.99", sheet.Rows[1].Cells[6].String())
}

func TestDashboardService(t *testing.T) {
	repo := setupRepo(t)
	svc := NewDashboardService(repo)
	orders := NewOrderService(repo, repo, logger.Nop())
	editor := newSession(t, repo, domain.RoleEditor)
	ctx := context.Background()

	paidOrder(t, orders, repo)
	_, err := NewProductService(repo, nil, logger.Nop()).Create(ctx, editor, ProductInput{Name: strPtr("Yuzu"), Price: decPtr("24.99")})
	require.NoError(t, err)

	_, err = svc.Stats(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	stats, err := svc.Stats(ctx, editor)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Products)
	assert.Equal(t, 1, stats.ActiveProducts)
	assert.Equal(t, 1, stats.Orders)
}
