package service

import (
	"context"
	"time"

	"github.com/AlxM1/aelo/internal/cart"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/payment"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/google/uuid"
)

type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) ([]cart.Line, error)
	SaveCart(ctx context.Context, sessionID string, lines []cart.Line) error
	DeleteCart(ctx context.Context, sessionID string) error
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListProducts(ctx context.Context, search string, page domain.PageRequest) ([]domain.Product, int, error)
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
	ListAllProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type CheckoutStore interface {
	CreateCheckoutSession(ctx context.Context, cs *domain.CheckoutSession) error
	GetCheckoutSession(ctx context.Context, id uuid.UUID) (*domain.CheckoutSession, error)
	GetCheckoutSessionByIdempotencyKey(ctx context.Context, key string) (*domain.CheckoutSession, error)
	GetCheckoutSessionByExternalID(ctx context.Context, externalID string) (*domain.CheckoutSession, error)
	AttachExternalSession(ctx context.Context, id uuid.UUID, externalID, redirectURL string) error
	UpdateCheckoutStatus(ctx context.Context, id uuid.UUID, status domain.CheckoutStatus) error
	MarkCartCleared(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseCartClear(ctx context.Context, id uuid.UUID) error
}

// CheckoutCollaborator creates the hosted checkout page the customer pays on.
type CheckoutCollaborator interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByCheckoutSession(ctx context.Context, checkoutSessionID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error)
	TransitionOrder(ctx context.Context, upd repository.OrderUpdate) (*domain.Order, error)
	AnnotateOrder(ctx context.Context, id uuid.UUID, notes *string, processedBy uuid.NullUUID) (*domain.Order, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type FAQStore interface {
	CreateFAQ(ctx context.Context, f *domain.FAQ) error
	GetFAQ(ctx context.Context, id uuid.UUID) (*domain.FAQ, error)
	ListFAQs(ctx context.Context, publishedOnly bool) ([]domain.FAQ, error)
	UpdateFAQ(ctx context.Context, f *domain.FAQ) error
	DeleteFAQ(ctx context.Context, id uuid.UUID) error
}

type MediaStore interface {
	CreateMedia(ctx context.Context, m *domain.Media) error
	GetMedia(ctx context.Context, id uuid.UUID) (*domain.Media, error)
	ListMedia(ctx context.Context, page domain.PageRequest) ([]domain.Media, int, error)
	UpdateMediaAlt(ctx context.Context, id uuid.UUID, alt *string) error
	DeleteMedia(ctx context.Context, id uuid.UUID) error
}

type NavStore interface {
	CreateNavItem(ctx context.Context, n *domain.NavItem) error
	GetNavItem(ctx context.Context, id uuid.UUID) (*domain.NavItem, error)
	ListNavItems(ctx context.Context, location domain.NavLocation, visibleOnly bool) ([]domain.NavItem, error)
	UpdateNavItem(ctx context.Context, n *domain.NavItem) error
	DeleteNavItem(ctx context.Context, id uuid.UUID) error
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (*domain.SiteSettings, error)
	UpsertSettings(ctx context.Context, s *domain.SiteSettings) error
}

type StatsStore interface {
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}
