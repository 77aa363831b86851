package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Storefront *StorefrontHandler
	Cart       *CartHandler
	Checkout   *CheckoutHandler
	Webhook    *WebhookHandler
	Auth       *AuthHandler
	Orders     *OrdersHandler
	Admin      *AdminHandler
}

type RouterConfig struct {
	RequestTimeout time.Duration
	UploadsDir     string
	AdminUIDir     string
}

func NewRouter(h Handlers, gate *Gate, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Storefront.ListProducts)
		r.Get("/products/{slug}", h.Storefront.GetProduct)
		r.Get("/faqs", h.Storefront.ListFAQs)
		r.Get("/settings", h.Storefront.GetSettings)
		r.Get("/nav", h.Storefront.GetNavigation)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})

		r.Post("/checkout", h.Checkout.InitiateCheckout)
		r.Post("/webhooks/checkout", h.Webhook.Receive)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.With(gate.AdminAPI).Get("/me", h.Auth.Me)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(gate.AdminAPI)

			r.Get("/dashboard", h.Admin.Dashboard)

			r.Get("/products", h.Admin.ListProducts)
			r.Post("/products", h.Admin.CreateProduct)
			r.Get("/products/export", h.Admin.ExportProducts)
			r.Get("/products/{id}", h.Admin.GetProduct)
			r.Put("/products/{id}", h.Admin.UpdateProduct)
			r.Delete("/products/{id}", h.Admin.DeleteProduct)

			r.Get("/orders", h.Orders.ListOrders)
			r.Get("/orders/{id}", h.Orders.GetOrder)
			r.Patch("/orders/{id}", h.Orders.UpdateOrder)

			r.Get("/faqs", h.Admin.ListFAQs)
			r.Post("/faqs", h.Admin.CreateFAQ)
			r.Put("/faqs/{id}", h.Admin.UpdateFAQ)
			r.Delete("/faqs/{id}", h.Admin.DeleteFAQ)

			r.Get("/settings", h.Admin.GetSettings)
			r.Put("/settings", h.Admin.UpdateSettings)

			r.Get("/nav", h.Admin.ListNav)
			r.Post("/nav", h.Admin.CreateNav)
			r.Put("/nav/{id}", h.Admin.UpdateNav)
			r.Delete("/nav/{id}", h.Admin.DeleteNav)

			r.Get("/media", h.Admin.ListMedia)
			r.Post("/media", h.Admin.UploadMedia)
			r.Patch("/media/{id}", h.Admin.UpdateMedia)
			r.Delete("/media/{id}", h.Admin.DeleteMedia)

			r.Get("/users", h.Admin.ListUsers)
			r.Post("/users", h.Admin.CreateUser)
			r.Put("/users/{id}", h.Admin.UpdateUser)
			r.Delete("/users/{id}", h.Admin.DeleteUser)
		})
	})

	r.Get("/checkout/success", h.Checkout.Success)
	r.Get("/checkout/cancel", h.Checkout.Cancel)

	if cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	ui := adminUI(cfg.AdminUIDir)
	// the login page and its assets are public
	r.Handle("/admin/assets/*", ui)
	r.Handle("/admin/login", gate.LoginPage(ui))
	r.With(gate.AdminPages).Handle("/admin", ui)
	r.With(gate.AdminPages).Handle("/admin/*", ui)

	return r
}

// adminUI serves the back-office build from dir. Paths without a file fall
// back to index.html so client-side routes load.
func adminUI(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dir == "" {
			respondError(w, http.StatusNotFound, "not_found", "admin UI is not installed")
			return
		}
		rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/admin")
		file := filepath.Join(dir, filepath.FromSlash(rel))
		if info, err := os.Stat(file); err != nil || info.IsDir() {
			file = filepath.Join(dir, "index.html")
		}
		http.ServeFile(w, r, file)
	})
}
