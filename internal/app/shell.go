package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/storefront/internal/cart"
	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/component"
	"github.com/odyssey-erp/storefront/internal/observability"
	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/productdetail"
	"github.com/odyssey-erp/storefront/internal/route"
	"github.com/odyssey-erp/storefront/internal/shared"
	"github.com/odyssey-erp/storefront/internal/view"
)

// RevisionHeader carries a mounted view's revision on fragment responses.
const RevisionHeader = "X-View-Revision"

const (
	viewsPrefix      = "/views/"
	cartPath         = "/cart"
	cartWriteTimeout = 5 * time.Second
)

// ShellParams groups the collaborators of the page handlers.
type ShellParams struct {
	Logger    *slog.Logger
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	Catalog   productdetail.Fetcher
	Carts     *cart.Store
	Views     *component.Registry
	Metrics   *observability.Metrics
	Featured  []int64
}

// Shell serves the storefront pages and the views mounted for them.
type Shell struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	catalog   productdetail.Fetcher
	carts     *cart.Store
	views     *component.Registry
	metrics   *observability.Metrics
	featured  []int64
}

// NewShell constructs the page handlers.
func NewShell(p ShellParams) *Shell {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		logger:    logger,
		templates: p.Templates,
		csrf:      p.CSRF,
		catalog:   p.Catalog,
		carts:     p.Carts,
		views:     p.Views,
		metrics:   p.Metrics,
		featured:  p.Featured,
	}
}

// MountRoutes registers the page and view endpoints.
func (s *Shell) MountRoutes(r chi.Router) {
	r.Get(route.HomePattern, s.home)
	r.Get(route.ProductDetailPattern, s.productPage)
	r.Get(cartPath, s.cartPage)
	r.Get("/api/cart", s.cartJSON)
	r.Route("/views/{viewID}", func(r chi.Router) {
		r.Get("/", s.fragment)
		r.Post("/add-to-cart", s.addToCart)
		r.Post("/unmount", s.unmount)
	})
}

// NotFound renders the not-found page.
func (s *Shell) NotFound(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusNotFound, "pages/not_found.html", "Not found", nil)
}

func (s *Shell) home(w http.ResponseWriter, r *http.Request) {
	featured := make([]string, 0, len(s.featured))
	for _, id := range s.featured {
		featured = append(featured, route.ProductDetail{ID: id}.Path())
	}
	s.renderPage(w, r, http.StatusOK, "pages/home.html", "", map[string]any{
		"Featured": featured,
	})
}

func (s *Shell) productPage(w http.ResponseWriter, r *http.Request) {
	parsed, ok := route.Parse(r.URL.Path)
	if !ok {
		s.NotFound(w, r)
		return
	}
	page, ok := parsed.(route.ProductDetail)
	if !ok {
		s.NotFound(w, r)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	token, err := s.csrf.EnsureToken(sess)
	if err != nil {
		s.serverError(w, "issue csrf token", err)
		return
	}

	viewID := uuid.New()
	endpoint := viewsPrefix + viewID.String()
	handle := productdetail.Mount(s.catalog, s.templates, productdetail.Props{
		ID:          page.ID,
		OnAddToCart: s.cartAdder(sess.ID),
		Action:      endpoint + "/add-to-cart",
		CSRFToken:   token,
	})
	s.views.Add(viewID, sess.ID, handle)

	markup, err := handle.Render(r.Context())
	if err != nil {
		s.views.Remove(viewID, sess.ID)
		s.serverError(w, "render product view", err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "pages/product.html", "Product", map[string]any{
		"Endpoint": endpoint,
		"View":     markup,
	})
}

// cartAdder is the add-to-cart callback bound into a view at mount.
func (s *Shell) cartAdder(sessionID string) func(catalog.Product) {
	return func(p catalog.Product) {
		ctx, cancel := context.WithTimeout(context.Background(), cartWriteTimeout)
		defer cancel()
		if err := s.carts.Add(ctx, sessionID, p); err != nil {
			s.logger.Error("add to cart", slog.Int64("product_id", p.ID), slog.Any("error", err))
			return
		}
		s.metrics.IncCartAdds()
		s.logger.Info("added to cart", slog.Int64("product_id", p.ID))
	}
}

func (s *Shell) fragment(w http.ResponseWriter, r *http.Request) {
	_, inst, ok := s.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	// Read the revision first so the markup is never older than it.
	var revision uint64
	if rv, ok := inst.(interface{ Revision() uint64 }); ok {
		revision = rv.Revision()
	}
	markup, err := inst.Render(r.Context())
	if err != nil {
		if errors.Is(err, component.ErrUnmounted) {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, "render fragment", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(RevisionHeader, strconv.FormatUint(revision, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, string(markup))
}

func (s *Shell) addToCart(w http.ResponseWriter, r *http.Request) {
	id, inst, ok := s.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	handle, ok := inst.(*productdetail.Handle)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	added, err := handle.AddToCart(r.Context())
	if err != nil && !errors.Is(err, component.ErrUnmounted) {
		s.serverError(w, "activate add to cart", err)
		return
	}
	s.views.Remove(id, sess.ID)

	if added {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Added to cart"})
	} else {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "This product could not be added"})
	}
	http.Redirect(w, r, cartPath, http.StatusSeeOther)
}

func (s *Shell) unmount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "viewID"))
	if err != nil || !s.views.Remove(id, shared.SessionID(r.Context())) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Shell) cartPage(w http.ResponseWriter, r *http.Request) {
	summary, err := s.carts.Summary(r.Context(), shared.SessionID(r.Context()))
	if err != nil {
		s.serverError(w, "load cart", err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "pages/cart.html", "Cart", summary)
}

func (s *Shell) cartJSON(w http.ResponseWriter, r *http.Request) {
	summary, err := s.carts.Summary(r.Context(), shared.SessionID(r.Context()))
	if err != nil {
		s.logger.Error("load cart", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

// lookup resolves the view named in the URL for the caller's session.
func (s *Shell) lookup(r *http.Request) (uuid.UUID, component.Instance, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "viewID"))
	if err != nil {
		return uuid.Nil, nil, false
	}
	inst, ok := s.views.Get(id, shared.SessionID(r.Context()))
	return id, inst, ok
}

func (s *Shell) renderPage(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	token, err := s.csrf.EnsureToken(sess)
	if err != nil {
		s.serverError(w, "issue csrf token", err)
		return
	}
	count, err := s.carts.Count(r.Context(), shared.SessionID(r.Context()))
	if err != nil {
		s.logger.Warn("count cart", slog.Any("error", err))
	}
	td := view.TemplateData{
		Title:       title,
		CSRFToken:   token,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		CartCount:   count,
		Data:        data,
	}
	if err := s.templates.RenderStatus(w, status, name, td); err != nil {
		s.serverError(w, fmt.Sprintf("render %s", name), err)
	}
}

func (s *Shell) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
