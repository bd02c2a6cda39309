package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"LootLedger/internal/catalog"
	"LootLedger/internal/history"
	"LootLedger/internal/model"
	"LootLedger/internal/unknown"
)

// Handler serves read-only views of the price knowledge base.
type Handler struct {
	catalog *catalog.Catalog
	unknown *unknown.Ledger
	history *history.Store
}

// SetupRoutes registers the API under r.
func SetupRoutes(r *gin.RouterGroup, cat *catalog.Catalog, ledger *unknown.Ledger, store *history.Store) *Handler {
	h := &Handler{catalog: cat, unknown: ledger, history: store}

	prices := r.Group("/prices")
	{
		prices.GET("", h.ListPrices)
		prices.GET("/:name", h.GetPrice)
	}
	r.GET("/unknown", h.ListUnknown)
	r.GET("/catalog", h.ListCatalog)
	r.GET("/lookup", h.Lookup)
	return h
}

// NewRouter builds the full gin engine.
func NewRouter(cat *catalog.Catalog, ledger *unknown.Ledger, store *history.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "items": store.Len(), "unknown": ledger.Len()})
	})
	SetupRoutes(r.Group("/api"), cat, ledger, store)
	return r
}

// ListPrices returns the current-prices view, most expensive first. ?top=N limits the list.
func (h *Handler) ListPrices(c *gin.Context) {
	sorted := history.SortByLatest(h.history.SnapshotAll())
	if s := c.Query("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a non-negative integer"})
			return
		}
		if n < len(sorted) {
			sorted = sorted[:n]
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(sorted), "items": sorted})
}

// GetPrice returns one item's aggregate together with its retained records.
func (h *Handler) GetPrice(c *gin.Context) {
	name := c.Param("name")
	agg, ok := h.history.Aggregate(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no price data for %q", name)})
		return
	}
	hist, _ := h.history.History(name)
	c.JSON(http.StatusOK, gin.H{"aggregate": agg, "prices": hist.Prices, "first_seen": hist.FirstSeen})
}

// ListUnknown returns the unknown item ledger.
func (h *Handler) ListUnknown(c *gin.Context) {
	entries := h.unknown.Entries()
	if entries == nil {
		entries = []model.UnknownItemEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "items": entries})
}

// ListCatalog returns catalog entries, optionally filtered by ?category=.
func (h *Handler) ListCatalog(c *gin.Context) {
	category := model.Category(c.Query("category"))
	items := []model.CatalogEntry{}
	for _, e := range h.catalog.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		items = append(items, e)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

// Lookup resolves ?text= against the catalog the same way the analyzer does.
func (h *Handler) Lookup(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	e, ok := h.catalog.Lookup(text)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no catalog match"})
		return
	}
	c.JSON(http.StatusOK, e)
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Println("[INFO] shutting down HTTP API")
	return srv.Shutdown(shutdownCtx)
}
