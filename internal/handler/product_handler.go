package handler

import (
	"net/http"

	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// AssignSellerRequest names the seller to assign. Empty means the caller.
type AssignSellerRequest struct {
	SellerID string `json:"sellerId"`
}

// List returns the active catalog as seen by the caller's role.
// GET /api/products
func (h *ProductHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	views, err := h.productService.List(c.Request.Context(), p.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// Create adds a product supplied by the caller.
// POST /api/products/add
func (h *ProductHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req service.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	view, err := h.productService.Create(c.Request.Context(), req, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.productService.Get(c.Request.Context(), id, p.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// PATCH /api/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ProductPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	view, err := h.productService.Update(c.Request.Context(), id, req, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id, p); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// POST /api/products/:id/archive
func (h *ProductHandler) Archive(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.productService.Archive(c.Request.Context(), id, p); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product archived"})
}

// POST /api/products/:id/restore
func (h *ProductHandler) Restore(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.productService.Restore(c.Request.Context(), id, p); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product restored"})
}

// AssignSeller sets the product's seller. Without a body the caller
// assigns themselves.
// POST /api/products/:id/seller
func (h *ProductHandler) AssignSeller(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req AssignSellerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body", err)
			return
		}
	}

	sellerID := p.UserID
	if req.SellerID != "" {
		parsed, err := uuid.Parse(req.SellerID)
		if err != nil {
			badRequest(c, "sellerId must be a valid UUID", err)
			return
		}
		sellerID = parsed
	}

	view, err := h.productService.AssignSeller(c.Request.Context(), id, sellerID, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// POST /api/products/:id/buy
func (h *ProductHandler) Buy(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.productService.Buy(c.Request.Context(), id, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
