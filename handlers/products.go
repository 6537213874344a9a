package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billsync/billsync_backend/models"
)

func (h *Handler) ListProducts(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 10)

	products, pagination, err := models.PaginateProducts(c.Request.Context(), h.DB, page, perPage)
	if err != nil {
		h.respondError(c, "Product", "ListProducts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"pagination": pagination,
	})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondBindError(c, err)
		return
	}

	product, err := models.CreateProduct(c.Request.Context(), h.DB, input)
	if err != nil {
		h.respondError(c, "Product", "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Product", "UpdateProduct", err)
		return
	}

	var input models.UpdateProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondBindError(c, err)
		return
	}

	product, err := models.UpdateProductById(c.Request.Context(), h.DB, id, input)
	if err != nil {
		h.respondError(c, "Product", "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Product", "DeleteProduct", err)
		return
	}

	if err := models.DeleteProductById(c.Request.Context(), h.DB, id); err != nil {
		h.respondError(c, "Product", "DeleteProduct", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
