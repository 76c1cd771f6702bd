package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	cataloghttpmapper "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/http/mapper"
	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	apierrors "github.com/Apurer/go-order-api-server/internal/shared/errors"
)

// ProductAPI wires HTTP transport with the catalog bounded context service.
type ProductAPI struct {
	service   catalogports.Service
	responder *apierrors.ChainedResponder
}

// NewProductAPI creates a ProductAPI backed by the provided service.
func NewProductAPI(service catalogports.Service) ProductAPI {
	return ProductAPI{service: service, responder: newResponder()}
}

// Post /v1/products
// Add a new product to the catalog
func (api *ProductAPI) CreateProduct(c *gin.Context) {
	var payload cataloghttpmapper.Product
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	product, err := cataloghttpmapper.ToDomainProduct(payload)
	if err != nil {
		api.responder.Respond(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return
	}
	saved, err := api.service.CreateProduct(c.Request.Context(), product)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloghttpmapper.FromDomainProduct(saved))
}

// Get /v1/products/:productId
// Find product by ID
func (api *ProductAPI) GetProductById(c *gin.Context) {
	id, ok := parseIDParam(c, "productId", api.responder)
	if !ok {
		return
	}
	product, err := api.service.GetProductByID(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProduct(product))
}

// Put /v1/products/:productId
// Update an existing product
func (api *ProductAPI) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "productId", api.responder)
	if !ok {
		return
	}
	var payload cataloghttpmapper.Product
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	payload.ID = id
	product, err := cataloghttpmapper.ToDomainProduct(payload)
	if err != nil {
		api.responder.Respond(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return
	}
	updated, err := api.service.UpdateProduct(c.Request.Context(), product)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProduct(updated))
}

// Delete /v1/products/:productId
// Remove a product from the catalog
func (api *ProductAPI) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "productId", api.responder)
	if !ok {
		return
	}
	if err := api.service.DeleteProduct(c.Request.Context(), id); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /v1/products
// List the whole catalog
func (api *ProductAPI) ListProducts(c *gin.Context) {
	products, err := api.service.ListProducts(c.Request.Context())
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProducts(products))
}

func parseIDParam(c *gin.Context, name string, responder *apierrors.ChainedResponder) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		responder.BadRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
