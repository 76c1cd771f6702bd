package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route defines the parameters for a single API endpoint.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions holds the API handler implementations served by the router.
type ApiHandleFunctions struct {
	ProductAPI ProductAPI
	OrderAPI   OrderAPI
}

// NewRouter returns a gin engine with all application routes attached.
func NewRouter(handleFunctions ApiHandleFunctions, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = defaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

func defaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			Name:        "CreateProduct",
			Method:      http.MethodPost,
			Pattern:     "/v1/products",
			HandlerFunc: handleFunctions.ProductAPI.CreateProduct,
		},
		{
			Name:        "ListProducts",
			Method:      http.MethodGet,
			Pattern:     "/v1/products",
			HandlerFunc: handleFunctions.ProductAPI.ListProducts,
		},
		{
			Name:        "GetProductById",
			Method:      http.MethodGet,
			Pattern:     "/v1/products/:productId",
			HandlerFunc: handleFunctions.ProductAPI.GetProductById,
		},
		{
			Name:        "UpdateProduct",
			Method:      http.MethodPut,
			Pattern:     "/v1/products/:productId",
			HandlerFunc: handleFunctions.ProductAPI.UpdateProduct,
		},
		{
			Name:        "DeleteProduct",
			Method:      http.MethodDelete,
			Pattern:     "/v1/products/:productId",
			HandlerFunc: handleFunctions.ProductAPI.DeleteProduct,
		},
		{
			Name:        "PlaceOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders",
			HandlerFunc: handleFunctions.OrderAPI.PlaceOrder,
		},
		{
			Name:        "ListOrders",
			Method:      http.MethodGet,
			Pattern:     "/v1/orders",
			HandlerFunc: handleFunctions.OrderAPI.ListOrders,
		},
		{
			Name:        "GetOrderById",
			Method:      http.MethodGet,
			Pattern:     "/v1/orders/:orderId",
			HandlerFunc: handleFunctions.OrderAPI.GetOrderById,
		},
	}
}
