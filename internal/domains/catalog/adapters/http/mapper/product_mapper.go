package mapper

import (
	"github.com/shopspring/decimal"

	catalogdomain "github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
)

// Product represents the transport-layer shape used by the HTTP handlers.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Version       int64           `json:"version"`
}

// ToDomainProduct converts a transport product into the catalog domain model.
func ToDomainProduct(product Product) (*catalogdomain.Product, error) {
	p, err := catalogdomain.NewProduct(product.ID, product.Name, product.Description, product.Price, product.StockQuantity)
	if err != nil {
		return nil, err
	}
	p.Version = product.Version
	return p, nil
}

// FromDomainProduct converts a domain product to the transport representation.
func FromDomainProduct(product *catalogdomain.Product) Product {
	if product == nil {
		return Product{}
	}
	return Product{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
		Version:       product.Version,
	}
}

// FromDomainProducts converts a list of domain products.
func FromDomainProducts(products []*catalogdomain.Product) []Product {
	result := make([]Product, 0, len(products))
	for _, product := range products {
		result = append(result, FromDomainProduct(product))
	}
	return result
}
