//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-order-api-server/test/pact"

	catalogmemory "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/observability"
	catalogapp "github.com/Apurer/go-order-api-server/internal/domains/catalog/application"
	catalogdomain "github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
	orderingmemory "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/memory"
	orderingobs "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/observability"
	orderingworkflows "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/workflows"
	orderingapp "github.com/Apurer/go-order-api-server/internal/domains/ordering/application"
	orderingdomain "github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
	"github.com/Apurer/go-order-api-server/internal/transport/httpapi"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestOrderProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCatalogBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateProductExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedProduct(t, pacttest.ExistingProductID, "Espresso Beans", "5.00", 10)
			}
			return nil, nil
		},
		pacttest.StateProductMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateProductLowStock: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedProduct(t, pacttest.LowStockProductID, "Limited Grinder", "49.90", 2)
			}
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedProduct(t, pacttest.ExistingProductID, "Espresso Beans", "5.00", 10)
				app.seedOrder(t, pacttest.ExistingOrderID, pacttest.ExistingProductID)
			}
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	products *catalogmemory.Repository
	orders   *orderingmemory.Repository
	server   *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	productRepo := catalogmemory.NewRepository()
	orderRepo := orderingmemory.NewRepository()
	unitOfWork := orderingmemory.NewUnitOfWork(productRepo, orderRepo)

	catalogService := catalogobs.New(catalogapp.NewService(productRepo))
	orderingService := orderingobs.New(orderingapp.NewService(unitOfWork, orderRepo,
		orderingapp.WithIdempotencyStore(orderingmemory.NewIdempotencyStore()),
	))
	fulfillment := orderingworkflows.NewInlineFulfillment(orderingService)

	handlers := httpapi.ApiHandleFunctions{
		ProductAPI: httpapi.NewProductAPI(catalogService),
		OrderAPI:   httpapi.NewOrderAPI(orderingService, fulfillment, nil),
	}

	server := httptest.NewServer(httpapi.NewRouter(handlers, nil))
	t.Cleanup(server.Close)

	return &contractProviderApp{
		products: productRepo,
		orders:   orderRepo,
		server:   server,
	}
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	products, err := a.products.List(context.Background())
	require.NoError(t, err)
	for _, product := range products {
		_ = a.products.Delete(context.Background(), product.ID)
	}
}

func (a *contractProviderApp) seedProduct(t testing.TB, id int64, name, price string, stock int) {
	t.Helper()
	product, err := catalogdomain.NewProduct(id, name, "contract fixture", decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	_, err = a.products.Save(context.Background(), product)
	require.NoError(t, err)
}

func (a *contractProviderApp) seedOrder(t testing.TB, id, productID int64) {
	t.Helper()
	order := orderingdomain.NewOrder(time.Now().UTC())
	order.ID = id
	require.NoError(t, order.AddLine(productID, 2, decimal.RequireFromString("5.00")))
	_, err := a.orders.Insert(context.Background(), order)
	require.NoError(t, err)
}
