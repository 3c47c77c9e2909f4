package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/buy-sell-store/internal/broker"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/testutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// WebSocketHandlerIntegrationTestSuite checks the live product feed.
type WebSocketHandlerIntegrationTestSuite struct {
	apiSuite
}

func (s *WebSocketHandlerIntegrationTestSuite) TestFeedRequiresSession() {
	server := httptest.NewServer(s.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/products"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(s.T(), err)
	require.NotNil(s.T(), resp)
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *WebSocketHandlerIntegrationTestSuite) TestFeedStreamsLifecycleEvents() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "supplier", "supplier@example.com", models.RoleSupplier)
	testutil.CreateTestUser(s.T(), s.testDB.DB, "buyer", "buyer@example.com", models.RoleBuyer)
	supplier := s.login("supplier")
	buyer := s.login("buyer")

	server := httptest.NewServer(s.router)
	defer server.Close()

	header := http.Header{}
	header.Add("Cookie", buyer.Name+"="+buyer.Value)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/products"

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(s.T(), err)
	defer conn.Close()

	// The handler subscribes right after the upgrade.
	require.Eventually(s.T(), func() bool {
		return s.testRedis.Server.PubSubNumSub("products:events")["products:events"] > 0
	}, 2*time.Second, 10*time.Millisecond)

	w := s.do(http.MethodPost, "/api/products/add", map[string]any{
		"name":         "Chair",
		"description":  "Wooden chair",
		"category":     "Furniture",
		"supplierCost": 100,
	}, supplier)
	require.Equal(s.T(), http.StatusCreated, w.Code)
	productID := s.decode(w)["id"].(string)

	require.NoError(s.T(), conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event broker.ProductEvent
	require.NoError(s.T(), conn.ReadJSON(&event))

	assert.Equal(s.T(), broker.EventProductCreated, event.Type)
	assert.Equal(s.T(), productID, event.ProductID)
	assert.NotEmpty(s.T(), event.Timestamp)
}

func TestWebSocketHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(WebSocketHandlerIntegrationTestSuite))
}
