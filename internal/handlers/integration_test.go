//go:build integration

// These tests need a reachable Postgres instance, configured through the
// TEST_DB_* environment variables. Run them with -tags integration.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/api"
	"foodshare/internal/config"
	"foodshare/internal/database"
	"foodshare/internal/expiry"
	"foodshare/internal/models"
	"foodshare/internal/notify"
	"foodshare/internal/websocket"
)

type testEnv struct {
	t        *testing.T
	router   *gin.Engine
	db       *database.DB
	notifier *notify.Notifier
}

func newTestEnv(t *testing.T) *testEnv {
	dbCfg := config.DatabaseConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "5432"),
		Name:     envOr("TEST_DB_NAME", "foodshare_test"),
		User:     envOr("TEST_DB_USER", "foodshare_user"),
		Password: envOr("TEST_DB_PASSWORD", "foodshare_password"),
	}

	db, err := database.Connect(dbCfg)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Environment: "development",
		JWT:         config.JWTConfig{Secret: "test-secret", ExpiresIn: "1h"},
	}

	hub := websocket.NewHub()
	go hub.Run()
	notifier := notify.New(db, hub)

	gin.SetMode(gin.TestMode)
	router := api.SetupRouter(db, cfg, hub, notifier)

	return &testEnv{t: t, router: router, db: db, notifier: notifier}
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(name string) (models.User, string) {
	email := fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano())
	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.AuthResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User, resp.Token
}

func (e *testEnv) createProduct(token string, shareable bool, expiryDate string) models.Product {
	w := e.do(http.MethodPost, "/api/products", token, gin.H{
		"name":         "milk",
		"category":     "dairy",
		"expiry_date":  expiryDate,
		"is_shareable": shareable,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	var product models.Product
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &product))
	return product
}

func (e *testEnv) submitClaim(token string, productID int, message string) models.Claim {
	w := e.do(http.MethodPost, "/api/products/"+strconv.Itoa(productID)+"/claim", token,
		gin.H{"message": message})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	var claim models.Claim
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &claim))
	return claim
}

func (e *testEnv) notificationsOfType(token, notificationType string) []models.Notification {
	w := e.do(http.MethodGet, "/api/notifications", token, nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unread_count"`
	}
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))

	matched := []models.Notification{}
	for _, n := range resp.Notifications {
		if n.Type == notificationType {
			matched = append(matched, n)
		}
	}
	return matched
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	email := fmt.Sprintf("dup-%d@example.com", time.Now().UnixNano())
	body := gin.H{"name": "carol", "email": email, "password": "secret1"}

	w := env.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "already used")
}

func TestClaimAcceptCascade(t *testing.T) {
	env := newTestEnv(t)

	owner, ownerToken := env.register("owner")
	_, aliceToken := env.register("alice")
	_, bobToken := env.register("bob")

	product := env.createProduct(ownerToken, false, futureDate(10))
	assert.False(t, product.IsShareable)

	w := env.do(http.MethodPut, "/api/products/"+strconv.Itoa(product.ID), ownerToken,
		gin.H{"is_shareable": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	aliceClaim := env.submitClaim(aliceToken, product.ID, "I can pick it up today")
	bobClaim := env.submitClaim(bobToken, product.ID, "me please")
	env.submitClaim(bobToken, product.ID, "asking again")

	// Owner got one new_claim notification per claim attempt
	assert.Len(t, env.notificationsOfType(ownerToken, models.NotificationNewClaim), 3)

	w = env.do(http.MethodGet, "/api/claims/incoming", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var incoming []models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &incoming))
	assert.Len(t, incoming, 3)

	w = env.do(http.MethodPut, "/api/claims/"+strconv.Itoa(aliceClaim.ID), ownerToken,
		gin.H{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Product flipped to claimed
	w = env.do(http.MethodGet, "/api/products?owner="+strconv.Itoa(owner.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var products []models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, models.ProductStatusClaimed, products[0].Status)

	// Every other pending claim was rejected
	w = env.do(http.MethodGet, "/api/claims/incoming", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	incoming = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &incoming))
	assert.Empty(t, incoming)

	// Exactly one unread claim_accepted for the winner
	accepted := env.notificationsOfType(aliceToken, models.NotificationClaimAccepted)
	require.Len(t, accepted, 1)
	assert.False(t, accepted[0].IsRead)
	var payload models.ClaimResolvedPayload
	require.NoError(t, json.Unmarshal(accepted[0].Payload, &payload))
	assert.Equal(t, product.ID, payload.ProductID)

	// One claim_rejected for the other claimant, despite two claim rows
	assert.Len(t, env.notificationsOfType(bobToken, models.NotificationClaimRejected), 1)
	assert.Empty(t, env.notificationsOfType(aliceToken, models.NotificationClaimRejected))

	// The winner's claims list still includes the product
	w = env.do(http.MethodGet, "/api/claims/my-claims", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var claimedIDs []int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &claimedIDs))
	assert.Contains(t, claimedIDs, product.ID)

	// Accepting a sibling claim now conflicts instead of producing a
	// second accepted claim
	w = env.do(http.MethodPut, "/api/claims/"+strconv.Itoa(bobClaim.ID), ownerToken,
		gin.H{"status": "accepted"})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Len(t, env.notificationsOfType(bobToken, models.NotificationClaimAccepted), 0)
}

func TestDuplicateGroupInvite(t *testing.T) {
	env := newTestEnv(t)

	_, ownerToken := env.register("owner")
	friend, _ := env.register("friend")

	w := env.do(http.MethodPost, "/api/groups", ownerToken,
		gin.H{"name": "veggie swap", "description": "weekly"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var group models.Group
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &group))

	invite := gin.H{"friendId": friend.ID, "preferences": "vegetarian"}
	w = env.do(http.MethodPost, "/api/groups/"+strconv.Itoa(group.ID)+"/invite", ownerToken, invite)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/groups/"+strconv.Itoa(group.ID)+"/invite", ownerToken, invite)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/groups/"+strconv.Itoa(group.ID)+"/members", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var members []models.GroupMember
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Len(t, members, 2)
}

func TestExpiryScanNotifiesOncePerProductPerDay(t *testing.T) {
	env := newTestEnv(t)

	_, ownerToken := env.register("owner")
	env.createProduct(ownerToken, true, futureDate(2))

	scanner := expiry.NewScanner(env.db, env.notifier)
	require.NoError(t, scanner.Run(context.Background()))
	require.NoError(t, scanner.Run(context.Background()))

	warnings := env.notificationsOfType(ownerToken, models.NotificationExpiryWarning)
	assert.Len(t, warnings, 1)
}

func TestExpiryScanSkipsClaimedProducts(t *testing.T) {
	env := newTestEnv(t)

	_, ownerToken := env.register("owner")
	_, claimerToken := env.register("claimer")

	product := env.createProduct(ownerToken, true, futureDate(2))
	claim := env.submitClaim(claimerToken, product.ID, "want it")

	w := env.do(http.MethodPut, "/api/claims/"+strconv.Itoa(claim.ID), ownerToken,
		gin.H{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	scanner := expiry.NewScanner(env.db, env.notifier)
	require.NoError(t, scanner.Run(context.Background()))

	assert.Empty(t, env.notificationsOfType(ownerToken, models.NotificationExpiryWarning))
}
