package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"foodshare/internal/auth"
	"foodshare/internal/database"
	"foodshare/internal/models"
	"foodshare/internal/notify"
)

type ClaimHandler struct {
	db        *database.DB
	notifier  *notify.Notifier
	validator *validator.Validate
}

func NewClaimHandler(db *database.DB, notifier *notify.Notifier) *ClaimHandler {
	return &ClaimHandler{
		db:        db,
		notifier:  notifier,
		validator: validator.New(),
	}
}

// SubmitClaim files a pending claim against a product and notifies the
// owner. Re-claiming after a rejection is allowed, so there is no
// duplicate-claim check. The claim and the notification are written in one
// transaction.
func (h *ClaimHandler) SubmitClaim(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req models.SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := context.Background()

	var ownerID int
	err = h.db.QueryRow(ctx,
		"SELECT owner_id FROM products WHERE id = $1",
		productID).Scan(&ownerID)

	if err != nil {
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if ownerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot claim your own product"})
		return
	}

	tx, err := h.db.Begin(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while claiming product"})
		return
	}
	defer tx.Rollback(ctx)

	var claim models.Claim
	err = tx.QueryRow(ctx,
		`INSERT INTO claims (product_id, claimer_id, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, product_id, claimer_id, message, status, created_at`,
		productID, userID, req.Message).Scan(
		&claim.ID, &claim.ProductID, &claim.ClaimerID, &claim.Message,
		&claim.Status, &claim.CreatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while claiming product"})
		return
	}

	notification, err := h.notifier.SendTx(ctx, tx, ownerID, models.NotificationNewClaim,
		models.NewClaimPayload{
			ClaimID:   claim.ID,
			ProductID: productID,
			ClaimerID: userID,
		})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while claiming product"})
		return
	}

	if err := tx.Commit(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while claiming product"})
		return
	}

	h.notifier.Push(notification)

	c.JSON(http.StatusCreated, claim)
}

// GetIncomingClaims lists pending claims on the caller's products.
func (h *ClaimHandler) GetIncomingClaims(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	rows, err := h.db.Query(context.Background(),
		`SELECT c.id, c.product_id, c.claimer_id, c.message, c.status, c.created_at,
		 p.name AS product_name, u.name AS claimer_name
		 FROM claims c
		 JOIN products p ON c.product_id = p.id
		 JOIN users u ON c.claimer_id = u.id
		 WHERE p.owner_id = $1 AND c.status = $2
		 ORDER BY c.created_at DESC`,
		userID, models.ClaimStatusPending)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch incoming claims"})
		return
	}
	defer rows.Close()

	claims := []models.Claim{}
	for rows.Next() {
		var claim models.Claim
		err := rows.Scan(
			&claim.ID, &claim.ProductID, &claim.ClaimerID, &claim.Message,
			&claim.Status, &claim.CreatedAt, &claim.ProductName, &claim.ClaimerName)

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan claim"})
			return
		}

		claims = append(claims, claim)
	}

	c.JSON(http.StatusOK, claims)
}

// ResolveClaim accepts or rejects a claim on one of the caller's products.
// Accepting flips the product to claimed only while it is still available,
// rejects every other pending claim, and notifies each affected claimant.
// The whole cascade commits or rolls back as one unit.
func (h *ClaimHandler) ResolveClaim(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	claimID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid claim ID"})
		return
	}

	var req models.ResolveClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := context.Background()

	var productID, claimerID, ownerID int
	err = h.db.QueryRow(ctx,
		`SELECT c.product_id, c.claimer_id, p.owner_id
		 FROM claims c
		 JOIN products p ON c.product_id = p.id
		 WHERE c.id = $1`,
		claimID).Scan(&productID, &claimerID, &ownerID)

	if err != nil {
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Claim not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
		return
	}

	if ownerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Claim not found or access denied"})
		return
	}

	tx, err := h.db.Begin(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
		return
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"UPDATE claims SET status = $1 WHERE id = $2",
		req.Status, claimID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
		return
	}

	pending := []models.Notification{}

	if req.Status == models.ClaimStatusAccepted {
		// Conditional flip guards against two accepts racing: the loser
		// sees zero rows and the transaction aborts.
		result, err := tx.Exec(ctx,
			"UPDATE products SET status = $1 WHERE id = $2 AND status = $3",
			models.ProductStatusClaimed, productID, models.ProductStatusAvailable)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
			return
		}
		if result.RowsAffected() == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Product is no longer available"})
			return
		}

		// One rejection notice per claimant, not per claim row: the same
		// user may hold several pending claims after re-claiming, and the
		// winning claimant's own stale claims produce no notice.
		rows, err := tx.Query(ctx,
			`SELECT DISTINCT claimer_id FROM claims
			 WHERE product_id = $1 AND id != $2 AND status = $3 AND claimer_id != $4`,
			productID, claimID, models.ClaimStatusPending, claimerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
			return
		}

		var rejected []int
		for rows.Next() {
			var rejectedClaimerID int
			if err := rows.Scan(&rejectedClaimerID); err != nil {
				rows.Close()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
				return
			}
			rejected = append(rejected, rejectedClaimerID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
			return
		}

		_, err = tx.Exec(ctx,
			`UPDATE claims SET status = $1
			 WHERE product_id = $2 AND id != $3 AND status = $4`,
			models.ClaimStatusRejected, productID, claimID, models.ClaimStatusPending)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
			return
		}

		for _, rejectedClaimerID := range rejected {
			notification, err := h.notifier.SendTx(ctx, tx, rejectedClaimerID,
				models.NotificationClaimRejected,
				models.ClaimResolvedPayload{ProductID: productID})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
				return
			}
			pending = append(pending, *notification)
		}
	}

	notification, err := h.notifier.SendTx(ctx, tx, claimerID,
		"claim_"+req.Status,
		models.ClaimResolvedPayload{ProductID: productID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
		return
	}
	pending = append(pending, *notification)

	if err := tx.Commit(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process action"})
		return
	}

	for i := range pending {
		h.notifier.Push(&pending[i])
	}

	c.JSON(http.StatusOK, gin.H{"message": "Claim " + req.Status})
}

// GetMyClaims returns the product ids the caller has filed a claim for,
// regardless of claim status.
func (h *ClaimHandler) GetMyClaims(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	rows, err := h.db.Query(context.Background(),
		"SELECT product_id FROM claims WHERE claimer_id = $1",
		userID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	productIDs := []int{}
	for rows.Next() {
		var productID int
		if err := rows.Scan(&productID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		productIDs = append(productIDs, productID)
	}

	c.JSON(http.StatusOK, productIDs)
}
