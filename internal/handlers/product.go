package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"foodshare/internal/auth"
	"foodshare/internal/database"
	"foodshare/internal/models"
)

type ProductHandler struct {
	db        *database.DB
	validator *validator.Validate
}

func NewProductHandler(db *database.DB) *ProductHandler {
	return &ProductHandler{
		db:        db,
		validator: validator.New(),
	}
}

// GetProducts is a public listing, optionally filtered by owner and
// shareable flag, joined with the owner's display name.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	query := `SELECT p.id, p.owner_id, p.name, p.category, p.quantity,
		 p.expiry_date, p.is_shareable, p.status, p.created_at,
		 u.name AS owner_name
		 FROM products p
		 JOIN users u ON u.id = p.owner_id`
	args := []interface{}{}
	conditions := []string{}

	if owner := c.Query("owner"); owner != "" {
		ownerID, err := strconv.Atoi(owner)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid owner ID"})
			return
		}
		args = append(args, ownerID)
		conditions = append(conditions, "p.owner_id = $"+strconv.Itoa(len(args)))
	}

	if c.Query("shareable") != "" {
		conditions = append(conditions, "p.is_shareable = true")
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := h.db.Query(context.Background(), query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID, &product.OwnerID, &product.Name, &product.Category,
			&product.Quantity, &product.ExpiryDate, &product.IsShareable,
			&product.Status, &product.CreatedAt, &product.OwnerName)

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product"})
			return
		}

		products = append(products, product)
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	var product models.Product
	err := h.db.QueryRow(context.Background(),
		`INSERT INTO products (owner_id, name, category, quantity, expiry_date, is_shareable)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, owner_id, name, category, quantity, expiry_date, is_shareable, status, created_at`,
		userID, req.Name, req.Category, quantity, req.ExpiryDate, req.IsShareable).Scan(
		&product.ID, &product.OwnerID, &product.Name, &product.Category,
		&product.Quantity, &product.ExpiryDate, &product.IsShareable,
		&product.Status, &product.CreatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct mutates the shareable flag, owner-only.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
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

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	err = h.db.QueryRow(context.Background(),
		`UPDATE products SET is_shareable = $1
		 WHERE id = $2 AND owner_id = $3
		 RETURNING id, owner_id, name, category, quantity, expiry_date, is_shareable, status, created_at`,
		*req.IsShareable, productID, userID).Scan(
		&product.ID, &product.OwnerID, &product.Name, &product.Category,
		&product.Quantity, &product.ExpiryDate, &product.IsShareable,
		&product.Status, &product.CreatedAt)

	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found or access denied"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product and its claims in one transaction,
// owner-only.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
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

	ctx := context.Background()
	tx, err := h.db.Begin(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM claims
		 WHERE product_id = $1
		   AND EXISTS (SELECT 1 FROM products WHERE id = $1 AND owner_id = $2)`,
		productID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	result, err := tx.Exec(ctx,
		"DELETE FROM products WHERE id = $1 AND owner_id = $2",
		productID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	if result.RowsAffected() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found or access denied"})
		return
	}

	if err := tx.Commit(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
