package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/store"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProductStore is the persistence the catalog handlers need.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductController handles product-related requests
type ProductController struct {
	base
	products ProductStore
	now      func() time.Time
}

// NewProductController creates a new ProductController
func NewProductController(products ProductStore, log *zap.Logger, timeout time.Duration) *ProductController {
	return &ProductController{base: newBase(log, timeout), products: products, now: time.Now}
}

type productRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Category    string         `json:"category"`
	Sizes       []string       `json:"sizes"`
	Images      []models.Image `json:"images"`
	Bestseller  bool           `json:"bestseller"`
}

func (p productRequest) validate() string {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return "Product name is required"
	case p.Price <= 0:
		return "Price must be greater than zero"
	case !hasCents(p.Price):
		return "Price can have at most 2 decimal places"
	case len(p.Sizes) == 0:
		return "At least one size is required"
	}
	for _, img := range p.Images {
		if img.URL == "" {
			return "Image URL is required"
		}
	}
	return ""
}

func hasCents(price float64) bool {
	d := decimal.NewFromFloat(price)
	return d.Equal(d.Round(2))
}

func (p productRequest) apply(product *models.Product) {
	product.Name = strings.TrimSpace(p.Name)
	product.Description = p.Description
	product.Price = p.Price
	product.Category = p.Category
	product.Sizes = p.Sizes
	product.Images = p.Images
	if product.Images == nil {
		product.Images = []models.Image{}
	}
	product.Bestseller = p.Bestseller
}

// CreateProduct creates a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		utils.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	product := &models.Product{CreatedAt: pc.now().UTC()}
	req.apply(product)

	ctx, cancel := pc.context(r)
	defer cancel()
	if err := pc.products.Create(ctx, product); err != nil {
		pc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"product": product})
}

// GetProducts retrieves all products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := pc.context(r)
	defer cancel()
	products, err := pc.products.List(ctx)
	if err != nil {
		pc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// GetProductByID retrieves a product by its ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid product ID")
	if !ok {
		return
	}
	ctx, cancel := pc.context(r)
	defer cancel()
	product, err := pc.products.FindByID(ctx, id)
	if err != nil {
		pc.productError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

// UpdateProduct updates an existing product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid product ID")
	if !ok {
		return
	}
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		utils.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := pc.context(r)
	defer cancel()
	product, err := pc.products.FindByID(ctx, id)
	if err != nil {
		pc.productError(w, r, err)
		return
	}
	req.apply(product)
	if err := pc.products.Update(ctx, product); err != nil {
		pc.productError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

// DeleteProduct deletes a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid product ID")
	if !ok {
		return
	}
	ctx, cancel := pc.context(r)
	defer cancel()
	if err := pc.products.Delete(ctx, id); err != nil {
		pc.productError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Product deleted"})
}

func (pc *ProductController) productError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}
	pc.respondError(w, r, err)
}
