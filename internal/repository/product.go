package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bkash-shop-backend/internal/model"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	FindVariants(ctx context.Context, variantIDs []uint) ([]*model.ProductVariant, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "tshirt_basic", Name: "Basic T-Shirt", Price: 500, Currency: "BDT", Stock: 500},
		{ID: "hoodie_classic", Name: "Classic Hoodie", Price: 1500, Currency: "BDT", Stock: 200},
		{ID: "cap_snapback", Name: "Snapback Cap", Price: 350, Currency: "BDT", Stock: 300},
	}

	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) FindVariants(ctx context.Context, variantIDs []uint) ([]*model.ProductVariant, error) {
	var variants []*model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("id IN ?", variantIDs).
		Find(&variants).
		Error

	if err != nil {
		return nil, err
	}

	return variants, nil
}
