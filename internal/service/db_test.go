package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bkash-shop-backend/internal/model"
)

// newTestDB gives each test its own in-memory sqlite database with the full
// schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// busy timeout keeps concurrent writers waiting instead of erroring
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.ProductVariant{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Discount{},
		&model.OrderDiscount{},
		&model.StockLog{},
	))

	return db
}
