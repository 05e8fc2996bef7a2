package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewSQLStoreWithDB(gdb), mock
}

func TestSQLReserveStockCommits(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `products` SET `stock_level`=stock_level - \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `products` SET `stock_level`=stock_level - \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.ReserveStock(context.Background(), []models.StockChange{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLReserveStockRollsBack(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `products` SET `stock_level`=stock_level - \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `products` SET `stock_level`=stock_level - \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.ReserveStock(context.Background(), []models.StockChange{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 9},
	})
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "p2", stockErr.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUserByEmailNotFound(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := s.UserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGetProduct(t *testing.T) {
	s, mock := newMockSQLStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "price", "stock_level", "category"}).
		AddRow("p1", "Chair", 10.5, 4, "Chair")
	mock.ExpectQuery("SELECT \\* FROM `products` WHERE id = \\?").
		WillReturnRows(rows)

	p, err := s.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Chair", p.Name)
	assert.Equal(t, 4, p.StockLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLProductsByIDsEmpty(t *testing.T) {
	s, mock := newMockSQLStore(t)

	out, err := s.ProductsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}
