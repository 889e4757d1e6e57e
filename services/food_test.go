package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineflow/reserva-backend/models"
)

func TestUpsertOrderNetStockChange(t *testing.T) {
	db := newTestDB(t, "food_netchange")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)
	food := NewFoodService(db)

	category := models.FoodCategory{RestaurantID: fx.Restaurant.ID, Name: "Mains"}
	require.NoError(t, db.Create(&category).Error)
	item := models.FoodItem{
		FoodCategoryID: category.ID,
		Name:           "Biryani",
		BasePrice:      12.50,
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(&item).Error)
	stock := models.FoodItemStock{FoodItemID: item.ID, CurrentStock: 10, Threshold: 2}
	require.NoError(t, db.Create(&stock).Error)

	created := makeBooking(t, bookings, fx, 2)
	_, err := lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	require.NoError(t, err)

	// First order: 4 portions.
	order, err := food.UpsertOrder(fx.Restaurant.ID, created.BookingID, []OrderItemInput{
		{FoodItemID: item.ID, Quantity: 4},
	})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, order.TotalAmount, 0.001)

	var row models.FoodItemStock
	require.NoError(t, db.First(&row, stock.ID).Error)
	assert.Equal(t, 6, row.CurrentStock)

	// Shrink to 1 portion: 3 come back.
	order, err = food.UpsertOrder(fx.Restaurant.ID, created.BookingID, []OrderItemInput{
		{FoodItemID: item.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.50, order.TotalAmount, 0.001)
	require.NoError(t, db.First(&row, stock.ID).Error)
	assert.Equal(t, 9, row.CurrentStock)

	// Asking beyond stock fails and leaves stock untouched.
	_, err = food.UpsertOrder(fx.Restaurant.ID, created.BookingID, []OrderItemInput{
		{FoodItemID: item.ID, Quantity: 50},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, db.First(&row, stock.ID).Error)
	assert.Equal(t, 9, row.CurrentStock)
}

func TestFinalizeOrderLocksEdits(t *testing.T) {
	db := newTestDB(t, "food_finalize")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)
	food := NewFoodService(db)

	category := models.FoodCategory{RestaurantID: fx.Restaurant.ID, Name: "Mains"}
	require.NoError(t, db.Create(&category).Error)
	item := models.FoodItem{
		FoodCategoryID: category.ID,
		Name:           "Dal",
		BasePrice:      6,
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(&item).Error)

	created := makeBooking(t, bookings, fx, 2)
	_, err := lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	require.NoError(t, err)

	_, err = food.UpsertOrder(fx.Restaurant.ID, created.BookingID, []OrderItemInput{
		{FoodItemID: item.ID, Quantity: 2},
	})
	require.NoError(t, err)

	order, err := food.FinalizeOrder(fx.Restaurant.ID, created.BookingID)
	require.NoError(t, err)
	assert.True(t, order.IsFinalized)

	_, err = food.FinalizeOrder(fx.Restaurant.ID, created.BookingID)
	assert.ErrorIs(t, err, ErrOrderFinalized)

	_, err = food.UpsertOrder(fx.Restaurant.ID, created.BookingID, []OrderItemInput{
		{FoodItemID: item.ID, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrOrderFinalized)
}

func TestOrderRequiresActiveBooking(t *testing.T) {
	db := newTestDB(t, "food_pending")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	food := NewFoodService(db)

	category := models.FoodCategory{RestaurantID: fx.Restaurant.ID, Name: "Mains"}
	require.NoError(t, db.Create(&category).Error)
	item := models.FoodItem{
		FoodCategoryID: category.ID,
		Name:           "Dal",
		BasePrice:      6,
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(&item).Error)

	created := makeBooking(t, bookings, fx, 2)
	_, err := food.UpsertOrder(fx.Restaurant.ID, created.BookingID, []OrderItemInput{
		{FoodItemID: item.ID, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMenuOfferingPeriodFilter(t *testing.T) {
	db := newTestDB(t, "food_periods")
	fx := seedRestaurant(t, db, 4)
	food := NewFoodService(db)

	category := models.FoodCategory{RestaurantID: fx.Restaurant.ID, Name: "All Day"}
	require.NoError(t, db.Create(&category).Error)

	breakfast := models.FoodOfferingPeriod{
		RestaurantID: fx.Restaurant.ID,
		Name:         "Breakfast",
		StartTime:    "07:00",
		EndTime:      "11:00",
	}
	require.NoError(t, db.Create(&breakfast).Error)

	pancakes := models.FoodItem{
		FoodCategoryID: category.ID,
		Name:           "Pancakes",
		BasePrice:      5,
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(&pancakes).Error)
	require.NoError(t, db.Model(&pancakes).Association("OfferingPeriods").Append(&breakfast))

	curry := models.FoodItem{
		FoodCategoryID: category.ID,
		Name:           "Curry",
		BasePrice:      9,
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(&curry).Error)

	morning, err := food.Menu(fx.Restaurant.ID, "09:00")
	require.NoError(t, err)
	assert.Len(t, morning, 2)

	evening, err := food.Menu(fx.Restaurant.ID, "19:30")
	require.NoError(t, err)
	require.Len(t, evening, 1)
	assert.Equal(t, "Curry", evening[0].Name)
}

func TestUntrackedItemNeverRunsOut(t *testing.T) {
	db := newTestDB(t, "food_untracked")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)
	food := NewFoodService(db)

	category := models.FoodCategory{RestaurantID: fx.Restaurant.ID, Name: "Drinks"}
	require.NoError(t, db.Create(&category).Error)
	water := models.FoodItem{
		FoodCategoryID: category.ID,
		Name:           "Water",
		BasePrice:      1,
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(&water).Error)

	created := makeBooking(t, bookings, fx, 2)
	_, err := lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	require.NoError(t, err)

	_, err = food.UpsertOrder(fx.Restaurant.ID, created.BookingID, []OrderItemInput{
		{FoodItemID: water.ID, Quantity: 500},
	})
	assert.NoError(t, err, "items without a stock row are untracked")
}
