package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/mmdatafocus/shopledger_backend/workflow"
	"github.com/shopspring/decimal"
)

// Transfer lifecycle regression: a pending transfer reserves stock at the
// source so it cannot be sold out from under the transfer, completion moves
// on-hand between locations, and cancellation hands the reservation back.
func TestStockTransferReservationRegression(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "shopledger_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	business, err := models.CreateBusiness(ctx, &models.NewBusiness{
		DisplayName: "Transfer Shop",
		Timezone:    "UTC",
	})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	businessId := business.ID
	ctx = utils.SetBusinessIdInContext(ctx, businessId)

	store, err := models.GetDefaultLocation(ctx, businessId)
	if err != nil {
		t.Fatalf("GetDefaultLocation: %v", err)
	}
	warehouse, err := models.CreateLocation(ctx, &models.NewLocation{
		Name: "Back Warehouse",
		Type: models.LocationTypeWarehouse,
	})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	rice, err := models.CreateItem(ctx, &models.NewItem{
		Name:        "Rice 5kg",
		Sku:         "RICE-5KG",
		CostPrice:   decimal.RequireFromString("1000.00"),
		RetailPrice: decimal.RequireFromString("1500.00"),
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	err = models.AdjustStockManual(ctx, &models.ManualAdjustmentInput{
		ItemId:     rice.ID,
		LocationId: store.ID,
		Delta:      decimal.RequireFromString("10"),
		Reason:     "opening stock",
	})
	if err != nil {
		t.Fatalf("AdjustStockManual: %v", err)
	}

	// Pending transfer of 6: on-hand stays put, reservation goes up.
	transfer, err := models.CreateTransfer(ctx, &models.NewStockTransfer{
		FromLocationId: store.ID,
		ToLocationId:   warehouse.ID,
		Lines:          []models.NewStockTransferLine{{ItemId: rice.ID, Qty: decimal.RequireFromString("6")}},
	})
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}
	if transfer.Status != models.TransferStatusPending {
		t.Fatalf("new transfer status = %s, want pending", transfer.Status)
	}
	assertLocationStock(t, ctx, businessId, rice.ID, store.ID, "10", "6")

	// Only 4 are sellable; a sale of 5 must hit the reservation wall.
	_, err = workflow.CreateSale(ctx, &models.NewSale{
		PaymentType: models.PaymentTypeCash,
		Lines:       []models.NewSaleLine{{ItemId: rice.ID, Qty: 5}},
	})
	if !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("sale into reserved stock error = %v, want ErrInsufficientStock", err)
	}
	if _, err := workflow.CreateSale(ctx, &models.NewSale{
		PaymentType: models.PaymentTypeCash,
		Lines:       []models.NewSaleLine{{ItemId: rice.ID, Qty: 4}},
	}); err != nil {
		t.Fatalf("sale of the unreserved remainder: %v", err)
	}
	assertLocationStock(t, ctx, businessId, rice.ID, store.ID, "6", "6")

	// Reserving past available must fail too.
	_, err = models.CreateTransfer(ctx, &models.NewStockTransfer{
		FromLocationId: store.ID,
		ToLocationId:   warehouse.ID,
		Lines:          []models.NewStockTransferLine{{ItemId: rice.ID, Qty: decimal.RequireFromString("1")}},
	})
	if !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("over-reserve error = %v, want ErrInsufficientStock", err)
	}

	// A pending transfer cannot jump straight to completed.
	if _, err := models.CompleteTransfer(ctx, transfer.ID); err == nil {
		t.Fatal("completing a pending transfer should fail")
	}

	if _, err := models.AdvanceTransfer(ctx, transfer.ID); err != nil {
		t.Fatalf("AdvanceTransfer: %v", err)
	}
	// In transit the goods are committed; cancellation is off the table.
	if _, err := models.CancelTransfer(ctx, transfer.ID); err == nil {
		t.Fatal("cancelling an in_transit transfer should fail")
	}

	completed, err := models.CompleteTransfer(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("CompleteTransfer: %v", err)
	}
	if completed.Status != models.TransferStatusCompleted || completed.CompletedAt == nil {
		t.Errorf("completed transfer status=%s completed_at=%v", completed.Status, completed.CompletedAt)
	}
	assertLocationStock(t, ctx, businessId, rice.ID, store.ID, "0", "0")
	assertLocationStock(t, ctx, businessId, rice.ID, warehouse.ID, "6", "0")
	if _, err := models.CompleteTransfer(ctx, transfer.ID); err == nil {
		t.Error("second completion of the same transfer should fail")
	}

	// Cancellation path: reserve from the warehouse, then hand it back.
	returning, err := models.CreateTransfer(ctx, &models.NewStockTransfer{
		FromLocationId: warehouse.ID,
		ToLocationId:   store.ID,
		Lines:          []models.NewStockTransferLine{{ItemId: rice.ID, Qty: decimal.RequireFromString("4")}},
	})
	if err != nil {
		t.Fatalf("CreateTransfer return leg: %v", err)
	}
	assertLocationStock(t, ctx, businessId, rice.ID, warehouse.ID, "6", "4")

	cancelled, err := models.CancelTransfer(ctx, returning.ID)
	if err != nil {
		t.Fatalf("CancelTransfer: %v", err)
	}
	if cancelled.Status != models.TransferStatusCancelled || cancelled.CancelledAt == nil {
		t.Errorf("cancelled transfer status=%s cancelled_at=%v", cancelled.Status, cancelled.CancelledAt)
	}
	assertLocationStock(t, ctx, businessId, rice.ID, warehouse.ID, "6", "0")

	// The movement log carries one source and one destination entry per
	// completed line, tied together by the transfer reference.
	var movements []models.StockMovement
	err = config.GetDB().WithContext(ctx).
		Where("business_id = ? AND ref_type = ? AND ref_id = ?", businessId, models.MovementRefTypeTransfer, transfer.ID).
		Order("id").Find(&movements).Error
	if err != nil {
		t.Fatalf("load transfer movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("transfer produced %d movements, want 2", len(movements))
	}
	if !movements[0].Delta.Equal(decimal.RequireFromString("-6")) || movements[0].LocationId != store.ID {
		t.Errorf("source movement = %s at location %d, want -6 at %d", movements[0].Delta, movements[0].LocationId, store.ID)
	}
	if !movements[1].Delta.Equal(decimal.RequireFromString("6")) || movements[1].LocationId != warehouse.ID {
		t.Errorf("destination movement = %s at location %d, want 6 at %d", movements[1].Delta, movements[1].LocationId, warehouse.ID)
	}
}

func assertLocationStock(t *testing.T, ctx context.Context, businessId string, itemId, locationId int, wantOnHand, wantReserved string) {
	t.Helper()
	var stock models.LocationStock
	err := config.GetDB().WithContext(ctx).
		Where("business_id = ? AND item_id = ? AND location_id = ?", businessId, itemId, locationId).
		First(&stock).Error
	if err != nil {
		t.Fatalf("load location stock item=%d location=%d: %v", itemId, locationId, err)
	}
	if !stock.OnHand.Equal(decimal.RequireFromString(wantOnHand)) {
		t.Errorf("on hand item=%d location=%d = %s, want %s", itemId, locationId, stock.OnHand, wantOnHand)
	}
	if !stock.Reserved.Equal(decimal.RequireFromString(wantReserved)) {
		t.Errorf("reserved item=%d location=%d = %s, want %s", itemId, locationId, stock.Reserved, wantReserved)
	}
}
