package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/mmdatafocus/shopledger_backend/workflow"
	"github.com/shopspring/decimal"
)

// Seeds a demo business with a stocked catalog, an opening balance journal,
// one cash sale and one installment sale. Intended for dev databases only.
func main() {
	name := flag.String("name", "Demo Shop", "Business display name")
	optionsPath := flag.String("options", "options.yaml", "Path to the options file")
	flag.Parse()

	if err := config.LoadOptions(*optionsPath); err != nil {
		fmt.Fprintf(os.Stderr, "options load failed: %v\n", err)
		os.Exit(1)
	}
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	business, err := models.CreateBusiness(ctx, &models.NewBusiness{
		DisplayName: *name,
		Timezone:    "UTC",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "business create failed: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetBusinessIdInContext(ctx, business.ID)
	fmt.Printf("business: %s\n", business.ID)

	type itemSeed struct {
		name   string
		sku    string
		cost   int64
		retail int64
		stock  int64
	}
	seeds := []itemSeed{
		{"Rice 25kg", "RICE-25", 18000, 24000, 40},
		{"Cooking Oil 1L", "OIL-1L", 3500, 5000, 120},
		{"Instant Coffee Mix", "COFFEE-MIX", 2200, 3200, 200},
		{"Electric Kettle", "KETTLE-E", 12000, 19500, 15},
	}

	var items []*models.Item
	openingStockValue := decimal.Zero
	for _, seed := range seeds {
		item, err := models.CreateItem(ctx, &models.NewItem{
			Name:             seed.name,
			Sku:              seed.sku,
			CostPrice:        decimal.NewFromInt(seed.cost),
			RetailPrice:      decimal.NewFromInt(seed.retail),
			ReorderThreshold: decimal.NewFromInt(10),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "item create failed: %v\n", err)
			os.Exit(1)
		}
		items = append(items, item)

		location, err := models.GetDefaultLocation(ctx, business.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "default location missing: %v\n", err)
			os.Exit(1)
		}
		err = models.AdjustStockManual(ctx, &models.ManualAdjustmentInput{
			ItemId:     item.ID,
			LocationId: location.ID,
			Delta:      decimal.NewFromInt(seed.stock),
			Reason:     "opening stock",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening stock failed: %v\n", err)
			os.Exit(1)
		}
		openingStockValue = openingStockValue.Add(
			item.CostPrice.Mul(decimal.NewFromInt(seed.stock)))
	}

	accounts, err := models.GetSystemAccounts(ctx, business.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "system accounts missing: %v\n", err)
		os.Exit(1)
	}
	openingCash := decimal.NewFromInt(500000)
	_, err = models.PostJournal(ctx, &models.NewJournal{
		PostingDate: time.Now().UTC(),
		RefType:     models.JournalRefTypeOpening,
		Description: "Opening balances",
		Lines: []models.NewJournalLine{
			{AccountId: accounts[models.SystemAccountCash].ID, Debit: openingCash},
			{AccountId: accounts[models.SystemAccountInventory].ID, Debit: openingStockValue},
			{AccountId: accounts[models.SystemAccountOwnersEquity].ID, Credit: openingCash.Add(openingStockValue)},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening journal failed: %v\n", err)
		os.Exit(1)
	}

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{
		Name:        "Daw Khin",
		Contact:     "09-555-0101",
		CreditLimit: decimal.NewFromInt(300000),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "customer create failed: %v\n", err)
		os.Exit(1)
	}

	cashSale, err := workflow.CreateSale(ctx, &models.NewSale{
		PaymentType: models.PaymentTypeCash,
		Lines: []models.NewSaleLine{
			{ItemId: items[0].ID, Qty: 2},
			{ItemId: items[1].ID, Qty: 3},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cash sale failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("cash sale: %s total %s\n", cashSale.InvoiceNumber, cashSale.TotalAmount)

	installmentSale, err := workflow.CreateSale(ctx, &models.NewSale{
		PaymentType:     models.PaymentTypeInstallment,
		CustomerId:      customer.ID,
		DownPayment:     decimal.NewFromInt(5000),
		NumInstallments: 4,
		Frequency:       models.FrequencyMonthly,
		Lines: []models.NewSaleLine{
			{ItemId: items[3].ID, Qty: 1},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "installment sale failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("installment sale: %s total %s\n",
		installmentSale.InvoiceNumber, installmentSale.TotalAmount)
}
