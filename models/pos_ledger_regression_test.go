package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/models/reports"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/mmdatafocus/shopledger_backend/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end posting regression: onboard a tenant, post a cash sale, an
// installment sale with a collection, and a void, then check the ledger and
// the stock levels against hand-computed values.
func TestPosSaleLedgerAndStockRegression(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
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

	// Onboarding creates the default location and the standard chart.
	business, err := models.CreateBusiness(ctx, &models.NewBusiness{
		DisplayName: "Test Shop",
		Timezone:    "UTC",
	})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	businessId := business.ID
	ctx = utils.SetBusinessIdInContext(ctx, businessId)

	location, err := models.GetDefaultLocation(ctx, businessId)
	if err != nil {
		t.Fatalf("GetDefaultLocation: %v", err)
	}

	accounts, err := models.GetSystemAccounts(ctx, businessId)
	if err != nil {
		t.Fatalf("GetSystemAccounts: %v", err)
	}
	for _, code := range []string{
		models.SystemAccountCash, models.SystemAccountInventory,
		models.SystemAccountAccountsReceivable, models.SystemAccountSalesRevenue,
	} {
		if accounts[code] == nil {
			t.Fatalf("missing system account %s", code)
		}
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
	kettle, err := models.CreateItem(ctx, &models.NewItem{
		Name:        "Electric Kettle",
		Sku:         "KETTLE-01",
		CostPrice:   decimal.RequireFromString("20000.00"),
		RetailPrice: decimal.RequireFromString("30000.00"),
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	for _, seed := range []struct {
		itemId int
		qty    string
	}{
		{rice.ID, "50"},
		{kettle.ID, "10"},
	} {
		err := models.AdjustStockManual(ctx, &models.ManualAdjustmentInput{
			ItemId:     seed.itemId,
			LocationId: location.ID,
			Delta:      decimal.RequireFromString(seed.qty),
			Reason:     "opening stock",
		})
		if err != nil {
			t.Fatalf("AdjustStockManual: %v", err)
		}
	}

	// Opening journal so the balance sheet has cash and inventory to draw down.
	stockValue := decimal.RequireFromString("250000.00") // 50*1000 + 10*20000
	openingCash := decimal.RequireFromString("500000.00")
	_, err = models.PostJournal(ctx, &models.NewJournal{
		PostingDate: time.Now().UTC().AddDate(0, 0, -30),
		RefType:     models.JournalRefTypeOpening,
		Description: "Opening balances",
		Lines: []models.NewJournalLine{
			{AccountId: accounts[models.SystemAccountCash].ID, Debit: openingCash},
			{AccountId: accounts[models.SystemAccountInventory].ID, Debit: stockValue},
			{AccountId: accounts[models.SystemAccountOwnersEquity].ID, Credit: openingCash.Add(stockValue)},
		},
	})
	if err != nil {
		t.Fatalf("PostJournal opening: %v", err)
	}

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{
		Name:        "Daw Khin",
		CreditLimit: decimal.RequireFromString("300000.00"),
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	// Cash sale: 2 rice at 1500, 5% tax. Total = 3000 + 150 = 3150.
	taxRate := decimal.RequireFromString("0.05")
	cashSale, err := workflow.CreateSale(ctx, &models.NewSale{
		PaymentType: models.PaymentTypeCash,
		TaxRate:     &taxRate,
		Lines:       []models.NewSaleLine{{ItemId: rice.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("CreateSale cash: %v", err)
	}
	if cashSale.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("cash sale payment status = %s, want paid", cashSale.PaymentStatus)
	}
	if !cashSale.TotalAmount.Equal(decimal.RequireFromString("3150.00")) {
		t.Errorf("cash sale total = %s, want 3150.00", cashSale.TotalAmount)
	}
	if cashSale.JournalId == 0 {
		t.Error("cash sale posted without a journal")
	}
	onHand, err := models.GetOnHand(ctx, businessId, rice.ID)
	if err != nil {
		t.Fatalf("GetOnHand: %v", err)
	}
	if !onHand.Equal(decimal.RequireFromString("48")) {
		t.Errorf("rice on hand = %s, want 48", onHand)
	}

	// Oversell must fail atomically: stock untouched, no invoice row.
	_, err = workflow.CreateSale(ctx, &models.NewSale{
		PaymentType: models.PaymentTypeCash,
		Lines:       []models.NewSaleLine{{ItemId: rice.ID, Qty: 10000}},
	})
	if !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("oversell error = %v, want ErrInsufficientStock", err)
	}
	if onHand, _ = models.GetOnHand(ctx, businessId, rice.ID); !onHand.Equal(decimal.RequireFromString("48")) {
		t.Errorf("rice on hand after failed sale = %s, want 48", onHand)
	}

	// Installment sale: 2 kettles at 30000, zero tax, 10000 down over 4 months
	// starting on an agreed date ten days out.
	zero := decimal.Zero
	agreedStart := utils.StartOfDay(time.Now().UTC().AddDate(0, 0, 10))
	installmentSale, err := workflow.CreateSale(ctx, &models.NewSale{
		CustomerId:      customer.ID,
		PaymentType:     models.PaymentTypeInstallment,
		TaxRate:         &zero,
		DownPayment:     decimal.RequireFromString("10000.00"),
		NumInstallments: 4,
		Frequency:       models.FrequencyMonthly,
		StartDate:       agreedStart,
		Lines:           []models.NewSaleLine{{ItemId: kettle.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("CreateSale installment: %v", err)
	}
	plan, err := models.GetInstallmentPlanBySale(ctx, installmentSale.ID)
	if err != nil {
		t.Fatalf("GetInstallmentPlanBySale: %v", err)
	}
	financed := decimal.RequireFromString("50000.00")
	if !plan.TotalFinanced.Equal(financed) || !plan.OutstandingAmount.Equal(financed) {
		t.Errorf("plan financed=%s outstanding=%s, want 50000.00 both", plan.TotalFinanced, plan.OutstandingAmount)
	}
	if len(plan.Payments) != 4 {
		t.Fatalf("plan has %d installments, want 4", len(plan.Payments))
	}
	scheduled := decimal.Zero
	for _, payment := range plan.Payments {
		scheduled = scheduled.Add(payment.DueAmount)
	}
	if !scheduled.Equal(financed) {
		t.Errorf("schedule sums to %s, want %s", scheduled, financed)
	}
	if got := utils.StartOfDay(plan.Payments[0].DueDate); !got.Equal(agreedStart) {
		t.Errorf("first due date = %s, want agreed start %s", got, agreedStart)
	}
	if freshCustomer, _ := models.GetCustomer(ctx, customer.ID); !freshCustomer.CurrentCredit.Equal(financed) {
		t.Errorf("customer credit = %s, want %s", freshCustomer.CurrentCredit, financed)
	}

	// Collect the first installment plus half the second, by bank transfer.
	collected := decimal.RequireFromString("18750.00")
	collectedAt := time.Now().UTC()
	plan, err = workflow.ApplyInstallmentPayment(ctx, plan.ID, collected, models.PaymentMethodBank, collectedAt)
	if err != nil {
		t.Fatalf("ApplyInstallmentPayment: %v", err)
	}
	if !plan.OutstandingAmount.Equal(decimal.RequireFromString("31250.00")) {
		t.Errorf("outstanding after payment = %s, want 31250.00", plan.OutstandingAmount)
	}
	plan, err = models.GetInstallmentPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetInstallmentPlan: %v", err)
	}
	if plan.Payments[0].Status != models.InstallmentPaymentPaid {
		t.Errorf("installment 1 status = %s, want paid", plan.Payments[0].Status)
	}
	if !plan.Payments[1].PaidAmount.Equal(decimal.RequireFromString("6250.00")) {
		t.Errorf("installment 2 paid = %s, want 6250.00", plan.Payments[1].PaidAmount)
	}
	if freshCustomer, _ := models.GetCustomer(ctx, customer.ID); !freshCustomer.CurrentCredit.Equal(decimal.RequireFromString("31250.00")) {
		t.Errorf("customer credit after payment = %s, want 31250.00", freshCustomer.CurrentCredit)
	}

	// Void the cash sale: stock back, reversal journal, ledger still balanced.
	voided, err := workflow.VoidSale(ctx, cashSale.ID)
	if err != nil {
		t.Fatalf("VoidSale: %v", err)
	}
	if voided.VoidedAt == nil || voided.VoidJournalId == nil {
		t.Error("voided sale missing void timestamp or reversal journal")
	}
	if onHand, _ = models.GetOnHand(ctx, businessId, rice.ID); !onHand.Equal(decimal.RequireFromString("50")) {
		t.Errorf("rice on hand after void = %s, want 50", onHand)
	}
	if _, err := workflow.VoidSale(ctx, cashSale.ID); err == nil {
		t.Error("second void of the same sale should fail")
	}
	// A plan with a collected installment cannot be voided.
	if _, err := workflow.VoidSale(ctx, installmentSale.ID); err == nil {
		t.Error("voiding an installment sale with collections should fail")
	}

	// The trial balance must hold after every posting above.
	trialBalance, err := reports.GetTrialBalanceReport(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("GetTrialBalanceReport: %v", err)
	}
	if !trialBalance.Balanced {
		t.Errorf("trial balance out of balance: debit=%s credit=%s",
			trialBalance.TotalDebit, trialBalance.TotalCredit)
	}

	// Cash account: opening 500000 + cash sale 3150 - void 3150 + down 10000.
	// The bank-transfer collection lands on the Bank account instead.
	cashBalance, err := models.AccountBalance(ctx, accounts[models.SystemAccountCash].ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("AccountBalance: %v", err)
	}
	wantCash := decimal.RequireFromString("510000.00")
	if !cashBalance.Equal(wantCash) {
		t.Errorf("cash balance = %s, want %s", cashBalance, wantCash)
	}
	bankBalance, err := models.AccountBalance(ctx, accounts[models.SystemAccountBank].ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("AccountBalance bank: %v", err)
	}
	if !bankBalance.Equal(collected) {
		t.Errorf("bank balance = %s, want %s", bankBalance, collected)
	}

	// Running totals on the cash flow ledger end at the account balance.
	entries, err := models.ListCashFlowEntries(ctx, accounts[models.SystemAccountCash].ID,
		time.Now().UTC().AddDate(0, 0, -31), time.Now().UTC())
	if err != nil {
		t.Fatalf("ListCashFlowEntries: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no cash flow entries recorded")
	}
	if last := entries[len(entries)-1]; !last.RunningTotal.Equal(wantCash) {
		t.Errorf("final running total = %s, want %s", last.RunningTotal, wantCash)
	}

	// Receivable matches the plan outstanding.
	arBalance, err := models.AccountBalance(ctx, accounts[models.SystemAccountAccountsReceivable].ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("AccountBalance AR: %v", err)
	}
	if !arBalance.Equal(decimal.RequireFromString("31250.00")) {
		t.Errorf("receivable balance = %s, want 31250.00", arBalance)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("shopledger-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "redis-cli", "ping"); err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("shopledger-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=shopledger_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent"); err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
