package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/models"
	"github.com/shopspring/decimal"
)

// Regression: concurrent bill submissions must never mint the same bill
// number, and a rolled-back submission must not block later ones.
func TestDocumentNumbering_ConcurrentSalesGetDistinctBillNumbers(t *testing.T) {
	ctx := setupIntegration(t)

	titleId := seedTitle(t, ctx, "Chemmeen", "978-81-264-1822-5")

	const workers = 8
	billNos := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sale, err := models.CreateSale(ctx, newSaleInput(titleId, fmt.Sprintf("Customer %d", i)))
			if err != nil {
				t.Errorf("CreateSale %d: %v", i, err)
				return
			}
			billNos <- sale.BillNo
		}(i)
	}
	wg.Wait()
	close(billNos)

	seen := map[string]bool{}
	for no := range billNos {
		if seen[no] {
			t.Fatalf("bill number %s issued twice", no)
		}
		seen[no] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d bills, got %d", workers, len(seen))
	}
}

func TestDocumentNumbering_FailedSubmissionLeavesGapNotDuplicate(t *testing.T) {
	ctx := setupIntegration(t)

	titleId := seedTitle(t, ctx, "Randamoozham", "978-81-226-0193-0")

	first, err := models.CreateSale(ctx, newSaleInput(titleId, "First"))
	if err != nil {
		t.Fatalf("first sale: %v", err)
	}

	// A line pointing at a title that does not exist rolls the whole
	// submission back after the counter was bumped.
	bad := newSaleInput(titleId, "Broken")
	bad.Items[0].TitleId = 999999
	bad.Items[0].ItemName = "No Such Book"
	if _, err := models.CreateSale(ctx, bad); err == nil {
		t.Fatal("expected unresolved title to fail the submission")
	}

	second, err := models.CreateSale(ctx, newSaleInput(titleId, "Second"))
	if err != nil {
		t.Fatalf("second sale: %v", err)
	}
	if second.BillNo == first.BillNo {
		t.Fatalf("bill number %s reused after rollback", second.BillNo)
	}
}

// Regression: purchase lines open batches (closing = quantity, tax split in
// half), and replacing lines on update keeps surviving batch ids stable.
func TestPurchase_BatchOpeningAndLineDiff(t *testing.T) {
	ctx := setupIntegration(t)

	titleId := seedTitle(t, ctx, "Khasakkinte Itihasam", "978-81-226-0034-6")
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		SupplierNm: "DC Books",
		Phone:      "+919847012345",
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	branch, err := models.CreateBranch(ctx, &models.NewBranch{BranchesNm: "Kozhikode"})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	input := &models.NewPurchase{
		BillNo:     "INV-001",
		BillDate:   time.Now(),
		SupplierId: supplier.ID,
		Type:       "Purchase",
		BranchesId: branch.ID,
		Items: []models.NewPurchaseItem{
			{TitleId: titleId, PurchaseRate: decimal.NewFromInt(250), Quantity: decimal.NewFromInt(10), Tax: decimal.NewFromInt(12)},
		},
	}
	purchase, err := models.CreatePurchase(ctx, input)
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if len(purchase.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(purchase.Items))
	}
	item := purchase.Items[0]
	if !item.Closing.Equal(item.Quantity) {
		t.Fatalf("closing %s != quantity %s on a fresh batch", item.Closing, item.Quantity)
	}
	if !item.Sgst.Equal(decimal.NewFromInt(6)) || !item.Cgst.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("tax not split in half: sgst=%s cgst=%s", item.Sgst, item.Cgst)
	}

	// Update keeps the surviving line's id while adding a second line.
	input.Items[0].ItemId = item.ID
	input.Items[0].Quantity = decimal.NewFromInt(15)
	input.Items = append(input.Items, models.NewPurchaseItem{
		TitleId: titleId, PurchaseRate: decimal.NewFromInt(300), Quantity: decimal.NewFromInt(5),
	})
	updated, err := models.UpdatePurchase(ctx, purchase.ID, input)
	if err != nil {
		t.Fatalf("UpdatePurchase: %v", err)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("expected 2 items after update, got %d", len(updated.Items))
	}
	found := false
	for _, it := range updated.Items {
		if it.ID == item.ID {
			found = true
			if !it.Quantity.Equal(decimal.NewFromInt(15)) {
				t.Fatalf("surviving line not updated: quantity %s", it.Quantity)
			}
		}
	}
	if !found {
		t.Fatalf("surviving batch id %d was renumbered on update", item.ID)
	}

	batches, err := models.SelectBatches(ctx, titleId)
	if err != nil {
		t.Fatalf("SelectBatches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 open batches, got %d", len(batches))
	}
	for _, b := range batches {
		if b.PurchaseId != purchase.ID {
			t.Fatalf("batch origin purchase %d != %d", b.PurchaseId, purchase.ID)
		}
		if b.PurchaseItemId == 0 {
			t.Fatal("batch missing origin item id")
		}
	}
}

// Regression: composite-key allocation pins one connection for the advisory
// lock, the transaction and the release. Concurrent submissions must get
// distinct (company_id, id) pairs, and once a submission commits the lock
// is free again, so the next create finishes without waiting out GET_LOCK.
func TestPurchaseReturn_CompositeKeyAllocation(t *testing.T) {
	ctx := setupIntegration(t)

	titleId := seedTitle(t, ctx, "Balyakalasakhi", "978-81-264-1200-1")

	newReturnInput := func() *models.NewPurchaseReturn {
		return &models.NewPurchaseReturn{
			EntryDate: time.Now(),
			Nett:      decimal.NewFromInt(500),
			Items: []models.NewPurchaseReturnItem{
				{TitleId: titleId, Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(250)},
			},
		}
	}

	const workers = 6
	results := make(chan *models.PurchaseReturn, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pr, err := models.CreatePurchaseReturn(ctx, newReturnInput())
			if err != nil {
				t.Errorf("CreatePurchaseReturn: %v", err)
				return
			}
			results <- pr
		}()
	}
	wg.Wait()
	close(results)

	seenIds := map[int]bool{}
	seenNos := map[int64]bool{}
	for pr := range results {
		if pr.CompanyId != 1 {
			t.Fatalf("company id %d, expected 1", pr.CompanyId)
		}
		if seenIds[pr.ID] {
			t.Fatalf("row id %d allocated twice", pr.ID)
		}
		seenIds[pr.ID] = true
		if seenNos[pr.PurchaseRtNo] {
			t.Fatalf("purchase return number %d issued twice", pr.PurchaseRtNo)
		}
		seenNos[pr.PurchaseRtNo] = true
	}
	if len(seenIds) != workers {
		t.Fatalf("expected %d returns, got %d", workers, len(seenIds))
	}

	// One more create after everything committed: it has to finish well
	// inside GET_LOCK's 30 second wait, or a session is still holding the
	// allocation lock.
	start := time.Now()
	if _, err := models.CreatePurchaseReturn(ctx, newReturnInput()); err != nil {
		t.Fatalf("follow-up return: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("follow-up return took %s, allocation lock was not released", elapsed)
	}
}

// Regression: a sales return copies the batch origin off the referenced
// sale line, ignoring whatever the client sent.
func TestSalesReturn_CopiesOriginFromSaleLine(t *testing.T) {
	ctx := setupIntegration(t)

	titleId := seedTitle(t, ctx, "Aadujeevitham", "978-81-226-2811-1")

	customer, err := models.CreateCrCustomer(ctx, &models.NewCrCustomer{
		CustomerNm: "Return Customer",
		Class:      "Individual",
	})
	if err != nil {
		t.Fatalf("CreateCrCustomer: %v", err)
	}

	saleInput := newSaleInput(titleId, "Return Customer")
	saleInput.Items[0].PurchaseCompanyId = 1
	saleInput.Items[0].PurchaseId = 77
	saleInput.Items[0].PurchaseItemId = 770
	sale, err := models.CreateSale(ctx, saleInput)
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	saleDetId := sale.Items[0].ID

	returnInput := &models.NewSalesReturn{
		Date:     time.Now(),
		Type:     "Credit Sale",
		Pay:      "Cash",
		Customer: "Return Customer",
		Nett:     decimal.NewFromInt(200),
		Items: []models.NewSalesReturnItem{
			{
				TitleId:   titleId,
				Qty:       decimal.NewFromInt(1),
				Rate:      decimal.NewFromInt(200),
				SaleDetId: saleDetId,
				LineValue: decimal.NewFromInt(200),
			},
		},
	}
	salesReturn, err := models.CreateSalesReturn(ctx, returnInput)
	if err != nil {
		t.Fatalf("CreateSalesReturn: %v", err)
	}
	if len(salesReturn.Items) != 1 {
		t.Fatalf("expected 1 return item, got %d", len(salesReturn.Items))
	}
	if salesReturn.CrCustomerId != customer.ID {
		t.Fatalf("customer name lookup: cr_customer_id %d, expected %d", salesReturn.CrCustomerId, customer.ID)
	}
	got := salesReturn.Items[0]
	if got.PurchaseCompanyId != 1 || got.PurchaseId != 77 || got.PurchaseDetId != 770 {
		t.Fatalf("origin triple not copied from sale line: (%d, %d, %d)",
			got.PurchaseCompanyId, got.PurchaseId, got.PurchaseDetId)
	}

	// A return against a vanished sale line must fail, not silently
	// persist a dangling origin.
	returnInput.Items[0].SaleDetId = 999999
	if _, err := models.CreateSalesReturn(ctx, returnInput); err == nil {
		t.Fatal("expected return against unknown sale line to fail")
	}
}

func newSaleInput(titleId int, customer string) *models.NewSale {
	return &models.NewSale{
		CustomerNm:   customer,
		SaleDate:     time.Now(),
		MobileNumber: "+919847099999",
		Type:         "Credit Sale",
		Mode:         "Cash",
		Class:        "Individual",
		Cancel:       "no",
		Gross:        decimal.NewFromInt(200),
		BillAmount:   decimal.NewFromInt(200),
		Items: []models.NewSaleItem{
			{
				TitleId:  titleId,
				Quantity: decimal.NewFromInt(1),
				Rate:     decimal.NewFromInt(200),
				Value:    decimal.NewFromInt(200),
			},
		},
	}
}

func seedTitle(t *testing.T, ctx context.Context, name, isbn string) int {
	t.Helper()
	title, err := models.CreateTitle(ctx, &models.NewTitle{
		Title: name,
		Isbn:  isbn,
		Rate:  decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("CreateTitle(%s): %v", name, err)
	}
	return title.ID
}

func setupIntegration(t *testing.T) context.Context {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", "127.0.0.1:"+redisPort)
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "mathrubhumi_test")
	t.Setenv("COMPANY_ID", "1")
	t.Setenv("FISCAL_YEAR", "2526")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := config.GetRedisDB().Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis not reachable after connect: %v", err)
	}
	models.MigrateTable()

	return context.Background()
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("mbi-test-redis-%d", time.Now().UnixNano())
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
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("mbi-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=mathrubhumi_test",
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
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
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
