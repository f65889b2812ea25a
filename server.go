package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/middlewares"
	"github.com/Goku-007/mathrubhumi/models"
	"github.com/Goku-007/mathrubhumi/models/reports"
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("mathrubhumi-backoffice")

// serviceError maps the domain errors onto HTTP statuses.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrAllocationBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "system busy, retry the submission"})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, utils.ErrCounterNotFound):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sequence counter not provisioned"})
	case errors.Is(err, utils.ErrUnresolvedReference):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unresolved item reference"})
	case errors.Is(err, utils.ErrConflictingDiscountModes):
		c.JSON(http.StatusBadRequest, gin.H{"error": "conflicting discount modes"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func bindJSON[T any](c *gin.Context) (*T, bool) {
	var input T
	if err := c.ShouldBindJSON(&input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return &input, true
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func loginHandler() gin.HandlerFunc {
	type loginInput struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		input, ok := bindJSON[loginInput](c)
		if !ok {
			return
		}
		info, err := models.Login(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		input, ok := bindJSON[models.NewUser](c)
		if !ok {
			return
		}
		user, err := models.CreateUser(c.Request.Context(), input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func createSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "createSale")
		defer span.End()
		input, ok := bindJSON[models.NewSale](c)
		if !ok {
			return
		}
		sale, err := models.CreateSale(ctx, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sale)
	}
}

func getSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		sale, err := models.GetSale(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, sale)
	}
}

func updateSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		input, ok := bindJSON[models.NewSale](c)
		if !ok {
			return
		}
		sale, err := models.UpdateSale(c.Request.Context(), id, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, sale)
	}
}

func createPurchaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "createPurchase")
		defer span.End()
		input, ok := bindJSON[models.NewPurchase](c)
		if !ok {
			return
		}
		purchase, err := models.CreatePurchase(ctx, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, purchase)
	}
}

// getPurchaseByNoHandler loads by running number instead of row id.
func getPurchaseByNoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		purchaseNo, err := strconv.ParseInt(strings.TrimSpace(c.Query("purchase_no")), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "purchase_no is required"})
			return
		}
		purchase, err := models.GetPurchaseByNo(c.Request.Context(), purchaseNo)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchase)
	}
}

func getPurchaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		purchase, err := models.GetPurchase(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchase)
	}
}

func updatePurchaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		input, ok := bindJSON[models.NewPurchase](c)
		if !ok {
			return
		}
		purchase, err := models.UpdatePurchase(c.Request.Context(), id, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchase)
	}
}

func createSalesReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "createSalesReturn")
		defer span.End()
		input, ok := bindJSON[models.NewSalesReturn](c)
		if !ok {
			return
		}
		salesReturn, err := models.CreateSalesReturn(ctx, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, salesReturn)
	}
}

func getSalesReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		salesReturn, err := models.GetSalesReturn(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, salesReturn)
	}
}

func createPurchaseReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "createPurchaseReturn")
		defer span.End()
		input, ok := bindJSON[models.NewPurchaseReturn](c)
		if !ok {
			return
		}
		purchaseReturn, err := models.CreatePurchaseReturn(ctx, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, purchaseReturn)
	}
}

func getPurchaseReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		purchaseReturn, err := models.GetPurchaseReturn(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchaseReturn)
	}
}

func updatePurchaseReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		input, ok := bindJSON[models.NewPurchaseReturn](c)
		if !ok {
			return
		}
		purchaseReturn, err := models.UpdatePurchaseReturn(c.Request.Context(), id, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchaseReturn)
	}
}

func createPartyReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "createPartyReceipt")
		defer span.End()
		input, ok := bindJSON[models.NewPartyReceipt](c)
		if !ok {
			return
		}
		receipt, err := models.CreatePartyReceipt(ctx, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, receipt)
	}
}

func getPartyReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		receiptNo, err := strconv.ParseInt(strings.TrimSpace(c.Query("receipt_no")), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "receipt_no is required"})
			return
		}
		receipt, err := models.GetPartyReceiptByNo(c.Request.Context(), receiptNo)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

func createRemittanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "createRemittance")
		defer span.End()
		input, ok := bindJSON[models.NewRemittance](c)
		if !ok {
			return
		}
		remittance, err := models.CreateRemittance(ctx, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, remittance)
	}
}

func getRemittanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		remittanceNo, err := strconv.ParseInt(strings.TrimSpace(c.Query("remittance_no")), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "remittance_no is required"})
			return
		}
		remittance, err := models.GetRemittanceByNo(c.Request.Context(), remittanceNo)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, remittance)
	}
}

// searchHandler adapts the q= search functions to a route.
func searchHandler[T any](search func(ctx context.Context, query string) ([]*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := search(c.Request.Context(), c.Query("q"))
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func searchPurchasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		supplierId, err := strconv.Atoi(c.Query("supplier_id"))
		if err != nil || supplierId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "supplier_id is required"})
			return
		}
		results, err := models.SearchPurchases(c.Request.Context(), supplierId, c.Query("q"))
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func purchaseItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		items, err := models.GetPurchaseItems(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func saleItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		items, err := models.GetSaleItems(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func batchSelectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		titleId, err := strconv.Atoi(c.Query("title_id"))
		if err != nil || titleId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title_id is required"})
			return
		}
		batches, err := models.SelectBatches(c.Request.Context(), titleId)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, batches)
	}
}

func currenciesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		currencies, err := models.GetCurrencies(c.Request.Context())
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, currencies)
	}
}

func billWiseSaleRegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		branchId, err := strconv.Atoi(c.Query("branch_id"))
		if err != nil || branchId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
			return
		}
		saleTypeId := -1
		if v := c.Query("sale_type_id"); v != "" {
			saleTypeId, err = strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale_type_id"})
				return
			}
		}
		fromDate, err := time.Parse("2006-01-02", c.Query("date_from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_from is required"})
			return
		}
		toDate, err := time.Parse("2006-01-02", c.Query("date_to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_to is required"})
			return
		}

		ctx := c.Request.Context()
		if c.Query("format") == "xlsx" {
			content, err := reports.ExportBillWiseSaleRegister(ctx, branchId, saleTypeId, fromDate, toDate)
			if err != nil {
				serviceError(c, err)
				return
			}
			c.Header("Content-Disposition", "attachment; filename=bill-wise-sale-register.xlsx")
			c.Data(http.StatusOK,
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
			return
		}

		records, err := reports.GetBillWiseSaleRegisterReport(ctx, branchId, saleTypeId, fromDate, toDate)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"report_data":   records,
			"total_records": len(records),
		})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.POST("/auth/login", loginHandler())

	authorized := r.Group("/", middlewares.AuthMiddleware())

	authorized.POST("/auth/register", middlewares.AdminOnly(), registerHandler())

	documents := authorized.Group("/documents")
	{
		documents.POST("/sales", createSaleHandler())
		documents.GET("/sales/:id", getSaleHandler())
		documents.PUT("/sales/:id", updateSaleHandler())

		documents.POST("/purchases", createPurchaseHandler())
		documents.GET("/purchases", getPurchaseByNoHandler())
		documents.GET("/purchases/:id", getPurchaseHandler())
		documents.PUT("/purchases/:id", updatePurchaseHandler())

		documents.POST("/sales-returns", createSalesReturnHandler())
		documents.GET("/sales-returns/:id", getSalesReturnHandler())

		documents.POST("/purchase-returns", createPurchaseReturnHandler())
		documents.GET("/purchase-returns/:id", getPurchaseReturnHandler())
		documents.PUT("/purchase-returns/:id", updatePurchaseReturnHandler())

		documents.POST("/party-receipts", createPartyReceiptHandler())
		documents.GET("/party-receipts", getPartyReceiptHandler())

		documents.POST("/remittances", createRemittanceHandler())
		documents.GET("/remittances", getRemittanceHandler())
	}

	lookup := authorized.Group("/lookup")
	{
		lookup.GET("/titles", searchHandler(models.SearchTitles))
		lookup.GET("/suppliers", searchHandler(models.SearchSuppliers))
		lookup.GET("/customers", searchHandler(models.SearchCrCustomers))
		lookup.GET("/agents", searchHandler(models.SearchAgents))
		lookup.GET("/branches", searchHandler(models.SearchBranches))
		lookup.GET("/pp-books", searchHandler(models.SearchPpBooks))
		lookup.GET("/purchase-breakups", searchHandler(models.SearchPurchaseBreakups))
		lookup.GET("/currencies", currenciesHandler())
		lookup.GET("/purchases", searchPurchasesHandler())
		lookup.GET("/purchases/:id/items", purchaseItemsHandler())
		lookup.GET("/sales/:id/items", saleItemsHandler())
		lookup.GET("/batches", batchSelectHandler())
	}

	masters := authorized.Group("/masters")
	{
		masters.POST("/titles", masterCreate(models.CreateTitle))
		masters.PUT("/titles/:id", masterUpdate(models.UpdateTitle))
		masters.GET("/titles/:id", masterGet(models.GetTitle))

		masters.POST("/suppliers", masterCreate(models.CreateSupplier))
		masters.PUT("/suppliers/:id", masterUpdate(models.UpdateSupplier))
		masters.GET("/suppliers/:id", masterGet(models.GetSupplier))

		masters.POST("/customers", masterCreate(models.CreateCrCustomer))
		masters.PUT("/customers/:id", masterUpdate(models.UpdateCrCustomer))
		masters.DELETE("/customers/:id", deleteCustomerHandler())

		masters.POST("/agents", masterCreate(models.CreateAgent))
		masters.PUT("/agents/:id", masterUpdate(models.UpdateAgent))

		masters.POST("/branches", masterCreate(models.CreateBranch))

		masters.POST("/purchase-breakups", masterCreate(models.CreatePurchaseBreakup))
		masters.PUT("/purchase-breakups/:id", masterUpdate(models.UpdatePurchaseBreakup))

		masters.POST("/pp-books", masterCreate(models.CreatePpBook))
	}

	authorized.GET("/reports/bill-wise-sale-register", billWiseSaleRegisterHandler())

	r.NoRoute(customNotFoundHandler)
}

func masterCreate[I any, M any](create func(ctx context.Context, input *I) (*M, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		input, ok := bindJSON[I](c)
		if !ok {
			return
		}
		result, err := create(c.Request.Context(), input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func masterUpdate[I any, M any](update func(ctx context.Context, id int, input *I) (*M, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		input, ok := bindJSON[I](c)
		if !ok {
			return
		}
		result, err := update(c.Request.Context(), id, input)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func masterGet[M any](get func(ctx context.Context, id int) (*M, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		result, err := get(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func deleteCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		customer, err := models.DeleteCrCustomer(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before dependencies connect; app endpoints
	// return 503 until the database is ready.
	r := gin.New()

	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
