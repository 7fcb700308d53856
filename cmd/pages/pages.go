// Command pages serves the wizard templates with sample data, for editing them
// without going through the court lookup and the login.
package main

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"time"

	"github.com/evidenceledger/proxybid/internal/authn"
	"github.com/evidenceledger/proxybid/internal/bidserver"
	"github.com/evidenceledger/proxybid/internal/courts"
	"github.com/evidenceledger/proxybid/internal/database"
	"github.com/evidenceledger/proxybid/internal/html"
	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/evidenceledger/proxybid/internal/payment"
	"github.com/evidenceledger/proxybid/internal/validate"
	"github.com/evidenceledger/proxybid/internal/wizard"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {

	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	fmt.Println(wd)

	// Templates are reloaded on each request when run from the repository root
	htmlrender, err := html.NewRendererFiber(true, bidserver.Views(), "internal/bidserver/views", ".html")
	if err != nil {
		slog.Error("Failed to initialize template engine", "error", err)
		panic(err)
	}

	dir, err := courts.Load()
	if err != nil {
		panic(err)
	}

	app := fiber.New(fiber.Config{
		AppName:                 "Template development",
		ServerHeader:            "ProxyBid",
		EnableTrustedProxyCheck: false,
		ReadTimeout:             30 * time.Second,
		WriteTimeout:            30 * time.Second,
	})

	// Recovers from panics anywhere in the stack chain and handles the control to the centralized ErrorHandler
	app.Use(recover.New())

	app.Get("/page/:name", func(c *fiber.Ctx) error {
		name := c.Params("name")

		data := sampleData(dir, c.Query("errors") == "true")

		return htmlrender.Render(c, name, data, "layout")
	})

	if err := app.Listen(":8080"); err != nil {
		fmt.Println(err)
	}

}

func sampleData(dir *courts.Directory, withErrors bool) fiber.Map {
	signature := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n"))

	res := &models.CaseResult{
		CourtCode:        "B000210",
		CourtName:        "서울중앙지방법원",
		CaseNumber:       "20240130012345",
		PrintCaseNumber:  "2024타경12345",
		EvaluationAmount: 120000000,
		LowestBidAmount:  84000000,
		DepositAmount:    models.DepositFor(84000000),
		BidDate:          "2024-03-15",
	}

	form := models.FormData{
		ApplicationType: models.Group,
		ApplicantName:   "홍길동",
		BidAmt:          "90,000,000",
		Phone:           "010-1234-5678",
		Address:         "서울특별시 서초구 서초대로 219",
		Bank:            "국민은행",
		AccountNumber:   "123456-01-234567",
		AccountHolder:   "홍길동",
		Representative:  "홍길동",
		MemberCount:     2,
		Members: []models.Member{
			{Name: "홍길동", ResidentID: "900101-1234567", Share: "1/2"},
			{Name: "김영희", ResidentID: "920202-2234567", Share: "1/2"},
		},
		PaymentMethod: models.PaymentTransfer,
		DepositorName: "홍길동",
	}

	var errs validate.Errors
	if withErrors {
		errs = validate.ValidateInputForm(models.FormData{ApplicationType: models.Group}, res)
	}

	pay := payment.New(payment.Config{
		Bank:          "신한은행",
		AccountNumber: "100-000-000000",
		AccountHolder: "(주)프록시비드",
		PayURL:        "https://pay.example.com/fee",
	})
	inst, err := pay.Instructions(res)
	if err != nil {
		panic(err)
	}

	return fiber.Map{
		"Identity":      &authn.Identity{UserID: "test-user", Name: "홍길동"},
		"Step":          wizard.InputForm,
		"Steps":         wizard.Steps(),
		"Lookup":        models.LookupInput{CourtCode: res.CourtCode, CaseNumber: res.PrintCaseNumber},
		"Case":          res,
		"Form":          form,
		"Errors":        errs.Map(),
		"Courts":        dir.All(),
		"CourtName":     res.CourtName,
		"MemberRows":    form.Members,
		"Payment":       inst,
		"QRCode":        template.URL(inst.QRCode),
		"SignatureURL":  template.URL(signature),
		"BidAmount":     int64(90000000),
		"ApplicationID": "3f1c2a4e-0000-4000-8000-000000000000",
		"Message":       "",
		"Status":        401,
		"Development":   true,
		"Statuses":      []string{models.StatusSubmitted, models.StatusReviewing},
		"Rows":          []fiber.Map{},
		"Total":         0,
		"Page":          1,
		"LastPage":      1,
		"Query":         database.ListQuery{}.Normalize(),
	}
}
