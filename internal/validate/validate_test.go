package validate

import (
	"encoding/base64"
	"testing"

	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory map[string]bool

func (d fakeDirectory) Known(code string) bool { return d[code] }

var testDir = fakeDirectory{"B000210": true, "B000240": true}

var pngSignature = "data:image/png;base64," +
	base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

func testCase() *models.CaseResult {
	return &models.CaseResult{
		CourtCode:       "B000210",
		CourtName:       "서울중앙지방법원",
		CaseNumber:      "20240130012345",
		PrintCaseNumber: "2024타경12345",
		LowestBidAmount: 84000000,
		DepositAmount:   8400000,
		BidDate:         "2024-03-15",
	}
}

func validPersonal() models.FormData {
	return models.FormData{
		ApplicationType: models.Personal,
		ApplicantName:   "홍길동",
		BidAmt:          "90,000,000",
		Phone:           "010-1234-5678",
		Address:         "서울특별시 서초구 서초대로 219",
		Bank:            "국민은행",
		AccountNumber:   "123456-01-234567",
		AccountHolder:   "홍길동",
		PhoneVerified:   true,
		Signature:       pngSignature,
		TermsAgreed:     true,
		PrivacyAgreed:   true,
		PaymentMethod:   models.PaymentTransfer,
		DepositorName:   "홍길동",
		ResidentID:      "900101-1234567",
	}
}

func fields(errs Errors) []string {
	out := make([]string, len(errs))
	for i, fe := range errs {
		out[i] = fe.Field
	}
	return out
}

func TestValidateInputFormValidPersonal(t *testing.T) {
	assert.Empty(t, ValidateInputForm(validPersonal(), testCase()))
}

func TestValidateInputFormBidAmount(t *testing.T) {
	tests := []struct {
		name   string
		bidAmt string
		ok     bool
	}{
		{"below lowest", "83,999,999", false},
		{"far below lowest", "1", false},
		{"equal to lowest", "84000000", true},
		{"grouped with spaces", "84 500 000", true},
		{"empty", "", false},
		{"not numeric", "팔천만원", false},
		{"negative", "-90000000", false},
		{"decimal", "90000000.5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validPersonal()
			f.BidAmt = tt.bidAmt

			errs := ValidateInputForm(f, testCase())
			if tt.ok {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, 1, errs.Count("bidAmt"), errs.Error())
			assert.Len(t, errs, 1)
		})
	}
}

func TestValidateInputFormSharedFields(t *testing.T) {
	f := validPersonal()
	f.ApplicationType = "trust"
	f.Phone = "011-123-4567"
	f.Address = ""
	f.Bank = ""
	f.AccountNumber = "12345"

	errs := ValidateInputForm(f, testCase())
	assert.Equal(t, []string{"applicationType", "phone", "address", "bank", "accountNumber"}, fields(errs))
}

func TestValidateInputFormAccountNumber(t *testing.T) {
	for _, s := range []string{"1234567890", "1234-5678-9012-3456", "110 123 456789"} {
		f := validPersonal()
		f.AccountNumber = s
		assert.False(t, ValidateInputForm(f, testCase()).Has("accountNumber"), s)
	}
	for _, s := range []string{"123456789", "12345678901234567", "1234-abcd-5678"} {
		f := validPersonal()
		f.AccountNumber = s
		assert.True(t, ValidateInputForm(f, testCase()).Has("accountNumber"), s)
	}
}

func TestValidateInputFormPersonalResidentID(t *testing.T) {
	f := validPersonal()
	f.ResidentID = "9001011234567"
	assert.Empty(t, ValidateInputForm(f, testCase()))

	f.ResidentID = "90-0101-1234567"
	assert.Equal(t, []string{"residentId"}, fields(ValidateInputForm(f, testCase())))

	f.ResidentID = ""
	assert.Equal(t, []string{"residentId"}, fields(ValidateInputForm(f, testCase())))
}

func TestValidateInputFormCompany(t *testing.T) {
	f := validPersonal()
	f.ApplicationType = models.Company
	f.ResidentID = ""

	errs := ValidateInputForm(f, testCase())
	assert.Equal(t, []string{"companyName", "businessNumber", "representative"}, fields(errs))

	f.CompanyName = "주식회사 한빛"
	f.BusinessNumber = "123-45-67890"
	f.Representative = "김대표"
	assert.Empty(t, ValidateInputForm(f, testCase()))

	f.BusinessNumber = "12345678"
	assert.Equal(t, []string{"businessNumber"}, fields(ValidateInputForm(f, testCase())))
}

func TestValidateInputFormGroup(t *testing.T) {
	f := validPersonal()
	f.ApplicationType = models.Group
	f.ResidentID = ""

	errs := ValidateInputForm(f, testCase())
	assert.Equal(t, []string{"representative", "memberCount"}, fields(errs))

	f.Representative = "홍길동"
	f.MemberCount = 1
	assert.Equal(t, []string{"memberCount"}, fields(ValidateInputForm(f, testCase())))

	f.MemberCount = 3
	f.Members = []models.Member{
		{Name: "홍길동", ResidentID: "900101-1234567"},
		{Name: "", ResidentID: "123"},
	}
	errs = ValidateInputForm(f, testCase())
	assert.Equal(t, []string{"members", "members[1].name", "members[1].residentId"}, fields(errs))

	f.Members = append(f.Members, models.Member{Name: "이몽룡", ResidentID: "9202022345678"})
	f.Members[1] = models.Member{Name: "성춘향", ResidentID: "910505-2345678"}
	assert.Empty(t, ValidateInputForm(f, testCase()))
}

func TestValidateInputFormIgnoresInactiveTypeFields(t *testing.T) {
	f := validPersonal()
	f.BusinessNumber = "bad"
	f.MemberCount = 1
	f.Members = []models.Member{{Name: ""}}
	assert.Empty(t, ValidateInputForm(f, testCase()))
}

func TestValidateContractSign(t *testing.T) {
	assert.Empty(t, ValidateContractSign(validPersonal()))

	errs := ValidateContractSign(models.FormData{})
	assert.Equal(t, []string{"phoneVerified", "signature", "termsAgreed"}, fields(errs))

	f := validPersonal()
	f.Signature = "data:image/jpeg;base64,AAAA"
	assert.Equal(t, []string{"signature"}, fields(ValidateContractSign(f)))

	f.Signature = "data:image/png;base64,bm90IGEgcG5n"
	assert.Equal(t, []string{"signature"}, fields(ValidateContractSign(f)))
}

func TestValidatePayment(t *testing.T) {
	assert.Empty(t, ValidatePayment(validPersonal()))

	f := validPersonal()
	f.DepositorName = ""
	assert.Equal(t, []string{"depositorName"}, fields(ValidatePayment(f)))

	f.PaymentMethod = models.PaymentCard
	assert.Empty(t, ValidatePayment(f))

	f.PaymentMethod = "bitcoin"
	f.PrivacyAgreed = false
	assert.Equal(t, []string{"paymentMethod", "privacyAgreed"}, fields(ValidatePayment(f)))
}

func TestValidateCaseLookup(t *testing.T) {
	in := models.LookupInput{CourtCode: "B000210", CaseNumber: "2024타경12345"}
	assert.Empty(t, ValidateCaseLookup(in, testCase(), testDir))

	errs := ValidateCaseLookup(in, nil, testDir)
	assert.Equal(t, []string{"case"}, fields(errs))

	errs = ValidateCaseLookup(models.LookupInput{CourtCode: "X999999", CaseNumber: "12345"}, nil, testDir)
	assert.Equal(t, []string{"courtCode", "caseNumber", "case"}, fields(errs))

	other := models.LookupInput{CourtCode: "B000240", CaseNumber: "2024타경12345"}
	assert.Equal(t, []string{"case"}, fields(ValidateCaseLookup(other, testCase(), testDir)))
}

func TestValidateReviewIsUnionOfSteps(t *testing.T) {
	in := models.LookupInput{CourtCode: "B000210", CaseNumber: "2024타경12345"}
	f := validPersonal()
	f.BidAmt = "100"
	f.Signature = ""
	f.PaymentMethod = ""

	want := Errors{}
	want = append(want, ValidateCaseLookup(in, testCase(), testDir)...)
	want = append(want, ValidateInputForm(f, testCase())...)
	want = append(want, ValidateContractSign(f)...)
	want = append(want, ValidatePayment(f)...)

	got := ValidateReview(in, testCase(), f, testDir)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"bidAmt", "signature", "paymentMethod"}, fields(got))

	again := ValidateReview(in, testCase(), f, testDir)
	assert.Equal(t, got, again)
}

func TestValidateReviewComplete(t *testing.T) {
	in := models.LookupInput{CourtCode: "B000210", CaseNumber: "2024타경12345"}
	assert.Empty(t, ValidateReview(in, testCase(), validPersonal(), testDir))
}

func TestErrorsHelpers(t *testing.T) {
	errs := Errors{
		{Field: "bidAmt", Message: "a"},
		{Field: "phone", Message: "b"},
		{Field: "bidAmt", Message: "c"},
	}
	assert.True(t, errs.Has("phone"))
	assert.False(t, errs.Has("address"))
	assert.Equal(t, 2, errs.Count("bidAmt"))
	assert.Equal(t, "a", errs.Message("bidAmt"))
	assert.Equal(t, map[string]string{"bidAmt": "a", "phone": "b"}, errs.Map())
	assert.Equal(t, "bidAmt: a; phone: b; bidAmt: c", errs.Error())

	merged := errs[:2].merge(Errors{{Field: "phone", Message: "b"}, {Field: "address", Message: "d"}})
	require.Len(t, merged, 3)
	assert.Equal(t, "address", merged[2].Field)
}

func TestValidateLookupInput(t *testing.T) {
	assert.Empty(t, ValidateLookupInput(models.LookupInput{CourtCode: " B000210 ", CaseNumber: "2024타경12345 "}, testDir))

	errs := ValidateLookupInput(models.LookupInput{}, testDir)
	assert.Equal(t, []string{"courtCode", "caseNumber"}, fields(errs))

	errs = ValidateLookupInput(models.LookupInput{CourtCode: "B000210", CaseNumber: "2024-12345"}, testDir)
	assert.Equal(t, []string{"caseNumber"}, fields(errs))
}
