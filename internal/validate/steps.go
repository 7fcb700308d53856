package validate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/evidenceledger/proxybid/internal/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	caseNumberRe     = regexp.MustCompile(`^\d{4}타경\d+$`)
	mobileRe         = regexp.MustCompile(`^010-?\d{4}-?\d{4}$`)
	residentIDRe     = regexp.MustCompile(`^\d{6}-?\d{7}$`)
	businessNumberRe = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{5}$`)
)

const pngDataURLPrefix = "data:image/png;base64,"

// CourtDirectory tells whether a court office code exists
type CourtDirectory interface {
	Known(code string) bool
}

var lookupOrder = []string{"courtCode", "caseNumber"}

// ValidateCaseLookup checks the lookup input and that a case has been found for it
func ValidateCaseLookup(in models.LookupInput, res *models.CaseResult, dir CourtDirectory) Errors {
	errs := ValidateLookupInput(in, dir)

	courtCode := strings.TrimSpace(in.CourtCode)
	switch {
	case res == nil:
		errs = append(errs, FieldError{Field: "case", Message: "사건을 조회해 주세요"})
	case courtCode != "" && res.CourtCode != courtCode:
		errs = append(errs, FieldError{Field: "case", Message: "조회된 사건이 선택한 법원과 다릅니다. 다시 조회해 주세요"})
	}

	return errs
}

// ValidateLookupInput checks the court code and case number before a lookup is attempted
func ValidateLookupInput(in models.LookupInput, dir CourtDirectory) Errors {
	in.CourtCode = strings.TrimSpace(in.CourtCode)
	in.CaseNumber = strings.TrimSpace(in.CaseNumber)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.CourtCode,
			validation.Required.Error("법원을 선택해 주세요"),
			validation.By(knownCourt(dir)),
		),
		validation.Field(&in.CaseNumber,
			validation.Required.Error("사건번호를 입력해 주세요"),
			validation.Match(caseNumberRe).Error("사건번호 형식이 올바르지 않습니다 (예: 2024타경12345)"),
		),
	)
	return flatten(err, lookupOrder)
}

var inputOrder = []string{
	"applicationType", "bidAmt", "phone", "address",
	"residentId", "companyName", "businessNumber", "representative", "memberCount", "members",
	"bank", "accountNumber",
}

// ValidateInputForm checks the applicant and bid fields. The lowest bid comes from res.
func ValidateInputForm(f models.FormData, res *models.CaseResult) Errors {
	var lowest int64
	if res != nil {
		lowest = res.LowestBidAmount
	}

	personal := f.ApplicationType == models.Personal
	company := f.ApplicationType == models.Company
	group := f.ApplicationType == models.Group

	err := validation.ValidateStruct(&f,
		validation.Field(&f.ApplicationType,
			validation.Required.Error("신청 유형을 선택해 주세요"),
			validation.By(applicationType),
		),
		validation.Field(&f.BidAmt,
			validation.Required.Error("입찰가를 입력해 주세요"),
			validation.By(bidAmount(lowest)),
		),
		validation.Field(&f.Phone,
			validation.Required.Error("휴대폰 번호를 입력해 주세요"),
			validation.Match(mobileRe).Error("휴대폰 번호 형식이 올바르지 않습니다"),
		),
		validation.Field(&f.Address,
			validation.Required.Error("주소를 입력해 주세요"),
		),
		validation.Field(&f.Bank,
			validation.Required.Error("은행을 선택해 주세요"),
		),
		validation.Field(&f.AccountNumber,
			validation.Required.Error("계좌번호를 입력해 주세요"),
			validation.By(accountNumber),
		),
		validation.Field(&f.ResidentID,
			validation.When(personal,
				validation.Required.Error("주민등록번호를 입력해 주세요"),
				validation.Match(residentIDRe).Error("주민등록번호 형식이 올바르지 않습니다"),
			),
		),
		validation.Field(&f.CompanyName,
			validation.When(company, validation.Required.Error("법인명을 입력해 주세요")),
		),
		validation.Field(&f.BusinessNumber,
			validation.When(company,
				validation.Required.Error("사업자등록번호를 입력해 주세요"),
				validation.Match(businessNumberRe).Error("사업자등록번호 형식이 올바르지 않습니다"),
			),
		),
		validation.Field(&f.Representative,
			validation.When(company || group, validation.Required.Error("대표자명을 입력해 주세요")),
		),
		validation.Field(&f.MemberCount,
			validation.When(group,
				validation.Required.Error("참여 인원을 입력해 주세요"),
				validation.Min(2).Error("공동입찰은 2인 이상이어야 합니다"),
			),
		),
		validation.Field(&f.Members,
			validation.When(group, validation.By(memberCount(f.MemberCount))),
		),
	)
	errs := flatten(err, inputOrder)

	if group {
		errs = append(errs, validateMembers(f.Members)...)
	}

	return errs
}

func validateMembers(members []models.Member) Errors {
	var errs Errors
	for i := range members {
		m := members[i]
		m.Name = strings.TrimSpace(m.Name)

		err := validation.ValidateStruct(&m,
			validation.Field(&m.Name,
				validation.Required.Error("참여자 이름을 입력해 주세요"),
			),
			validation.Field(&m.ResidentID,
				validation.Required.Error("참여자 주민등록번호를 입력해 주세요"),
				validation.Match(residentIDRe).Error("주민등록번호 형식이 올바르지 않습니다"),
			),
		)
		for _, fe := range flatten(err, []string{"name", "residentId"}) {
			fe.Field = fmt.Sprintf("members[%d].%s", i, fe.Field)
			errs = append(errs, fe)
		}
	}
	return errs
}

var contractOrder = []string{"phoneVerified", "signature", "termsAgreed"}

// ValidateContractSign checks phone verification, the drawn signature and the terms consent
func ValidateContractSign(f models.FormData) Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.PhoneVerified,
			validation.Required.Error("휴대폰 본인인증을 완료해 주세요"),
		),
		validation.Field(&f.Signature,
			validation.Required.Error("서명을 해 주세요"),
			validation.By(pngDataURL),
		),
		validation.Field(&f.TermsAgreed,
			validation.Required.Error("위임 계약 약관에 동의해 주세요"),
		),
	)
	return flatten(err, contractOrder)
}

var paymentOrder = []string{"paymentMethod", "depositorName", "privacyAgreed"}

// ValidatePayment checks the payment method and the privacy consent
func ValidatePayment(f models.FormData) Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.PaymentMethod,
			validation.Required.Error("결제 방법을 선택해 주세요"),
			validation.In(models.PaymentTransfer, models.PaymentCard).Error("지원하지 않는 결제 방법입니다"),
		),
		validation.Field(&f.DepositorName,
			validation.When(f.PaymentMethod == models.PaymentTransfer,
				validation.Required.Error("입금자명을 입력해 주세요"),
			),
		),
		validation.Field(&f.PrivacyAgreed,
			validation.Required.Error("개인정보 수집 및 이용에 동의해 주세요"),
		),
	)
	return flatten(err, paymentOrder)
}

// ValidateReview is the union of every step validation.
// Calling it repeatedly on the same state gives the same result.
func ValidateReview(in models.LookupInput, res *models.CaseResult, f models.FormData, dir CourtDirectory) Errors {
	var errs Errors
	errs = errs.merge(ValidateCaseLookup(in, res, dir))
	errs = errs.merge(ValidateInputForm(f, res))
	errs = errs.merge(ValidateContractSign(f))
	errs = errs.merge(ValidatePayment(f))
	return errs
}

func knownCourt(dir CourtDirectory) validation.RuleFunc {
	return func(value any) error {
		code, _ := value.(string)
		if code == "" || dir == nil || dir.Known(code) {
			return nil
		}
		return errors.New("등록되지 않은 법원입니다")
	}
}

func applicationType(value any) error {
	t, _ := value.(models.ApplicationType)
	if t == "" || t.Valid() {
		return nil
	}
	return errors.New("신청 유형이 올바르지 않습니다")
}

// bidAmount reports a single error whatever the reason the amount is not acceptable
func bidAmount(lowest int64) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		n, err := models.ParseAmount(s)
		if err != nil {
			return errors.New("입찰가는 숫자로 입력해 주세요")
		}
		if n < lowest {
			return fmt.Errorf("입찰가는 최저매각가격(%s원) 이상이어야 합니다", models.FormatWon(lowest))
		}
		return nil
	}
}

func accountNumber(value any) error {
	s, _ := value.(string)
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-' || r == ' ':
		default:
			return errors.New("계좌번호는 숫자만 입력해 주세요")
		}
	}
	if digits < 10 || digits > 16 {
		return errors.New("계좌번호는 10~16자리 숫자여야 합니다")
	}
	return nil
}

func memberCount(want int) validation.RuleFunc {
	return func(value any) error {
		members, _ := value.([]models.Member)
		if want >= 2 && len(members) != want {
			return fmt.Errorf("참여자 %d명의 정보를 모두 입력해 주세요", want)
		}
		return nil
	}
}

func pngDataURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, pngDataURLPrefix) {
		return errors.New("서명 이미지 형식이 올바르지 않습니다")
	}
	raw, err := base64.StdEncoding.DecodeString(s[len(pngDataURLPrefix):])
	if err != nil || len(raw) < 8 || string(raw[:8]) != "\x89PNG\r\n\x1a\n" {
		return errors.New("서명 이미지 형식이 올바르지 않습니다")
	}
	return nil
}
