package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	LoanActive LoanStatus = "ACTIVE"
	LoanPaid   LoanStatus = "PAID"
)

const (
	MinYear = 2000
	MaxYear = 2100
)

type (
	LoanStatus string

	// Period identifies one calendar month.
	Period struct {
		Month int
		Year  int
	}

	Driver struct {
		ID            int64
		DocID         string `validate:"required,len=10,numeric"`
		Name          string `validate:"required,max=120"`
		LicenseNumber string `validate:"max=40"`
		Address       string `validate:"max=200"`
		Phone         string `validate:"omitempty,len=10,numeric"`
		Rating        int    `validate:"gte=0,lte=5"`
		RouteID       *int64
	}

	Vehicle struct {
		ID               int64
		UnitNumber       string `validate:"max=20"`
		Type             string `validate:"max=40"`
		Brand            string `validate:"max=60"`
		Model            string `validate:"max=60"`
		Plate            string `validate:"required,max=12"`
		SerialNumber     string `validate:"max=60"`
		Color            string `validate:"max=30"`
		Year             int    `validate:"omitempty,gte=1950,lte=2100"`
		MaxLoad          string `validate:"max=40"`
		Status           string `validate:"max=30"`
		MaintenanceCycle string `validate:"max=60"`
		InitialKm        int64  `validate:"gte=0"`
	}

	Route struct {
		ID           int64
		Name         string `validate:"required,max=120"`
		Sector       string `validate:"max=120"`
		Institution  string `validate:"max=160"`
		StudentCount int
		DriverID     *int64
		VehicleID    *int64

		// Read-side joins.
		DriverName   string
		VehiclePlate string
	}

	Student struct {
		ID            int64
		RouteID       int64  `validate:"required,gt=0"`
		StudentNumber string `validate:"required,max=20"`
		StudentName   string `validate:"required,max=120"`
		GuardianName  string `validate:"max=120"`
		GuardianID    string `validate:"omitempty,max=13"`
		GuardianEmail string `validate:"omitempty,email"`
		GuardianPhone string `validate:"omitempty,max=15"`
	}

	Loan struct {
		ID        int64
		DriverID  int64
		Principal decimal.Decimal
		Balance   decimal.Decimal
		Status    LoanStatus
		CreatedAt time.Time

		DriverName string
	}

	Settlement struct {
		ID                 int64
		DriverID           *int64
		Month              int
		Year               int
		GrossCollections   decimal.Decimal
		AdminFee           decimal.Decimal
		Renta1Pct          decimal.Decimal
		DispatchCommission decimal.Decimal
		PartnerAdvance     decimal.Decimal
		LoanPayment        decimal.Decimal
		AppFee             decimal.Decimal
		CompanyCommission  decimal.Decimal
		TotalDeductions    decimal.Decimal
		NetPayable         decimal.Decimal
		CheckNumber        string
		UpdatedAt          time.Time

		DriverName string
	}

	AdminExpense struct {
		ID                 int64
		Month              int
		Year               int
		TotalFeesCollected decimal.Decimal
		OfficeSupplies     decimal.Decimal
		MiscAmount         decimal.Decimal
		MiscDescription    string
		CheckNumber        string
		CreatedAt          time.Time
	}

	User struct {
		ID           int64
		Name         string
		PasswordHash string
		Role         string
	}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct tags and folds failures into one ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validationf("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return Validationf("%s", strings.Join(msgs, "; "))
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return Validationf("invalid month %d", p.Month)
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return Validationf("invalid year %d", p.Year)
	}
	return nil
}

func (d Driver) Validate() error {
	return validateStruct(d)
}

func (v Vehicle) Validate() error {
	return validateStruct(v)
}

func (r Route) Validate() error {
	return validateStruct(r)
}

func (s Student) Validate() error {
	return validateStruct(s)
}

func (l Loan) Validate() error {
	if l.DriverID <= 0 {
		return Validationf("loan requires a driver")
	}
	if !l.Principal.IsPositive() {
		return Validationf("principal must be greater than zero")
	}
	return requireNonNegative("balance", l.Balance)
}

func (e AdminExpense) Validate() error {
	if err := (Period{Month: e.Month, Year: e.Year}).Validate(); err != nil {
		return err
	}
	if err := requireNonNegative("office supplies", e.OfficeSupplies); err != nil {
		return err
	}
	if err := requireNonNegative("misc amount", e.MiscAmount); err != nil {
		return err
	}
	if len(e.MiscDescription) > 200 {
		return Validationf("misc description too long (max 200 characters)")
	}
	return nil
}

// TotalExpenses is office supplies plus miscellaneous spending.
func (e AdminExpense) TotalExpenses() decimal.Decimal {
	return e.OfficeSupplies.Add(e.MiscAmount)
}

// Normalize trims the free-text fields in place.
func (d *Driver) Normalize() {
	d.DocID = strings.TrimSpace(d.DocID)
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
}

func (v *Vehicle) Normalize() {
	v.Plate = strings.ToUpper(strings.TrimSpace(v.Plate))
	v.UnitNumber = strings.TrimSpace(v.UnitNumber)
}
