package http

import (
	"strings"
	"time"

	"transcoop/internal/core"
	"transcoop/internal/services"

	"github.com/shopspring/decimal"
)

// Money travels as a string with two decimals in responses. Requests accept
// strings so that "12,50" is read the way the operator typed it.

const timestampLayout = time.RFC3339

type driverJSON struct {
	ID            int64  `json:"id"`
	DocID         string `json:"doc_id"`
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Rating        int    `json:"rating"`
	RouteID       *int64 `json:"route_id"`
}

func driverFromCore(d core.Driver) driverJSON {
	return driverJSON{
		ID:            d.ID,
		DocID:         d.DocID,
		Name:          d.Name,
		LicenseNumber: d.LicenseNumber,
		Address:       d.Address,
		Phone:         d.Phone,
		Rating:        d.Rating,
		RouteID:       d.RouteID,
	}
}

func (j driverJSON) toCore() core.Driver {
	return core.Driver{
		ID:            j.ID,
		DocID:         j.DocID,
		Name:          j.Name,
		LicenseNumber: j.LicenseNumber,
		Address:       j.Address,
		Phone:         j.Phone,
		Rating:        j.Rating,
		RouteID:       j.RouteID,
	}
}

type vehicleJSON struct {
	ID               int64  `json:"id"`
	UnitNumber       string `json:"unit_number"`
	Type             string `json:"type"`
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Plate            string `json:"plate"`
	SerialNumber     string `json:"serial_number"`
	Color            string `json:"color"`
	Year             int    `json:"year"`
	MaxLoad          string `json:"max_load"`
	Status           string `json:"status"`
	MaintenanceCycle string `json:"maintenance_cycle"`
	InitialKm        int64  `json:"initial_km"`
}

func vehicleFromCore(v core.Vehicle) vehicleJSON {
	return vehicleJSON(v)
}

func (j vehicleJSON) toCore() core.Vehicle {
	return core.Vehicle(j)
}

type routeJSON struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Sector       string `json:"sector"`
	Institution  string `json:"institution"`
	StudentCount int    `json:"student_count"`
	DriverID     *int64 `json:"driver_id"`
	VehicleID    *int64 `json:"vehicle_id"`
	DriverName   string `json:"driver_name,omitempty"`
	VehiclePlate string `json:"vehicle_plate,omitempty"`
}

func routeFromCore(r core.Route) routeJSON {
	return routeJSON(r)
}

func (j routeJSON) toCore() core.Route {
	return core.Route{
		ID:          j.ID,
		Name:        j.Name,
		Sector:      j.Sector,
		Institution: j.Institution,
		DriverID:    j.DriverID,
		VehicleID:   j.VehicleID,
	}
}

type studentJSON struct {
	ID            int64  `json:"id"`
	RouteID       int64  `json:"route_id"`
	StudentNumber string `json:"student_number"`
	StudentName   string `json:"student_name"`
	GuardianName  string `json:"guardian_name"`
	GuardianID    string `json:"guardian_id"`
	GuardianEmail string `json:"guardian_email"`
	GuardianPhone string `json:"guardian_phone"`
}

func studentFromCore(s core.Student) studentJSON {
	return studentJSON(s)
}

func (j studentJSON) toCore() core.Student {
	return core.Student(j)
}

type loanJSON struct {
	ID         int64  `json:"id"`
	DriverID   int64  `json:"driver_id"`
	DriverName string `json:"driver_name,omitempty"`
	Principal  string `json:"principal"`
	Balance    string `json:"balance"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

func loanFromCore(l core.Loan) loanJSON {
	return loanJSON{
		ID:         l.ID,
		DriverID:   l.DriverID,
		DriverName: l.DriverName,
		Principal:  core.FormatMoney(l.Principal),
		Balance:    core.FormatMoney(l.Balance),
		Status:     string(l.Status),
		CreatedAt:  formatTime(l.CreatedAt),
	}
}

type loanRequest struct {
	DriverID  int64  `json:"driver_id"`
	Principal string `json:"principal"`
	Balance   string `json:"balance"`
}

type paymentRequest struct {
	Amount string `json:"amount"`
}

type settlementRequest struct {
	DriverID           int64   `json:"driver_id"`
	Month              int     `json:"month"`
	Year               int     `json:"year"`
	GrossCollections   string  `json:"gross_collections"`
	AdminFee           *string `json:"admin_fee"`
	DispatchCommission *string `json:"dispatch_commission"`
	PartnerAdvance     *string `json:"partner_advance"`
	LoanPayment        *string `json:"loan_payment"`
	AppFee             *string `json:"app_fee"`
	CompanyCommission  *string `json:"company_commission"`
}

// toInput parses the amounts. Absent or blank optional fields stay nil so the
// calculator applies its defaults.
func (req settlementRequest) toInput() (core.SettlementInput, error) {
	in := core.SettlementInput{DriverID: req.DriverID, Month: req.Month, Year: req.Year}
	if req.DriverID <= 0 {
		return in, core.Validationf("driver_id is required")
	}
	gross, err := core.ParseAmount(req.GrossCollections)
	if err != nil {
		return in, err
	}
	in.GrossCollections = gross

	fields := []struct {
		src *string
		dst **decimal.Decimal
	}{
		{req.AdminFee, &in.AdminFee},
		{req.DispatchCommission, &in.DispatchCommission},
		{req.PartnerAdvance, &in.PartnerAdvance},
		{req.LoanPayment, &in.LoanPayment},
		{req.AppFee, &in.AppFee},
		{req.CompanyCommission, &in.CompanyCommission},
	}
	for _, f := range fields {
		if f.src == nil || strings.TrimSpace(*f.src) == "" {
			continue
		}
		d, err := core.ParseAmount(*f.src)
		if err != nil {
			return in, err
		}
		*f.dst = &d
	}
	return in, nil
}

type settlementJSON struct {
	ID                 int64  `json:"id"`
	DriverID           *int64 `json:"driver_id"`
	DriverName         string `json:"driver_name"`
	Month              int    `json:"month"`
	Year               int    `json:"year"`
	GrossCollections   string `json:"gross_collections"`
	AdminFee           string `json:"admin_fee"`
	Renta1Pct          string `json:"renta_1pct"`
	DispatchCommission string `json:"dispatch_commission"`
	PartnerAdvance     string `json:"partner_advance"`
	LoanPayment        string `json:"loan_payment"`
	AppFee             string `json:"app_fee"`
	CompanyCommission  string `json:"company_commission"`
	TotalDeductions    string `json:"total_deductions"`
	NetPayable         string `json:"net_payable"`
	CheckNumber        string `json:"check_number"`
	UpdatedAt          string `json:"updated_at"`
}

func settlementFromCore(s core.Settlement) settlementJSON {
	return settlementJSON{
		ID:                 s.ID,
		DriverID:           s.DriverID,
		DriverName:         s.DriverName,
		Month:              s.Month,
		Year:               s.Year,
		GrossCollections:   core.FormatMoney(s.GrossCollections),
		AdminFee:           core.FormatMoney(s.AdminFee),
		Renta1Pct:          core.FormatMoney(s.Renta1Pct),
		DispatchCommission: core.FormatMoney(s.DispatchCommission),
		PartnerAdvance:     core.FormatMoney(s.PartnerAdvance),
		LoanPayment:        core.FormatMoney(s.LoanPayment),
		AppFee:             core.FormatMoney(s.AppFee),
		CompanyCommission:  core.FormatMoney(s.CompanyCommission),
		TotalDeductions:    core.FormatMoney(s.TotalDeductions),
		NetPayable:         core.FormatMoney(s.NetPayable),
		CheckNumber:        s.CheckNumber,
		UpdatedAt:          formatTime(s.UpdatedAt),
	}
}

type periodJSON struct {
	Month  int              `json:"month"`
	Year   int              `json:"year"`
	Rows   []settlementJSON `json:"rows"`
	Totals totalsJSON       `json:"totals"`
}

type totalsJSON struct {
	GrossCollections string `json:"gross_collections"`
	TotalDeductions  string `json:"total_deductions"`
	NetPayable       string `json:"net_payable"`
	AdminFees        string `json:"admin_fees"`
}

func periodFromService(sp services.SettlementPeriod) periodJSON {
	out := periodJSON{
		Month: sp.Period.Month,
		Year:  sp.Period.Year,
		Rows:  mapSlice(sp.Rows, settlementFromCore),
		Totals: totalsJSON{
			GrossCollections: core.FormatMoney(sp.Totals.GrossCollections),
			TotalDeductions:  core.FormatMoney(sp.Totals.TotalDeductions),
			NetPayable:       core.FormatMoney(sp.Totals.NetPayable),
			AdminFees:        core.FormatMoney(sp.Totals.AdminFees),
		},
	}
	return out
}

type checkRequest struct {
	CheckNumber string `json:"check_number"`
}

type adminExpenseRequest struct {
	Month           int    `json:"month"`
	Year            int    `json:"year"`
	OfficeSupplies  string `json:"office_supplies"`
	MiscAmount      string `json:"misc_amount"`
	MiscDescription string `json:"misc_description"`
	CheckNumber     string `json:"check_number"`
}

func (req adminExpenseRequest) toCore() (core.AdminExpense, error) {
	e := core.AdminExpense{
		Month:           req.Month,
		Year:            req.Year,
		MiscDescription: req.MiscDescription,
		CheckNumber:     req.CheckNumber,
	}
	var err error
	if e.OfficeSupplies, err = core.ParseOptionalAmount(req.OfficeSupplies, decimal.Zero); err != nil {
		return e, err
	}
	if e.MiscAmount, err = core.ParseOptionalAmount(req.MiscAmount, decimal.Zero); err != nil {
		return e, err
	}
	return e, nil
}

type adminExpenseJSON struct {
	ID                 int64  `json:"id"`
	Month              int    `json:"month"`
	Year               int    `json:"year"`
	TotalFeesCollected string `json:"total_fees_collected"`
	OfficeSupplies     string `json:"office_supplies"`
	MiscAmount         string `json:"misc_amount"`
	MiscDescription    string `json:"misc_description"`
	CheckNumber        string `json:"check_number"`
	TotalExpenses      string `json:"total_expenses"`
	DisposableBalance  string `json:"disposable_balance"`
}

func adminExpenseFromCore(e core.AdminExpense) adminExpenseJSON {
	expenses := e.TotalExpenses()
	return adminExpenseJSON{
		ID:                 e.ID,
		Month:              e.Month,
		Year:               e.Year,
		TotalFeesCollected: core.FormatMoney(e.TotalFeesCollected),
		OfficeSupplies:     core.FormatMoney(e.OfficeSupplies),
		MiscAmount:         core.FormatMoney(e.MiscAmount),
		MiscDescription:    e.MiscDescription,
		CheckNumber:        e.CheckNumber,
		TotalExpenses:      core.FormatMoney(expenses),
		DisposableBalance:  core.FormatMoney(e.TotalFeesCollected.Sub(expenses)),
	}
}

type dashboardJSON struct {
	Vehicles int `json:"vehicles"`
	Drivers  int `json:"drivers"`
	Routes   int `json:"routes"`
	Students int `json:"students"`
	Loans    int `json:"loans"`
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
