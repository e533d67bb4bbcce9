package http

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"transcoop/internal/core"
	"transcoop/internal/report"
	"transcoop/internal/services"
)

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	serveList(s, w, r, func(ctx context.Context) ([]loanJSON, error) {
		list, err := s.svc.Loans.List(ctx)
		return mapSlice(list, loanFromCore), err
	})
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	principal, err := core.ParseAmount(req.Principal)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusCreated, func(ctx context.Context) (loanJSON, error) {
		l, err := s.svc.Loans.Create(ctx, req.DriverID, principal)
		return loanFromCore(l), err
	})
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	var req loanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	l := core.Loan{ID: id, DriverID: req.DriverID}
	if l.Principal, err = core.ParseAmount(req.Principal); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	if l.Balance, err = core.ParseAmount(req.Balance); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (loanJSON, error) {
		l, err := s.svc.Loans.Update(ctx, l)
		return loanFromCore(l), err
	})
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (empty, error) {
		return empty{}, s.svc.Loans.Delete(ctx, id)
	})
}

func (s *Server) handleLoanPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (loanJSON, error) {
		l, err := s.svc.Loans.ApplyPayment(ctx, id, amount)
		return loanFromCore(l), err
	})
}

// handleActiveLoan answers data: null when the driver owes nothing.
func (s *Server) handleActiveLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (*loanJSON, error) {
		l, err := s.svc.Loans.ActiveForDriver(ctx, id)
		if err != nil || l == nil {
			return nil, err
		}
		out := loanFromCore(*l)
		return &out, nil
	})
}

func (s *Server) handleExportLoans(w http.ResponseWriter, r *http.Request) {
	serveFile(s, w, r, "prestamos.xlsx", contentTypeXLSX, func(ctx context.Context, out io.Writer) error {
		list, err := s.svc.Loans.List(ctx)
		if err != nil {
			return err
		}
		return s.excel.Export(out, report.LoansTable(list))
	})
}

// handleListSettlements returns the consolidated month. A failed read
// degrades to an empty period like the other lists.
func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	sp, err := Dispatch(r.Context(), s.timeout, func(ctx context.Context) (periodJSON, error) {
		sp, err := s.svc.Settlements.ListByPeriod(ctx, p)
		return periodFromService(sp), err
	})
	if err != nil {
		warnList(r, err)
		sp = periodFromService(services.SettlementPeriod{Period: p})
	}
	NewJSONResponse().Data(sp).Write(w)
}

func (s *Server) handleSaveSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	in, err := req.toInput()
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (settlementJSON, error) {
		st, err := s.svc.Settlements.Save(ctx, in)
		return settlementFromCore(st), err
	})
}

func (s *Server) handleSetCheck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (settlementJSON, error) {
		if err := s.svc.Settlements.SetCheckNumber(ctx, id, req.CheckNumber); err != nil {
			return settlementJSON{}, err
		}
		st, err := s.svc.Settlements.GetByID(ctx, id)
		return settlementFromCore(st), err
	})
}

func (s *Server) handlePayslip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serveFile(s, w, r, fmt.Sprintf("rol_pagos_%d.pdf", id), contentTypePDF, func(ctx context.Context, out io.Writer) error {
		ps, err := s.svc.Settlements.Payslip(ctx, id)
		if err != nil {
			return err
		}
		return s.pdf.Payslip(out, ps)
	})
}

func (s *Server) handleExportSettlements(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	name := fmt.Sprintf("flujo_%s_%d.xlsx", report.MonthName(p.Month), p.Year)
	serveFile(s, w, r, name, contentTypeXLSX, func(ctx context.Context, out io.Writer) error {
		sp, err := s.svc.Settlements.ListByPeriod(ctx, p)
		if err != nil {
			return err
		}
		return s.excel.Export(out, report.SettlementsTable(p, sp.Rows))
	})
}

func (s *Server) handleListAdminExpenses(w http.ResponseWriter, r *http.Request) {
	serveList(s, w, r, func(ctx context.Context) ([]adminExpenseJSON, error) {
		list, err := s.svc.Aggregation.ListAdminExpenses(ctx)
		return mapSlice(list, adminExpenseFromCore), err
	})
}

func (s *Server) handleSaveAdminExpense(w http.ResponseWriter, r *http.Request) {
	var req adminExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	e, err := req.toCore()
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (adminExpenseJSON, error) {
		saved, err := s.svc.Aggregation.SaveAdminExpense(ctx, e)
		return adminExpenseFromCore(saved), err
	})
}

// handleAdminExpensePeriod returns the period's record with fees recomputed;
// a period never saved comes back with zero expenses.
func (s *Server) handleAdminExpensePeriod(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (adminExpenseJSON, error) {
		rep, err := s.svc.Aggregation.AdminExpenseReport(ctx, p)
		return adminExpenseFromCore(rep.Expense), err
	})
}

func (s *Server) handleAdminExpensePDF(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	name := fmt.Sprintf("gastos_admin_%s_%d.pdf", report.MonthName(p.Month), p.Year)
	serveFile(s, w, r, name, contentTypePDF, func(ctx context.Context, out io.Writer) error {
		rep, err := s.svc.Aggregation.AdminExpenseReport(ctx, p)
		if err != nil {
			return err
		}
		return s.pdf.AdminExpense(out, rep)
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (dashboardJSON, error) {
		st, err := s.svc.Aggregation.Dashboard(ctx)
		return dashboardJSON(st), err
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (userJSON, error) {
		u, err := s.svc.Auth.Login(ctx, req.Name, req.Password)
		return userJSON{ID: u.ID, Name: u.Name, Role: u.Role}, err
	})
}
