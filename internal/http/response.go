package http

import (
	"fintrack/internal/core"
	"fintrack/internal/services"
)

type totalsResponse struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

type dailyFlowResponse struct {
	Date    string  `json:"date"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type categoryAmountResponse struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type dashboardResponse struct {
	Totals     totalsResponse           `json:"totals"`
	Daily      []dailyFlowResponse      `json:"daily"`
	ByCategory []categoryAmountResponse `json:"by_category"`
}

type transactionResponse struct {
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	Description      string    `json:"description"`
	Income           float64   `json:"income"`
	Expense          float64   `json:"expense"`
	RemainingBalance *float64  `json:"remaining_balance,omitempty"`
	Category         string    `json:"category"`
	Kind             core.Kind `json:"kind"`
}

type transactionsResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Categories   []string              `json:"categories"`
}

type categoriesResponse struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

type categoryListResponse struct {
	Kind       core.Kind `json:"kind"`
	Categories []string  `json:"categories"`
}

type yearsResponse struct {
	Years []int `json:"years"`
}

type importResponse struct {
	Rows int `json:"rows"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	resp := transactionResponse{
		Date:        tx.Date.String(),
		Time:        tx.Time,
		Description: tx.Description,
		Income:      tx.Income,
		Expense:     tx.Expense,
		Category:    tx.Category,
		Kind:        tx.Kind,
	}
	if tx.HasRemainingBalance {
		resp.RemainingBalance = &tx.RemainingBalance
	}
	return resp
}

func toTransactionList(ts []core.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(ts))
	for i, tx := range ts {
		resp[i] = toTransactionResponse(tx)
	}
	return resp
}

func toDashboardResponse(d services.Dashboard) dashboardResponse {
	resp := dashboardResponse{
		Totals: totalsResponse{
			Income:  d.Totals.Income,
			Expense: d.Totals.Expense,
			Balance: d.Totals.Balance,
		},
		Daily:      make([]dailyFlowResponse, len(d.Daily)),
		ByCategory: make([]categoryAmountResponse, len(d.ByCategory)),
	}
	for i, f := range d.Daily {
		resp.Daily[i] = dailyFlowResponse{Date: f.Date.String(), Income: f.Income, Expense: f.Expense}
	}
	for i, c := range d.ByCategory {
		resp.ByCategory[i] = categoryAmountResponse{Name: c.Name, Amount: c.Amount}
	}
	return resp
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
