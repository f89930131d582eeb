package engine

import (
	"strconv"
	"strings"
	"time"

	"promo-engine/internal/model"
)

const exportDateLayout = "2006-01-02"

// ExportHeader is the column header row for promotion exports.
var ExportHeader = []string{
	"ID",
	"Name",
	"Code",
	"Type",
	"Value",
	"Status",
	"Start Date",
	"End Date",
	"Usage Count",
	"Usage Limit",
	"Min Order Value",
	"Customer Groups",
	"Product Categories",
	"First Time Only",
}

// ExportRows projects a promotion set into a flat tabular representation:
// the header row followed by one record per promotion. Status is derived at
// projection time. No mutation, no I/O.
func ExportRows(promotions []model.Promotion, now time.Time) [][]string {
	rows := make([][]string, 0, len(promotions)+1)
	rows = append(rows, ExportHeader)
	for i := range promotions {
		rows = append(rows, exportRow(&promotions[i], now))
	}
	return rows
}

func exportRow(p *model.Promotion, now time.Time) []string {
	usageLimit := "Unlimited"
	if p.UsageLimit != nil {
		usageLimit = strconv.Itoa(*p.UsageLimit)
	}
	minOrder := "None"
	if p.MinOrderValue != nil {
		minOrder = strconv.FormatFloat(*p.MinOrderValue, 'f', 2, 64)
	}
	firstTime := "No"
	if p.FirstTimeOnly {
		firstTime = "Yes"
	}

	return []string{
		p.ID.String(),
		p.Name,
		p.Code,
		string(p.Type),
		strconv.FormatFloat(p.Value, 'f', -1, 64),
		string(Classify(p, now)),
		p.StartDate.Format(exportDateLayout),
		p.EndDate.Format(exportDateLayout),
		strconv.Itoa(p.UsageCount),
		usageLimit,
		minOrder,
		strings.Join(p.CustomerGroups, ", "),
		strings.Join(p.ProductCategories, ", "),
		firstTime,
	}
}
