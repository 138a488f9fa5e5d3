package extractor

import (
	"finscrape/pkg/contracts/domain"
)

// DefaultLayoutVersion names the shipped selector table
const DefaultLayoutVersion = "finance-page-2017"

const (
	incomeRoot  = "//div[@id='incannualdiv']/table[@id='fs-table']"
	balanceRoot = "//div[@id='balannualdiv']/table[@id='fs-table']"

	periodHeader = "thead/tr/th[@class='rgt']"
	scaleHeader  = "thead/tr/th[@class='lm lft nwp']"

	snapData = "//div[@id='market-data-div']//table[@class='snap-data'][1]/tbody"
)

// DefaultLayoutSpec returns the shipped layout for the finance page. It is
// plain configuration; a YAML file with the same shape can replace it.
func DefaultLayoutSpec() LayoutSpec {
	return LayoutSpec{
		Version: DefaultLayoutVersion,
		Summary: SummaryLayout{
			Identifier: "//div[@class='appbar-snippet-secondary']/span",
			Fields: []FieldSpec{
				{Field: domain.FieldStockName, Path: "//div[@class='appbar-snippet-primary']/span", Kind: KindText},
				{Field: domain.FieldMarketCap, Path: snapData + "/tr[5]/td[@class='val']", Kind: KindNumber},
				{Field: domain.FieldEmployees, Path: "//table[@class='quotes rgt nwp']/tbody/tr[6]/td[@class='period'][1]", Kind: KindInteger},
				{Field: domain.FieldCurrentPERatio, Path: snapData + "/tr[6]/td[@class='val']", Kind: KindText},
			},
		},
		Sections: []SectionLayout{
			{
				ID: domain.SectionIncomeStatement,
				Clicks: []Click{
					{Selectors: []string{"//div[@id='fs-type-tabs']/div[@id=':0']"}},
					{Selectors: []string{
						"//div[@class='gf-table-control-plain']//div[@class='g-unit g-first']/a[@id='annual']",
						"//div[@class='gf-table-control-plain']/div[@class='gf-control']/a[@id='annual']",
					}},
				},
				Root:         incomeRoot,
				PeriodHeader: periodHeader,
				Scale:        scaleHeader,
				Fields: []FieldSpec{
					{Field: domain.FieldCurrentYear, Path: periodHeader, Period: PeriodCurrent, Kind: KindDate},
					{Field: domain.FieldPreviousYear, Path: periodHeader, Period: PeriodPrior, Kind: KindDate},
					{Field: domain.FieldTotalRevenueCurrent, Path: "tbody/tr[@class='hilite'][1]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldTotalRevenueLast, Path: "tbody/tr[@class='hilite'][1]/td[@class='r bld']", Period: PeriodPrior, Kind: KindNumber},
					{Field: domain.FieldCostOfRevenue, Path: "tbody/tr[4]/td[@class='r']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldGrossProfit, Path: "tbody/tr[@class='hilite'][2]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldSellingGeneralAdmin, Path: "tbody/tr[6]/td[@class='r']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldResearchDevelopment, Path: "tbody/tr[7]/td[@class='r']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldNetIncomeCurrent, Path: "tbody/tr[@class='hilite'][8]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldNetIncomeLast, Path: "tbody/tr[@class='hilite'][8]/td[@class='r bld']", Period: PeriodPrior, Kind: KindNumber},
				},
			},
			{
				ID: domain.SectionBalanceSheet,
				Clicks: []Click{
					{Selectors: []string{"//div[@id='fs-type-tabs']/div[@id=':1']"}},
				},
				Root:         balanceRoot,
				PeriodHeader: periodHeader,
				Scale:        scaleHeader,
				Fields: []FieldSpec{
					{Field: domain.FieldCashShortTerm, Path: "tbody/tr[3]/td[@class='r']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldTotalCurrentAssets, Path: "tbody/tr[@class='hilite'][1]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldTotalAssets, Path: "tbody/tr[@class='hilite'][2]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldTotalCurrentLiab, Path: "tbody/tr[@class='hilite'][3]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldTotalDebt, Path: "tbody/tr[@class='hilite'][5]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldRetainedEarnings, Path: "tbody/tr[36]/td[@class='r']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldTotalLiabilities, Path: "tbody/tr[@class='hilite'][6]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
					{Field: domain.FieldTotalLiabShareEquity, Path: "tbody/tr[@class='hilite'][8]/td[@class='r bld']", Period: PeriodCurrent, Kind: KindNumber},
				},
			},
		},
	}
}

// DefaultLayout builds the shipped layout
func DefaultLayout() *Layout {
	return MustNewLayout(DefaultLayoutSpec())
}
