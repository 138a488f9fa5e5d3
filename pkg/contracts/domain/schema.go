package domain

// Field names one column of the output schema
type Field string

// SectionID identifies a logical group of fields read from one sub-document
type SectionID string

const (
	SectionSummary         SectionID = "summary"
	SectionIncomeStatement SectionID = "income_statement"
	SectionBalanceSheet    SectionID = "balance_sheet"
	SectionDerived         SectionID = "derived"
	SectionMeta            SectionID = "meta"
)

// Summary fields
const (
	FieldStockSymbol    Field = "Stock Symbol"
	FieldExchange       Field = "Exchange"
	FieldStockName      Field = "Stock Name"
	FieldMarketCap      Field = "Market Cap"
	FieldEmployees      Field = "Employees"
	FieldCurrentPERatio Field = "Current PE Ratio"
)

// Income statement fields
const (
	FieldCurrentYear         Field = "Current Year"
	FieldPreviousYear        Field = "Previous Year"
	FieldTotalRevenueCurrent Field = "Total Revenue Current Year"
	FieldTotalRevenueLast    Field = "Total Revenue Last Year"
	FieldCostOfRevenue       Field = "Cost of Revenue Total"
	FieldGrossProfit         Field = "Gross Profit"
	FieldSellingGeneralAdmin Field = "Selling General Admin Expenses"
	FieldResearchDevelopment Field = "Research and Development"
	FieldNetIncomeCurrent    Field = "Net Income Current Year"
	FieldNetIncomeLast       Field = "Net Income Last Year"
)

// Balance sheet fields
const (
	FieldCashShortTerm        Field = "Cash and Short Term Investments"
	FieldTotalCurrentAssets   Field = "Total Current Assets"
	FieldTotalAssets          Field = "Total Assets"
	FieldTotalCurrentLiab     Field = "Total Current Liabilities"
	FieldTotalDebt            Field = "Total Debt"
	FieldRetainedEarnings     Field = "Retained Earnings"
	FieldTotalLiabilities     Field = "Total Liabilities"
	FieldTotalLiabShareEquity Field = "Total Liabilities and Shareholders Equity"
)

// Derived fields
const (
	FieldOther               Field = "Other"
	FieldOtherAssets         Field = "Other Assets"
	FieldFixedAssets         Field = "Fixed Assets"
	FieldShareEquity         Field = "Share Equity"
	FieldLongTermLiabilities Field = "Long Term Liabilities"
)

// FieldResolution reports how confidently the identifier was resolved
const FieldResolution Field = "Resolution"

// SchemaColumn binds a field to the section that produces it
type SchemaColumn struct {
	Field   Field
	Section SectionID
}

// Schema is the declared, ordered output schema. Every record carries exactly
// these fields in this order.
var Schema = []SchemaColumn{
	{FieldStockSymbol, SectionSummary},
	{FieldExchange, SectionSummary},
	{FieldStockName, SectionSummary},
	{FieldMarketCap, SectionSummary},
	{FieldEmployees, SectionSummary},
	{FieldCurrentPERatio, SectionSummary},

	{FieldCurrentYear, SectionIncomeStatement},
	{FieldPreviousYear, SectionIncomeStatement},
	{FieldTotalRevenueCurrent, SectionIncomeStatement},
	{FieldTotalRevenueLast, SectionIncomeStatement},
	{FieldCostOfRevenue, SectionIncomeStatement},
	{FieldGrossProfit, SectionIncomeStatement},
	{FieldSellingGeneralAdmin, SectionIncomeStatement},
	{FieldResearchDevelopment, SectionIncomeStatement},
	{FieldNetIncomeCurrent, SectionIncomeStatement},
	{FieldNetIncomeLast, SectionIncomeStatement},

	{FieldCashShortTerm, SectionBalanceSheet},
	{FieldTotalCurrentAssets, SectionBalanceSheet},
	{FieldTotalAssets, SectionBalanceSheet},
	{FieldTotalCurrentLiab, SectionBalanceSheet},
	{FieldTotalDebt, SectionBalanceSheet},
	{FieldRetainedEarnings, SectionBalanceSheet},
	{FieldTotalLiabilities, SectionBalanceSheet},
	{FieldTotalLiabShareEquity, SectionBalanceSheet},

	{FieldOther, SectionDerived},
	{FieldOtherAssets, SectionDerived},
	{FieldFixedAssets, SectionDerived},
	{FieldShareEquity, SectionDerived},
	{FieldLongTermLiabilities, SectionDerived},

	{FieldResolution, SectionMeta},
}

// Header returns the schema field names in declared order
func Header() []string {
	header := make([]string, len(Schema))
	for i, col := range Schema {
		header[i] = string(col.Field)
	}
	return header
}

// FieldsInSection returns the schema fields owned by a section, in schema order
func FieldsInSection(section SectionID) []Field {
	var fields []Field
	for _, col := range Schema {
		if col.Section == section {
			fields = append(fields, col.Field)
		}
	}
	return fields
}

// InSchema reports whether the field is part of the declared schema
func InSchema(field Field) bool {
	for _, col := range Schema {
		if col.Field == field {
			return true
		}
	}
	return false
}
