package schema

// defaultFields covers the source-side names observed across current COSD
// report issues: chart traces label their axes x/y with the series name as
// the category, while the ranking table and hand-built HTML tables spell the
// same columns out in full.
var defaultFields = []Field{
	{Name: "category", Type: TypeString, Key: true, Aliases: []string{"CATEGORY", "name", "series", "cancer group", "Cancer Group"}},
	{Name: "x", Type: TypeString, Key: true, Aliases: []string{"X", "month", "Month", "period", "quarter"}},
	{Name: "y", Type: TypeFloat, Aliases: []string{"Y", "value", "Value", "rate", "Rate", "proportion", "percentage"}},
	{Name: "numerator", Type: TypeInt, Aliases: []string{"NUMERATOR", "Numerator"}},
	{Name: "denominator", Type: TypeInt, Aliases: []string{"DENOMINATOR", "Denominator"}},
	{Name: "organisation", Type: TypeString, Key: true, Aliases: []string{"ORGANISATION", "trust", "Trust", "provider", "Provider"}},
	{Name: "rank", Type: TypeInt, Aliases: []string{"RANK", "overall ranking", "Overall Ranking"}},
	{Name: "score", Type: TypeFloat, Aliases: []string{"SCORE", "overall (%)", "Overall (%)"}},
}

// Default returns the built-in schema. Deployments with additional report
// columns supply their own declaration file via configuration.
func Default() *Schema {
	s, err := New(defaultFields)
	if err != nil {
		panic(err) // static declarations, validated by tests
	}
	return s
}
