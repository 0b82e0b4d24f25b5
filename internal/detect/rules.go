package detect

// Rule maps column statistics to a type. Apply reports false when the rule
// does not match.
type Rule struct {
	Name  string
	Apply func(s Stats, cfg Config) (ColumnType, bool)
}

func is(t ColumnType, ok bool) (ColumnType, bool) {
	if !ok {
		return "", false
	}
	return t, true
}

// numericSplit separates clean numbers from numbers that need coercion.
func numericSplit(s Stats) ColumnType {
	if s.NumericFrac < 1 {
		return DirtyFloat
	}
	return Continuous
}

var rules = []Rule{
	{Name: "constant", Apply: func(s Stats, _ Config) (ColumnType, bool) {
		return is(Useless, s.Cardinality <= 1)
	}},
	{Name: "identifier", Apply: func(s Stats, cfg Config) (ColumnType, bool) {
		return is(Useless, s.Cardinality == s.Rows && !s.FloatValued(cfg))
	}},
	{Name: "float", Apply: func(s Stats, cfg Config) (ColumnType, bool) {
		if !s.FloatValued(cfg) {
			return "", false
		}
		return numericSplit(s), true
	}},
	{Name: "low-card-int", Apply: func(s Stats, cfg Config) (ColumnType, bool) {
		return is(LowCardInt, s.NumericFrac >= cfg.NumericThreshold && s.AllInteger &&
			float64(s.Cardinality) <= cfg.intCardinalityLimit(s.Rows))
	}},
	{Name: "integer", Apply: func(s Stats, cfg Config) (ColumnType, bool) {
		if s.NumericFrac < cfg.NumericThreshold || !s.AllInteger {
			return "", false
		}
		return numericSplit(s), true
	}},
	{Name: "date", Apply: func(s Stats, cfg Config) (ColumnType, bool) {
		return is(Date, s.DateFrac >= cfg.DateThreshold)
	}},
	{Name: "categorical", Apply: func(s Stats, cfg Config) (ColumnType, bool) {
		ratio := float64(s.Cardinality) / float64(max(s.Rows, 1))
		return is(Categorical, ratio < cfg.CategoricalRatio && s.Cardinality <= cfg.CategoricalCap)
	}},
	{Name: "short-tokens", Apply: func(s Stats, cfg Config) (ColumnType, bool) {
		return is(HighCardCategorical, s.MeanWords <= cfg.TokenMaxWords && s.MeanLength <= cfg.TokenMaxLength)
	}},
	{Name: "fallback", Apply: func(Stats, Config) (ColumnType, bool) {
		return FreeText, true
	}},
}

// Rules returns the decision rules in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the type chosen by the first matching rule and that rule's
// name.
func Classify(s Stats, cfg Config) (ColumnType, string) {
	for _, r := range rules {
		if t, ok := r.Apply(s, cfg); ok {
			return t, r.Name
		}
	}
	return FreeText, "fallback"
}
