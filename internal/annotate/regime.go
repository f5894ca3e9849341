package annotate

// resolveRegime selects the named macro regime for an item, if any. The
// regime groups are mutually exclusive; precedence is explicit rather than
// an incidental else-if ordering:
//
//	Stagflationary > Reflationary > Deflationary > Goldilocks > None
//
// Stagflation wins ties because it is the rarest and most actionable signal;
// Goldilocks is the weakest claim and only fires when nothing else does.
func resolveRegime(r ruleInput) Regime {
	inflationHot := r.has(
		"inflation surges", "inflation accelerat", "hot inflation", "sticky inflation",
		"prices rise faster", "above expectations", "inflation jumps",
	)
	inflationCool := r.has(
		"inflation cools", "inflation eases", "disinflation", "inflation slows",
		"below expectations", "prices fall",
	)
	growthWeak := r.has(
		"recession", "contraction", "slowdown", "weak growth", "layoffs",
		"shrinks", "stagnat",
	)
	growthStrong := r.has(
		"strong growth", "resilient economy", "gdp beats", "economy expands",
		"boom", "record demand",
	)

	switch {
	case inflationHot && growthWeak:
		return RegimeStagflationary
	case inflationHot && growthStrong:
		return RegimeReflationary
	case inflationCool && growthWeak:
		return RegimeDeflationary
	case inflationCool && growthStrong:
		return RegimeGoldilocks
	default:
		return RegimeNone
	}
}
