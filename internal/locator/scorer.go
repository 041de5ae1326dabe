package locator

// Базовые оценки по стратегиям и штрафы. Таблица фиксирована и не меняется между запусками.
const (
	BaseScoreID           = 10
	BaseScoreAttribute    = 9
	BaseScoreRole         = 8
	BaseScoreClass        = 6
	BaseScoreAbsolutePath = 3

	PenaltyDynamic   = 4
	PenaltyDuplicate = 3

	MinScore = 1
	MaxScore = 10
)

func BaseScore(s Strategy) int {
	switch s {
	case StrategyID:
		return BaseScoreID
	case StrategyAttribute:
		return BaseScoreAttribute
	case StrategyRole:
		return BaseScoreRole
	case StrategyClass:
		return BaseScoreClass
	}
	return BaseScoreAbsolutePath
}

// LabelFor - единственный способ получить метку стабильности.
func LabelFor(score int) Label {
	switch {
	case score >= 8:
		return LabelHigh
	case score >= 4:
		return LabelMedium
	}
	return LabelLow
}

// Score выставляет оценку и метку по флагам детектора.
func Score(c *Candidate) {
	s := BaseScore(c.Strategy)
	if c.Dynamic {
		s -= PenaltyDynamic
	}
	if c.Duplicate {
		s -= PenaltyDuplicate
	}
	if s < MinScore {
		s = MinScore
	}
	if s > MaxScore {
		s = MaxScore
	}
	c.Score = s
	c.Label = LabelFor(s)
}
