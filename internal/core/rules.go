package core

// NewRulesEngine constructs an engine instance without rules.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// NewDefaultRulesEngine builds a rules engine with the built-in colony invariants.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewLitterParentsExistRule())
	engine.Register(NewLitterParentSexRule())
	engine.Register(NewPureWildTypeRule())
	engine.Register(NewStrainWeightRule())
	return engine
}
