package arangodb

// ModuleSize is the number of function nodes declared in one module (namespace).
type ModuleSize struct {
	Module    string `json:"module"`
	Functions int    `json:"functions"`
}

// ModuleDependency aggregates call edges crossing from one module into another.
type ModuleDependency struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Calls int    `json:"calls"`
}

type CallSplit struct {
	Intra int `json:"intra"`
	Inter int `json:"inter"`
}

type FunctionStats struct {
	Total             int     `json:"total"`
	Documented        int     `json:"documented"`
	Measured          int     `json:"measured"`
	AverageComplexity float64 `json:"average_complexity"`
	MaxComplexity     float64 `json:"max_complexity"`
}
