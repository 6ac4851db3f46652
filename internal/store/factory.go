package store

type Stores struct {
	kv KV
}

func NewStores(kv KV) *Stores {
	return &Stores{kv: kv}
}

func (s *Stores) KV() KV {
	return s.kv
}

func (s *Stores) Evolution() EvolutionStore {
	return newEvolutionStore(s.kv)
}

func (s *Stores) Insights() InsightStore {
	return newInsightStore(s.kv)
}

func (s *Stores) CognitiveHistory(capacity, convergenceCapacity int) *CognitiveHistory {
	return NewCognitiveHistory(s.kv, capacity, convergenceCapacity)
}
