package api

// Envelope is the response wrapper used by the API. Most endpoints nest the
// payload under "result"; some answer with "data" instead.
type Envelope[T any] struct {
	Result *T `json:"result,omitempty"`
	Data   *T `json:"data,omitempty"`
}

// Payloads returns the present payloads in extraction order: result first,
// then data. Callers pick the first one that satisfies them.
func (e Envelope[T]) Payloads() []*T {
	payloads := make([]*T, 0, 2)
	if e.Result != nil {
		payloads = append(payloads, e.Result)
	}
	if e.Data != nil {
		payloads = append(payloads, e.Data)
	}
	return payloads
}
