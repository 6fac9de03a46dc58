// internal/models/recommendation.go
package models

// Recommendation is one suggested asset as produced by the external
// recommendation source. The core relays fields, it never computes them.
// Field names match the upstream JSON artifacts.
type Recommendation struct {
	Nombre       string    `json:"nombre"`
	Symbol       string    `json:"symbol"`
	PrecioUSD    float64   `json:"precio_usd,omitempty"`
	Unidades     float64   `json:"unidades,omitempty"`
	ValorUSD     float64   `json:"valor_usd,omitempty"`
	Score        float64   `json:"score,omitempty"`
	Razon        string    `json:"razon,omitempty"`
	Probabilidad string    `json:"probabilidad,omitempty"`
	Proyeccion   []float64 `json:"proyeccion,omitempty"`
}
