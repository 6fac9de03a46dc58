// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"os"
)

// ScriptCatalog describes the runnable scripts for dashboard discovery.
// The runner's allow-set stays authoritative; the catalog only adds
// display metadata on top of it.
type ScriptCatalog struct {
	Version string   `json:"version"`
	Scripts []Script `json:"scripts"`
}

type Script struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Args        []string `json:"args,omitempty"`
}

// Load reads a catalog file. Deployments can override the built-in
// descriptions without rebuilding the server.
func Load(path string) (*ScriptCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat ScriptCatalog
	err = json.Unmarshal(data, &cat)
	return &cat, err
}

// Default is the built-in catalog matching the runner's allow-set.
func Default() *ScriptCatalog {
	return &ScriptCatalog{
		Version: "1",
		Scripts: []Script{
			{
				ID:          "extractor",
				DisplayName: "Extractor de datos",
				Description: "Descarga datos de mercado para la ventana de fechas indicada",
				Args:        []string{"start", "end"},
			},
			{
				ID:          "modelo",
				DisplayName: "Modelo de predicción",
				Description: "Entrena y ejecuta el modelo sobre los datos extraídos",
				Args:        []string{"page"},
			},
			{
				ID:          "modelo_general",
				DisplayName: "Modelo general",
				Description: "Ejecuta el modelo general sobre todo el mercado",
				Args:        []string{"page"},
			},
		},
	}
}
